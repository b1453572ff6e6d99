// Package incidents decides whether a visitor should see the status page
// incident banner, and models the incident data the decision consumes.
package incidents

// IncidentCache is precomputed per-incident metadata. A nil AffectedRegions
// means the incident has no region restriction.
type IncidentCache struct {
	AffectedRegions        []string `json:"affected_regions"`
	AffectsProjectCreation bool     `json:"affects_project_creation"`
}

// BannerIncident is an active incident as seen by the banner. A nil Cache means
// the metadata has not been computed yet and the incident is unrestricted.
type BannerIncident struct {
	Cache *IncidentCache `json:"cache"`
}

// RegionSet is a set of region codes.
type RegionSet map[string]struct{}

// NewRegionSet builds a set from region codes, ignoring empty strings.
func NewRegionSet(regions ...string) RegionSet {
	set := make(RegionSet, len(regions))
	for _, r := range regions {
		if r != "" {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether region is in the set. A nil set contains nothing.
func (s RegionSet) Has(region string) bool {
	_, ok := s[region]
	return ok
}

// Add inserts region into the set.
func (s RegionSet) Add(region string) {
	if region != "" {
		s[region] = struct{}{}
	}
}

// BannerInput is everything ShouldShowBanner needs.
type BannerInput struct {
	Incidents   []BannerIncident
	HasProjects bool
	// UserRegions holds the regions of every database, primary and replica,
	// the visitor owns across all organizations.
	UserRegions RegionSet
	// HasUnknownRegions is set when the region list is incomplete, e.g. an
	// organization has more projects than were fetched.
	HasUnknownRegions bool
}

// ShouldShowBanner returns true if any active incident matches the visitor.
//
// Visitors without projects only see incidents that affect project creation.
// For everyone else an incident without region restriction always matches, a
// restricted one matches when the visitor has a database in an affected region,
// and incomplete region data assumes a match.
func ShouldShowBanner(in BannerInput) bool {
	for _, incident := range in.Incidents {
		if incidentMatches(incident, in) {
			return true
		}
	}
	return false
}

func incidentMatches(incident BannerIncident, in BannerInput) bool {
	var (
		affectedRegions        []string
		affectsProjectCreation bool
	)
	if incident.Cache != nil {
		affectedRegions = incident.Cache.AffectedRegions
		affectsProjectCreation = incident.Cache.AffectsProjectCreation
	}

	if !in.HasProjects {
		return affectsProjectCreation
	}
	if len(affectedRegions) == 0 {
		return true
	}
	if in.HasUnknownRegions {
		return true
	}
	for _, region := range affectedRegions {
		if in.UserRegions.Has(region) {
			return true
		}
	}
	return false
}
