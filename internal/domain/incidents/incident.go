package incidents

import "time"

// Impact values reported by the status page.
const (
	ImpactNone        = "none"
	ImpactMinor       = "minor"
	ImpactMajor       = "major"
	ImpactCritical    = "critical"
	ImpactMaintenance = "maintenance"
)

// Banner titles.
const (
	TitleInvestigating         = "We are investigating a technical issue"
	TitleProjectCreationImpact = "Project creation may be impacted in some regions"
)

// IncidentInfo is an unresolved status page incident, optionally enriched with
// its cache row.
type IncidentInfo struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Impact    string            `json:"impact"`
	Shortlink string            `json:"shortlink,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	Metadata  *IncidentMetadata `json:"metadata,omitempty"`
	Cache     *IncidentCache    `json:"cache"`
}

// IncidentMetadata is the free-form metadata block attached to an incident.
// Only the dashboard section is interpreted.
type IncidentMetadata struct {
	Dashboard *DashboardMetadata `json:"dashboard_metadata,omitempty"`
}

// DashboardMetadata carries the dashboard flags of an incident.
type DashboardMetadata struct {
	ShowBanner bool `json:"show_banner"`
}

// ShowsBanner reports whether the incident is flagged for the dashboard banner
// and is not a maintenance window.
func (i IncidentInfo) ShowsBanner() bool {
	if i.Impact == ImpactMaintenance {
		return false
	}
	return i.Metadata != nil && i.Metadata.Dashboard != nil && i.Metadata.Dashboard.ShowBanner
}

// FilterBannerIncidents keeps the incidents that may appear in the banner,
// preserving order.
func FilterBannerIncidents(all []IncidentInfo) []IncidentInfo {
	out := make([]IncidentInfo, 0, len(all))
	for _, incident := range all {
		if incident.ShowsBanner() {
			out = append(out, incident)
		}
	}
	return out
}

// IDs returns the incident ids in order.
func IDs(list []IncidentInfo) []string {
	ids := make([]string, len(list))
	for i, incident := range list {
		ids[i] = incident.ID
	}
	return ids
}

// Enrich attaches cache rows by incident id. Incidents without a row get a nil
// cache. The input slice is not modified.
func Enrich(list []IncidentInfo, caches map[string]IncidentCache) []IncidentInfo {
	out := make([]IncidentInfo, len(list))
	for i, incident := range list {
		incident.Cache = nil
		if c, ok := caches[incident.ID]; ok {
			c := c
			incident.Cache = &c
		}
		out[i] = incident
	}
	return out
}

// ToBannerIncidents projects enriched incidents onto the banner input shape.
func ToBannerIncidents(list []IncidentInfo) []BannerIncident {
	out := make([]BannerIncident, len(list))
	for i, incident := range list {
		out[i] = BannerIncident{Cache: incident.Cache}
	}
	return out
}
