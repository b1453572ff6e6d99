package incidents

// ProjectsPageLimit is the number of projects fetched per organization when
// computing the visitor's footprint.
const ProjectsPageLimit = 100

// Database is a primary or replica database of a project.
type Database struct {
	Identifier string `json:"identifier"`
	Region     string `json:"region"`
}

// Project is an organization project with all of its databases.
type Project struct {
	Ref       string     `json:"ref"`
	Name      string     `json:"name"`
	Region    string     `json:"region"`
	Databases []Database `json:"databases"`
}

// OrgProjects is one page of an organization's projects. Err is set when the
// page could not be loaded.
type OrgProjects struct {
	OrgSlug  string
	Projects []Project
	// Count is the total number of projects in the organization.
	Count int
	Err   error
}

// Footprint summarizes where a visitor has deployed databases.
type Footprint struct {
	HasProjects       bool
	UserRegions       RegionSet
	HasUnknownRegions bool
}

// Summarize folds per-organization project pages into a footprint. A failed
// page, or one that holds fewer projects than the organization's count, marks
// the regions as unknown.
func Summarize(pages []OrgProjects) Footprint {
	fp := Footprint{UserRegions: NewRegionSet()}
	for _, page := range pages {
		if page.Err != nil {
			fp.HasUnknownRegions = true
			continue
		}
		if page.Count > len(page.Projects) {
			fp.HasUnknownRegions = true
		}
		for _, project := range page.Projects {
			fp.HasProjects = true
			for _, db := range project.Databases {
				fp.UserRegions.Add(db.Region)
			}
		}
	}
	return fp
}

// Banner is the banner shown to a visitor.
type Banner struct {
	Title string `json:"title"`
}

// ResolveInput is the full state the banner is resolved from.
type ResolveInput struct {
	// Override forces the banner on regardless of incidents.
	Override  bool
	Incidents []BannerIncident
	Footprint Footprint
}

// ResolveBanner returns the banner for a visitor, or nil when none applies.
func ResolveBanner(in ResolveInput) *Banner {
	if in.Override {
		return &Banner{Title: TitleInvestigating}
	}
	if len(in.Incidents) == 0 {
		return nil
	}
	show := ShouldShowBanner(BannerInput{
		Incidents:         in.Incidents,
		HasProjects:       in.Footprint.HasProjects,
		UserRegions:       in.Footprint.UserRegions,
		HasUnknownRegions: in.Footprint.HasUnknownRegions,
	})
	if !show {
		return nil
	}
	if in.Footprint.HasProjects {
		return &Banner{Title: TitleInvestigating}
	}
	return &Banner{Title: TitleProjectCreationImpact}
}

// Organization is an organization a visitor belongs to.
type Organization struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}
