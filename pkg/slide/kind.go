package slide

// Kind identifies a slide type understood by the generator.
type Kind string

const (
	KindTitle       Kind = "title"
	KindExecutive   Kind = "executive"
	KindFinancials  Kind = "financials"
	KindAssets      Kind = "assets"
	KindLiabilities Kind = "liabilities"
	KindRatios      Kind = "ratios"
	KindTrends      Kind = "trends"
	KindCompany     Kind = "company"
	KindConclusion  Kind = "conclusion"

	// Only meaningful when a company profile was uploaded.
	KindVisionMission    Kind = "vision_mission"
	KindProductsServices Kind = "products_services"
	KindMarketsLocations Kind = "markets_locations"
	KindLeadership       Kind = "leadership"
	KindMajorProjects    Kind = "major_projects"
)

var labels = map[Kind]string{
	KindTitle:            "Title Slide",
	KindExecutive:        "Executive Summary",
	KindFinancials:       "Financial Overview",
	KindAssets:           "Assets Breakdown",
	KindLiabilities:      "Liabilities Analysis",
	KindRatios:           "Financial Ratios",
	KindTrends:           "Trends & Insights",
	KindCompany:          "Company Overview",
	KindConclusion:       "Conclusion",
	KindVisionMission:    "Vision & Mission",
	KindProductsServices: "Products & Services",
	KindMarketsLocations: "Markets & Locations",
	KindLeadership:       "Leadership & Team",
	KindMajorProjects:    "Major Projects & Clients",
}

// Catalog lists every selectable kind in presentation order.
var Catalog = []Kind{
	KindTitle,
	KindExecutive,
	KindFinancials,
	KindAssets,
	KindLiabilities,
	KindRatios,
	KindTrends,
	KindCompany,
	KindVisionMission,
	KindProductsServices,
	KindMarketsLocations,
	KindLeadership,
	KindMajorProjects,
	KindConclusion,
}

// Label returns the display name, falling back to the raw identifier.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

func (k Kind) Known() bool {
	_, ok := labels[k]
	return ok
}

// Position is the index of k in Catalog, or -1.
func (k Kind) Position() int {
	for i, c := range Catalog {
		if c == k {
			return i
		}
	}
	return -1
}
