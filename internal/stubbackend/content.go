package stubbackend

import (
	"bytes"

	"github.com/Dhruv3sood/finq/pkg/slide"
)

// cannedSlide returns fixed, plausible content for kind so the client can
// exercise every field shape without a real generator.
func cannedSlide(kind slide.Kind, score float64) slide.Spec {
	var fields []slide.Field
	switch kind {
	case slide.KindTitle:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Financial Review"},
			slide.TextField{Name: "subtitle", Text: "Balance sheet analysis"},
			slide.TextField{Name: "company_name", Text: "Sample Company"},
		}
	case slide.KindExecutive:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Executive Summary"},
			slide.ListField{Name: "highlights", Items: []string{
				"Total assets of $1,250,000",
				"Current ratio of 1.80 indicates healthy liquidity",
				"Debt-to-equity of 0.65 is conservative",
			}},
		}
	case slide.KindFinancials:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Financial Overview"},
			slide.MetricsField{Items: []slide.Metric{
				{Label: "Total Assets", Value: "$1,250,000"},
				{Label: "Total Liabilities", Value: "$490,000"},
				{Label: "Equity", Value: "$760,000", Change: "+8%"},
			}},
		}
	case slide.KindAssets:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Assets Breakdown"},
			slide.TextField{Name: "total", Text: "$1,250,000"},
			slide.BreakdownField{Items: []slide.BreakdownEntry{
				{Category: "Cash", Amount: "$250,000.00", Percentage: "20.0%"},
				{Category: "Inventory", Amount: "$1,000,000.00", Percentage: "80.0%"},
			}},
		}
	case slide.KindLiabilities:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Liabilities Analysis"},
			slide.TextField{Name: "current", Text: "$190,000"},
			slide.TextField{Name: "long_term", Text: "$300,000"},
		}
	case slide.KindRatios:
		fields = []slide.Field{
			slide.TextField{Name: "title", Text: "Financial Ratios"},
			slide.RatiosField{Items: []slide.Ratio{
				{Name: "Current Ratio", Value: "1.80", Interpretation: "Healthy liquidity", Benchmark: "> 1.5 (Good)"},
				{Name: "Debt-to-Equity", Value: "0.65", Interpretation: "Conservative leverage", Benchmark: "< 1.0 (Conservative)"},
			}},
		}
	case slide.KindTrends:
		fields = []slide.Field{
			slide.ListField{Name: "insights", Items: []string{"Inventory dominates the asset base"}},
		}
	case slide.KindCompany:
		fields = []slide.Field{
			slide.TextField{Name: "industry", Text: "Manufacturing"},
			slide.TextField{Name: "founded", Text: "1998"},
			slide.ListField{Name: "key_facts", Items: []string{"ISO 9001 certified"}},
		}
	case slide.KindLeadership:
		fields = []slide.Field{
			slide.ListField{Name: "leadership", Items: []string{"J. Doe - CEO", "A. Smith - CFO"}},
		}
	case slide.KindConclusion:
		fields = []slide.Field{
			slide.ListField{Name: "key_takeaways", Items: []string{"Strong liquidity position"}},
			slide.ListField{Name: "next_steps", Items: []string{"Review debt management strategy"}},
		}
	default:
		fields = []slide.Field{
			slide.TextField{Name: "summary", Text: "No additional detail available."},
		}
	}

	return slide.Spec{Type: kind, Content: slide.NewContent(fields...), QualityScore: &score}
}

// renderArtifact stands in for the presentation binary.
func renderArtifact(g *generated) []byte {
	var buf bytes.Buffer
	buf.WriteString("FINQ-STUB-DECK\n")
	_ = slide.NewRenderer(slide.Style{}).RenderDeck(&buf, g.slides, g.metadata)
	return buf.Bytes()
}
