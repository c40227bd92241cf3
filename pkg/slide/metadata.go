package slide

import (
	"encoding/json"
	"fmt"
)

// Metadata summarizes one generation run.
type Metadata struct {
	SlideCount          int      `json:"slide_count"`
	AvgQualityScore     float64  `json:"avg_quality_score"`
	GenerationMethod    string   `json:"generation_method,omitempty"`
	UsedEnhancedContext bool     `json:"used_enhanced_context"`
	Template            string   `json:"template,omitempty"`
	Theme               string   `json:"theme,omitempty"`
	ContextSlides       []string `json:"context_slides,omitempty"`

	// set when the backend sent a score, so a reported 0 is not recomputed
	avgReported bool
}

// UnmarshalJSON accepts snake_case and camelCase keys.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	pick := func(dst interface{}, keys ...string) bool {
		for _, k := range keys {
			if v, ok := raw[k]; ok && string(v) != "null" {
				if json.Unmarshal(v, dst) == nil {
					return true
				}
			}
		}
		return false
	}

	var out Metadata
	pick(&out.SlideCount, "slide_count", "slideCount")
	out.avgReported = pick(&out.AvgQualityScore, "avg_quality_score", "avgQualityScore")
	pick(&out.GenerationMethod, "generation_method", "generationMethod")
	pick(&out.UsedEnhancedContext, "used_enhanced_context", "usedEnhancedContext")
	pick(&out.Template, "template")
	pick(&out.Theme, "theme")
	pick(&out.ContextSlides, "context_slides", "contextSlides")

	*m = out
	return nil
}

// Badge is the one-line quality summary shown above a deck.
func (m Metadata) Badge() string {
	return fmt.Sprintf("Quality: %.1f/100", m.AvgQualityScore)
}

// DeriveMetadata fills in what the backend left out, using the slides themselves.
func DeriveMetadata(slides []Spec, m *Metadata) Metadata {
	var out Metadata
	if m != nil {
		out = *m
	}
	if out.SlideCount == 0 {
		out.SlideCount = len(slides)
	}
	if out.AvgQualityScore == 0 && !out.avgReported {
		var sum float64
		var n int
		for _, s := range slides {
			if s.QualityScore != nil {
				sum += *s.QualityScore
				n++
			}
		}
		if n > 0 {
			out.AvgQualityScore = sum / float64(n)
		}
	}
	return out
}
