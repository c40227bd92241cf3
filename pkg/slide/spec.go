package slide

import (
	"encoding/json"
	"fmt"
)

// Spec is one slide as returned by the generator: a kind, its content and an
// optional quality score in the 0-100 range.
type Spec struct {
	Type         Kind     `json:"type"`
	Content      Content  `json:"content"`
	QualityScore *float64 `json:"quality_score,omitempty"`
}

// UnmarshalJSON accepts both the nested form {type, content, quality_score}
// and a flat form where content keys sit next to type.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("slide must be an object: %w", err)
	}

	var out Spec
	if t, ok := raw["type"]; ok {
		kind, _ := scalarText(t)
		out.Type = Kind(kind)
		delete(raw, "type")
	}

	for _, key := range []string{"quality_score", "qualityScore"} {
		if v, ok := raw[key]; ok {
			var score float64
			if err := json.Unmarshal(v, &score); err == nil {
				out.QualityScore = &score
			}
			delete(raw, key)
		}
	}

	body, nested := raw["content"]
	if nested {
		if err := json.Unmarshal(body, &out.Content); err != nil {
			// a non-object content is shown as a plain summary
			if text, ok := scalarText(body); ok && text != "" {
				out.Content = NewContent(TextField{Name: "summary", Text: text})
			}
		}
	} else {
		flat, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(flat, &out.Content); err != nil {
			return err
		}
	}

	*s = out
	return nil
}

// Title prefers the slide's own title over the kind's label.
func (s Spec) Title() string {
	if t, ok := s.Content.Text("title"); ok {
		return t
	}
	return s.Type.Label()
}
