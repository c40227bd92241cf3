package slide

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field is one recognized, independently presentable piece of slide content.
// The concrete types below are the only implementations.
type Field interface {
	FieldName() string
	isField()
}

type TextField struct {
	Name string
	Text string
}

type ListField struct {
	Name  string
	Items []string
}

type Metric struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
}

type MetricsField struct {
	Items []Metric
}

type Ratio struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Interpretation string `json:"interpretation,omitempty"`
	Benchmark      string `json:"benchmark,omitempty"`
}

type RatiosField struct {
	Items []Ratio
}

type BreakdownEntry struct {
	Category   string `json:"category"`
	Amount     string `json:"amount,omitempty"`
	Percentage string `json:"percentage,omitempty"`
}

type BreakdownField struct {
	Items []BreakdownEntry
}

func (f TextField) FieldName() string    { return f.Name }
func (f ListField) FieldName() string    { return f.Name }
func (MetricsField) FieldName() string   { return "metrics" }
func (RatiosField) FieldName() string    { return "ratios" }
func (BreakdownField) FieldName() string { return "breakdown" }

func (TextField) isField()      {}
func (ListField) isField()      {}
func (MetricsField) isField()   {}
func (RatiosField) isField()    {}
func (BreakdownField) isField() {}

type shape int

const (
	shapeText shape = iota
	shapeList
	shapeMetrics
	shapeRatios
	shapeBreakdown
)

type fieldDef struct {
	key   string
	shape shape
	label string
}

// registry fixes both the recognized keys and their rendering order.
var registry = []fieldDef{
	{"title", shapeText, ""},
	{"subtitle", shapeText, ""},
	{"company_name", shapeText, "Company"},
	{"date", shapeText, "Date"},
	{"summary", shapeText, "Summary"},
	{"highlights", shapeList, "Highlights"},
	{"metrics", shapeMetrics, "Key Metrics"},
	{"total", shapeText, "Total"},
	{"current", shapeText, "Current"},
	{"non_current", shapeText, "Non-current"},
	{"long_term", shapeText, "Long-term"},
	{"breakdown", shapeBreakdown, "Breakdown"},
	{"ratios", shapeRatios, "Ratios"},
	{"insight", shapeText, "Insight"},
	{"insights", shapeList, "Insights"},
	{"industry", shapeText, "Industry"},
	{"founded", shapeText, "Founded"},
	{"headquarters", shapeText, "Headquarters"},
	{"mission", shapeText, "Mission"},
	{"vision", shapeText, "Vision"},
	{"values", shapeList, "Values"},
	{"usps", shapeList, "What Sets Us Apart"},
	{"key_facts", shapeList, "Key Facts"},
	{"products", shapeList, "Products"},
	{"categories", shapeList, "Categories"},
	{"certifications", shapeList, "Certifications"},
	{"markets", shapeList, "Markets"},
	{"locations", shapeList, "Locations"},
	{"manufacturing", shapeText, "Manufacturing"},
	{"ceo_message_summary", shapeText, "CEO Message"},
	{"leadership", shapeList, "Leadership"},
	{"projects", shapeList, "Projects"},
	{"clients", shapeList, "Clients"},
	{"key_takeaways", shapeList, "Key Takeaways"},
	{"recommendations", shapeList, "Recommendations"},
	{"next_steps", shapeList, "Next Steps"},
}

func lookup(key string) (fieldDef, bool) {
	for _, d := range registry {
		if d.key == key {
			return d, true
		}
	}
	return fieldDef{}, false
}

// FieldLabel is the section heading for a recognized key.
func FieldLabel(name string) string {
	if d, ok := lookup(name); ok && d.label != "" {
		return d.label
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Content is the decoded body of one slide. Recognized keys become Fields in
// registry order; anything else is kept verbatim in Unknown and never rendered.
type Content struct {
	fields  []Field
	Unknown map[string]json.RawMessage
}

// NewContent builds content from already-typed fields, e.g. for tests or the stub backend.
func NewContent(fields ...Field) Content {
	return Content{fields: fields}
}

func (c Content) Fields() []Field {
	return c.fields
}

func (c Content) IsEmpty() bool {
	return len(c.fields) == 0
}

func (c Content) Text(name string) (string, bool) {
	for _, f := range c.fields {
		if t, ok := f.(TextField); ok && t.Name == name {
			return t.Text, true
		}
	}
	return "", false
}

func (c Content) List(name string) ([]string, bool) {
	for _, f := range c.fields {
		if l, ok := f.(ListField); ok && l.Name == name {
			return l.Items, true
		}
	}
	return nil, false
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("slide content must be an object: %w", err)
	}

	out := Content{}
	for _, def := range registry {
		value, ok := raw[def.key]
		if !ok {
			continue
		}
		delete(raw, def.key)

		field, ok := decodeField(def, value)
		if !ok {
			// present but unusable: keep it, just don't show it
			if out.Unknown == nil {
				out.Unknown = make(map[string]json.RawMessage)
			}
			out.Unknown[def.key] = value
			continue
		}
		out.fields = append(out.fields, field)
	}
	for k, v := range raw {
		if out.Unknown == nil {
			out.Unknown = make(map[string]json.RawMessage)
		}
		out.Unknown[k] = v
	}

	*c = out
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(c.fields)+len(c.Unknown))
	for k, v := range c.Unknown {
		obj[k] = v
	}
	for _, f := range c.fields {
		switch f := f.(type) {
		case TextField:
			obj[f.Name] = f.Text
		case ListField:
			obj[f.Name] = f.Items
		case MetricsField:
			obj["metrics"] = f.Items
		case RatiosField:
			obj["ratios"] = f.Items
		case BreakdownField:
			obj["breakdown"] = f.Items
		}
	}
	return json.Marshal(obj)
}

func decodeField(def fieldDef, value json.RawMessage) (Field, bool) {
	switch def.shape {
	case shapeText:
		text, ok := scalarText(value)
		if !ok || text == "" {
			return nil, false
		}
		return TextField{Name: def.key, Text: text}, true

	case shapeList:
		items := listItems(value)
		if len(items) == 0 {
			return nil, false
		}
		return ListField{Name: def.key, Items: items}, true

	case shapeMetrics:
		var metrics []Metric
		for _, obj := range objects(value) {
			m := Metric{
				Label:  firstText(obj, "label", "name", "metric"),
				Value:  firstText(obj, "value", "amount"),
				Change: firstText(obj, "change", "trend"),
			}
			if m.Label != "" || m.Value != "" {
				metrics = append(metrics, m)
			}
		}
		if len(metrics) == 0 {
			return nil, false
		}
		return MetricsField{Items: metrics}, true

	case shapeRatios:
		var ratios []Ratio
		for _, obj := range objects(value) {
			r := Ratio{
				Name:           firstText(obj, "name", "label"),
				Value:          firstText(obj, "value"),
				Interpretation: firstText(obj, "interpretation", "description"),
				Benchmark:      firstText(obj, "benchmark"),
			}
			if r.Name != "" || r.Value != "" {
				ratios = append(ratios, r)
			}
		}
		if len(ratios) == 0 {
			return nil, false
		}
		return RatiosField{Items: ratios}, true

	case shapeBreakdown:
		var entries []BreakdownEntry
		for _, obj := range objects(value) {
			e := BreakdownEntry{
				Category:   firstText(obj, "category", "label", "name", "item"),
				Amount:     firstText(obj, "amount", "value"),
				Percentage: firstText(obj, "percentage", "percent"),
			}
			if e.Category != "" || e.Amount != "" {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			return nil, false
		}
		return BreakdownField{Items: entries}, true
	}
	return nil, false
}

// scalarText renders a JSON string, number or boolean as display text.
func scalarText(value json.RawMessage) (string, bool) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return "", false
	}
	switch value[0] {
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(value, &b); err != nil {
			return "", false
		}
		if b {
			return "Yes", true
		}
		return "No", true
	case '{', '[':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(value, &n); err != nil {
			return "", false
		}
		return formatNumber(n), true
	}
}

func formatNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return n.String()
}

// listItems accepts an array of scalars or small objects, a lone scalar, or
// an object of label/value pairs.
func listItems(value json.RawMessage) []string {
	if s, ok := scalarText(value); ok {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(value, &arr); err == nil {
		items := make([]string, 0, len(arr))
		for _, el := range arr {
			if s, ok := itemText(el); ok && s != "" {
				items = append(items, s)
			}
		}
		return items
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err == nil {
		return pairs(obj)
	}
	return nil
}

func itemText(value json.RawMessage) (string, bool) {
	if s, ok := scalarText(value); ok {
		return s, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return "", false
	}
	head := firstText(obj, "name", "title", "label")
	tail := firstText(obj, "role", "description", "value", "detail")
	switch {
	case head != "" && tail != "":
		return head + " - " + tail, true
	case head != "":
		return head, true
	case tail != "":
		return tail, true
	}
	return strings.Join(pairs(obj), "; "), true
}

func pairs(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if s, ok := scalarText(obj[k]); ok && s != "" {
			out = append(out, k+": "+s)
		}
	}
	return out
}

func objects(value json.RawMessage) []map[string]json.RawMessage {
	var arr []map[string]json.RawMessage
	if err := json.Unmarshal(value, &arr); err != nil {
		return nil
	}
	return arr
}

func firstText(obj map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			if s, ok := scalarText(v); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
