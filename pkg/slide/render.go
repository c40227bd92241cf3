package slide

import (
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Style decorates rendered text. The zero value renders plain text.
type Style struct {
	Heading func(string) string
	Label   func(string) string
	Muted   func(string) string
}

func apply(fn func(string) string, s string) string {
	if fn == nil {
		return s
	}
	return fn(s)
}

// Renderer turns slides into terminal-safe text.
type Renderer struct {
	style Style
}

func NewRenderer(style Style) *Renderer {
	return &Renderer{style: style}
}

// RenderDeck writes the metadata badge followed by every slide in order.
func (r *Renderer) RenderDeck(w io.Writer, slides []Spec, meta Metadata) error {
	var sb strings.Builder
	sb.WriteString(apply(r.style.Heading, meta.Badge()))
	sb.WriteString(apply(r.style.Muted, fmt.Sprintf("  (%d slides", meta.SlideCount)))
	if meta.GenerationMethod != "" {
		sb.WriteString(apply(r.style.Muted, ", method: "+Sanitize(meta.GenerationMethod)))
	}
	if meta.UsedEnhancedContext {
		sb.WriteString(apply(r.style.Muted, ", enhanced context"))
	}
	sb.WriteString(apply(r.style.Muted, ")"))
	sb.WriteString("\n\n")

	for i, s := range slides {
		r.writeSlide(&sb, i+1, s)
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Render writes a single slide; index is 1-based.
func (r *Renderer) Render(w io.Writer, index int, s Spec) error {
	var sb strings.Builder
	r.writeSlide(&sb, index, s)
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Renderer) writeSlide(sb *strings.Builder, index int, s Spec) {
	header := fmt.Sprintf("%d. %s", index, Sanitize(s.Title()))
	sb.WriteString(apply(r.style.Heading, header))
	if s.QualityScore != nil {
		sb.WriteString(apply(r.style.Muted, fmt.Sprintf("  [%s, %.0f/100]", s.Type.Label(), *s.QualityScore)))
	} else {
		sb.WriteString(apply(r.style.Muted, fmt.Sprintf("  [%s]", s.Type.Label())))
	}
	sb.WriteString("\n")

	if s.Content.IsEmpty() {
		sb.WriteString(apply(r.style.Muted, "   (no content)"))
		sb.WriteString("\n")
		return
	}

	for _, f := range s.Content.Fields() {
		r.writeField(sb, f)
	}
}

func (r *Renderer) writeField(sb *strings.Builder, f Field) {
	switch f := f.(type) {
	case TextField:
		switch f.Name {
		case "title":
			// already in the header
		case "subtitle":
			sb.WriteString("   " + Sanitize(f.Text) + "\n")
		default:
			sb.WriteString("   " + apply(r.style.Label, FieldLabel(f.Name)+":") + " " + Sanitize(f.Text) + "\n")
		}

	case ListField:
		sb.WriteString("   " + apply(r.style.Label, FieldLabel(f.Name)) + "\n")
		for _, item := range f.Items {
			sb.WriteString("     - " + Sanitize(item) + "\n")
		}

	case MetricsField:
		sb.WriteString("   " + apply(r.style.Label, FieldLabel("metrics")) + "\n")
		for _, m := range f.Items {
			line := fmt.Sprintf("     %s: %s", Sanitize(m.Label), Sanitize(m.Value))
			if m.Change != "" {
				line += " (" + Sanitize(m.Change) + ")"
			}
			sb.WriteString(line + "\n")
		}

	case RatiosField:
		sb.WriteString("   " + apply(r.style.Label, FieldLabel("ratios")) + "\n")
		for _, ratio := range f.Items {
			line := fmt.Sprintf("     %s = %s", Sanitize(ratio.Name), Sanitize(ratio.Value))
			if ratio.Interpretation != "" {
				line += " - " + Sanitize(ratio.Interpretation)
			}
			if ratio.Benchmark != "" {
				line += apply(r.style.Muted, " (benchmark "+Sanitize(ratio.Benchmark)+")")
			}
			sb.WriteString(line + "\n")
		}

	case BreakdownField:
		sb.WriteString("   " + apply(r.style.Label, FieldLabel("breakdown")) + "\n")
		for _, e := range f.Items {
			line := "     " + Sanitize(e.Category)
			if e.Amount != "" {
				line += ": " + Sanitize(e.Amount)
			}
			if e.Percentage != "" {
				line += " (" + Sanitize(e.Percentage) + ")"
			}
			sb.WriteString(line + "\n")
		}
	}
}

// Sanitize strips control characters so server-provided text cannot move the
// cursor or inject terminal escape sequences. Newlines and tabs survive.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
