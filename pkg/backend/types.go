package backend

import (
	"encoding/json"

	"github.com/Dhruv3sood/finq/pkg/slide"
)

// envelope is the part every JSON response shares.
type envelope struct {
	Success *bool             `json:"success"`
	Error   string            `json:"error,omitempty"`
	Errors  []json.RawMessage `json:"errors,omitempty"`
}

// Part is one file in a multipart upload.
type Part struct {
	Field    string `validate:"required"`
	Filename string `validate:"required"`
	Data     []byte `validate:"required,min=1"`
}

type UploadRequest struct {
	Parts []Part `validate:"required,min=1,dive"`
}

type UploadResponse struct {
	SessionID     string          `json:"session_id"`
	Message       string          `json:"message,omitempty"`
	ChunksCount   int             `json:"chunks_count,omitempty"`
	SectionsCount int             `json:"sections_count,omitempty"`
	Summaries     json.RawMessage `json:"summaries,omitempty"`
}

type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	SessionID   string           `json:"session_id" validate:"required"`
	Question    string           `json:"question" validate:"required"`
	ChatHistory []HistoryMessage `json:"chat_history" validate:"dive"`
}

type GroundingCheck struct {
	IsGrounded      bool     `json:"is_grounded"`
	CorrectedAnswer string   `json:"corrected_answer,omitempty"`
	Issues          []string `json:"issues,omitempty"`
	Citations       []string `json:"citations,omitempty"`
}

type RouteInfo struct {
	Type         string `json:"type"`
	Reasoning    string `json:"reasoning,omitempty"`
	NeedsRewrite bool   `json:"needs_rewrite"`
}

type ChatResponse struct {
	Answer          string          `json:"answer"`
	Citations       Citations       `json:"citations,omitempty"`
	GroundingCheck  *GroundingCheck `json:"grounding_check,omitempty"`
	RouteInfo       *RouteInfo      `json:"route_info,omitempty"`
	Pipeline        string          `json:"pipeline,omitempty"`
	QueryUsed       string          `json:"query_used,omitempty"`
	WebSearchUsed   bool            `json:"web_search_used,omitempty"`
	DocAnalysisUsed bool            `json:"doc_analysis_used,omitempty"`
}

// Citations decodes either plain section names or citation objects
// ({"section": ...}, {"title": ...}, {"source": ...}).
type Citations []string

func (c *Citations) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// a lone citation
		var s string
		if json.Unmarshal(data, &s) == nil && s != "" {
			*c = Citations{s}
			return nil
		}
		*c = nil
		return nil
	}

	out := make(Citations, 0, len(raw))
	for _, item := range raw {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj map[string]interface{}
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		for _, key := range []string{"section", "title", "source", "name"} {
			if v, ok := obj[key].(string); ok && v != "" {
				out = append(out, v)
				break
			}
		}
	}
	*c = out
	return nil
}

type RecommendationsResponse struct {
	RecommendedSlides []string `json:"recommended_slides"`
	Recommendations   []string `json:"recommendations"`
}

// Slides returns whichever key the server used.
func (r RecommendationsResponse) Slides() []string {
	if len(r.RecommendedSlides) > 0 {
		return r.RecommendedSlides
	}
	return r.Recommendations
}

type GenerateRequest struct {
	SessionID string   `json:"session_id" validate:"required"`
	Slides    []string `json:"slides" validate:"required,min=1,dive,required"`
	Template  string   `json:"template" validate:"required"`
	Theme     string   `json:"theme" validate:"required"`
}

type GenerateResponse struct {
	Slides     []slide.Spec    `json:"slides"`
	Metadata   *slide.Metadata `json:"metadata,omitempty"`
	Filename   string          `json:"filename,omitempty"`
	SlideCount int             `json:"slide_count,omitempty"`
}

type PreviewResponse struct {
	Slides []slide.Spec `json:"slides"`
}

// Artifact is a downloaded presentation file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type HealthResponse struct {
	Status string `json:"status"`
}
