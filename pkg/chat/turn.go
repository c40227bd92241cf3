package chat

import (
	"time"

	"github.com/Dhruv3sood/finq/pkg/backend"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata is what the backend reported about how an answer was produced.
// Absent fields stay at their zero value.
type Metadata struct {
	Citations       []string           `json:"citations"`
	Grounded        bool               `json:"grounded"`
	Pipeline        string             `json:"pipeline,omitempty"`
	RouteInfo       *backend.RouteInfo `json:"route_info,omitempty"`
	CorrectedAnswer string             `json:"corrected_answer,omitempty"`
	QueryUsed       string             `json:"query_used,omitempty"`
	WebSearchUsed   bool               `json:"web_search_used"`
	DocAnalysisUsed bool               `json:"doc_analysis_used"`
}

type Turn struct {
	ID       string    `json:"id"`
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Metadata *Metadata `json:"metadata,omitempty"`
	// Failed marks an assistant turn that reports an error instead of an answer.
	Failed bool      `json:"failed,omitempty"`
	Seeded bool      `json:"seeded,omitempty"`
	At     time.Time `json:"at"`
}

func metadataFrom(resp *backend.ChatResponse) *Metadata {
	m := &Metadata{
		Citations:       append([]string{}, resp.Citations...),
		Pipeline:        resp.Pipeline,
		RouteInfo:       resp.RouteInfo,
		QueryUsed:       resp.QueryUsed,
		WebSearchUsed:   resp.WebSearchUsed,
		DocAnalysisUsed: resp.DocAnalysisUsed,
	}
	if g := resp.GroundingCheck; g != nil {
		m.Grounded = g.IsGrounded
		m.CorrectedAnswer = g.CorrectedAnswer
	}
	return m
}

// history strips metadata: the backend only ever sees role and content.
func history(turns []Turn) []backend.HistoryMessage {
	out := make([]backend.HistoryMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, backend.HistoryMessage{Role: string(t.Role), Content: t.Content})
	}
	return out
}
