package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/store"
)

var (
	ErrUnknownSlideType = errors.New("unknown slide type")
	ErrEmptySelection   = errors.New("select at least one slide")
)

const (
	DefaultTemplate = "professional"
	DefaultTheme    = "blue"
)

// Source records who last decided the selection.
type Source string

const (
	SourceDefault     Source = "default"
	SourceRecommended Source = "recommended"
	SourceUser        Source = "user"
)

// State is the selection of one session. Slides is kept in catalog order.
type State struct {
	Slides      []slide.Kind `json:"slides"`
	Source      Source       `json:"source"`
	Recommended []slide.Kind `json:"recommended,omitempty"`
}

func (s State) Contains(k slide.Kind) bool {
	for _, x := range s.Slides {
		if x == k {
			return true
		}
	}
	return false
}

// Edited reports whether the user has toggled anything. Recommendations are
// ignored from then on.
func (s State) Edited() bool {
	return s.Source == SourceUser
}

func (s State) clone() State {
	s.Slides = append([]slide.Kind(nil), s.Slides...)
	s.Recommended = append([]slide.Kind(nil), s.Recommended...)
	return s
}

var baseline = []slide.Kind{
	slide.KindTitle,
	slide.KindExecutive,
	slide.KindFinancials,
	slide.KindRatios,
	slide.KindConclusion,
}

// DefaultSelection is the selection every presentation session starts from.
func DefaultSelection() []slide.Kind {
	return append([]slide.Kind(nil), baseline...)
}

type Recommender interface {
	Recommendations(ctx context.Context, sessionID string) ([]string, error)
}

// Resolver merges the default selection, server recommendations and user
// toggles into a generation request.
type Resolver struct {
	repo      *memory.SessionRepository[State]
	store     *store.Store
	client    Recommender
	publisher events.Publisher
	logger    logger.ILogger
}

func NewResolver(st *store.Store, client Recommender, repo *memory.SessionRepository[State], publisher events.Publisher, logger logger.ILogger) *Resolver {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Resolver{
		repo:      repo,
		store:     st,
		client:    client,
		publisher: publisher,
		logger:    logger,
	}
}

func (r *Resolver) Open(sessionID string) {
	r.repo.Save(sessionID, State{Slides: DefaultSelection(), Source: SourceDefault})
}

func (r *Resolver) Close(sessionID string) {
	r.repo.Delete(sessionID)
}

func (r *Resolver) Selection(sessionID string) (State, bool) {
	s, ok := r.repo.Get(sessionID)
	if !ok {
		return State{}, false
	}
	return s.clone(), true
}

// Apply overwrites the selection with recommendations. It is a no-op for an
// empty set, for a set identical to the one last applied, and for any set
// once the user has edited the selection.
func (r *Resolver) Apply(sessionID string, recommended []string) (State, bool) {
	kinds := r.normalize(recommended)
	if len(kinds) == 0 {
		s, _ := r.Selection(sessionID)
		return s, false
	}

	applied := false
	ok := r.repo.Update(sessionID, func(s State) State {
		if s.Edited() {
			return s
		}
		if s.Source == SourceRecommended && equal(s.Recommended, kinds) {
			return s
		}
		applied = true
		return State{Slides: kinds, Source: SourceRecommended, Recommended: kinds}
	})
	if !ok {
		return State{}, false
	}

	s, _ := r.Selection(sessionID)
	if applied {
		r.logger.Info("SELECTION", "Applied recommendations", map[string]interface{}{
			"session_id": sessionID,
			"slides":     kindStrings(s.Slides),
		})
		r.emit(sessionID, s)
	}
	return s, applied
}

// Toggle adds or removes one slide type and marks the selection as edited.
func (r *Resolver) Toggle(sessionID, kind string) (State, error) {
	k := slide.Kind(strings.TrimSpace(strings.ToLower(kind)))
	if !k.Known() {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownSlideType, kind)
	}

	ok := r.repo.Update(sessionID, func(s State) State {
		s = s.clone()
		if s.Contains(k) {
			s.Slides = remove(s.Slides, k)
		} else {
			s.Slides = insert(s.Slides, k)
		}
		s.Source = SourceUser
		return s
	})
	if !ok {
		return State{}, store.ErrNoActiveSession
	}

	s, _ := r.Selection(sessionID)
	r.emit(sessionID, s)
	return s, nil
}

func (r *Resolver) CanGenerate(sessionID string) bool {
	s, ok := r.repo.Get(sessionID)
	return ok && len(s.Slides) > 0
}

// BuildRequest turns the current selection into a validated request. Blank
// template and theme fall back to the defaults.
func (r *Resolver) BuildRequest(sessionID, template, theme string) (backend.GenerateRequest, error) {
	s, ok := r.repo.Get(sessionID)
	if !ok {
		return backend.GenerateRequest{}, store.ErrNoActiveSession
	}
	if len(s.Slides) == 0 {
		return backend.GenerateRequest{}, ErrEmptySelection
	}
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	if strings.TrimSpace(theme) == "" {
		theme = DefaultTheme
	}

	req := backend.GenerateRequest{
		SessionID: sessionID,
		Slides:    kindStrings(s.Slides),
		Template:  template,
		Theme:     theme,
	}
	if err := backend.Validate(req); err != nil {
		return backend.GenerateRequest{}, err
	}
	return req, nil
}

// Fetch asks the backend for recommendations for the current presentation
// session. Failures are logged and swallowed; the default selection stands.
func (r *Resolver) Fetch(ctx context.Context) bool {
	ticket, err := r.store.Capture(store.FlowPresentation)
	if err != nil {
		return false
	}

	recs, err := r.client.Recommendations(ctx, ticket.SessionID)
	if err != nil {
		r.logger.Warn("SELECTION", "Failed to fetch recommendations", map[string]interface{}{
			"session_id": ticket.SessionID,
			"error":      err.Error(),
		})
		return false
	}
	if !r.store.Valid(ticket) {
		r.logger.Debug("SELECTION", "Dropped recommendations for a reset session", map[string]interface{}{
			"session_id": ticket.SessionID,
		})
		return false
	}

	_, applied := r.Apply(ticket.SessionID, recs)
	return applied
}

func (r *Resolver) emit(sessionID string, s State) {
	events.Emit(context.Background(), r.publisher, events.TypeSelectionChanged, map[string]interface{}{
		"session_id": sessionID,
		"slides":     kindStrings(s.Slides),
		"source":     string(s.Source),
	})
}

// normalize drops unknown identifiers and duplicates and sorts into catalog
// order.
func (r *Resolver) normalize(ids []string) []slide.Kind {
	var out []slide.Kind
	for _, id := range ids {
		k := slide.Kind(strings.TrimSpace(strings.ToLower(id)))
		if !k.Known() {
			r.logger.Debug("SELECTION", "Ignored unknown recommended slide", map[string]interface{}{"slide": id})
			continue
		}
		out = insert(out, k)
	}
	return out
}

func insert(kinds []slide.Kind, k slide.Kind) []slide.Kind {
	pos := k.Position()
	for i, x := range kinds {
		if x == k {
			return kinds
		}
		if x.Position() > pos {
			kinds = append(kinds, "")
			copy(kinds[i+1:], kinds[i:])
			kinds[i] = k
			return kinds
		}
	}
	return append(kinds, k)
}

func remove(kinds []slide.Kind, k slide.Kind) []slide.Kind {
	out := kinds[:0]
	for _, x := range kinds {
		if x != k {
			out = append(out, x)
		}
	}
	return out
}

func equal(a, b []slide.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func kindStrings(kinds []slide.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
