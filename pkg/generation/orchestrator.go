package generation

import (
	"context"
	"errors"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/flight"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/store"
)

var (
	ErrGenerationBusy     = errors.New("a presentation is already being generated")
	ErrNoArtifact         = errors.New("no presentation has been generated for this session")
	ErrSessionInvalidated = store.ErrStaleSession
)

// Deck is the outcome of the last successful generation for a session.
type Deck struct {
	Slides      []slide.Spec
	Metadata    slide.Metadata
	Filename    string
	Template    string
	Theme       string
	GeneratedAt time.Time
}

func (d Deck) clone() Deck {
	d.Slides = append([]slide.Spec(nil), d.Slides...)
	return d
}

type Client interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (*backend.GenerateResponse, error)
	Preview(ctx context.Context, sessionID string) (*backend.PreviewResponse, error)
	Download(ctx context.Context, sessionID string) (*backend.Artifact, error)
}

// Orchestrator submits generation requests and keeps one deck per session.
type Orchestrator struct {
	repo      *memory.SessionRepository[Deck]
	store     *store.Store
	client    Client
	flight    flight.Group
	publisher events.Publisher
	logger    logger.ILogger
}

func NewOrchestrator(st *store.Store, client Client, repo *memory.SessionRepository[Deck], publisher events.Publisher, logger logger.ILogger) *Orchestrator {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Orchestrator{
		repo:      repo,
		store:     st,
		client:    client,
		publisher: publisher,
		logger:    logger,
	}
}

// Close forgets the deck of a session that is no longer current.
func (o *Orchestrator) Close(sessionID string) {
	o.repo.Delete(sessionID)
}

// Deck returns the last generated deck, if any.
func (o *Orchestrator) Deck(sessionID string) (Deck, bool) {
	d, ok := o.repo.Get(sessionID)
	if !ok {
		return Deck{}, false
	}
	return d.clone(), true
}

// Busy reports whether a generation is outstanding for sessionID.
func (o *Orchestrator) Busy(sessionID string) bool {
	return o.flight.Active(sessionID)
}

// Generate runs req against the current presentation session. On failure the
// previous deck, if any, is left untouched.
func (o *Orchestrator) Generate(ctx context.Context, req backend.GenerateRequest) (Deck, error) {
	ticket, err := o.store.Capture(store.FlowPresentation)
	if err != nil || ticket.SessionID != req.SessionID {
		return Deck{}, store.ErrNoActiveSession
	}

	release, ok := o.flight.Acquire(ticket.SessionID)
	if !ok {
		return Deck{}, ErrGenerationBusy
	}
	defer release()

	start := time.Now()
	resp, err := o.client.Generate(ctx, req)
	if err != nil {
		o.logger.Error("GENERATION", "Generation failed", map[string]interface{}{
			"session_id": ticket.SessionID,
			"error":      err.Error(),
		})
		return Deck{}, err
	}
	if !o.store.Valid(ticket) {
		return Deck{}, ErrSessionInvalidated
	}

	reported := resp.Metadata
	if reported == nil && resp.SlideCount > 0 {
		reported = &slide.Metadata{SlideCount: resp.SlideCount}
	}
	meta := slide.DeriveMetadata(resp.Slides, reported)
	if meta.Template == "" {
		meta.Template = req.Template
	}
	if meta.Theme == "" {
		meta.Theme = req.Theme
	}
	deck := Deck{
		Slides:      resp.Slides,
		Metadata:    meta,
		Filename:    resp.Filename,
		Template:    req.Template,
		Theme:       req.Theme,
		GeneratedAt: time.Now(),
	}
	o.repo.Save(ticket.SessionID, deck)

	o.logger.Info("GENERATION", "Generated presentation", map[string]interface{}{
		"session_id":  ticket.SessionID,
		"slide_count": meta.SlideCount,
		"avg_quality": meta.AvgQualityScore,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	events.Emit(context.Background(), o.publisher, events.TypeDeckGenerated, map[string]interface{}{
		"session_id":  ticket.SessionID,
		"slide_count": meta.SlideCount,
		"avg_quality": meta.AvgQualityScore,
		"template":    meta.Template,
		"theme":       meta.Theme,
	})
	return deck.clone(), nil
}

// Preview refreshes the slides of the current deck from the backend without
// regenerating.
func (o *Orchestrator) Preview(ctx context.Context) (Deck, error) {
	ticket, err := o.store.Capture(store.FlowPresentation)
	if err != nil {
		return Deck{}, store.ErrNoActiveSession
	}
	current, ok := o.repo.Get(ticket.SessionID)
	if !ok {
		return Deck{}, ErrNoArtifact
	}

	release, ok := o.flight.Acquire(ticket.SessionID)
	if !ok {
		return Deck{}, ErrGenerationBusy
	}
	defer release()

	resp, err := o.client.Preview(ctx, ticket.SessionID)
	if err != nil {
		o.logger.Warn("GENERATION", "Preview failed", map[string]interface{}{
			"session_id": ticket.SessionID,
			"error":      err.Error(),
		})
		return current.clone(), err
	}
	if !o.store.Valid(ticket) {
		return Deck{}, ErrSessionInvalidated
	}

	derived := slide.DeriveMetadata(resp.Slides, nil)
	current.Metadata.SlideCount = derived.SlideCount
	// unscored slides keep the badge of the last generation
	if derived.AvgQualityScore > 0 {
		current.Metadata.AvgQualityScore = derived.AvgQualityScore
	}
	current.Slides = resp.Slides
	o.repo.Save(ticket.SessionID, current)
	return current.clone(), nil
}

// FetchArtifact downloads the binary deck for sessionID. It requires that
// sessionID is the current presentation session and has been generated.
func (o *Orchestrator) FetchArtifact(ctx context.Context, sessionID string) (backend.Artifact, error) {
	ticket, err := o.store.Capture(store.FlowPresentation)
	if err != nil || ticket.SessionID != sessionID {
		return backend.Artifact{}, ErrNoArtifact
	}
	if _, ok := o.repo.Get(sessionID); !ok {
		return backend.Artifact{}, ErrNoArtifact
	}

	artifact, err := o.client.Download(ctx, sessionID)
	if err != nil {
		o.logger.Error("GENERATION", "Download failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return backend.Artifact{}, err
	}
	if !o.store.Valid(ticket) {
		return backend.Artifact{}, ErrSessionInvalidated
	}

	o.logger.Info("GENERATION", "Downloaded presentation", map[string]interface{}{
		"session_id": sessionID,
		"filename":   artifact.Filename,
		"bytes":      len(artifact.Data),
	})
	return *artifact, nil
}
