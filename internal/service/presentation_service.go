package service

import (
	"context"

	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/generation"
	"github.com/Dhruv3sood/finq/pkg/pipeline"
	"github.com/Dhruv3sood/finq/pkg/progress"
	"github.com/Dhruv3sood/finq/pkg/selection"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

// PresentationView is everything the user can see of a presentation session.
// Deck is nil until the first successful generation.
type PresentationView struct {
	Selection selection.State
	Deck      *generation.Deck
}

// presentationPipeline is the per-session payload of the presentation flow.
// Generated decks are torn down separately, as a flow closer.
type presentationPipeline struct {
	resolver     *selection.Resolver
	orchestrator *generation.Orchestrator
}

func NewPresentationPipeline(resolver *selection.Resolver, orchestrator *generation.Orchestrator) pipeline.SessionPipeline[PresentationView] {
	return &presentationPipeline{resolver: resolver, orchestrator: orchestrator}
}

func (p *presentationPipeline) Name() string { return "presentation" }

func (p *presentationPipeline) Open(sessionID string) {
	p.resolver.Open(sessionID)
}

func (p *presentationPipeline) Close(sessionID string) {
	p.resolver.Close(sessionID)
}

func (p *presentationPipeline) Snapshot(sessionID string) (PresentationView, bool) {
	sel, ok := p.resolver.Selection(sessionID)
	if !ok {
		return PresentationView{}, false
	}
	view := PresentationView{Selection: sel}
	if deck, ok := p.orchestrator.Deck(sessionID); ok {
		view.Deck = &deck
	}
	return view, true
}

type IPresentationService interface {
	Upload(ctx context.Context, balanceSheet, companyProfile *upload.File) (upload.Result, error)
	LoadRecommendations(ctx context.Context) bool
	Toggle(kind string) (selection.State, error)
	View() (PresentationView, error)
	CanGenerate() bool
	Generate(ctx context.Context, template, theme string) (generation.Deck, error)
	Preview(ctx context.Context) (generation.Deck, error)
	Download(ctx context.Context) (backend.Artifact, error)
	Session() store.Session
	Progress() (progress.Update, bool)
	Reset()
}

type presentationService struct {
	flow         *pipeline.Flow[PresentationView]
	resolver     *selection.Resolver
	orchestrator *generation.Orchestrator
}

func NewPresentationService(flow *pipeline.Flow[PresentationView], resolver *selection.Resolver, orchestrator *generation.Orchestrator) IPresentationService {
	return &presentationService{
		flow:         flow,
		resolver:     resolver,
		orchestrator: orchestrator,
	}
}

func (s *presentationService) Upload(ctx context.Context, balanceSheet, companyProfile *upload.File) (upload.Result, error) {
	return s.flow.Upload(ctx, upload.PresentationSlots(balanceSheet, companyProfile))
}

// LoadRecommendations is best-effort; it reports whether the selection changed.
func (s *presentationService) LoadRecommendations(ctx context.Context) bool {
	return s.resolver.Fetch(ctx)
}

func (s *presentationService) Toggle(kind string) (selection.State, error) {
	id, err := s.readyID()
	if err != nil {
		return selection.State{}, err
	}
	return s.resolver.Toggle(id, kind)
}

func (s *presentationService) View() (PresentationView, error) {
	view, err := s.flow.View()
	if err != nil {
		return PresentationView{}, store.ErrNoActiveSession
	}
	return view, nil
}

func (s *presentationService) CanGenerate() bool {
	id, err := s.readyID()
	if err != nil {
		return false
	}
	return s.resolver.CanGenerate(id) && !s.orchestrator.Busy(id)
}

func (s *presentationService) Generate(ctx context.Context, template, theme string) (generation.Deck, error) {
	id, err := s.readyID()
	if err != nil {
		return generation.Deck{}, err
	}
	req, err := s.resolver.BuildRequest(id, template, theme)
	if err != nil {
		return generation.Deck{}, err
	}
	return s.orchestrator.Generate(ctx, req)
}

func (s *presentationService) Preview(ctx context.Context) (generation.Deck, error) {
	return s.orchestrator.Preview(ctx)
}

func (s *presentationService) Download(ctx context.Context) (backend.Artifact, error) {
	id, err := s.readyID()
	if err != nil {
		return backend.Artifact{}, generation.ErrNoArtifact
	}
	return s.orchestrator.FetchArtifact(ctx, id)
}

func (s *presentationService) Session() store.Session {
	return s.flow.Session()
}

func (s *presentationService) Progress() (progress.Update, bool) {
	return s.flow.Uploader().Progress()
}

func (s *presentationService) Reset() {
	s.flow.Reset()
}

func (s *presentationService) readyID() (string, error) {
	sess := s.flow.Session()
	if sess.Status != store.StatusReady || sess.Flow != store.FlowPresentation {
		return "", store.ErrNoActiveSession
	}
	return sess.ID, nil
}
