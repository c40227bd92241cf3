package upload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/flight"
	"github.com/Dhruv3sood/finq/pkg/progress"
	"github.com/Dhruv3sood/finq/pkg/store"
)

var (
	ErrPipelineBusy = errors.New("an upload is already in progress")
	// ErrSessionInvalidated means the session was reset or replaced while the
	// upload was in flight; its result was discarded.
	ErrSessionInvalidated = store.ErrStaleSession
)

const flightKey = "upload"

// Failure is an upload the backend (or the network) rejected. Message is
// what the user sees.
type Failure struct {
	Message string
	Err     error
}

func (e *Failure) Error() string { return e.Message }
func (e *Failure) Unwrap() error { return e.Err }

// Uploader is the part of the backend client the pipeline needs.
type Uploader interface {
	Upload(ctx context.Context, req backend.UploadRequest) (*backend.UploadResponse, error)
}

type Config struct {
	Flow          store.Flow
	Sequence      progress.Sequence
	StageInterval time.Duration
	MaxFileBytes  int64
}

type Result struct {
	Session       store.Session
	ChunksCount   int
	SectionsCount int
	Message       string
}

// Pipeline takes documents from slots to a Ready session. It is the only
// component that creates sessions.
type Pipeline struct {
	cfg       Config
	client    Uploader
	store     *store.Store
	validator Validator
	publisher events.Publisher
	logger    logger.ILogger

	flight flight.Group

	mu      sync.Mutex
	tracker *progress.Tracker
}

func NewPipeline(cfg Config, client Uploader, st *store.Store, publisher events.Publisher, logger logger.ILogger) *Pipeline {
	if publisher == nil {
		publisher = events.Discard
	}
	p := &Pipeline{
		cfg:       cfg,
		client:    client,
		store:     st,
		validator: NewValidator(cfg.MaxFileBytes),
		publisher: publisher,
		logger:    logger,
	}
	// a reset mid-upload must silence the narration at once
	st.OnInvalidate(func(store.Session) { p.haltTracker() })
	return p
}

func (p *Pipeline) Flow() store.Flow {
	return p.cfg.Flow
}

func (p *Pipeline) Validate(slots Slots) ValidationResult {
	return p.validator.Validate(slots)
}

// Busy reports whether a Submit is outstanding.
func (p *Pipeline) Busy() bool {
	return p.flight.Active(flightKey)
}

// Progress returns the stage currently shown, if an upload has started.
func (p *Pipeline) Progress() (progress.Update, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracker == nil {
		return progress.Update{}, false
	}
	return p.tracker.Current(), true
}

// Submit validates slots and, when valid, uploads them and waits for the
// backend. Only one Submit may be outstanding per pipeline.
func (p *Pipeline) Submit(ctx context.Context, slots Slots) (Result, error) {
	release, ok := p.flight.Acquire(flightKey)
	if !ok {
		return Result{}, ErrPipelineBusy
	}
	defer release()

	if res := p.Validate(slots); !res.Valid() {
		p.logger.Info("UPLOAD", "Rejected invalid documents", map[string]interface{}{
			"flow":  string(p.cfg.Flow),
			"error": res.Err().Error(),
		})
		return Result{}, res.Err()
	}

	ticket := p.store.Begin(p.cfg.Flow)
	tracker := progress.Start(p.cfg.Sequence, p.cfg.StageInterval, p.emitStage)
	p.mu.Lock()
	p.tracker = tracker
	p.mu.Unlock()
	// a reset between Begin and here ran the hooks before tracker was visible
	if p.store.Snapshot().Epoch != ticket.Epoch {
		tracker.Halt()
	}

	p.logger.Info("UPLOAD", "Uploading documents", map[string]interface{}{"flow": string(p.cfg.Flow)})
	resp, err := p.client.Upload(ctx, slots.request())
	if err != nil {
		tracker.Halt()
		message := backend.UserMessage(err)
		p.logger.Error("UPLOAD", "Upload failed", map[string]interface{}{
			"flow":  string(p.cfg.Flow),
			"error": err.Error(),
		})
		if errors.Is(p.store.Fail(ticket, message), store.ErrStaleSession) {
			return Result{}, ErrSessionInvalidated
		}
		return Result{}, &Failure{Message: message, Err: err}
	}

	session, err := p.store.Create(ticket, resp.SessionID)
	if err != nil {
		tracker.Halt()
		p.logger.Info("UPLOAD", "Discarded upload result for a reset session", map[string]interface{}{
			"session_id": resp.SessionID,
		})
		return Result{}, ErrSessionInvalidated
	}
	tracker.Complete()

	return Result{
		Session:       session,
		ChunksCount:   resp.ChunksCount,
		SectionsCount: resp.SectionsCount,
		Message:       resp.Message,
	}, nil
}

func (p *Pipeline) haltTracker() {
	p.mu.Lock()
	tracker := p.tracker
	p.mu.Unlock()
	if tracker != nil {
		tracker.Halt()
	}
}

func (p *Pipeline) emitStage(u progress.Update) {
	events.Emit(context.Background(), p.publisher, events.TypeUploadStage, map[string]interface{}{
		"flow":  string(p.cfg.Flow),
		"index": u.Index,
		"total": u.Total,
		"key":   u.Stage.Key,
		"label": u.Stage.Label,
		"done":  u.Done,
	})
}
