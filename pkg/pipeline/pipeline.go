package pipeline

import (
	"context"
	"errors"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

var ErrNoView = errors.New("no ready session for this flow")

// SessionPipeline is per-session state that lives exactly as long as a Ready
// session: opened when the upload completes, closed when the session is reset
// or replaced.
type SessionPipeline[T any] interface {
	Name() string
	Open(sessionID string)
	Close(sessionID string)
	Snapshot(sessionID string) (T, bool)
}

// Closer is extra per-session state torn down alongside a flow's payload.
type Closer interface {
	Close(sessionID string)
}

// Flow ties one upload pipeline and one payload to the shared store.
type Flow[T any] struct {
	store   *store.Store
	upload  *upload.Pipeline
	payload SessionPipeline[T]
	closers []Closer
	logger  logger.ILogger
}

func NewFlow[T any](st *store.Store, up *upload.Pipeline, payload SessionPipeline[T], logger logger.ILogger, closers ...Closer) *Flow[T] {
	f := &Flow[T]{
		store:   st,
		upload:  up,
		payload: payload,
		closers: closers,
		logger:  logger,
	}
	st.OnInvalidate(f.teardown)
	return f
}

func (f *Flow[T]) Name() string {
	return f.payload.Name()
}

func (f *Flow[T]) Kind() store.Flow {
	return f.upload.Flow()
}

// Upload submits slots and, on Ready, opens the payload for the new session.
func (f *Flow[T]) Upload(ctx context.Context, slots upload.Slots) (upload.Result, error) {
	res, err := f.upload.Submit(ctx, slots)
	if err != nil {
		return res, err
	}

	f.payload.Open(res.Session.ID)
	// a reset between Create and Open already ran teardown; undo the open
	if cur := f.store.Current(); cur == nil || cur.Epoch != res.Session.Epoch {
		f.payload.Close(res.Session.ID)
		return upload.Result{}, upload.ErrSessionInvalidated
	}

	f.logger.Info("PIPELINE", "Opened session payload", map[string]interface{}{
		"pipeline":   f.payload.Name(),
		"session_id": res.Session.ID,
	})
	return res, nil
}

func (f *Flow[T]) Reset() {
	f.store.Reset()
}

// Session is a snapshot of the store, Idle included.
func (f *Flow[T]) Session() store.Session {
	return f.store.Snapshot()
}

// View returns the payload of the current session when it is a Ready session
// of this flow.
func (f *Flow[T]) View() (T, error) {
	var zero T
	ticket, err := f.store.Capture(f.Kind())
	if err != nil {
		return zero, ErrNoView
	}
	view, ok := f.payload.Snapshot(ticket.SessionID)
	if !ok {
		return zero, ErrNoView
	}
	return view, nil
}

func (f *Flow[T]) Uploader() *upload.Pipeline {
	return f.upload
}

func (f *Flow[T]) teardown(prev store.Session) {
	if prev.Flow != f.Kind() || prev.ID == "" {
		return
	}
	f.payload.Close(prev.ID)
	for _, c := range f.closers {
		c.Close(prev.ID)
	}
	f.logger.Info("PIPELINE", "Closed session payload", map[string]interface{}{
		"pipeline":   f.payload.Name(),
		"session_id": prev.ID,
	})
}
