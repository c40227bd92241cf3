package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/pkg/events"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrStaleSession    = errors.New("session was reset or replaced")
)

// InvalidateFunc receives the session that just stopped being current.
type InvalidateFunc func(prev Session)

// Store owns the single current-session pointer. Every transition goes
// through it; everyone else holds snapshots or tickets.
type Store struct {
	mu      sync.RWMutex
	current Session
	epoch   uint64
	hooks   []InvalidateFunc

	publisher events.Publisher
	logger    logger.ILogger
}

func New(publisher events.Publisher, logger logger.ILogger) *Store {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Store{
		current:   Session{Status: StatusIdle, UpdatedAt: time.Now()},
		publisher: publisher,
		logger:    logger,
	}
}

// OnInvalidate registers fn to run whenever the current session is reset or
// replaced by a new upload. Hooks run synchronously, outside the store lock.
func (s *Store) OnInvalidate(fn InvalidateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Begin moves to Uploading for flow. Whatever session existed before is
// abandoned.
func (s *Store) Begin(flow Flow) Ticket {
	s.mu.Lock()
	prev := s.current
	s.epoch++
	s.current = Session{Status: StatusUploading, Flow: flow, Epoch: s.epoch, UpdatedAt: time.Now()}
	ticket := Ticket{Flow: flow, Epoch: s.epoch}
	hooks := append([]InvalidateFunc(nil), s.hooks...)
	s.mu.Unlock()

	s.invalidated(prev, hooks)
	s.logger.Info("SESSION", "Transitioned to UPLOADING", map[string]interface{}{"flow": string(flow), "epoch": ticket.Epoch})
	events.Emit(context.Background(), s.publisher, events.TypeSessionUploading, map[string]interface{}{
		"flow": string(flow),
	})
	return ticket
}

// Create completes an upload: Uploading -> Ready with the server-issued id.
func (s *Store) Create(t Ticket, id string) (Session, error) {
	s.mu.Lock()
	if t.Epoch != s.epoch || s.current.Status != StatusUploading {
		s.mu.Unlock()
		return Session{}, ErrStaleSession
	}
	s.current.ID = id
	s.current.Status = StatusReady
	s.current.UpdatedAt = time.Now()
	snapshot := s.current
	s.mu.Unlock()

	s.logger.Info("SESSION", "Transitioned to READY", map[string]interface{}{"session_id": id, "flow": string(snapshot.Flow)})
	events.Emit(context.Background(), s.publisher, events.TypeSessionReady, map[string]interface{}{
		"session_id": id,
		"flow":       string(snapshot.Flow),
	})
	return snapshot, nil
}

// Fail completes an upload unsuccessfully: Uploading -> Error.
func (s *Store) Fail(t Ticket, message string) error {
	s.mu.Lock()
	if t.Epoch != s.epoch || s.current.Status != StatusUploading {
		s.mu.Unlock()
		return ErrStaleSession
	}
	s.current.Status = StatusError
	s.current.Error = message
	s.current.UpdatedAt = time.Now()
	flow := s.current.Flow
	s.mu.Unlock()

	s.logger.Warn("SESSION", "Transitioned to ERROR", map[string]interface{}{"flow": string(flow), "reason": message})
	events.Emit(context.Background(), s.publisher, events.TypeSessionFailed, map[string]interface{}{
		"flow":  string(flow),
		"error": message,
	})
	return nil
}

// Reset returns to Idle. In-flight work started against the old session will
// fail Valid and drop its result.
func (s *Store) Reset() {
	s.mu.Lock()
	prev := s.current
	s.epoch++
	s.current = Session{Status: StatusIdle, Epoch: s.epoch, UpdatedAt: time.Now()}
	hooks := append([]InvalidateFunc(nil), s.hooks...)
	s.mu.Unlock()

	s.invalidated(prev, hooks)
	s.logger.Info("SESSION", "Transitioned to IDLE", map[string]interface{}{"previous_session_id": prev.ID})
	events.Emit(context.Background(), s.publisher, events.TypeSessionReset, map[string]interface{}{
		"session_id": prev.ID,
	})
}

func (s *Store) invalidated(prev Session, hooks []InvalidateFunc) {
	if prev.Status == StatusIdle {
		return
	}
	for _, fn := range hooks {
		fn(prev)
	}
}

// Current returns the current session, or nil while Idle.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.Status == StatusIdle {
		return nil
	}
	snapshot := s.current
	return &snapshot
}

// Snapshot always returns the current state, Idle included.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Capture pins the Ready session of flow for an operation about to start.
func (s *Store) Capture(flow Flow) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.Status != StatusReady || s.current.Flow != flow {
		return Ticket{}, ErrNoActiveSession
	}
	return Ticket{SessionID: s.current.ID, Flow: flow, Epoch: s.epoch}, nil
}

// Valid reports whether t still refers to the current Ready session.
func (s *Store) Valid(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return t.Epoch == s.epoch &&
		s.current.Status == StatusReady &&
		s.current.ID == t.SessionID
}
