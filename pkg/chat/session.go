package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/flight"
	"github.com/Dhruv3sood/finq/pkg/store"

	"github.com/google/uuid"
)

var (
	ErrSessionNotReady    = errors.New("upload your documents before chatting")
	ErrAwaitingPriorTurn  = errors.New("still waiting for the previous answer")
	ErrEmptyQuestion      = errors.New("question is empty")
	ErrSessionInvalidated = store.ErrStaleSession
)

const Greeting = "Your documents are ready. Ask me anything about the balance sheet or the company profile."

type Asker interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

// Session keeps the turn history of each chat session and sends one question
// at a time.
type Session struct {
	repo      *memory.SessionRepository[[]Turn]
	store     *store.Store
	client    Asker
	flight    flight.Group
	publisher events.Publisher
	logger    logger.ILogger
}

func NewSession(st *store.Store, client Asker, repo *memory.SessionRepository[[]Turn], publisher events.Publisher, logger logger.ILogger) *Session {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Session{
		repo:      repo,
		store:     st,
		client:    client,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Session) Name() string {
	return "chat"
}

// Open seeds the greeting for a session that just became Ready.
func (s *Session) Open(sessionID string) {
	greeting := newTurn(RoleAssistant, Greeting)
	greeting.Seeded = true
	s.repo.Save(sessionID, []Turn{greeting})
}

func (s *Session) Close(sessionID string) {
	s.repo.Delete(sessionID)
}

func (s *Session) Snapshot(sessionID string) ([]Turn, bool) {
	turns, ok := s.repo.Get(sessionID)
	if !ok {
		return nil, false
	}
	return append([]Turn(nil), turns...), true
}

// Turns is Snapshot without the presence flag.
func (s *Session) Turns(sessionID string) []Turn {
	turns, _ := s.Snapshot(sessionID)
	return turns
}

// Awaiting reports whether a question is outstanding for sessionID.
func (s *Session) Awaiting(sessionID string) bool {
	return s.flight.Active(sessionID)
}

// Send asks question in the current chat session. The user turn is appended
// before the request goes out. On a backend or network failure an assistant
// turn describing the failure is appended and returned together with the
// error.
func (s *Session) Send(ctx context.Context, question string) (Turn, error) {
	ticket, err := s.store.Capture(store.FlowChat)
	if err != nil {
		return Turn{}, ErrSessionNotReady
	}

	release, ok := s.flight.Acquire(ticket.SessionID)
	if !ok {
		return Turn{}, ErrAwaitingPriorTurn
	}
	defer release()

	question = strings.TrimSpace(question)
	if question == "" {
		return Turn{}, ErrEmptyQuestion
	}

	prior, ok := s.repo.Get(ticket.SessionID)
	if !ok {
		return Turn{}, ErrSessionNotReady
	}
	user := newTurn(RoleUser, question)
	if !s.append(ticket.SessionID, user) {
		return Turn{}, ErrSessionInvalidated
	}

	start := time.Now()
	resp, err := s.client.Chat(ctx, backend.ChatRequest{
		SessionID:   ticket.SessionID,
		Question:    question,
		ChatHistory: history(prior),
	})
	if !s.store.Valid(ticket) {
		s.logger.Info("CHAT", "Discarded answer for a reset session", map[string]interface{}{
			"session_id": ticket.SessionID,
		})
		return Turn{}, ErrSessionInvalidated
	}

	var reply Turn
	if err != nil {
		s.logger.Error("CHAT", "Question failed", map[string]interface{}{
			"session_id": ticket.SessionID,
			"error":      err.Error(),
		})
		reply = newTurn(RoleAssistant, fmt.Sprintf("Sorry, I couldn't answer that. %s", backend.UserMessage(err)))
		reply.Metadata = &Metadata{Citations: []string{}}
		reply.Failed = true
	} else {
		reply = newTurn(RoleAssistant, resp.Answer)
		reply.Metadata = metadataFrom(resp)
		s.logger.Info("CHAT", "Answered question", map[string]interface{}{
			"session_id":  ticket.SessionID,
			"pipeline":    resp.Pipeline,
			"citations":   len(resp.Citations),
			"history_len": len(prior),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	if !s.append(ticket.SessionID, reply) {
		return Turn{}, ErrSessionInvalidated
	}
	return reply, err
}

func (s *Session) append(sessionID string, turn Turn) bool {
	ok := s.repo.Update(sessionID, func(turns []Turn) []Turn {
		out := make([]Turn, len(turns), len(turns)+1)
		copy(out, turns)
		return append(out, turn)
	})
	if ok {
		events.Emit(context.Background(), s.publisher, events.TypeChatTurn, map[string]interface{}{
			"session_id": sessionID,
			"turn_id":    turn.ID,
			"role":       string(turn.Role),
			"failed":     turn.Failed,
		})
	}
	return ok
}

func newTurn(role Role, content string) Turn {
	return Turn{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		At:      time.Now(),
	}
}
