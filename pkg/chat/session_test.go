package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	requests []backend.ChatRequest
	resp     *backend.ChatResponse
	err      error
	during   func()
}

func (f *fakeAsker) Chat(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.during != nil {
		f.during()
	}
	return f.resp, f.err
}

func newChat(t *testing.T, asker Asker) (*Session, *store.Store) {
	t.Helper()
	st := store.New(nil, logger.NewNopLogger())
	s := NewSession(st, asker, memory.NewSessionRepository[[]Turn](time.Hour), nil, logger.NewNopLogger())
	st.OnInvalidate(func(prev store.Session) { s.Close(prev.ID) })
	return s, st
}

func ready(t *testing.T, st *store.Store, s *Session, id string) {
	t.Helper()
	_, err := st.Create(st.Begin(store.FlowChat), id)
	require.NoError(t, err)
	s.Open(id)
}

func TestSendRequiresReadyChatSession(t *testing.T) {
	asker := &fakeAsker{}
	s, st := newChat(t, asker)

	_, err := s.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrSessionNotReady)

	_, err = st.Create(st.Begin(store.FlowPresentation), "p1")
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.Empty(t, asker.requests)
}

func TestSendAppendsTurnsAndHistory(t *testing.T) {
	asker := &fakeAsker{resp: &backend.ChatResponse{
		Answer:         "Total assets are 1.25M.",
		Citations:      backend.Citations{"Balance Sheet"},
		GroundingCheck: &backend.GroundingCheck{IsGrounded: true},
		RouteInfo:      &backend.RouteInfo{Type: "factual"},
		Pipeline:       "rag",
	}}
	s, st := newChat(t, asker)
	ready(t, st, s, "s1")

	turns := s.Turns("s1")
	require.Len(t, turns, 1)
	assert.True(t, turns[0].Seeded)

	reply, err := s.Send(context.Background(), "  What are total assets?  ")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, reply.Role)
	require.NotNil(t, reply.Metadata)
	assert.True(t, reply.Metadata.Grounded)
	assert.Equal(t, []string{"Balance Sheet"}, reply.Metadata.Citations)
	assert.Equal(t, "factual", reply.Metadata.RouteInfo.Type)

	_, err = s.Send(context.Background(), "And liabilities?")
	require.NoError(t, err)

	require.Len(t, asker.requests, 2)
	assert.Equal(t, "What are total assets?", asker.requests[0].Question)
	assert.Equal(t, []backend.HistoryMessage{{Role: "assistant", Content: Greeting}}, asker.requests[0].ChatHistory)
	assert.Len(t, asker.requests[1].ChatHistory, 3, "greeting, question, answer")

	turns = s.Turns("s1")
	require.Len(t, turns, 5)
	assert.Equal(t, RoleUser, turns[3].Role)
}

func TestSendFailureAppendsErrorTurn(t *testing.T) {
	asker := &fakeAsker{err: &backend.APIError{Op: "chat", StatusCode: 400, Message: "Invalid session"}}
	s, st := newChat(t, asker)
	ready(t, st, s, "s1")

	reply, err := s.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, reply.Failed)
	assert.Contains(t, reply.Content, "Invalid session")
	assert.Empty(t, reply.Metadata.Citations)
	assert.False(t, reply.Metadata.Grounded)

	asker.err = errors.New("dial tcp: connection refused")
	reply, _ = s.Send(context.Background(), "again")
	assert.Contains(t, reply.Content, backend.GenericFailureMessage)
	assert.NotContains(t, reply.Content, "dial tcp")

	assert.Len(t, s.Turns("s1"), 5)
}

func TestSendRejectsEmptyQuestion(t *testing.T) {
	asker := &fakeAsker{}
	s, st := newChat(t, asker)
	ready(t, st, s, "s1")

	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Len(t, s.Turns("s1"), 1)
}

func TestSendOneAtATime(t *testing.T) {
	asker := &fakeAsker{resp: &backend.ChatResponse{Answer: "ok"}}
	s, st := newChat(t, asker)
	ready(t, st, s, "s1")

	var nested error
	asker.during = func() {
		_, nested = s.Send(context.Background(), "second")
	}
	_, err := s.Send(context.Background(), "first")
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrAwaitingPriorTurn)
	assert.Len(t, s.Turns("s1"), 3)
}

func TestResetDiscardsLateAnswer(t *testing.T) {
	asker := &fakeAsker{resp: &backend.ChatResponse{Answer: "late"}}
	s, st := newChat(t, asker)
	ready(t, st, s, "s1")

	asker.during = func() {
		st.Reset()
		ready(t, st, s, "s1")
	}
	_, err := s.Send(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrSessionInvalidated)

	turns := s.Turns("s1")
	require.Len(t, turns, 1, "fresh session only has its greeting")
	assert.True(t, turns[0].Seeded)
}
