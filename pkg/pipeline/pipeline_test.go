package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/progress"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterPayload struct {
	mu     sync.Mutex
	open   map[string]int
	closed []string
}

func newCounterPayload() *counterPayload {
	return &counterPayload{open: map[string]int{}}
}

func (c *counterPayload) Name() string { return "counter" }

func (c *counterPayload) Open(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open[id] = 1
}

func (c *counterPayload) Close(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.open, id)
	c.closed = append(c.closed, id)
}

func (c *counterPayload) Snapshot(id string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.open[id]
	return v, ok
}

type sequentialUploader struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialUploader) Upload(context.Context, backend.UploadRequest) (*backend.UploadResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return &backend.UploadResponse{SessionID: []string{"a", "b", "c"}[s.n-1]}, nil
}

type closerFunc func(string)

func (f closerFunc) Close(id string) { f(id) }

func newFlows(t *testing.T) (*store.Store, *Flow[int], *counterPayload, *Flow[int], *counterPayload, *[]string) {
	t.Helper()
	st := store.New(nil, logger.NewNopLogger())
	up := &sequentialUploader{}

	chatPayload, deckPayload := newCounterPayload(), newCounterPayload()
	var extra []string

	chatUpload := upload.NewPipeline(upload.Config{Flow: store.FlowChat, Sequence: progress.ChatSequence}, up, st, nil, logger.NewNopLogger())
	deckUpload := upload.NewPipeline(upload.Config{Flow: store.FlowPresentation, Sequence: progress.PresentationSequence}, up, st, nil, logger.NewNopLogger())

	chat := NewFlow[int](st, chatUpload, chatPayload, logger.NewNopLogger())
	deck := NewFlow[int](st, deckUpload, deckPayload, logger.NewNopLogger(), closerFunc(func(id string) { extra = append(extra, id) }))
	return st, chat, chatPayload, deck, deckPayload, &extra
}

func doc() *upload.File {
	return &upload.File{Name: "bs.csv", Data: []byte("x,1")}
}

func TestUploadOpensPayload(t *testing.T) {
	_, chat, chatPayload, _, _, _ := newFlows(t)

	_, err := chat.View()
	assert.ErrorIs(t, err, ErrNoView)

	res, err := chat.Upload(context.Background(), upload.ChatSlots(doc(), nil))
	require.NoError(t, err)
	assert.Equal(t, "a", res.Session.ID)

	v, err := chat.View()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, store.StatusReady, chat.Session().Status)
	assert.Contains(t, chatPayload.open, "a")
}

func TestFlowsAreMutuallyExclusive(t *testing.T) {
	_, chat, chatPayload, deck, _, extra := newFlows(t)
	ctx := context.Background()

	_, err := chat.Upload(ctx, upload.ChatSlots(doc(), nil))
	require.NoError(t, err)

	_, err = deck.View()
	assert.ErrorIs(t, err, ErrNoView, "a chat session is not a presentation session")

	_, err = deck.Upload(ctx, upload.PresentationSlots(doc(), doc()))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, chatPayload.closed, "new upload abandons the chat session")
	_, err = chat.View()
	assert.ErrorIs(t, err, ErrNoView)
	assert.Empty(t, *extra)

	deck.Reset()
	assert.Equal(t, []string{"b"}, *extra)
	assert.Equal(t, store.StatusIdle, deck.Session().Status)
}
