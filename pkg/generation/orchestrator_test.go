package generation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu        sync.Mutex
	generated []backend.GenerateRequest
	gen       *backend.GenerateResponse
	genErr    error
	preview   *backend.PreviewResponse
	artifact  *backend.Artifact
	gate      chan struct{}
	onGen     func()
}

func (f *fakeClient) Generate(_ context.Context, req backend.GenerateRequest) (*backend.GenerateResponse, error) {
	f.mu.Lock()
	f.generated = append(f.generated, req)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if f.onGen != nil {
		f.onGen()
	}
	return f.gen, f.genErr
}

func (f *fakeClient) Preview(context.Context, string) (*backend.PreviewResponse, error) {
	return f.preview, nil
}

func (f *fakeClient) Download(context.Context, string) (*backend.Artifact, error) {
	return f.artifact, nil
}

func score(v float64) *float64 { return &v }

func specs(kinds ...slide.Kind) []slide.Spec {
	out := make([]slide.Spec, len(kinds))
	for i, k := range kinds {
		out[i] = slide.Spec{Type: k, QualityScore: score(90 + float64(i)*2)}
	}
	return out
}

func setup(t *testing.T, client *fakeClient) (*Orchestrator, *store.Store) {
	t.Helper()
	st := store.New(nil, logger.NewNopLogger())
	o := NewOrchestrator(st, client, memory.NewSessionRepository[Deck](time.Hour), nil, logger.NewNopLogger())
	st.OnInvalidate(func(prev store.Session) { o.Close(prev.ID) })
	_, err := st.Create(st.Begin(store.FlowPresentation), "s1")
	require.NoError(t, err)
	return o, st
}

func request() backend.GenerateRequest {
	return backend.GenerateRequest{SessionID: "s1", Slides: []string{"title", "ratios"}, Template: "professional", Theme: "blue"}
}

func TestGenerateDerivesMetadata(t *testing.T) {
	client := &fakeClient{gen: &backend.GenerateResponse{Slides: specs(slide.KindTitle, slide.KindRatios)}}
	o, _ := setup(t, client)

	deck, err := o.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Len(t, deck.Slides, 2)
	assert.Equal(t, 2, deck.Metadata.SlideCount)
	assert.InDelta(t, 91.0, deck.Metadata.AvgQualityScore, 0.001)
	assert.Equal(t, "professional", deck.Metadata.Template)

	stored, ok := o.Deck("s1")
	require.True(t, ok)
	assert.Equal(t, deck.Metadata, stored.Metadata)
}

func TestGenerateUsesTopLevelSlideCount(t *testing.T) {
	client := &fakeClient{gen: &backend.GenerateResponse{Slides: specs(slide.KindTitle, slide.KindRatios), SlideCount: 5}}
	o, _ := setup(t, client)

	deck, err := o.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 5, deck.Metadata.SlideCount)
	assert.InDelta(t, 91.0, deck.Metadata.AvgQualityScore, 0.001)
}

func TestGenerateRequiresPresentationSession(t *testing.T) {
	st := store.New(nil, logger.NewNopLogger())
	o := NewOrchestrator(st, &fakeClient{}, memory.NewSessionRepository[Deck](time.Hour), nil, logger.NewNopLogger())

	_, err := o.Generate(context.Background(), request())
	assert.ErrorIs(t, err, store.ErrNoActiveSession)

	_, err = st.Create(st.Begin(store.FlowChat), "s1")
	require.NoError(t, err)
	_, err = o.Generate(context.Background(), request())
	assert.ErrorIs(t, err, store.ErrNoActiveSession, "chat sessions cannot generate")
}

func TestGenerateFailureKeepsPreviousDeck(t *testing.T) {
	client := &fakeClient{gen: &backend.GenerateResponse{Slides: specs(slide.KindTitle)}}
	o, _ := setup(t, client)

	first, err := o.Generate(context.Background(), request())
	require.NoError(t, err)

	client.gen, client.genErr = nil, &backend.APIError{Op: "generate", StatusCode: 500, Message: "LLM unavailable"}
	_, err = o.Generate(context.Background(), request())
	assert.Equal(t, "LLM unavailable", backend.UserMessage(err))

	kept, ok := o.Deck("s1")
	require.True(t, ok)
	assert.Equal(t, first.Slides, kept.Slides)
}

func TestGenerateIsSingleFlight(t *testing.T) {
	client := &fakeClient{gate: make(chan struct{}), gen: &backend.GenerateResponse{Slides: specs(slide.KindTitle)}}
	o, _ := setup(t, client)

	done := make(chan error, 1)
	go func() {
		_, err := o.Generate(context.Background(), request())
		done <- err
	}()
	require.Eventually(t, func() bool { return o.Busy("s1") }, time.Second, 5*time.Millisecond)

	_, err := o.Generate(context.Background(), request())
	assert.ErrorIs(t, err, ErrGenerationBusy)

	close(client.gate)
	require.NoError(t, <-done)
}

func TestGenerateDropsStaleResult(t *testing.T) {
	client := &fakeClient{gen: &backend.GenerateResponse{Slides: specs(slide.KindTitle)}}
	o, st := setup(t, client)
	client.onGen = st.Reset

	_, err := o.Generate(context.Background(), request())
	assert.ErrorIs(t, err, ErrSessionInvalidated)
	_, ok := o.Deck("s1")
	assert.False(t, ok)
}

func TestFetchArtifact(t *testing.T) {
	client := &fakeClient{
		gen:      &backend.GenerateResponse{Slides: specs(slide.KindTitle)},
		artifact: &backend.Artifact{Filename: "deck.pptx", Data: []byte("pptx")},
	}
	o, _ := setup(t, client)

	_, err := o.FetchArtifact(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoArtifact, "nothing generated yet")

	_, err = o.Generate(context.Background(), request())
	require.NoError(t, err)

	_, err = o.FetchArtifact(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNoArtifact)

	artifact, err := o.FetchArtifact(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "deck.pptx", artifact.Filename)
}

func TestPreviewRefreshesSlides(t *testing.T) {
	client := &fakeClient{
		gen:     &backend.GenerateResponse{Slides: specs(slide.KindTitle, slide.KindRatios)},
		preview: &backend.PreviewResponse{Slides: specs(slide.KindTitle)},
	}
	o, _ := setup(t, client)

	_, err := o.Preview(context.Background())
	assert.ErrorIs(t, err, ErrNoArtifact)

	_, err = o.Generate(context.Background(), request())
	require.NoError(t, err)

	deck, err := o.Preview(context.Background())
	require.NoError(t, err)
	assert.Len(t, deck.Slides, 1)
	assert.Equal(t, 1, deck.Metadata.SlideCount)
	assert.InDelta(t, 90.0, deck.Metadata.AvgQualityScore, 0.001)
	assert.Equal(t, "blue", deck.Metadata.Theme)
}
