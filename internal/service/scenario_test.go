package service_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Dhruv3sood/finq/internal/bootstrap"
	"github.com/Dhruv3sood/finq/internal/config"
	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/stubbackend"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/chat"
	"github.com/Dhruv3sood/finq/pkg/selection"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) (*bootstrap.Container, *stubbackend.Server) {
	t.Helper()
	stub := stubbackend.New(stubbackend.Config{}, logger.NewNopLogger())
	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Backend: config.BackendConfig{
			ChatBaseURL:   server.URL + "/api/rag",
			SlidesBaseURL: server.URL + "/api/ppt",
			Timeout:       5 * time.Second,
		},
		Upload:  config.UploadConfig{MaxFileSizeMB: 10},
		Session: config.SessionConfig{TTL: time.Hour},
	}
	c := bootstrap.NewContainer(cfg, logger.NewNopLogger())
	t.Cleanup(c.Close)
	return c, stub
}

func sheet() *upload.File {
	return &upload.File{Name: "balance_sheet.csv", Data: []byte("Total Assets,1250000\nTotal Equity,760000\n")}
}

func profile() *upload.File {
	return &upload.File{Name: "profile.txt", Data: []byte("Acme Corp builds widgets.\n")}
}

func TestUploadMissingRequiredDocumentMakesNoRequest(t *testing.T) {
	c, stub := newContainer(t)
	var calls int
	stub.Override(stubbackend.RouteRAGUpload, func(ctx *fiber.Ctx) error {
		calls++
		return ctx.JSON(fiber.Map{"success": true, "session_id": "never"})
	})

	_, err := c.ChatService.Upload(context.Background(), nil, profile())
	assert.ErrorIs(t, err, upload.ErrMissingRequiredDocument)
	assert.Zero(t, calls)
	assert.Equal(t, store.StatusIdle, c.ChatService.Session().Status)
}

// Scenario A
func TestUploadWithOnlyRequiredDocument(t *testing.T) {
	c, stub := newContainer(t)
	stub.Override(stubbackend.RouteRAGUpload, func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"success": true, "session_id": "s1"})
	})

	res, err := c.ChatService.Upload(context.Background(), sheet(), nil)
	require.NoError(t, err)
	assert.Equal(t, "s1", res.Session.ID)

	sess := c.ChatService.Session()
	assert.Equal(t, store.StatusReady, sess.Status)
	assert.Equal(t, "s1", sess.ID)

	u, ok := c.ChatService.Progress()
	require.True(t, ok)
	assert.True(t, u.Done)
}

// Scenario B
func TestGenerateRendersDeckWithBadge(t *testing.T) {
	c, stub := newContainer(t)
	ctx := context.Background()

	var got backend.GenerateRequest
	stub.Override(stubbackend.RoutePPTGenerate, func(fc *fiber.Ctx) error {
		if err := fc.BodyParser(&got); err != nil {
			return err
		}
		return fc.JSON(fiber.Map{
			"success": true,
			"slides":  []fiber.Map{{"type": "title", "content": fiber.Map{"title": "Acme Corp"}}},
			"metadata": fiber.Map{
				"slideCount":       1,
				"avgQualityScore":  92.5,
				"generationMethod": "agentic",
			},
		})
	})

	_, err := c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)

	for _, k := range []string{"executive", "ratios", "conclusion"} {
		_, err := c.PresentationService.Toggle(k)
		require.NoError(t, err)
	}
	deck, err := c.PresentationService.Generate(ctx, "modern", "blue")
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "financials"}, got.Slides)
	assert.Equal(t, "modern", got.Template)

	require.Len(t, deck.Slides, 1)
	assert.Equal(t, "Quality: 92.5/100", deck.Metadata.Badge())
	assert.Equal(t, "agentic", deck.Metadata.GenerationMethod)

	var buf bytes.Buffer
	require.NoError(t, slide.NewRenderer(slide.Style{}).RenderDeck(&buf, deck.Slides, deck.Metadata))
	assert.Contains(t, buf.String(), "Quality: 92.5/100")
	assert.Contains(t, buf.String(), "Acme Corp")

	view, err := c.PresentationService.View()
	require.NoError(t, err)
	require.NotNil(t, view.Deck)
	assert.Len(t, view.Deck.Slides, 1)
}

// Scenario C
func TestChatFailureBecomesAssistantTurn(t *testing.T) {
	c, stub := newContainer(t)
	ctx := context.Background()

	_, err := c.ChatService.Upload(ctx, sheet(), nil)
	require.NoError(t, err)

	stub.Override(stubbackend.RouteRAGChat, func(fc *fiber.Ctx) error {
		return fc.JSON(fiber.Map{"success": false, "error": "timeout"})
	})

	turn, err := c.ChatService.Ask(ctx, "What is total equity?")
	require.Error(t, err)
	assert.Equal(t, chat.RoleAssistant, turn.Role)
	assert.True(t, turn.Failed)
	assert.Contains(t, turn.Content, "timeout")
	require.NotNil(t, turn.Metadata)
	assert.Empty(t, turn.Metadata.Citations)
	assert.False(t, turn.Metadata.Grounded)

	turns, err := c.ChatService.Transcript()
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, chat.RoleUser, turns[1].Role)
	assert.Equal(t, chat.RoleAssistant, turns[2].Role)
}

// Scenario D
func TestResetCyclesDoNotLeakState(t *testing.T) {
	c, stub := newContainer(t)
	ctx := context.Background()

	var mu sync.Mutex
	ids := []string{"s1", "s2"}
	stub.Override(stubbackend.RouteRAGUpload, func(fc *fiber.Ctx) error {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return fc.JSON(fiber.Map{"success": true, "session_id": id})
	})
	var requests []backend.ChatRequest
	stub.Override(stubbackend.RouteRAGChat, func(fc *fiber.Ctx) error {
		var req backend.ChatRequest
		if err := fc.BodyParser(&req); err != nil {
			return err
		}
		requests = append(requests, req)
		return fc.JSON(fiber.Map{"success": true, "answer": "answer for " + req.SessionID})
	})

	c.ChatService.Reset()
	_, err := c.ChatService.Upload(ctx, sheet(), nil)
	require.NoError(t, err)
	_, err = c.ChatService.Ask(ctx, "first question")
	require.NoError(t, err)

	c.ChatService.Reset()
	_, err = c.ChatService.Transcript()
	assert.ErrorIs(t, err, chat.ErrSessionNotReady)

	_, err = c.ChatService.Upload(ctx, sheet(), nil)
	require.NoError(t, err)
	_, err = c.ChatService.Ask(ctx, "second question")
	require.NoError(t, err)

	require.Len(t, requests, 2)
	assert.Equal(t, "s2", requests[1].SessionID)
	assert.Len(t, requests[1].ChatHistory, 1, "only the new greeting")
	for _, m := range requests[1].ChatHistory {
		assert.NotContains(t, m.Content, "s1")
		assert.NotContains(t, m.Content, "first question")
	}

	// the presentation flow takes over and starts from the default selection
	_, err = c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)
	_, err = c.PresentationService.Toggle("trends")
	require.NoError(t, err)

	c.PresentationService.Reset()
	_, err = c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)
	view, err := c.PresentationService.View()
	require.NoError(t, err)
	assert.Equal(t, selection.DefaultSelection(), view.Selection.Slides)
	assert.Nil(t, view.Deck)

	_, err = c.ChatService.Transcript()
	assert.ErrorIs(t, err, chat.ErrSessionNotReady, "chat session was abandoned")
}

func TestRecommendationsThenUserEdits(t *testing.T) {
	c, _ := newContainer(t)
	ctx := context.Background()

	_, err := c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)
	require.True(t, c.PresentationService.LoadRecommendations(ctx))

	view, err := c.PresentationService.View()
	require.NoError(t, err)
	assert.True(t, view.Selection.Contains(slide.KindLeadership))

	_, err = c.PresentationService.Toggle("leadership")
	require.NoError(t, err)
	assert.False(t, c.PresentationService.LoadRecommendations(ctx), "user edits win")
	assert.False(t, c.PresentationService.LoadRecommendations(ctx))

	view, err = c.PresentationService.View()
	require.NoError(t, err)
	assert.False(t, view.Selection.Contains(slide.KindLeadership))
}

func TestGenerateRoundTripAndDownload(t *testing.T) {
	c, _ := newContainer(t)
	ctx := context.Background()

	_, err := c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)

	deck, err := c.PresentationService.Generate(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, deck.Slides, deck.Metadata.SlideCount)
	assert.Equal(t, selection.DefaultTemplate, deck.Template)

	artifact, err := c.PresentationService.Download(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.Data)

	deck, err = c.PresentationService.Preview(ctx)
	require.NoError(t, err)
	assert.Len(t, deck.Slides, 5)
}

func TestEmptySelectionDisablesGenerate(t *testing.T) {
	c, _ := newContainer(t)
	ctx := context.Background()

	_, err := c.PresentationService.Upload(ctx, sheet(), profile())
	require.NoError(t, err)
	for _, k := range selection.DefaultSelection() {
		_, err := c.PresentationService.Toggle(string(k))
		require.NoError(t, err)
	}

	assert.False(t, c.PresentationService.CanGenerate())
	_, err = c.PresentationService.Generate(ctx, "", "")
	assert.ErrorIs(t, err, selection.ErrEmptySelection)
}
