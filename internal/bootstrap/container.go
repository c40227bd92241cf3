package bootstrap

import (
	"github.com/Dhruv3sood/finq/internal/config"
	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/repository/memory"
	"github.com/Dhruv3sood/finq/internal/service"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/chat"
	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/generation"
	pktNats "github.com/Dhruv3sood/finq/pkg/nats"
	"github.com/Dhruv3sood/finq/pkg/pipeline"
	"github.com/Dhruv3sood/finq/pkg/progress"
	"github.com/Dhruv3sood/finq/pkg/selection"
	"github.com/Dhruv3sood/finq/pkg/store"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

type Container struct {
	// Services
	ChatService         service.IChatService
	PresentationService service.IPresentationService

	// Backends (exposed for health checks)
	ChatClient   *backend.Client
	SlidesClient *backend.Client

	// Events
	Bus   *events.Bus
	Store *store.Store

	natsPub *pktNats.Publisher
	logger  logger.ILogger
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Event Bus
	bus := events.NewBus(sysLogger)
	var publisher events.Publisher = bus

	// Optional JetStream mirror
	var natsPub *pktNats.Publisher
	if cfg.Events.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			publisher = events.NewFanout(sysLogger, bus, natsPub)
		}
	}

	// 2. Backends
	chatClient := backend.NewClient(cfg.Backend.ChatBaseURL, cfg.Backend.Timeout, sysLogger)
	slidesClient := backend.NewClient(cfg.Backend.SlidesBaseURL, cfg.Backend.Timeout, sysLogger)

	// 3. Session core
	sessionStore := store.New(publisher, sysLogger)
	maxBytes := int64(cfg.Upload.MaxFileSizeMB) * 1024 * 1024

	chatUpload := upload.NewPipeline(upload.Config{
		Flow:          store.FlowChat,
		Sequence:      progress.ChatSequence,
		StageInterval: cfg.Upload.StageInterval,
		MaxFileBytes:  maxBytes,
	}, chatClient, sessionStore, publisher, sysLogger)

	slidesUpload := upload.NewPipeline(upload.Config{
		Flow:          store.FlowPresentation,
		Sequence:      progress.PresentationSequence,
		StageInterval: cfg.Upload.StageInterval,
		MaxFileBytes:  maxBytes,
	}, slidesClient, sessionStore, publisher, sysLogger)

	// 4. Chat flow
	chatSession := chat.NewSession(
		sessionStore,
		chatClient,
		memory.NewSessionRepository[[]chat.Turn](cfg.Session.TTL),
		publisher,
		sysLogger,
	)
	chatFlow := pipeline.NewFlow[[]chat.Turn](sessionStore, chatUpload, chatSession, sysLogger)

	// 5. Presentation flow
	resolver := selection.NewResolver(
		sessionStore,
		slidesClient,
		memory.NewSessionRepository[selection.State](cfg.Session.TTL),
		publisher,
		sysLogger,
	)
	orchestrator := generation.NewOrchestrator(
		sessionStore,
		slidesClient,
		memory.NewSessionRepository[generation.Deck](cfg.Session.TTL),
		publisher,
		sysLogger,
	)
	presentationFlow := pipeline.NewFlow[service.PresentationView](
		sessionStore,
		slidesUpload,
		service.NewPresentationPipeline(resolver, orchestrator),
		sysLogger,
		orchestrator, // decks are purged with the session
	)

	return &Container{
		ChatService:         service.NewChatService(chatFlow, chatSession),
		PresentationService: service.NewPresentationService(presentationFlow, resolver, orchestrator),
		ChatClient:          chatClient,
		SlidesClient:        slidesClient,
		Bus:                 bus,
		Store:               sessionStore,
		natsPub:             natsPub,
		logger:              sysLogger,
	}
}

func (c *Container) Close() {
	if err := c.Bus.Close(); err != nil {
		c.logger.Warn("BOOTSTRAP", "Failed to close event bus", map[string]interface{}{"error": err.Error()})
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
}
