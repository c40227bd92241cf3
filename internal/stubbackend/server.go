// FILE: internal/stubbackend/server.go
package stubbackend

import (
	"log"
	"net/http"
	"sync"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// Route keys accepted by Override.
const (
	RouteRAGUpload       = "rag.upload"
	RouteRAGChat         = "rag.chat"
	RoutePPTUpload       = "ppt.upload"
	RoutePPTRecommend    = "ppt.recommendations"
	RoutePPTGenerate     = "ppt.generate"
	RoutePPTPreview      = "ppt.preview"
	RoutePPTDownload     = "ppt.download"
	RouteHealth          = "health"
	maxUploadBytes       = 12 * 1024 * 1024
	defaultAllowedOrigin = "*"
)

type Config struct {
	CorsAllowedOrigins string
}

// Server is an in-memory stand-in for the analysis backend. It speaks the
// same routes and envelopes, and individual routes can be overridden.
type Server struct {
	app    *fiber.App
	logger logger.ILogger

	mu            sync.Mutex
	chatSessions  map[string]*chatSession
	presentations map[string]*presentation
	overrides     map[string]fiber.Handler
}

func New(cfg Config, logger logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
	})

	origins := cfg.CorsAllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigin
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(otelfiber.Middleware())

	s := &Server{
		app:           app,
		logger:        logger,
		chatSessions:  make(map[string]*chatSession),
		presentations: make(map[string]*presentation),
		overrides:     make(map[string]fiber.Handler),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/api/health", s.route(RouteHealth, s.health))

	rag := s.app.Group("/api/rag")
	rag.Post("/upload", s.route(RouteRAGUpload, s.ragUpload))
	rag.Post("/chat", s.route(RouteRAGChat, s.ragChat))

	ppt := s.app.Group("/api/ppt")
	ppt.Post("/upload", s.route(RoutePPTUpload, s.pptUpload))
	ppt.Get("/recommendations/:id", s.route(RoutePPTRecommend, s.pptRecommendations))
	ppt.Post("/generate", s.route(RoutePPTGenerate, s.pptGenerate))
	ppt.Get("/preview/:id", s.route(RoutePPTPreview, s.pptPreview))
	ppt.Get("/download/:id", s.route(RoutePPTDownload, s.pptDownload))
}

// route resolves overrides per request so tests can swap behavior mid-flight.
func (s *Server) route(key string, fallback fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		h, ok := s.overrides[key]
		s.mu.Unlock()
		if ok {
			return h(c)
		}
		return fallback(c)
	}
}

// Override replaces the handler behind a route key; nil restores the default.
func (s *Server) Override(key string, h fiber.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.overrides, key)
		return
	}
	s.overrides[key] = h
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Handler exposes the app as a net/http handler (for httptest.NewServer).
func (s *Server) Handler() http.HandlerFunc {
	return adaptor.FiberApp(s.app)
}

func (s *Server) Run(port string) error {
	log.Printf("Stub backend is running on http://localhost:%s (mounts /api/rag, /api/ppt)", port)
	return s.app.Listen(":" + port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy"})
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
