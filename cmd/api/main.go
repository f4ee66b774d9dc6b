// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/cache"
	"github.com/aiva-platform/chat/internal/config"
	"github.com/aiva-platform/chat/internal/events"
	"github.com/aiva-platform/chat/internal/handler"
	"github.com/aiva-platform/chat/internal/llm"
	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/internal/storage"
	"github.com/aiva-platform/chat/internal/store"
	"github.com/aiva-platform/chat/pkg/logger"
	"github.com/aiva-platform/chat/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "aiva-chat", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing")
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis; the history cache is optional
	var historyCache service.HistoryCache
	redisCache, err := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn("failed to connect to Redis, history cache disabled")
	} else {
		defer redisCache.Close()
		historyCache = redisCache
	}

	// Connect to NATS; event publishing is optional
	var publisher service.Publisher
	var eventsClient *events.Client
	eventsClient, err = events.Connect(ctx, events.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("failed to connect to NATS, event publishing disabled")
		eventsClient = nil
	} else {
		defer eventsClient.Close()
		p := events.NewPublisher(eventsClient)
		if err := p.EnsureStream(ctx); err != nil {
			log.Warn("failed to ensure events stream")
		}
		publisher = p
	}

	// Initialize file storage
	blobs, err := storage.NewLocal(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		log.Error("failed to initialize file storage", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client
	llmClient := newLLMClient(cfg, log)

	// Initialize services
	chatSvc := service.NewChatService(db.Chats(), db.Messages(), historyCache, log)
	messageSvc := service.NewMessageService(chatSvc, db.Messages(), llmClient, publisher, historyCache, cfg.DefaultModel, cfg.ReplyTimeout, log)
	actionSvc := service.NewActionService(db.Actions(), db.Messages(), publisher, log)
	fileSvc := service.NewFileService(db.Files(), blobs, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(eventsClient)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	chatHandler := handler.NewChatHandler(chatSvc, log)
	historyHandler := handler.NewHistoryHandler(chatSvc, log)
	actionHandler := handler.NewActionHandler(actionSvc, log)
	fileHandler := handler.NewFileHandler(fileSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Chat
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", messageHandler.Send)
			r.Post("/", chatHandler.Create)
			r.Get("/", chatHandler.List)
			r.Get("/{id}/messages", chatHandler.Messages)
			r.Delete("/{id}", chatHandler.Delete)
		})

		// History
		r.Get("/history", historyHandler.List)
		r.Get("/history/{id}", historyHandler.Details)

		// Message actions
		r.Route("/message-actions", func(r chi.Router) {
			r.Get("/{flag}", actionHandler.List)
			r.Post("/{messageID}", actionHandler.Add)
			r.Delete("/{messageID}/{action}", actionHandler.Remove)
		})

		// Files
		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", fileHandler.Upload)
			r.Get("/", fileHandler.List)
			r.Get("/{id}", fileHandler.Download)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

// newLLMClient builds the reply provider named by DEFAULT_LLM, falling back
// to whichever provider has an API key configured. Returns nil when no
// provider is usable; replies are then answered with a config error.
func newLLMClient(cfg *config.Config, log *logger.Logger) llm.Client {
	providers := []string{cfg.DefaultLLM, "anthropic", "openai"}
	for _, name := range providers {
		switch name {
		case "anthropic":
			if cfg.AnthropicAPIKey == "" {
				continue
			}
			c, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey)
			if err != nil {
				log.Warn("failed to create Anthropic client", zap.Error(err))
				continue
			}
			log.Info("reply provider ready", zap.String("provider", c.Name()))
			return c
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				continue
			}
			c, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
			if err != nil {
				log.Warn("failed to create OpenAI client", zap.Error(err))
				continue
			}
			log.Info("reply provider ready", zap.String("provider", c.Name()))
			return c
		default:
			if name != "" {
				log.Warn("unknown reply provider", zap.String("provider", name))
			}
		}
	}
	log.Warn("no reply provider configured, reply generation disabled")
	return nil
}
