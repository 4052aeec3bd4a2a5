// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it connects the store, the assistant,
// the service, handlers, middleware, and routes, and it owns the server's
// lifecycle (start, graceful shutdown, closing the store).
//
// DEPENDENCY INJECTION FLOW:
// main.go creates:
//
//	config → logger → generator (provider SDK) → clipboard
//
// Server.New() creates:
//
//	store (memory or sqlite) → notification feed → Assistant → SnippetService → Handlers
//
// This is the "composition root" pattern: everything is wired in one place.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippet-lab/internal/assistant"
	"github.com/sakif/snippet-lab/internal/clipboard"
	"github.com/sakif/snippet-lab/internal/config"
	"github.com/sakif/snippet-lab/internal/handler"
	"github.com/sakif/snippet-lab/internal/llm"
	"github.com/sakif/snippet-lab/internal/middleware"
	"github.com/sakif/snippet-lab/internal/notify"
	"github.com/sakif/snippet-lab/internal/repository"
	"github.com/sakif/snippet-lab/internal/repository/memory"
	sqliteRepo "github.com/sakif/snippet-lab/internal/repository/sqlite"
	"github.com/sakif/snippet-lab/internal/service"
)

// Deps are the outside-world adapters chosen by main.
type Deps struct {
	Generator llm.Generator    // nil means AI features are disabled
	Model     string           // model identifier sent on every generation call
	Clipboard clipboard.Writer // nil means an in-process clipboard
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. Start closes it during shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	feed   *notify.Feed
}

// New creates a new Server and wires the full dependency chain.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it isn't confused with
// the sqlite driver package.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := repository.Seed(context.Background(), store); err != nil {
			store.Close()
			return nil, fmt.Errorf("seeding store: %w", err)
		}
	}

	if deps.Generator == nil {
		deps.Generator = llm.Disabled{}
	}
	if deps.Clipboard == nil {
		deps.Clipboard = &clipboard.Memory{}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		feed:   notify.NewFeed(cfg.Notifications.Capacity, logger),
	}
	s.setupRoutes(deps)

	return s, nil
}

// openStore picks the snippet store backend. Both are volatile: the sqlite
// backend always runs on an in-memory database.
func openStore(kind string) (repository.Store, error) {
	switch kind {
	case config.StoreSQLite:
		db, err := sqliteRepo.New(sqliteRepo.MemoryDSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	case config.StoreMemory, "":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store %q", kind)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                        → liveness
//	GET    /api/snippets?q=&filter=&view=  → query engine
//	POST   /api/snippets                   → manual create
//	GET    /api/snippets/{id}
//	POST   /api/snippets/{id}/pin          → toggle pinned
//	POST   /api/snippets/{id}/favorite     → toggle favorite
//	POST   /api/snippets/{id}/explain      → explain, or toggle cached explanation
//	POST   /api/snippets/{id}/copy         → copy code to clipboard
//	GET    /api/collections
//	GET    /api/stats
//	POST   /api/drafts                     → open a draft session
//	GET    /api/drafts/{id}
//	PATCH  /api/drafts/{id}                → manual edits (+ language detection)
//	DELETE /api/drafts/{id}
//	POST   /api/drafts/{id}/generate       → fill the draft from a prompt
//	POST   /api/drafts/{id}/save           → save the draft as a snippet
//	POST   /api/detect-language
//	GET    /api/notifications              → recent toasts
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs before our Logger so every log line carries the ID.
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	asst := assistant.New(deps.Generator, s.store, s.feed, assistant.Config{
		Model:   deps.Model,
		Timeout: s.config.AI.Timeout,
	}, s.logger)
	snippetService := service.NewSnippetService(s.store, asst, s.feed, deps.Clipboard, s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, asst, s.logger)
	draftHandler := handler.NewDraftHandler(asst, snippetService, s.logger)
	notificationHandler := handler.NewNotificationHandler(s.feed)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleList)
			r.Post("/", snippetHandler.HandleCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", snippetHandler.HandleGet)
				r.Post("/pin", snippetHandler.HandleTogglePin)
				r.Post("/favorite", snippetHandler.HandleToggleFavorite)
				r.Post("/explain", snippetHandler.HandleExplain)
				r.Post("/copy", snippetHandler.HandleCopy)
			})
		})
		r.Get("/collections", snippetHandler.HandleCollections)
		r.Get("/stats", snippetHandler.HandleStats)

		r.Route("/drafts", func(r chi.Router) {
			r.Post("/", draftHandler.HandleOpen)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", draftHandler.HandleGet)
				r.Patch("/", draftHandler.HandleUpdate)
				r.Delete("/", draftHandler.HandleClose)
				r.Post("/generate", draftHandler.HandleGenerate)
				r.Post("/save", draftHandler.HandleSave)
			})
		})
		r.Post("/detect-language", draftHandler.HandleDetectLanguage)
		r.Get("/notifications", notificationHandler.HandleList)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store
//
// WriteTimeout sits above the AI call timeout so a slow generation can still
// be answered.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store),
			slog.String("ai_provider", s.config.AI.Provider),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
