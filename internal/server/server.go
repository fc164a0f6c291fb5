// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, the service,
// the handlers and the middleware, and decides:
//   - which Record Store backs the API (memory or SQLite)
//   - where activity events go (log or Kafka)
//   - which URL patterns map to which handler functions
//   - how the server starts and stops gracefully
//
// This is the "composition root" pattern: every dependency is created and
// injected in one place (New/setupRoutes), rather than scattered across the
// codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hardship-board/internal/config"
	"github.com/sakif/hardship-board/internal/events"
	"github.com/sakif/hardship-board/internal/handler"
	"github.com/sakif/hardship-board/internal/middleware"
	"github.com/sakif/hardship-board/internal/repository"
	"github.com/sakif/hardship-board/internal/repository/memory"
	sqliteRepo "github.com/sakif/hardship-board/internal/repository/sqlite"
	"github.com/sakif/hardship-board/internal/service"
	"github.com/sakif/hardship-board/internal/viewer"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns whatever it opened (a SQLite connection, a Kafka writer).
// Those are collected in closers and released in Close, after in-flight
// requests have drained.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	svc     *service.HardshipService
	closers []io.Closer
}

// New creates a Server from cfg, opening the configured store and event sink.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{config: cfg, logger: logger}

	repo, err := s.openStore()
	if err != nil {
		return nil, err
	}

	publisher, err := s.openPublisher()
	if err != nil {
		s.Close()
		return nil, err
	}

	svc := service.NewHardshipService(repo, logger, service.Config{
		Categories:    cfg.CategoryList(),
		MaxTextLength: cfg.MaxTextLength,
		Events:        publisher,
	})

	if err := s.init(svc); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewWithService wires the router around an existing service. Tests use it
// to run the full HTTP stack over any store.
func NewWithService(cfg config.Config, logger *slog.Logger, svc *service.HardshipService) (*Server, error) {
	s := &Server{config: cfg, logger: logger}
	if err := s.init(svc); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) init(svc *service.HardshipService) error {
	s.svc = svc
	s.router = chi.NewRouter()
	if err := s.setupRoutes(); err != nil {
		return fmt.Errorf("setting up routes: %w", err)
	}
	return nil
}

// openStore picks the Record Store. The in-memory store is the default; it
// lives exactly as long as the process.
func (s *Server) openStore() (repository.HardshipRepository, error) {
	switch s.config.StoreDriver {
	case config.DriverSQLite:
		// os.MkdirAll creates the parent directory if needed (like `mkdir -p`).
		if dir := filepath.Dir(s.config.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(s.config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		s.closers = append(s.closers, db)
		return db, nil
	default:
		return memory.New(), nil
	}
}

// openPublisher picks the event sink: Kafka when brokers are configured,
// otherwise the log.
func (s *Server) openPublisher() (events.Publisher, error) {
	brokers := s.config.KafkaBrokerList()
	if len(brokers) == 0 {
		return events.NewLogPublisher(s.logger), nil
	}
	p, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: brokers, Topic: s.config.KafkaTopic})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}
	s.closers = append(s.closers, p)
	return p, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/hardships                 → create
// GET    /api/hardships                 → list
// GET    /api/hardships/feed            → read pipeline (filter/sort/paginate)
// GET    /api/hardships/{id}            → get one
// PUT    /api/hardships/{id}            → edit
// DELETE /api/hardships/{id}            → delete
// POST   /api/hardships/{id}/comments   → add comment
// POST   /api/hardships/{id}/like       → toggle like
// GET    /api/categories                → configured categories
// POST   /board/...                     → HTML form endpoints for the page
// GET    /static/*                      → static files (when STATIC_DIR is set)
// GET    /*                             → server-rendered board page
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request ID
// 4. Recover: turns panics into the standard JSON 500
// 5. viewer.Middleware: decides which simulated user is asking
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recover(s.logger))
	s.router.Use(viewer.Middleware(s.config.DefaultViewerID))

	api := handler.NewHardshipHandler(s.svc, s.config.DefaultViewerID, s.logger)

	staticPrefix := ""
	if s.config.StaticDir != "" {
		staticPrefix = "/static"
		// http.StripPrefix removes "/static/" before the file lookup, so
		// GET /static/style.css → serves {StaticDir}/style.css
		fileServer := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	page, err := handler.NewPageHandler(s.svc, s.config.DefaultViewerID, staticPrefix, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	s.router.Route("/api", func(r chi.Router) {
		// CORS runs before routing inside /api, so it also answers OPTIONS
		// preflights for paths that only define GET or POST.
		r.Use(middleware.CORS)

		r.Route("/hardships", func(r chi.Router) {
			r.Post("/", api.HandleCreate)
			r.Get("/", api.HandleList)
			r.Get("/feed", api.HandleFeed)
			r.Get("/{id}", api.HandleGet)
			r.Put("/{id}", api.HandleEdit)
			r.Delete("/{id}", api.HandleDelete)
			r.Post("/{id}/comments", api.HandleAddComment)
			r.Post("/{id}/like", api.HandleToggleLike)
		})
		r.Get("/categories", api.HandleCategories)
	})

	s.router.Route("/board/hardships", func(r chi.Router) {
		r.Post("/", page.HandlePost)
		r.Post("/{id}/like", page.HandleLike)
		r.Post("/{id}/comments", page.HandleComment)
	})

	// Fallback: any other GET gets the board page.
	s.router.Get("/*", page.HandlePage)

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store and the event sink
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.StoreDriver),
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

// Close releases everything New opened, newest first.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
