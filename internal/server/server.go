// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where handlers,
// services, repositories, and middleware are assembled and connected to
// routes. Keeping it separate from main.go makes the wiring testable and
// keeps main minimal.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go reads config → server.New() creates:
//	  sqlite.DB → GoalService/TaskService/AuthService → handlers → routes
//	  Materializer (background recurrence loop, started by Start())
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services. The handler never touches the
// database directly and the service never touches HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/emstod/trunky-backend/internal/auth"
	"github.com/emstod/trunky-backend/internal/handler"
	"github.com/emstod/trunky-backend/internal/middleware"
	sqliteRepo "github.com/emstod/trunky-backend/internal/repository/sqlite"
	"github.com/emstod/trunky-backend/internal/service"
)

// Config holds server configuration. Using a struct (instead of individual
// parameters) makes it easy to add options without changing signatures and
// to load everything from env vars in one place.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Must be set; the server refuses to
	// start without it since every /api route requires authentication.
	JWTSecret string

	// GitHub OAuth is optional. When the client ID is empty the
	// /auth/github routes are not registered.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and the recurrence materializer.
// Both are shut down cleanly in Start() when the process receives a signal:
// the materializer's context is cancelled, in-flight requests get a grace
// period, and the database is closed last (flushes WAL, releases the lock).
type Server struct {
	router       *chi.Mux
	config       Config
	logger       *slog.Logger
	db           *sqliteRepo.DB
	materializer *service.Materializer
}

// New creates a new Server with the given config, assembling the entire
// dependency chain: database → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/register                   → create account, start session
//	POST   /api/auth/login                      → email/password login
//	POST   /auth/logout                         → clear session cookie
//	GET    /auth/github/login                   → redirect to GitHub (optional)
//	GET    /auth/github/callback                → OAuth callback (optional)
//	GET    /api/me                              → current user         [auth]
//	GET    /api/goals?date=YYYY-MM-DD           → goals by category    [auth]
//	POST   /api/goals                           → create goal          [auth]
//	GET    /api/goals/{id}                      → single goal          [auth]
//	PUT    /api/goals/{id}                      → update goal          [auth]
//	DELETE /api/goals/{id}                      → delete goal          [auth]
//	PUT    /api/goals/{id}/completion/{date}    → record progress      [auth]
//	GET    /api/goals/{id}/completion/{date}    → progress for a day   [auth]
//	GET    /api/tasks?group=&page=&date=        → list/group tasks     [auth]
//	POST   /api/tasks                           → create task          [auth]
//	GET    /api/tasks/{id}/{date}               → single occurrence    [auth]
//	PUT    /api/tasks/{id}/{date}               → update occurrence    [auth]
//	DELETE /api/tasks/{id}/{date}               → delete occurrence    [auth]
//
// MIDDLEWARE ORDER MATTERS — middleware executes in the order it's added:
// RequestID → RealIP → Recoverer → Logger, then RequireAuth on /api routes.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === SERVICES ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	goalService := service.NewGoalService(s.db, s.logger)
	taskService := service.NewTaskService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)

	// The materializer is started by Start(), not here; setupRoutes only
	// wires dependencies.
	s.materializer = service.NewMaterializer(s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	// === HANDLERS ===
	goalHandler := handler.NewGoalHandler(goalService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.logger)

	// === PUBLIC AUTH ROUTES ===
	s.router.Post("/api/auth/register", authHandler.HandleRegister)
	s.router.Post("/api/auth/login", authHandler.HandleLogin)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Info("GitHub OAuth not configured, /auth/github routes disabled")
	}

	// === PROTECTED API ROUTES ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/goals", goalHandler.HandleList)
		r.Post("/goals", goalHandler.HandleCreate)
		r.Get("/goals/{id}", goalHandler.HandleGet)
		r.Put("/goals/{id}", goalHandler.HandleUpdate)
		r.Delete("/goals/{id}", goalHandler.HandleDelete)
		r.Put("/goals/{id}/completion/{date}", goalHandler.HandleSetCompletion)
		r.Get("/goals/{id}/completion/{date}", goalHandler.HandleGetCompletion)

		r.Get("/tasks", taskHandler.HandleList)
		r.Post("/tasks", taskHandler.HandleCreate)
		r.Get("/tasks/{id}/{date}", taskHandler.HandleGet)
		r.Put("/tasks/{id}/{date}", taskHandler.HandleUpdate)
		r.Delete("/tasks/{id}/{date}", taskHandler.HandleDelete)
	})

	return nil
}

// Start starts the HTTP server, the recurrence materializer, and handles
// graceful shutdown.
//
// On SIGINT/SIGTERM:
//  1. Cancel the materializer's context (stops the daily loop)
//  2. Stop accepting new HTTP connections, wait for in-flight requests
//  3. Close the database connection
func (s *Server) Start() error {
	defer s.db.Close()

	// Background recurrence loop. It runs once immediately (covering any
	// runs missed while the process was down) and then daily.
	matCtx, matCancel := context.WithCancel(context.Background())
	defer matCancel()
	go s.materializer.Start(matCtx)

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
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		matCancel()

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
