// Package server is the composition root: it opens the database, assembles
// the service and handler layers, defines every route, and runs the HTTP
// server with graceful shutdown.
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

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/handler"
	"github.com/sakif/conduit/internal/middleware"
	sqliteRepo "github.com/sakif/conduit/internal/repository/sqlite"
	"github.com/sakif/conduit/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL gets flushed.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires the full dependency chain:
// sqlite.DB → repositories → services → handlers → routes. Each layer sees
// only the layer below it; handlers never touch the database.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the full route table.
//
// Route summary (all under /api):
//
//	POST   /users                        register
//	POST   /users/login                  login
//	GET    /user                         current user          (auth)
//	PUT    /user                         update current user   (auth)
//	GET    /profiles/{username}          profile               (optional auth)
//	POST   /profiles/{username}/follow   follow                (auth)
//	DELETE /profiles/{username}/follow   unfollow              (auth)
//	GET    /articles                     list                  (optional auth)
//	GET    /articles/feed                personalized feed     (auth)
//	GET    /articles/{slug}              single article        (optional auth)
//	POST   /articles                     create                (auth)
//	PUT    /articles/{slug}              update                (auth, author)
//	DELETE /articles/{slug}              delete                (auth, author)
//	POST   /articles/{slug}/favorite     favorite              (auth)
//	DELETE /articles/{slug}/favorite     unfavorite            (auth)
//	GET    /tags                         tag index
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	userService := service.NewUserService(s.db, tokens, passwords, s.logger)
	profileService := service.NewProfileService(s.db, s.db, s.logger)
	articleService := service.NewArticleService(s.db, s.db, s.db, s.db, s.logger)

	userHandler := handler.NewUserHandler(userService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	articleHandler := handler.NewArticleHandler(articleService, s.logger)
	tagHandler := handler.NewTagHandler(articleService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", userHandler.HandleRegister)
		r.Post("/users/login", userHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", userHandler.HandleCurrent)
			r.Put("/user", userHandler.HandleUpdate)

			r.Post("/profiles/{username}/follow", profileHandler.HandleFollow)
			r.Delete("/profiles/{username}/follow", profileHandler.HandleUnfollow)

			r.Get("/articles/feed", articleHandler.HandleFeed)
			r.Post("/articles", articleHandler.HandleCreate)
			r.Put("/articles/{slug}", articleHandler.HandleUpdate)
			r.Delete("/articles/{slug}", articleHandler.HandleDelete)
			r.Post("/articles/{slug}/favorite", articleHandler.HandleFavorite)
			r.Delete("/articles/{slug}/favorite", articleHandler.HandleUnfavorite)
		})

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/profiles/{username}", profileHandler.HandleGet)
			r.Get("/articles", articleHandler.HandleList)
			r.Get("/articles/{slug}", articleHandler.HandleGet)
		})

		r.Get("/tags", tagHandler.HandleList)
	})

	return nil
}

// Router exposes the assembled handler, mainly for tests that want to drive
// the full stack through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; Close
// exists for callers that never reach Start.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
