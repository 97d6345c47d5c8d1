// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects stores, services,
// handlers, middleware and routes, and decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB ─┬→ TodoService → TodoHandler
//	             ├→ UserService → UserHandler
//	  book store ┴→ BookService → BookHandler
//
// This is the "composition root" pattern: all dependencies are wired in
// one place, rather than scattered across the codebase.
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

	"github.com/sakif/todo-service/internal/auth"
	"github.com/sakif/todo-service/internal/config"
	"github.com/sakif/todo-service/internal/handler"
	"github.com/sakif/todo-service/internal/middleware"
	"github.com/sakif/todo-service/internal/repository"
	"github.com/sakif/todo-service/internal/repository/memory"
	sqliteRepo "github.com/sakif/todo-service/internal/repository/sqlite"
	"github.com/sakif/todo-service/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it after the HTTP
// server has drained; callers that never Start (tests) call Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	tokens *auth.TokenService // nil when auth is disabled
}

// New opens the stores, seeds the book catalogue when it is empty and
// builds the router.
//
// IMPORT ALIAS:
// repository/sqlite is imported as `sqliteRepo` so it cannot be confused
// with the sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

	if cfg.AuthEnabled() {
		s.tokens, err = auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring auth: %w", err)
		}
	} else {
		logger.Warn("JWT_SECRET not set, authentication is disabled")
	}

	bookStore, err := s.bookStore()
	if err != nil {
		db.Close()
		return nil, err
	}

	todoService := service.NewTodoService(db, logger)
	userService := service.NewUserService(db, auth.NewPasswordService(), s.tokens, logger)
	bookService := service.NewBookService(bookStore, logger)

	if _, err := bookService.SeedIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding books: %w", err)
	}

	s.setupRoutes(
		handler.NewTodoHandler(todoService, logger),
		handler.NewBookHandler(bookService, logger),
		handler.NewUserHandler(userService, logger),
	)

	return s, nil
}

// bookStore picks the backing store for the catalogue. The memory store
// starts fresh on every run; the sqlite store shares the todo database.
func (s *Server) bookStore() (repository.Store, error) {
	switch s.config.BookStore {
	case config.BookStoreSQLite:
		return s.db, nil
	case config.BookStoreMemory, "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown book store %q", s.config.BookStore)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /, /todo                 → list todos
// GET    /todo/{id}               → one todo
// POST   /todo                    → create todo
// PUT    /todo/{id}               → replace todo
// DELETE /todo/{id}               → delete todo
// GET    /books                   → list/filter books
// GET    /books/{id}              → one book
// GET    /books/title/{title}     → book by title
// GET    /books/author/{author}   → books by author
// POST   /books                   → create book
// PUT    /books/{id}              → replace book
// PUT    /books/update_book       → replace book by title
// DELETE /books/{id}              → delete book
// DELETE /books/title/{title}     → delete book by title
// POST   /users                   → register
// GET    /users/{id}              → one user
// DELETE /users/{id}              → delete user
// POST   /auth/login, /auth/logout and GET /api/me when auth is enabled
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request with timing info and the request ID
func (s *Server) setupRoutes(todos *handler.TodoHandler, books *handler.BookHandler, users *handler.UserHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// A valid token sets the todo owner; no token is fine.
	identify := func(next http.Handler) http.Handler { return next }
	protect := identify
	if s.tokens != nil {
		identify = auth.OptionalAuth(s.tokens)
		protect = auth.RequireAuth(s.tokens)
	}

	s.router.With(identify).Get("/", todos.HandleList)
	s.router.Route("/todo", func(r chi.Router) {
		r.Use(identify)
		r.Get("/", todos.HandleList)
		r.Post("/", todos.HandleCreate)
		r.Get("/{id}", todos.HandleGet)
		r.Put("/{id}", todos.HandleUpdate)
		r.Delete("/{id}", todos.HandleDelete)
	})

	s.router.Route("/books", func(r chi.Router) {
		r.Get("/", books.HandleList)
		r.Post("/", books.HandleCreate)
		r.Put("/update_book", books.HandleUpdateByTitle)
		r.Get("/title/{title}", books.HandleGetByTitle)
		r.Delete("/title/{title}", books.HandleDeleteByTitle)
		r.Get("/author/{author}", books.HandleListByAuthor)
		r.Get("/{id}", books.HandleGet)
		r.Put("/{id}", books.HandleUpdate)
		r.Delete("/{id}", books.HandleDelete)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Post("/", users.HandleRegister)
		r.Get("/{id}", users.HandleGet)
		r.With(protect).Delete("/{id}", users.HandleDelete)
	})

	if s.tokens != nil {
		s.router.Post("/auth/login", users.HandleLogin)
		s.router.Post("/auth/logout", users.HandleLogout)
		s.router.With(protect).Get("/api/me", users.HandleMe)
	}
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
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
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("book_store", s.config.BookStore),
			slog.Bool("auth", s.tokens != nil),
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
