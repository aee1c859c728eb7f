package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tabzpay/progress-sub002/config"
	"github.com/tabzpay/progress-sub002/internal/auth"
	"github.com/tabzpay/progress-sub002/internal/db"
	"github.com/tabzpay/progress-sub002/internal/handlers"
	"github.com/tabzpay/progress-sub002/internal/metrics"
	"github.com/tabzpay/progress-sub002/internal/routeguard"
	"github.com/tabzpay/progress-sub002/internal/services"
	"github.com/tabzpay/progress-sub002/internal/storage"
	"github.com/tabzpay/progress-sub002/internal/store"
	"github.com/tabzpay/progress-sub002/internal/supabase"
	"github.com/tabzpay/progress-sub002/internal/uistate"
	"go.uber.org/zap"
)

const uiObjectPrefix = "ui/"

// Deps are the collaborators the router is built from.
type Deps struct {
	Users     services.UserRepository
	Supabase  *supabase.Client
	UIBackend uistate.Backend
	Tokens    *auth.TokenManager
	Logger    *zap.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	logger     *zap.Logger
}

// New connects the user database, the managed backend and the UI preference
// store, then builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sb, err := supabase.New(supabase.Config{URL: cfg.Supabase.URL, APIKey: cfg.Supabase.Key})
	if err != nil {
		return nil, fmt.Errorf("supabase: %w", err)
	}

	uiBackend, err := openUIBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TelemetryEnabled() {
		logger.Info("telemetry enabled", zap.String("host", cfg.Telemetry.Host))
	}

	router := NewRouter(cfg, Deps{
		Users:     store.NewUserRepository(dbConn),
		Supabase:  sb,
		UIBackend: uiBackend,
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Logger:    logger,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		logger:     logger,
	}, nil
}

// NewRouter wires middleware, the auth and domain routes, metrics and the
// guarded SPA mount.
func NewRouter(cfg config.Config, deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userService := services.NewUserService(deps.Users)
	customerRepo := supabase.NewCustomerRepository(deps.Supabase, logger)
	customerService := services.NewCustomerService(customerRepo)
	groupRepo := supabase.NewGroupRepository(deps.Supabase, logger)
	loanService := services.NewLoanService(supabase.NewLoanRepository(deps.Supabase, logger), customerRepo, groupRepo)
	groupService := services.NewGroupService(groupRepo, customerRepo)
	templateService := services.NewTemplateService(supabase.NewTemplateRepository(deps.Supabase, logger))

	authHandler := handlers.NewAuthHandler(userService, deps.Tokens, logger)
	requireAuth := handlers.RequireAuth(deps.Tokens)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger.Named("http")),
		cors(cfg.CORSOrigins),
		metrics.InstrumentHandler,
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Post("/register", authHandler.Register)
	router.Post("/login", authHandler.Login)

	router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Route("/customers", func(r chi.Router) {
			handlers.CustomerRouter(r, handlers.NewCustomerHandler(customerService, logger))
		})
		r.Route("/loans", func(r chi.Router) {
			handlers.LoanRouter(r, handlers.NewLoanHandler(loanService, logger))
		})
		r.Route("/groups", func(r chi.Router) {
			handlers.GroupRouter(r, handlers.NewGroupHandler(groupService, logger))
		})
		r.Route("/templates", func(r chi.Router) {
			handlers.TemplateRouter(r, handlers.NewTemplateHandler(templateService, logger))
		})
		r.Route("/ui", func(r chi.Router) {
			handlers.UIRouter(r, handlers.NewUIHandler(deps.UIBackend, userService, logger))
		})
	})

	if dir := strings.TrimSpace(cfg.SPADir); dir != "" {
		guard := routeguard.New(deps.Tokens, logger)
		router.With(guard.Middleware).Handle("/app/*", spaHandler("/app", dir))
	}

	return router
}

// spaHandler serves files under dir and falls back to index.html for client
// routes.
func spaHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(r.URL.Path, prefix)
		if rel != "" && rel != "/" {
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+rel)))); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFile(w, r, index)
	})
}

// openUIBackend stores preferences in the object store when one is
// configured and in local files otherwise.
func openUIBackend(ctx context.Context, cfg config.StorageConfig) (uistate.Backend, error) {
	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if objects == nil {
		return uistate.NewFileBackend(cfg.LocalDir), nil
	}
	return uistate.NewObjectBackend(objects, uiObjectPrefix), nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
