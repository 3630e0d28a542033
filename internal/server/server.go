package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/auth"
	"github.com/cinescope/apiserver/internal/catalog"
	"github.com/cinescope/apiserver/internal/db"
	"github.com/cinescope/apiserver/internal/handlers"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/metrics"
	"github.com/cinescope/apiserver/internal/mq"
	"github.com/cinescope/apiserver/internal/services"
	"github.com/cinescope/apiserver/internal/storage"
	"github.com/cinescope/apiserver/internal/store"
	"github.com/cinescope/apiserver/internal/tmdb"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// CatalogSource is what the /catalog routes need from TMDB.
type CatalogSource interface {
	catalog.Source
	handlers.MediaSource
}

// Deps are the collaborators the router is built from. Objects, Events and
// Catalog are optional; the routes backed by them are disabled when nil.
type Deps struct {
	Users   services.UserRepository
	Authors services.ReviewAuthorRepository
	Reviews services.ReviewRepository
	Tokens  services.TokenSigner
	Objects services.ObjectStore
	Events  services.EventPublisher
	Catalog CatalogSource
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
}

// New connects every configured backend and builds the server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	signer, err := auth.NewSigner(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET is required: %w", err)
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	deps := Deps{
		Users:   store.NewUserRepository(dbConn),
		Authors: store.NewReviewAuthorRepository(dbConn),
		Reviews: store.NewReviewRepository(dbConn),
		Tokens:  signer,
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if objects != nil {
		deps.Objects = objects
		logging.Info().Str("backend", cfg.Storage.Backend).Str("bucket", objects.Bucket()).Msg("profile picture uploads enabled")
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if broker != nil {
		deps.Events = mq.NewPublisher(broker, cfg.MQ.Channel)
		logging.Info().Str("backend", cfg.MQ.Backend).Str("channel", cfg.MQ.Channel).Msg("domain events enabled")
	}

	client, err := tmdb.New(cfg.TMDB)
	switch {
	case errors.Is(err, tmdb.ErrDisabled):
		logging.Warn().Msg("no TMDB credentials configured, catalog routes disabled")
	case err != nil:
		_ = dbConn.Close()
		return nil, err
	default:
		deps.Catalog = client
	}

	router := NewRouter(cfg, deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         broker,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(cfg config.Config, deps Deps) *chi.Mux {
	authService := services.NewAuthService(deps.Users, deps.Tokens, deps.Events)
	userService := services.NewUserService(deps.Users, deps.Objects)
	reviewService := services.NewReviewService(deps.Authors, deps.Reviews, deps.Events)
	authMiddleware := handlers.RequireAuth(authService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.Origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/auth", func(r chi.Router) {
		if cfg.Throttle.Limit > 0 {
			r.Use(httprate.LimitByIP(cfg.Throttle.Limit, cfg.Throttle.TTL))
		}
		handlers.AuthRouter(r, authService)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, authMiddleware)
	})
	router.Route("/reviews", func(r chi.Router) {
		handlers.ReviewRouter(r, reviewService)
	})
	if deps.Catalog != nil {
		router.Route("/catalog", func(r chi.Router) {
			handlers.CatalogRouter(r, catalog.NewDispatcher(deps.Catalog), deps.Catalog)
		})
	}

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		_ = s.mq.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
