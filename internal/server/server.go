package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stockkeep/apiserver/config"
	"github.com/stockkeep/apiserver/internal/db"
	"github.com/stockkeep/apiserver/internal/handlers"
	"github.com/stockkeep/apiserver/internal/logging"
	"github.com/stockkeep/apiserver/internal/mq"
	"github.com/stockkeep/apiserver/internal/services"
	"github.com/stockkeep/apiserver/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	// requestTimeout cancels a handler's context. The server's write
	// timeout is set past it so the handler can still answer.
	requestTimeout = 15 * time.Second
	writeTimeout   = requestTimeout + 5*time.Second
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	events     *services.BrokerEventPublisher
	logger     *slog.Logger
}

// Deps are the collaborators the router needs.
type Deps struct {
	AuthService    *services.AuthService
	ProductService *services.ProductService
	Logger         *slog.Logger
	StaticDir      string
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := logging.New(cfg.Log, os.Stderr)

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "host", cfg.Database.Host, "name", cfg.Database.DBName)

	userRepo := store.NewUserRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)

	authService, err := services.NewAuthService(userRepo, cfg.Auth, logger)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	var events services.EventPublisher = services.NopEventPublisher{}
	var brokerEvents *services.BrokerEventPublisher
	if queue != nil {
		brokerEvents = services.NewBrokerEventPublisher(queue, cfg.MQ.ProductChannel, cfg.MQ.PublishTimeout, logger)
		events = brokerEvents
		logger.Info("publishing product events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.ProductChannel)
	}

	productService := services.NewProductService(productRepo, events, logger)

	router := NewRouter(Deps{
		AuthService:    authService,
		ProductService: productService,
		Logger:         logger,
		StaticDir:      cfg.StaticDir,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	return &Server{
		httpServer: newHTTPServer(fmt.Sprintf(":%d", port), router),
		router:     router,
		db:         dbConn,
		queue:      queue,
		events:     brokerEvents,
		logger:     logger,
	}, nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the HTTP routes. Every product and statistics route is
// behind the bearer-token guard.
func NewRouter(deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authMiddleware := handlers.RequireAuth(deps.AuthService, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		handlers.AuthRouter(r, deps.AuthService, authMiddleware, logger)
		handlers.InventoryRouter(r, deps.ProductService, authMiddleware, logger)
	})
	if deps.StaticDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(deps.StaticDir)))
	}
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		_ = s.closeResources()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	_ = s.closeResources()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes the listener and releases the database and broker.
func (s *Server) Shutdown() error {
	_ = s.closeResources()
	return s.httpServer.Close()
}

func (s *Server) closeResources() error {
	var errs []error
	// Drain queued events before the broker connection goes away.
	if s.events != nil {
		s.events.Close()
	}
	if s.queue != nil {
		errs = append(errs, s.queue.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
