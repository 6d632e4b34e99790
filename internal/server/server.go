package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samvaad/apiserver/config"
	"github.com/samvaad/apiserver/internal/db"
	"github.com/samvaad/apiserver/internal/handlers"
	"github.com/samvaad/apiserver/internal/middleware"
	"github.com/samvaad/apiserver/internal/mq"
	"github.com/samvaad/apiserver/internal/notify"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/internal/store/inmem"
	"github.com/samvaad/apiserver/internal/storage"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     mq.Broker
}

// New constructs a Server: store driver, services, optional broker and
// object storage, middleware and routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	var (
		dbConn      *sql.DB
		accountRepo services.AccountRepository
		requestRepo services.RequestRepository
		studentRepo services.StudentRepository
		sessionRepo services.SessionRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dbConn = conn
		accountRepo = store.NewAccountRepository(conn)
		requestRepo = store.NewRequestRepository(conn)
		studentRepo = store.NewStudentRepository(conn)
		sessionRepo = store.NewSessionRepository(conn)
	case config.StoreDriverMemory:
		mem := inmem.NewStore()
		accountRepo = mem.Accounts()
		requestRepo = mem.Requests()
		studentRepo = mem.Students()
		sessionRepo = mem.Sessions()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	accountService := services.NewAccountService(accountRepo)
	requestService := services.NewRequestService(requestRepo)
	studentService := services.NewStudentService(studentRepo)
	sessionService := services.NewSessionService(sessionRepo, studentRepo)
	workflowService := services.NewWorkflowService(requestRepo, studentRepo, sessionRepo)

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, err
	}
	var notifier *notify.Publisher
	if broker != nil {
		notifier = notify.NewPublisher(broker, cfg.Notify.Channel)
	}

	objectStore, err := newObjectStore(ctx, cfg)
	if err != nil {
		if dbConn != nil {
			_ = dbConn.Close()
		}
		return nil, err
	}

	authHandler := handlers.NewAuthHandler(accountService, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	adminHandler := handlers.NewAdminHandler(accountService)
	requestHandler := handlers.NewRequestHandler(requestService, workflowService, notifier)
	studentHandler := handlers.NewStudentHandler(studentService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	public := middleware.RateLimit(limiter)
	staff := func(next http.Handler) http.Handler {
		return authHandler.RequireAuth(authHandler.RequireApproved(next))
	}

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		chimiddleware.Logger,
		chimiddleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, public)
	})
	router.Route("/api/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminHandler, authHandler.RequireAuth, authHandler.RequireAdmin)
	})
	router.Route("/api/requests", func(r chi.Router) {
		handlers.RequestRouter(r, requestHandler, public, staff)
	})
	router.Route("/api/students", func(r chi.Router) {
		handlers.StudentRouter(r, studentHandler, staff)
	})
	router.Route("/api/sessions", func(r chi.Router) {
		handlers.SessionRouter(r, sessionHandler, staff)
	})
	if objectStore != nil {
		attachmentHandler := handlers.NewAttachmentHandler(objectStore)
		router.Route("/api/attachments", func(r chi.Router) {
			handlers.AttachmentRouter(r, attachmentHandler, staff)
		})
	}

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
		broker:     broker,
	}, nil
}

// newBroker builds the configured message broker, or nil when no
// backend is configured.
func newBroker(ctx context.Context, cfg config.Config) (mq.Broker, error) {
	switch cfg.Broker.Backend {
	case "":
		log.Println("server: no broker configured, intake notifications disabled")
		return nil, nil
	case config.BrokerRabbitMQ:
		return mq.NewRabbitMQBroker(cfg.Broker.RabbitMQ)
	case config.BrokerPubSub:
		return mq.NewPubSubBroker(ctx, cfg.Broker.PubSub)
	default:
		return nil, fmt.Errorf("unknown broker backend %q", cfg.Broker.Backend)
	}
}

// newObjectStore builds the configured object store, or nil when no
// backend is configured.
func newObjectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	var (
		objectStore storage.ObjectStore
		err         error
	)
	switch cfg.Storage.Backend {
	case "":
		log.Println("server: no object storage configured, attachments disabled")
		return nil, nil
	case config.StorageMinio:
		objectStore, err = storage.NewMinioStore(cfg.Storage.Minio)
	case config.StorageGCS:
		objectStore, err = storage.NewGCSStore(ctx, cfg.Storage.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return objectStore, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
