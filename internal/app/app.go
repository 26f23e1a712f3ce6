package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/ideabank-backend/internal/data/db"
	"github.com/yungbote/ideabank-backend/internal/http"
	"github.com/yungbote/ideabank-backend/internal/observability"
	"github.com/yungbote/ideabank-backend/internal/pkg/envutil"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub

	store        *db.PostgresService
	ctx          context.Context
	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	// Plan goroutines outlive requests and stop with this context.
	ctx, cancel := context.WithCancel(context.Background())
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	store, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		cancel()
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		cancel()
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()

	ssehub := realtime.NewSSEHub(log)

	reposet := wireRepos(theDB, log)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		cancel()
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	serviceset, err := wireServices(ctx, log, cfg, reposet, clientset, ssehub)
	if err != nil {
		cancel()
		clientset.Close()
		_ = store.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, ssehub)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, serviceset, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		SSEHub:       ssehub,
		store:        store,
		ctx:          ctx,
		cancel:       cancel,
		otelShutdown: otelShutdown,
	}, nil
}

// Start runs background workers: the Redis forwarder that feeds bus messages into the local hub.
func (a *App) Start() error {
	if a == nil || a.Clients.SSEBus == nil {
		return nil
	}
	hub := a.SSEHub
	if err := a.Clients.SSEBus.StartForwarder(a.ctx, func(m realtime.SSEMessage) {
		hub.Broadcast(m)
	}); err != nil {
		return fmt.Errorf("start redis forwarder: %w", err)
	}
	a.Log.Info("redis SSE forwarder started")
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Close stops accepting requests, cancels running plans and waits for their goroutines.
func (a *App) Close() {
	if a == nil {
		return
	}
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Plan != nil {
		a.Services.Plan.Wait()
	}
	a.Clients.Close()
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(shutdownCtx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
