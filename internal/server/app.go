// Package server assembles the identity node: storage and migrations, the
// sign-in and record services, the gRPC endpoint and the metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/dbx"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/dmitrijs2005/selfkeeper/internal/server/archive"
	"github.com/dmitrijs2005/selfkeeper/internal/server/challenges"
	"github.com/dmitrijs2005/selfkeeper/internal/server/config"
	"github.com/dmitrijs2005/selfkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/selfkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/selfkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/selfkeeper/internal/server/schema"
	"github.com/dmitrijs2005/selfkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/selfkeeper/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	challenges *challenges.Store
	metrics    *metrics.Metrics
	grpc       *gs.GRPCServer
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	db, err := dbx.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	schemas, err := schema.NewRegistry()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var arc archive.Archive = archive.Nop{}
	if cfg.ArchiveEnabled() {
		s3arc, err := archive.NewS3(ctx, archive.Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		arc = s3arc
	}

	m := metrics.New()
	store := challenges.NewStore(cfg.ChallengeTTL)
	limiter := ratelimit.New(cfg.AuthRateLimit, cfg.AuthBurst, 10*time.Minute)

	sessions, err := services.NewSessionService(db, rm, store, limiter, m, logger, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	records := services.NewRecordService(db, rm, schemas, arc, m, logger)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		challenges: store,
		metrics:    m,
		grpc:       gs.NewGRPCServer(cfg.GRPCAddr, logger, sessions, records, cfg.SecretKey, m.UnaryInterceptor()),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "network", app.config.Network, "db", app.config.DatabaseDriver)

	app.initSignalHandler(cancelFunc)
	app.challenges.Start()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.challenges.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
