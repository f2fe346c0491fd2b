// Package server wires the configured stores, the auth service and its
// HTTP and gRPC front ends, and runs them until the context is cancelled.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hasher"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	stores  *repomanager.Stores
	service *services.AuthService
	http    runner
	grpc    runner
}

// seam for tests
var openStores = repomanager.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(logOut, c.LogLevel)
	m := metrics.New()

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "signing tokens with the development secret key; set GOPHAUTH_SECRET_KEY")
	}

	pool := hasher.NewPool(c.HashWorkers, c.HashParams(), m)

	stores, err := openStores(ctx, c, pool, logger.With("module", "repomanager"))
	if err != nil {
		return nil, fmt.Errorf("stores init error: %w", err)
	}

	svc := services.NewAuthService(services.AuthServiceDeps{
		Users:       stores.Users,
		Challenges:  stores.Challenges,
		Revocations: stores.Revocations,
		Issuer:      auth.NewIssuer([]byte(c.SecretKey), c.TokenTTL),
		Hasher:      pool,
		Notifier:    notify.NewLogNotifier(logger),
		Logger:      logger,
		Metrics:     m,
	})

	httpSrv := hs.NewHTTPServer(hs.Options{
		Address:         c.HTTPAddr,
		AllowedOrigins:  c.AllowedOrigins,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}, logger, svc, m)

	return &App{
		config:  c,
		logger:  logger,
		stores:  stores,
		service: svc,
		http:    httpSrv,
		grpc:    gs.NewGRPCServer(c.GRPCAddr, logger, svc),
	}, nil
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// sweep prunes expired challenges and revocations on backends without
// native expiry.
func (app *App) sweep(ctx context.Context) {
	if len(app.stores.Sweepers) == 0 || app.config.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.sweepOnce(ctx)
		}
	}
}

func (app *App) sweepOnce(ctx context.Context) {
	for name, s := range app.stores.Sweepers {
		n, err := s.Sweep(ctx)
		if err != nil {
			app.logger.Warn(ctx, "sweep failed", "store", name, "error", err)
			continue
		}
		if n > 0 {
			app.logger.Debug(ctx, "swept expired entries", "store", name, "count", n)
		}
	}
}

// Run blocks until ctx is cancelled or one of the servers fails, then
// closes the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.http)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpc)
	}()
	go func() {
		defer wg.Done()
		app.sweep(ctx)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.stores.Close()
}
