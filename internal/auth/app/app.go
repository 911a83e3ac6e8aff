// Package app assembles the service: configuration, storage, services, HTTP
// transport and lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdhttp "net/http"
	"time"

	authhttp "github.com/halolight/officehub/internal/auth/http"
	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/internal/auth/store/drivers/sqlite"
	"github.com/halolight/officehub/internal/obs"
	"github.com/halolight/officehub/pkg/cryptox"
	"github.com/halolight/officehub/pkg/httpx"
	"github.com/halolight/officehub/pkg/jwtx"
	"github.com/halolight/officehub/pkg/slogx"
)

// Application owns every long-lived component of the service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store        *sqlite.Store
	housekeeping *service.HousekeepingService
	server       *stdhttp.Server
}

// New builds and wires the application. The database is migrated and seeded
// before this returns.
func New(cfg Config, logger *slog.Logger) (*Application, error) {
	st, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load pepper: %w", err)
	}
	hasher := cryptox.NewHasher(pepper)

	codec, err := jwtx.NewCodec(jwtx.Config{
		Secret:        []byte(cfg.JWTSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		Issuer:        cfg.Issuer,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		ResetTTL:      cfg.ResetTokenTTL,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("build token codec: %w", err)
	}

	metrics := obs.New()
	tokens := service.NewTokenService(st, codec, service.WithTokenMetrics(metrics))
	auth := service.NewAuthService(st, tokens, codec, hasher)
	bootstrap := service.NewBootstrapService(st, hasher)

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = bootstrap.EnsureDefaults(seedCtx, service.AdminSeed{
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("bootstrap defaults: %w", err)
	}

	router := authhttp.NewRouter(authhttp.RouterConfig{
		Auth:               auth,
		Users:              service.NewUserService(st),
		Roles:              service.NewRoleService(st),
		Metrics:            metrics,
		Pinger:             st,
		DevMode:            cfg.DevMode(),
		LoginRatePerSecond: cfg.LoginRatePerSecond,
		LoginBurst:         cfg.LoginBurst,
	})
	handler := httpx.Chain(router, slogx.HTTPMiddleware(logger))

	return &Application{
		cfg:          cfg,
		logger:       logger,
		store:        st,
		housekeeping: service.NewHousekeepingService(st, logger, cfg.HousekeepingInterval),
		server: &stdhttp.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	a.housekeeping.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", slog.String("addr", a.server.Addr), slog.String("env", a.cfg.Env))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return a.shutdown()
	}
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGracePeriod)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.housekeeping.Stop()
	if closeErr := a.store.Close(); err == nil {
		err = closeErr
	}
	return err
}
