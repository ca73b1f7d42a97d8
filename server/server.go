package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"notecheck/config"
	"notecheck/usecase"
	"notecheck/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Run opens the store, serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)
	if err := utils.InitValidator(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	repo, closeStore, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeWithTimeout(closeStore, logger, "store")

	cache, closeCache, err := OpenCache(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeWithTimeout(closeCache, logger, "cache")

	notes := usecase.NewNotesService(repo, cache)
	router := NewRouter(Dependencies{
		Config:    cfg,
		Notes:     notes,
		StoreName: cfg.Database.Store,
		Logger:    logger,
		ServeUI:   cfg.UIPort == "",
	})

	servers := []*http.Server{newHTTPServer(":"+cfg.Port, router, ctx)}
	if cfg.UIPort != "" {
		servers = append(servers, newHTTPServer(":"+cfg.UIPort, NewUIRouter(logger, cfg.UIBase()), ctx))
	}

	if cfg.EnableReset {
		logger.Warn().Bool("token_required", cfg.ResetSecret != "").Msg("bulk reset endpoint enabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info().Str("addr", srv.Addr).Msg("server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		logger.Info().Msg("server shutdown complete")
		return errors.Join(errs...)
	})
	return g.Wait()
}

func newHTTPServer(addr string, h http.Handler, base context.Context) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(base) },
	}
}

func closeWithTimeout(fn closeFunc, logger zerolog.Logger, what string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Warn().Err(err).Str("resource", what).Msg("close failed")
	}
}
