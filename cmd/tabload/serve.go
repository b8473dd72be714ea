package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/tabload/internal/audit"
	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/metrics"
	"github.com/JonMunkholm/tabload/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	m, err := metrics.New(true)
	if err != nil {
		return err
	}
	limiter := core.NewRunLimiter(cfg.Ingest.MaxConcurrentRuns, cfg.Ingest.RunWaitTime)
	if err := m.TrackActiveRuns(limiter.ActiveCount); err != nil {
		return err
	}

	srv := web.NewServer(cfg, web.Deps{
		Open:    a.open,
		Limiter: limiter,
		Audit:   audit.NewWriter(cfg.Ingest.ReportDir),
		Metrics: m,
	})

	a.log.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"driver", cfg.Database.Driver,
		"max_concurrent_runs", cfg.Ingest.MaxConcurrentRuns,
		"report_dir", cfg.Ingest.ReportDir,
		"api_key_required", cfg.Security.RequireAPIKey,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down", "active_runs", limiter.ActiveCount())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("loads did not finish before shutdown timeout", "error", err)
			return err
		}
		a.log.Info("server stopped")
		return nil
	})
	return g.Wait()
}
