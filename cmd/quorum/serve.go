package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/quorum/internal/app"
	"github.com/newthinker/quorum/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Evaluate the watchlist on schedule and expose metrics",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&runOnStart, "run-now", false, "evaluate the watchlist once at startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, log, err := setup()
	if log != nil {
		defer log.Sync()
	}
	if err != nil {
		return err
	}
	cfg := rt.cfg

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting quorum",
		zap.Int("watchlist", len(rt.svc.GetWatchlist())),
		zap.Bool("schedule", cfg.Schedule.Enabled),
		zap.String("cron", cfg.Schedule.Cron),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)

	var server *http.Server
	if rt.metrics != nil {
		server = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.Handler(rt.metrics, cfg.Metrics.Path),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	var scheduler *app.Scheduler
	if cfg.Schedule.Enabled {
		scheduler, err = app.NewScheduler(cfg.Schedule.Cron, rt.svc, log)
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
	}

	if runOnStart {
		go rt.svc.RunOnce(ctx)
	}

	<-ctx.Done()
	log.Info("shutting down quorum")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	if err := rt.close(shutdownCtx); err != nil {
		log.Warn("closing runtime", zap.Error(err))
	}
	return nil
}
