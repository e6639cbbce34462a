package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/mindstats/internal/adapters/http/api"
	"github.com/okian/mindstats/internal/adapters/http/swagger"
	"github.com/okian/mindstats/internal/adapters/schedule"
	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/internal/config"
	"github.com/okian/mindstats/pkg/logger"
	"github.com/okian/mindstats/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 2 * time.Minute
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics API and run the optional scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, root.cfg, runOnStart)
		},
	}

	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "generate a snapshot as soon as the scheduler starts")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, runOnStart bool) error {
	log := logger.Get()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	svc, err := newService(ctx, cfg, store)
	if err != nil {
		_ = store.Close()
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	sched := schedule.New(svc,
		schedule.WithInterval(cfg.Schedule.Interval),
		schedule.WithWindow(cfg.Schedule.Window),
		schedule.WithRunOnStart(runOnStart),
	)
	go sched.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := sched.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "scheduler shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics until ctx is canceled.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
