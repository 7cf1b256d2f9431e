package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	httpapp "github.com/cesargomez89/openkaraoke/internal/http"
	"github.com/cesargomez89/openkaraoke/internal/metrics"
	"github.com/cesargomez89/openkaraoke/internal/realtime"
	"github.com/cesargomez89/openkaraoke/internal/separation"
	"github.com/cesargomez89/openkaraoke/internal/worker"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and the job worker (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	log := a.log

	if _, err := a.jobs.RecoverStuck(); err != nil {
		return err
	}
	if n, err := a.db.PruneCache(); err != nil {
		log.Warn("Failed to prune cache", "error", err)
	} else if n > 0 {
		log.Debug("Pruned expired cache entries", "count", n)
	}

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	hub := realtime.NewHub(a.performance, log)
	go hub.Run()
	defer hub.Stop()
	a.jobs.SetEvents(hub)

	sep := separation.New(separation.Config{
		Bin:    cfg.DemucsBin,
		Model:  cfg.DemucsModel,
		Device: cfg.DemucsDevice,
	}, nil, log.WithComponent("separation").Logger)

	dispatcher := worker.NewDispatcher()
	dispatcher.Register(domain.JobTypeDownload, &worker.DownloadHandler{
		YouTube: a.ytClient,
		Repo:    a.db,
		Library: a.library,
		Jobs:    a.jobs,
	})
	dispatcher.Register(domain.JobTypeSeparation, &worker.SeparationHandler{
		Separator: sep,
		Repo:      a.db,
		Library:   a.library,
		Enhancer:  a.enhancer,
	})

	w := worker.NewWorker(a.jobs, dispatcher, cfg.MaxConcurrentJobs, log)
	w.Start()

	h := httpapp.NewHandler(a.db, a.songs, a.jobs, a.enhancer, a.youtube, hub, log)
	h.Upgrader = realtime.NewUpgrader(cfg.CORSOrigin)
	h.CORSOrigin = cfg.CORSOrigin
	h.MaxUploadBytes = int64(cfg.MaxUploadMB) << 20
	h.MetricsEnabled = cfg.MetricsEnabled

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr, "library", cfg.LibraryDir, "workers", cfg.MaxConcurrentJobs)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		w.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	w.Stop()

	log.Info("Server exiting")
	return nil
}
