package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/controlplane"
	"github.com/fentz26/taskmaster/internal/scheduler"
)

var (
	listenAddr     string
	daemonInterval time.Duration
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run reminder passes on a timer and serve the HTTP API",
	Long: `Starts the TaskMaster daemon, which runs a reminder pass every interval
and serves the HTTP API for the catalog, the inbox and pass history.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides daemon.listen)")
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Time between passes (overrides daemon.interval)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if listenAddr != "" {
		cfg.Daemon.Listen = listenAddr
	}
	if daemonInterval != 0 {
		cfg.Daemon.Interval = daemonInterval
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log.Info("starting TaskMaster daemon",
		zap.String("version", Version),
		zap.String("driver", cfg.Storage.Driver),
		zap.String("timezone", time.Local.String()),
	)

	b, err := openBackend(cfg)
	if err != nil {
		return err
	}

	proc, err := b.processor(cfg, false)
	if err != nil {
		b.Close()
		return err
	}

	sched := scheduler.New(proc, &scheduler.Config{
		Interval:   cfg.Daemon.Interval,
		RunOnStart: cfg.Daemon.RunOnStart,
	}, log)

	server := controlplane.NewServer(b.service(sched), b.state, cfg.Daemon.Listen, cfg.Daemon.RateLimit, log)
	server.SetStats(sched.GetStats)

	sched.Start()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	var runErr error
	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
			runErr = err
		}
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("waiting for pass in flight")
	sched.Stop()

	if err := b.Close(); err != nil {
		log.Warn("database close error", zap.Error(err))
	}

	log.Info("shutdown complete")
	return runErr
}
