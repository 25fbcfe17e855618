package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/YantaoMou/mcp-droid/config"
	"github.com/YantaoMou/mcp-droid/coord"
	"github.com/YantaoMou/mcp-droid/device"
	"github.com/YantaoMou/mcp-droid/droid"
	"github.com/YantaoMou/mcp-droid/history"
	"github.com/YantaoMou/mcp-droid/lifecycle"
	droidotel "github.com/YantaoMou/mcp-droid/otel"
	"github.com/YantaoMou/mcp-droid/schedule"
	"github.com/YantaoMou/mcp-droid/server"
	"github.com/YantaoMou/mcp-droid/tool"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the device tool server",
		RunE:  runServe,
	}

	cmd.Flags().IntP("port", "p", 8080, "Listen port")
	cmd.Flags().String("host", "127.0.0.1", "Listen host")
	cmd.Flags().String("cors-origin", "*", "Allowed CORS origin")
	cmd.Flags().String("adb-path", "adb", "Path to the adb binary")
	cmd.Flags().String("history-path", "", "Path to the SQLite invocation history database (default: in-memory)")
	cmd.Flags().String("config", "", "Path to mcpdroid.yaml")
	cmd.Flags().Int64("max-body", 1<<20, "Max request body size in bytes")
	cmd.Flags().Duration("schedule-poll", 5*time.Second, "Schedule poll interval")
	cmd.Flags().String("otlp-endpoint", "", "OTLP trace endpoint (empty disables span export)")
	cmd.Flags().Bool("otlp-insecure", false, "Disable TLS for the OTLP endpoint")
	cmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 60*time.Second, "HTTP write timeout")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveServeConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}
	logger := slog.Default()

	// Device collaborator. A failed version probe is logged, not fatal:
	// devices may be plugged in later.
	adb := device.NewADBManager(device.ADBManagerConfig{
		Path:           cfg.ADBPath,
		CommandTimeout: cfg.DeviceCmdTimeout,
		Logger:         logger,
	})
	if version, err := adb.Version(cmd.Context()); err != nil {
		logger.Warn("adb probe failed", "path", cfg.ADBPath, "error", err)
	} else {
		logger.Info("adb ready", "version", version)
	}

	coordinator := coord.New(adb, logger)

	var store history.Store
	if cfg.HistoryPath != "" {
		store, err = history.NewSQLiteStore(history.SQLiteStoreConfig{DSN: cfg.HistoryPath})
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
	} else {
		store = history.NewMemoryStore(0)
	}

	telemetry, err := droidotel.NewTelemetry(cmd.Context(), droidotel.TelemetryConfig{
		ServiceName: "mcpdroid",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	observer, err := droidotel.NewRPCObserver(
		telemetry.Meter("mcpdroid/rpc"),
		telemetry.Tracer("mcpdroid/rpc"),
	)
	if err != nil {
		return fmt.Errorf("initializing rpc observability: %w", err)
	}

	scheduler, err := schedule.NewScheduler(schedule.SchedulerConfig{
		Executor:     coordinator,
		PollInterval: cfg.SchedulePoll,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := scheduler.Start(cmd.Context()); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	registry := tool.NewRegistry(logger)
	droid.RegisterAll(registry, &droid.Toolset{
		Coordinator: coordinator,
		Devices:     adb,
		Scheduler:   scheduler,
		Sender:      cfg.DefaultSender,
		Logger:      logger,
	})

	// Normal exit, SIGTERM, and SIGINT all converge on one cleanup pass.
	manager := lifecycle.New(logger)
	manager.RegisterWorker(scheduler)
	manager.RegisterWorker(telemetry)
	manager.RegisterController(coordinator)
	manager.RegisterController(store)
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		manager.Cleanup(cleanupCtx)
	}()

	srv := server.NewServer(server.ServerConfig{
		Registry:   registry,
		History:    store,
		Observer:   observer,
		CORSOrigin: cfg.CORSOrigin,
		MaxBody:    cfg.MaxBody,
		Logger:     logger,
	})

	readTimeout, _ := cmd.Flags().GetDuration("read-timeout")
	writeTimeout, _ := cmd.Flags().GetDuration("write-timeout")
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), "mcpdroid listening on %s\n", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}

// resolveServeConfig layers changed flags over the discovered config file
// over the defaults.
func resolveServeConfig(cmd *cobra.Command) (config.Config, error) {
	explicitPath, _ := cmd.Flags().GetString("config")
	path, _, err := config.Discover(explicitPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("adb-path") {
		cfg.ADBPath, _ = flags.GetString("adb-path")
	}
	if flags.Changed("history-path") {
		cfg.HistoryPath, _ = flags.GetString("history-path")
	}
	if flags.Changed("max-body") {
		cfg.MaxBody, _ = flags.GetInt64("max-body")
	}
	if flags.Changed("schedule-poll") {
		cfg.SchedulePoll, _ = flags.GetDuration("schedule-poll")
	}
	if flags.Changed("otlp-endpoint") {
		cfg.OTLPEndpoint, _ = flags.GetString("otlp-endpoint")
	}
	if flags.Changed("otlp-insecure") {
		cfg.OTLPInsecure, _ = flags.GetBool("otlp-insecure")
	}
	return cfg, nil
}
