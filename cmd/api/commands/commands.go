package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartplanner/core/internal/adapters/cli"
	"github.com/smartplanner/core/internal/adapters/repository"
	"github.com/smartplanner/core/internal/application/services"
	"github.com/smartplanner/core/internal/infrastructure/config"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/infrastructure/ratelimit"
	"github.com/smartplanner/core/internal/infrastructure/server"
)

// Set at build time with -ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the SmartPlanner API server",
		Long:  "Start the SmartPlanner HTTP API with session scoped task stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// NewShellCommand creates the interactive terminal command
func NewShellCommand() *cobra.Command {
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Plan tasks in the terminal",
		Long:  "Open an interactive task list on stdin/stdout. Tasks live until the shell exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return runShell(cmd, debug)
		},
	}

	shellCmd.Flags().Bool("debug", false, "Abort on internal inconsistencies instead of logging them (overrides APP_DEBUG)")
	return shellCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print SmartPlanner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "SmartPlanner %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.ValidateForServe(); err != nil {
		log.Fatalf("Invalid server configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	var opts []server.Option
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			appLogger.Fatalw("Failed to connect to redis", "error", err)
		}
		defer client.Close()
		opts = append(opts, server.WithRedisClient(client))
	}

	srv, err := server.New(cfg, appLogger, opts...)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting SmartPlanner API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"redis", cfg.Redis.Enabled,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.GetAddr())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		appLogger.Infow("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Info("Server stopped")
	return nil
}

func runShell(cmd *cobra.Command, debugFlag bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// keep log lines out of the interactive output
	loggerCfg := cfg.Logger
	if loggerCfg.Output == "stdout" {
		loggerCfg.Output = "stderr"
	}
	appLogger, err := logger.New(loggerCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	store := services.NewTaskService(repository.NewTaskRepository(), appLogger.WithComponent("tasks"))
	shell := cli.NewShell(store, cmd.InOrStdin(), cmd.OutOrStdout(), appLogger,
		cli.WithDebug(debugFlag || cfg.App.Debug),
	)

	return shell.Run()
}
