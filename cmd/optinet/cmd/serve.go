package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/optinet/optinet/internal/service"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reduction service",
	Long: `Start the long-running reduction service: it polls the job repository
and an HTTP submission endpoint for pending reduction jobs, runs them to
normal form, and persists results through the configured repository and
object storage.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start the service with the default configuration search path
  ` + binName + ` serve

  # Start the service with an explicit config file
  ` + binName + ` serve -c ./config.yaml`
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	cfg := GetConfig()

	if err := cfg.EnsureDataDir(); err != nil {
		log.Error("Failed to create data directory: %v", err)
		return err
	}

	svc, err := service.New(cfg, log)
	if err != nil {
		log.Error("Failed to create service: %v", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Initialize(ctx); err != nil {
		log.Error("Failed to initialize service: %v", err)
		return err
	}

	if err := svc.Start(ctx); err != nil {
		log.Error("Failed to start service: %v", err)
		return err
	}

	log.Info("Service started, waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down...")
	}

	if err := svc.Stop(); err != nil {
		log.Error("Error during shutdown: %v", err)
		return err
	}

	log.Info("Service stopped")
	return nil
}
