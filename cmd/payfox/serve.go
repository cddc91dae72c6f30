package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/billing"
	"github.com/ManuelReschke/PayFox/internal/pkg/cache"
	"github.com/ManuelReschke/PayFox/internal/pkg/config"
	"github.com/ManuelReschke/PayFox/internal/pkg/env"
	"github.com/ManuelReschke/PayFox/internal/pkg/idempotency"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/router"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the PayFox API server.

Settings are read from the environment and an optional .env file; flags
override them.

Examples:
  payfox serve --port 8420
  payfox serve --dispute-delay 100ms --idempotency-store redis`,
		RunE: runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "listen host (APP_HOST)")
	cmd.Flags().Int("port", 0, "listen port (APP_PORT)")
	cmd.Flags().Duration("dispute-delay", 0, "delay before a simulated dispute appears (DISPUTE_DELAY)")
	cmd.Flags().String("idempotency-store", "", "memory or redis (IDEMPOTENCY_STORE)")
	cmd.Flags().Bool("access-log", true, "log every request")
}

// loadSettings reads the environment and applies the flags set on cmd.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	env.SetupEnvFile()
	settings := config.Load()

	flags := cmd.Flags()
	if flags.Changed("host") {
		settings.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		settings.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("dispute-delay") {
		settings.DisputeDelay, _ = flags.GetDuration("dispute-delay")
	}
	if flags.Changed("idempotency-store") {
		settings.IdempotencyStore, _ = flags.GetString("idempotency-store")
	}
	return settings, settings.Validate()
}

// newIdempotencyStore connects the configured backend. An unreachable Redis
// falls back to memory so that the mock still starts.
func newIdempotencyStore(ctx context.Context, settings config.Settings) *idempotency.Store {
	if settings.IdempotencyStore == config.IdempotencyStoreRedis {
		client, err := cache.NewClient(ctx, settings.Cache)
		if err == nil {
			log.Infof("[Idempotency] Using Redis at %s", settings.Cache.Addr())
			return idempotency.NewRedisStore(client, settings.Cache, settings.IdempotencyTTL)
		}
		log.Warnf("[Idempotency] %v, falling back to memory", err)
	}
	return idempotency.NewMemoryStore(settings.IdempotencyTTL)
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	accessLog, _ := cmd.Flags().GetBool("access-log")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := jobqueue.NewQueue(settings.JobWorkers)
	svc := billing.NewService(repository.NewRepositories(), tokens.NewInterpreter(), queue, billing.Options{
		DisputeDelay: settings.DisputeDelay,
	})
	queue.Start()
	defer queue.Stop()

	store := newIdempotencyStore(ctx, settings)
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("[Idempotency] Closing store: %v", err)
		}
	}()

	app := router.NewApplication(router.Options{
		Service:     svc,
		Idempotency: store,
		Settings:    settings,
		AccessLog:   accessLog,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infof("[Server] PayFox %s listening on %s", Version, settings.Addr())
		errCh <- app.Listen(settings.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("[Server] Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
