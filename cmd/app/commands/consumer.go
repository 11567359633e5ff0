package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/delivery/internal/app"
	"github.com/allisson/delivery/internal/config"
)

// RunConsumer starts the order request consumer. It binds the configured
// queue and handles messages until receiving SIGINT/SIGTERM.
func RunConsumer(ctx context.Context, version string) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting consumer",
		slog.String("version", version),
		slog.String("queue", cfg.RabbitMQQueue),
		slog.Int("concurrency", cfg.ConsumerConcurrency),
	)

	defer closeContainer(container, logger)

	consumer, err := container.Consumer()
	if err != nil {
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer error: %w", err)
	}

	logger.Info("consumer stopped")
	return nil
}
