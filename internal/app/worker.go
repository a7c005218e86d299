package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/foodgram/internal/core/ports"
	"github.com/GoArmGo/foodgram/internal/messaging/payloads"
)

// runWorker запускает потребителя RabbitMQ и ждёт отмены ctx.
// Если потребитель остановился сам, возвращает ошибку, и процесс завершается.
func runWorker(
	ctx context.Context,
	consumer ports.ShoppingListExportConsumer,
	handle ExportHandler,
	logger *slog.Logger,
) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	messageHandler := func(ctx context.Context, payload payloads.ShoppingListExportPayload) error {
		logger.Info("processing shopping list export", "user_id", payload.UserID, "object_key", payload.ObjectKey)
		return handle(ctx, payload)
	}

	consumerErrs, err := consumer.StartConsumingShoppingListExports(workerCtx, messageHandler)
	if err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for export jobs")

	select {
	case <-workerCtx.Done():
		logger.Info("worker stopped")
		return nil
	case err, ok := <-consumerErrs:
		if !ok || err == nil {
			if workerCtx.Err() != nil {
				logger.Info("worker stopped")
				return nil
			}
			err = errors.New("потребитель остановился без ошибки")
		}
		logger.Error("consumer stopped unexpectedly", "error", err)
		return fmt.Errorf("потребитель RabbitMQ остановлен: %w", err)
	}
}
