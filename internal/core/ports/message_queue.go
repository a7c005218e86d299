package ports

import (
	"context"

	"github.com/GoArmGo/foodgram/internal/messaging/payloads"
)

// ShoppingListExportPublisher определяет методы для публикации задач выгрузки списка покупок
// Этот интерфейс будет использоваться обработчиком HTTP-запросов
type ShoppingListExportPublisher interface {
	PublishShoppingListExport(ctx context.Context, payload payloads.ShoppingListExportPayload) error
}

// ShoppingListExportConsumer определяет методы для потребления задач выгрузки
// будет использоваться воркером для получения задач из очереди
type ShoppingListExportConsumer interface {
	// StartConsumingShoppingListExports начинает прослушивание очереди,
	// handler вызывается для каждого полученного сообщения.
	// Возвращённый канал закрывается после остановки потребителя; если
	// остановка не вызвана отменой ctx, перед закрытием в него пишется причина.
	StartConsumingShoppingListExports(ctx context.Context, handler func(context.Context, payloads.ShoppingListExportPayload) error) (<-chan error, error)
}
