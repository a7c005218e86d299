package payloads

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingListExportPayload представляет задачу выгрузки списка покупок
// через RabbitMQ.
type ShoppingListExportPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	ObjectKey   string    `json:"object_key"`
	RequestedAt time.Time `json:"requested_at"`
}
