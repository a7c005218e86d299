package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"github.com/GoArmGo/foodgram/internal/config"
	"github.com/GoArmGo/foodgram/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client представляет собой клиент RabbitMQ
// Через него публикуются и потребляются задачи выгрузки списков покупок.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	cfg     *config.Config
	logger  *slog.Logger
}

// ErrNotConfigured возвращается, когда RABBITMQ_URL не задан
var ErrNotConfigured = errors.New("RABBITMQ_URL is not set")

// ErrDeliveryClosed сообщает, что брокер закрыл канал доставки
var ErrDeliveryClosed = errors.New("RabbitMQ delivery channel closed")

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.RabbitMQ.RabbitMQURL == "" {
		return nil, ErrNotConfigured
	}

	client := &Client{
		cfg:    cfg,
		logger: logger,
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// Объявление очереди идемпотентно
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q

	// воркер берет по одной задаче
	if err := ch.Qos(1, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	logger.Info("connected to RabbitMQ", "queue", q.Name, "messages", q.Messages)
	return client, nil
}

// Close закрывает соединение и канал RabbitMQ
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("error closing RabbitMQ client", "error", err)
		return err
	}
	c.logger.Info("RabbitMQ connection closed")
	return nil
}

// PublishShoppingListExport ставит задачу выгрузки списка покупок в очередь.
func (c *Client) PublishShoppingListExport(ctx context.Context, payload payloads.ShoppingListExportPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.RequestedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	c.logger.Info("shopping list export published",
		"queue", c.queue.Name, "user_id", payload.UserID, "object_key", payload.ObjectKey)
	return nil
}

// StartConsumingShoppingListExports начинает потребление задач выгрузки.
// Обработка идет в отдельной горутине до отмены ctx или закрытия канала.
func (c *Client) StartConsumingShoppingListExports(ctx context.Context, handler func(context.Context, payloads.ShoppingListExportPayload) error) (<-chan error, error) {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	errs := make(chan error, 1)
	go consume(ctx, c.logger, msgs, handler, errs)
	return errs, nil
}

// consume обрабатывает доставки до отмены ctx или закрытия msgs и закрывает errs
func consume(
	ctx context.Context,
	logger *slog.Logger,
	msgs <-chan amqp.Delivery,
	handler func(context.Context, payloads.ShoppingListExportPayload) error,
	errs chan<- error,
) {
	defer close(errs)
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				logger.Error("RabbitMQ delivery channel closed, stopping consumer")
				errs <- ErrDeliveryClosed
				return
			}
			settle(logger, msg, processDelivery(ctx, logger, msg.Body, handler))
		case <-ctx.Done():
			logger.Info("context cancelled, stopping RabbitMQ consumer")
			return
		}
	}
}

// outcome — как подтвердить сообщение после обработки
type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// processDelivery разбирает тело сообщения и вызывает обработчик.
// Битое сообщение отбрасывается, иначе оно зациклится в очереди.
func processDelivery(ctx context.Context, logger *slog.Logger, body []byte, handler func(context.Context, payloads.ShoppingListExportPayload) error) outcome {
	var payload payloads.ShoppingListExportPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("error unmarshalling message", "error", err, "body", string(body))
		return outcomeDrop
	}

	if err := handler(ctx, payload); err != nil {
		logger.Error("error processing message", "error", err, "user_id", payload.UserID)
		return outcomeRequeue
	}

	logger.Info("message processed", "user_id", payload.UserID, "object_key", payload.ObjectKey)
	return outcomeAck
}

func settle(logger *slog.Logger, msg amqp.Delivery, result outcome) {
	var err error
	switch result {
	case outcomeAck:
		err = msg.Ack(false)
	case outcomeRequeue:
		err = msg.Nack(false, true)
	case outcomeDrop:
		err = msg.Nack(false, false)
	}
	if err != nil {
		logger.Error("error settling message", "outcome", int(result), "error", err)
	}
}
