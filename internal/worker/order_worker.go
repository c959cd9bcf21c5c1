package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/rabbit-store-api/internal/mailer"
	"github.com/flicky/rabbit-store-api/internal/model"
)

const (
	OrderEmailQueue = "order_emails"
	dlxExchange     = "order_emails.dlx"
	dlqQueueName    = "order_emails.dlq"
	idempotencyTTL  = 24 * time.Hour
)

var errOrderGone = errors.New("order no longer exists")

type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Deduper remembers which orders already had their confirmation sent.
type Deduper interface {
	Seen(ctx context.Context, orderID uuid.UUID) (bool, error)
	Mark(ctx context.Context, orderID uuid.UUID) error
}

type RedisDeduper struct {
	rdb *redis.Client
}

func NewRedisDeduper(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

func dedupeKey(orderID uuid.UUID) string { return "order_email_sent:" + orderID.String() }

func (d *RedisDeduper) Seen(ctx context.Context, orderID uuid.UUID) (bool, error) {
	n, err := d.rdb.Exists(ctx, dedupeKey(orderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, orderID uuid.UUID) error {
	return d.rdb.Set(ctx, dedupeKey(orderID), "1", idempotencyTTL).Err()
}

// SetupRabbitMQ declares the e-mail queue with its dead-letter exchange and queue.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, OrderEmailQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(OrderEmailQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": OrderEmailQueue,
	}); err != nil {
		return fmt.Errorf("declare order email queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

// OrderEmailWorker sends the confirmation e-mail for each placed order.
type OrderEmailWorker struct {
	channel   *amqp.Channel
	orders    OrderReader
	users     UserReader
	dedupe    Deduper
	sender    mailer.Sender
	storeName string
	log       *slog.Logger
	done      chan struct{}
}

func NewOrderEmailWorker(
	ch *amqp.Channel,
	orders OrderReader,
	users UserReader,
	dedupe Deduper,
	sender mailer.Sender,
	storeName string,
	log *slog.Logger,
) *OrderEmailWorker {
	return &OrderEmailWorker{
		channel:   ch,
		orders:    orders,
		users:     users,
		dedupe:    dedupe,
		sender:    sender,
		storeName: storeName,
		log:       log,
		done:      make(chan struct{}),
	}
}

func (w *OrderEmailWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(OrderEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order email worker started")
	return nil
}

func (w *OrderEmailWorker) Stop() { close(w.done) }

func (w *OrderEmailWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	seen, err := w.dedupe.Seen(ctx, orderMsg.OrderID)
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if seen {
		log.Info("confirmation already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.sendConfirmation(ctx, orderMsg); err != nil {
		if errors.Is(err, errOrderGone) {
			log.Warn("order deleted before confirmation was sent")
			_ = msg.Ack(false)
			return
		}
		log.Error("send confirmation failed", "error", err)
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.dedupe.Mark(ctx, orderMsg.OrderID); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order confirmation sent")
}

func (w *OrderEmailWorker) sendConfirmation(ctx context.Context, m model.OrderMessage) error {
	order, err := w.orders.GetByID(ctx, m.OrderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return errOrderGone
	}

	user, err := w.users.GetByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return errOrderGone
	}

	email, err := mailer.OrderConfirmation(w.storeName, order, user)
	if err != nil {
		return err
	}
	if err := w.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
