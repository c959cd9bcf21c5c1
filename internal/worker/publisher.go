package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// OrderPublisher puts order-placed events on the e-mail queue.
type OrderPublisher struct {
	ch channelPublisher
}

func NewOrderPublisher(ch *amqp.Channel) *OrderPublisher {
	return &OrderPublisher{ch: ch}
}

func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, "", OrderEmailQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.OrderID.String(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order message: %w", err)
	}
	return nil
}
