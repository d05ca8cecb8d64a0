package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"healthhub/internal/model"
)

// NotificationPublisher queues notifications for the persist worker.
type NotificationPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewNotificationPublisher(conn *amqp.Connection, queueName string) *NotificationPublisher {
	return &NotificationPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *NotificationPublisher) Notify(ctx context.Context, n model.Notification) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    n.ID,
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish notification failed: %w", err)
	}
	return nil
}
