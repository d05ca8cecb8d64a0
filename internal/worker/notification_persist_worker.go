package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"healthhub/internal/model"
)

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// NotificationPersistWorker drains the notification queue into the database.
type NotificationPersistWorker struct {
	conn      *amqp.Connection
	store     NotificationStore
	queueName string
	log       logrus.FieldLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewNotificationPersistWorker(conn *amqp.Connection, store NotificationStore, queueName string, log logrus.FieldLogger) *NotificationPersistWorker {
	return &NotificationPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log.WithField("worker", "notification_persist"),
	}
}

func (w *NotificationPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.run(workerCtx, deliveries)
	}()

	return nil
}

func (w *NotificationPersistWorker) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := w.handle(ctx, d.Body); err != nil {
				w.log.WithError(err).Warn("drop notification delivery")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *NotificationPersistWorker) handle(ctx context.Context, body []byte) error {
	var n model.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("decode notification failed: %w", err)
	}
	if n.ID == "" || n.UserID == 0 {
		return fmt.Errorf("notification without id or user")
	}
	return w.store.Create(ctx, &n)
}

func (w *NotificationPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
