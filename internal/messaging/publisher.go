// Package messaging публикует уведомления о заметных событиях игры в RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pathways-server/internal/domain"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notification - сообщение в очередь уведомлений.
type Notification struct {
	PlayerID   uuid.UUID    `json:"player_id"`
	SaveID     uuid.UUID    `json:"save_id"`
	Event      domain.Event `json:"event"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Notable reports whether an event is worth a notification outside the game.
func Notable(t domain.EventType) bool {
	switch t {
	case domain.EventAchievementUnlocked, domain.EventArcCompleted, domain.EventGiftReceived, domain.EventIdentity:
		return true
	}
	return false
}

// NotificationPublisher sends notifications.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n Notification) error
	Close() error
}

// Channel - часть *amqp.Channel, которой пользуется паблишер.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

const publishAttempts = 3

type rabbitMQPublisher struct {
	channel   Channel
	queueName string
	logger    *zap.Logger
	// пауза между попытками, растет линейно
	backoff time.Duration
}

// NewRabbitMQPublisher opens a channel on conn and declares the durable notification queue.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("notification publisher: не удалось открыть канал: %w", err)
	}
	return NewChannelPublisher(ch, queueName, logger)
}

// NewChannelPublisher declares the queue on an already opened channel.
func NewChannelPublisher(ch Channel, queueName string, logger *zap.Logger) (NotificationPublisher, error) {
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("notification publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("NotificationPublisher"),
		backoff:   100 * time.Millisecond,
	}, nil
}

func (p *rabbitMQPublisher) PublishNotification(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    n.OccurredAt,
			Type:         string(n.Event.Type),
			AppId:        "pathways-server",
		})
		if err == nil {
			p.logger.Debug("Notification published",
				zap.String("queue", p.queueName),
				zap.String("event", string(n.Event.Type)),
				zap.Stringer("playerID", n.PlayerID),
			)
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == publishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ошибка публикации в очередь %s: %w", p.queueName, errors.Join(err, ctx.Err()))
		case <-time.After(time.Duration(attempt) * p.backoff):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после retries: %w", p.queueName, err)
}

func (p *rabbitMQPublisher) Close() error {
	return p.channel.Close()
}

// NoopPublisher - для локального режима без брокера.
type NoopPublisher struct{}

func (NoopPublisher) PublishNotification(context.Context, Notification) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }
