// Package notify emits share lifecycle events to RabbitMQ so that owners can
// be told what happened to their posts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"autoshare/internal/domain"
)

type Event string

const (
	EventDrafted   Event = "share.drafted"
	EventQueued    Event = "share.queued"
	EventFinalized Event = "share.finalized"
)

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger

	mu sync.Mutex
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declare(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "notify"),
	}, nil
}

func declare(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// ShareMessage is the JSON body of every event.
type ShareMessage struct {
	Event     Event                       `json:"event"`
	ShareID   string                      `json:"share_id"`
	OwnerID   string                      `json:"owner_id"`
	Status    domain.Status               `json:"status"`
	Title     string                      `json:"title"`
	Link      string                      `json:"link"`
	Error     string                      `json:"error,omitempty"`
	Outcomes  []domain.DestinationOutcome `json:"outcomes,omitempty"`
	Timestamp time.Time                   `json:"timestamp"`
}

func NewShareMessage(event Event, rec *domain.ShareRecord) ShareMessage {
	return ShareMessage{
		Event:     event,
		ShareID:   rec.ID,
		OwnerID:   rec.OwnerID,
		Status:    rec.Status,
		Title:     rec.Snapshot.Title,
		Link:      rec.Snapshot.Link,
		Error:     rec.Error,
		Outcomes:  rec.Outcomes,
		Timestamp: time.Now().UTC(),
	}
}

func (r *RabbitMQ) Notify(ctx context.Context, event Event, rec *domain.ShareRecord) error {
	body, err := json.Marshal(NewShareMessage(event, rec))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         string(event),
			MessageId:    rec.ID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("notified",
		"share_id", rec.ID,
		"event", event,
		"status", rec.Status,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event, *domain.ShareRecord) error { return nil }

func (Nop) Close() error { return nil }
