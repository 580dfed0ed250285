package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"catalog_sync/internal/domain"
)

const EventSyncCompleted = "catalog.sync.completed"

// RabbitMQ announces finished sync runs to the rest of the platform.
type RabbitMQ struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
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

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
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
		logger:     logger.With("component", "publisher"),
	}, nil
}

// SyncEvent is the message body of EventSyncCompleted.
type SyncEvent struct {
	Event          string                    `json:"event"`
	IntegrationID  int64                     `json:"integration_id"`
	TenantID       string                    `json:"tenant_id"`
	Outcome        domain.SyncOutcome        `json:"outcome"`
	Strategy       domain.PaginationStrategy `json:"strategy,omitempty"`
	RequestedTotal int                       `json:"requested_total"`
	Enumerated     int                       `json:"enumerated"`
	Fetched        int                       `json:"fetched"`
	Failed         int                       `json:"failed"`
	Upserted       int                       `json:"upserted"`
	FailedIDs      []string                  `json:"failed_ids,omitempty"`
	Error          string                    `json:"error,omitempty"`
	DurationMS     int64                     `json:"duration_ms"`
	Timestamp      time.Time                 `json:"timestamp"`
}

func NewSyncEvent(result *domain.SyncResult, at time.Time) SyncEvent {
	event := SyncEvent{
		Event:          EventSyncCompleted,
		IntegrationID:  result.IntegrationID,
		TenantID:       result.TenantID,
		Outcome:        result.Outcome,
		Strategy:       result.Strategy,
		RequestedTotal: result.RequestedTotal,
		Enumerated:     result.Enumerated,
		Fetched:        result.Fetched,
		Failed:         result.Failed,
		Upserted:       result.Upserted,
		Error:          result.Error,
		DurationMS:     result.Duration.Milliseconds(),
		Timestamp:      at.UTC(),
	}
	for _, f := range result.Failures {
		event.FailedIDs = append(event.FailedIDs, f.ExternalItemID)
	}
	return event
}

func (r *RabbitMQ) PublishSyncCompleted(ctx context.Context, result *domain.SyncResult) error {
	now := time.Now()

	body, err := json.Marshal(NewSyncEvent(result, now))
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
			MessageId:    uuid.NewString(),
			Type:         EventSyncCompleted,
			Body:         body,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published sync event",
		"integration_id", result.IntegrationID,
		"outcome", result.Outcome,
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
