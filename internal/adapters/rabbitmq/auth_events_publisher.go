package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

const publishTimeout = 10 * time.Second

// messagePublisher is satisfied by *rabbitmq_producer.Publisher.
type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// AuthEventDTO is the body of an auth_events message.
type AuthEventDTO struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuthEventsPublisherAdapter struct {
	producer   messagePublisher
	routingKey string
}

var _ port.AuthEventPublisherPort = (*AuthEventsPublisherAdapter)(nil)

func NewAuthEventsPublisherAdapter(producer messagePublisher, routingKey string) (*AuthEventsPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &AuthEventsPublisherAdapter{
		producer:   producer,
		routingKey: routingKey,
	}, nil
}

func (a *AuthEventsPublisherAdapter) PublishAuthEvent(ctx context.Context, event domain.AuthEvent) error {
	logger := contextkeys.LoggerFromContext(ctx)
	adapterLogger := logger.WithFields(port.Fields{
		"component":   "AuthEventsPublisherAdapter",
		"routing_key": a.routingKey,
		"event_type":  string(event.Type),
	})

	body, err := json.Marshal(AuthEventDTO{
		Event:      string(event.Type),
		UserID:     event.UserID,
		Email:      event.Email,
		SessionID:  event.SessionID,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to marshal auth event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         string(event.Type),
		Headers:      make(amqp.Table),
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	// the request may already be finishing; publishing gets its own budget
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish auth event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s event: %w", event.Type, err)
	}

	adapterLogger.Debug("Published auth event", nil)
	return nil
}
