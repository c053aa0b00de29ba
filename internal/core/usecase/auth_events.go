package usecase

import (
	"context"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

// authEventEmitter hands auth-state changes to the notifier and the
// publisher. Both are optional; publishing failures are only logged.
type authEventEmitter struct {
	notifier  port.AuthEventNotifierPort
	publisher port.AuthEventPublisherPort
	now       func() time.Time
}

func newAuthEventEmitter(notifier port.AuthEventNotifierPort, publisher port.AuthEventPublisherPort) authEventEmitter {
	return authEventEmitter{notifier: notifier, publisher: publisher, now: time.Now}
}

func (e authEventEmitter) emit(ctx context.Context, logger port.LoggerPort, eventType domain.AuthEventType, sessionID string, user domain.User) {
	event := domain.AuthEvent{
		Type:       eventType,
		SessionID:  sessionID,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: e.now().UTC(),
	}

	if e.notifier != nil && sessionID != "" {
		e.notifier.Notify(ctx, event)
	}
	if e.publisher != nil {
		if err := e.publisher.PublishAuthEvent(ctx, event); err != nil {
			logger.Error("Failed to publish auth event", err, port.Fields{"event_type": string(eventType)})
		}
	}
}
