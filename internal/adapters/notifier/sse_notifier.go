package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

const (
	eventBufferSize  = 100
	clientBufferSize = 16
)

// ClientChannel receives ready-to-write SSE frames for one open tab.
type ClientChannel chan []byte

type eventWithContext struct {
	ctx   context.Context
	event domain.AuthEvent
}

// authEventPayload is the data line of an auth event frame.
type authEventPayload struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SSENotifier fans auth-state changes out to every tab of the browser
// session that caused them. Keys are browser session ids.
type SSENotifier struct {
	clients map[string][]ClientChannel
	mu      sync.RWMutex

	eventChan chan eventWithContext
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	logger port.LoggerPort
}

var _ port.AuthEventNotifierPort = (*SSENotifier)(nil)

// NewSSENotifier starts the dispatcher; call Stop to end it.
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[string][]ClientChannel),
		eventChan: make(chan eventWithContext, eventBufferSize),
		done:      make(chan struct{}),
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}

	n.wg.Add(1)
	go n.dispatcher()

	return n
}

func (n *SSENotifier) dispatcher() {
	defer n.wg.Done()
	n.logger.Debug("Notifier dispatcher started", nil)

	for {
		select {
		case <-n.done:
			n.logger.Debug("Notifier dispatcher stopped", nil)
			return
		case pkg := <-n.eventChan:
			n.dispatch(pkg)
		}
	}
}

func (n *SSENotifier) dispatch(pkg eventWithContext) {
	event := pkg.event
	eventLogger := contextkeys.LoggerFromContext(pkg.ctx).WithFields(port.Fields{
		"component":  "SSENotifier.dispatcher",
		"event_type": string(event.Type),
		"session_id": event.SessionID,
	})

	frame, err := FormatEvent(event)
	if err != nil {
		eventLogger.Error("Failed to marshal event", err, nil)
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()

	channels, found := n.clients[event.SessionID]
	if !found {
		eventLogger.Debug("No open tabs for session, event dropped", nil)
		return
	}

	eventLogger.Debug("Dispatching event to tabs", port.Fields{"channels_count": len(channels)})
	for _, ch := range channels {
		select {
		case ch <- frame:
		default:
			eventLogger.Warn("Client channel is full, skipping", nil)
		}
	}
}

// FormatEvent renders event as an SSE frame named after the event type.
func FormatEvent(event domain.AuthEvent) ([]byte, error) {
	data, err := json.Marshal(authEventPayload{
		Event:      string(event.Type),
		UserID:     event.UserID,
		Email:      event.Email,
		OccurredAt: event.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)), nil
}

// Notify queues the event without blocking the caller. A full queue drops it.
func (n *SSENotifier) Notify(ctx context.Context, event domain.AuthEvent) {
	select {
	case <-n.done:
		return
	default:
	}

	select {
	case n.eventChan <- eventWithContext{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		n.logger.Warn("Event queue is full, event dropped", port.Fields{"event_type": string(event.Type)})
	}
}

// AddClient registers one SSE connection of a browser session.
func (n *SSENotifier) AddClient(sessionID string) ClientChannel {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(ClientChannel, clientBufferSize)
	n.clients[sessionID] = append(n.clients[sessionID], ch)

	n.logger.Info("Client connected", port.Fields{
		"session_id":        sessionID,
		"total_connections": len(n.clients[sessionID]),
	})
	return ch
}

// RemoveClient unregisters ch when its connection closes.
func (n *SSENotifier) RemoveClient(sessionID string, ch ClientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels, found := n.clients[sessionID]
	if !found {
		return
	}

	remaining := make([]ClientChannel, 0, len(channels))
	for _, c := range channels {
		if c != ch {
			remaining = append(remaining, c)
		}
	}

	if len(remaining) == 0 {
		delete(n.clients, sessionID)
		n.logger.Debug("Last client of session disconnected", port.Fields{"session_id": sessionID})
		return
	}
	n.clients[sessionID] = remaining
	n.logger.Info("Client disconnected", port.Fields{
		"session_id":            sessionID,
		"remaining_connections": len(remaining),
	})
}

// ClientCount returns the number of open connections of a session.
func (n *SSENotifier) ClientCount(sessionID string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients[sessionID])
}

// Stop ends the dispatcher. Queued events are discarded.
func (n *SSENotifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)
	})
	n.wg.Wait()
}
