package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ulisescolosimo/scraping-alquileres/internal/adapters/notifier"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/port"
)

const keepAliveInterval = 15 * time.Second

// AuthEventSubscriber is the subscription side of the SSE notifier.
type AuthEventSubscriber interface {
	AddClient(sessionID string) notifier.ClientChannel
	RemoveClient(sessionID string, ch notifier.ClientChannel)
}

type EventsHandler struct {
	subscriber AuthEventSubscriber
	keepAlive  time.Duration

	closing   chan struct{}
	closeOnce sync.Once
}

func NewEventsHandler(subscriber AuthEventSubscriber) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		keepAlive:  keepAliveInterval,
		closing:    make(chan struct{}),
	}
}

// Close ends every open stream. It is registered as a server shutdown hook.
func (h *EventsHandler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// Subscribe handles GET /auth/events.
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeAuthEvents"})

	b := browserSessionFromContext(r.Context())
	if b == nil || b.ID == "" {
		logger.Error("Browser session missing for SSE subscription", nil, nil)
		WriteJSONError(w, http.StatusBadRequest, "Session not found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	handlerLogger := logger.WithFields(port.Fields{"session_id": b.ID})
	handlerLogger.Info("New client subscribing to auth events", nil)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := h.subscriber.AddClient(b.ID)
	defer h.subscriber.RemoveClient(b.ID, clientChan)

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data := <-clientChan:
			if _, err := w.Write(data); err != nil {
				handlerLogger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()
			handlerLogger.Debug("Sent auth event to client", nil)

		case <-ticker.C:
			// comment lines keep proxies from closing the idle stream
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-h.closing:
			handlerLogger.Debug("Server shutting down, closing SSE stream", nil)
			return

		case <-r.Context().Done():
			handlerLogger.Info("SSE client disconnected", nil)
			return
		}
	}
}
