package notifier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulisescolosimo/scraping-alquileres/internal/contextkeys"
	"github.com/ulisescolosimo/scraping-alquileres/internal/core/domain"
)

func newNotifier(t *testing.T) *SSENotifier {
	t.Helper()
	n := NewSSENotifier(contextkeys.LoggerFromContext(context.Background()))
	t.Cleanup(n.Stop)
	return n
}

func receive(t *testing.T, ch ClientChannel) string {
	t.Helper()
	select {
	case frame := <-ch:
		return string(frame)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestFormatEvent(t *testing.T) {
	frame, err := FormatEvent(domain.AuthEvent{
		Type:       domain.AuthEventSignedIn,
		UserID:     "u-1",
		Email:      "ana@example.com",
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t,
		"event: SIGNED_IN\ndata: {\"event\":\"SIGNED_IN\",\"user_id\":\"u-1\",\"email\":\"ana@example.com\",\"occurred_at\":\"2024-01-02T03:04:05Z\"}\n\n",
		string(frame))
}

func TestNotify_ReachesEveryTabOfTheSession(t *testing.T) {
	n := newNotifier(t)
	tab1 := n.AddClient("sid-1")
	tab2 := n.AddClient("sid-1")
	other := n.AddClient("sid-2")
	assert.Equal(t, 2, n.ClientCount("sid-1"))

	n.Notify(context.Background(), domain.AuthEvent{Type: domain.AuthEventSignedOut, SessionID: "sid-1"})

	assert.True(t, strings.HasPrefix(receive(t, tab1), "event: SIGNED_OUT\n"))
	assert.True(t, strings.HasPrefix(receive(t, tab2), "event: SIGNED_OUT\n"))

	select {
	case <-other:
		t.Fatal("event leaked to another session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRemoveClient(t *testing.T) {
	n := newNotifier(t)
	tab1 := n.AddClient("sid-1")
	tab2 := n.AddClient("sid-1")

	n.RemoveClient("sid-1", tab1)
	assert.Equal(t, 1, n.ClientCount("sid-1"))

	n.RemoveClient("sid-1", tab2)
	assert.Equal(t, 0, n.ClientCount("sid-1"))

	// unknown sessions are ignored
	n.RemoveClient("nope", tab1)
}

func TestNotify_AfterStopIsDropped(t *testing.T) {
	n := NewSSENotifier(contextkeys.LoggerFromContext(context.Background()))
	n.Stop()
	n.Stop()

	n.Notify(context.Background(), domain.AuthEvent{Type: domain.AuthEventSignedIn, SessionID: "sid"})
}
