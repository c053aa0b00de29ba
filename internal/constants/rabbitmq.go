package constants

// Exchange and routing key of auth-state change events.
const (
	ExchangeAuthEvents = "auth_events"
	ExchangeTypeTopic  = "topic"

	RoutingKeyAuthStateChanged = "auth.state_changed"
)
