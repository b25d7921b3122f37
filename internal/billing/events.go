package billing

// Event names emitted by the billing integration
const (
	EventSubscriptionCanceled  = "billing.subscription_canceled"
	EventSubscriptionActivated = "billing.subscription_activated"
)

// SubscriptionCanceled is emitted when a user's paid subscription ends,
// either by explicit cancellation or a terminal payment failure.
type SubscriptionCanceled struct {
	UserID    int
	Email     string
	FirstName string
}

// EventName implements eventbus.Event
func (SubscriptionCanceled) EventName() string { return EventSubscriptionCanceled }

// SubscriptionActivated is emitted when a user starts or resumes a paid
// subscription.
type SubscriptionActivated struct {
	UserID    int
	Email     string
	FirstName string
}

// EventName implements eventbus.Event
func (SubscriptionActivated) EventName() string { return EventSubscriptionActivated }
