package billing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"linkhub/internal/customdomain"
	"linkhub/internal/eventbus"
	"linkhub/internal/graceperiod"
	"linkhub/internal/notification"
)

// Handlers reacts to subscription lifecycle events: cancellation opens a
// grace period, activation closes it and restores the user's domains.
type Handlers struct {
	gracePeriods *graceperiod.Service
	domains      *customdomain.Service
	notifier     notification.Notifier
	logger       *logrus.Entry
}

// NewHandlers creates the billing event handlers
func NewHandlers(gracePeriods *graceperiod.Service, domains *customdomain.Service, notifier notification.Notifier, logger *logrus.Entry) *Handlers {
	return &Handlers{
		gracePeriods: gracePeriods,
		domains:      domains,
		notifier:     notifier,
		logger:       logger.WithField("component", "billing-handlers"),
	}
}

// Register subscribes the handlers on the bus
func (h *Handlers) Register(bus *eventbus.Bus) {
	bus.Subscribe(EventSubscriptionCanceled, h.onSubscriptionCanceled)
	bus.Subscribe(EventSubscriptionActivated, h.onSubscriptionActivated)
}

// onSubscriptionCanceled opens (or restarts) the user's grace period. The
// user's domains keep working until the deadline passes.
func (h *Handlers) onSubscriptionCanceled(ctx context.Context, evt eventbus.Event) {
	e, ok := evt.(SubscriptionCanceled)
	if !ok {
		h.logger.Errorf("Unexpected payload type %T for %s", evt, evt.EventName())
		return
	}

	endsAt, err := h.gracePeriods.CreateOrReplace(e.UserID, e.Email, e.FirstName)
	if err != nil {
		h.logger.Errorf("User %d: failed to open grace period: %v", e.UserID, err)
		return
	}

	h.logger.Infof("User %d: grace period opened, ends %s", e.UserID, endsAt.Format(time.RFC3339))

	vars := map[string]string{
		"first_name": e.FirstName,
		"ends_at":    endsAt.Format("January 2, 2006"),
	}
	if err := h.notifier.Send(ctx, notification.TemplateSubscriptionCanceled, e.Email, vars); err != nil {
		h.logger.Errorf("User %d: cancellation notification failed: %v", e.UserID, err)
	}
}

// onSubscriptionActivated clears any pending grace period and re-enables the
// user's domains. The welcome-back notification is only sent when a grace
// period was actually pending; a first-time subscriber gets nothing here.
func (h *Handlers) onSubscriptionActivated(ctx context.Context, evt eventbus.Event) {
	e, ok := evt.(SubscriptionActivated)
	if !ok {
		h.logger.Errorf("Unexpected payload type %T for %s", evt, evt.EventName())
		return
	}

	hadPending, err := h.gracePeriods.HasPending(e.UserID)
	if err != nil {
		h.logger.Errorf("User %d: failed to check grace period: %v", e.UserID, err)
		return
	}

	if err := h.domains.EnableAllByUser(e.UserID); err != nil {
		h.logger.Errorf("User %d: failed to re-enable domains: %v", e.UserID, err)
		return
	}

	if err := h.gracePeriods.Clear(e.UserID); err != nil {
		h.logger.Errorf("User %d: failed to clear grace period: %v", e.UserID, err)
		return
	}

	if !hadPending {
		return
	}

	h.logger.Infof("User %d: reactivated within grace period", e.UserID)

	vars := map[string]string{"first_name": e.FirstName}
	if err := h.notifier.Send(ctx, notification.TemplateSubscriptionReactivated, e.Email, vars); err != nil {
		h.logger.Errorf("User %d: reactivation notification failed: %v", e.UserID, err)
	}
}
