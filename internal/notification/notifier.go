package notification

import (
	"context"
	"fmt"
)

// Template names for lifecycle notifications
const (
	TemplateSubscriptionCanceled    = "subscription-canceled"
	TemplateSubscriptionReactivated = "subscription-reactivated"
	TemplateDomainsDisabled         = "domains-disabled"
)

// Notifier sends a templated notification to a recipient. Callers treat it
// as fire-and-forget: failures are theirs to catch and log.
type Notifier interface {
	Send(ctx context.Context, template, recipient string, vars map[string]string) error
}

// renderTemplate produces the subject and text body for a template
func renderTemplate(template string, vars map[string]string) (string, string, error) {
	greeting := "Hi there,"
	if name := vars["first_name"]; name != "" {
		greeting = "Hi " + name + ","
	}

	switch template {
	case TemplateSubscriptionCanceled:
		subject := "Your subscription was canceled"
		body := fmt.Sprintf(`%s

Your subscription has been canceled. Your custom domains will keep working
until %s. After that they will be disabled until you resubscribe.

Your short links on the default domain are not affected.`, greeting, vars["ends_at"])
		return subject, body, nil

	case TemplateSubscriptionReactivated:
		subject := "Welcome back!"
		body := fmt.Sprintf(`%s

Your subscription is active again and your custom domains have been
re-enabled. No further action is needed.`, greeting)
		return subject, body, nil

	case TemplateDomainsDisabled:
		subject := "Your custom domains were disabled"
		body := fmt.Sprintf(`%s

The grace period after your cancellation has ended and your custom domains
have been disabled. Resubscribe at any time to re-enable them; your domain
settings and verification state are kept.`, greeting)
		return subject, body, nil
	}

	return "", "", fmt.Errorf("unknown notification template: %s", template)
}
