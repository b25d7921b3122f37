package notification

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the log instead of sending them.
// Used when no email provider is configured (local development).
type LogNotifier struct {
	logger *logrus.Entry
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *logrus.Entry) *LogNotifier {
	return &LogNotifier{logger: logger.WithField("component", "notifier")}
}

// Send implements Notifier
func (n *LogNotifier) Send(_ context.Context, template, recipient string, vars map[string]string) error {
	subject, _, err := renderTemplate(template, vars)
	if err != nil {
		return err
	}
	n.logger.Infof("Notification %s to %s: %q (vars=%v)", template, recipient, subject, vars)
	return nil
}
