package notification

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkConfig holds Postmark credentials and sender identity
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	FromEmail    string
}

// PostmarkNotifier sends notifications through Postmark's transactional API
type PostmarkNotifier struct {
	client *postmark.Client
	from   string
}

// NewPostmarkNotifier creates a Postmark-backed notifier. All config fields
// are required; misconfiguration fails at startup, not at send time.
func NewPostmarkNotifier(cfg PostmarkConfig) (*PostmarkNotifier, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("postmark account token is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("postmark sender email is required")
	}

	return &PostmarkNotifier{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.FromEmail,
	}, nil
}

// Send implements Notifier
func (n *PostmarkNotifier) Send(ctx context.Context, template, recipient string, vars map[string]string) error {
	subject, body, err := renderTemplate(template, vars)
	if err != nil {
		return err
	}

	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:     n.from,
		To:       recipient,
		Subject:  subject,
		TextBody: body,
		Tag:      template,
	})
	if err != nil {
		return fmt.Errorf("failed to send %s to %s: %w", template, recipient, err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
