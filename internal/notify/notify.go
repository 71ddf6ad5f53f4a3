package notify

import (
	"context"
	"fmt"
	"strings"

	"labeleval/internal/httpx"

	"github.com/slack-go/slack"
)

// Notifier posts run summaries to a Slack incoming webhook. A Notifier with
// an empty URL does nothing.
type Notifier struct {
	WebhookURL string
}

func New(webhookURL string) *Notifier {
	return &Notifier{WebhookURL: strings.TrimSpace(webhookURL)}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.WebhookURL != ""
}

// RunSummary posts the outcome of one run. The summary is sent as a
// preformatted block so the metric table stays aligned.
func (n *Notifier) RunSummary(ctx context.Context, runID, model, summary string, runErr error) error {
	if !n.Enabled() {
		return nil
	}
	var text string
	if runErr != nil {
		text = fmt.Sprintf("*labeleval run %s failed* (model %s)\n```%s```", runID, model, runErr.Error())
	} else {
		text = fmt.Sprintf("*labeleval run %s finished* (model %s)\n```%s```", runID, model, strings.TrimSpace(summary))
	}
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.WebhookURL, httpx.ExternalHTTPClient(), msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
