// Package notify posts schedule announcements to a Slack incoming webhook.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Notifier sends a message when a week is finalized. An unconfigured notifier does nothing.
type Notifier struct {
	webhookURL string
	channel    string
	client     *http.Client
	log        *zap.Logger
}

// New creates a notifier. An empty webhookURL disables it.
func New(webhookURL, channel string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Enabled reports whether a webhook is configured
func (n *Notifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// FormatWeek renders the week as Slack mrkdwn
func FormatWeek(date string, week models.WeekData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Schedule for %s*\n", date)
	for _, p := range models.Parts {
		part := week.Part(p)
		fmt.Fprintf(&b, "\n*%s*\n", p.Label())
		for _, r := range models.Roles {
			var names []string
			for i := 0; i < r.Arity(); i++ {
				if v := part.Get(r, i); models.IsMemberValue(v) {
					names = append(names, models.NormalizeName(v))
				}
			}
			if len(names) == 0 {
				names = []string{"-"}
			}
			fmt.Fprintf(&b, "• %s: %s\n", r, strings.Join(names, ", "))
		}
	}
	if len(week.Absences) > 0 {
		var names []string
		for _, a := range week.Absences {
			names = append(names, models.NormalizeName(a.Name))
		}
		fmt.Fprintf(&b, "\nAbsent: %s\n", strings.Join(names, ", "))
	}
	return b.String()
}

// WeekFinalized announces the confirmed schedule of date
func (n *Notifier) WeekFinalized(ctx context.Context, date string, week models.WeekData) error {
	if !n.Enabled() {
		return nil
	}
	msg := &slack.WebhookMessage{
		Channel: n.channel,
		Text:    FormatWeek(date, week),
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.client, msg); err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}
	n.log.Info("finalize notification sent", zap.String("date", date))
	return nil
}
