// Package notify sends alert notifications to registered contacts and
// fire-and-forget pushes to the device alert channel.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/vigilcam/vigil/internal/alert"
	"github.com/vigilcam/vigil/internal/assess"
)

// smsBodyLimit leaves room for the thumbnail link within one SMS segment
// budget.
const smsBodyLimit = 120

// SMSSender delivers one SMS message. Implemented by TwilioSender and by
// test fakes.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Notifier composes alert messages and fans them out to contacts. Each
// destination is attempted independently; failures are logged and do not
// stop the fanout.
type Notifier struct {
	sender SMSSender
}

// NewNotifier creates a Notifier over the given sender.
func NewNotifier(sender SMSSender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify sends the alert message to every destination. A degraded
// assessment falls back to a templated message. Best-effort; returns the
// number of successful sends.
func (n *Notifier) Notify(ctx context.Context, person alert.Person, assessment, thumbnailURL string, destinations []string) int {
	if n.sender == nil || len(destinations) == 0 {
		return 0
	}

	body := BuildMessage(person, assessment)
	if len(body) > smsBodyLimit {
		body = body[:smsBodyLimit]
	}
	if thumbnailURL != "" {
		body += "\n\nView: " + thumbnailURL
	}

	sent := 0
	for _, destination := range destinations {
		if err := n.sender.SendSMS(ctx, destination, body); err != nil {
			log.Printf("Failed to send SMS to %s: %v", destination, err)
			continue
		}
		sent++
	}

	return sent
}

// BuildMessage returns the notification body for a person: the AI
// assessment when present, otherwise a templated message.
func BuildMessage(person alert.Person, assessment string) string {
	if !assess.IsDegraded(assessment) {
		return assessment
	}

	if person.Identity.IsKnown() {
		return fmt.Sprintf("Known person detected: %s", person.Identity)
	}
	return "ALERT: Unknown person detected near your vehicle"
}
