package notify

import (
	"context"

	"MealVote-Backend/internal/utils"
)

// Notifier is the outbound messaging channel for session invitations and
// cook confirmations. Implementations must return an error on delivery
// failure; the caller decides whether that is fatal.
type Notifier interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// NewNotifier picks the channel from configuration. WhatsApp is the default
// for a household deployment; mail is the fallback where Twilio is not set up.
func NewNotifier() Notifier {
	if utils.GetConfig("NOTIFY_CHANNEL") == "mail" {
		return NewMailNotifier()
	}
	return NewWhatsAppNotifier()
}
