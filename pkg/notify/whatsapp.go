package notify

import (
	"context"
	"strings"

	"MealVote-Backend/internal/utils"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type whatsAppNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewWhatsAppNotifier() Notifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: utils.GetConfig("TWILIO_ACCOUNT_SID"),
		Password: utils.GetConfig("TWILIO_AUTH_TOKEN"),
	})

	return &whatsAppNotifier{
		client: client,
		from:   utils.GetConfig("TWILIO_WHATSAPP_FROM"),
	}
}

func (w *whatsAppNotifier) Send(ctx context.Context, to string, subject string, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(w.from)
	params.SetTo(normalizeWhatsAppNumber(to))
	params.SetBody(body)

	_, err := w.client.Api.CreateMessage(params)
	return err
}

func normalizeWhatsAppNumber(raw string) string {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "whatsapp:") {
		return t
	}
	return "whatsapp:" + t
}
