package transport

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/pkg/textfully"
)

// TextfullySender implements SMSSender on the Textfully API.
type TextfullySender struct {
	client textfully.Client
}

// NewTextfullySender creates an SMS sender backed by the given API client.
func NewTextfullySender(client textfully.Client) *TextfullySender {
	return &TextfullySender{client: client}
}

func (s *TextfullySender) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return eris.New("transport: missing phone number")
	}

	resp, err := s.client.SendMessage(ctx, textfully.MessageRequest{To: to, Text: body})
	if err != nil {
		return eris.Wrapf(err, "transport: send sms to %s", to)
	}

	zap.L().Debug("sms sent",
		zap.String("to", to),
		zap.String("message_id", resp.ID),
		zap.String("status", resp.Status))
	return nil
}
