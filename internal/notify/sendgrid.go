package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridEndpoint  = "/v3/mail/send"
	messageIDHeader   = "X-Message-Id"
	maxErrorBodyBytes = 512
)

// SendGridSender delivers messages through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
}

// NewSendGridSender creates a sender authenticated with apiKey.
func NewSendGridSender(apiKey string) (*SendGridSender, error) {
	return newSendGridSender(apiKey, "")
}

// newSendGridSender targets host instead of the public API when host is set.
func newSendGridSender(apiKey, host string) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key cannot be empty")
	}

	request := sendgrid.GetRequest(apiKey, sendGridEndpoint, host)
	request.Method = "POST"

	return &SendGridSender{
		client: &sendgrid.Client{Request: request},
	}, nil
}

// Send posts msg as a plain-text email.
//
// SendGrid reports rejected mail through the status code rather than a
// transport error, so any non-2xx response is returned as an error.
func (s *SendGridSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := msg.Validate(); err != nil {
		return Receipt{}, err
	}

	email := mail.NewV3MailInit(
		mail.NewEmail("", msg.From),
		msg.Subject,
		mail.NewEmail("", msg.To),
		mail.NewContent("text/plain", msg.Body),
	)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return Receipt{}, fmt.Errorf("sendgrid request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := resp.Body
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}
		return Receipt{StatusCode: resp.StatusCode},
			fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, body)
	}

	receipt := Receipt{StatusCode: resp.StatusCode}
	if ids := resp.Headers[messageIDHeader]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	return receipt, nil
}
