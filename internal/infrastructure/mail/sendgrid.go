package mail

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
)

const (
	defaultSendGridHost = "https://api.sendgrid.com"
	sendGridEndpoint    = "/v3/mail/send"
	senderName          = "ArXiv Daily Digest"
)

// SendGridTransport delivers messages through the SendGrid v3 API.
type SendGridTransport struct {
	request rest.Request
	from    string
}

var _ ports.Transport = (*SendGridTransport)(nil)

// NewSendGridTransport builds the API client; BaseURL overrides the API host.
func NewSendGridTransport(cfg config.SendGridConfig, from string) *SendGridTransport {
	host := strings.TrimSuffix(cfg.BaseURL, "/")
	if host == "" {
		host = defaultSendGridHost
	}
	req := sendgrid.GetRequest(cfg.APIKey, sendGridEndpoint, host)
	req.Method = http.MethodPost
	return &SendGridTransport{
		request: req,
		from:    from,
	}
}

// Name identifies the transport in logs and run history.
func (s *SendGridTransport) Name() string {
	return "sendgrid"
}

// Send posts one message; only 202 Accepted counts as delivered.
func (s *SendGridTransport) Send(ctx context.Context, msg ports.Message) error {
	from := sgmail.NewEmail(senderName, s.from)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.PlainBody, msg.HTMLBody)

	// SendWithContext stores the body on the client, so each send gets its own.
	client := &sendgrid.Client{Request: s.request}
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send via sendgrid: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, logging.Redact(strings.TrimSpace(resp.Body)))
	}
	return nil
}
