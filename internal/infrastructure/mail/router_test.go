package mail

import (
	"context"
	"errors"
	"testing"

	"PaperDigest/internal/config"
	"PaperDigest/internal/ports"
)

type countingTransport struct {
	name  string
	err   error
	calls int
}

func (c *countingTransport) Name() string { return c.name }

func (c *countingTransport) Send(context.Context, ports.Message) error {
	c.calls++
	return c.err
}

func TestSelectTransport(t *testing.T) {
	t.Parallel()

	sendgridOnly := config.EmailConfig{SendGrid: config.SendGridConfig{APIKey: "SG.key"}}
	gmailOnly := config.EmailConfig{Gmail: config.GmailConfig{User: "u@gmail.com", AppPassword: "p"}}
	both := config.EmailConfig{SendGrid: sendgridOnly.SendGrid, Gmail: gmailOnly.Gmail}
	halfGmail := config.EmailConfig{Gmail: config.GmailConfig{User: "u@gmail.com"}}

	tests := []struct {
		name string
		cfg  config.EmailConfig
		want string
	}{
		{"none", config.EmailConfig{}, ""},
		{"sendgrid", sendgridOnly, "sendgrid"},
		{"gmail", gmailOnly, "gmail"},
		{"both prefers sendgrid", both, "sendgrid"},
		{"incomplete gmail", halfGmail, ""},
	}

	for _, tt := range tests {
		got := SelectTransport(tt.cfg)
		name := ""
		if got != nil {
			name = got.Name()
		}
		if name != tt.want {
			t.Fatalf("%s: unexpected transport: %q", tt.name, name)
		}
	}
}

func TestRouterWithoutTransport(t *testing.T) {
	t.Parallel()

	router := NewRouter(SelectTransport(config.EmailConfig{}), nil)
	if router.Configured() {
		t.Fatalf("router must be unconfigured")
	}
	if router.Deliver(context.Background(), testMessage()) {
		t.Fatalf("expected delivery to fail without transport")
	}
}

func TestRouterDoesNotFailOver(t *testing.T) {
	t.Parallel()

	failing := &countingTransport{name: "sendgrid", err: errors.New("503")}
	router := NewRouter(failing, nil)

	if router.Deliver(context.Background(), testMessage()) {
		t.Fatalf("expected delivery failure")
	}
	if failing.calls != 1 {
		t.Fatalf("unexpected send attempts: %d", failing.calls)
	}

	ok := &countingTransport{name: "gmail"}
	if !NewRouter(ok, nil).Deliver(context.Background(), testMessage()) {
		t.Fatalf("expected delivery success")
	}
	if NewRouter(ok, nil).TransportName() != "gmail" {
		t.Fatalf("unexpected transport name")
	}
}
