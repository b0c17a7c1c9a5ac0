package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
)

type dialFunc func(ctx context.Context, addr string) (net.Conn, error)

// SMTPTransport sends mail over an implicit-TLS SMTP session (Gmail on 465).
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	from     string
	dial     dialFunc
}

var _ ports.Transport = (*SMTPTransport)(nil)

// NewSMTPTransport creates a Gmail sender; the account doubles as the sender.
func NewSMTPTransport(cfg config.GmailConfig) *SMTPTransport {
	host := cfg.Host
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := cfg.Port
	if port == 0 {
		port = 465
	}
	return &SMTPTransport{
		host:     host,
		port:     port,
		username: cfg.User,
		password: cfg.AppPassword,
		from:     cfg.User,
		dial:     tlsDialer(host),
	}
}

func tlsDialer(host string) dialFunc {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		d := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: 30 * time.Second},
			Config:    &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		}
		return d.DialContext(ctx, "tcp", addr)
	}
}

// Name identifies the transport in logs and run history.
func (s *SMTPTransport) Name() string {
	return "gmail"
}

// Send opens one session, authenticates and submits a multipart/alternative message.
func (s *SMTPTransport) Send(ctx context.Context, msg ports.Message) error {
	body, err := buildMIME(s.from, msg)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	conn, err := s.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %s", logging.Redact(err.Error()))
	}
	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}

	return client.Quit()
}

func buildMIME(from string, msg ports.Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=\"utf-8\"", msg.PlainBody},
		{"text/html; charset=\"utf-8\"", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := pw.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n", mw.Boundary())
	out.WriteString("\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
