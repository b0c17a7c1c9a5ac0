package mail

import (
	"context"
	"log/slog"

	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
)

// SelectTransport picks the delivery transport from credential presence:
// SendGrid when its key is set, otherwise Gmail when both Gmail fields are set,
// otherwise nil.
func SelectTransport(cfg config.EmailConfig) ports.Transport {
	switch {
	case cfg.SendGrid.Configured():
		return NewSendGridTransport(cfg.SendGrid, cfg.FromAddress)
	case cfg.Gmail.Configured():
		return NewSMTPTransport(cfg.Gmail)
	default:
		return nil
	}
}

// Router delivers rendered digests through the transport chosen at startup.
// A failed send is reported, never retried on the other transport.
type Router struct {
	transport ports.Transport
	logger    *slog.Logger
}

// NewRouter wraps the selected transport, which may be nil.
func NewRouter(transport ports.Transport, logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Router{transport: transport, logger: logger}
}

// Configured reports whether any transport is available.
func (r *Router) Configured() bool {
	return r != nil && r.transport != nil
}

// TransportName returns the chosen transport name or "" when none is configured.
func (r *Router) TransportName() string {
	if !r.Configured() {
		return ""
	}
	return r.transport.Name()
}

// Deliver sends the message and reports success.
func (r *Router) Deliver(ctx context.Context, msg ports.Message) bool {
	if !r.Configured() {
		r.logger.Warn("no email transport configured")
		return false
	}

	if err := r.transport.Send(ctx, msg); err != nil {
		r.logger.Error("deliver digest", "transport", r.transport.Name(), "to", msg.To, "err", logging.Redact(err.Error()))
		return false
	}

	r.logger.Info("digest delivered", "transport", r.transport.Name(), "to", msg.To)
	return true
}
