package usecase

import "errors"

var (
	// ErrMissingRecipient means no email address was supplied.
	ErrMissingRecipient = errors.New("missing recipient email")
	// ErrMissingLLMCredential means the summarization endpoint has no credential.
	ErrMissingLLMCredential = errors.New("missing LLM credential")
	// ErrUpstreamUnavailable means the paper search itself failed.
	ErrUpstreamUnavailable = errors.New("paper search unavailable")
	// ErrNoPapers means the search succeeded but nothing survived filtering.
	ErrNoPapers = errors.New("no papers found")
	// ErrNoTransport means neither email transport has credentials.
	ErrNoTransport = errors.New("no email transport configured")
	// ErrDeliveryFailed means the chosen transport rejected the digest.
	ErrDeliveryFailed = errors.New("digest delivery failed")
)
