package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrEmptyResponse marks a well-formed response that carried no text.
	ErrEmptyResponse = errors.New("empty response")
)

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// ProviderError carries an error object reported inside a 200 response.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return "provider error: " + e.Message
}
