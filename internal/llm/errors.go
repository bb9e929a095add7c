package llm

import "errors"

var (
	// ErrNotConfigured indicates required credentials or settings are
	// missing.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrTransport indicates the remote call itself failed.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates a response that could not be
	// parsed as a JSON object.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrRejected indicates a response that parsed but failed
	// validation.
	ErrRejected = errors.New("response rejected")
)
