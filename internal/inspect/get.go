package inspect

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/drey/pkg/rendezvous"
)

// RequestDetail joins a request with its response, if one exists yet.
type RequestDetail struct {
	Request  *rendezvous.Request  `json:"request"`
	Response *rendezvous.Response `json:"response,omitempty"`
}

// GetRequest retrieves a single request by its caller-visible ID and writes
// it, together with its response when present, as pretty-printed JSON.
// Uses IsNotFound() to distinguish "not found" errors from other failures.
func GetRequest(ctx context.Context, store *rendezvous.Client, requestID string, w io.Writer) error {
	req, err := store.GetRequest(ctx, requestID)
	if err != nil {
		if rendezvous.IsNotFound(err) {
			return &RequestNotFoundError{RequestID: requestID}
		}
		return fmt.Errorf("failed to fetch request: %w", err)
	}

	detail := &RequestDetail{Request: req}

	resp, err := store.GetResponse(ctx, requestID)
	switch {
	case err == nil:
		detail.Response = resp
	case rendezvous.IsNotFound(err):
		// Still pending, no response yet
	default:
		return fmt.Errorf("failed to fetch response: %w", err)
	}

	if err := FormatDetailJSON(w, detail); err != nil {
		return fmt.Errorf("failed to format request: %w", err)
	}

	return nil
}

// RequestNotFoundError represents a specific "request not found" error.
// This allows callers to distinguish not-found errors from other failures.
type RequestNotFoundError struct {
	RequestID string
}

func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("request with ID '%s' not found", e.RequestID)
}

// IsNotFound returns true if the error is a RequestNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*RequestNotFoundError)
	return ok
}
