// Package resolver maps short request-ID prefixes typed at the CLI to full
// request tokens, so "drey show a1b2c3" works without copying the whole ID.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/drey/pkg/rendezvous"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 4 hex characters to balance usability with collision avoidance.
const MinShortIDLength = 4

// ResolveRequestID resolves a short ID prefix to a full request token.
// The "req_" prefix is optional in the input. Returns the full token when
// exactly one stored request matches; zero or multiple matches are errors.
func ResolveRequestID(ctx context.Context, store *rendezvous.Client, shortID string) (string, error) {
	// A full token is verified and returned as-is
	if strings.HasPrefix(shortID, "req_") && len(shortID) == 16 {
		exists, err := store.RequestExists(ctx, shortID)
		if err != nil {
			return "", fmt.Errorf("failed to verify request existence: %w", err)
		}
		if !exists {
			return "", &NotFoundError{ShortID: shortID}
		}
		return shortID, nil
	}

	prefix := strings.TrimPrefix(shortID, "req_")
	if len(prefix) < MinShortIDLength {
		return "", fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(prefix))
	}

	requests, err := store.ListRequests(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to search for request: %w", err)
	}

	var matches []string
	for _, req := range requests {
		if strings.HasPrefix(strings.TrimPrefix(req.RequestID, "req_"), prefix) {
			matches = append(matches, req.RequestID)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{ShortID: shortID}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{ShortID: shortID, Matches: matches}
	}
}

// NotFoundError indicates no requests matched the short ID.
type NotFoundError struct {
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no requests found matching '%s'", e.ShortID)
}

// AmbiguousError indicates multiple requests matched the short ID.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d requests", e.ShortID, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous
// short IDs, listing up to 10 matching tokens.
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous short ID '%s' matches %d requests:\n", err.ShortID, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the request."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
