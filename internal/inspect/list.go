// Package inspect implements read-only views over stored requests and
// responses for the CLI: a table or JSONL listing of all requests, and a
// detailed view of one request joined with its response.
package inspect

import (
	"context"
	"fmt"
	"io"

	"github.com/dyluth/drey/pkg/rendezvous"
)

// OutputFormat specifies how to format the request list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format with truncated prompts
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs complete requests as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// FilterCriteria defines filtering options for the list command.
// All filters are ANDed together.
type FilterCriteria struct {
	Status           rendezvous.RequestStatus // Exact status match, empty = no filter
	OriginID         string                   // Exact origin match, empty = no filter
	SinceTimestampMs int64                    // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64                    // Unix timestamp in milliseconds, 0 = no filter
}

func (fc *FilterCriteria) matches(req *rendezvous.Request) bool {
	if fc.Status != "" && req.Status != fc.Status {
		return false
	}
	if fc.OriginID != "" && req.OriginID != fc.OriginID {
		return false
	}
	if fc.SinceTimestampMs > 0 && req.CreatedAtMs < fc.SinceTimestampMs {
		return false
	}
	if fc.UntilTimestampMs > 0 && req.CreatedAtMs > fc.UntilTimestampMs {
		return false
	}
	return true
}

// ListRequests retrieves all requests for the instance, oldest first, and
// writes them to the provided writer in the requested format.
func ListRequests(ctx context.Context, store *rendezvous.Client, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	all, err := store.ListRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	var requests []*rendezvous.Request
	for _, req := range all {
		if filters != nil && !filters.matches(req) {
			continue
		}
		requests = append(requests, req)
	}

	switch format {
	case OutputFormatDefault:
		FormatTable(w, requests, store.InstanceName())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, requests); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
