package rendezvous

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis storage
//
// Requests are stored as Redis hashes (string-to-string maps) so individual
// fields stay queryable and the status/updated_at fields can be advanced
// without rewriting the record. Responses are stored as a single JSON string
// because they are written exactly once with SETNX and never touched again.

// RequestToHash converts a Request struct to a Redis hash format.
func RequestToHash(r *Request) map[string]interface{} {
	return map[string]interface{}{
		"id":            r.ID,
		"request_id":    r.RequestID,
		"origin_id":     r.OriginID,
		"prompt":        r.Prompt,
		"payload":       r.Payload,
		"status":        string(r.Status),
		"created_at_ms": r.CreatedAtMs,
		"updated_at_ms": r.UpdatedAtMs,
	}
}

// HashToRequest converts a Redis hash to a Request struct.
func HashToRequest(hash map[string]string) (*Request, error) {
	createdAtMs, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at_ms field: %w", err)
	}

	updatedAtMs, err := strconv.ParseInt(hash["updated_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at_ms field: %w", err)
	}

	return &Request{
		ID:          hash["id"],
		RequestID:   hash["request_id"],
		OriginID:    hash["origin_id"],
		Prompt:      hash["prompt"],
		Payload:     hash["payload"],
		Status:      RequestStatus(hash["status"]),
		CreatedAtMs: createdAtMs,
		UpdatedAtMs: updatedAtMs,
	}, nil
}

// MarshalResponse serializes a Response to the JSON form stored in Redis.
func MarshalResponse(r *Response) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}
	return string(data), nil
}

// UnmarshalResponse parses the stored JSON form back to a Response.
// A nil attachments slice is normalized to an empty slice for consistency.
func UnmarshalResponse(data string) (*Response, error) {
	var resp Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if resp.Body.Attachments == nil {
		resp.Body.Attachments = []Attachment{}
	}

	return &resp, nil
}
