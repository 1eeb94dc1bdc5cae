package rendezvous

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request represents one agent turn awaiting a human answer.
// A Request is immutable after creation except for Status and UpdatedAtMs,
// which advance exactly once from pending to a terminal state.
type Request struct {
	ID          string        `json:"id"`           // UUID - store-assigned surrogate identifier
	RequestID   string        `json:"request_id"`   // Caller-visible token ("req_" + 12 hex), globally unique
	OriginID    string        `json:"origin_id"`    // Identity of the requesting agent (may be empty)
	Prompt      string        `json:"prompt"`       // Free text shown to the human
	Payload     string        `json:"payload"`      // Optional structured payload, opaque to the core protocol
	Status      RequestStatus `json:"status"`       // Current lifecycle state
	CreatedAtMs int64         `json:"created_at_ms"`
	UpdatedAtMs int64         `json:"updated_at_ms"`
}

// RequestStatus defines the lifecycle state of a request.
// Requests start pending and end in exactly one of completed or cancelled.
type RequestStatus string

const (
	// StatusPending indicates the request is waiting for a response
	StatusPending RequestStatus = "pending"

	// StatusCompleted indicates a human response was delivered to the agent
	StatusCompleted RequestStatus = "completed"

	// StatusCancelled indicates the wait timed out or was cancelled
	StatusCancelled RequestStatus = "cancelled"
)

// Attachment is a single binary item in a response body, typically an image.
type Attachment struct {
	MediaType string `json:"media_type"` // e.g. "image/png"
	Data      string `json:"data"`       // base64-encoded raw bytes
}

// Body is the structured content of a response: free text plus an ordered
// sequence of attachments.
type Body struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
}

// IsEmpty reports whether the body carries neither text nor attachments.
// An empty body signals "conversation ended, nothing further required".
func (b Body) IsEmpty() bool {
	return strings.TrimSpace(b.Text) == "" && len(b.Attachments) == 0
}

// Response represents the human's answer to a request. Exactly zero or one
// Response ever exists per request ID, and once written it is never mutated.
// Cancelled responses are written either by the human submitting an empty
// reply or synthesized by the coordinator on timeout/cancellation.
type Response struct {
	RequestID   string `json:"request_id"`
	Body        Body   `json:"body"`
	Cancelled   bool   `json:"cancelled"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

// requestIDPattern matches caller-visible request tokens: "req_" followed by
// 12 lowercase hex characters.
var requestIDPattern = regexp.MustCompile(`^req_[0-9a-f]{12}$`)

// NewRequestID generates a fresh caller-visible request token.
func NewRequestID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "req_" + hex[:12]
}

// NewRequest builds a pending Request with fresh identifiers and timestamps.
// The caller is expected to pass it to Client.CreateRequest unchanged.
func NewRequest(originID, prompt, payload string) *Request {
	now := time.Now().UnixMilli()
	return &Request{
		ID:          uuid.New().String(),
		RequestID:   NewRequestID(),
		OriginID:    originID,
		Prompt:      prompt,
		Payload:     payload,
		Status:      StatusPending,
		CreatedAtMs: now,
		UpdatedAtMs: now,
	}
}

// Validate checks if the Request has valid field values.
// Returns an error if any validation fails.
func (r *Request) Validate() error {
	if !isValidUUID(r.ID) {
		return fmt.Errorf("invalid request surrogate ID: not a valid UUID")
	}

	if !requestIDPattern.MatchString(r.RequestID) {
		return fmt.Errorf("invalid request ID %q: must match req_<12 hex>", r.RequestID)
	}

	if r.Prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	if err := r.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if r.CreatedAtMs <= 0 {
		return fmt.Errorf("invalid created_at_ms: must be > 0, got %d", r.CreatedAtMs)
	}

	return nil
}

// Validate checks if the RequestStatus is a valid enum value.
func (s RequestStatus) Validate() error {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return nil
	default:
		return fmt.Errorf("unknown request status: %q", s)
	}
}

// IsTerminal reports whether the status is a terminal lifecycle state.
// A request never leaves a terminal state.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Validate checks if the Response has valid field values.
func (r *Response) Validate() error {
	if !requestIDPattern.MatchString(r.RequestID) {
		return fmt.Errorf("invalid request ID %q: must match req_<12 hex>", r.RequestID)
	}

	for i, att := range r.Body.Attachments {
		if att.MediaType == "" {
			return fmt.Errorf("attachment %d: media type cannot be empty", i)
		}
		if att.Data == "" {
			return fmt.Errorf("attachment %d: data cannot be empty", i)
		}
	}

	if r.CreatedAtMs <= 0 {
		return fmt.Errorf("invalid created_at_ms: must be > 0, got %d", r.CreatedAtMs)
	}

	return nil
}

// NewSyntheticResponse builds the cancelled empty Response the coordinator
// writes to close out a timed-out or cancelled wait. It carries no body:
// its only job is to occupy the write-once slot so the request has exactly
// one permanent outcome.
func NewSyntheticResponse(requestID string) *Response {
	return &Response{
		RequestID:   requestID,
		Body:        Body{Attachments: []Attachment{}},
		Cancelled:   true,
		CreatedAtMs: time.Now().UnixMilli(),
	}
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
