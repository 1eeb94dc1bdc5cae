// Package gateway implements the requester side of the rendezvous: it turns
// an agent's prompt into a stored request, hands the wait to the coordinator,
// and maps whatever outcome comes back into a result the agent runtime can
// always consume. The gateway never panics outward and never returns a bare
// error for an expected outcome - timeout, cancellation, and even store
// failures all become textual results.
package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dyluth/drey/internal/await"
	"github.com/dyluth/drey/internal/identity"
	"github.com/dyluth/drey/pkg/rendezvous"
)

// DefaultDeadline is the bounded wait applied to cue submissions unless the
// caller explicitly asks for the unbounded pause mode.
const DefaultDeadline = 600 * time.Second

// pausePayload is the fixed confirmation-only payload attached to pause
// requests so the responder UI renders a simple continue/stop prompt.
const pausePayload = `{"type":"confirm","text":"Continue the conversation?","confirm_label":"Continue","cancel_label":"End session"}`

// Directive texts returned to the agent runtime alongside the human's answer.
const (
	continueReminder = "Before following the user's instruction, add a todo item at the end of your todo list: " +
		"`Use drey to give me a final summary or ask me a question or make a request`, and mark it completed only after you actually call cue()."

	sessionOverText = "The user chose to end the conversation. This session is now over.\n\n" +
		"You do not need to call cue again for this session."

	declinedText = "The user declined to continue. If you believe the conversation should resume later, " +
		"call pause() to wait without a deadline."

	timedOutText = "No response arrived before the deadline. The user may simply be away; " +
		"call pause() to keep waiting without a deadline, or end the session."
)

// Segment is one piece of a caller-visible result: either text or an inline
// attachment, mirroring the mixed content the agent runtime accepts.
type Segment struct {
	Text      string
	MediaType string
	Data      string
}

// IsText reports whether the segment carries text rather than an attachment.
func (s Segment) IsText() bool {
	return s.MediaType == ""
}

// Result is the caller-visible payload of a submission. IsError marks results
// that wrap an internal failure; they are still plain results, never panics
// or raised faults.
type Result struct {
	RequestID string
	Segments  []Segment
	IsError   bool
}

// Gateway creates requests and maps wait outcomes to caller results.
type Gateway struct {
	store    *rendezvous.Client
	coord    *await.Coordinator
	deadline time.Duration
}

// New creates a gateway over the given store and coordinator. A deadline of
// 0 selects DefaultDeadline for bounded cue submissions.
func New(store *rendezvous.Client, coord *await.Coordinator, deadline time.Duration) *Gateway {
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Gateway{store: store, coord: coord, deadline: deadline}
}

// Join issues a fresh origin identity with onboarding instructions.
func (g *Gateway) Join() string {
	originID := identity.Generate()
	log.Printf("[INFO] Generated origin ID: %s", originID)
	return fmt.Sprintf("Your origin ID is: %s\n\n"+
		"Remember this origin ID: pass it as origin_id when calling cue(prompt, origin_id).\n"+
		"Before ending this session, call cue to provide a final summary, ask a question, or make a request.", originID)
}

// Recall recovers a previous origin identity from hints about prior work.
// It searches historical prompts newest-first; when nothing matches, a fresh
// identity is generated rather than returning an error.
func (g *Gateway) Recall(ctx context.Context, hints string) (string, error) {
	matches, err := g.store.SearchPrompts(ctx, hints)
	if err != nil {
		return "", fmt.Errorf("failed to search prior requests: %w", err)
	}

	if len(matches) > 0 {
		originID := matches[0].OriginID
		log.Printf("[INFO] Recovered origin ID: %s", originID)
		return fmt.Sprintf("Found your origin ID: %s\n\n"+
			"Use this origin ID when calling cue(prompt, origin_id).", originID), nil
	}

	originID := identity.Generate()
	log.Printf("[INFO] No match for hints, generated new origin ID: %s", originID)
	return fmt.Sprintf("No matching record found. A new origin ID has been generated for you: %s\n\n"+
		"Use this origin ID when calling cue(prompt, origin_id).\n"+
		"Before ending this session, call cue to provide a final summary, ask a question, or make a request.", originID), nil
}

// Cue submits a prompt and waits for the human's response with the
// configured bounded deadline. The returned Result is always usable by the
// agent runtime, whatever happened.
func (g *Gateway) Cue(ctx context.Context, prompt, originID, payload string) Result {
	return g.submit(ctx, prompt, originID, payload, g.deadline)
}

// Pause submits a prompt and waits without a deadline. Used when the agent
// has nothing further to do and is waiting for the human to come back. The
// payload is a fixed confirmation so the responder renders a simple
// continue/stop choice.
func (g *Gateway) Pause(ctx context.Context, originID, prompt string) Result {
	if strings.TrimSpace(prompt) == "" {
		prompt = "The agent is paused and waiting. Continue the conversation?"
	}
	return g.submit(ctx, prompt, originID, pausePayload, 0)
}

// submit creates the pending request, awaits its outcome, and maps it.
// A deadline of 0 waits without bound.
func (g *Gateway) submit(ctx context.Context, prompt, originID, payload string, deadline time.Duration) Result {
	req := rendezvous.NewRequest(originID, prompt, payload)

	if err := g.store.CreateRequest(ctx, req); err != nil {
		log.Printf("[ERROR] Failed to create request: %v", err)
		return errorResult("", err)
	}
	log.Printf("[INFO] Request created: %s (origin=%s)", req.RequestID, originID)

	outcome := g.coord.Await(ctx, req.RequestID, deadline)
	log.Printf("[INFO] Request %s outcome: %s", req.RequestID, outcome.Kind)

	switch outcome.Kind {
	case await.KindAnswered:
		g.markCompleted(req.RequestID)
		return answeredResult(req.RequestID, outcome.Body)

	case await.KindEmptyAnswer:
		g.markCompleted(req.RequestID)
		return textResult(req.RequestID, sessionOverText)

	case await.KindCancelled:
		return textResult(req.RequestID, declinedText)

	case await.KindTimedOut:
		return textResult(req.RequestID, timedOutText)

	case await.KindFaulted:
		return errorResult(req.RequestID, outcome.Err)

	default:
		return errorResult(req.RequestID, fmt.Errorf("unknown outcome kind %d", outcome.Kind))
	}
}

// markCompleted advances the request to its completed terminal status. The
// responder normally does this itself right after writing the response, so a
// failure here is logged rather than surfaced.
func (g *Gateway) markCompleted(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := g.store.UpdateRequestStatus(ctx, requestID, rendezvous.StatusCompleted); err != nil && !rendezvous.IsNotFound(err) {
		log.Printf("[ERROR] Failed to mark request %s completed: %v", requestID, err)
	}
}

// answeredResult builds the mixed text/attachment segments for a real answer.
func answeredResult(requestID string, body rendezvous.Body) Result {
	var segments []Segment

	text := strings.TrimSpace(body.Text)
	if text != "" {
		segments = append(segments, Segment{
			Text: fmt.Sprintf("The user wants to continue and provided the following instruction:\n\n%s", text),
		})
	} else {
		segments = append(segments, Segment{Text: "The user wants to continue and attached images:"})
	}

	for _, att := range body.Attachments {
		segments = append(segments, Segment{MediaType: att.MediaType, Data: att.Data})
	}

	segments = append(segments, Segment{Text: continueReminder})

	return Result{RequestID: requestID, Segments: segments}
}

func textResult(requestID, text string) Result {
	return Result{RequestID: requestID, Segments: []Segment{{Text: text}}}
}

func errorResult(requestID string, err error) Result {
	return Result{
		RequestID: requestID,
		Segments:  []Segment{{Text: fmt.Sprintf("Error: %v", err)}},
		IsError:   true,
	}
}
