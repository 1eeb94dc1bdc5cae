// Package responder implements the human side of the rendezvous: an
// indefinitely running loop that discovers the oldest pending request,
// presents it to the operator, and writes back the response. Discovery is
// oldest-first so concurrently waiting agents are served FIFO. The loop
// writes through the store's write-once insert, so if the agent side already
// timed a request out, the operator's late input is quietly discarded and
// the loop simply moves on.
package responder

import (
	"context"
	"time"

	"github.com/dyluth/drey/internal/payload"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/rendezvous"
)

// DefaultPollInterval is the sleep between pending-request checks.
const DefaultPollInterval = 500 * time.Millisecond

// Prompter collects the operator's reply to a presented request.
// It is an interface so the loop can be driven by a terminal in production
// and by a scripted fake in tests.
type Prompter interface {
	// ReadText collects the free-form text reply. An empty string means the
	// operator submitted nothing.
	ReadText() (string, error)

	// ReadAttachmentPaths collects file paths to attach, already split and
	// cleaned. An empty slice means no attachments.
	ReadAttachmentPaths() ([]string, error)
}

// Loop polls for pending requests and routes them through the prompter.
type Loop struct {
	store    *rendezvous.Client
	prompter Prompter
	interval time.Duration
}

// New creates a responder loop. An interval of 0 selects DefaultPollInterval.
func New(store *rendezvous.Client, prompter Prompter, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Loop{store: store, prompter: prompter, interval: interval}
}

// Run polls until ctx is cancelled. Each cycle handles at most one request;
// transient store errors are reported and retried on the next cycle.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	printer.Info("Listening for requests (instance %q)...\n\n", l.store.InstanceName())

	for {
		req, err := l.store.FindOldestPending(ctx)
		switch {
		case err == nil:
			if err := l.handle(ctx, req); err != nil {
				printer.Warning("Failed to handle request %s: %v\n", req.RequestID, err)
			}
		case rendezvous.IsNotFound(err):
			// Nothing pending
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			printer.Warning("Store poll failed: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// handle presents one request, collects the reply, and commits it.
func (l *Loop) handle(ctx context.Context, req *rendezvous.Request) error {
	l.display(req)

	text, err := l.prompter.ReadText()
	if err != nil {
		return err
	}

	paths, err := l.prompter.ReadAttachmentPaths()
	if err != nil {
		return err
	}
	attachments := CollectAttachments(paths)

	body := rendezvous.Body{Text: text, Attachments: attachments}
	resp := &rendezvous.Response{
		RequestID:   req.RequestID,
		Body:        body,
		Cancelled:   body.IsEmpty(),
		CreatedAtMs: time.Now().UnixMilli(),
	}

	stored, err := l.store.CreateResponseIfAbsent(ctx, resp)
	if err != nil {
		return err
	}

	if !stored {
		// The coordinator resolved this request while the operator was
		// typing; their input has nowhere to go.
		printer.Warning("Request %s was already resolved; input discarded\n\n", req.RequestID)
		return nil
	}

	if err := l.store.UpdateRequestStatus(ctx, req.RequestID, rendezvous.StatusCompleted); err != nil {
		return err
	}

	if body.IsEmpty() {
		printer.Success("End-of-conversation signal sent\n\n")
	} else {
		printer.Success("Response sent for %s\n\n", req.RequestID)
	}

	return nil
}

// display renders the request for the operator. A payload that fails to
// parse is reported and shown raw; it never blocks the exchange.
func (l *Loop) display(req *rendezvous.Request) {
	printer.Divider()
	printer.Heading("New request: %s", req.RequestID)
	if req.OriginID != "" {
		printer.Printf("  (from %s)", req.OriginID)
	}
	printer.Println()
	printer.Println()
	printer.Println(req.Prompt)

	if req.Payload != "" {
		printer.Println()
		p, err := payload.Parse(req.Payload)
		if err != nil {
			printer.Warning("Unrecognized payload (%v), showing raw:\n", err)
			printer.Println(req.Payload)
		} else {
			printer.Printf("%s", p.Render())
		}
	}

	printer.Divider()
	printer.Println("Enter your reply (empty to end the conversation):")
}
