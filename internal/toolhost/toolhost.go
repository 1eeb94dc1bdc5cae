// Package toolhost exposes the requester gateway to an agent runtime over
// line-delimited JSON on stdin/stdout. Each input line is one tool call;
// each output line is the matching reply. Calls are handled concurrently
// because cue and pause block for as long as the human takes to answer,
// and the agent runtime may have several waits in flight.
package toolhost

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/dyluth/drey/internal/gateway"
)

// maxLineBytes bounds a single incoming request line.
const maxLineBytes = 1 << 20

// Tool names accepted on the wire.
const (
	ToolJoin   = "join"
	ToolRecall = "recall"
	ToolCue    = "cue"
	ToolPause  = "pause"
)

// call is one incoming tool invocation.
type call struct {
	ID   string          `json:"id"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args,omitempty"`
}

// recallArgs are the arguments for the recall tool.
type recallArgs struct {
	Hints string `json:"hints"`
}

// cueArgs are the arguments for the cue and pause tools.
type cueArgs struct {
	Prompt   string `json:"prompt"`
	OriginID string `json:"origin_id"`
	Payload  string `json:"payload,omitempty"`
}

// segment mirrors gateway.Segment on the wire: type is "text" or "image".
type segment struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

// reply is one outgoing line. Error is set only for protocol-level failures
// (malformed JSON, unknown tool, missing arguments); tool outcomes travel as
// segments with IsError, so the agent runtime always gets usable content.
type reply struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id,omitempty"`
	Segments  []segment `json:"segments,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Host reads tool calls from in and writes replies to out.
type Host struct {
	gw  *gateway.Gateway
	in  io.Reader
	out io.Writer

	writeMu sync.Mutex
}

// New creates a host dispatching to the given gateway.
func New(gw *gateway.Gateway, in io.Reader, out io.Writer) *Host {
	return &Host{gw: gw, in: in, out: out}
}

// Run reads calls until in is exhausted or ctx is cancelled. Each call is
// handled on its own goroutine; Run waits for in-flight calls to finish
// before returning.
func (h *Host) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var wg sync.WaitGroup
	defer wg.Wait()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var c call
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			h.write(reply{Error: fmt.Sprintf("malformed call: %v", err)})
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.write(h.dispatch(ctx, c))
		}()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// dispatch routes one call to the gateway and builds its reply.
func (h *Host) dispatch(ctx context.Context, c call) reply {
	log.Printf("[DEBUG] Dispatching tool call: id=%s tool=%s", c.ID, c.Tool)

	switch c.Tool {
	case ToolJoin:
		return textReply(c.ID, h.gw.Join())

	case ToolRecall:
		var args recallArgs
		if err := unmarshalArgs(c.Args, &args); err != nil {
			return errorReply(c.ID, err)
		}
		text, err := h.gw.Recall(ctx, args.Hints)
		if err != nil {
			return reply{ID: c.ID, Segments: []segment{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}}, IsError: true}
		}
		return textReply(c.ID, text)

	case ToolCue:
		var args cueArgs
		if err := unmarshalArgs(c.Args, &args); err != nil {
			return errorReply(c.ID, err)
		}
		if strings.TrimSpace(args.Prompt) == "" {
			return errorReply(c.ID, fmt.Errorf("cue requires a non-empty prompt"))
		}
		return resultReply(c.ID, h.gw.Cue(ctx, args.Prompt, args.OriginID, args.Payload))

	case ToolPause:
		var args cueArgs
		if err := unmarshalArgs(c.Args, &args); err != nil {
			return errorReply(c.ID, err)
		}
		return resultReply(c.ID, h.gw.Pause(ctx, args.OriginID, args.Prompt))

	default:
		return errorReply(c.ID, fmt.Errorf("unknown tool: %q", c.Tool))
	}
}

// write serializes one reply line. Concurrent handlers share the writer, so
// writes are serialized under a mutex to keep lines whole.
func (h *Host) write(r reply) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal reply for call %s: %v", r.ID, err)
		return
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	if _, err := fmt.Fprintf(h.out, "%s\n", data); err != nil {
		log.Printf("[ERROR] Failed to write reply for call %s: %v", r.ID, err)
	}
}

func unmarshalArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("malformed args: %w", err)
	}
	return nil
}

func textReply(id, text string) reply {
	return reply{ID: id, Segments: []segment{{Type: "text", Text: text}}}
}

func errorReply(id string, err error) reply {
	return reply{ID: id, Error: err.Error()}
}

func resultReply(id string, res gateway.Result) reply {
	segments := make([]segment, 0, len(res.Segments))
	for _, s := range res.Segments {
		if s.IsText() {
			segments = append(segments, segment{Type: "text", Text: s.Text})
		} else {
			segments = append(segments, segment{Type: "image", MediaType: s.MediaType, Data: s.Data})
		}
	}

	return reply{
		ID:        id,
		RequestID: res.RequestID,
		Segments:  segments,
		IsError:   res.IsError,
	}
}
