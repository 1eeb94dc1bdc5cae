package await

import (
	"fmt"

	"github.com/dyluth/drey/pkg/rendezvous"
)

// Kind identifies the terminal classification of a wait.
// Timeout and cancellation are expected, frequent results and are expressed
// as outcome variants, never as errors: every caller has to handle them the
// same way it handles an answer.
type Kind int

const (
	// KindAnswered indicates a human response with content arrived
	KindAnswered Kind = iota

	// KindEmptyAnswer indicates a human response arrived with no text and no
	// attachments - the conversation is over, nothing further is required
	KindEmptyAnswer

	// KindCancelled indicates the human declined to continue, or the wait
	// itself was cancelled externally
	KindCancelled

	// KindTimedOut indicates no response arrived before the deadline
	KindTimedOut

	// KindFaulted indicates the store stayed unreachable past the retry
	// limit, or failed during terminal resolution
	KindFaulted
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindAnswered:
		return "answered"
	case KindEmptyAnswer:
		return "empty_answer"
	case KindCancelled:
		return "cancelled"
	case KindTimedOut:
		return "timed_out"
	case KindFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the result of a wait. Exactly one Outcome is returned for every
// Await call; Body is populated only for KindAnswered and Err only for
// KindFaulted.
type Outcome struct {
	Kind Kind
	Body rendezvous.Body
	Err  error
}

// Answered builds an Outcome carrying a human answer.
func Answered(body rendezvous.Body) Outcome {
	return Outcome{Kind: KindAnswered, Body: body}
}

// Faulted builds an Outcome for an unrecoverable store failure.
func Faulted(err error) Outcome {
	return Outcome{Kind: KindFaulted, Err: err}
}

// Classify maps a stored response to its outcome. The mapping is
// deterministic: re-classifying the same stored response always yields the
// same result, which is what makes re-entering a wait on an already-resolved
// request idempotent.
func Classify(resp *rendezvous.Response) Outcome {
	if resp.Cancelled {
		return Outcome{Kind: KindCancelled}
	}
	if resp.Body.IsEmpty() {
		return Outcome{Kind: KindEmptyAnswer}
	}
	return Answered(resp.Body)
}
