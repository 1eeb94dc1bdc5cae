// Package rendezvous provides type-safe Go definitions and Redis schema patterns
// for the Drey rendezvous protocol.
//
// # Overview
//
// The rendezvous store is the shared durable state through which the agent-side
// daemon (dreyd) and the human-side responder (drey respond) exchange turn-based
// messages. The two processes never call each other directly: the agent writes a
// Request and polls for a Response; the human discovers pending Requests and
// writes the Response. Either side can restart mid-exchange without losing state.
//
// # Core Concepts
//
// Requests are the agent's side of a turn: a prompt for the human, an optional
// structured payload, and an origin identity. A Request is immutable except for
// its status, which moves from pending to exactly one of completed or cancelled.
//
// Responses are the human's side of a turn: free-form text plus zero or more
// binary attachments. A Response is write-once - the first write for a given
// request ID is permanent and all later writes are rejected. This single
// store-level guarantee is what prevents a human answer and a coordinator
// timeout from both becoming the authoritative outcome of the same Request.
//
// # Multi-Instance Support
//
// All Redis keys are namespaced by instance name so multiple Drey instances can
// safely coexist on a single Redis server without interference.
//
// # Usage Example
//
//	import "github.com/dyluth/drey/pkg/rendezvous"
//
//	// Create a request
//	req := rendezvous.NewRequest("brave-fox-17", "Ship it?", "")
//
//	// Validate before storing
//	if err := req.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
//	// Generate the Redis key for this request
//	key := rendezvous.RequestKey("default", req.RequestID)
//	// key = "drey:default:request:req_<12 hex>"
//
// # Redis Schema
//
// Requests:        drey:{instance_name}:request:{request_id} (hash)
// Responses:       drey:{instance_name}:response:{request_id} (JSON string, SETNX)
// Creation index:  drey:{instance_name}:requests (ZSET scored by created_at_ms)
// Pending index:   drey:{instance_name}:pending (ZSET scored by created_at_ms)
//
// # Design Principles
//
// - Type Safety: All data structures have strong typing with validation methods
// - Write-Once Responses: the SETNX insert is the only cross-process guard needed
// - Auditability: nothing is ever deleted; indexes keep full creation history
// - Isolation: instance namespacing prevents cross-instance interference
package rendezvous
