package rendezvous

import "fmt"

// Redis key pattern helpers
//
// All Redis keys are namespaced by instance name to enable multiple Drey
// instances to safely coexist on a single Redis server.
//
// Key pattern: drey:{instance_name}:{entity}:{request_id}
// Index pattern: drey:{instance_name}:{index_name}

// RequestKey returns the Redis key for a request hash.
// Pattern: drey:{instance_name}:request:{request_id}
func RequestKey(instanceName, requestID string) string {
	return fmt.Sprintf("drey:%s:request:%s", instanceName, requestID)
}

// ResponseKey returns the Redis key for a response value.
// Responses are stored as a single JSON string written with SETNX, so the
// insert is atomic and first-writer-wins.
// Pattern: drey:{instance_name}:response:{request_id}
func ResponseKey(instanceName, requestID string) string {
	return fmt.Sprintf("drey:%s:response:%s", instanceName, requestID)
}

// RequestsByCreationKey returns the Redis key for the creation-ordered request
// index. Members are request IDs, scores are created_at_ms. The index is
// append-only and backs newest-first historical queries (identity recall).
// Pattern: drey:{instance_name}:requests
func RequestsByCreationKey(instanceName string) string {
	return fmt.Sprintf("drey:%s:requests", instanceName)
}

// PendingRequestsKey returns the Redis key for the pending request index.
// Members are request IDs, scores are created_at_ms. Requests are removed
// from this index when they reach a terminal status, so the lowest score is
// always the oldest pending request (FIFO discovery).
// Pattern: drey:{instance_name}:pending
func PendingRequestsKey(instanceName string) string {
	return fmt.Sprintf("drey:%s:pending", instanceName)
}
