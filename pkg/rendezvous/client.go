package rendezvous

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for the rendezvous store.
// All keys are automatically namespaced with the instance name. The client is
// thread-safe and can be used concurrently from multiple goroutines: each
// waiting caller polls only its own request ID, and the single contention
// point (the response insert) is atomic at the Redis level.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new rendezvous client for the specified instance.
// The client automatically namespaces all keys with the instance name.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: Drey instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
// Returns an error if Redis is not reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// InstanceName returns the instance this client is scoped to.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// CreateRequest writes a request to Redis and registers it in the creation
// and pending indexes. Validates the request before writing.
//
// The request is stored as a Redis hash at drey:{instance}:request:{request_id}.
// The indexes are ZSETs scored by created_at_ms, which gives FIFO discovery
// for the responder and newest-first ordering for historical queries.
func (c *Client) CreateRequest(ctx context.Context, r *Request) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	key := RequestKey(c.instanceName, r.RequestID)
	if err := c.rdb.HSet(ctx, key, RequestToHash(r)).Err(); err != nil {
		return fmt.Errorf("failed to write request to Redis: %w", err)
	}

	member := redis.Z{Score: float64(r.CreatedAtMs), Member: r.RequestID}

	if err := c.rdb.ZAdd(ctx, RequestsByCreationKey(c.instanceName), member).Err(); err != nil {
		return fmt.Errorf("failed to index request: %w", err)
	}

	if r.Status == StatusPending {
		if err := c.rdb.ZAdd(ctx, PendingRequestsKey(c.instanceName), member).Err(); err != nil {
			return fmt.Errorf("failed to add request to pending index: %w", err)
		}
	}

	return nil
}

// GetRequest retrieves a request by its caller-visible request ID.
// Returns (nil, redis.Nil) if the request doesn't exist.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	key := RequestKey(c.instanceName, requestID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read request from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	request, err := HashToRequest(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize request: %w", err)
	}

	return request, nil
}

// RequestExists checks if a request exists without fetching it.
func (c *Client) RequestExists(ctx context.Context, requestID string) (bool, error) {
	key := RequestKey(c.instanceName, requestID)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check request existence: %w", err)
	}
	return exists > 0, nil
}

// UpdateRequestStatus advances a request's status and updated_at timestamp.
// When the new status is terminal the request is removed from the pending
// index so FIFO discovery never returns it again. No other request field is
// ever modified after creation.
//
// Returns redis.Nil if the request doesn't exist.
func (c *Client) UpdateRequestStatus(ctx context.Context, requestID string, status RequestStatus) error {
	if err := status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	key := RequestKey(c.instanceName, requestID)

	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check request existence: %w", err)
	}
	if exists == 0 {
		return redis.Nil
	}

	fields := map[string]interface{}{
		"status":        string(status),
		"updated_at_ms": time.Now().UnixMilli(),
	}
	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	if status.IsTerminal() {
		if err := c.rdb.ZRem(ctx, PendingRequestsKey(c.instanceName), requestID).Err(); err != nil {
			return fmt.Errorf("failed to remove request from pending index: %w", err)
		}
	}

	return nil
}

// CreateResponseIfAbsent writes a response if and only if no response exists
// yet for its request ID. Returns true if this call's response was stored,
// false if an earlier response already occupied the slot (the write is then
// a silent no-op and the caller's response is discarded).
//
// This is the write-once guard for the whole protocol: the insert uses SETNX
// so first-writer-wins is decided atomically inside Redis, never by a
// check-then-act sequence in application code.
func (c *Client) CreateResponseIfAbsent(ctx context.Context, r *Response) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, fmt.Errorf("invalid response: %w", err)
	}

	data, err := MarshalResponse(r)
	if err != nil {
		return false, fmt.Errorf("failed to serialize response: %w", err)
	}

	key := ResponseKey(c.instanceName, r.RequestID)
	stored, err := c.rdb.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to write response to Redis: %w", err)
	}

	return stored, nil
}

// GetResponse retrieves the response for a request ID.
// Returns (nil, redis.Nil) if no response exists yet.
func (c *Client) GetResponse(ctx context.Context, requestID string) (*Response, error) {
	key := ResponseKey(c.instanceName, requestID)

	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read response from Redis: %w", err)
	}

	response, err := UnmarshalResponse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}

	return response, nil
}

// ResponseExists checks if a response exists without fetching it.
func (c *Client) ResponseExists(ctx context.Context, requestID string) (bool, error) {
	key := ResponseKey(c.instanceName, requestID)
	exists, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check response existence: %w", err)
	}
	return exists > 0, nil
}

// FindOldestPending returns the pending request with the earliest creation
// time, or (nil, redis.Nil) if no requests are pending. Oldest-first
// discovery guarantees FIFO fairness across concurrently pending requests
// from multiple agents.
func (c *Client) FindOldestPending(ctx context.Context) (*Request, error) {
	ids, err := c.rdb.ZRange(ctx, PendingRequestsKey(c.instanceName), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pending index: %w", err)
	}

	if len(ids) == 0 {
		return nil, redis.Nil
	}

	return c.GetRequest(ctx, ids[0])
}

// SearchPrompts scans historical requests newest-first and returns those with
// a non-empty origin whose prompt contains the given substring. Backs the
// identity-recovery flow: an agent that forgot its origin ID describes prior
// work and gets back the most recent matching identity.
func (c *Client) SearchPrompts(ctx context.Context, substring string) ([]*Request, error) {
	ids, err := c.rdb.ZRevRange(ctx, RequestsByCreationKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read request index: %w", err)
	}

	var matches []*Request
	for _, id := range ids {
		request, err := c.GetRequest(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// Index entry with no hash - skip rather than fail the search
				continue
			}
			return nil, err
		}

		if request.OriginID == "" {
			continue
		}

		if strings.Contains(request.Prompt, substring) {
			matches = append(matches, request)
		}
	}

	return matches, nil
}

// ListRequests returns all requests for the instance, newest first.
// Used by the inspection CLI; not part of the wait protocol.
func (c *Client) ListRequests(ctx context.Context) ([]*Request, error) {
	ids, err := c.rdb.ZRevRange(ctx, RequestsByCreationKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read request index: %w", err)
	}

	requests := make([]*Request, 0, len(ids))
	for _, id := range ids {
		request, err := c.GetRequest(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		requests = append(requests, request)
	}

	return requests, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error
// (redis.Nil). Use this to check if GetRequest, GetResponse, or
// FindOldestPending returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
