package rendezvous

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-instance", client.InstanceName())
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestCreateRequest(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("creates valid request", func(t *testing.T) {
		req := NewRequest("brave-fox-17", "ping", "")

		err := client.CreateRequest(ctx, req)
		require.NoError(t, err)

		retrieved, err := client.GetRequest(ctx, req.RequestID)
		require.NoError(t, err)
		assert.Equal(t, req, retrieved)
	})

	t.Run("rejects invalid request", func(t *testing.T) {
		req := NewRequest("brave-fox-17", "ping", "")
		req.Prompt = ""

		err := client.CreateRequest(ctx, req)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid request")
	})
}

func TestGetRequest(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("returns not found for unknown request", func(t *testing.T) {
		_, err := client.GetRequest(ctx, NewRequestID())
		assert.True(t, IsNotFound(err))
	})
}

func TestUpdateRequestStatus(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("advances status and updated_at", func(t *testing.T) {
		req := NewRequest("brave-fox-17", "ping", "")
		req.CreatedAtMs = time.Now().Add(-time.Minute).UnixMilli()
		req.UpdatedAtMs = req.CreatedAtMs
		require.NoError(t, client.CreateRequest(ctx, req))

		err := client.UpdateRequestStatus(ctx, req.RequestID, StatusCompleted)
		require.NoError(t, err)

		updated, err := client.GetRequest(ctx, req.RequestID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.Status)
		assert.Greater(t, updated.UpdatedAtMs, updated.CreatedAtMs)
	})

	t.Run("terminal status leaves pending index", func(t *testing.T) {
		req := NewRequest("brave-fox-17", "ping", "")
		require.NoError(t, client.CreateRequest(ctx, req))
		require.NoError(t, client.UpdateRequestStatus(ctx, req.RequestID, StatusCancelled))

		// This request must never be rediscovered
		oldest, err := client.FindOldestPending(ctx)
		if err == nil {
			assert.NotEqual(t, req.RequestID, oldest.RequestID)
		} else {
			assert.True(t, IsNotFound(err))
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		err := client.UpdateRequestStatus(ctx, NewRequestID(), "done")
		assert.Error(t, err)
	})

	t.Run("returns not found for unknown request", func(t *testing.T) {
		err := client.UpdateRequestStatus(ctx, NewRequestID(), StatusCompleted)
		assert.True(t, IsNotFound(err))
	})
}

func TestCreateResponseIfAbsent(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("first write wins", func(t *testing.T) {
		requestID := NewRequestID()
		first := &Response{
			RequestID:   requestID,
			Body:        Body{Text: "pong"},
			CreatedAtMs: time.Now().UnixMilli(),
		}

		stored, err := client.CreateResponseIfAbsent(ctx, first)
		require.NoError(t, err)
		assert.True(t, stored)

		second := NewSyntheticResponse(requestID)
		stored, err = client.CreateResponseIfAbsent(ctx, second)
		require.NoError(t, err)
		assert.False(t, stored, "second write must be rejected")

		// The stored response is the first one, forever
		retrieved, err := client.GetResponse(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, "pong", retrieved.Body.Text)
		assert.False(t, retrieved.Cancelled)
	})

	t.Run("concurrent writers commit exactly one response", func(t *testing.T) {
		requestID := NewRequestID()

		const writers = 8
		results := make([]bool, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				resp := NewSyntheticResponse(requestID)
				stored, err := client.CreateResponseIfAbsent(ctx, resp)
				assert.NoError(t, err)
				results[n] = stored
			}(i)
		}
		wg.Wait()

		winners := 0
		for _, stored := range results {
			if stored {
				winners++
			}
		}
		assert.Equal(t, 1, winners, "exactly one writer must win")
	})

	t.Run("rejects invalid response", func(t *testing.T) {
		resp := &Response{RequestID: "bogus", CreatedAtMs: 1}
		_, err := client.CreateResponseIfAbsent(ctx, resp)
		assert.Error(t, err)
	})
}

func TestGetResponse(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("returns not found before any write", func(t *testing.T) {
		_, err := client.GetResponse(ctx, NewRequestID())
		assert.True(t, IsNotFound(err))
	})

	t.Run("round-trips attachments", func(t *testing.T) {
		requestID := NewRequestID()
		resp := &Response{
			RequestID: requestID,
			Body: Body{
				Text:        "see screenshot",
				Attachments: []Attachment{{MediaType: "image/png", Data: "iVBORw0KGgo="}},
			},
			CreatedAtMs: time.Now().UnixMilli(),
		}

		stored, err := client.CreateResponseIfAbsent(ctx, resp)
		require.NoError(t, err)
		require.True(t, stored)

		retrieved, err := client.GetResponse(ctx, requestID)
		require.NoError(t, err)
		assert.Equal(t, resp, retrieved)
	})
}

func TestFindOldestPending(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("returns not found when nothing pending", func(t *testing.T) {
		_, err := client.FindOldestPending(ctx)
		assert.True(t, IsNotFound(err))
	})

	t.Run("FIFO across creation order", func(t *testing.T) {
		base := time.Now().Add(-time.Hour).UnixMilli()

		makeRequest := func(prompt string, offsetMs int64) *Request {
			req := NewRequest("keen-lynx-23", prompt, "")
			req.CreatedAtMs = base + offsetMs
			req.UpdatedAtMs = req.CreatedAtMs
			require.NoError(t, client.CreateRequest(ctx, req))
			return req
		}

		// Created out of arrival order on purpose
		r2 := makeRequest("second", 2000)
		r1 := makeRequest("first", 1000)
		r3 := makeRequest("third", 3000)

		oldest, err := client.FindOldestPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, r1.RequestID, oldest.RequestID)

		// r1 stays the oldest until it is resolved, regardless of what r3 does
		require.NoError(t, client.UpdateRequestStatus(ctx, r3.RequestID, StatusCompleted))
		oldest, err = client.FindOldestPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, r1.RequestID, oldest.RequestID)

		require.NoError(t, client.UpdateRequestStatus(ctx, r1.RequestID, StatusCompleted))
		oldest, err = client.FindOldestPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, r2.RequestID, oldest.RequestID)
	})
}

func TestSearchPrompts(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UnixMilli()
	seed := func(origin, prompt string, offsetMs int64) *Request {
		req := NewRequest(origin, prompt, "")
		req.CreatedAtMs = base + offsetMs
		req.UpdatedAtMs = req.CreatedAtMs
		require.NoError(t, client.CreateRequest(ctx, req))
		return req
	}

	seed("brave-fox-17", "refactored the login module", 1000)
	newer := seed("swift-owl-42", "refactored the login module again", 2000)
	seed("", "refactored the login anonymously", 3000)
	seed("calm-deer-88", "wrote documentation", 4000)

	t.Run("matches newest first", func(t *testing.T) {
		matches, err := client.SearchPrompts(ctx, "refactored the login")
		require.NoError(t, err)
		require.Len(t, matches, 2, "empty-origin requests are excluded")
		assert.Equal(t, newer.RequestID, matches[0].RequestID)
	})

	t.Run("no matches returns empty", func(t *testing.T) {
		matches, err := client.SearchPrompts(ctx, "database migration")
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestListRequests(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UnixMilli()
	for i, prompt := range []string{"one", "two", "three"} {
		req := NewRequest("brave-fox-17", prompt, "")
		req.CreatedAtMs = base + int64(i*1000)
		req.UpdatedAtMs = req.CreatedAtMs
		require.NoError(t, client.CreateRequest(ctx, req))
	}

	requests, err := client.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 3)
	assert.Equal(t, "three", requests[0].Prompt)
	assert.Equal(t, "one", requests[2].Prompt)
}
