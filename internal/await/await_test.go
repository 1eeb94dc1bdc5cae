package await

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/drey/pkg/rendezvous"
)

const testPollInterval = 5 * time.Millisecond

func setupCoordinator(t *testing.T) (*Coordinator, *rendezvous.Client) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	store, err := rendezvous.NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return New(store, testPollInterval), store
}

func createPendingRequest(t *testing.T, store *rendezvous.Client, prompt string) *rendezvous.Request {
	req := rendezvous.NewRequest("brave-fox-17", prompt, "")
	require.NoError(t, store.CreateRequest(context.Background(), req))
	return req
}

func TestAwaitAnswered(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	req := createPendingRequest(t, store, "ping")

	// Responder answers while the coordinator is waiting
	go func() {
		time.Sleep(20 * time.Millisecond)
		resp := &rendezvous.Response{
			RequestID:   req.RequestID,
			Body:        rendezvous.Body{Text: "pong"},
			CreatedAtMs: time.Now().UnixMilli(),
		}
		stored, err := store.CreateResponseIfAbsent(ctx, resp)
		assert.NoError(t, err)
		assert.True(t, stored)
	}()

	outcome := coord.Await(ctx, req.RequestID, 10*time.Second)
	assert.Equal(t, KindAnswered, outcome.Kind)
	assert.Equal(t, "pong", outcome.Body.Text)
}

func TestAwaitClassification(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	t.Run("cancelled response", func(t *testing.T) {
		req := createPendingRequest(t, store, "anyone there?")
		_, err := store.CreateResponseIfAbsent(ctx, rendezvous.NewSyntheticResponse(req.RequestID))
		require.NoError(t, err)

		outcome := coord.Await(ctx, req.RequestID, time.Second)
		assert.Equal(t, KindCancelled, outcome.Kind)
	})

	t.Run("empty answer", func(t *testing.T) {
		req := createPendingRequest(t, store, "final summary")
		resp := &rendezvous.Response{
			RequestID:   req.RequestID,
			Body:        rendezvous.Body{Text: "   "},
			CreatedAtMs: time.Now().UnixMilli(),
		}
		_, err := store.CreateResponseIfAbsent(ctx, resp)
		require.NoError(t, err)

		outcome := coord.Await(ctx, req.RequestID, time.Second)
		assert.Equal(t, KindEmptyAnswer, outcome.Kind)
	})

	t.Run("attachments without text are an answer", func(t *testing.T) {
		req := createPendingRequest(t, store, "send a screenshot")
		resp := &rendezvous.Response{
			RequestID: req.RequestID,
			Body: rendezvous.Body{
				Attachments: []rendezvous.Attachment{{MediaType: "image/png", Data: "iVBORw0KGgo="}},
			},
			CreatedAtMs: time.Now().UnixMilli(),
		}
		_, err := store.CreateResponseIfAbsent(ctx, resp)
		require.NoError(t, err)

		outcome := coord.Await(ctx, req.RequestID, time.Second)
		assert.Equal(t, KindAnswered, outcome.Kind)
		assert.Len(t, outcome.Body.Attachments, 1)
	})
}

func TestAwaitTimeout(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	req := createPendingRequest(t, store, "no one is listening")

	outcome := coord.Await(ctx, req.RequestID, 30*time.Millisecond)
	assert.Equal(t, KindTimedOut, outcome.Kind)

	// The timeout left a permanent cancelled response behind
	resp, err := store.GetResponse(ctx, req.RequestID)
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)
	assert.True(t, resp.Body.IsEmpty())

	// And the request reached its terminal status
	stored, err := store.GetRequest(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, rendezvous.StatusCancelled, stored.Status)
}

func TestAwaitExternalCancellation(t *testing.T) {
	coord, store := setupCoordinator(t)

	req := createPendingRequest(t, store, "shutting down soon")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	outcome := coord.Await(ctx, req.RequestID, 0)
	assert.Equal(t, KindCancelled, outcome.Kind)

	// Cancellation leaves the same synthetic response a timeout would
	resp, err := store.GetResponse(context.Background(), req.RequestID)
	require.NoError(t, err)
	assert.True(t, resp.Cancelled)

	stored, err := store.GetRequest(context.Background(), req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, rendezvous.StatusCancelled, stored.Status)
}

func TestResolveLosesWriteRace(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	req := createPendingRequest(t, store, "race me")

	// A human answer commits first
	human := &rendezvous.Response{
		RequestID:   req.RequestID,
		Body:        rendezvous.Body{Text: "actually, continue"},
		CreatedAtMs: time.Now().UnixMilli(),
	}
	stored, err := store.CreateResponseIfAbsent(ctx, human)
	require.NoError(t, err)
	require.True(t, stored)

	// The timeout fires anyway; its classification must reflect the stored answer
	outcome := coord.resolve(req.RequestID, KindTimedOut)
	assert.Equal(t, KindAnswered, outcome.Kind)
	assert.Equal(t, "actually, continue", outcome.Body.Text)

	// The human's response is untouched
	resp, err := store.GetResponse(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "actually, continue", resp.Body.Text)
	assert.False(t, resp.Cancelled)
}

func TestAwaitIdempotentReWait(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	req := createPendingRequest(t, store, "answer once")
	resp := &rendezvous.Response{
		RequestID:   req.RequestID,
		Body:        rendezvous.Body{Text: "pong"},
		CreatedAtMs: time.Now().UnixMilli(),
	}
	_, err := store.CreateResponseIfAbsent(ctx, resp)
	require.NoError(t, err)

	first := coord.Await(ctx, req.RequestID, time.Second)
	second := coord.Await(ctx, req.RequestID, time.Second)

	assert.Equal(t, first, second, "repeated waits must classify identically")

	// No additional writes: the stored response is bit-for-bit the original
	stored, err := store.GetResponse(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, resp, stored)
}

func TestAwaitOutcomeTotality(t *testing.T) {
	coord, store := setupCoordinator(t)
	ctx := context.Background()

	// Every bounded wait terminates even when nothing ever answers
	req := createPendingRequest(t, store, "void")

	done := make(chan Outcome, 1)
	go func() {
		done <- coord.Await(ctx, req.RequestID, 50*time.Millisecond)
	}()

	select {
	case outcome := <-done:
		assert.Equal(t, KindTimedOut, outcome.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("bounded wait did not terminate")
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "answered", KindAnswered.String())
	assert.Equal(t, "empty_answer", KindEmptyAnswer.String())
	assert.Equal(t, "cancelled", KindCancelled.String())
	assert.Equal(t, "timed_out", KindTimedOut.String())
	assert.Equal(t, "faulted", KindFaulted.String())
}
