package rendezvous

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHashRoundTrip(t *testing.T) {
	original := NewRequest("swift-owl-42", "Deploy to staging?", `{"type":"confirm","text":"Proceed?"}`)

	hash := RequestToHash(original)

	// Simulate the string-to-string map Redis hands back
	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		stringHash[k] = fmt.Sprintf("%v", v)
	}

	restored, err := HashToRequest(stringHash)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestHashToRequest(t *testing.T) {
	t.Run("rejects malformed created_at_ms", func(t *testing.T) {
		_, err := HashToRequest(map[string]string{
			"created_at_ms": "yesterday",
			"updated_at_ms": "1",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "created_at_ms")
	})

	t.Run("rejects malformed updated_at_ms", func(t *testing.T) {
		_, err := HashToRequest(map[string]string{
			"created_at_ms": "1",
			"updated_at_ms": "",
		})
		assert.Error(t, err)
	})
}

func TestResponseRoundTrip(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		original := &Response{
			RequestID: NewRequestID(),
			Body: Body{
				Text: "looks good, ship it",
				Attachments: []Attachment{
					{MediaType: "image/png", Data: "iVBORw0KGgo="},
					{MediaType: "image/jpeg", Data: "/9j/4AAQ"},
				},
			},
			CreatedAtMs: 1700000000000,
		}

		data, err := MarshalResponse(original)
		require.NoError(t, err)

		restored, err := UnmarshalResponse(data)
		require.NoError(t, err)
		assert.Equal(t, original, restored)
	})

	t.Run("nil attachments normalized to empty slice", func(t *testing.T) {
		original := &Response{
			RequestID:   NewRequestID(),
			Body:        Body{Text: "no images"},
			CreatedAtMs: 1,
		}

		data, err := MarshalResponse(original)
		require.NoError(t, err)

		restored, err := UnmarshalResponse(data)
		require.NoError(t, err)
		assert.NotNil(t, restored.Body.Attachments)
		assert.Empty(t, restored.Body.Attachments)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := UnmarshalResponse("{not json")
		assert.Error(t, err)
	})
}
