package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		got, err := Parse("2026-08-31T13:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC).UnixMilli(), got)
	})

	t.Run("duration is relative to now", func(t *testing.T) {
		before := time.Now().Add(-time.Hour).UnixMilli()
		got, err := Parse("1h")
		require.NoError(t, err)
		after := time.Now().Add(-time.Hour).UnixMilli()
		assert.GreaterOrEqual(t, got, before)
		assert.LessOrEqual(t, got, after)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse("")
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Parse("next tuesday")
		assert.Error(t, err)
	})
}

func TestParseRange(t *testing.T) {
	t.Run("both bounds", func(t *testing.T) {
		since, until, err := ParseRange("2h", "1h")
		require.NoError(t, err)
		assert.Less(t, since, until)
	})

	t.Run("no bounds", func(t *testing.T) {
		since, until, err := ParseRange("", "")
		require.NoError(t, err)
		assert.Zero(t, since)
		assert.Zero(t, until)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, _, err := ParseRange("1h", "2h")
		assert.ErrorContains(t, err, "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, _, err := ParseRange("soon", "")
		assert.ErrorContains(t, err, "invalid --since")
	})
}
