package store

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 50, 99999} {
		cursor := EncodeCursor(offset)
		got, err := DecodeCursor(cursor)
		require.NoError(t, err)
		assert.Equal(t, offset, got)
	}
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty cursor means start", func(t *testing.T) {
		offset, err := DecodeCursor("")
		require.NoError(t, err)
		assert.Zero(t, offset)
	})

	t.Run("rejects non-base64 input", func(t *testing.T) {
		_, err := DecodeCursor("!!!not-base64!!!")
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects unknown version", func(t *testing.T) {
		cursor := base64.RawURLEncoding.EncodeToString([]byte("v9:10"))
		_, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects missing separator", func(t *testing.T) {
		cursor := base64.RawURLEncoding.EncodeToString([]byte("v1"))
		_, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects non-numeric offset", func(t *testing.T) {
		cursor := base64.RawURLEncoding.EncodeToString([]byte("v1:ten"))
		_, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})

	t.Run("rejects negative offset", func(t *testing.T) {
		cursor := base64.RawURLEncoding.EncodeToString([]byte("v1:-3"))
		_, err := DecodeCursor(cursor)
		assert.ErrorIs(t, err, ErrInvalidCursor)
	})
}
