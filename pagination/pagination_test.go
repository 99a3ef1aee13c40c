package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	t.Run("defaults when no limit supplied", func(t *testing.T) {
		page, err := ParsePage("", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultLimit, page.Limit)
		assert.Empty(t, page.Cursor)
	})

	t.Run("accepts explicit limit", func(t *testing.T) {
		page, err := ParsePage("25", "abc")
		require.NoError(t, err)
		assert.Equal(t, 25, page.Limit)
		assert.Equal(t, "abc", page.Cursor)
	})

	t.Run("caps limit above maximum", func(t *testing.T) {
		page, err := ParsePage("500", "")
		require.NoError(t, err)
		assert.Equal(t, MaxLimit, page.Limit)
	})

	t.Run("accepts limit equal to maximum", func(t *testing.T) {
		page, err := ParsePage("100", "")
		require.NoError(t, err)
		assert.Equal(t, MaxLimit, page.Limit)
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		_, err := ParsePage("many", "")
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("rejects zero limit", func(t *testing.T) {
		_, err := ParsePage("0", "")
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("rejects negative limit", func(t *testing.T) {
		_, err := ParsePage("-5", "")
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("passes cursor through untouched", func(t *testing.T) {
		page, err := ParsePage("", "not-even-base64!!")
		require.NoError(t, err)
		assert.Equal(t, "not-even-base64!!", page.Cursor)
	})
}
