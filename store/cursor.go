package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Cursors are opaque to callers: base64url over a versioned offset.
// Anything that does not decode cleanly is ErrInvalidCursor.

const cursorVersion = "v1"

// EncodeCursor encodes a result-set offset into an opaque cursor token
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%d", cursorVersion, offset)))
}

// DecodeCursor decodes a cursor token back into an offset. An empty
// cursor means the start of the result set.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}
	version, rest, ok := strings.Cut(string(raw), ":")
	if !ok || version != cursorVersion {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}
	offset, err := strconv.Atoi(rest)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCursor, cursor)
	}
	return offset, nil
}
