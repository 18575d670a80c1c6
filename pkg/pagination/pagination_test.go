package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 11, FetchSize(10))
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2024, 1, 5, 10, 30, 0, 123, time.FixedZone("WIB", 7*3600)),
		ID:        uuid.New(),
	}
	encoded := EncodeCursor(in)
	assert.False(t, strings.ContainsAny(encoded, "+/="), encoded)

	out, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	out, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)

	for _, raw := range []string{
		"%%%",
		base64.RawURLEncoding.EncodeToString([]byte("no-json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"c":"2024-01-05T00:00:00Z"}`)),
	} {
		_, err := ParseCursor(raw)
		assert.True(t, errors.Is(err, ErrInvalidCursor), raw)
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	key := func(id uuid.UUID) Cursor { return Cursor{CreatedAt: base, ID: id} }

	page, next := Trim(ids, 2, key)
	assert.Equal(t, ids[:2], page)
	require.NotNil(t, next)
	assert.Equal(t, ids[1], next.ID)

	page, next = Trim(ids[:2], 2, key)
	assert.Len(t, page, 2)
	assert.Nil(t, next)
}
