package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	require.Error(t, err)
}

func TestLimitsAndPages(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(1000))
	require.Equal(t, 11, LimitWithBuffer(10))

	p := PageParams{Page: 3, Limit: 20}
	require.Equal(t, 40, p.Offset())
	require.Equal(t, 0, PageParams{}.Offset())

	info := NewPageInfo(PageParams{Page: 2, Limit: 20}, 41)
	require.Equal(t, PageInfo{Page: 2, Limit: 20, Total: 41, Pages: 3}, info)
}
