package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RapidSafe/internal/models"
	"RapidSafe/pkg/util"
)

func TestNewestFirst(t *testing.T) {
	db, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	l, err := New(db)
	require.NoError(t, err)

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i, typ := range []string{models.HistoryTypeSOS, models.HistoryTypeDuress, models.HistoryTypeSOS} {
		at := base.Add(time.Duration(i) * time.Minute)
		l.now = func() time.Time { return at }
		_, err := l.Append(context.Background(), models.HistoryEntry{Type: typ, Description: typ, Recipients: []string{"A", "B"}})
		require.NoError(t, err)
	}

	list, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Timestamp.After(list[1].Timestamp))
	assert.True(t, list[1].Timestamp.After(list[2].Timestamp))
	assert.Equal(t, models.HistoryStatusSent, list[0].Status)
	assert.Equal(t, []string{"A", "B"}, list[0].Recipients)

	top, err := l.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, list[0].ID, top[0].ID)
}
