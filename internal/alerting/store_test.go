package alerting

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

// Both stores must agree on the monotonic and terminal-state rules.
func TestStoresAgree(t *testing.T) {
	db, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "a.db"), &models.AlertRecord{})
	require.NoError(t, err)

	stores := map[string]Store{"memory": NewMemoryStore(), "gorm": NewGormStore(db)}
	t0 := time.Date(2026, 2, 2, 2, 2, 2, 100_000, time.UTC)

	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, st.Create(ctx, &models.AlertRecord{AlertID: "a1", UserID: "u1", Status: models.AlertStatusActive, TriggerMethod: models.TriggerNormalSOS}))

			ok, err := st.UpdateLocation(ctx, "a1", models.Location{Lat: 1, Lng: 1}, t0, nil)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = st.UpdateLocation(ctx, "a1", models.Location{Lat: 2, Lng: 2}, t0, nil)
			require.NoError(t, err)
			assert.False(t, ok)

			// 亚毫秒级更新同样有效
			ok, err = st.UpdateLocation(ctx, "a1", models.Location{Lat: 4, Lng: 4}, t0.Add(500*time.Microsecond), nil)
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = st.UpdateLocation(ctx, "a1", models.Location{Lat: 5, Lng: 5}, t0.Add(400*time.Microsecond), nil)
			require.NoError(t, err)
			assert.False(t, ok)

			rec, err := st.Get(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, models.Location{Lat: 4, Lng: 4}, rec.CurrentLocation)

			n, err := st.CountActive(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, n)

			ok, err = st.Transition(ctx, "a1", models.AlertStatusCancelled, t0)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = st.UpdateLocation(ctx, "a1", models.Location{Lat: 3, Lng: 3}, t0.Add(time.Hour), nil)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = st.Get(ctx, "zzz")
			assert.ErrorIs(t, err, models.ErrAlertNotFound)
		})
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.Create(ctx, &models.AlertRecord{AlertID: "a1", Status: models.AlertStatusActive, EmergencyContacts: []string{"+1", "+2"}}))

	rec, err := st.Get(ctx, "a1")
	require.NoError(t, err)
	rec.EmergencyContacts[0] = "+9"

	again, err := st.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"+1", "+2"}, again.EmergencyContacts)
}
