package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"RapidSafe/pkg/util"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "alerts.db"), &AlertRecord{})
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, CreateAlertRecord(db, &AlertRecord{
		AlertID:           id,
		UserID:            "u1",
		Status:            AlertStatusActive,
		TriggerMethod:     TriggerDuressPin,
		InitialLocation:   Location{Lat: 1, Lng: 2},
		CurrentLocation:   Location{Lat: 1, Lng: 2},
		EmergencyContacts: []string{"+15550001", "+15550002"},
	}))
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "a1")

	rec, err := GetAlertRecord(db, "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550001", "+15550002"}, rec.EmergencyContacts)
	assert.Equal(t, Location{Lat: 1, Lng: 2}, rec.CurrentLocation)
	assert.Nil(t, rec.LastUpdated)

	_, err = GetAlertRecord(db, "missing")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestLocationOnlyMovesForward(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "a1")
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dir := 90.0

	ok, err := UpdateAlertLocation(db, "a1", Location{Lat: 3, Lng: 4}, t0, &dir)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = UpdateAlertLocation(db, "a1", Location{Lat: 9, Lng: 9}, t0, nil)
	require.NoError(t, err)
	assert.False(t, ok, "same timestamp is not newer")

	ok, err = UpdateAlertLocation(db, "a1", Location{Lat: 9, Lng: 9}, t0.Add(-time.Second), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := GetAlertRecord(db, "a1")
	require.NoError(t, err)
	assert.Equal(t, Location{Lat: 3, Lng: 4}, rec.CurrentLocation)
	assert.Equal(t, Location{Lat: 1, Lng: 2}, rec.InitialLocation)
	require.NotNil(t, rec.Direction)
	assert.Equal(t, 90.0, *rec.Direction)
	require.NotNil(t, rec.LastUpdated)
	assert.True(t, rec.LastUpdated.Equal(t0))
}

func TestTransitionStopsUpdates(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "a1")
	seed(t, db, "a2")

	n, err := CountActiveAlerts(db)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	ok, err := TransitionAlertStatus(db, "a1", AlertStatusResolved, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TransitionAlertStatus(db, "a1", AlertStatusCancelled, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = UpdateAlertLocation(db, "a1", Location{Lat: 5, Lng: 5}, time.Now(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = CountActiveAlerts(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, err := ListAlertsByUser(db, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
