package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RapidSafe/pkg/util"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := util.InitDatabase("sqlite", filepath.Join(t.TempDir(), "device.db"))
	require.NoError(t, err)
	s, err := New(db)
	require.NoError(t, err)
	return s
}

func TestSetPinsRejectsEqual(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.SetPins(ctx, "1234", "1234"), ErrPinsEqual)
	c, err := s.GetCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, c.IsPinSet, "nothing stored after a refused write")
}

func TestSetPinsRejectsMalformed(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, bad := range [][2]string{{"123", "9999"}, {"1234", "99a9"}, {"", ""}, {"12345", "9999"}} {
		assert.ErrorIs(t, s.SetPins(ctx, bad[0], bad[1]), ErrMalformedPin, "%v", bad)
	}
}

func TestSetPinsOverwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetPins(ctx, "1234", "9999"))
	require.NoError(t, s.SetPins(ctx, "4321", "8888"))

	// 拒绝的修改不影响已有 PIN
	require.ErrorIs(t, s.SetPins(ctx, "5555", "5555"), ErrPinsEqual)

	c, err := s.GetCredentials(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsPinSet)
	assert.Equal(t, "4321", c.NormalPin)
	assert.Equal(t, "8888", c.DuressPin)
}

func TestContacts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.AddContact(ctx, "nobody", "  ")
	assert.ErrorIs(t, err, ErrMissingPhone)

	a, err := s.AddContact(ctx, "Ana", "+15550001")
	require.NoError(t, err)
	_, err = s.AddContact(ctx, "Ben", "+15550002")
	require.NoError(t, err)

	list, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, s.RemoveContact(ctx, a.ID))
	assert.ErrorIs(t, s.RemoveContact(ctx, a.ID), ErrContactAbsent)

	list, err = s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ben", list[0].Name)
}
