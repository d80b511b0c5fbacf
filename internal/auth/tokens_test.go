package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RapidSafe/pkg/cache"
)

func TestSeedAndVerify(t *testing.T) {
	c, err := cache.NewCache(cache.Config{Type: "local"})
	require.NoError(t, err)
	s := NewTokenStore(c)
	ctx := context.Background()

	n := s.Seed(ctx, []string{"t1:u1", " t2:u2 ", "broken", ":u3", "t4:"})
	assert.Equal(t, 2, n)

	uid, ok := s.Verify(ctx, "t1")
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)

	uid, ok = s.Verify(ctx, "t2")
	assert.True(t, ok)
	assert.Equal(t, "u2", uid)

	_, ok = s.Verify(ctx, "broken")
	assert.False(t, ok)
	_, ok = s.Verify(ctx, "")
	assert.False(t, ok)

	require.NoError(t, s.Revoke(ctx, "t1"))
	_, ok = s.Verify(ctx, "t1")
	assert.False(t, ok)
}
