package geo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	mu   sync.Mutex
	pos  Position
	err  error
	wait time.Duration
}

func (s *scriptedProvider) set(p Position) {
	s.mu.Lock()
	s.pos = p
	s.mu.Unlock()
}

func (s *scriptedProvider) CurrentPosition(ctx context.Context) (Position, error) {
	if s.wait > 0 {
		select {
		case <-time.After(s.wait):
		case <-ctx.Done():
			return Position{}, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos, s.err
}

func TestDistanceMeters(t *testing.T) {
	// 经度 0.001 度在赤道约 111 米
	d := DistanceMeters(Position{Lat: 0, Lng: 0}, Position{Lat: 0, Lng: 0.001})
	assert.InDelta(t, 111.19, d, 0.5)
	assert.Zero(t, DistanceMeters(Position{Lat: 10, Lng: 10}, Position{Lat: 10, Lng: 10}))
}

func TestFixWithTimeout(t *testing.T) {
	slow := &scriptedProvider{wait: time.Second}
	_, err := FixWithTimeout(context.Background(), slow, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	broken := &scriptedProvider{err: errors.New("gps off")}
	_, err = FixWithTimeout(context.Background(), broken, time.Second)
	assert.EqualError(t, err, "gps off")

	ok := &scriptedProvider{pos: Position{Lat: 1, Lng: 2}}
	pos, err := FixWithTimeout(context.Background(), ok, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pos.Lat)
}

func TestPollingTrackerThresholds(t *testing.T) {
	p := &scriptedProvider{pos: Position{Lat: 0, Lng: 0}}
	tr := NewPollingTracker(p, 5*time.Millisecond)

	var mu sync.Mutex
	var got []Position
	stop, err := tr.Watch(context.Background(), WatchOptions{MinInterval: time.Hour, MinDistance: 5}, func(pos Position) {
		mu.Lock()
		got = append(got, pos)
		mu.Unlock()
	})
	require.NoError(t, err)
	count := func() int { mu.Lock(); defer mu.Unlock(); return len(got) }

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, count(), "stationary target below both thresholds")

	p.set(Position{Lat: 0, Lng: 0.001}) // ~111m
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, time.Millisecond)

	stop()
	stop()
	n := count()
	p.set(Position{Lat: 1, Lng: 1})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, count(), "no emissions after stop")
}

func TestPollingTrackerHeartbeat(t *testing.T) {
	p := &scriptedProvider{pos: Position{Lat: 5, Lng: 5}}
	tr := NewPollingTracker(p, 2*time.Millisecond)
	var mu sync.Mutex
	n := 0
	stop, err := tr.Watch(context.Background(), WatchOptions{MinInterval: 10 * time.Millisecond, MinDistance: 1000}, func(Position) {
		mu.Lock()
		n++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer stop()
	require.Eventually(t, func() bool { mu.Lock(); defer mu.Unlock(); return n >= 3 }, time.Second, time.Millisecond)
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fix.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"lat":48.85,"lng":2.35,"heading":270}`), 0o600))

	pos, err := FileProvider{Path: path}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48.85, pos.Lat)
	require.NotNil(t, pos.Heading)
	assert.Equal(t, 270.0, *pos.Heading)
	assert.False(t, pos.Timestamp.IsZero())

	_, err = FileProvider{}.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, ErrNoFix)
}
