package geo

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrNoFix = errors.New("no position fix available")

// Position is one location fix.
type Position struct {
	Lat       float64
	Lng       float64
	Heading   *float64
	Timestamp time.Time
}

// FixProvider yields a one-shot best-effort fix.
type FixProvider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Permissions is the platform's two-step location grant. Background must
// only be requested after foreground was granted.
type Permissions interface {
	RequestForeground(ctx context.Context) (bool, error)
	RequestBackground(ctx context.Context) (bool, error)
}

// WatchOptions are the emission thresholds of a recurring registration:
// an emission happens when either is crossed.
type WatchOptions struct {
	MinInterval time.Duration
	MinDistance float64 // meters
}

// Tracker registers a recurring position callback. The returned stop
// function unregisters it and is safe to call more than once.
type Tracker interface {
	Watch(ctx context.Context, opts WatchOptions, cb func(Position)) (stop func(), err error)
}

// FixWithTimeout asks p for a fix bounded by timeout.
func FixWithTimeout(ctx context.Context, p FixProvider, timeout time.Duration) (Position, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type result struct {
		pos Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := p.CurrentPosition(ctx)
		ch <- result{pos, err}
	}()
	select {
	case r := <-ch:
		return r.pos, r.err
	case <-ctx.Done():
		return Position{}, ctx.Err()
	}
}

// DistanceMeters is the great-circle distance between two fixes.
func DistanceMeters(a, b Position) float64 {
	return haversine(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// haversine returns the distance between two coordinates in kilometers.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1 = lat1 * (math.Pi / 180.0)
	lat2 = lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
