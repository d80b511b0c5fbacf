package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileProvider re-reads a JSON fix {"lat":..,"lng":..,"heading":..} on
// every request. It lets the agent run against a position feed written by
// another process or a test harness.
type FileProvider struct {
	Path string
}

type fileFix struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Heading *float64 `json:"heading,omitempty"`
}

func (f FileProvider) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if f.Path == "" {
		return Position{}, ErrNoFix
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Position{}, fmt.Errorf("read fix file: %w", err)
	}
	var fx fileFix
	if err := json.Unmarshal(b, &fx); err != nil {
		return Position{}, fmt.Errorf("parse fix file: %w", err)
	}
	return Position{Lat: fx.Lat, Lng: fx.Lng, Heading: fx.Heading, Timestamp: time.Now().UTC()}, nil
}

// StaticPermissions answers permission requests from fixed values and
// records the order in which they were asked.
type StaticPermissions struct {
	Foreground bool
	Background bool

	mu    sync.Mutex
	asked []string
}

func (p *StaticPermissions) RequestForeground(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, "foreground")
	return p.Foreground, nil
}

func (p *StaticPermissions) RequestBackground(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, "background")
	return p.Background, nil
}

// Asked returns the permission requests in order.
func (p *StaticPermissions) Asked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.asked...)
}
