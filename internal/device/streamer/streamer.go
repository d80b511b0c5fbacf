// Package streamer pushes live position updates into one alert record at a
// time.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/device/geo"
	"RapidSafe/internal/models"
	"RapidSafe/pkg/logger"
)

var ErrPermissionDenied = errors.New("permission_denied")

type State int

const (
	Idle State = iota
	RequestingPermission
	Active
)

func (s State) String() string {
	switch s {
	case RequestingPermission:
		return "requesting_permission"
	case Active:
		return "active"
	default:
		return "idle"
	}
}

// LocationPusher writes one update into the alert record.
type LocationPusher interface {
	PushLocation(ctx context.Context, alertID string, upd alerting.LocationUpdate) (bool, error)
}

type Config struct {
	MinInterval time.Duration // 默认 5s
	MinDistance float64       // 米，默认 5
	PushTimeout time.Duration
}

// session is the owned handle of one streaming run.
type session struct {
	alertID string
	ctx     context.Context
	cancel  context.CancelFunc
	stop    func()
}

type Streamer struct {
	perms   geo.Permissions
	tracker geo.Tracker
	pusher  LocationPusher
	cfg     Config

	mu      sync.Mutex // serialises Start/Stop
	state   State
	current atomic.Pointer[session]
}

func New(perms geo.Permissions, tracker geo.Tracker, pusher LocationPusher, cfg Config) *Streamer {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 5 * time.Second
	}
	if cfg.MinDistance <= 0 {
		cfg.MinDistance = 5
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 30 * time.Second
	}
	return &Streamer{perms: perms, tracker: tracker, pusher: pusher, cfg: cfg}
}

// Start binds the streamer to alertID. A running session is stopped first,
// so the previous alert receives no further updates. The session outlives
// ctx; it ends only through Stop or Close.
func (s *Streamer) Start(ctx context.Context, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.state = RequestingPermission

	if err := s.requestPermissions(ctx); err != nil {
		s.state = Idle
		return err
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{alertID: alertID, ctx: sctx, cancel: cancel}
	stop, err := s.tracker.Watch(sctx, geo.WatchOptions{MinInterval: s.cfg.MinInterval, MinDistance: s.cfg.MinDistance},
		func(pos geo.Position) { s.onPosition(sess, pos) })
	if err != nil {
		cancel()
		s.state = Idle
		return fmt.Errorf("register location updates: %w", err)
	}
	sess.stop = stop
	s.current.Store(sess)
	s.state = Active
	logger.Info("location streaming started", zap.String("alert_id", alertID))
	return nil
}

// 先前台后后台，前台被拒时不请求后台
func (s *Streamer) requestPermissions(ctx context.Context) error {
	ok, err := s.perms.RequestForeground(ctx)
	if err != nil || !ok {
		return errors.Join(ErrPermissionDenied, err)
	}
	ok, err = s.perms.RequestBackground(ctx)
	if err != nil || !ok {
		return errors.Join(ErrPermissionDenied, err)
	}
	return nil
}

// Stop unregisters the callback and unbinds the alert. Stopping an idle
// streamer is a no-op.
func (s *Streamer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return nil
}

// Close ends any session on process shutdown.
func (s *Streamer) Close() error { return s.Stop() }

func (s *Streamer) stopLocked() {
	sess := s.current.Swap(nil)
	s.state = Idle
	if sess == nil {
		return
	}
	sess.cancel()
	if sess.stop != nil {
		sess.stop()
	}
	logger.Info("location streaming stopped", zap.String("alert_id", sess.alertID))
}

// AlertID returns the bound alert, "" when idle.
func (s *Streamer) AlertID() string {
	if sess := s.current.Load(); sess != nil {
		return sess.alertID
	}
	return ""
}

func (s *Streamer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Streamer) onPosition(sess *session, pos geo.Position) {
	// 会话已解绑时丢弃迟到的回调
	if s.current.Load() != sess {
		logger.Debug("discard location update, no bound alert")
		return
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}
	upd := alerting.LocationUpdate{
		CurrentLocation: models.Location{Lat: pos.Lat, Lng: pos.Lng},
		LastUpdated:     pos.Timestamp.UTC(),
		Direction:       pos.Heading,
	}
	ctx, cancel := context.WithTimeout(sess.ctx, s.cfg.PushTimeout)
	defer cancel()
	if _, err := s.pusher.PushLocation(ctx, sess.alertID, upd); err != nil {
		// 不在回调内重试，下一次回调会带着更新的位置重试
		logger.Warn("push location failed", zap.String("alert_id", sess.alertID), zap.Error(err))
	}
}
