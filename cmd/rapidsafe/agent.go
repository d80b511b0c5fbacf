package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"RapidSafe/internal/device/dispatch"
	"RapidSafe/internal/device/geo"
	"RapidSafe/internal/device/history"
	"RapidSafe/internal/device/settings"
	"RapidSafe/internal/device/streamer"
	"RapidSafe/internal/rpc"
	"RapidSafe/pkg/config"
	"RapidSafe/pkg/grpcx"
	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/util"
)

// agent wires the device components for one command run.
type agent struct {
	cfg      *config.AgentConfig
	settings *settings.Store
	history  *history.Log

	streamer *streamer.Streamer
	client   *dispatch.Client
	conn     *grpc.ClientConn
}

// pusherBackend is what both transports provide.
type pusherBackend interface {
	dispatch.Backend
	streamer.LocationPusher
}

func openAgent(cfg *config.AgentConfig) (*agent, error) {
	if err := logger.Init(cfg.Log, "debug"); err != nil {
		return nil, err
	}
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := util.InitDatabase("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open device db: %w", err)
	}
	st, err := settings.New(db)
	if err != nil {
		return nil, err
	}
	h, err := history.New(db)
	if err != nil {
		return nil, err
	}
	return &agent{cfg: cfg, settings: st, history: h}, nil
}

// connect builds the dispatch client on the configured transport.
func (a *agent) connect() error {
	if a.cfg.UserID == "" {
		return fmt.Errorf("AGENT_USER_ID is not set")
	}
	var backend pusherBackend
	switch a.cfg.Transport {
	case "grpc":
		cc, err := grpcx.Dial(grpcx.ClientConfig{
			Target:       a.cfg.GRPCTarget,
			UnaryTimeout: a.cfg.BackendTimeout,
			WithInsecure: true,
			BearerToken:  a.cfg.Token,
		})
		if err != nil {
			return fmt.Errorf("dial %s: %w", a.cfg.GRPCTarget, err)
		}
		a.conn = cc
		backend = dispatch.NewRPCBackend(rpc.NewClient(cc))
	case "http", "":
		backend = dispatch.NewHTTPBackend(a.cfg.BackendURL, a.cfg.Token, a.cfg.BackendTimeout)
	default:
		return fmt.Errorf("unknown AGENT_TRANSPORT %q", a.cfg.Transport)
	}

	fixes := geo.FileProvider{Path: a.cfg.FixFile}
	perms := &geo.StaticPermissions{Foreground: a.cfg.AllowForeground, Background: a.cfg.AllowBackground}
	a.streamer = streamer.New(perms, geo.NewPollingTracker(fixes, a.cfg.PollInterval), backend, streamer.Config{
		MinInterval: a.cfg.MinInterval,
		MinDistance: a.cfg.MinDistanceM,
	})
	a.client = dispatch.NewClient(fixes, backend, a.streamer,
		dispatch.WithFixTimeout(a.cfg.FixTimeout),
		dispatch.WithDisplayName(a.cfg.DisplayName))
	return nil
}

// holdStreaming keeps the process alive while an alert is being tracked.
func (a *agent) holdStreaming(ctx context.Context, out io.Writer) {
	if a.streamer == nil || a.streamer.State() != streamer.Active {
		return
	}
	fmt.Fprintln(out, "streaming location, press Ctrl+C to stop")
	<-ctx.Done()
}

func (a *agent) Close() {
	if a.streamer != nil {
		_ = a.streamer.Close()
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			logger.Warn("close grpc conn", zap.Error(err))
		}
	}
	logger.Sync()
}
