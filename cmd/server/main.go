package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/auth"
	handlers "RapidSafe/internal/handler"
	"RapidSafe/internal/models"
	"RapidSafe/internal/rpc"
	"RapidSafe/pkg/backup"
	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/config"
	"RapidSafe/pkg/grpcx"
	"RapidSafe/pkg/i18n"
	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/middleware"
	"RapidSafe/pkg/notification"
	"RapidSafe/pkg/scheduler"
	"RapidSafe/pkg/sse"
	"RapidSafe/pkg/storage"
	"RapidSafe/pkg/util"
	"RapidSafe/pkg/websocket"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Log, cfg.Mode); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.DBDriver == "sqlite" {
		_ = os.MkdirAll(filepath.Dir(cfg.DSN), 0o755)
	}
	db, err := util.InitDatabase(cfg.DBDriver, cfg.DSN, &models.AlertRecord{})
	if err != nil {
		logger.L().Fatal("init database failed", zap.Error(err))
	}

	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		logger.L().Fatal("init cache failed", zap.Error(err))
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := auth.NewTokenStore(c)
	logger.Info("auth tokens seeded", zap.Int("count", tokens.Seed(ctx, cfg.AuthTokens)))

	tr, err := i18n.NewI18nSupport(cfg.Language, util.GetEnv("LOCALES_DIR"))
	if err != nil {
		logger.L().Fatal("init i18n failed", zap.Error(err))
	}
	sms, err := notification.NewSMSSender(cfg.SMS)
	if err != nil {
		logger.L().Fatal("init sms sender failed", zap.Error(err))
	}

	hub := sse.NewHub(15 * time.Second)
	wsCfg := websocket.LoadConfigFromEnv()
	if err := websocket.ValidateConfig(wsCfg); err != nil {
		logger.L().Fatal("invalid websocket config", zap.Error(err))
	}
	ws := websocket.NewHub(wsCfg)
	defer ws.Shutdown()
	svc := alerting.NewService(
		alerting.NewGormStore(db),
		alerting.NewFanout(sms, cfg.SMSSendTimeout),
		alerting.NewMessageBuilder(tr, cfg.TrackingBaseURL),
		alerting.WithPublisher(hub),
		alerting.WithPublisher(ws),
		alerting.WithLanguage(cfg.Language),
	)

	// 后台任务
	sched := scheduler.New()
	defer sched.Stop()
	sched.Every("active-alerts-gauge", 30*time.Second, scheduler.FuncJob(svc.RefreshActiveGauge))

	if cfg.BackupEnabled {
		cr := scheduler.NewCron(time.UTC)
		bk := backup.New(db, cfg.DBDriver, cfg.BackupPath, 7)
		if remote, err := storage.NewMinioStoreFromEnv(); err != nil {
			logger.Warn("backup remote disabled", zap.Error(err))
		} else if remote != nil {
			bk.Remote = remote
		}
		if err := bk.Schedule(cr, cfg.BackupSchedule); err != nil {
			logger.Warn("backup not scheduled", zap.Error(err))
		} else {
			cr.Start()
			defer cr.Stop()
		}
	}

	// HTTP
	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: cfg.TrackRate, AddHeaders: true}, nil).
		WithObserver(middleware.NewPrometheusObserver(prometheus.DefaultRegisterer))
	handlers.NewHandlers(handlers.Dependencies{
		DB:             db,
		Alerts:         svc,
		Hub:            hub,
		WS:             ws,
		Tokens:         tokens,
		Idempotency:    c,
		IdempotencyTTL: cfg.IdempotencyTTL,
		TrackLimiter:   limiter,
		APIPrefix:      cfg.APIPrefix,
		MonitorPrefix:  cfg.MonitorPrefix,
	}).Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	// gRPC callable
	var gs interface{ GracefulStop() }
	if cfg.GRPCAddr != "" {
		g := grpcx.NewServer(grpcx.ServerConfig{Addr: cfg.GRPCAddr, UnaryTimeout: 30 * time.Second})
		rpc.Register(g, rpc.NewServer(svc, tokens))
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.L().Fatal("grpc listen failed", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
		}
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := g.Serve(lis); err != nil {
				logger.Error("grpc server error", zap.Error(err))
				stop()
			}
		}()
		gs = g
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if gs != nil {
		gs.GracefulStop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}
