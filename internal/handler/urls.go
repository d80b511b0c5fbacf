package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"RapidSafe/internal/alerting"
	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/metrics"
	"RapidSafe/pkg/middleware"
	"RapidSafe/pkg/sse"
	"RapidSafe/pkg/websocket"
)

// Dependencies wires the HTTP surface. Prefixes fall back to /api and
// /metrics when empty.
type Dependencies struct {
	DB             *gorm.DB
	Alerts         *alerting.Service
	Hub            *sse.Hub
	WS             *websocket.Hub // optional
	Tokens         middleware.TokenVerifier
	Idempotency    cache.Cache
	IdempotencyTTL time.Duration
	TrackLimiter   *middleware.RateLimiter
	APIPrefix      string
	MonitorPrefix  string
}

type Handlers struct {
	deps Dependencies
}

func NewHandlers(deps Dependencies) *Handlers {
	if deps.APIPrefix == "" {
		deps.APIPrefix = "/api"
	}
	if deps.MonitorPrefix == "" {
		deps.MonitorPrefix = "/metrics"
	}
	return &Handlers{deps: deps}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(metrics.MonitorMiddleware())
	engine.GET(h.deps.MonitorPrefix, metrics.Handler())

	r := engine.Group(strings.TrimRight(h.deps.APIPrefix, "/"))
	r.Use(middleware.Authenticate(h.deps.Tokens))

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAlertRoutes(r)
	h.registerTrackingRoutes(engine)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	alerts := r.Group("alerts")
	{
		alerts.POST("", middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
			Store: h.deps.Idempotency,
			TTL:   h.deps.IdempotencyTTL,
		}), h.handleCreateAlert)

		alerts.PUT("/:id/location", h.handleUpdateLocation)

		alerts.POST("/:id/resolve", h.handleResolveAlert)

		alerts.POST("/:id/cancel", h.handleCancelAlert)
	}
}

// 公开的追踪页接口，按 IP 限流
func (h *Handlers) registerTrackingRoutes(engine *gin.Engine) {
	track := engine.Group("track")
	if h.deps.TrackLimiter != nil {
		track.Use(h.deps.TrackLimiter.Middleware())
	}
	{
		track.GET("/:id", h.handleTrackAlert)

		track.GET("/:id/events", h.handleTrackEvents)
		if h.deps.WS != nil {
			track.GET("/:id/ws", h.handleTrackSocket)
		}
	}
}
