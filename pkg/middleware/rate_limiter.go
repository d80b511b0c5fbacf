package middleware

import (
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"

	apperrors "RapidSafe/pkg/errors"
	"RapidSafe/pkg/logger"
	"RapidSafe/pkg/response"
)

// RateLimiterConfig 限流配置
//
// Rate: "120-M"；PerRouteRates: {"/track/:id": "60-M"}；Identifier: ip|user|ip+route
// WhitelistCIDRs: ["10.0.0.0/8", "127.0.0.1/32"]
type RateLimiterConfig struct {
	Rate           string
	PerRouteRates  map[string]string
	Identifier     string
	WhitelistCIDRs []string
	AddHeaders     bool
}

// MetricsObserver 指标上报接口
type MetricsObserver interface {
	OnAllow(route string)
	OnDeny(route string)
}

// PrometheusObserver 基于 Prometheus 的实现
type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

// NewPrometheusObserver registers the limiter counters on reg; nil means the
// default registerer.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &PrometheusObserver{
		allow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Allowed requests by rate limiter",
		}, []string{"route"}),
		deny: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Denied requests by rate limiter",
		}, []string{"route"}),
	}
	reg.MustRegister(p.allow, p.deny)
	return p
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter 按速率缓存 limiter 实例
type RateLimiter struct {
	cfg            RateLimiterConfig
	store          limiter.Store
	observer       MetricsObserver
	limitersByRate map[string]*limiter.Limiter
	mu             sync.Mutex
	whiteCIDRs     []*net.IPNet
}

func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	l := &RateLimiter{
		cfg:            cfg,
		store:          store,
		limitersByRate: make(map[string]*limiter.Limiter),
	}
	for _, c := range cfg.WhitelistCIDRs {
		if _, ipnet, err := net.ParseCIDR(strings.TrimSpace(c)); err == nil {
			l.whiteCIDRs = append(l.whiteCIDRs, ipnet)
		}
	}
	return l
}

func (l *RateLimiter) WithObserver(observer MetricsObserver) *RateLimiter {
	l.observer = observer
	return l
}

// Middleware 返回 Gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ip := strings.TrimPrefix(c.ClientIP(), "::ffff:")
		if ipListed(ip, l.whiteCIDRs) {
			c.Next()
			return
		}

		lim := l.getLimiter(l.pickRate(route))
		lctx, err := lim.Get(c, l.buildKey(c, ip, route))
		if err != nil {
			// store 故障时放行
			logger.Warn("rate limiter store error", zap.Error(err))
			c.Next()
			return
		}
		if l.cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		}
		if lctx.Reached {
			sec := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if sec < 0 {
				sec = 0
			}
			c.Header("Retry-After", strconv.Itoa(sec))
			if l.observer != nil {
				l.observer.OnDeny(route)
			}
			response.AbortWithError(c, apperrors.WithCode(codes.ResourceExhausted, "too many requests"))
			return
		}
		if l.observer != nil {
			l.observer.OnAllow(route)
		}
		c.Next()
	}
}

func (l *RateLimiter) getLimiter(rateStr string) *limiter.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.limitersByRate[rateStr]; ok {
		return lim
	}
	r, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		logger.Warn("bad rate format, using 10-S", zap.String("rate", rateStr))
		r = limiter.Rate{Period: time.Second, Limit: 10}
	}
	lim := limiter.New(l.store, r)
	l.limitersByRate[rateStr] = lim
	return lim
}

func (l *RateLimiter) pickRate(route string) string {
	if r, ok := l.cfg.PerRouteRates[route]; ok && r != "" {
		return r
	}
	if l.cfg.Rate != "" {
		return l.cfg.Rate
	}
	return "10-S"
}

func (l *RateLimiter) buildKey(c *gin.Context, ip, route string) string {
	switch l.cfg.Identifier {
	case "user":
		if uid := UserID(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + ip
	case "ip+route":
		return "iprt:" + ip + ":" + route
	default:
		return "ip:" + ip
	}
}

func ipListed(ip string, nets []*net.IPNet) bool {
	pip := net.ParseIP(ip)
	if pip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(pip) {
			return true
		}
	}
	return false
}

