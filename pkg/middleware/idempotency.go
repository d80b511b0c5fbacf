package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/logger"
)

const idemPending = "pending"

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 结果保留时长
	Store      cache.Cache
}

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware replays the first response for a repeated
// Idempotency-Key. Keys are scoped per caller. A duplicate that arrives while
// the first request is still running gets 409. Requests without the header
// pass through.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		key = "idem:" + UserID(c) + ":" + c.FullPath() + ":" + key

		ok, err := cfg.Store.SetNX(c, key, idemPending, cfg.TTL)
		if err != nil {
			logger.Warn("idempotency store error", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			replay(c, cfg.Store, key)
			return
		}

		// 未存下结果（5xx 或 handler panic）时释放 key，允许客户端重试
		stored := false
		defer func() {
			if !stored {
				_ = cfg.Store.Delete(context.Background(), key)
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() >= http.StatusInternalServerError {
			return
		}
		b, _ := json.Marshal(storedResponse{Status: w.Status(), Body: w.buf.Bytes()})
		if err := cfg.Store.Set(c, key, string(b), cfg.TTL); err != nil {
			logger.Warn("idempotency store error", zap.Error(err))
			return
		}
		stored = true
	}
}

func replay(c *gin.Context, store cache.Cache, key string) {
	v, found := store.Get(c, key)
	if !found || v == idemPending {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   gin.H{"status": "aborted", "message": "request with this Idempotency-Key is in progress"},
		})
		return
	}
	var sr storedResponse
	if err := json.Unmarshal([]byte(v), &sr); err != nil {
		c.AbortWithStatus(http.StatusConflict)
		return
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(sr.Status, "application/json; charset=utf-8", sr.Body)
	c.Abort()
}
