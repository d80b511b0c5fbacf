package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// TokenVerifier resolves a bearer token to the uid it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (uid string, ok bool)
}

// Authenticate attaches the caller's uid when the request carries a valid
// bearer token. It never rejects: handlers decide whether a uid is required.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := BearerToken(c.GetHeader("Authorization")); tok != "" {
			if uid, ok := v.Verify(c, tok); ok {
				c.Set(userIDKey, uid)
			}
		}
		c.Next()
	}
}

// BearerToken extracts <t> from "Bearer <t>".
func BearerToken(header string) string {
	if t, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

// UserID returns the authenticated uid or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
