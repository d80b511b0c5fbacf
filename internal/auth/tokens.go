package auth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"RapidSafe/pkg/cache"
	"RapidSafe/pkg/logger"
)

const keyPrefix = "auth:token:"

// TokenStore maps bearer tokens to user ids on top of the shared cache.
type TokenStore struct {
	c cache.Cache
}

func NewTokenStore(c cache.Cache) *TokenStore {
	return &TokenStore{c: c}
}

// Issue binds token to uid. Seeded tokens never expire.
func (s *TokenStore) Issue(ctx context.Context, token, uid string) error {
	return s.c.Set(ctx, keyPrefix+token, uid, cache.NoExpiration)
}

func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.c.Delete(ctx, keyPrefix+token)
}

func (s *TokenStore) Verify(ctx context.Context, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	uid, ok := s.c.Get(ctx, keyPrefix+token)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

// Seed loads "token:uid" pairs, malformed entries are skipped.
func (s *TokenStore) Seed(ctx context.Context, pairs []string) int {
	n := 0
	for _, p := range pairs {
		tok, uid, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok || tok == "" || uid == "" {
			logger.Warn("skip malformed AUTH_TOKENS entry")
			continue
		}
		if err := s.Issue(ctx, tok, uid); err != nil {
			logger.Warn("seed token failed", zap.String("uid", uid), zap.Error(err))
			continue
		}
		n++
	}
	return n
}
