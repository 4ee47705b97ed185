package utils

import (
	"context"
	"sync"
	"time"
)

// Token revocation feed. Logout and forced sign-out live in the identity
// service that issues the JWTs: when it revokes a token before natural
// expiry it writes an "auth:revoked:<token>" redis key with a TTL equal to
// the token's remaining lifetime, and this service checks the key on every
// authenticated request. Without redis (local dev, tests) a process-local
// map serves the same contract.

const revokedKeyPrefix = "auth:revoked:"

type revokedEntry struct {
	expiresAt time.Time
}

var (
	revoked   = map[string]revokedEntry{}
	revokedMu sync.RWMutex
)

// RevokeToken marks a token revoked until expiresAt. In production this is
// the identity service's side of the feed; here it backs local dev and the
// middleware tests.
func RevokeToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, revokedKeyPrefix+token, "1", ttl).Err()
		return
	}
	revokedMu.Lock()
	revoked[token] = revokedEntry{expiresAt: expiresAt}
	revokedMu.Unlock()
}

// IsTokenRevoked reports whether the token was revoked before natural
// expiry. A redis error fails open: an unreachable redis must not lock
// every reader out.
func IsTokenRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedKeyPrefix+token).Result()
		if err == nil {
			return n > 0
		}
		return false
	}

	revokedMu.RLock()
	entry, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
