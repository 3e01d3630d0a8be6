package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"hrpay/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			if err != nil {
				slog.Warn("permission check failed", "roleId", user.RoleID, "permission", permission, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(r.Context()))
				return
			}
			if !allowed {
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(r.Context()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type grant struct {
	allowed bool
	expires time.Time
}

// PermissionCache memoizes role grants for ttl in front of a PermissionStore.
type PermissionCache struct {
	store PermissionStore
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	grants map[string]grant
}

func NewPermissionCache(store PermissionStore, ttl time.Duration) *PermissionCache {
	return &PermissionCache{store: store, ttl: ttl, now: time.Now, grants: map[string]grant{}}
}

func (c *PermissionCache) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	key := roleID + "\x00" + permission
	now := c.now()
	c.mu.Lock()
	cached, ok := c.grants[key]
	c.mu.Unlock()
	if ok && now.Before(cached.expires) {
		return cached.allowed, nil
	}

	allowed, err := c.store.HasPermission(ctx, roleID, permission)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.grants[key] = grant{allowed: allowed, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return allowed, nil
}
