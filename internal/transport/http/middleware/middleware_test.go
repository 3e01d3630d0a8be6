package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/auth"
	"hrpay/internal/platform/metrics"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestAuthMiddlewareSetsUser(t *testing.T) {
	user := auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR}
	token, err := auth.GenerateToken("test-secret", user, time.Hour)
	require.NoError(t, err)

	var got auth.UserContext
	var found bool
	handler := Auth("test-secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = GetUser(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, found)
	assert.Equal(t, user, got)

	for _, header := range []string{"", "Bearer", "Basic " + token, "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		found = true
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.False(t, found, header)
	}
}

type fakePerms struct {
	granted map[string]bool
	err     error
	calls   int
}

func (f *fakePerms) HasPermission(_ context.Context, roleID, permission string) (bool, error) {
	f.calls++
	return f.granted[roleID+":"+permission], f.err
}

func TestRequirePermission(t *testing.T) {
	perms := &fakePerms{granted: map[string]bool{"hr:" + auth.PermPayrollArchive: true}}
	handler := RequirePermission(auth.PermPayrollArchive, perms)(http.HandlerFunc(ok))

	cases := []struct {
		name   string
		user   *auth.UserContext
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"granted", &auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "hr"}, http.StatusNoContent},
		{"denied", &auth.UserContext{UserID: "u2", TenantID: "t1", RoleID: "employee"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), *tc.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	perms.err = errors.New("db down")
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(WithUser(req.Context(), auth.UserContext{RoleID: "hr"}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPermissionCacheExpires(t *testing.T) {
	perms := &fakePerms{granted: map[string]bool{"hr:" + auth.PermPayrollRead: true}}
	cache := NewPermissionCache(perms, time.Minute)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		allowed, err := cache.HasPermission(context.Background(), "hr", auth.PermPayrollRead)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.Equal(t, 1, perms.calls)

	now = now.Add(2 * time.Minute)
	_, err := cache.HasPermission(context.Background(), "hr", auth.PermPayrollRead)
	require.NoError(t, err)
	assert.Equal(t, 2, perms.calls)
}

func TestBodyLimit(t *testing.T) {
	handler := BodyLimit(8)(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(true)(http.HandlerFunc(ok)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestLimiterBlocksAfterLimit(t *testing.T) {
	limiter := NewLimiter(2, time.Minute, ClientIP)
	handler := limiter.Middleware(http.HandlerFunc(ok))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, statuses)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestActorOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", ActorOrIP(req))

	req = req.WithContext(WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1"}))
	assert.Equal(t, "user:t1:u1", ActorOrIP(req))
}

func TestLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	handler := NewLimiter(2, time.Minute, ClientIP).Middleware(http.HandlerFunc(ok))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "198.51.100.4:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, statuses)
}

func TestTrustedRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	var seen string
	handler := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))

	cases := []struct {
		name   string
		remote string
		header string
		want   string
	}{
		{"trusted proxy", "10.0.0.1:443", "203.0.113.7", "203.0.113.7"},
		{"chain of proxies", "10.0.0.1:443", "203.0.113.7, 10.1.1.1", "203.0.113.7"},
		{"client prefix ignored", "10.0.0.1:443", "1.2.3.4, 203.0.113.7", "203.0.113.7"},
		{"untrusted peer", "198.51.100.4:443", "203.0.113.7", "198.51.100.4"},
		{"no header", "10.0.0.1:443", "", "10.0.0.1"},
		{"garbage header", "10.0.0.1:443", "not-an-ip", "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, seen)
		})
	}

	passthrough := TrustedRealIP(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	passthrough.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.1", seen)
}

func TestMetricsRecordsStatus(t *testing.T) {
	collector := metrics.New()
	handler := Metrics(collector)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	snap := collector.Snapshot()
	assert.Equal(t, uint64(1), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
}
