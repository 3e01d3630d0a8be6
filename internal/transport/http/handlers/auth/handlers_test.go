package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/auth"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/middleware"
)

type stubAuth struct {
	enabled bool
	setUp   bool
}

func (s *stubAuth) Login(_ context.Context, email, password, code string) (auth.LoginResult, error) {
	if email != "hr@example.com" || password != "Secret123" {
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}
	if s.enabled && code == "" {
		return auth.LoginResult{}, auth.ErrMFARequired
	}
	if s.enabled && code != "123456" {
		return auth.LoginResult{}, auth.ErrMFAInvalid
	}
	return auth.LoginResult{
		Token:     "signed",
		ExpiresAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		User:      auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1", RoleName: auth.RoleHR},
	}, nil
}

func (s *stubAuth) SetupMFA(context.Context, auth.UserContext) (auth.MFASetup, error) {
	s.setUp = true
	return auth.MFASetup{Secret: "JBSWY3DPEHPK3PXP", OTPAuthURL: "otpauth://totp/hrpay:u1"}, nil
}

func (s *stubAuth) EnableMFA(_ context.Context, _ auth.UserContext, code string) error {
	if !s.setUp {
		return auth.ErrMFANotSetUp
	}
	if code != "123456" {
		return auth.ErrMFAInvalid
	}
	s.enabled = true
	return nil
}

func (s *stubAuth) DisableMFA(_ context.Context, _ auth.UserContext, code string) error {
	if code != "123456" {
		return auth.ErrMFAInvalid
	}
	s.enabled = false
	return nil
}

type auditLog struct {
	entries []audit.Entry
}

func (a *auditLog) Record(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.RegisterPublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				user := auth.UserContext{UserID: "u1", TenantID: "t1", RoleID: "r1"}
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), user)))
			})
		})
		h.RegisterRoutes(r)
	})
	return r
}

func post(t *testing.T, router http.Handler, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func errorCode(env map[string]any) string {
	errObj, _ := env["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestLogin(t *testing.T) {
	collector := metrics.New()
	h := NewHandler(&stubAuth{}, nil, collector)
	router := newRouter(h)

	rec, env := post(t, router, "/auth/login", `{"email":"hr@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := env["data"].(map[string]any)
	assert.Equal(t, "signed", data["token"])

	rec, env = post(t, router, "/auth/login", `{"email":"hr@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", errorCode(env))
	assert.Equal(t, uint64(1), collector.Snapshot()[metrics.LoginsFailed])

	rec, env = post(t, router, "/auth/login", `{"email":"not-an-email","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(env))
}

func TestLoginThrottle(t *testing.T) {
	h := NewHandler(&stubAuth{}, nil, nil)
	h.Throttle = middleware.NewLimiter(2, time.Minute, middleware.ClientIP)
	router := newRouter(h)

	for i := 0; i < 2; i++ {
		rec, _ := post(t, router, "/auth/login", `{"email":"hr@example.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, env := post(t, router, "/auth/login", `{"email":"hr@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(env))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMFAFlow(t *testing.T) {
	svc := &stubAuth{}
	recorder := &auditLog{}
	router := newRouter(NewHandler(svc, recorder, nil))

	rec, env := post(t, router, "/auth/mfa/enable", `{"code":"123456"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "mfa_not_set_up", errorCode(env))

	rec, env = post(t, router, "/auth/mfa/setup", ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", env["data"].(map[string]any)["secret"])

	rec, env = post(t, router, "/auth/mfa/enable", `{"code":"12ab56"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(env))

	rec, env = post(t, router, "/auth/mfa/enable", `{"code":"654321"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "mfa_invalid", errorCode(env))

	rec, _ = post(t, router, "/auth/mfa/enable", `{"code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.enabled)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, audit.ActionMFAEnable, recorder.entries[0].Action)
	assert.Equal(t, "u1", recorder.entries[0].EntityID)

	rec, env = post(t, router, "/auth/login", `{"email":"hr@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "mfa_required", errorCode(env))

	rec, _ = post(t, router, "/auth/login", `{"email":"hr@example.com","password":"Secret123","mfaCode":"123456"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = post(t, router, "/auth/mfa/disable", `{"code":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.enabled)
	assert.Equal(t, audit.ActionMFADisable, recorder.entries[1].Action)
}
