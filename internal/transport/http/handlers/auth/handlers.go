package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/auth"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

// Service is implemented by *auth.Service.
type Service interface {
	Login(ctx context.Context, email, password, code string) (auth.LoginResult, error)
	SetupMFA(ctx context.Context, user auth.UserContext) (auth.MFASetup, error)
	EnableMFA(ctx context.Context, user auth.UserContext, code string) error
	DisableMFA(ctx context.Context, user auth.UserContext, code string) error
}

var _ Service = (*auth.Service)(nil)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Handler struct {
	Service Service
	Audit   AuditRecorder
	Metrics *metrics.Collector
	// Throttle limits login attempts per client; nil disables it.
	Throttle *middleware.Limiter
}

func NewHandler(service Service, recorder AuditRecorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Audit: recorder, Metrics: collector}
}

// RegisterPublicRoutes mounts the endpoints reachable without a token.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	login := http.Handler(http.HandlerFunc(h.HandleLogin))
	if h.Throttle != nil {
		login = h.Throttle.Middleware(login)
	}
	r.Method(http.MethodPost, "/auth/login", login)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
	r.Post("/auth/mfa/setup", h.HandleMFASetup)
	r.Post("/auth/mfa/enable", h.HandleMFAEnable)
	r.Post("/auth/mfa/disable", h.HandleMFADisable)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
	MFACode  string `json:"mfaCode" validate:"omitempty,numeric,len=6"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		if !errors.Is(err, auth.ErrMFARequired) {
			h.Metrics.Inc(metrics.LoginsFailed)
		}
		writeError(w, r, err, "login_failed", "failed to sign in")
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	setup, err := h.Service.SetupMFA(r.Context(), user)
	if err != nil {
		writeError(w, r, err, "mfa_setup_failed", "failed to set up mfa")
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, h.Service.EnableMFA, audit.ActionMFAEnable, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, h.Service.DisableMFA, audit.ActionMFADisable, false)
}

type toggleFunc func(ctx context.Context, user auth.UserContext, code string) error

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, toggle toggleFunc, action string, enabled bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}
	if err := toggle(r.Context(), user, payload.Code); err != nil {
		writeError(w, r, err, "mfa_update_failed", "failed to update mfa")
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), audit.Entry{
			TenantID:   user.TenantID,
			ActorID:    user.UserID,
			Action:     action,
			EntityType: "user",
			EntityID:   user.UserID,
			RequestID:  requestID,
			IP:         middleware.ClientIP(r),
			Before:     map[string]bool{"mfaEnabled": !enabled},
			After:      map[string]bool{"mfaEnabled": enabled},
		}); err != nil {
			slog.Warn("audit record failed", "action", action, "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]bool{"mfaEnabled": enabled}, requestID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
	case errors.Is(err, auth.ErrMFANotSetUp):
		api.Fail(w, http.StatusConflict, "mfa_not_set_up", "mfa has not been set up", requestID)
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "mfa_unavailable", "mfa requires an encryption key", requestID)
	default:
		slog.Error("auth request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
