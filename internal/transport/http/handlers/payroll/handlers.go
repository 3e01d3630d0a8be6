package payrollhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/auth"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
)

// Service is the payroll surface the handlers drive; *payroll.Service implements it.
type Service interface {
	Calendar(ctx context.Context, tenantID string, period payroll.Period, employeeID string) ([]payroll.DayClass, error)
	Report(ctx context.Context, tenantID string, period payroll.Period) (payroll.Report, error)
	EmployeeBreakdown(ctx context.Context, tenantID string, period payroll.Period, employeeID string) (payroll.EmployeeBreakdown, error)
	Archive(ctx context.Context, tenantID string, period payroll.Period, actorID string) (payroll.HistoricalPayroll, error)
	Reopen(ctx context.Context, tenantID string, period payroll.Period) error
	History(ctx context.Context, tenantID string) ([]payroll.HistoryEntry, error)
	ExportRegister(ctx context.Context, tenantID string, period payroll.Period, w io.Writer) error
	ExportRegisterCSV(ctx context.Context, tenantID string, period payroll.Period, w io.Writer) error
	Payslip(ctx context.Context, tenantID string, period payroll.Period, employeeID string) ([]byte, error)
	ListPayslips(ctx context.Context, tenantID string, period payroll.Period) ([]payroll.Payslip, error)
	PeriodSettings(ctx context.Context, tenantID string, period payroll.Period) (payroll.PeriodSettings, error)
	SetPeriodSettings(ctx context.Context, tenantID string, settings payroll.PeriodSettings) error
	SetBonusDeduction(ctx context.Context, tenantID string, entry payroll.BonusDeduction) error
	RecordAttendance(ctx context.Context, tenantID string, row payroll.AttendanceRow) error
	ListHolidays(ctx context.Context, tenantID string, from, to time.Time) ([]payroll.PublicHoliday, error)
	AddHoliday(ctx context.Context, tenantID string, holiday payroll.PublicHoliday) error
	ListLoans(ctx context.Context, tenantID string) ([]payroll.Loan, error)
	CreateLoan(ctx context.Context, tenantID string, loan payroll.Loan) (payroll.Loan, error)
	ListEmployees(ctx context.Context, tenantID string) ([]payroll.Employee, error)
	UpsertEmployee(ctx context.Context, tenantID string, employee payroll.Employee) (payroll.Employee, error)
}

var _ Service = (*payroll.Service)(nil)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Audit   AuditRecorder
	Metrics *metrics.Collector
	// Throttle guards archive and reopen; nil disables it.
	Throttle *middleware.Limiter
}

func NewHandler(service Service, perms middleware.PermissionStore, recorder AuditRecorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: recorder, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	write := middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)
	archive := []func(http.Handler) http.Handler{middleware.RequirePermission(auth.PermPayrollArchive, h.Perms)}
	if h.Throttle != nil {
		archive = append(archive, h.Throttle.Middleware)
	}

	r.Route("/payroll", func(r chi.Router) {
		r.Route("/periods/{period}", func(r chi.Router) {
			r.With(read).Get("/days", h.handleDays)
			r.With(read).Get("/report", h.handleReport)
			r.With(read).Get("/employees/{employeeID}", h.handleBreakdown)
			r.With(read).Get("/employees/{employeeID}/payslip", h.handlePayslip)
			r.With(read).Get("/payslips", h.handleListPayslips)
			r.With(read).Get("/export/register.xlsx", h.handleExportXLSX)
			r.With(read).Get("/export/register.csv", h.handleExportCSV)
			r.With(read).Get("/settings", h.handleGetSettings)
			r.With(write).Put("/settings", h.handleSetSettings)
			r.With(write).Put("/bonuses/{employeeID}", h.handleSetBonus)
			r.With(archive...).Post("/archive", h.handleArchive)
			r.With(archive...).Post("/reopen", h.handleReopen)
		})
		r.With(read).Get("/history", h.handleHistory)
		r.With(write).Post("/attendance", h.handleRecordAttendance)
		r.With(read).Get("/holidays", h.handleListHolidays)
		r.With(write).Post("/holidays", h.handleAddHoliday)
		r.With(read).Get("/loans", h.handleListLoans)
		r.With(write).Post("/loans", h.handleCreateLoan)
		r.With(read).Get("/employees", h.handleListEmployees)
		r.With(write).Put("/employees/{employeeID}", h.handleUpsertEmployee)
	})
}

// writeError maps payroll sentinel errors onto response statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error, code, message string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrInvalidEmployee),
		errors.Is(err, payroll.ErrInvalidLoan),
		errors.Is(err, payroll.ErrInvalidAttendance),
		errors.Is(err, payroll.ErrInvalidHoliday),
		errors.Is(err, payroll.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.Is(err, payroll.ErrHistoryNotFound):
		api.Fail(w, http.StatusNotFound, "history_not_found", "payroll history not found", requestID)
	case errors.Is(err, payroll.ErrPeriodClosed):
		api.Fail(w, http.StatusConflict, "period_closed", "payroll period is archived", requestID)
	case errors.Is(err, payroll.ErrPeriodNotClosed):
		api.Fail(w, http.StatusConflict, "period_not_closed", "payroll period is not archived", requestID)
	default:
		slog.Error("payroll request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
	}
	return user, ok
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
