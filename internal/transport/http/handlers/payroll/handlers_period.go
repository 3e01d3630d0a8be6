package payrollhandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/metrics"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv"
	contentTypePDF  = "application/pdf"
)

func periodOrFail(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	period, ok := shared.PeriodParam(r)
	if !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_period", "period must be YYYY-MM", middleware.GetRequestID(r.Context()))
	}
	return period, ok
}

func (h *Handler) handleDays(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	days, err := h.Service.Calendar(r.Context(), user.TenantID, period, r.URL.Query().Get("employeeId"))
	if err != nil {
		writeError(w, r, err, "payroll_days_failed", "failed to list period days")
		return
	}
	api.Success(w, map[string]any{
		"period": period,
		"start":  period.Start().Format(payroll.DateLayout),
		"end":    period.End().Format(payroll.DateLayout),
		"days":   days,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	report, err := h.Service.Report(r.Context(), user.TenantID, period)
	if err != nil {
		writeError(w, r, err, "payroll_report_failed", "failed to build payroll report")
		return
	}
	h.Metrics.Inc(metrics.ReportsBuilt)
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	breakdown, err := h.Service.EmployeeBreakdown(r.Context(), user.TenantID, period, chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err, "payroll_breakdown_failed", "failed to compute employee breakdown")
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	history, err := h.Service.Archive(r.Context(), user.TenantID, period, user.UserID)
	if err != nil {
		writeError(w, r, err, "payroll_archive_failed", "failed to archive payroll period")
		return
	}
	h.Metrics.Inc(metrics.PeriodsArchived)
	h.record(r, user, audit.ActionPayrollArchive, "payroll_period", period.Key(), nil, history.Report.Totals)
	api.Created(w, map[string]any{
		"period":     history.Period,
		"archivedBy": history.ArchivedBy,
		"archivedAt": history.ArchivedAt,
		"totals":     history.Report.Totals,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	if err := h.Service.Reopen(r.Context(), user.TenantID, period); err != nil {
		writeError(w, r, err, "payroll_reopen_failed", "failed to reopen payroll period")
		return
	}
	h.Metrics.Inc(metrics.PeriodsReopened)
	h.record(r, user, audit.ActionPayrollReopen, "payroll_period", period.Key(), map[string]bool{"closed": true}, map[string]bool{"closed": false})
	api.Success(w, map[string]any{"period": period, "closed": false}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	entries, err := h.Service.History(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "payroll_history_failed", "failed to list payroll history")
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Service.ExportRegister, contentTypeXLSX, "xlsx")
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.Service.ExportRegisterCSV, contentTypeCSV, "csv")
}

type exportFunc func(ctx context.Context, tenantID string, period payroll.Period, w io.Writer) error

// export renders into memory first so a failure still answers with a JSON error.
func (h *Handler) export(w http.ResponseWriter, r *http.Request, render exportFunc, contentType, ext string) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render(r.Context(), user.TenantID, period, &buf); err != nil {
		writeError(w, r, err, "payroll_export_failed", "failed to export payroll register")
		return
	}
	h.Metrics.Inc(metrics.RegistersExported)
	api.Attachment(w, contentType, fmt.Sprintf("payroll-register-%s.%s", period.Key(), ext), buf.Bytes())
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	pdf, err := h.Service.Payslip(r.Context(), user.TenantID, period, employeeID)
	if err != nil {
		writeError(w, r, err, "payslip_failed", "failed to render payslip")
		return
	}
	h.Metrics.Inc(metrics.PayslipsRendered)
	api.Attachment(w, contentTypePDF, fmt.Sprintf("payslip-%s-%s.pdf", employeeID, period.Key()), pdf)
}

func (h *Handler) handleListPayslips(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	payslips, err := h.Service.ListPayslips(r.Context(), user.TenantID, period)
	if err != nil {
		writeError(w, r, err, "payslips_failed", "failed to list payslips")
		return
	}
	api.Success(w, payslips, middleware.GetRequestID(r.Context()))
}
