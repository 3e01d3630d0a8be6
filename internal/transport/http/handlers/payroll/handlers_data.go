package payrollhandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrpay/internal/domain/audit"
	"hrpay/internal/domain/payroll"
	"hrpay/internal/transport/http/api"
	"hrpay/internal/transport/http/middleware"
	"hrpay/internal/transport/http/shared"
)

type settingsPayload struct {
	GeneralBonusDays    float64  `json:"generalBonusDays" validate:"gte=0,lte=31"`
	ExcludedEmployeeIDs []string `json:"excludedEmployeeIds" validate:"dive,required"`
}

type bonusPayload struct {
	BonusAmount     float64 `json:"bonusAmount" validate:"gte=0"`
	DeductionAmount float64 `json:"deductionAmount" validate:"gte=0"`
}

type attendancePayload struct {
	Date       string   `json:"date" validate:"required"`
	EmployeeID string   `json:"employeeId" validate:"required,max=64"`
	Hours      float64  `json:"hours" validate:"gte=0,lte=24"`
	Locations  []string `json:"locations" validate:"dive,required,max=120"`
}

type holidayPayload struct {
	Date string `json:"date" validate:"required"`
	Name string `json:"name" validate:"required,max=120"`
}

type loanPayload struct {
	EmployeeID   string  `json:"employeeId" validate:"required,max=64"`
	TotalAmount  float64 `json:"totalAmount" validate:"gt=0"`
	Installments int     `json:"installments" validate:"gt=0,lte=360"`
	StartPeriod  string  `json:"startPeriod" validate:"required"`
}

type allowancePayload struct {
	Type      string  `json:"type" validate:"required,oneof=transport expatriation meal housing"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Frequency string  `json:"frequency" validate:"required,oneof=monthly daily"`
}

type employeePayload struct {
	Name          string             `json:"name" validate:"required,max=200"`
	JobTitle      string             `json:"jobTitle" validate:"max=120"`
	WorkLocation  string             `json:"workLocation" validate:"max=120"`
	SalaryType    string             `json:"salaryType" validate:"required,oneof=monthly daily"`
	SalaryAmount  float64            `json:"salaryAmount" validate:"gt=0"`
	PaymentSource string             `json:"paymentSource" validate:"max=120"`
	RestDays      []string           `json:"restDays" validate:"max=7,dive,required"`
	HoursPerDay   float64            `json:"hoursPerDay" validate:"gte=0,lte=24"`
	IsHeadOffice  bool               `json:"isHeadOffice"`
	Vehicle       string             `json:"vehicle" validate:"max=64"`
	Allowances    []allowancePayload `json:"allowances" validate:"dive"`
}

func (p employeePayload) employee(id string) payroll.Employee {
	e := payroll.Employee{
		ID:            id,
		Name:          p.Name,
		JobTitle:      strings.TrimSpace(p.JobTitle),
		WorkLocation:  p.WorkLocation,
		SalaryType:    payroll.SalaryType(p.SalaryType),
		SalaryAmount:  p.SalaryAmount,
		PaymentSource: strings.TrimSpace(p.PaymentSource),
		RestDays:      p.RestDays,
		HoursPerDay:   p.HoursPerDay,
		IsHeadOffice:  p.IsHeadOffice,
		Vehicle:       p.Vehicle,
	}
	for _, a := range p.Allowances {
		e.Allowances = append(e.Allowances, payroll.Allowance{
			Type:      payroll.AllowanceType(a.Type),
			Amount:    a.Amount,
			Frequency: payroll.Frequency(a.Frequency),
		})
	}
	return e
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	settings, err := h.Service.PeriodSettings(r.Context(), user.TenantID, period)
	if err != nil {
		writeError(w, r, err, "payroll_settings_failed", "failed to load period settings")
		return
	}
	settings.Period = period
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload settingsPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	before, err := h.Service.PeriodSettings(r.Context(), user.TenantID, period)
	if err != nil {
		writeError(w, r, err, "payroll_settings_failed", "failed to load period settings")
		return
	}
	settings := payroll.PeriodSettings{
		Period:              period,
		GeneralBonusDays:    payload.GeneralBonusDays,
		ExcludedEmployeeIDs: make(map[string]bool, len(payload.ExcludedEmployeeIDs)),
	}
	for _, id := range payload.ExcludedEmployeeIDs {
		settings.ExcludedEmployeeIDs[strings.TrimSpace(id)] = true
	}
	if err := h.Service.SetPeriodSettings(r.Context(), user.TenantID, settings); err != nil {
		writeError(w, r, err, "payroll_settings_failed", "failed to save period settings")
		return
	}
	h.record(r, user, audit.ActionPeriodSettings, "payroll_period", period.Key(), before, settings)
	api.Success(w, settings, requestID)
}

func (h *Handler) handleSetBonus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	period, ok := periodOrFail(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload bonusPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	entry := payroll.BonusDeduction{
		EmployeeID:      chi.URLParam(r, "employeeID"),
		Period:          period,
		BonusAmount:     payload.BonusAmount,
		DeductionAmount: payload.DeductionAmount,
	}
	if err := h.Service.SetBonusDeduction(r.Context(), user.TenantID, entry); err != nil {
		writeError(w, r, err, "payroll_bonus_failed", "failed to save bonus and deduction")
		return
	}
	h.record(r, user, audit.ActionBonusDeduction, "employee", entry.EmployeeID, nil, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload attendancePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	row := payroll.AttendanceRow{
		Date:       date,
		EmployeeID: strings.TrimSpace(payload.EmployeeID),
		Hours:      payload.Hours,
		Locations:  payload.Locations,
	}
	if err := h.Service.RecordAttendance(r.Context(), user.TenantID, row); err != nil {
		writeError(w, r, err, "attendance_failed", "failed to record attendance")
		return
	}
	h.record(r, user, audit.ActionAttendanceRecord, "employee", row.EmployeeID, nil, row)
	api.Created(w, row, requestID)
}

func (h *Handler) handleListHolidays(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var from, to time.Time
	query := r.URL.Query()
	if raw := query.Get("period"); raw != "" {
		period, err := payroll.ParsePeriod(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_period", "period must be YYYY-MM", requestID)
			return
		}
		from, to = period.Start(), period.End()
	} else {
		v := shared.NewValidator()
		if raw := query.Get("from"); raw != "" {
			from, _ = v.Date("from", raw)
		}
		if raw := query.Get("to"); raw != "" {
			to, _ = v.Date("to", raw)
		}
		v.DateOrder("from", from, "to", to)
		if v.Reject(w, requestID) {
			return
		}
	}
	holidays, err := h.Service.ListHolidays(r.Context(), user.TenantID, from, to)
	if err != nil {
		writeError(w, r, err, "holidays_failed", "failed to list holidays")
		return
	}
	api.Success(w, holidays, requestID)
}

func (h *Handler) handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload holidayPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	date, _ := v.Date("date", payload.Date)
	if v.Reject(w, requestID) {
		return
	}

	holiday := payroll.PublicHoliday{Date: date, Name: payload.Name}
	if err := h.Service.AddHoliday(r.Context(), user.TenantID, holiday); err != nil {
		writeError(w, r, err, "holiday_failed", "failed to add holiday")
		return
	}
	h.record(r, user, audit.ActionHolidayAdd, "holiday", payroll.DateKey(date), nil, holiday)
	api.Created(w, holiday, requestID)
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	loans, err := h.Service.ListLoans(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "loans_failed", "failed to list loans")
		return
	}
	if employeeID := r.URL.Query().Get("employeeId"); employeeID != "" {
		filtered := make([]payroll.Loan, 0, len(loans))
		for _, loan := range loans {
			if loan.EmployeeID == employeeID {
				filtered = append(filtered, loan)
			}
		}
		loans = filtered
	}
	api.Success(w, loans, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload loanPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	start, err := payroll.ParsePeriod(strings.TrimSpace(payload.StartPeriod))
	if payload.StartPeriod != "" && err != nil {
		v.Add("startPeriod", "must be YYYY-MM")
	}
	if v.Reject(w, requestID) {
		return
	}

	loan, err := h.Service.CreateLoan(r.Context(), user.TenantID, payroll.Loan{
		EmployeeID:   strings.TrimSpace(payload.EmployeeID),
		TotalAmount:  payload.TotalAmount,
		Installments: payload.Installments,
		StartPeriod:  start,
	})
	if err != nil {
		writeError(w, r, err, "loan_failed", "failed to create loan")
		return
	}
	h.record(r, user, audit.ActionLoanCreate, "loan", loan.ID, nil, loan)
	api.Created(w, loan, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	employees, err := h.Service.ListEmployees(r.Context(), user.TenantID)
	if err != nil {
		writeError(w, r, err, "employees_failed", "failed to list employees")
		return
	}
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpsertEmployee(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	employee, err := h.Service.UpsertEmployee(r.Context(), user.TenantID, payload.employee(chi.URLParam(r, "employeeID")))
	if err != nil {
		writeError(w, r, err, "employee_failed", "failed to save employee")
		return
	}
	h.record(r, user, audit.ActionEmployeeUpsert, "employee", employee.ID, nil, employee)
	api.Success(w, employee, requestID)
}
