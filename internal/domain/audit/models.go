package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionPayrollArchive   = "payroll.archive"
	ActionPayrollReopen    = "payroll.reopen"
	ActionPeriodSettings   = "payroll.settings.update"
	ActionBonusDeduction   = "payroll.bonus.update"
	ActionAttendanceRecord = "payroll.attendance.record"
	ActionHolidayAdd       = "payroll.holiday.add"
	ActionLoanCreate       = "payroll.loan.create"
	ActionEmployeeUpsert   = "payroll.employee.upsert"
	ActionMFAEnable        = "auth.mfa.enable"
	ActionMFADisable       = "auth.mfa.disable"
)

// Entry is one administrative action to be recorded.
type Entry struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}
