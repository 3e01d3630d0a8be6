package payroll

import "time"

type Allowance struct {
	Type      AllowanceType `json:"type"`
	Amount    float64       `json:"amount"`
	Frequency Frequency     `json:"frequency"`
}

type Employee struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	JobTitle      string      `json:"jobTitle"`
	WorkLocation  string      `json:"workLocation"`
	SalaryType    SalaryType  `json:"salaryType"`
	SalaryAmount  float64     `json:"salaryAmount"`
	PaymentSource string      `json:"paymentSource"`
	RestDays      []string    `json:"restDays"`
	HoursPerDay   float64     `json:"hoursPerDay"`
	IsHeadOffice  bool        `json:"isHeadOffice"`
	Vehicle       string      `json:"vehicle,omitempty"`
	Allowances    []Allowance `json:"allowances"`
}

func (e Employee) IsDaily() bool {
	return e.SalaryType == SalaryDaily
}

// HomeLocation is the default work location, never empty.
func (e Employee) HomeLocation() string {
	if e.WorkLocation == "" {
		return UnassignedLocation
	}
	return e.WorkLocation
}

type PublicHoliday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// AttendanceRow is one raw stored row; several rows may exist for the same
// (date, employee) pair.
type AttendanceRow struct {
	Date       time.Time `json:"date"`
	EmployeeID string    `json:"employeeId"`
	Hours      float64   `json:"hours"`
	Locations  []string  `json:"locations"`
}

// AttendanceDay is the merged, logical record for one (date, employee).
type AttendanceDay struct {
	Hours     float64  `json:"hours"`
	Locations []string `json:"locations"`
}

type Loan struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	TotalAmount  float64   `json:"totalAmount"`
	Installments int       `json:"installments"`
	StartPeriod  Period    `json:"startPeriod"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BonusDeduction struct {
	EmployeeID      string  `json:"employeeId"`
	Period          Period  `json:"period"`
	BonusAmount     float64 `json:"bonusAmount"`
	DeductionAmount float64 `json:"deductionAmount"`
}

// PeriodSettings carries the administrator's per-period knobs.
type PeriodSettings struct {
	Period              Period          `json:"period"`
	GeneralBonusDays    float64         `json:"generalBonusDays"`
	ExcludedEmployeeIDs map[string]bool `json:"excludedEmployeeIds"`
}

func (s PeriodSettings) Excluded(employeeID string) bool {
	return s.ExcludedEmployeeIDs[employeeID]
}

// Inputs is the immutable snapshot a report is computed over.
type Inputs struct {
	Period     Period
	Employees  []Employee
	Attendance AttendanceSheet
	Holidays   HolidayCalendar
	Loans      []Loan
	Bonuses    map[string]BonusDeduction
	Settings   PeriodSettings
}

type OvertimeBucket struct {
	RawHours        float64 `json:"rawHours"`
	CalculatedValue float64 `json:"calculatedValue"`
}

func (b *OvertimeBucket) add(hours, value float64) {
	b.RawHours += hours
	b.CalculatedValue += value
}

type AttendanceSummary struct {
	EmployeeID           string         `json:"employeeId"`
	ActualAttendanceDays int            `json:"actualAttendanceDays"`
	WeekdayOvertime      OvertimeBucket `json:"weekdayOvertime"`
	ThursdayOvertime     OvertimeBucket `json:"thursdayOvertime"`
	RestDayOvertime      OvertimeBucket `json:"restDayOvertime"`
	HolidayOvertime      OvertimeBucket `json:"holidayOvertime"`
	TotalOvertimeValue   float64        `json:"totalOvertimeValue"`
}

type LocationCost struct {
	Location        string  `json:"location"`
	Days            float64 `json:"days"`
	Ratio           float64 `json:"ratio"`
	BaseCost        float64 `json:"baseCost"`
	AllowancesCost  float64 `json:"allowancesCost"`
	OtherAdditions  float64 `json:"otherAdditions"`
	TotalDeductions float64 `json:"totalDeductions"`
	NetCost         float64 `json:"netCost"`
}

type CostDistribution struct {
	EmployeeID    string         `json:"employeeId"`
	TotalWorkDays float64        `json:"totalWorkDays"`
	Locations     []LocationCost `json:"locations"`
}

type ReportLine struct {
	EmployeeID       string     `json:"employeeId"`
	Name             string     `json:"name"`
	JobTitle         string     `json:"jobTitle"`
	WorkLocation     string     `json:"workLocation"`
	PaymentSource    string     `json:"paymentSource"`
	Vehicle          string     `json:"vehicle,omitempty"`
	SalaryType       SalaryType `json:"salaryType"`
	TotalWorkDays    int        `json:"totalWorkDays"`
	BasePay          float64    `json:"basePay"`
	TotalOvertimePay float64    `json:"totalOvertimePay"`
	TotalAllowances  float64    `json:"totalAllowances"`
	TotalBonuses     float64    `json:"totalBonuses"`
	GeneralBonus     float64    `json:"generalBonus"`
	LoanInstallment  float64    `json:"loanInstallment"`
	ManualDeduction  float64    `json:"manualDeduction"`
	NetSalary        float64    `json:"netSalary"`
}

type ReportTotals struct {
	EmployeeCount    int     `json:"employeeCount"`
	TotalWorkDays    int     `json:"totalWorkDays"`
	BasePay          float64 `json:"basePay"`
	TotalOvertimePay float64 `json:"totalOvertimePay"`
	TotalAllowances  float64 `json:"totalAllowances"`
	TotalBonuses     float64 `json:"totalBonuses"`
	GeneralBonus     float64 `json:"generalBonus"`
	LoanInstallment  float64 `json:"loanInstallment"`
	ManualDeduction  float64 `json:"manualDeduction"`
	NetSalary        float64 `json:"netSalary"`
}

// VehicleSummary groups driver lines sharing a vehicle.
type VehicleSummary struct {
	Vehicle          string   `json:"vehicle"`
	Drivers          []string `json:"drivers"`
	TotalWorkDays    int      `json:"totalWorkDays"`
	TotalOvertimePay float64  `json:"totalOvertimePay"`
	NetSalary        float64  `json:"netSalary"`
}

type Report struct {
	Period   Period           `json:"period"`
	Lines    []ReportLine     `json:"lines"`
	Totals   ReportTotals     `json:"totals"`
	Vehicles []VehicleSummary `json:"vehicles,omitempty"`
	Closed   bool             `json:"closed"`
}

// HistoricalPayroll is an archived report; its existence closes the period.
type HistoricalPayroll struct {
	Period     Period    `json:"period"`
	Report     Report    `json:"report"`
	ArchivedBy string    `json:"archivedBy"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// EmployeeBreakdown is every per-employee view of one period.
type EmployeeBreakdown struct {
	Employee     Employee          `json:"employee"`
	Summary      AttendanceSummary `json:"summary"`
	Locations    LocationSummary   `json:"locations"`
	Distribution CostDistribution  `json:"distribution"`
	Line         ReportLine        `json:"line"`
	Loan         *Loan             `json:"loan,omitempty"`
}

type Payslip struct {
	ID         string    `json:"id"`
	Period     string    `json:"period"`
	EmployeeID string    `json:"employeeId"`
	Net        float64   `json:"net"`
	FileURL    string    `json:"fileUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SealedHistory is the stored form of a HistoricalPayroll; Payload holds the
// sealed JSON snapshot.
type SealedHistory struct {
	Period     Period
	Payload    []byte
	ArchivedBy string
	ArchivedAt time.Time
}

type HistoryEntry struct {
	Period     Period    `json:"period"`
	ArchivedBy string    `json:"archivedBy"`
	ArchivedAt time.Time `json:"archivedAt"`
}
