package payroll

type SalaryType string

const (
	SalaryMonthly SalaryType = "monthly"
	SalaryDaily   SalaryType = "daily"
)

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyDaily   Frequency = "daily"
)

type AllowanceType string

const (
	AllowanceTransport    AllowanceType = "transport"
	AllowanceExpatriation AllowanceType = "expatriation"
	AllowanceMeal         AllowanceType = "meal"
	AllowanceHousing      AllowanceType = "housing"
)

// AllowanceTypes lists the allowance kinds in report column order.
var AllowanceTypes = []AllowanceType{
	AllowanceTransport,
	AllowanceExpatriation,
	AllowanceMeal,
	AllowanceHousing,
}

const (
	UnassignedLocation = "unassigned"

	DateLayout   = "2006-01-02"
	PeriodLayout = "2006-01"

	// PeriodStartDay is the day of the previous month a payroll period opens on.
	PeriodStartDay = 26
	// PeriodEndDay is the day of the named month a payroll period closes on.
	PeriodEndDay = 25
)

// SystemActor is recorded as the archiver of scheduled archives.
const SystemActor = "system"

const (
	JobPayslips = "payroll_payslips"
	JobArchive  = "payroll_archive"
)
