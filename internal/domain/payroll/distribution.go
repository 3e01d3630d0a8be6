package payroll

import (
	"slices"
	"time"
)

type CostInput struct {
	Employee         Employee
	Attendance       AttendanceSheet
	Days             []time.Time
	Bonus            BonusDeduction
	Settings         PeriodSettings
	TotalOvertimePay float64
	LoanInstallment  float64
}

// DistributeCost spreads one employee's period pay across the locations
// worked, proportionally to the days credited to each. Summed over the
// locations, every money column equals the employee's report line.
func (p Policy) DistributeCost(in CostInput) CostDistribution {
	locations := DistributeLocations(in.Employee, in.Attendance, in.Days)
	total := locations.TotalDays()
	out := CostDistribution{
		EmployeeID:    in.Employee.ID,
		TotalWorkDays: total,
	}

	// No attended day: the whole period is charged to the home location.
	if total <= 0 {
		out.Locations = []LocationCost{p.locationCost(in, in.Employee.HomeLocation(), 0, 1)}
		return out
	}

	out.Locations = make([]LocationCost, 0, len(locations))
	for _, name := range locations.Names() {
		days := locations[name]
		out.Locations = append(out.Locations, p.locationCost(in, name, days, days/total))
	}
	return out
}

func (p Policy) locationCost(in CostInput, location string, days, ratio float64) LocationCost {
	e := in.Employee
	base := e.SalaryAmount * ratio
	if e.IsDaily() {
		base = days * p.DailyRate(e)
	}
	allowances := allowanceCost(e.Allowances, days, ratio)
	additions := in.Bonus.BonusAmount*ratio +
		p.GeneralBonus(e, in.Settings)*ratio +
		in.TotalOvertimePay*ratio
	deductions := in.Bonus.DeductionAmount*ratio + in.LoanInstallment*ratio

	return LocationCost{
		Location:        location,
		Days:            days,
		Ratio:           ratio,
		BaseCost:        base,
		AllowancesCost:  allowances,
		OtherAdditions:  additions,
		TotalDeductions: deductions,
		NetCost:         base + allowances + additions - deductions,
	}
}

// GeneralBonus is the period-wide bonus in currency for one employee.
func (p Policy) GeneralBonus(e Employee, settings PeriodSettings) float64 {
	if settings.Excluded(e.ID) || settings.GeneralBonusDays <= 0 {
		return 0
	}
	return settings.GeneralBonusDays * p.DailyRate(e)
}

// allowanceCost scales daily allowances by days and monthly allowances by
// ratio. With days equal to the attended days and ratio 1 it yields the
// employee's full period allowance.
func allowanceCost(allowances []Allowance, days, ratio float64) float64 {
	var total float64
	for _, a := range allowances {
		if !slices.Contains(AllowanceTypes, a.Type) {
			continue
		}
		if a.Frequency == FrequencyDaily {
			total += a.Amount * days
			continue
		}
		total += a.Amount * ratio
	}
	return total
}
