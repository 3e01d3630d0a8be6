package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Breakdown runs every calculator for one employee over the snapshot.
func (p Policy) Breakdown(in Inputs, employee Employee) EmployeeBreakdown {
	p = p.withDefaults()
	days := in.Period.Days()
	summary := p.Summarize(employee, in.Attendance, in.Holidays, days)
	bonus := in.Bonuses[employee.ID]

	var active *Loan
	installment := 0.0
	if loan, ok := ActiveLoan(employee.ID, in.Loans, in.Period); ok {
		active = &loan
		installment = loan.Installment()
	}

	line := p.reportLine(employee, summary, bonus, in.Settings, installment)
	distribution := p.DistributeCost(CostInput{
		Employee:         employee,
		Attendance:       in.Attendance,
		Days:             days,
		Bonus:            bonus,
		Settings:         in.Settings,
		TotalOvertimePay: summary.TotalOvertimeValue,
		LoanInstallment:  installment,
	})

	return EmployeeBreakdown{
		Employee:     employee,
		Summary:      summary,
		Locations:    DistributeLocations(employee, in.Attendance, days),
		Distribution: distribution,
		Line:         line,
		Loan:         active,
	}
}

func (p Policy) reportLine(e Employee, summary AttendanceSummary, bonus BonusDeduction, settings PeriodSettings, installment float64) ReportLine {
	attended := summary.ActualAttendanceDays
	basePay := e.SalaryAmount
	if e.IsDaily() {
		basePay = float64(attended) * p.DailyRate(e)
	}
	allowances := allowanceCost(e.Allowances, float64(attended), 1)
	general := p.GeneralBonus(e, settings)

	return ReportLine{
		EmployeeID:       e.ID,
		Name:             e.Name,
		JobTitle:         e.JobTitle,
		WorkLocation:     e.WorkLocation,
		PaymentSource:    e.PaymentSource,
		Vehicle:          e.Vehicle,
		SalaryType:       e.SalaryType,
		TotalWorkDays:    attended,
		BasePay:          basePay,
		TotalOvertimePay: summary.TotalOvertimeValue,
		TotalAllowances:  allowances,
		TotalBonuses:     bonus.BonusAmount,
		GeneralBonus:     general,
		LoanInstallment:  installment,
		ManualDeduction:  bonus.DeductionAmount,
		NetSalary: basePay + summary.TotalOvertimeValue + allowances + bonus.BonusAmount + general -
			bonus.DeductionAmount - installment,
	}
}

// BuildReport produces one line per roster employee, in roster order, with
// period totals and the per-vehicle grouping of drivers.
func (p Policy) BuildReport(in Inputs) Report {
	report := Report{
		Period: in.Period,
		Lines:  make([]ReportLine, 0, len(in.Employees)),
	}
	for _, employee := range in.Employees {
		report.Lines = append(report.Lines, p.Breakdown(in, employee).Line)
	}
	report.Totals = SumLines(report.Lines)
	report.Vehicles = GroupByVehicle(report.Lines)
	return report
}

// SumLines totals each money column in decimal and rounds to cents.
func SumLines(lines []ReportLine) ReportTotals {
	var base, overtime, allowances, bonuses, general, loans, deductions, net decimal.Decimal
	totals := ReportTotals{EmployeeCount: len(lines)}
	for _, l := range lines {
		totals.TotalWorkDays += l.TotalWorkDays
		base = base.Add(decimal.NewFromFloat(l.BasePay))
		overtime = overtime.Add(decimal.NewFromFloat(l.TotalOvertimePay))
		allowances = allowances.Add(decimal.NewFromFloat(l.TotalAllowances))
		bonuses = bonuses.Add(decimal.NewFromFloat(l.TotalBonuses))
		general = general.Add(decimal.NewFromFloat(l.GeneralBonus))
		loans = loans.Add(decimal.NewFromFloat(l.LoanInstallment))
		deductions = deductions.Add(decimal.NewFromFloat(l.ManualDeduction))
		net = net.Add(decimal.NewFromFloat(l.NetSalary))
	}
	totals.BasePay = money(base)
	totals.TotalOvertimePay = money(overtime)
	totals.TotalAllowances = money(allowances)
	totals.TotalBonuses = money(bonuses)
	totals.GeneralBonus = money(general)
	totals.LoanInstallment = money(loans)
	totals.ManualDeduction = money(deductions)
	totals.NetSalary = money(net)
	return totals
}

// GroupByVehicle summarises driver lines per vehicle, sorted by vehicle.
func GroupByVehicle(lines []ReportLine) []VehicleSummary {
	byVehicle := make(map[string]*VehicleSummary)
	for _, l := range lines {
		if l.Vehicle == "" {
			continue
		}
		summary, ok := byVehicle[l.Vehicle]
		if !ok {
			summary = &VehicleSummary{Vehicle: l.Vehicle}
			byVehicle[l.Vehicle] = summary
		}
		summary.Drivers = append(summary.Drivers, l.EmployeeID)
		summary.TotalWorkDays += l.TotalWorkDays
		summary.TotalOvertimePay += l.TotalOvertimePay
		summary.NetSalary += l.NetSalary
	}
	if len(byVehicle) == 0 {
		return nil
	}
	out := make([]VehicleSummary, 0, len(byVehicle))
	for _, summary := range byVehicle {
		summary.TotalOvertimePay = RoundMoney(summary.TotalOvertimePay)
		summary.NetSalary = RoundMoney(summary.NetSalary)
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vehicle < out[j].Vehicle })
	return out
}

func RoundMoney(value float64) float64 {
	return money(decimal.NewFromFloat(value))
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
