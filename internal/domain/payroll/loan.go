package payroll

// Installment is the fixed monthly repayment.
func (l Loan) Installment() float64 {
	if l.Installments <= 0 {
		return 0
	}
	return l.TotalAmount / float64(l.Installments)
}

// LastPeriod is the period of the final installment.
func (l Loan) LastPeriod() Period {
	return l.StartPeriod.AddMonths(max(l.Installments, 1) - 1)
}

// ActiveIn reports whether period falls within the repayment window.
func (l Loan) ActiveIn(period Period) bool {
	if l.Installments <= 0 || !l.StartPeriod.Valid() {
		return false
	}
	idx := period.Index()
	return idx >= l.StartPeriod.Index() && idx <= l.LastPeriod().Index()
}

// ActiveLoan returns the loan being repaid by employeeID in period. When
// several overlap, the most recently started wins, then the most recently
// created, then the greatest id.
func ActiveLoan(employeeID string, loans []Loan, period Period) (Loan, bool) {
	var best Loan
	found := false
	for _, loan := range loans {
		if loan.EmployeeID != employeeID || !loan.ActiveIn(period) {
			continue
		}
		if !found || newerLoan(loan, best) {
			best = loan
			found = true
		}
	}
	return best, found
}

// LoanInstallment is the amount deducted in period, zero without an active loan.
func LoanInstallment(employeeID string, loans []Loan, period Period) float64 {
	loan, ok := ActiveLoan(employeeID, loans, period)
	if !ok {
		return 0
	}
	return loan.Installment()
}

func newerLoan(a, b Loan) bool {
	if a.StartPeriod.Index() != b.StartPeriod.Index() {
		return a.StartPeriod.Index() > b.StartPeriod.Index()
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
