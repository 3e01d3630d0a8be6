package payroll

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPayrollDaysBoundaries(t *testing.T) {
	days := PayrollDays(2025, time.March)
	require.Len(t, days, 28)
	assert.Equal(t, date(2025, time.February, 26), days[0])
	assert.Equal(t, date(2025, time.March, 25), days[len(days)-1])

	days = PayrollDays(2025, time.January)
	require.Len(t, days, 31)
	assert.Equal(t, date(2024, time.December, 26), days[0])
	assert.Equal(t, date(2025, time.January, 25), days[len(days)-1])
}

func TestPayrollDaysAscendingAndContiguous(t *testing.T) {
	days := PayrollDays(2024, time.March)
	require.Len(t, days, 29)
	for i := 1; i < len(days); i++ {
		assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i])
	}
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, NewPeriod(2025, time.March), PeriodOf(date(2025, time.February, 26)))
	assert.Equal(t, NewPeriod(2025, time.March), PeriodOf(date(2025, time.March, 25)))
	assert.Equal(t, NewPeriod(2025, time.April), PeriodOf(date(2025, time.March, 26)))
	assert.Equal(t, NewPeriod(2026, time.January), PeriodOf(date(2025, time.December, 31)))
}

func TestPeriodOfIgnoresZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2025, time.March, 26, 0, 30, 0, 0, zone)
	assert.Equal(t, NewPeriod(2025, time.April), PeriodOf(local))
	assert.Equal(t, "2025-03-26", DateKey(local))
}

func TestPeriodContains(t *testing.T) {
	p := NewPeriod(2025, time.January)
	assert.True(t, p.Contains(date(2024, time.December, 26)))
	assert.True(t, p.Contains(date(2025, time.January, 25)))
	assert.False(t, p.Contains(date(2024, time.December, 25)))
	assert.False(t, p.Contains(date(2025, time.January, 26)))
}

func TestPeriodAddMonths(t *testing.T) {
	p := NewPeriod(2025, time.November)
	assert.Equal(t, NewPeriod(2026, time.February), p.AddMonths(3))
	assert.Equal(t, NewPeriod(2024, time.December), p.AddMonths(-11))
	assert.True(t, p.Before(p.AddMonths(1)))
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-03")
	require.NoError(t, err)
	assert.Equal(t, NewPeriod(2025, time.March), p)
	assert.Equal(t, "2025-03", p.Key())

	_, err = ParsePeriod("2025-13")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ParsePeriod("march")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		Period Period `json:"period"`
	}{NewPeriod(2025, time.January)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2025-01"}`, string(payload))

	var decoded struct {
		Period Period `json:"period"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"period":"2024-12"}`), &decoded))
	assert.Equal(t, NewPeriod(2024, time.December), decoded.Period)

	err = json.Unmarshal([]byte(`{"period":"2024-13"}`), &decoded)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
