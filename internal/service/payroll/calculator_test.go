package payroll

import (
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// April 2024 has 30 days and four Sundays, leaving 26 working days.
const (
	aprilYear  = 2024
	aprilMonth = 4
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}

func strPtr(s string) *string { return &s }

func fullStructure() payroll.SalaryStructure {
	return payroll.SalaryStructure{
		EmployeeID:         "emp-1",
		BasicSalary:        dec("20000"),
		HouseRentAllowance: dec("8000"),
		Conveyance:         dec("1600"),
		UniformAndSafety:   dec("500"),
		Bonus:              dec("1000"),
		FoodAllowance:      dec("700"),
		OtherAllowance:     dec("1200"),
		OvertimeRate:       dec("100"),
		EPFEmployeePercent: dec("12"),
		EPFEmployerPercent: dec("13"),
		ESICPercent:        dec("0.75"),
		ProfessionalTax:    dec("200"),
		UANNumber:          strPtr("100200300400"),
		ESICNumber:         strPtr("3100123456"),
	}
}

func basicOnly(basic string) payroll.SalaryStructure {
	return payroll.SalaryStructure{
		EmployeeID:   "emp-2",
		BasicSalary:  dec(basic),
		OvertimeRate: dec("1"),
	}
}

func days(n int, hours float64) []attendance.DailyResult {
	out := make([]attendance.DailyResult, n)
	for i := range out {
		out[i] = attendance.DailyResult{WorkingHours: hours}
	}
	return out
}

func fieldErrors(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	return errs
}

func TestCalculator_FullMonthAboveEPFThreshold(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())
	daily := days(26, 8)
	daily[3].OvertimeHours = 2

	slip, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, daily, payroll.DeductionInputs{
		TDS:          dec("500"),
		LoanRecovery: dec("1000"),
	})
	require.NoError(t, err)

	assert.Equal(t, 30, slip.TotalDaysInMonth)
	assert.Equal(t, 26, slip.WorkingDays)
	assert.Equal(t, 4, slip.WeeklyOffs)
	assert.Equal(t, 26, slip.PresentDays)
	assert.Equal(t, 0, slip.AbsentDays)
	assertDecimal(t, "208", slip.TotalEffectiveWorkingHours, "total_effective_working_hours")
	assertDecimal(t, "2", slip.TotalOvertimeHours, "total_overtime_hours")
	assertDecimal(t, "1", slip.ProrationFactor, "proration_factor")

	e := slip.Earnings
	assertDecimal(t, "20000", e.BasicPay, "basic_pay")
	assertDecimal(t, "8000", e.HRA, "hra")
	assertDecimal(t, "1200", e.SpecialAllowance, "special_allowance")
	assertDecimal(t, "200", e.OvertimePay, "overtime_pay")
	assertDecimal(t, "1400", e.TotalSpecialAllowance, "total_special_allowance")
	assertDecimal(t, "1200", e.OtherIncentive, "other_incentive")
	assertDecimal(t, "1950", e.EPFEmployerContribution, "epf_employer_contribution")
	assertDecimal(t, "36350", e.Total, "total_earnings")

	d := slip.Deductions
	assertDecimal(t, "1800", d.EPFEmployee, "epf_employee")
	assertDecimal(t, "1950", d.EPFEmployer, "epf_employer")
	assertDecimal(t, "150", d.ESIC, "esic")
	assertDecimal(t, "200", d.ProfessionalTax, "professional_tax")
	assertDecimal(t, "4100", d.TotalStatutory, "total_statutory")
	assertDecimal(t, "1500", d.TotalOther, "total_other")
	assertDecimal(t, "5600", d.Total, "total_deductions")

	assertDecimal(t, "30750", slip.NetSalary, "net_salary")
	assertDecimal(t, "769.23", slip.DailyRate, "daily_rate")
	assertDecimal(t, "96.15", slip.HourlyRate, "hourly_rate")
	assertDecimal(t, "100", slip.OvertimeRate, "overtime_rate")
	assert.Equal(t, payroll.BranchFixedAbove, slip.EPFBranch)
	assert.Equal(t, payroll.SlipStatusDraft, slip.Status)
}

func TestCalculator_PresentDaysAboveWorkingDays(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	_, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, days(30, 8), payroll.DeductionInputs{})

	errs := fieldErrors(t, err)
	assert.True(t, errs.HasField("present_days"))
}

func TestCalculator_EPFThresholdIsStrict(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	cases := []struct {
		name         string
		basic        string
		present      int
		wantBranch   payroll.ContributionBranch
		wantEPF      string
		wantEPFEr    string
		wantBasicPay string
	}{
		{"exactly at threshold", "15000", 26, payroll.BranchPercentBelow, "1500", "1500", "15000"},
		{"one paisa above", "15000.01", 26, payroll.BranchFixedAbove, "1800", "1950", "15000.01"},
		{"well below", "10000", 26, payroll.BranchPercentBelow, "1000", "1000", "10000"},
		// 16250 * 24 / 26 is exactly 15000
		{"prorated exactly at threshold", "16250", 24, payroll.BranchPercentBelow, "1500", "1500", "15000"},
		// 16250.005 * 24 / 26 = 15000.0046..., shown as 15000 but still above
		{"prorated within a paisa above", "16250.005", 24, payroll.BranchFixedAbove, "1800", "1950", "15000"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := basicOnly(c.basic)
			s.UANNumber = strPtr("UAN1")
			s.EPFEmployeePercent = dec("10")
			s.EPFEmployerPercent = dec("10")

			slip, err := calc.Calculate(s, aprilYear, aprilMonth, days(c.present, 8), payroll.DeductionInputs{})
			require.NoError(t, err)

			assert.Equal(t, c.present, slip.PresentDays)
			assert.Equal(t, c.wantBranch, slip.EPFBranch)
			assertDecimal(t, c.wantBasicPay, slip.Earnings.BasicPay, "basic_pay")
			assertDecimal(t, c.wantEPF, slip.Deductions.EPFEmployee, "epf_employee")
			assertDecimal(t, c.wantEPFEr, slip.Deductions.EPFEmployer, "epf_employer")
			assertDecimal(t, c.wantEPFEr, slip.Earnings.EPFEmployerContribution, "epf_employer_contribution")
		})
	}
}

func TestCalculator_NetRoundsExactTotalOnce(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	// fixed components sum to 17771; 17771 * 19 / 26 = 12986.5 exactly
	s := basicOnly("10016")
	s.HouseRentAllowance = dec("4001")
	s.Conveyance = dec("1603")
	s.FoodAllowance = dec("707")
	s.Bonus = dec("1111")
	s.UniformAndSafety = dec("333")

	slip, err := calc.Calculate(s, aprilYear, aprilMonth, days(19, 8), payroll.DeductionInputs{})
	require.NoError(t, err)

	assert.Equal(t, 19, slip.PresentDays)
	assertDecimal(t, "0.73076923", slip.ProrationFactor, "proration_factor")
	assertDecimal(t, "12986.5", slip.Earnings.Total, "total_earnings")
	assertDecimal(t, "7319.38", slip.Earnings.BasicPay, "basic_pay")
	assertDecimal(t, "2923.81", slip.Earnings.HRA, "hra")
	assertDecimal(t, "12987", slip.NetSalary, "net_salary")

	t.Run("deductions are subtracted before rounding", func(t *testing.T) {
		slip, err := calc.Calculate(s, aprilYear, aprilMonth, days(19, 8), payroll.DeductionInputs{TDS: dec("0.25")})
		require.NoError(t, err)
		// 12986.25 rounds down
		assertDecimal(t, "12986", slip.NetSalary, "net_salary")
	})
}

func TestCalculator_ProrationUsesPercentBranch(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	slip, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, days(13, 8), payroll.DeductionInputs{})
	require.NoError(t, err)

	assert.Equal(t, 13, slip.PresentDays)
	assert.Equal(t, 13, slip.AbsentDays)
	assertDecimal(t, "0.5", slip.ProrationFactor, "proration_factor")
	assertDecimal(t, "10000", slip.Earnings.BasicPay, "basic_pay")
	assertDecimal(t, "600", slip.Earnings.SpecialAllowance, "special_allowance")
	// the incentive is never prorated
	assertDecimal(t, "1200", slip.Earnings.OtherIncentive, "other_incentive")
	assertDecimal(t, "1200", slip.Deductions.EPFEmployee, "epf_employee")
	assertDecimal(t, "1300", slip.Deductions.EPFEmployer, "epf_employer")
	assertDecimal(t, "75", slip.Deductions.ESIC, "esic")
	assert.Equal(t, payroll.BranchPercentBelow, slip.EPFBranch)
}

func TestCalculator_PresentDaysRoundHalfUp(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	cases := []struct {
		name  string
		daily []attendance.DailyResult
		want  int
	}{
		{"exact half rounds up", append(days(20, 8), attendance.DailyResult{WorkingHours: 4}), 21},
		{"just below half rounds down", append(days(20, 8), attendance.DailyResult{WorkingHours: 3.96}), 20},
		{"no attendance", nil, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := basicOnly("20000")
			s.OtherAllowance = dec("500")

			slip, err := calc.Calculate(s, aprilYear, aprilMonth, c.daily, payroll.DeductionInputs{})
			require.NoError(t, err)
			assert.Equal(t, c.want, slip.PresentDays)
			assert.Equal(t, 26-c.want, slip.AbsentDays)
		})
	}
}

func TestCalculator_Preconditions(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	cases := []struct {
		name   string
		mutate func(s *payroll.SalaryStructure)
		field  string
	}{
		{"zero basic", func(s *payroll.SalaryStructure) { s.BasicSalary = decimal.Zero }, "basic_salary"},
		{"basic above ceiling", func(s *payroll.SalaryStructure) { s.BasicSalary = dec("1000000.01") }, "basic_salary"},
		{"epf percent above 15 with uan", func(s *payroll.SalaryStructure) { s.EPFEmployeePercent = dec("15.5") }, "epf_employee_percent"},
		{"negative epf percent with uan", func(s *payroll.SalaryStructure) { s.EPFEmployeePercent = dec("-1") }, "epf_employee_percent"},
		{"esic percent above 5", func(s *payroll.SalaryStructure) { s.ESICPercent = dec("5.01") }, "esic_percent"},
		{"overtime multiplier below one", func(s *payroll.SalaryStructure) { s.OvertimeRate = dec("0.99") }, "overtime_rate"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := fullStructure()
			c.mutate(&s)

			slip, err := calc.Calculate(s, aprilYear, aprilMonth, days(26, 8), payroll.DeductionInputs{})

			errs := fieldErrors(t, err)
			assert.True(t, errs.HasField(c.field), "expected %s in %v", c.field, errs)
			assert.Empty(t, slip.Status)
		})
	}
}

func TestCalculator_EnrollmentGatesRateChecks(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())
	s := fullStructure()
	s.UANNumber = nil
	s.ESICNumber = strPtr("  ")
	s.EPFEmployeePercent = dec("40")
	s.ESICPercent = dec("40")

	slip, err := calc.Calculate(s, aprilYear, aprilMonth, days(26, 8), payroll.DeductionInputs{})
	require.NoError(t, err)

	assert.True(t, slip.Deductions.EPFEmployee.IsZero())
	assert.True(t, slip.Deductions.EPFEmployer.IsZero())
	assert.True(t, slip.Deductions.ESIC.IsZero())
	// the employer credit on the earnings side is not gated by enrollment
	assertDecimal(t, "1950", slip.Earnings.EPFEmployerContribution, "epf_employer_contribution")
}

func TestCalculator_InvalidMonth(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	_, err := calc.Calculate(fullStructure(), 2024, 13, days(26, 8), payroll.DeductionInputs{})

	errs := fieldErrors(t, err)
	assert.True(t, errs.HasField("period_month"))
}

func TestCalculator_Caps(t *testing.T) {
	cases := []struct {
		name       string
		structure  payroll.SalaryStructure
		rules      func(r *payroll.Rules)
		deductions payroll.DeductionInputs
		daily      []attendance.DailyResult
		field      string
	}{
		{
			name:      "zero earnings",
			structure: basicOnly("20000"),
			field:     "total_earnings",
		},
		{
			name:      "basic pay above cap",
			structure: basicOnly("250000"),
			daily:     days(26, 8),
			field:     "basic_pay",
		},
		{
			name: "total earnings above cap",
			structure: func() payroll.SalaryStructure {
				s := basicOnly("150000")
				s.HouseRentAllowance = dec("400000")
				return s
			}(),
			daily: days(26, 8),
			field: "total_earnings",
		},
		{
			name: "net salary above cap",
			structure: func() payroll.SalaryStructure {
				s := basicOnly("200000")
				s.HouseRentAllowance = dec("250000")
				return s
			}(),
			daily: days(26, 8),
			field: "net_salary",
		},
		{
			name:       "negative net salary",
			structure:  basicOnly("20000"),
			daily:      days(26, 8),
			deductions: payroll.DeductionInputs{LoanRecovery: dec("30000")},
			field:      "net_salary",
		},
		{
			name: "employee epf above cap",
			structure: func() payroll.SalaryStructure {
				s := basicOnly("20000")
				s.UANNumber = strPtr("UAN1")
				return s
			}(),
			rules: func(r *payroll.Rules) { r.EPFEmployee.FixedAmount = dec("60000") },
			daily: days(26, 8),
			field: "epf_employee_deduction",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rules := payroll.DefaultRules()
			if c.rules != nil {
				c.rules(&rules)
			}
			calc := NewCalculator(rules)

			_, err := calc.Calculate(c.structure, aprilYear, aprilMonth, c.daily, c.deductions)

			errs := fieldErrors(t, err)
			assert.True(t, errs.HasField(c.field), "expected %s in %v", c.field, errs)
		})
	}
}

func TestCalculator_Idempotent(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())
	daily := append(days(21, 7.7333), attendance.DailyResult{WorkingHours: 5.25, OvertimeHours: 1.5})
	in := payroll.DeductionInputs{TDS: dec("321.45")}

	first, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, daily, in)
	require.NoError(t, err)
	second, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, daily, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCalculator_MonotonicInWorkingHours(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())
	s := basicOnly("20000")
	s.OtherAllowance = dec("1000")
	s.EPFEmployerPercent = dec("12")

	var prev payroll.PayrollSlip
	for quarterHours := 0; quarterHours <= 26*8*4; quarterHours += 5 {
		hours := float64(quarterHours) / 4
		var daily []attendance.DailyResult
		for remaining := hours; remaining > 0; remaining -= 8 {
			daily = append(daily, attendance.DailyResult{WorkingHours: min(remaining, 8)})
		}

		slip, err := calc.Calculate(s, aprilYear, aprilMonth, daily, payroll.DeductionInputs{})
		require.NoError(t, err, "hours=%v", hours)

		if quarterHours > 0 {
			assert.GreaterOrEqual(t, slip.PresentDays, prev.PresentDays, "hours=%v", hours)
			assert.False(t, slip.ProrationFactor.LessThan(prev.ProrationFactor), "hours=%v", hours)
			assert.False(t, slip.Earnings.Total.LessThan(prev.Earnings.Total), "hours=%v", hours)
		}
		assert.LessOrEqual(t, slip.PresentDays, slip.WorkingDays)
		assert.False(t, slip.ProrationFactor.GreaterThan(decimal.NewFromInt(1)))
		prev = slip
	}
}

func TestCalculator_OtherIncentiveFlag(t *testing.T) {
	rules := payroll.DefaultRules()
	rules.CountOtherAllowanceAsIncentive = false
	calc := NewCalculator(rules)

	slip, err := calc.Calculate(fullStructure(), aprilYear, aprilMonth, days(26, 8), payroll.DeductionInputs{})
	require.NoError(t, err)

	assert.True(t, slip.Earnings.OtherIncentive.IsZero())
	assertDecimal(t, "1200", slip.Earnings.SpecialAllowance, "special_allowance")
}

func TestCalculator_FebruaryLeapYear(t *testing.T) {
	calc := NewCalculator(payroll.DefaultRules())

	slip, err := calc.Calculate(fullStructure(), 2024, 2, days(25, 8), payroll.DeductionInputs{})
	require.NoError(t, err)

	assert.Equal(t, 29, slip.TotalDaysInMonth)
	assert.Equal(t, 4, slip.WeeklyOffs)
	assert.Equal(t, 25, slip.WorkingDays)
	assertDecimal(t, "1", slip.ProrationFactor, "proration_factor")
}
