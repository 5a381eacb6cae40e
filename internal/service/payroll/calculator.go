package payroll

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Calculator builds a monthly slip from a salary structure and the month's daily results.
// It performs no I/O and is safe for concurrent use.
type Calculator struct {
	rules payroll.Rules
}

func NewCalculator(rules payroll.Rules) *Calculator {
	return &Calculator{rules: rules}
}

func (c *Calculator) Rules() payroll.Rules {
	return c.rules
}

type calendar struct {
	totalDays   int
	workingDays int
	weeklyOffs  int
}

type presence struct {
	workingHours decimal.Decimal
	overtime     decimal.Decimal
	rawDays      decimal.Decimal
	presentDays  int
	absentDays   int
}

// Calculate returns a DRAFT slip, or validator.ValidationErrors when a
// precondition or a cap is violated. No partial slip is ever returned.
func (c *Calculator) Calculate(
	structure payroll.SalaryStructure,
	year, month int,
	daily []attendance.DailyResult,
	deductions payroll.DeductionInputs,
) (payroll.PayrollSlip, error) {
	errs := c.rules.CheckStructure(structure)
	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if len(errs) > 0 {
		return payroll.PayrollSlip{}, errs
	}

	cal := c.calendar(year, time.Month(month))

	att := c.aggregate(daily, cal.workingDays)
	if att.presentDays > cal.workingDays {
		return payroll.PayrollSlip{}, validator.Single("present_days",
			fmt.Sprintf("present days (%d) cannot exceed working days (%d)", att.presentDays, cal.workingDays))
	}

	p := newProration(att.presentDays, cal.workingDays)

	scaledEarnings := c.earnings(structure, p, att.overtime)
	earnings := mapEarnings(scaledEarnings, p.value)
	if errs := c.checkEarnings(earnings); len(errs) > 0 {
		return payroll.PayrollSlip{}, errs
	}

	scaledDeductions := c.deductions(structure, p, deductions)
	deducted := mapDeductions(scaledDeductions, p.value)
	if deducted.EPFEmployee.GreaterThan(c.rules.MaxEPFEmployeeDeduction) {
		return payroll.PayrollSlip{}, validator.Single("epf_employee_deduction",
			"must not exceed "+c.rules.MaxEPFEmployeeDeduction.String())
	}

	net := payroll.RoundHalfUp(p.value(scaledEarnings.Total.Sub(scaledDeductions.Total)), 0)
	if net.IsNegative() {
		return payroll.PayrollSlip{}, validator.Single("net_salary", "deductions exceed earnings, net salary would be negative")
	}
	if net.GreaterThan(c.rules.MaxNetSalary) {
		return payroll.PayrollSlip{}, validator.Single("net_salary", "must not exceed "+c.rules.MaxNetSalary.String())
	}

	dailyRate := structure.BasicSalary.Div(decimal.NewFromInt(int64(cal.workingDays)))
	hourlyRate := dailyRate.Div(c.rules.HoursPerDay)

	return payroll.PayrollSlip{
		EmployeeID:                 structure.EmployeeID,
		PeriodYear:                 year,
		PeriodMonth:                month,
		TotalDaysInMonth:           cal.totalDays,
		WorkingDays:                cal.workingDays,
		WeeklyOffs:                 cal.weeklyOffs,
		TotalEffectiveWorkingHours: att.workingHours,
		TotalOvertimeHours:         att.overtime,
		RawPresentDays:             att.rawDays,
		PresentDays:                att.presentDays,
		AbsentDays:                 att.absentDays,
		ProrationFactor:            payroll.RoundHalfUp(p.factor(), prorationPlaces),
		Earnings:                   mapEarnings(earnings, c.money),
		Deductions:                 mapDeductions(deducted, c.money),
		NetSalary:                  net,
		DailyRate:                  c.money(dailyRate),
		HourlyRate:                 c.money(hourlyRate),
		OvertimeRate:               structure.OvertimeRate,
		EPFBranch:                  c.rules.EPFEmployee.Branch(earnings.BasicPay),
		Status:                     payroll.SlipStatusDraft,
	}, nil
}

// calendar counts Sundays as weekly offs and every other day as a working day.
func (c *Calculator) calendar(year int, month time.Month) calendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	cal := calendar{totalDays: first.AddDate(0, 1, -1).Day()}

	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Sunday {
			cal.weeklyOffs++
		} else {
			cal.workingDays++
		}
	}
	cal.workingDays = max(cal.workingDays, c.rules.MinWorkingDays)
	return cal
}

func (c *Calculator) aggregate(daily []attendance.DailyResult, workingDays int) presence {
	p := presence{workingHours: decimal.Zero, overtime: decimal.Zero}
	for _, d := range daily {
		p.workingHours = p.workingHours.Add(decimal.NewFromFloat(d.WorkingHours))
		p.overtime = p.overtime.Add(decimal.NewFromFloat(d.OvertimeHours))
	}
	p.rawDays = p.workingHours.Div(c.rules.HoursPerDay)
	p.presentDays = int(payroll.RoundHalfUp(p.rawDays, 0).IntPart())
	p.absentDays = max(0, workingDays-p.presentDays)
	return p
}

// earnings returns every component scaled by the working days of the month.
func (c *Calculator) earnings(s payroll.SalaryStructure, p proration, overtimeHours decimal.Decimal) payroll.Earnings {
	e := payroll.Earnings{
		BasicPay:         p.prorate(s.BasicSalary),
		HRA:              p.prorate(s.HouseRentAllowance),
		Conveyance:       p.prorate(s.Conveyance),
		UniformAndSafety: p.prorate(s.UniformAndSafety),
		Bonus:            p.prorate(s.Bonus),
		FoodAllowance:    p.prorate(s.FoodAllowance),
		SpecialAllowance: p.prorate(s.OtherAllowance),
		OvertimePay:      p.whole(overtimeHours.Mul(s.OvertimeRate)),
		OtherIncentive:   decimal.Zero,
	}
	e.TotalSpecialAllowance = e.SpecialAllowance.Add(e.OvertimePay)
	if c.rules.CountOtherAllowanceAsIncentive {
		e.OtherIncentive = p.whole(s.OtherAllowance)
	}

	e.EPFEmployerContribution, _ = c.contribution(c.rules.EPFEmployer, p, e.BasicPay, s.EPFEmployerPercent)

	e.Total = e.BasicPay.
		Add(e.HRA).
		Add(e.Conveyance).
		Add(e.UniformAndSafety).
		Add(e.Bonus).
		Add(e.FoodAllowance).
		Add(e.TotalSpecialAllowance).
		Add(e.OtherIncentive).
		Add(e.EPFEmployerContribution)
	return e
}

// contribution applies rule to the scaled basic pay. The branch is decided on
// the exact prorated basic, never on a rounded one.
func (c *Calculator) contribution(rule payroll.ContributionRule, p proration, scaledBasic, percent decimal.Decimal) (decimal.Decimal, payroll.ContributionBranch) {
	branch := rule.Branch(p.value(scaledBasic))
	if branch == payroll.BranchFixedAbove {
		return p.whole(rule.FixedAmount), branch
	}
	return payroll.Percent(scaledBasic, percent), branch
}

func (c *Calculator) checkEarnings(e payroll.Earnings) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !e.Total.IsPositive() || e.Total.GreaterThan(c.rules.MaxTotalEarnings) {
		errs = append(errs, validator.ValidationError{
			Field:   "total_earnings",
			Message: "must be greater than 0 and at most " + c.rules.MaxTotalEarnings.String(),
		})
	}
	if e.BasicPay.GreaterThan(c.rules.MaxBasicPay) {
		errs = append(errs, validator.ValidationError{
			Field:   "basic_pay",
			Message: "must not exceed " + c.rules.MaxBasicPay.String(),
		})
	}
	return errs
}

// deductions returns every component scaled by the working days of the month.
func (c *Calculator) deductions(s payroll.SalaryStructure, p proration, in payroll.DeductionInputs) payroll.Deductions {
	d := payroll.Deductions{
		EPFEmployee:           decimal.Zero,
		EPFEmployer:           decimal.Zero,
		ESIC:                  decimal.Zero,
		ProfessionalTax:       p.whole(s.ProfessionalTax),
		TDS:                   p.whole(in.TDS),
		AdvanceSalaryRecovery: p.whole(in.AdvanceSalaryRecovery),
		LoanRecovery:          p.whole(in.LoanRecovery),
		FuelAdvanceRecovery:   p.whole(in.FuelAdvanceRecovery),
		OtherDeductions:       p.whole(in.OtherDeductions),
	}

	basic := p.prorate(s.BasicSalary)
	if s.HasUAN() {
		d.EPFEmployee, _ = c.contribution(c.rules.EPFEmployee, p, basic, s.EPFEmployeePercent)
		d.EPFEmployer, _ = c.contribution(c.rules.EPFEmployer, p, basic, s.EPFEmployerPercent)
	}
	if s.HasESIC() {
		d.ESIC = payroll.Percent(basic, s.ESICPercent)
	}

	d.TotalStatutory = d.EPFEmployee.Add(d.EPFEmployer).Add(d.ESIC).Add(d.ProfessionalTax)
	d.TotalOther = p.whole(in.Total())
	d.Total = d.TotalStatutory.Add(d.TotalOther)
	return d
}

func (c *Calculator) money(d decimal.Decimal) decimal.Decimal {
	return payroll.RoundHalfUp(d, c.rules.MoneyPlaces)
}

func mapEarnings(e payroll.Earnings, f func(decimal.Decimal) decimal.Decimal) payroll.Earnings {
	return payroll.Earnings{
		BasicPay:                f(e.BasicPay),
		HRA:                     f(e.HRA),
		Conveyance:              f(e.Conveyance),
		UniformAndSafety:        f(e.UniformAndSafety),
		Bonus:                   f(e.Bonus),
		FoodAllowance:           f(e.FoodAllowance),
		SpecialAllowance:        f(e.SpecialAllowance),
		OvertimePay:             f(e.OvertimePay),
		TotalSpecialAllowance:   f(e.TotalSpecialAllowance),
		OtherIncentive:          f(e.OtherIncentive),
		EPFEmployerContribution: f(e.EPFEmployerContribution),
		Total:                   f(e.Total),
	}
}

func mapDeductions(d payroll.Deductions, f func(decimal.Decimal) decimal.Decimal) payroll.Deductions {
	return payroll.Deductions{
		EPFEmployee:           f(d.EPFEmployee),
		EPFEmployer:           f(d.EPFEmployer),
		ESIC:                  f(d.ESIC),
		ProfessionalTax:       f(d.ProfessionalTax),
		TDS:                   f(d.TDS),
		AdvanceSalaryRecovery: f(d.AdvanceSalaryRecovery),
		LoanRecovery:          f(d.LoanRecovery),
		FuelAdvanceRecovery:   f(d.FuelAdvanceRecovery),
		OtherDeductions:       f(d.OtherDeductions),
		TotalStatutory:        f(d.TotalStatutory),
		TotalOther:            f(d.TotalOther),
		Total:                 f(d.Total),
	}
}
