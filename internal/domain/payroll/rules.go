package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// RoundHalfUp rounds to the given number of decimal places, ties toward positive infinity.
// It is the only rounding used when building a slip.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(decimal.New(5, -1)).Floor().Shift(-places)
}

// ContributionBranch names which row of a ContributionRule applied.
type ContributionBranch string

const (
	BranchPercentBelow ContributionBranch = "PERCENT_BELOW"
	BranchFixedAbove   ContributionBranch = "FIXED_ABOVE"
)

// ContributionRule is a two-row decision table on the prorated basic pay:
// strictly above Threshold the FixedAmount applies, otherwise the percentage.
type ContributionRule struct {
	Threshold   decimal.Decimal
	FixedAmount decimal.Decimal
}

func (r ContributionRule) Branch(proratedBasic decimal.Decimal) ContributionBranch {
	if proratedBasic.GreaterThan(r.Threshold) {
		return BranchFixedAbove
	}
	return BranchPercentBelow
}

// Percent returns base * percent / 100.
func Percent(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(decimal.NewFromInt(100))
}

// Rules holds every threshold and cap of the monthly calculation.
type Rules struct {
	HoursPerDay    decimal.Decimal
	MinWorkingDays int
	MoneyPlaces    int32

	MaxBasicSalary        decimal.Decimal
	MaxEPFEmployeePercent decimal.Decimal
	MaxESICPercent        decimal.Decimal
	MinOvertimeRate       decimal.Decimal

	MaxTotalEarnings        decimal.Decimal
	MaxBasicPay             decimal.Decimal
	MaxEPFEmployeeDeduction decimal.Decimal
	MaxNetSalary            decimal.Decimal

	EPFEmployee ContributionRule
	EPFEmployer ContributionRule

	// CountOtherAllowanceAsIncentive adds the other allowance a second time,
	// unprorated, as "other incentive".
	// TODO: confirm with finance whether the unprorated incentive is intended before switching this off.
	CountOtherAllowanceAsIncentive bool

	// BulkWorkers bounds concurrent slip calculations in bulk generation.
	BulkWorkers int
}

func DefaultRules() Rules {
	epfThreshold := decimal.NewFromInt(15000)
	return Rules{
		HoursPerDay:    decimal.NewFromInt(8),
		MinWorkingDays: 1,
		MoneyPlaces:    2,

		MaxBasicSalary:        decimal.NewFromInt(1000000),
		MaxEPFEmployeePercent: decimal.NewFromInt(15),
		MaxESICPercent:        decimal.NewFromInt(5),
		MinOvertimeRate:       decimal.NewFromInt(1),

		MaxTotalEarnings:        decimal.NewFromInt(500000),
		MaxBasicPay:             decimal.NewFromInt(200000),
		MaxEPFEmployeeDeduction: decimal.NewFromInt(50000),
		MaxNetSalary:            decimal.NewFromInt(400000),

		EPFEmployee: ContributionRule{Threshold: epfThreshold, FixedAmount: decimal.NewFromInt(1800)},
		EPFEmployer: ContributionRule{Threshold: epfThreshold, FixedAmount: decimal.NewFromInt(1950)},

		CountOtherAllowanceAsIncentive: true,
		BulkWorkers:                    4,
	}
}

func (r Rules) Validate() error {
	var errs validator.ValidationErrors

	if !r.HoursPerDay.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "hours_per_day", Message: "must be positive"})
	}
	if r.MinWorkingDays < 1 {
		errs = append(errs, validator.ValidationError{Field: "min_working_days", Message: "must be at least 1"})
	}
	if r.MoneyPlaces < 0 {
		errs = append(errs, validator.ValidationError{Field: "money_places", Message: "must not be negative"})
	}
	caps := []struct {
		field string
		value decimal.Decimal
	}{
		{"max_basic_salary", r.MaxBasicSalary},
		{"max_total_earnings", r.MaxTotalEarnings},
		{"max_basic_pay", r.MaxBasicPay},
		{"max_epf_employee_deduction", r.MaxEPFEmployeeDeduction},
		{"max_net_salary", r.MaxNetSalary},
	}
	for _, c := range caps {
		if !c.value.IsPositive() {
			errs = append(errs, validator.ValidationError{Field: c.field, Message: "must be positive"})
		}
	}
	if r.EPFEmployee.Threshold.IsNegative() || r.EPFEmployee.FixedAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "epf_employee", Message: "threshold and fixed amount must not be negative"})
	}
	if r.EPFEmployer.Threshold.IsNegative() || r.EPFEmployer.FixedAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "epf_employer", Message: "threshold and fixed amount must not be negative"})
	}
	if r.BulkWorkers < 1 {
		errs = append(errs, validator.ValidationError{Field: "bulk_workers", Message: "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CheckStructure applies the salary-structure preconditions of the monthly calculation.
func (r Rules) CheckStructure(s SalaryStructure) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if !s.BasicSalary.IsPositive() || s.BasicSalary.GreaterThan(r.MaxBasicSalary) {
		errs = append(errs, validator.ValidationError{
			Field:   "basic_salary",
			Message: "must be greater than 0 and at most " + r.MaxBasicSalary.String(),
		})
	}
	if s.HasUAN() && (s.EPFEmployeePercent.IsNegative() || s.EPFEmployeePercent.GreaterThan(r.MaxEPFEmployeePercent)) {
		errs = append(errs, validator.ValidationError{
			Field:   "epf_employee_percent",
			Message: "must be between 0 and " + r.MaxEPFEmployeePercent.String(),
		})
	}
	if s.HasESIC() && (s.ESICPercent.IsNegative() || s.ESICPercent.GreaterThan(r.MaxESICPercent)) {
		errs = append(errs, validator.ValidationError{
			Field:   "esic_percent",
			Message: "must be between 0 and " + r.MaxESICPercent.String(),
		})
	}
	if s.OvertimeRate.LessThan(r.MinOvertimeRate) {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_rate",
			Message: "must be at least " + r.MinOvertimeRate.String(),
		})
	}

	return errs
}
