package payroll

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SlipStatus enum
type SlipStatus string

const (
	SlipStatusDraft     SlipStatus = "DRAFT"
	SlipStatusFinalized SlipStatus = "FINALIZED"
	SlipStatusPaid      SlipStatus = "PAID"
)

var SlipStatuses = []string{
	string(SlipStatusDraft),
	string(SlipStatusFinalized),
	string(SlipStatusPaid),
}

// CanTransitionTo allows DRAFT -> FINALIZED -> PAID only.
func (s SlipStatus) CanTransitionTo(next SlipStatus) bool {
	switch s {
	case SlipStatusDraft:
		return next == SlipStatusFinalized
	case SlipStatusFinalized:
		return next == SlipStatusPaid
	}
	return false
}

func (s SlipStatus) CanDelete() bool {
	return s == SlipStatusDraft
}

// VisibleToEmployee reports whether the employee may see a slip in this state.
func (s SlipStatus) VisibleToEmployee() bool {
	return s == SlipStatusFinalized || s == SlipStatusPaid
}

// SalaryStructure - payroll fields of the employee record
type SalaryStructure struct {
	EmployeeID         string
	BasicSalary        decimal.Decimal
	HouseRentAllowance decimal.Decimal
	Conveyance         decimal.Decimal
	UniformAndSafety   decimal.Decimal
	Bonus              decimal.Decimal
	FoodAllowance      decimal.Decimal
	OtherAllowance     decimal.Decimal
	OvertimeRate       decimal.Decimal
	EPFEmployeePercent decimal.Decimal
	EPFEmployerPercent decimal.Decimal
	ESICPercent        decimal.Decimal
	ProfessionalTax    decimal.Decimal
	UANNumber          *string
	ESICNumber         *string
	UpdatedAt          time.Time
}

func (s SalaryStructure) HasUAN() bool {
	return s.UANNumber != nil && strings.TrimSpace(*s.UANNumber) != ""
}

func (s SalaryStructure) HasESIC() bool {
	return s.ESICNumber != nil && strings.TrimSpace(*s.ESICNumber) != ""
}

// DeductionInputs - manual monthly deductions, zero when not supplied
type DeductionInputs struct {
	TDS                   decimal.Decimal `json:"tds"`
	AdvanceSalaryRecovery decimal.Decimal `json:"advance_salary_recovery"`
	LoanRecovery          decimal.Decimal `json:"loan_recovery"`
	FuelAdvanceRecovery   decimal.Decimal `json:"fuel_advance_recovery"`
	OtherDeductions       decimal.Decimal `json:"other_deductions"`
}

func (d DeductionInputs) Total() decimal.Decimal {
	return d.TDS.
		Add(d.AdvanceSalaryRecovery).
		Add(d.LoanRecovery).
		Add(d.FuelAdvanceRecovery).
		Add(d.OtherDeductions)
}

type Earnings struct {
	BasicPay                decimal.Decimal
	HRA                     decimal.Decimal
	Conveyance              decimal.Decimal
	UniformAndSafety        decimal.Decimal
	Bonus                   decimal.Decimal
	FoodAllowance           decimal.Decimal
	SpecialAllowance        decimal.Decimal
	OvertimePay             decimal.Decimal
	TotalSpecialAllowance   decimal.Decimal
	OtherIncentive          decimal.Decimal
	EPFEmployerContribution decimal.Decimal
	Total                   decimal.Decimal
}

type Deductions struct {
	EPFEmployee           decimal.Decimal
	EPFEmployer           decimal.Decimal
	ESIC                  decimal.Decimal
	ProfessionalTax       decimal.Decimal
	TDS                   decimal.Decimal
	AdvanceSalaryRecovery decimal.Decimal
	LoanRecovery          decimal.Decimal
	FuelAdvanceRecovery   decimal.Decimal
	OtherDeductions       decimal.Decimal
	TotalStatutory        decimal.Decimal
	TotalOther            decimal.Decimal
	Total                 decimal.Decimal
}

// PayrollSlip - monthly salary slip
type PayrollSlip struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	PeriodYear  int
	PeriodMonth int

	TotalDaysInMonth int
	WorkingDays      int
	WeeklyOffs       int

	TotalEffectiveWorkingHours decimal.Decimal
	TotalOvertimeHours         decimal.Decimal
	RawPresentDays             decimal.Decimal
	PresentDays                int
	AbsentDays                 int
	ProrationFactor            decimal.Decimal

	Earnings   Earnings
	Deductions Deductions
	NetSalary  decimal.Decimal

	DailyRate    decimal.Decimal
	HourlyRate   decimal.Decimal
	OvertimeRate decimal.Decimal
	EPFBranch    ContributionBranch

	Status      SlipStatus
	Notes       *string
	GeneratedBy *string
	GeneratedAt *time.Time
	FinalizedBy *string
	FinalizedAt *time.Time
	PaidBy      *string
	PaidAt      *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined fields
	EmployeeName *string
}
