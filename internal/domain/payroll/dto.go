package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== SALARY STRUCTURE DTOs ==========

type SalaryStructureRequest struct {
	EmployeeID         string          `json:"-"`
	BasicSalary        decimal.Decimal `json:"basic_salary"`
	HouseRentAllowance decimal.Decimal `json:"house_rent_allowance"`
	Conveyance         decimal.Decimal `json:"conveyance"`
	UniformAndSafety   decimal.Decimal `json:"uniform_and_safety"`
	Bonus              decimal.Decimal `json:"bonus"`
	FoodAllowance      decimal.Decimal `json:"food_allowance"`
	OtherAllowance     decimal.Decimal `json:"other_allowance"`
	OvertimeRate       decimal.Decimal `json:"overtime_rate"`
	EPFEmployeePercent decimal.Decimal `json:"epf_employee_percent"`
	EPFEmployerPercent decimal.Decimal `json:"epf_employer_percent"`
	ESICPercent        decimal.Decimal `json:"esic_percent"`
	ProfessionalTax    decimal.Decimal `json:"professional_tax"`
	UANNumber          *string         `json:"uan_number,omitempty"`
	ESICNumber         *string         `json:"esic_number,omitempty"`
}

func (r SalaryStructureRequest) ToStructure() SalaryStructure {
	return SalaryStructure{
		EmployeeID:         r.EmployeeID,
		BasicSalary:        r.BasicSalary,
		HouseRentAllowance: r.HouseRentAllowance,
		Conveyance:         r.Conveyance,
		UniformAndSafety:   r.UniformAndSafety,
		Bonus:              r.Bonus,
		FoodAllowance:      r.FoodAllowance,
		OtherAllowance:     r.OtherAllowance,
		OvertimeRate:       r.OvertimeRate,
		EPFEmployeePercent: r.EPFEmployeePercent,
		EPFEmployerPercent: r.EPFEmployerPercent,
		ESICPercent:        r.ESICPercent,
		ProfessionalTax:    r.ProfessionalTax,
		UANNumber:          r.UANNumber,
		ESICNumber:         r.ESICNumber,
	}
}

// Validate checks amounts that the calculation rules do not cover.
func (r *SalaryStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"house_rent_allowance", r.HouseRentAllowance},
		{"conveyance", r.Conveyance},
		{"uniform_and_safety", r.UniformAndSafety},
		{"bonus", r.Bonus},
		{"food_allowance", r.FoodAllowance},
		{"other_allowance", r.OtherAllowance},
		{"epf_employer_percent", r.EPFEmployerPercent},
		{"professional_tax", r.ProfessionalTax},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: a.field, Message: "must be non-negative"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type SalaryStructureResponse struct {
	EmployeeID         string          `json:"employee_id"`
	BasicSalary        decimal.Decimal `json:"basic_salary"`
	HouseRentAllowance decimal.Decimal `json:"house_rent_allowance"`
	Conveyance         decimal.Decimal `json:"conveyance"`
	UniformAndSafety   decimal.Decimal `json:"uniform_and_safety"`
	Bonus              decimal.Decimal `json:"bonus"`
	FoodAllowance      decimal.Decimal `json:"food_allowance"`
	OtherAllowance     decimal.Decimal `json:"other_allowance"`
	OvertimeRate       decimal.Decimal `json:"overtime_rate"`
	EPFEmployeePercent decimal.Decimal `json:"epf_employee_percent"`
	EPFEmployerPercent decimal.Decimal `json:"epf_employer_percent"`
	ESICPercent        decimal.Decimal `json:"esic_percent"`
	ProfessionalTax    decimal.Decimal `json:"professional_tax"`
	HasUAN             bool            `json:"has_uan"`
	HasESIC            bool            `json:"has_esic"`
	UpdatedAt          string          `json:"updated_at"`
}

// ========== SLIP DTOs ==========

type GenerateSlipRequest struct {
	EmployeeID  string  `json:"employee_id"`
	PeriodYear  int     `json:"period_year"`
	PeriodMonth int     `json:"period_month"`
	Notes       *string `json:"notes,omitempty"`
	DeductionInputs
}

func (r *GenerateSlipRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	errs = append(errs, validatePeriod(r.PeriodYear, r.PeriodMonth)...)
	errs = append(errs, validateDeductions(r.DeductionInputs)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BulkGenerateRequest struct {
	PeriodYear  int `json:"period_year"`
	PeriodMonth int `json:"period_month"`
	// EmployeeIDs limits the run; every active employee when empty.
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

func (r *BulkGenerateRequest) Validate() error {
	errs := validatePeriod(r.PeriodYear, r.PeriodMonth)
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "must not contain empty ids"})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BulkFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type BulkGenerateResponse struct {
	PeriodYear  int            `json:"period_year"`
	PeriodMonth int            `json:"period_month"`
	Generated   []SlipResponse `json:"generated"`
	Failed      []BulkFailure  `json:"failed"`
}

type EarningsResponse struct {
	BasicPay                decimal.Decimal `json:"basic_pay"`
	HRA                     decimal.Decimal `json:"hra"`
	Conveyance              decimal.Decimal `json:"conveyance"`
	UniformAndSafety        decimal.Decimal `json:"uniform_and_safety"`
	Bonus                   decimal.Decimal `json:"bonus"`
	FoodAllowance           decimal.Decimal `json:"food_allowance"`
	SpecialAllowance        decimal.Decimal `json:"special_allowance"`
	OvertimePay             decimal.Decimal `json:"overtime_pay"`
	TotalSpecialAllowance   decimal.Decimal `json:"total_special_allowance"`
	OtherIncentive          decimal.Decimal `json:"other_incentive"`
	EPFEmployerContribution decimal.Decimal `json:"epf_employer_contribution"`
	Total                   decimal.Decimal `json:"total"`
}

type DeductionsResponse struct {
	EPFEmployee           decimal.Decimal `json:"epf_employee"`
	EPFEmployer           decimal.Decimal `json:"epf_employer"`
	ESIC                  decimal.Decimal `json:"esic"`
	ProfessionalTax       decimal.Decimal `json:"professional_tax"`
	TDS                   decimal.Decimal `json:"tds"`
	AdvanceSalaryRecovery decimal.Decimal `json:"advance_salary_recovery"`
	LoanRecovery          decimal.Decimal `json:"loan_recovery"`
	FuelAdvanceRecovery   decimal.Decimal `json:"fuel_advance_recovery"`
	OtherDeductions       decimal.Decimal `json:"other_deductions"`
	TotalStatutory        decimal.Decimal `json:"total_statutory"`
	TotalOther            decimal.Decimal `json:"total_other"`
	Total                 decimal.Decimal `json:"total"`
}

type SlipResponse struct {
	ID                         string             `json:"id,omitempty"`
	EmployeeID                 string             `json:"employee_id"`
	EmployeeName               string             `json:"employee_name,omitempty"`
	PeriodYear                 int                `json:"period_year"`
	PeriodMonth                int                `json:"period_month"`
	TotalDaysInMonth           int                `json:"total_days_in_month"`
	WorkingDays                int                `json:"working_days"`
	WeeklyOffs                 int                `json:"weekly_offs"`
	TotalEffectiveWorkingHours decimal.Decimal    `json:"total_effective_working_hours"`
	TotalOvertimeHours         decimal.Decimal    `json:"total_overtime_hours"`
	RawPresentDays             decimal.Decimal    `json:"raw_present_days"`
	PresentDays                int                `json:"present_days"`
	AbsentDays                 int                `json:"absent_days"`
	ProrationFactor            decimal.Decimal    `json:"proration_factor"`
	Earnings                   EarningsResponse   `json:"earnings"`
	Deductions                 DeductionsResponse `json:"deductions"`
	NetSalary                  decimal.Decimal    `json:"net_salary"`
	DailyRate                  decimal.Decimal    `json:"daily_rate"`
	HourlyRate                 decimal.Decimal    `json:"hourly_rate"`
	OvertimeRate               decimal.Decimal    `json:"overtime_rate"`
	EPFBranch                  string             `json:"epf_branch"`
	Status                     string             `json:"status"`
	Notes                      *string            `json:"notes,omitempty"`
	GeneratedAt                *string            `json:"generated_at,omitempty"`
	FinalizedAt                *string            `json:"finalized_at,omitempty"`
	PaidAt                     *string            `json:"paid_at,omitempty"`
}

type SlipFilter struct {
	EmployeeID  *string `json:"employee_id,omitempty"`
	PeriodYear  *int    `json:"period_year,omitempty"`
	PeriodMonth *int    `json:"period_month,omitempty"`
	Status      *string `json:"status,omitempty"`
	// Statuses is set by the service to restrict visibility; not bound from the query.
	Statuses []SlipStatus `json:"-"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

func (f *SlipFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}
	if f.PeriodMonth != nil && (*f.PeriodMonth < 1 || *f.PeriodMonth > 12) {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, SlipStatuses) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of: DRAFT, FINALIZED, PAID"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListSlipResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Showing    string         `json:"showing"`
	Slips      []SlipResponse `json:"slips"`
}

func validatePeriod(year, month int) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "period_month", Message: "must be between 1 and 12"})
	}
	if year < 2000 || year > 9999 {
		errs = append(errs, validator.ValidationError{Field: "period_year", Message: "must be between 2000 and 9999"})
	}
	return errs
}

func validateDeductions(d DeductionInputs) validator.ValidationErrors {
	var errs validator.ValidationErrors
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"tds", d.TDS},
		{"advance_salary_recovery", d.AdvanceSalaryRecovery},
		{"loan_recovery", d.LoanRecovery},
		{"fuel_advance_recovery", d.FuelAdvanceRecovery},
		{"other_deductions", d.OtherDeductions},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			errs = append(errs, validator.ValidationError{Field: a.field, Message: "must be non-negative"})
		}
	}
	return errs
}
