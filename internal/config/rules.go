package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rules bundles the tunable tables of the normalizer and the calculator.
type Rules struct {
	OfficeHours attendance.OfficeHours
	Payroll     payroll.Rules
}

func DefaultRules() Rules {
	return Rules{
		OfficeHours: attendance.DefaultOfficeHours(),
		Payroll:     payroll.DefaultRules(),
	}
}

// rulesFile mirrors the YAML layout; unset keys keep their defaults.
type rulesFile struct {
	OfficeHours struct {
		OfficeStart          *attendance.TimeOfDay `yaml:"office_start"`
		OfficeEnd            *attendance.TimeOfDay `yaml:"office_end"`
		EarlyCheckInStart    *attendance.TimeOfDay `yaml:"early_check_in_start"`
		EarlyCheckInEnd      *attendance.TimeOfDay `yaml:"early_check_in_end"`
		LateCheckInStart     *attendance.TimeOfDay `yaml:"late_check_in_start"`
		EveningOvertimeStart *attendance.TimeOfDay `yaml:"evening_overtime_start"`
		LunchAllowance       *time.Duration        `yaml:"lunch_allowance"`
		MaxWorkingHours      *float64              `yaml:"max_working_hours"`
	} `yaml:"office_hours"`

	Payroll struct {
		HoursPerDay    *decimal.Decimal `yaml:"hours_per_day"`
		MinWorkingDays *int             `yaml:"min_working_days"`
		MoneyPlaces    *int32           `yaml:"money_places"`

		MaxBasicSalary        *decimal.Decimal `yaml:"max_basic_salary"`
		MaxEPFEmployeePercent *decimal.Decimal `yaml:"max_epf_employee_percent"`
		MaxESICPercent        *decimal.Decimal `yaml:"max_esic_percent"`
		MinOvertimeRate       *decimal.Decimal `yaml:"min_overtime_rate"`

		MaxTotalEarnings        *decimal.Decimal `yaml:"max_total_earnings"`
		MaxBasicPay             *decimal.Decimal `yaml:"max_basic_pay"`
		MaxEPFEmployeeDeduction *decimal.Decimal `yaml:"max_epf_employee_deduction"`
		MaxNetSalary            *decimal.Decimal `yaml:"max_net_salary"`

		EPFEmployee *contributionRule `yaml:"epf_employee"`
		EPFEmployer *contributionRule `yaml:"epf_employer"`

		CountOtherAllowanceAsIncentive *bool `yaml:"count_other_allowance_as_incentive"`
		BulkWorkers                    *int  `yaml:"bulk_workers"`
	} `yaml:"payroll"`
}

type contributionRule struct {
	Threshold   decimal.Decimal `yaml:"threshold"`
	FixedAmount decimal.Decimal `yaml:"fixed_amount"`
}

// LoadRules reads a rules file over the defaults. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules over the defaults and validates the result.
func ParseRules(data []byte) (Rules, error) {
	var file rulesFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return Rules{}, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := DefaultRules()
	file.apply(&rules)

	if err := rules.OfficeHours.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid office hours: %w", err)
	}
	if err := rules.Payroll.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid payroll rules: %w", err)
	}
	return rules, nil
}

func (f rulesFile) apply(r *Rules) {
	oh := f.OfficeHours
	set(&r.OfficeHours.OfficeStart, oh.OfficeStart)
	set(&r.OfficeHours.OfficeEnd, oh.OfficeEnd)
	set(&r.OfficeHours.EarlyCheckInStart, oh.EarlyCheckInStart)
	set(&r.OfficeHours.EarlyCheckInEnd, oh.EarlyCheckInEnd)
	set(&r.OfficeHours.LateCheckInStart, oh.LateCheckInStart)
	set(&r.OfficeHours.EveningOvertimeStart, oh.EveningOvertimeStart)
	set(&r.OfficeHours.LunchAllowance, oh.LunchAllowance)
	set(&r.OfficeHours.MaxWorkingHours, oh.MaxWorkingHours)

	p := f.Payroll
	set(&r.Payroll.HoursPerDay, p.HoursPerDay)
	set(&r.Payroll.MinWorkingDays, p.MinWorkingDays)
	set(&r.Payroll.MoneyPlaces, p.MoneyPlaces)
	set(&r.Payroll.MaxBasicSalary, p.MaxBasicSalary)
	set(&r.Payroll.MaxEPFEmployeePercent, p.MaxEPFEmployeePercent)
	set(&r.Payroll.MaxESICPercent, p.MaxESICPercent)
	set(&r.Payroll.MinOvertimeRate, p.MinOvertimeRate)
	set(&r.Payroll.MaxTotalEarnings, p.MaxTotalEarnings)
	set(&r.Payroll.MaxBasicPay, p.MaxBasicPay)
	set(&r.Payroll.MaxEPFEmployeeDeduction, p.MaxEPFEmployeeDeduction)
	set(&r.Payroll.MaxNetSalary, p.MaxNetSalary)
	set(&r.Payroll.CountOtherAllowanceAsIncentive, p.CountOtherAllowanceAsIncentive)
	set(&r.Payroll.BulkWorkers, p.BulkWorkers)
	if p.EPFEmployee != nil {
		r.Payroll.EPFEmployee = payroll.ContributionRule(*p.EPFEmployee)
	}
	if p.EPFEmployer != nil {
		r.Payroll.EPFEmployer = payroll.ContributionRule(*p.EPFEmployer)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
