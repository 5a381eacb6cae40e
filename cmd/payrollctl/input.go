package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// punchRow is one line of the punch CSV. Blank cells are missing punches.
type punchRow struct {
	Date     string `csv:"date"`
	CheckIn  string `csv:"check_in"`
	LunchOut string `csv:"lunch_out"`
	LunchIn  string `csv:"lunch_in"`
	CheckOut string `csv:"check_out"`
}

func readPunches(path string) ([]attendance.DailyPunchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open punches: %w", err)
	}
	defer f.Close()

	var rows []punchRow
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse punches: %w", err)
	}

	records := make([]attendance.DailyPunchRecord, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("punches row %d: %w", i+2, err)
		}
		if seen[row.Date] {
			return nil, fmt.Errorf("punches row %d: duplicate date %s", i+2, row.Date)
		}
		seen[row.Date] = true
		records = append(records, rec)
	}
	return records, nil
}

func (r punchRow) record() (attendance.DailyPunchRecord, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
	if err != nil {
		return attendance.DailyPunchRecord{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", r.Date)
	}

	rec := attendance.DailyPunchRecord{Date: date}
	cells := []struct {
		value string
		dst   **time.Time
	}{
		{r.CheckIn, &rec.CheckIn},
		{r.LunchOut, &rec.LunchOut},
		{r.LunchIn, &rec.LunchIn},
		{r.CheckOut, &rec.CheckOut},
	}
	for _, c := range cells {
		value := strings.TrimSpace(c.value)
		if value == "" {
			continue
		}
		var clock attendance.TimeOfDay
		if err := clock.UnmarshalText([]byte(value)); err != nil {
			return attendance.DailyPunchRecord{}, err
		}
		at := clock.On(date)
		*c.dst = &at
	}
	return rec, nil
}

// structureFile is the YAML form of an employee's salary structure.
type structureFile struct {
	EmployeeID         string          `yaml:"employee_id"`
	BasicSalary        decimal.Decimal `yaml:"basic_salary"`
	HouseRentAllowance decimal.Decimal `yaml:"house_rent_allowance"`
	Conveyance         decimal.Decimal `yaml:"conveyance"`
	UniformAndSafety   decimal.Decimal `yaml:"uniform_and_safety"`
	Bonus              decimal.Decimal `yaml:"bonus"`
	FoodAllowance      decimal.Decimal `yaml:"food_allowance"`
	OtherAllowance     decimal.Decimal `yaml:"other_allowance"`
	OvertimeRate       decimal.Decimal `yaml:"overtime_rate"`
	EPFEmployeePercent decimal.Decimal `yaml:"epf_employee_percent"`
	EPFEmployerPercent decimal.Decimal `yaml:"epf_employer_percent"`
	ESICPercent        decimal.Decimal `yaml:"esic_percent"`
	ProfessionalTax    decimal.Decimal `yaml:"professional_tax"`
	UANNumber          *string         `yaml:"uan_number"`
	ESICNumber         *string         `yaml:"esic_number"`
}

type deductionsFile struct {
	TDS                   decimal.Decimal `yaml:"tds"`
	AdvanceSalaryRecovery decimal.Decimal `yaml:"advance_salary_recovery"`
	LoanRecovery          decimal.Decimal `yaml:"loan_recovery"`
	FuelAdvanceRecovery   decimal.Decimal `yaml:"fuel_advance_recovery"`
	OtherDeductions       decimal.Decimal `yaml:"other_deductions"`
}

func readStructure(path string) (payroll.SalaryStructureRequest, error) {
	var f structureFile
	if err := decodeYAML(path, &f); err != nil {
		return payroll.SalaryStructureRequest{}, fmt.Errorf("salary structure: %w", err)
	}
	req := payroll.SalaryStructureRequest{
		EmployeeID:         f.EmployeeID,
		BasicSalary:        f.BasicSalary,
		HouseRentAllowance: f.HouseRentAllowance,
		Conveyance:         f.Conveyance,
		UniformAndSafety:   f.UniformAndSafety,
		Bonus:              f.Bonus,
		FoodAllowance:      f.FoodAllowance,
		OtherAllowance:     f.OtherAllowance,
		OvertimeRate:       f.OvertimeRate,
		EPFEmployeePercent: f.EPFEmployeePercent,
		EPFEmployerPercent: f.EPFEmployerPercent,
		ESICPercent:        f.ESICPercent,
		ProfessionalTax:    f.ProfessionalTax,
		UANNumber:          f.UANNumber,
		ESICNumber:         f.ESICNumber,
	}
	if req.EmployeeID == "" {
		req.EmployeeID = "offline"
	}
	return req, nil
}

// readDeductions returns zero inputs when path is empty.
func readDeductions(path string) (payroll.DeductionInputs, error) {
	if path == "" {
		return payroll.DeductionInputs{}, nil
	}
	var f deductionsFile
	if err := decodeYAML(path, &f); err != nil {
		return payroll.DeductionInputs{}, fmt.Errorf("deductions: %w", err)
	}
	return payroll.DeductionInputs(f), nil
}

func decodeYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
