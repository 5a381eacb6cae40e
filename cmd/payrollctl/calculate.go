package main

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	"github.com/spf13/cobra"
)

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate a monthly salary slip from a salary structure and punches",
		RunE:  runCalculate,
	}

	cmd.Flags().StringP("structure", "s", "", "Salary structure YAML file")
	cmd.Flags().StringP("punches", "p", "", "Punch CSV file for the month")
	cmd.Flags().StringP("deductions", "d", "", "Manual deductions YAML file")
	cmd.Flags().Int("year", 0, "Period year")
	cmd.Flags().Int("month", 0, "Period month (1-12)")
	for _, name := range []string{"structure", "punches", "year", "month"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runCalculate(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	structurePath, _ := flags.GetString("structure")
	punchesPath, _ := flags.GetString("punches")
	deductionsPath, _ := flags.GetString("deductions")
	year, _ := flags.GetInt("year")
	month, _ := flags.GetInt("month")

	structure, err := readStructure(structurePath)
	if err != nil {
		return err
	}
	if err := structure.Validate(); err != nil {
		return err
	}
	deductions, err := readDeductions(deductionsPath)
	if err != nil {
		return err
	}
	req := payroll.GenerateSlipRequest{
		EmployeeID:      structure.EmployeeID,
		PeriodYear:      year,
		PeriodMonth:     month,
		DeductionInputs: deductions,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	records, err := readPunches(punchesPath)
	if err != nil {
		return err
	}
	daily, err := monthResults(attendanceService.NewNormalizer(rules.OfficeHours), records, year, time.Month(month))
	if err != nil {
		return err
	}

	slip, err := payrollService.NewCalculator(rules.Payroll).Calculate(structure.ToStructure(), year, month, daily, deductions)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), payrollService.ToSlipResponse(slip))
}

// monthResults normalizes the records of one month and rejects any other date.
func monthResults(n *attendanceService.Normalizer, records []attendance.DailyPunchRecord, year int, month time.Month) ([]attendance.DailyResult, error) {
	for _, rec := range records {
		if rec.Date.Year() != year || rec.Date.Month() != month {
			return nil, fmt.Errorf("punch date %s is outside %04d-%02d", rec.Date.Format(time.DateOnly), year, month)
		}
	}
	return n.NormalizeMonth(records), nil
}
