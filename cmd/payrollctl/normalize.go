package main

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type dayResult struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	attendance.DailyResult
}

type normalizeTotals struct {
	Days          int             `json:"days"`
	DaysWorked    int             `json:"days_worked"`
	WorkingHours  decimal.Decimal `json:"working_hours"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
}

type normalizeOutput struct {
	Days   []dayResult     `json:"days"`
	Totals normalizeTotals `json:"totals"`
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Compute working and overtime hours per day from a punch CSV",
		Long: `Reads a CSV with the header date,check_in,lunch_out,lunch_in,check_out.
Times are HH:MM and a blank cell is a missing punch.`,
		RunE: runNormalize,
	}

	cmd.Flags().StringP("punches", "p", "", "Punch CSV file")
	_ = cmd.MarkFlagRequired("punches")

	return cmd
}

func runNormalize(cmd *cobra.Command, args []string) error {
	rules, err := loadRules(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("punches")
	records, err := readPunches(path)
	if err != nil {
		return err
	}

	normalizer := attendanceService.NewNormalizer(rules.OfficeHours)
	results := normalizer.NormalizeMonth(records)

	out := normalizeOutput{
		Days: make([]dayResult, 0, len(records)),
		Totals: normalizeTotals{
			Days:          len(records),
			WorkingHours:  decimal.Zero,
			OvertimeHours: decimal.Zero,
		},
	}
	for i, rec := range records {
		res := results[i]
		out.Days = append(out.Days, dayResult{
			Date:        rec.Date.Format(time.DateOnly),
			Weekday:     rec.Date.Weekday().String(),
			DailyResult: res,
		})
		if res.WorkingHours > 0 {
			out.Totals.DaysWorked++
		}
		out.Totals.WorkingHours = out.Totals.WorkingHours.Add(decimal.NewFromFloat(res.WorkingHours))
		out.Totals.OvertimeHours = out.Totals.OvertimeHours.Add(decimal.NewFromFloat(res.OvertimeHours))
	}

	return writeJSON(cmd.OutOrStdout(), out)
}
