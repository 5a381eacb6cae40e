package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

type PayrollJobs struct {
	payrollService payroll.PayrollService
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	loc            *time.Location
	runHour        int
	now            func() time.Time
}

func NewPayrollJobs(
	payrollService payroll.PayrollService,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	loc *time.Location,
	runHour int,
) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		loc:            loc,
		runHour:        runHour,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("generate_monthly_drafts", 1*time.Hour, j.GenerateMonthlyDrafts)
}

// GenerateMonthlyDrafts drafts last month's slips on the first day of the month.
func (j *PayrollJobs) GenerateMonthlyDrafts(ctx context.Context) error {
	nowLocal := j.now().In(j.loc)
	if nowLocal.Day() != 1 || nowLocal.Hour() != j.runHour {
		return nil
	}
	previous := nowLocal.AddDate(0, 0, -1)
	return j.GenerateDraftsFor(ctx, previous.Year(), int(previous.Month()))
}

// GenerateDraftsFor drafts a slip for every active employee that has no slip
// for the period yet, so repeated runs do not pile up drafts.
func (j *PayrollJobs) GenerateDraftsFor(ctx context.Context, year, month int) error {
	period := fmt.Sprintf("%04d-%02d", year, month)
	slog.Info("Cron: Starting monthly draft generation", "period", period)

	generated, failed := 0, 0
	err := forEachCompany(ctx, j.employeeRepo, func(ctx context.Context, companyID string) error {
		employees, err := j.employeeRepo.GetActiveByCompanyID(ctx, companyID)
		if err != nil {
			return fmt.Errorf("failed to get employees: %w", err)
		}

		var pending []string
		for _, emp := range employees {
			existing, err := j.payrollRepo.ListSlipsByEmployeePeriod(ctx, emp.ID, year, month, companyID)
			if err != nil {
				return err
			}
			if len(existing) == 0 {
				pending = append(pending, emp.ID)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		resp, err := j.payrollService.GenerateBulk(ctx, payroll.BulkGenerateRequest{
			PeriodYear:  year,
			PeriodMonth: month,
			EmployeeIDs: pending,
		})
		if err != nil {
			return err
		}
		for _, f := range resp.Failed {
			slog.Warn("Cron: Draft generation failed", "company_id", companyID, "employee_id", f.EmployeeID, "error", f.Error)
		}
		generated += len(resp.Generated)
		failed += len(resp.Failed)
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Cron: Monthly drafts generated", "period", period, "generated", generated, "failed", failed)
	return nil
}
