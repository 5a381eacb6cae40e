package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
)

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	employeeRepo      employee.EmployeeRepository
	loc               *time.Location
	absentHour        int
	now               func() time.Time
}

// NewAttendanceJobs builds the attendance jobs. absentHour is the local hour
// at which the previous day is closed.
func NewAttendanceJobs(
	attendanceService attendance.AttendanceService,
	employeeRepo employee.EmployeeRepository,
	loc *time.Location,
	absentHour int,
) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceService: attendanceService,
		employeeRepo:      employeeRepo,
		loc:               loc,
		absentHour:        absentHour,
		now:               time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("mark_absent_employees", 1*time.Hour, j.MarkAbsentEmployees)
}

// MarkAbsentEmployees closes yesterday for every company once a day.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	nowLocal := j.now().In(j.loc)
	if nowLocal.Hour() != j.absentHour {
		return nil
	}
	return j.MarkAbsentFor(ctx, nowLocal.AddDate(0, 0, -1))
}

// MarkAbsentFor writes ABSENT records for day in every company.
func (j *AttendanceJobs) MarkAbsentFor(ctx context.Context, day time.Time) error {
	date := day.Format("2006-01-02")
	slog.Info("Cron: Starting mark absent employees job", "date", date)

	totalMarked := 0
	err := forEachCompany(ctx, j.employeeRepo, func(ctx context.Context, companyID string) error {
		resp, err := j.attendanceService.MarkAbsent(ctx, attendance.MarkAbsentRequest{Date: date})
		if err != nil {
			return err
		}
		if resp.Skipped {
			slog.Info("Cron: Weekly off, nothing to mark", "company_id", companyID, "date", date)
			return nil
		}
		totalMarked += resp.Marked
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Cron: Marked absent employees", "date", date, "count", totalMarked)
	return nil
}

// forEachCompany runs fn under system claims for every company with active
// employees. A failing company is logged and does not stop the others.
func forEachCompany(ctx context.Context, employeeRepo employee.EmployeeRepository, fn func(ctx context.Context, companyID string) error) error {
	companyIDs, err := employeeRepo.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get companies: %w", err)
	}

	for _, companyID := range companyIDs {
		companyCtx, err := jwt.ContextWithClaims(ctx, jwt.Claims{
			UserID:    string(user.RoleSystem),
			CompanyID: companyID,
			Role:      user.RoleSystem,
		})
		if err != nil {
			return err
		}

		if err := fn(companyCtx, companyID); err != nil {
			slog.Error("Cron: Company run failed", "company_id", companyID, "error", err)
		}
	}
	return nil
}
