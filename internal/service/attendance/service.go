package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
)

const timestampLayout = "2006-01-02 15:04:05"

type AttendanceServiceImpl struct {
	transactor database.Transactor
	attendance.AttendanceRepository
	employee.EmployeeRepository
	normalizer *Normalizer
	loc        *time.Location
	now        func() time.Time
}

func NewAttendanceService(
	transactor database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	normalizer *Normalizer,
	loc *time.Location,
) attendance.AttendanceService {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceServiceImpl{
		transactor:           transactor,
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		normalizer:           normalizer,
		loc:                  loc,
		now:                  time.Now,
	}
}

// Punch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Punch(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if claims.EmployeeID == "" {
		return attendance.AttendanceResponse{}, user.ErrEmployeeIDRequired
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, claims.EmployeeID, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !emp.IsActive() {
		return attendance.AttendanceResponse{}, attendance.ErrEmployeeInactive
	}

	at := a.now()
	if req.Time != nil {
		at, _ = validator.IsValidDateTime(*req.Time)
	}
	at = at.In(a.loc)
	punch := attendance.PunchType(req.Type)

	var saved attendance.Attendance
	err = a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		att, err := a.recordForPunch(ctx, emp, punch, at)
		if err != nil {
			return err
		}

		att.ApplyPunch(punch, at)
		a.renormalize(&att)

		saved, err = a.save(ctx, att)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance punch recorded",
		"employee_id", emp.ID,
		"date", saved.Date.Format(time.DateOnly),
		"type", req.Type,
		"working_hours", saved.WorkingHours,
		"overtime_hours", saved.OvertimeHours,
	)

	return a.toResponse(saved), nil
}

// recordForPunch finds the employee-day a punch belongs to. A check-out after
// midnight closes the previous day when today has no record and yesterday is
// still open.
func (a *AttendanceServiceImpl) recordForPunch(ctx context.Context, emp employee.Employee, punch attendance.PunchType, at time.Time) (attendance.Attendance, error) {
	date := calendarDate(at)

	att, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date, emp.CompanyID)
	if err == nil {
		return att, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	if punch == attendance.PunchCheckOut {
		prev, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date.AddDate(0, 0, -1), emp.CompanyID)
		switch {
		case err == nil && prev.CheckIn != nil && prev.CheckOut == nil:
			return prev, nil
		case err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound):
			return attendance.Attendance{}, fmt.Errorf("failed to get previous attendance: %w", err)
		}
	}

	return newRecord(emp.ID, emp.CompanyID, date), nil
}

// UpsertPunch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpsertPunch(ctx context.Context, req attendance.UpsertPunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID, claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	dateLocal, _ := validator.IsValidDate(req.Date)
	date := calendarDate(dateLocal)

	var at *time.Time
	if req.Time != nil {
		t := a.resolvePunchTime(date, *req.Time)
		at = &t
	}

	var saved attendance.Attendance
	err = a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		att, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, date, emp.CompanyID)
		if err != nil {
			if !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return fmt.Errorf("failed to get attendance: %w", err)
			}
			att = newRecord(emp.ID, emp.CompanyID, date)
		}

		att.SetPunch(attendance.PunchType(req.Type), at)
		a.renormalize(&att)

		saved, err = a.save(ctx, att)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance punch corrected",
		"employee_id", emp.ID,
		"date", req.Date,
		"type", req.Type,
		"by", claims.UserID,
	)

	return a.toResponse(saved), nil
}

// resolvePunchTime accepts a clock on the given date or a full timestamp.
func (a *AttendanceServiceImpl) resolvePunchTime(date time.Time, value string) time.Time {
	if clock, ok := validator.IsValidClock(value); ok {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, a.loc).Add(clock)
	}
	t, _ := validator.IsValidDateTime(value)
	return t.In(a.loc)
}

// GetDaily implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetDaily(ctx context.Context, employeeID string, date string) (attendance.AttendanceResponse, error) {
	day, ok := validator.IsValidDate(date)
	if !ok {
		return attendance.AttendanceResponse{}, validator.Single("date", "date must be in YYYY-MM-DD format")
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	att, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, calendarDate(day), claims.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return a.toResponse(att), nil
}

// List implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) List(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := a.AttendanceRepository.List(ctx, filter, claims.CompanyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, a.toResponse(att))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if claims.EmployeeID == "" {
		return attendance.ListAttendanceResponse{}, user.ErrEmployeeIDRequired
	}

	return a.List(ctx, filter.ToFilter(claims.EmployeeID))
}

// MarkAbsent implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, req attendance.MarkAbsentRequest) (attendance.MarkAbsentResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.MarkAbsentResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return attendance.MarkAbsentResponse{}, err
	}

	day, _ := validator.IsValidDate(req.Date)
	date := calendarDate(day)
	resp := attendance.MarkAbsentResponse{Date: req.Date}

	if date.Weekday() == time.Sunday {
		resp.Skipped = true
		return resp, nil
	}

	err = a.transactor.WithinTx(ctx, func(ctx context.Context) error {
		employees, err := a.EmployeeRepository.GetActiveByCompanyID(ctx, claims.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get active employees: %w", err)
		}

		attended, err := a.AttendanceRepository.ListEmployeeIDsByDate(ctx, date, claims.CompanyID)
		if err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(attended))
		for _, id := range attended {
			seen[id] = struct{}{}
		}

		for _, emp := range employees {
			if _, ok := seen[emp.ID]; ok {
				continue
			}
			if calendarDate(emp.HireDate).After(date) {
				continue
			}
			if _, err := a.AttendanceRepository.Create(ctx, newRecord(emp.ID, emp.CompanyID, date)); err != nil {
				return fmt.Errorf("failed to mark employee %s absent: %w", emp.ID, err)
			}
			resp.Marked++
		}
		return nil
	})
	if err != nil {
		return attendance.MarkAbsentResponse{}, err
	}

	slog.Info("absent employees marked", "company_id", claims.CompanyID, "date", req.Date, "count", resp.Marked)
	return resp, nil
}

// renormalize recomputes the stored hours; incomplete days carry zero.
func (a *AttendanceServiceImpl) renormalize(att *attendance.Attendance) {
	if !att.HasCompleteSpan() {
		att.WorkingHours, att.OvertimeHours = 0, 0
		return
	}

	rec := att.PunchRecord()
	rec.CheckIn = a.local(rec.CheckIn)
	rec.LunchOut = a.local(rec.LunchOut)
	rec.LunchIn = a.local(rec.LunchIn)
	rec.CheckOut = a.local(rec.CheckOut)

	result := a.normalizer.Normalize(rec)
	att.WorkingHours = result.WorkingHours
	att.OvertimeHours = result.OvertimeHours
}

// save creates or updates the record and reads it back with the employee name.
func (a *AttendanceServiceImpl) save(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	if att.CreatedAt.IsZero() {
		if _, err := a.AttendanceRepository.Create(ctx, att); err != nil {
			return attendance.Attendance{}, err
		}
	} else if err := a.AttendanceRepository.Update(ctx, att); err != nil {
		return attendance.Attendance{}, err
	}
	return a.AttendanceRepository.GetByEmployeeAndDate(ctx, att.EmployeeID, att.Date, att.CompanyID)
}

func (a *AttendanceServiceImpl) local(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	l := t.In(a.loc)
	return &l
}

func (a *AttendanceServiceImpl) toResponse(att attendance.Attendance) attendance.AttendanceResponse {
	var employeeName string
	if att.EmployeeName != nil {
		employeeName = *att.EmployeeName
	}

	return attendance.AttendanceResponse{
		ID:            att.ID,
		EmployeeID:    att.EmployeeID,
		EmployeeName:  employeeName,
		Date:          att.Date.Format(time.DateOnly),
		CheckIn:       a.formatPunch(att.CheckIn),
		LunchOut:      a.formatPunch(att.LunchOut),
		LunchIn:       a.formatPunch(att.LunchIn),
		CheckOut:      a.formatPunch(att.CheckOut),
		WorkingHours:  att.WorkingHours,
		OvertimeHours: att.OvertimeHours,
		Status:        string(att.Status),
		CreatedAt:     att.CreatedAt.In(a.loc).Format(timestampLayout),
		UpdatedAt:     att.UpdatedAt.In(a.loc).Format(timestampLayout),
	}
}

func (a *AttendanceServiceImpl) formatPunch(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(a.loc).Format(timestampLayout)
	return &s
}

func newRecord(employeeID, companyID string, date time.Time) attendance.Attendance {
	return attendance.Attendance{
		ID:         uuid.Must(uuid.NewV7()).String(),
		CompanyID:  companyID,
		EmployeeID: employeeID,
		Date:       date,
		Status:     attendance.StatusAbsent,
	}
}

// calendarDate keeps the wall-clock date of t as midnight UTC, matching how
// DATE columns come back from either backend.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
