package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const timestampLayout = "2006-01-02 15:04:05"

type PayrollServiceImpl struct {
	transactor     database.Transactor
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	calculator     *Calculator
	notifier       notification.Service
	now            func() time.Time
}

// NewPayrollService wires the slip lifecycle. notifier may be nil when no
// notifications should be sent.
func NewPayrollService(
	transactor database.Transactor,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	calculator *Calculator,
	notifier notification.Service,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		transactor:     transactor,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		calculator:     calculator,
		notifier:       notifier,
		now:            time.Now,
	}
}

// ========== GENERATION ==========

// PreviewSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) PreviewSlip(ctx context.Context, req payroll.GenerateSlipRequest) (payroll.SlipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SlipResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.calculate(ctx, claims.CompanyID, req)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	return ToSlipResponse(slip), nil
}

// GenerateSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateSlip(ctx context.Context, req payroll.GenerateSlipRequest) (payroll.SlipResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SlipResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.calculate(ctx, claims.CompanyID, req)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	now := s.now()
	slip.ID = uuid.Must(uuid.NewV7()).String()
	slip.Notes = req.Notes
	slip.GeneratedBy = actorID(claims)
	slip.GeneratedAt = &now

	created, err := s.payrollRepo.CreateSlip(ctx, slip)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	created.EmployeeName = slip.EmployeeName

	slog.Info("salary slip generated",
		"slip_id", created.ID,
		"employee_id", created.EmployeeID,
		"period", fmt.Sprintf("%04d-%02d", created.PeriodYear, created.PeriodMonth),
		"net_salary", created.NetSalary.String(),
	)

	return ToSlipResponse(created), nil
}

// calculate loads the salary structure and the month's stored daily results
// and runs the calculator.
func (s *PayrollServiceImpl) calculate(ctx context.Context, companyID string, req payroll.GenerateSlipRequest) (payroll.PayrollSlip, error) {
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, companyID)
	if err != nil {
		return payroll.PayrollSlip{}, err
	}

	structure, err := s.payrollRepo.GetSalaryStructure(ctx, emp.ID, companyID)
	if err != nil {
		return payroll.PayrollSlip{}, err
	}

	from := time.Date(req.PeriodYear, time.Month(req.PeriodMonth), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	records, err := s.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, from, to, companyID)
	if err != nil {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to load attendance: %w", err)
	}

	daily := make([]attendance.DailyResult, 0, len(records))
	for _, rec := range records {
		daily = append(daily, rec.Result())
	}

	slip, err := s.calculator.Calculate(structure, req.PeriodYear, req.PeriodMonth, daily, req.DeductionInputs)
	if err != nil {
		return payroll.PayrollSlip{}, err
	}
	slip.CompanyID = companyID
	slip.EmployeeName = &emp.FullName
	return slip, nil
}

// GenerateBulk implements payroll.PayrollService.
func (s *PayrollServiceImpl) GenerateBulk(ctx context.Context, req payroll.BulkGenerateRequest) (payroll.BulkGenerateResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkGenerateResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.BulkGenerateResponse{}, err
	}

	employeeIDs := req.EmployeeIDs
	if len(employeeIDs) == 0 {
		employees, err := s.employeeRepo.GetActiveByCompanyID(ctx, claims.CompanyID)
		if err != nil {
			return payroll.BulkGenerateResponse{}, fmt.Errorf("failed to get active employees: %w", err)
		}
		for _, emp := range employees {
			employeeIDs = append(employeeIDs, emp.ID)
		}
	}

	resp := payroll.BulkGenerateResponse{
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		Generated:   []payroll.SlipResponse{},
		Failed:      []payroll.BulkFailure{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(1, s.calculator.Rules().BulkWorkers))

	for _, id := range employeeIDs {
		id := id
		g.Go(func() error {
			slip, err := s.GenerateSlip(ctx, payroll.GenerateSlipRequest{
				EmployeeID:  id,
				PeriodYear:  req.PeriodYear,
				PeriodMonth: req.PeriodMonth,
				Notes:       req.Notes,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed = append(resp.Failed, payroll.BulkFailure{EmployeeID: id, Error: err.Error()})
				return nil
			}
			resp.Generated = append(resp.Generated, slip)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(resp.Generated, func(a, b payroll.SlipResponse) int {
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})
	slices.SortFunc(resp.Failed, func(a, b payroll.BulkFailure) int {
		return strings.Compare(a.EmployeeID, b.EmployeeID)
	})

	slog.Info("bulk salary slip generation finished",
		"company_id", claims.CompanyID,
		"period", fmt.Sprintf("%04d-%02d", req.PeriodYear, req.PeriodMonth),
		"generated", len(resp.Generated),
		"failed", len(resp.Failed),
	)

	return resp, nil
}

// ========== READ ==========

// GetSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSlip(ctx context.Context, id string) (payroll.SlipResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slip, err := s.payrollRepo.GetSlipByID(ctx, id, claims.CompanyID)
	if err != nil {
		return payroll.SlipResponse{}, err
	}
	return ToSlipResponse(slip), nil
}

// GetSlipByEmployeePeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSlipByEmployeePeriod(ctx context.Context, employeeID string, year, month int) (payroll.SlipResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slips, err := s.payrollRepo.ListSlipsByEmployeePeriod(ctx, employeeID, year, month, claims.CompanyID)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	for _, slip := range slips {
		if slip.Status.VisibleToEmployee() {
			return ToSlipResponse(slip), nil
		}
	}
	if len(slips) > 0 {
		return ToSlipResponse(slips[0]), nil
	}
	return payroll.SlipResponse{}, payroll.ErrSlipNotFound
}

// ListSlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListSlips(ctx context.Context, filter payroll.SlipFilter) (payroll.ListSlipResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListSlipResponse{}, err
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}

	slips, total, err := s.payrollRepo.ListSlips(ctx, filter, claims.CompanyID)
	if err != nil {
		return payroll.ListSlipResponse{}, fmt.Errorf("failed to list salary slips: %w", err)
	}

	data := make([]payroll.SlipResponse, 0, len(slips))
	for _, slip := range slips {
		data = append(data, ToSlipResponse(slip))
	}

	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return payroll.ListSlipResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Showing:    showing,
		Slips:      data,
	}, nil
}

// ListMySlips implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListMySlips(ctx context.Context, filter payroll.SlipFilter) (payroll.ListSlipResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.ListSlipResponse{}, err
	}
	if claims.EmployeeID == "" {
		return payroll.ListSlipResponse{}, user.ErrEmployeeIDRequired
	}

	filter.EmployeeID = &claims.EmployeeID
	filter.Statuses = []payroll.SlipStatus{payroll.SlipStatusFinalized, payroll.SlipStatusPaid}
	return s.ListSlips(ctx, filter)
}

// ========== LIFECYCLE ==========

// FinalizeSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) FinalizeSlip(ctx context.Context, id string) (payroll.SlipResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	var slip payroll.PayrollSlip
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		slip, err = s.payrollRepo.GetSlipForUpdate(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		if !slip.Status.CanTransitionTo(payroll.SlipStatusFinalized) {
			return fmt.Errorf("%w: %s to %s", payroll.ErrInvalidStatusTransition, slip.Status, payroll.SlipStatusFinalized)
		}

		locked, err := s.payrollRepo.CountLockedSlips(ctx, slip.EmployeeID, slip.PeriodYear, slip.PeriodMonth, slip.ID, claims.CompanyID)
		if err != nil {
			return err
		}
		if locked > 0 {
			return payroll.ErrFinalizedSlipExists
		}

		now := s.now()
		slip.Status = payroll.SlipStatusFinalized
		slip.FinalizedBy = actorID(claims)
		slip.FinalizedAt = &now
		return s.payrollRepo.UpdateSlipStatus(ctx, slip)
	})
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slog.Info("salary slip finalized", "slip_id", slip.ID, "employee_id", slip.EmployeeID, "by", claims.UserID)

	s.notify(ctx, claims, slip, notification.TypePayrollFinalized, "Salary slip finalized", "has been finalized")
	return ToSlipResponse(slip), nil
}

// MarkPaid implements payroll.PayrollService.
func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, id string) (payroll.SlipResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	var slip payroll.PayrollSlip
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		slip, err = s.payrollRepo.GetSlipForUpdate(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		if !slip.Status.CanTransitionTo(payroll.SlipStatusPaid) {
			return fmt.Errorf("%w: %s to %s", payroll.ErrInvalidStatusTransition, slip.Status, payroll.SlipStatusPaid)
		}

		now := s.now()
		slip.Status = payroll.SlipStatusPaid
		slip.PaidBy = actorID(claims)
		slip.PaidAt = &now
		return s.payrollRepo.UpdateSlipStatus(ctx, slip)
	})
	if err != nil {
		return payroll.SlipResponse{}, err
	}

	slog.Info("salary slip paid", "slip_id", slip.ID, "employee_id", slip.EmployeeID, "by", claims.UserID)

	s.notify(ctx, claims, slip, notification.TypePayrollPaid, "Salary paid", "has been paid")
	return ToSlipResponse(slip), nil
}

// DeleteSlip implements payroll.PayrollService.
func (s *PayrollServiceImpl) DeleteSlip(ctx context.Context, id string) error {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return err
	}

	return s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		slip, err := s.payrollRepo.GetSlipForUpdate(ctx, id, claims.CompanyID)
		if err != nil {
			return err
		}
		if !slip.Status.CanDelete() {
			return payroll.ErrOnlyDraftDeletable
		}
		return s.payrollRepo.SoftDeleteSlip(ctx, id, claims.CompanyID)
	})
}

// notify queues a message for the employee's user account, if there is one.
// Failures are logged; the status change has already been committed.
func (s *PayrollServiceImpl) notify(ctx context.Context, claims jwt.Claims, slip payroll.PayrollSlip, notifType notification.NotificationType, title, verb string) {
	if s.notifier == nil {
		return
	}

	emp, err := s.employeeRepo.GetByID(ctx, slip.EmployeeID, slip.CompanyID)
	if err != nil {
		slog.Warn("failed to load employee for notification", "employee_id", slip.EmployeeID, "error", err)
		return
	}
	if emp.UserID == nil {
		return
	}

	period := time.Date(slip.PeriodYear, time.Month(slip.PeriodMonth), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	err = s.notifier.QueueNotification(ctx, notification.CreateNotificationRequest{
		CompanyID:   slip.CompanyID,
		RecipientID: *emp.UserID,
		SenderID:    actorID(claims),
		Type:        notifType,
		Title:       title,
		Message:     fmt.Sprintf("Your salary slip for %s %s", period, verb),
		Data: map[string]interface{}{
			"slip_id":      slip.ID,
			"period_year":  slip.PeriodYear,
			"period_month": slip.PeriodMonth,
			"net_salary":   slip.NetSalary.String(),
		},
	})
	if err != nil {
		slog.Error("failed to queue payroll notification", "slip_id", slip.ID, "error", err)
	}
}

// ========== SALARY STRUCTURE ==========

// GetSalaryStructure implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSalaryStructure(ctx context.Context, employeeID string) (payroll.SalaryStructureResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	structure, err := s.payrollRepo.GetSalaryStructure(ctx, employeeID, claims.CompanyID)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}
	return toStructureResponse(structure), nil
}

// UpdateSalaryStructure implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpdateSalaryStructure(ctx context.Context, req payroll.SalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	structure := req.ToStructure()
	if errs := s.calculator.Rules().CheckStructure(structure); len(errs) > 0 {
		return payroll.SalaryStructureResponse{}, errs
	}

	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	var updated payroll.SalaryStructure
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.payrollRepo.UpdateSalaryStructure(ctx, structure, claims.CompanyID); err != nil {
			return err
		}
		updated, err = s.payrollRepo.GetSalaryStructure(ctx, structure.EmployeeID, claims.CompanyID)
		return err
	})
	if err != nil {
		if errors.Is(err, payroll.ErrSalaryStructureNotFound) {
			return payroll.SalaryStructureResponse{}, employee.ErrEmployeeNotFound
		}
		return payroll.SalaryStructureResponse{}, err
	}

	slog.Info("salary structure updated", "employee_id", structure.EmployeeID, "by", claims.UserID)
	return toStructureResponse(updated), nil
}

// ========== MAPPING ==========

// actorID is the user recorded on slip transitions; system jobs leave it empty.
func actorID(claims jwt.Claims) *string {
	if claims.Role == user.RoleSystem {
		return nil
	}
	id := claims.UserID
	return &id
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timestampLayout)
	return &s
}

// ToSlipResponse renders a slip with response time formatting.
func ToSlipResponse(s payroll.PayrollSlip) payroll.SlipResponse {
	var employeeName string
	if s.EmployeeName != nil {
		employeeName = *s.EmployeeName
	}

	return payroll.SlipResponse{
		ID:                         s.ID,
		EmployeeID:                 s.EmployeeID,
		EmployeeName:               employeeName,
		PeriodYear:                 s.PeriodYear,
		PeriodMonth:                s.PeriodMonth,
		TotalDaysInMonth:           s.TotalDaysInMonth,
		WorkingDays:                s.WorkingDays,
		WeeklyOffs:                 s.WeeklyOffs,
		TotalEffectiveWorkingHours: s.TotalEffectiveWorkingHours,
		TotalOvertimeHours:         s.TotalOvertimeHours,
		RawPresentDays:             s.RawPresentDays,
		PresentDays:                s.PresentDays,
		AbsentDays:                 s.AbsentDays,
		ProrationFactor:            s.ProrationFactor,
		Earnings: payroll.EarningsResponse{
			BasicPay:                s.Earnings.BasicPay,
			HRA:                     s.Earnings.HRA,
			Conveyance:              s.Earnings.Conveyance,
			UniformAndSafety:        s.Earnings.UniformAndSafety,
			Bonus:                   s.Earnings.Bonus,
			FoodAllowance:           s.Earnings.FoodAllowance,
			SpecialAllowance:        s.Earnings.SpecialAllowance,
			OvertimePay:             s.Earnings.OvertimePay,
			TotalSpecialAllowance:   s.Earnings.TotalSpecialAllowance,
			OtherIncentive:          s.Earnings.OtherIncentive,
			EPFEmployerContribution: s.Earnings.EPFEmployerContribution,
			Total:                   s.Earnings.Total,
		},
		Deductions: payroll.DeductionsResponse{
			EPFEmployee:           s.Deductions.EPFEmployee,
			EPFEmployer:           s.Deductions.EPFEmployer,
			ESIC:                  s.Deductions.ESIC,
			ProfessionalTax:       s.Deductions.ProfessionalTax,
			TDS:                   s.Deductions.TDS,
			AdvanceSalaryRecovery: s.Deductions.AdvanceSalaryRecovery,
			LoanRecovery:          s.Deductions.LoanRecovery,
			FuelAdvanceRecovery:   s.Deductions.FuelAdvanceRecovery,
			OtherDeductions:       s.Deductions.OtherDeductions,
			TotalStatutory:        s.Deductions.TotalStatutory,
			TotalOther:            s.Deductions.TotalOther,
			Total:                 s.Deductions.Total,
		},
		NetSalary:    s.NetSalary,
		DailyRate:    s.DailyRate,
		HourlyRate:   s.HourlyRate,
		OvertimeRate: s.OvertimeRate,
		EPFBranch:    string(s.EPFBranch),
		Status:       string(s.Status),
		Notes:        s.Notes,
		GeneratedAt:  formatTimePtr(s.GeneratedAt),
		FinalizedAt:  formatTimePtr(s.FinalizedAt),
		PaidAt:       formatTimePtr(s.PaidAt),
	}
}

func toStructureResponse(s payroll.SalaryStructure) payroll.SalaryStructureResponse {
	return payroll.SalaryStructureResponse{
		EmployeeID:         s.EmployeeID,
		BasicSalary:        s.BasicSalary,
		HouseRentAllowance: s.HouseRentAllowance,
		Conveyance:         s.Conveyance,
		UniformAndSafety:   s.UniformAndSafety,
		Bonus:              s.Bonus,
		FoodAllowance:      s.FoodAllowance,
		OtherAllowance:     s.OtherAllowance,
		OvertimeRate:       s.OvertimeRate,
		EPFEmployeePercent: s.EPFEmployeePercent,
		EPFEmployerPercent: s.EPFEmployerPercent,
		ESICPercent:        s.ESICPercent,
		ProfessionalTax:    s.ProfessionalTax,
		HasUAN:             s.HasUAN(),
		HasESIC:            s.HasESIC(),
		UpdatedAt:          s.UpdatedAt.Format(timestampLayout),
	}
}
