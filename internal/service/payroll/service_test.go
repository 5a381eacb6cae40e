package payroll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompany = "01890000-0000-7000-8000-0000000000c1"
	managerUser = "01890000-0000-7000-8000-0000000000a1"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
}

func (r *recordingNotifier) QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
	return nil
}

func (r *recordingNotifier) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]notification.NotificationResponse, error) {
	return nil, nil
}

func (r *recordingNotifier) Stop() {}

type payrollFixture struct {
	svc        payroll.PayrollService
	employees  employee.EmployeeRepository
	records    attendance.AttendanceRepository
	slips      payroll.PayrollRepository
	notifier   *recordingNotifier
	managerCtx context.Context
}

func newPayrollFixture(t *testing.T) payrollFixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewSQLiteDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	f := payrollFixture{
		employees: sqlite.NewEmployeeRepository(db),
		records:   sqlite.NewAttendanceRepository(db),
		slips:     sqlite.NewPayrollRepository(db),
		notifier:  &recordingNotifier{},
	}
	f.svc = NewPayrollService(
		sqlite.NewTransactor(db),
		f.slips,
		f.employees,
		f.records,
		NewCalculator(payroll.DefaultRules()),
		f.notifier,
	)
	f.managerCtx = roleCtx(t, user.RoleManager, "")
	return f
}

func roleCtx(t *testing.T, role user.Role, employeeID string) context.Context {
	t.Helper()
	ctx, err := jwt.ContextWithClaims(context.Background(), jwt.Claims{
		UserID:     managerUser,
		EmployeeID: employeeID,
		CompanyID:  testCompany,
		Role:       role,
	})
	require.NoError(t, err)
	return ctx
}

// employ creates an employee with a basic-only structure and presentDays full
// days of attendance in April 2024.
func (f payrollFixture) employ(t *testing.T, code string, basic string, presentDays int) employee.Employee {
	t.Helper()
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV7()).String()
	emp, err := f.employees.Create(ctx, employee.Employee{
		ID:               uuid.Must(uuid.NewV7()).String(),
		UserID:           &userID,
		CompanyID:        testCompany,
		EmployeeCode:     code,
		FullName:         "Employee " + code,
		HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
	})
	require.NoError(t, err)

	s := basicOnly(basic)
	s.EmployeeID = emp.ID
	require.NoError(t, f.slips.UpdateSalaryStructure(ctx, s, testCompany))

	day := time.Date(aprilYear, aprilMonth, 1, 0, 0, 0, 0, time.UTC)
	for n := 0; n < presentDays; day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Sunday {
			continue
		}
		_, err := f.records.Create(ctx, attendance.Attendance{
			ID:           uuid.Must(uuid.NewV7()).String(),
			CompanyID:    testCompany,
			EmployeeID:   emp.ID,
			Date:         day,
			WorkingHours: 8,
			Status:       attendance.StatusPresent,
		})
		require.NoError(t, err)
		n++
	}
	return emp
}

func generate(t *testing.T, f payrollFixture, employeeID string) payroll.SlipResponse {
	t.Helper()
	slip, err := f.svc.GenerateSlip(f.managerCtx, payroll.GenerateSlipRequest{
		EmployeeID:  employeeID,
		PeriodYear:  aprilYear,
		PeriodMonth: aprilMonth,
	})
	require.NoError(t, err)
	return slip
}

func TestPayrollService_PreviewDoesNotPersist(t *testing.T) {
	f := newPayrollFixture(t)
	emp := f.employ(t, "E1", "26000", 13)

	preview, err := f.svc.PreviewSlip(f.managerCtx, payroll.GenerateSlipRequest{
		EmployeeID:  emp.ID,
		PeriodYear:  aprilYear,
		PeriodMonth: aprilMonth,
	})
	require.NoError(t, err)

	assert.Empty(t, preview.ID)
	assert.Equal(t, "Employee E1", preview.EmployeeName)
	assert.Equal(t, 13, preview.PresentDays)
	assertDecimal(t, "13000", preview.NetSalary, "net_salary")

	list, err := f.svc.ListSlips(f.managerCtx, payroll.SlipFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	assert.Equal(t, "0 of 0", list.Showing)
}

func TestPayrollService_GenerateAndLifecycle(t *testing.T) {
	f := newPayrollFixture(t)
	emp := f.employ(t, "E1", "26000", 26)

	draft := generate(t, f, emp.ID)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, string(payroll.SlipStatusDraft), draft.Status)
	assertDecimal(t, "26000", draft.NetSalary, "net_salary")
	require.NotNil(t, draft.GeneratedAt)

	// A second draft for the same month is allowed.
	second := generate(t, f, emp.ID)

	_, err := f.svc.MarkPaid(f.managerCtx, draft.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	finalized, err := f.svc.FinalizeSlip(f.managerCtx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.SlipStatusFinalized), finalized.Status)
	assert.NotNil(t, finalized.FinalizedAt)

	_, err = f.svc.FinalizeSlip(f.managerCtx, second.ID)
	assert.ErrorIs(t, err, payroll.ErrFinalizedSlipExists)

	_, err = f.svc.FinalizeSlip(f.managerCtx, draft.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)

	assert.ErrorIs(t, f.svc.DeleteSlip(f.managerCtx, draft.ID), payroll.ErrOnlyDraftDeletable)
	require.NoError(t, f.svc.DeleteSlip(f.managerCtx, second.ID))
	_, err = f.svc.GetSlip(f.managerCtx, second.ID)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)

	paid, err := f.svc.MarkPaid(f.managerCtx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.SlipStatusPaid), paid.Status)
	assert.NotNil(t, paid.PaidAt)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, notification.TypePayrollFinalized, f.notifier.sent[0].Type)
	assert.Equal(t, notification.TypePayrollPaid, f.notifier.sent[1].Type)
	assert.Equal(t, *emp.UserID, f.notifier.sent[0].RecipientID)
	assert.Equal(t, draft.ID, f.notifier.sent[0].Data["slip_id"])
	assert.Equal(t, "Your salary slip for April 2024 has been finalized", f.notifier.sent[0].Message)
}

func TestPayrollService_GetSlipByEmployeePeriod(t *testing.T) {
	f := newPayrollFixture(t)
	emp := f.employ(t, "E1", "26000", 26)

	_, err := f.svc.GetSlipByEmployeePeriod(f.managerCtx, emp.ID, aprilYear, aprilMonth)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)

	first := generate(t, f, emp.ID)
	latest := generate(t, f, emp.ID)

	got, err := f.svc.GetSlipByEmployeePeriod(f.managerCtx, emp.ID, aprilYear, aprilMonth)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)

	_, err = f.svc.FinalizeSlip(f.managerCtx, first.ID)
	require.NoError(t, err)

	got, err = f.svc.GetSlipByEmployeePeriod(f.managerCtx, emp.ID, aprilYear, aprilMonth)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestPayrollService_GenerateBulk(t *testing.T) {
	f := newPayrollFixture(t)
	a := f.employ(t, "E1", "26000", 26)
	b := f.employ(t, "E2", "13000", 13)
	// No attendance: total earnings would be zero.
	c := f.employ(t, "E3", "20000", 0)

	resp, err := f.svc.GenerateBulk(f.managerCtx, payroll.BulkGenerateRequest{PeriodYear: aprilYear, PeriodMonth: aprilMonth})
	require.NoError(t, err)

	require.Len(t, resp.Generated, 2)
	assert.Equal(t, a.ID, resp.Generated[0].EmployeeID)
	assert.Equal(t, b.ID, resp.Generated[1].EmployeeID)
	assertDecimal(t, "6500", resp.Generated[1].NetSalary, "net_salary")

	require.Len(t, resp.Failed, 1)
	assert.Equal(t, c.ID, resp.Failed[0].EmployeeID)
	assert.Contains(t, resp.Failed[0].Error, "total_earnings")

	only, err := f.svc.GenerateBulk(f.managerCtx, payroll.BulkGenerateRequest{
		PeriodYear:  aprilYear,
		PeriodMonth: aprilMonth,
		EmployeeIDs: []string{b.ID, uuid.Must(uuid.NewV7()).String()},
	})
	require.NoError(t, err)
	assert.Len(t, only.Generated, 1)
	require.Len(t, only.Failed, 1)
	assert.Contains(t, only.Failed[0].Error, employee.ErrEmployeeNotFound.Error())
}

func TestPayrollService_SystemRoleLeavesActorEmpty(t *testing.T) {
	f := newPayrollFixture(t)
	emp := f.employ(t, "E1", "26000", 26)

	slip, err := f.svc.GenerateSlip(roleCtx(t, user.RoleSystem, ""), payroll.GenerateSlipRequest{
		EmployeeID:  emp.ID,
		PeriodYear:  aprilYear,
		PeriodMonth: aprilMonth,
	})
	require.NoError(t, err)

	stored, err := f.slips.GetSlipByID(context.Background(), slip.ID, testCompany)
	require.NoError(t, err)
	assert.Nil(t, stored.GeneratedBy)

	manual := generate(t, f, emp.ID)
	stored, err = f.slips.GetSlipByID(context.Background(), manual.ID, testCompany)
	require.NoError(t, err)
	require.NotNil(t, stored.GeneratedBy)
	assert.Equal(t, managerUser, *stored.GeneratedBy)
}

func TestPayrollService_ListMySlips(t *testing.T) {
	f := newPayrollFixture(t)
	me := f.employ(t, "E1", "26000", 26)
	other := f.employ(t, "E2", "26000", 26)

	mine := generate(t, f, me.ID)
	generate(t, f, me.ID)
	theirs := generate(t, f, other.ID)
	_, err := f.svc.FinalizeSlip(f.managerCtx, mine.ID)
	require.NoError(t, err)
	_, err = f.svc.FinalizeSlip(f.managerCtx, theirs.ID)
	require.NoError(t, err)

	list, err := f.svc.ListMySlips(roleCtx(t, user.RoleEmployee, me.ID), payroll.SlipFilter{})
	require.NoError(t, err)
	require.Len(t, list.Slips, 1)
	assert.Equal(t, mine.ID, list.Slips[0].ID)
	assert.Equal(t, "1-1 of 1", list.Showing)

	_, err = f.svc.ListMySlips(roleCtx(t, user.RoleEmployee, ""), payroll.SlipFilter{})
	assert.ErrorIs(t, err, user.ErrEmployeeIDRequired)

	all, err := f.svc.ListSlips(f.managerCtx, payroll.SlipFilter{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.TotalCount)
	assert.Equal(t, 2, all.TotalPages)
	assert.Equal(t, "1-2 of 3", all.Showing)
}

func TestPayrollService_SalaryStructure(t *testing.T) {
	f := newPayrollFixture(t)
	emp := f.employ(t, "E1", "26000", 0)

	uan := "100200300400"
	updated, err := f.svc.UpdateSalaryStructure(f.managerCtx, payroll.SalaryStructureRequest{
		EmployeeID:         emp.ID,
		BasicSalary:        dec("30000"),
		OvertimeRate:       dec("150"),
		EPFEmployeePercent: dec("12"),
		EPFEmployerPercent: dec("13"),
		UANNumber:          &uan,
	})
	require.NoError(t, err)
	assertDecimal(t, "30000", updated.BasicSalary, "basic_salary")
	assert.True(t, updated.HasUAN)
	assert.False(t, updated.HasESIC)

	got, err := f.svc.GetSalaryStructure(f.managerCtx, emp.ID)
	require.NoError(t, err)
	assertDecimal(t, "150", got.OvertimeRate, "overtime_rate")

	_, err = f.svc.UpdateSalaryStructure(f.managerCtx, payroll.SalaryStructureRequest{
		EmployeeID:   emp.ID,
		BasicSalary:  dec("0"),
		OvertimeRate: dec("150"),
	})
	var errs validator.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "basic_salary", errs[0].Field)

	_, err = f.svc.UpdateSalaryStructure(f.managerCtx, payroll.SalaryStructureRequest{
		EmployeeID:   uuid.Must(uuid.NewV7()).String(),
		BasicSalary:  dec("1000"),
		OvertimeRate: dec("1"),
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
