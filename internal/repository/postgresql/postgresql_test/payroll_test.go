package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const companyID = "01890000-0000-7000-8000-000000000001"

func seedEmployee(t *testing.T, db *database.DB, code string) employee.Employee {
	t.Helper()
	e, err := postgresql.NewEmployeeRepository(db).Create(context.Background(), employee.Employee{
		ID:               uuid.Must(uuid.NewV7()).String(),
		CompanyID:        companyID,
		EmployeeCode:     code,
		FullName:         "Employee " + code,
		HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		EmploymentStatus: employee.EmploymentStatusActive,
	})
	require.NoError(t, err)
	return e
}

func draftSlip(employeeID string) payroll.PayrollSlip {
	return payroll.PayrollSlip{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CompanyID:   companyID,
		EmployeeID:  employeeID,
		PeriodYear:  2024,
		PeriodMonth: 4,
		Earnings:    payroll.Earnings{BasicPay: decimal.RequireFromString("20000.50")},
		NetSalary:   decimal.RequireFromString("18201"),
		EPFBranch:   payroll.BranchFixedAbove,
		Status:      payroll.SlipStatusDraft,
	}
}

func TestPayrollRepository_OneLockedSlipPerPeriod(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := seedEmployee(t, db, "E001")

	first, err := repo.CreateSlip(ctx, draftSlip(emp.ID))
	require.NoError(t, err)
	second, err := repo.CreateSlip(ctx, draftSlip(emp.ID))
	require.NoError(t, err)

	now := time.Now()
	first.Status, first.FinalizedAt = payroll.SlipStatusFinalized, &now
	require.NoError(t, repo.UpdateSlipStatus(ctx, first))

	count, err := repo.CountLockedSlips(ctx, emp.ID, 2024, 4, second.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	second.Status, second.FinalizedAt = payroll.SlipStatusFinalized, &now
	assert.ErrorIs(t, repo.UpdateSlipStatus(ctx, second), payroll.ErrFinalizedSlipExists)

	got, err := repo.GetSlipByID(ctx, first.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, payroll.SlipStatusFinalized, got.Status)
	assert.True(t, decimal.RequireFromString("20000.50").Equal(got.Earnings.BasicPay))
	require.NotNil(t, got.EmployeeName)
	assert.Equal(t, "Employee E001", *got.EmployeeName)
}

func TestPayrollRepository_ListAndDelete(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := seedEmployee(t, db, "E001")

	draft, err := repo.CreateSlip(ctx, draftSlip(emp.ID))
	require.NoError(t, err)
	_, err = repo.CreateSlip(ctx, draftSlip(emp.ID))
	require.NoError(t, err)

	slips, total, err := repo.ListSlips(ctx, payroll.SlipFilter{
		EmployeeID: &emp.ID,
		Statuses:   []payroll.SlipStatus{payroll.SlipStatusDraft},
		Page:       1,
		Limit:      1,
	}, companyID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, slips, 1)

	require.NoError(t, repo.SoftDeleteSlip(ctx, draft.ID, companyID))
	_, err = repo.GetSlipByID(ctx, draft.ID, companyID)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)
	assert.ErrorIs(t, repo.SoftDeleteSlip(ctx, draft.ID, companyID), payroll.ErrSlipNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(db)
	emp := seedEmployee(t, db, "E001")

	boom := errors.New("boom")
	var slipID string
	err := postgresql.NewTransactor(db).WithinTx(ctx, func(ctx context.Context) error {
		slip, err := repo.CreateSlip(ctx, draftSlip(emp.ID))
		if err != nil {
			return err
		}
		slipID = slip.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.GetSlipByID(ctx, slipID, companyID)
	assert.ErrorIs(t, err, payroll.ErrSlipNotFound)
}

func TestAttendanceRepository_RoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(db)
	emp := seedEmployee(t, db, "E001")

	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	in := time.Date(2024, 4, 1, 3, 30, 0, 0, time.UTC)
	created, err := repo.Create(ctx, attendance.Attendance{
		ID:           uuid.Must(uuid.NewV7()).String(),
		CompanyID:    companyID,
		EmployeeID:   emp.ID,
		Date:         day,
		CheckIn:      &in,
		WorkingHours: 7.5,
		Status:       attendance.StatusPresent,
	})
	require.NoError(t, err)

	got, err := repo.GetByEmployeeAndDate(ctx, emp.ID, day, companyID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.NotNil(t, got.CheckIn)
	assert.True(t, in.Equal(*got.CheckIn))

	ids, err := repo.ListEmployeeIDsByDate(ctx, day, companyID)
	require.NoError(t, err)
	assert.Equal(t, []string{emp.ID}, ids)

	_, err = repo.GetByEmployeeAndDate(ctx, emp.ID, day.AddDate(0, 0, 1), companyID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestNotificationRepository_Batch(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewNotificationRepository(db)

	recipient := uuid.Must(uuid.NewV7()).String()
	batch := []*notification.Notification{
		{ID: uuid.Must(uuid.NewV7()).String(), CompanyID: companyID, RecipientID: recipient, Type: notification.TypePayrollFinalized, Title: "a", Message: "a", Data: map[string]interface{}{"slip_id": "x"}, CreatedAt: time.Now()},
		{ID: uuid.Must(uuid.NewV7()).String(), CompanyID: companyID, RecipientID: recipient, Type: notification.TypePayrollPaid, Title: "b", Message: "b", CreatedAt: time.Now()},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	got, err := repo.GetByRecipientID(ctx, recipient, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
