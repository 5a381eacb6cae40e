package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

const slipColumns = `
	s.id, s.company_id, s.employee_id, s.period_year, s.period_month,
	s.total_days_in_month, s.working_days, s.weekly_offs,
	s.total_effective_working_hours, s.total_overtime_hours, s.raw_present_days,
	s.present_days, s.absent_days, s.proration_factor,
	s.basic_pay, s.hra, s.conveyance, s.uniform_and_safety, s.bonus, s.food_allowance,
	s.special_allowance, s.overtime_pay, s.total_special_allowance, s.other_incentive,
	s.epf_employer_contribution, s.total_earnings,
	s.epf_employee, s.epf_employer, s.esic, s.professional_tax, s.tds,
	s.advance_salary_recovery, s.loan_recovery, s.fuel_advance_recovery, s.other_deductions,
	s.total_statutory_deductions, s.total_other_deductions, s.total_deductions,
	s.net_salary, s.daily_rate, s.hourly_rate, s.overtime_rate, s.epf_branch,
	s.status, s.notes, s.generated_by, s.generated_at, s.finalized_by, s.finalized_at,
	s.paid_by, s.paid_at, s.deleted_at, s.created_at, s.updated_at,
	e.full_name`

type payrollRepository struct {
	db *database.SQLiteDB
}

func NewPayrollRepository(db *database.SQLiteDB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func scanSlip(row rowScanner) (payroll.PayrollSlip, error) {
	var s payroll.PayrollSlip
	var branch, status string
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.EmployeeID, &s.PeriodYear, &s.PeriodMonth,
		&s.TotalDaysInMonth, &s.WorkingDays, &s.WeeklyOffs,
		&s.TotalEffectiveWorkingHours, &s.TotalOvertimeHours, &s.RawPresentDays,
		&s.PresentDays, &s.AbsentDays, &s.ProrationFactor,
		&s.Earnings.BasicPay, &s.Earnings.HRA, &s.Earnings.Conveyance, &s.Earnings.UniformAndSafety,
		&s.Earnings.Bonus, &s.Earnings.FoodAllowance, &s.Earnings.SpecialAllowance, &s.Earnings.OvertimePay,
		&s.Earnings.TotalSpecialAllowance, &s.Earnings.OtherIncentive,
		&s.Earnings.EPFEmployerContribution, &s.Earnings.Total,
		&s.Deductions.EPFEmployee, &s.Deductions.EPFEmployer, &s.Deductions.ESIC, &s.Deductions.ProfessionalTax,
		&s.Deductions.TDS, &s.Deductions.AdvanceSalaryRecovery, &s.Deductions.LoanRecovery,
		&s.Deductions.FuelAdvanceRecovery, &s.Deductions.OtherDeductions,
		&s.Deductions.TotalStatutory, &s.Deductions.TotalOther, &s.Deductions.Total,
		&s.NetSalary, &s.DailyRate, &s.HourlyRate, &s.OvertimeRate, &branch,
		&status, &s.Notes, &s.GeneratedBy, nullTimeColumn{&s.GeneratedAt}, &s.FinalizedBy, nullTimeColumn{&s.FinalizedAt},
		&s.PaidBy, nullTimeColumn{&s.PaidAt}, nullTimeColumn{&s.DeletedAt}, timeColumn{&s.CreatedAt}, timeColumn{&s.UpdatedAt},
		&s.EmployeeName,
	)
	s.EPFBranch = payroll.ContributionBranch(branch)
	s.Status = payroll.SlipStatus(status)
	return s, err
}

func (r *payrollRepository) CreateSlip(ctx context.Context, s payroll.PayrollSlip) (payroll.PayrollSlip, error) {
	q := getQuerier(ctx, r.db)

	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO salary_slips (
			id, company_id, employee_id, period_year, period_month,
			total_days_in_month, working_days, weekly_offs,
			total_effective_working_hours, total_overtime_hours, raw_present_days,
			present_days, absent_days, proration_factor,
			basic_pay, hra, conveyance, uniform_and_safety, bonus, food_allowance,
			special_allowance, overtime_pay, total_special_allowance, other_incentive,
			epf_employer_contribution, total_earnings,
			epf_employee, epf_employer, esic, professional_tax, tds,
			advance_salary_recovery, loan_recovery, fuel_advance_recovery, other_deductions,
			total_statutory_deductions, total_other_deductions, total_deductions,
			net_salary, daily_rate, hourly_rate, overtime_rate, epf_branch,
			status, notes, generated_by, generated_at, created_at, updated_at
		) VALUES (`+placeholders(49)+`)`,
		s.ID, s.CompanyID, s.EmployeeID, s.PeriodYear, s.PeriodMonth,
		s.TotalDaysInMonth, s.WorkingDays, s.WeeklyOffs,
		s.TotalEffectiveWorkingHours, s.TotalOvertimeHours, s.RawPresentDays,
		s.PresentDays, s.AbsentDays, s.ProrationFactor,
		s.Earnings.BasicPay, s.Earnings.HRA, s.Earnings.Conveyance, s.Earnings.UniformAndSafety,
		s.Earnings.Bonus, s.Earnings.FoodAllowance, s.Earnings.SpecialAllowance, s.Earnings.OvertimePay,
		s.Earnings.TotalSpecialAllowance, s.Earnings.OtherIncentive,
		s.Earnings.EPFEmployerContribution, s.Earnings.Total,
		s.Deductions.EPFEmployee, s.Deductions.EPFEmployer, s.Deductions.ESIC, s.Deductions.ProfessionalTax,
		s.Deductions.TDS, s.Deductions.AdvanceSalaryRecovery, s.Deductions.LoanRecovery,
		s.Deductions.FuelAdvanceRecovery, s.Deductions.OtherDeductions,
		s.Deductions.TotalStatutory, s.Deductions.TotalOther, s.Deductions.Total,
		s.NetSalary, s.DailyRate, s.HourlyRate, s.OvertimeRate, string(s.EPFBranch),
		string(s.Status), s.Notes, s.GeneratedBy, formatNullTime(s.GeneratedAt), formatTime(now), formatTime(now),
	)
	if err != nil {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}
	return s, nil
}

func (r *payrollRepository) GetSlipByID(ctx context.Context, id string, companyID string) (payroll.PayrollSlip, error) {
	q := getQuerier(ctx, r.db)

	slip, err := scanSlip(q.QueryRowContext(ctx, `SELECT `+slipColumns+`
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.id = ? AND s.company_id = ? AND s.deleted_at IS NULL`, id, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.PayrollSlip{}, payroll.ErrSlipNotFound
		}
		return payroll.PayrollSlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}
	return slip, nil
}

// GetSlipForUpdate reads the slip; the single connection already serializes
// transactions, so no row lock is taken.
func (r *payrollRepository) GetSlipForUpdate(ctx context.Context, id string, companyID string) (payroll.PayrollSlip, error) {
	return r.GetSlipByID(ctx, id, companyID)
}

func (r *payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter, companyID string) ([]payroll.PayrollSlip, int64, error) {
	q := getQuerier(ctx, r.db)

	whereClauses := []string{"s.company_id = ?", "s.deleted_at IS NULL"}
	args := []any{companyID}

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, "s.employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.PeriodYear != nil {
		whereClauses = append(whereClauses, "s.period_year = ?")
		args = append(args, *filter.PeriodYear)
	}
	if filter.PeriodMonth != nil {
		whereClauses = append(whereClauses, "s.period_month = ?")
		args = append(args, *filter.PeriodMonth)
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, "s.status = ?")
		args = append(args, *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		whereClauses = append(whereClauses, "s.status IN ("+placeholders(len(filter.Statuses))+")")
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}

	whereSQL := "WHERE " + strings.Join(whereClauses, " AND ")

	var totalCount int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM salary_slips s "+whereSQL, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary slips: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		%s
		ORDER BY s.period_year DESC, s.period_month DESC, s.created_at DESC, s.id DESC
		LIMIT ? OFFSET ?`, slipColumns, whereSQL)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	slips, err := r.query(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return slips, totalCount, nil
}

func (r *payrollRepository) ListSlipsByEmployeePeriod(ctx context.Context, employeeID string, year, month int, companyID string) ([]payroll.PayrollSlip, error) {
	q := getQuerier(ctx, r.db)

	return r.query(ctx, q, `SELECT `+slipColumns+`
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.employee_id = ? AND s.period_year = ? AND s.period_month = ?
			AND s.company_id = ? AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id DESC`, employeeID, year, month, companyID)
}

func (r *payrollRepository) CountLockedSlips(ctx context.Context, employeeID string, year, month int, excludeID string, companyID string) (int, error) {
	q := getQuerier(ctx, r.db)

	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM salary_slips
		WHERE employee_id = ? AND period_year = ? AND period_month = ?
			AND company_id = ? AND id <> ?
			AND status IN ('FINALIZED', 'PAID') AND deleted_at IS NULL`,
		employeeID, year, month, companyID, excludeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count locked salary slips: %w", err)
	}
	return count, nil
}

func (r *payrollRepository) UpdateSlipStatus(ctx context.Context, s payroll.PayrollSlip) error {
	q := getQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		UPDATE salary_slips
		SET status = ?, finalized_by = ?, finalized_at = ?, paid_by = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL`,
		string(s.Status), s.FinalizedBy, formatNullTime(s.FinalizedAt), s.PaidBy, formatNullTime(s.PaidAt),
		formatTime(time.Now()), s.ID, s.CompanyID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.ErrFinalizedSlipExists
		}
		return fmt.Errorf("failed to update salary slip status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrSlipNotFound
	}
	return nil
}

func (r *payrollRepository) SoftDeleteSlip(ctx context.Context, id string, companyID string) error {
	q := getQuerier(ctx, r.db)

	now := formatTime(time.Now())
	res, err := q.ExecContext(ctx, `UPDATE salary_slips SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL`, now, now, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete salary slip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrSlipNotFound
	}
	return nil
}

func (r *payrollRepository) GetSalaryStructure(ctx context.Context, employeeID string, companyID string) (payroll.SalaryStructure, error) {
	q := getQuerier(ctx, r.db)

	var s payroll.SalaryStructure
	err := q.QueryRowContext(ctx, `
		SELECT id, basic_salary, house_rent_allowance, conveyance, uniform_and_safety, bonus,
			food_allowance, other_allowance, overtime_rate, epf_employee_percent,
			epf_employer_percent, esic_percent, professional_tax, uan_number, esic_number,
			salary_updated_at
		FROM employees
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL`, employeeID, companyID).Scan(
		&s.EmployeeID, &s.BasicSalary, &s.HouseRentAllowance, &s.Conveyance, &s.UniformAndSafety, &s.Bonus,
		&s.FoodAllowance, &s.OtherAllowance, &s.OvertimeRate, &s.EPFEmployeePercent,
		&s.EPFEmployerPercent, &s.ESICPercent, &s.ProfessionalTax, &s.UANNumber, &s.ESICNumber,
		timeColumn{&s.UpdatedAt},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	return s, nil
}

func (r *payrollRepository) UpdateSalaryStructure(ctx context.Context, s payroll.SalaryStructure, companyID string) error {
	q := getQuerier(ctx, r.db)

	now := formatTime(time.Now())
	res, err := q.ExecContext(ctx, `
		UPDATE employees SET
			basic_salary = ?, house_rent_allowance = ?, conveyance = ?, uniform_and_safety = ?,
			bonus = ?, food_allowance = ?, other_allowance = ?, overtime_rate = ?,
			epf_employee_percent = ?, epf_employer_percent = ?, esic_percent = ?,
			professional_tax = ?, uan_number = ?, esic_number = ?,
			salary_updated_at = ?, updated_at = ?
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL`,
		s.BasicSalary, s.HouseRentAllowance, s.Conveyance, s.UniformAndSafety,
		s.Bonus, s.FoodAllowance, s.OtherAllowance, s.OvertimeRate,
		s.EPFEmployeePercent, s.EPFEmployerPercent, s.ESICPercent,
		s.ProfessionalTax, s.UANNumber, s.ESICNumber,
		now, now, s.EmployeeID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update salary structure: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrSalaryStructureNotFound
	}
	return nil
}

func (r *payrollRepository) query(ctx context.Context, q database.SQLQuerier, query string, args ...any) ([]payroll.PayrollSlip, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary slips: %w", err)
	}
	defer rows.Close()

	var slips []payroll.PayrollSlip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary slip: %w", err)
		}
		slips = append(slips, slip)
	}
	return slips, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
