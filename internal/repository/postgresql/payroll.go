package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

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
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

func scanSlip(row pgx.Row) (payroll.PayrollSlip, error) {
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
		&status, &s.Notes, &s.GeneratedBy, &s.GeneratedAt, &s.FinalizedBy, &s.FinalizedAt,
		&s.PaidBy, &s.PaidAt, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName,
	)
	s.EPFBranch = payroll.ContributionBranch(branch)
	s.Status = payroll.SlipStatus(status)
	return s, err
}

// CreateSlip implements payroll.PayrollRepository.
func (r *payrollRepository) CreateSlip(ctx context.Context, s payroll.PayrollSlip) (payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
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
			status, notes, generated_by, generated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31,
			$32, $33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44, $45, $46, $47
		)
		RETURNING created_at, updated_at`

	err := q.QueryRow(ctx, query,
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
		string(s.Status), s.Notes, s.GeneratedBy, s.GeneratedAt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return payroll.PayrollSlip{}, fmt.Errorf("failed to create salary slip: %w", err)
	}

	return s, nil
}

// GetSlipByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetSlipByID(ctx context.Context, id string, companyID string) (payroll.PayrollSlip, error) {
	return r.getSlip(ctx, id, companyID, "")
}

// GetSlipForUpdate implements payroll.PayrollRepository.
func (r *payrollRepository) GetSlipForUpdate(ctx context.Context, id string, companyID string) (payroll.PayrollSlip, error) {
	return r.getSlip(ctx, id, companyID, "FOR UPDATE OF s")
}

func (r *payrollRepository) getSlip(ctx context.Context, id, companyID, lock string) (payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + slipColumns + `
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.id = $1 AND s.company_id = $2 AND s.deleted_at IS NULL ` + lock

	slip, err := scanSlip(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollSlip{}, payroll.ErrSlipNotFound
		}
		return payroll.PayrollSlip{}, fmt.Errorf("failed to get salary slip: %w", err)
	}
	return slip, nil
}

// ListSlips implements payroll.PayrollRepository.
func (r *payrollRepository) ListSlips(ctx context.Context, filter payroll.SlipFilter, companyID string) ([]payroll.PayrollSlip, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClauses := []string{"s.company_id = $1", "s.deleted_at IS NULL"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("s.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.PeriodYear != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("s.period_year = $%d", argIdx))
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.PeriodMonth != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("s.period_month = $%d", argIdx))
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("s.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("s.status = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}

	whereSQL := "WHERE " + strings.Join(whereClauses, " AND ")

	var totalCount int64
	countQuery := "SELECT COUNT(*) FROM salary_slips s " + whereSQL
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary slips: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		%s
		ORDER BY s.period_year DESC, s.period_month DESC, s.created_at DESC, s.id DESC
		LIMIT $%d OFFSET $%d`, slipColumns, whereSQL, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list salary slips: %w", err)
	}
	defer rows.Close()

	var slips []payroll.PayrollSlip
	for rows.Next() {
		slip, err := scanSlip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan salary slip: %w", err)
		}
		slips = append(slips, slip)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating salary slips: %w", err)
	}

	return slips, totalCount, nil
}

// ListSlipsByEmployeePeriod implements payroll.PayrollRepository.
func (r *payrollRepository) ListSlipsByEmployeePeriod(ctx context.Context, employeeID string, year, month int, companyID string) ([]payroll.PayrollSlip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + slipColumns + `
		FROM salary_slips s
		JOIN employees e ON s.employee_id = e.id
		WHERE s.employee_id = $1 AND s.period_year = $2 AND s.period_month = $3
			AND s.company_id = $4 AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id DESC`

	rows, err := q.Query(ctx, query, employeeID, year, month, companyID)
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

// CountLockedSlips implements payroll.PayrollRepository.
func (r *payrollRepository) CountLockedSlips(ctx context.Context, employeeID string, year, month int, excludeID string, companyID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*) FROM salary_slips
		WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
			AND company_id = $4 AND id <> $5
			AND status IN ('FINALIZED', 'PAID') AND deleted_at IS NULL`

	var count int
	if err := q.QueryRow(ctx, query, employeeID, year, month, companyID, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count locked salary slips: %w", err)
	}
	return count, nil
}

// UpdateSlipStatus implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateSlipStatus(ctx context.Context, s payroll.PayrollSlip) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_slips
		SET status = $1, finalized_by = $2, finalized_at = $3, paid_by = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $6 AND company_id = $7 AND deleted_at IS NULL`

	tag, err := q.Exec(ctx, query, string(s.Status), s.FinalizedBy, s.FinalizedAt, s.PaidBy, s.PaidAt, s.ID, s.CompanyID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return payroll.ErrFinalizedSlipExists
		}
		return fmt.Errorf("failed to update salary slip status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSlipNotFound
	}
	return nil
}

// SoftDeleteSlip implements payroll.PayrollRepository.
func (r *payrollRepository) SoftDeleteSlip(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE salary_slips SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`

	tag, err := q.Exec(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete salary slip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSlipNotFound
	}
	return nil
}

// GetSalaryStructure implements payroll.PayrollRepository.
func (r *payrollRepository) GetSalaryStructure(ctx context.Context, employeeID string, companyID string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, basic_salary, house_rent_allowance, conveyance, uniform_and_safety, bonus,
			food_allowance, other_allowance, overtime_rate, epf_employee_percent,
			epf_employer_percent, esic_percent, professional_tax, uan_number, esic_number,
			salary_updated_at
		FROM employees
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL`

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, query, employeeID, companyID).Scan(
		&s.EmployeeID, &s.BasicSalary, &s.HouseRentAllowance, &s.Conveyance, &s.UniformAndSafety, &s.Bonus,
		&s.FoodAllowance, &s.OtherAllowance, &s.OvertimeRate, &s.EPFEmployeePercent,
		&s.EPFEmployerPercent, &s.ESICPercent, &s.ProfessionalTax, &s.UANNumber, &s.ESICNumber,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	return s, nil
}

// UpdateSalaryStructure implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateSalaryStructure(ctx context.Context, s payroll.SalaryStructure, companyID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employees SET
			basic_salary = $1, house_rent_allowance = $2, conveyance = $3, uniform_and_safety = $4,
			bonus = $5, food_allowance = $6, other_allowance = $7, overtime_rate = $8,
			epf_employee_percent = $9, epf_employer_percent = $10, esic_percent = $11,
			professional_tax = $12, uan_number = $13, esic_number = $14,
			salary_updated_at = NOW(), updated_at = NOW()
		WHERE id = $15 AND company_id = $16 AND deleted_at IS NULL`

	tag, err := q.Exec(ctx, query,
		s.BasicSalary, s.HouseRentAllowance, s.Conveyance, s.UniformAndSafety,
		s.Bonus, s.FoodAllowance, s.OtherAllowance, s.OvertimeRate,
		s.EPFEmployeePercent, s.EPFEmployerPercent, s.ESICPercent,
		s.ProfessionalTax, s.UANNumber, s.ESICNumber,
		s.EmployeeID, companyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update salary structure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSalaryStructureNotFound
	}
	return nil
}
