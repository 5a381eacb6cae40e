package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

const employeeColumns = `id, user_id, company_id, employee_code, full_name, hire_date,
	employment_status, created_at, updated_at, deleted_at`

type employeeRepository struct {
	db *database.SQLiteDB
}

func NewEmployeeRepository(db *database.SQLiteDB) employee.EmployeeRepository {
	return &employeeRepository{db: db}
}

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var e employee.Employee
	var status string
	err := row.Scan(&e.ID, &e.UserID, &e.CompanyID, &e.EmployeeCode, &e.FullName, timeColumn{&e.HireDate},
		&status, timeColumn{&e.CreatedAt}, timeColumn{&e.UpdatedAt}, nullTimeColumn{&e.DeletedAt})
	e.EmploymentStatus = employee.EmploymentStatus(status)
	return e, err
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	q := getQuerier(ctx, r.db)

	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO employees (id, user_id, company_id, employee_code, full_name, hire_date, employment_status,
			salary_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CompanyID, e.EmployeeCode, e.FullName, formatDate(e.HireDate), string(e.EmploymentStatus),
		formatTime(now), formatTime(now), formatTime(now),
	)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := getQuerier(ctx, r.db)

	e, err := scanEmployee(q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees
		WHERE id = ? AND company_id = ? AND deleted_at IS NULL`, id, companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

func (r *employeeRepository) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	q := getQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees
		WHERE company_id = ? AND employment_status = 'active' AND deleted_at IS NULL
		ORDER BY employee_code ASC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := getQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `SELECT DISTINCT company_id FROM employees
		WHERE employment_status = 'active' AND deleted_at IS NULL ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
