package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

const attendanceColumns = `
	a.id, a.company_id, a.employee_id, a.date, a.check_in, a.lunch_out, a.lunch_in, a.check_out,
	a.working_hours, a.overtime_hours, a.status, a.created_at, a.updated_at, e.full_name`

type attendanceRepository struct {
	db *database.SQLiteDB
}

func NewAttendanceRepository(db *database.SQLiteDB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(row rowScanner) (attendance.Attendance, error) {
	var a attendance.Attendance
	var status string
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.EmployeeID, timeColumn{&a.Date},
		nullTimeColumn{&a.CheckIn}, nullTimeColumn{&a.LunchOut}, nullTimeColumn{&a.LunchIn}, nullTimeColumn{&a.CheckOut},
		&a.WorkingHours, &a.OvertimeHours, &status,
		timeColumn{&a.CreatedAt}, timeColumn{&a.UpdatedAt}, &a.EmployeeName,
	)
	a.Status = attendance.Status(status)
	return a, err
}

func (r *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := getQuerier(ctx, r.db)

	now := time.Now().UTC()
	att.CreatedAt, att.UpdatedAt = now, now

	_, err := q.ExecContext(ctx, `
		INSERT INTO attendances (
			id, company_id, employee_id, date, check_in, lunch_out, lunch_in, check_out,
			working_hours, overtime_hours, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.CompanyID, att.EmployeeID, formatDate(att.Date),
		formatNullTime(att.CheckIn), formatNullTime(att.LunchOut), formatNullTime(att.LunchIn), formatNullTime(att.CheckOut),
		att.WorkingHours, att.OvertimeHours, string(att.Status), formatTime(now), formatTime(now),
	)
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return att, nil
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (attendance.Attendance, error) {
	q := getQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.employee_id = ? AND a.date = ? AND a.company_id = ?`

	att, err := scanAttendance(q.QueryRowContext(ctx, query, employeeID, formatDate(date), companyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return att, nil
}

func (r *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := getQuerier(ctx, r.db)

	res, err := q.ExecContext(ctx, `
		UPDATE attendances
		SET check_in = ?, lunch_out = ?, lunch_in = ?, check_out = ?,
			working_hours = ?, overtime_hours = ?, status = ?, updated_at = ?
		WHERE id = ? AND company_id = ?`,
		formatNullTime(att.CheckIn), formatNullTime(att.LunchOut), formatNullTime(att.LunchIn), formatNullTime(att.CheckOut),
		att.WorkingHours, att.OvertimeHours, string(att.Status), formatTime(time.Now()),
		att.ID, att.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := getQuerier(ctx, r.db)

	whereClauses := []string{"a.company_id = ?"}
	args := []any{companyID}

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, "a.employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.StartDate != nil {
		whereClauses = append(whereClauses, "a.date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		whereClauses = append(whereClauses, "a.date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, "a.status = ?")
		args = append(args, *filter.Status)
	}

	whereSQL := "WHERE " + strings.Join(whereClauses, " AND ")

	var totalCount int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM attendances a "+whereSQL, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		%s
		ORDER BY a.date %s, e.full_name ASC
		LIMIT ? OFFSET ?`, attendanceColumns, whereSQL, sortOrder)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	records, err := r.query(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return records, totalCount, nil
}

func (r *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]attendance.Attendance, error) {
	q := getQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON a.employee_id = e.id
		WHERE a.employee_id = ? AND a.date BETWEEN ? AND ? AND a.company_id = ?
		ORDER BY a.date ASC`

	return r.query(ctx, q, query, employeeID, formatDate(from), formatDate(to), companyID)
}

func (r *attendanceRepository) ListEmployeeIDsByDate(ctx context.Context, date time.Time, companyID string) ([]string, error) {
	q := getQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx, `SELECT employee_id FROM attendances WHERE date = ? AND company_id = ?`,
		formatDate(date), companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attended employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *attendanceRepository) query(ctx context.Context, q database.SQLQuerier, query string, args ...any) ([]attendance.Attendance, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	return records, rows.Err()
}
