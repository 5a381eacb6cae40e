package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

// Migrate creates the schema. It is idempotent.
func Migrate(ctx context.Context, db *database.SQLiteDB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	user_id TEXT,
	employee_code TEXT NOT NULL,
	full_name TEXT NOT NULL,
	hire_date TEXT NOT NULL,
	employment_status TEXT NOT NULL DEFAULT 'active',

	basic_salary TEXT NOT NULL DEFAULT '0',
	house_rent_allowance TEXT NOT NULL DEFAULT '0',
	conveyance TEXT NOT NULL DEFAULT '0',
	uniform_and_safety TEXT NOT NULL DEFAULT '0',
	bonus TEXT NOT NULL DEFAULT '0',
	food_allowance TEXT NOT NULL DEFAULT '0',
	other_allowance TEXT NOT NULL DEFAULT '0',
	overtime_rate TEXT NOT NULL DEFAULT '1',
	epf_employee_percent TEXT NOT NULL DEFAULT '0',
	epf_employer_percent TEXT NOT NULL DEFAULT '0',
	esic_percent TEXT NOT NULL DEFAULT '0',
	professional_tax TEXT NOT NULL DEFAULT '0',
	uan_number TEXT,
	esic_number TEXT,
	salary_updated_at TEXT NOT NULL,

	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT,

	UNIQUE (company_id, employee_code)
);

CREATE TABLE IF NOT EXISTS attendances (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	employee_id TEXT NOT NULL REFERENCES employees (id),
	date TEXT NOT NULL,
	check_in TEXT,
	lunch_out TEXT,
	lunch_in TEXT,
	check_out TEXT,
	working_hours REAL NOT NULL DEFAULT 0,
	overtime_hours REAL NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,

	UNIQUE (employee_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendances_company_date ON attendances (company_id, date);

CREATE TABLE IF NOT EXISTS salary_slips (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	employee_id TEXT NOT NULL REFERENCES employees (id),
	period_year INTEGER NOT NULL,
	period_month INTEGER NOT NULL CHECK (period_month BETWEEN 1 AND 12),

	total_days_in_month INTEGER NOT NULL,
	working_days INTEGER NOT NULL,
	weekly_offs INTEGER NOT NULL,
	total_effective_working_hours TEXT NOT NULL,
	total_overtime_hours TEXT NOT NULL,
	raw_present_days TEXT NOT NULL,
	present_days INTEGER NOT NULL,
	absent_days INTEGER NOT NULL,
	proration_factor TEXT NOT NULL,

	basic_pay TEXT NOT NULL,
	hra TEXT NOT NULL,
	conveyance TEXT NOT NULL,
	uniform_and_safety TEXT NOT NULL,
	bonus TEXT NOT NULL,
	food_allowance TEXT NOT NULL,
	special_allowance TEXT NOT NULL,
	overtime_pay TEXT NOT NULL,
	total_special_allowance TEXT NOT NULL,
	other_incentive TEXT NOT NULL,
	epf_employer_contribution TEXT NOT NULL,
	total_earnings TEXT NOT NULL,

	epf_employee TEXT NOT NULL,
	epf_employer TEXT NOT NULL,
	esic TEXT NOT NULL,
	professional_tax TEXT NOT NULL,
	tds TEXT NOT NULL,
	advance_salary_recovery TEXT NOT NULL,
	loan_recovery TEXT NOT NULL,
	fuel_advance_recovery TEXT NOT NULL,
	other_deductions TEXT NOT NULL,
	total_statutory_deductions TEXT NOT NULL,
	total_other_deductions TEXT NOT NULL,
	total_deductions TEXT NOT NULL,

	net_salary TEXT NOT NULL,
	daily_rate TEXT NOT NULL,
	hourly_rate TEXT NOT NULL,
	overtime_rate TEXT NOT NULL,
	epf_branch TEXT NOT NULL,

	status TEXT NOT NULL DEFAULT 'DRAFT',
	notes TEXT,
	generated_by TEXT,
	generated_at TEXT,
	finalized_by TEXT,
	finalized_at TEXT,
	paid_by TEXT,
	paid_at TEXT,
	deleted_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- at most one finalized (or paid) slip per employee-month
CREATE UNIQUE INDEX IF NOT EXISTS uq_salary_slips_locked_period
	ON salary_slips (employee_id, period_year, period_month)
	WHERE status IN ('FINALIZED', 'PAID') AND deleted_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_salary_slips_company_period
	ON salary_slips (company_id, period_year, period_month);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	recipient_id TEXT NOT NULL,
	sender_id TEXT,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	data TEXT,
	is_read INTEGER NOT NULL DEFAULT 0,
	read_at TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at);
`
