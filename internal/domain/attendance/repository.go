package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Create creates a new attendance record
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByEmployeeAndDate retrieves attendance for specific employee on specific date.
	// Returns ErrAttendanceNotFound when the day has no record yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (Attendance, error)

	// Update persists punches, normalized hours and status
	Update(ctx context.Context, attendance Attendance) error

	// List retrieves attendance records with filters and pagination
	List(ctx context.Context, filter AttendanceFilter, companyID string) ([]Attendance, int64, error)

	// ListByEmployeeAndRange returns every record of an employee in [from, to], ordered by date
	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time, companyID string) ([]Attendance, error)

	// ListEmployeeIDsByDate returns the employees that already have a record on date
	ListEmployeeIDsByDate(ctx context.Context, date time.Time, companyID string) ([]string, error)
}
