package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// Punch records a self-service punch for the authenticated employee
	Punch(ctx context.Context, req PunchRequest) (AttendanceResponse, error)

	// UpsertPunch sets or clears one punch of any employee-day (admin/manager)
	UpsertPunch(ctx context.Context, req UpsertPunchRequest) (AttendanceResponse, error)

	// GetDaily retrieves one employee-day
	GetDaily(ctx context.Context, employeeID string, date string) (AttendanceResponse, error)

	// List retrieves attendance records with filters (admin/manager)
	List(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for authenticated employee
	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// MarkAbsent creates ABSENT records for active employees without a record on the date
	MarkAbsent(ctx context.Context, req MarkAbsentRequest) (MarkAbsentResponse, error)
}
