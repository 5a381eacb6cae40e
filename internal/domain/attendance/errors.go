package attendance

import "errors"

// Attendance domain errors
var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidPunchType   = errors.New("invalid punch type")
	ErrEmployeeInactive   = errors.New("employee is not active")
)
