package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

type PunchType string

const (
	PunchCheckIn  PunchType = "CHECK_IN"
	PunchLunchOut PunchType = "LUNCH_OUT"
	PunchLunchIn  PunchType = "LUNCH_IN"
	PunchCheckOut PunchType = "CHECK_OUT"
)

var PunchTypes = []string{
	string(PunchCheckIn),
	string(PunchLunchOut),
	string(PunchLunchIn),
	string(PunchCheckOut),
}

type Attendance struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	Date          time.Time
	CheckIn       *time.Time
	LunchOut      *time.Time
	LunchIn       *time.Time
	CheckOut      *time.Time
	WorkingHours  float64
	OvertimeHours float64
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// DTO
	EmployeeName *string
}

// DailyPunchRecord is one employee-day of raw punch timestamps.
type DailyPunchRecord struct {
	Date     time.Time
	CheckIn  *time.Time
	LunchOut *time.Time
	LunchIn  *time.Time
	CheckOut *time.Time
}

// DailyResult is the normalized outcome of a single day.
type DailyResult struct {
	WorkingHours  float64 `json:"working_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
}

func (a Attendance) PunchRecord() DailyPunchRecord {
	return DailyPunchRecord{
		Date:     a.Date,
		CheckIn:  a.CheckIn,
		LunchOut: a.LunchOut,
		LunchIn:  a.LunchIn,
		CheckOut: a.CheckOut,
	}
}

func (a Attendance) Result() DailyResult {
	return DailyResult{WorkingHours: a.WorkingHours, OvertimeHours: a.OvertimeHours}
}

// HasCompleteSpan reports whether both ends of the working day were punched.
func (a Attendance) HasCompleteSpan() bool {
	return a.CheckIn != nil && a.CheckOut != nil
}

// ApplyPunch records a self-service punch. Check-in is never overwritten and a
// lunch-out on a day without check-in doubles as the check-in.
func (a *Attendance) ApplyPunch(punch PunchType, at time.Time) {
	switch punch {
	case PunchCheckIn:
		if a.CheckIn == nil {
			a.CheckIn = &at
		}
	case PunchLunchOut:
		a.LunchOut = &at
		if a.CheckIn == nil {
			a.CheckIn = &at
		}
	case PunchLunchIn:
		a.LunchIn = &at
	case PunchCheckOut:
		a.CheckOut = &at
	}
	a.Status = StatusPresent
}

// SetPunch overwrites one punch unconditionally, used for admin corrections.
func (a *Attendance) SetPunch(punch PunchType, at *time.Time) {
	switch punch {
	case PunchCheckIn:
		a.CheckIn = at
	case PunchLunchOut:
		a.LunchOut = at
	case PunchLunchIn:
		a.LunchIn = at
	case PunchCheckOut:
		a.CheckOut = at
	}
	if a.CheckIn != nil || a.CheckOut != nil {
		a.Status = StatusPresent
	}
}
