package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// TimeOfDay is an offset from local midnight.
type TimeOfDay time.Duration

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockOf returns the wall-clock offset of t in its own location.
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond()))
}

// On places the time of day on the calendar day of t.
func (c TimeOfDay) On(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).Add(time.Duration(c))
}

func (c TimeOfDay) String() string {
	d := time.Duration(c)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func (c TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *TimeOfDay) UnmarshalText(text []byte) error {
	d, ok := validator.IsValidClock(string(text))
	if !ok {
		return fmt.Errorf("invalid time of day %q, expected HH:MM", string(text))
	}
	*c = TimeOfDay(d)
	return nil
}

// OfficeHours is the single time-of-day table the normalizer works against.
type OfficeHours struct {
	OfficeStart          TimeOfDay
	OfficeEnd            TimeOfDay
	EarlyCheckInStart    TimeOfDay
	EarlyCheckInEnd      TimeOfDay
	LateCheckInStart     TimeOfDay
	EveningOvertimeStart TimeOfDay
	LunchAllowance       time.Duration
	MaxWorkingHours      float64
}

func DefaultOfficeHours() OfficeHours {
	return OfficeHours{
		OfficeStart:          NewTimeOfDay(9, 0),
		OfficeEnd:            NewTimeOfDay(18, 0),
		EarlyCheckInStart:    NewTimeOfDay(0, 1),
		EarlyCheckInEnd:      NewTimeOfDay(8, 0),
		LateCheckInStart:     NewTimeOfDay(9, 16),
		EveningOvertimeStart: NewTimeOfDay(19, 0),
		LunchAllowance:       time.Hour,
		MaxWorkingHours:      8,
	}
}

// Validate checks that the boundaries are ordered along the day.
func (o OfficeHours) Validate() error {
	var errs validator.ValidationErrors

	if o.EarlyCheckInStart >= o.EarlyCheckInEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "early_check_in_start",
			Message: "early_check_in_start must be before early_check_in_end",
		})
	}
	if o.EarlyCheckInEnd > o.OfficeStart {
		errs = append(errs, validator.ValidationError{
			Field:   "early_check_in_end",
			Message: "early_check_in_end must not be after office_start",
		})
	}
	if o.LateCheckInStart <= o.OfficeStart {
		errs = append(errs, validator.ValidationError{
			Field:   "late_check_in_start",
			Message: "late_check_in_start must be after office_start",
		})
	}
	if o.OfficeEnd <= o.OfficeStart {
		errs = append(errs, validator.ValidationError{
			Field:   "office_end",
			Message: "office_end must be after office_start",
		})
	}
	if o.EveningOvertimeStart < o.OfficeEnd {
		errs = append(errs, validator.ValidationError{
			Field:   "evening_overtime_start",
			Message: "evening_overtime_start must not be before office_end",
		})
	}
	if o.LunchAllowance < 0 || o.LunchAllowance >= time.Duration(o.OfficeEnd-o.OfficeStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "lunch_allowance",
			Message: "lunch_allowance must be shorter than the office span",
		})
	}
	if o.MaxWorkingHours <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "max_working_hours",
			Message: "max_working_hours must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
