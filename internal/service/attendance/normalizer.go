package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

// Normalizer turns one employee-day of punches into working and overtime hours.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	hours attendance.OfficeHours
}

func NewNormalizer(hours attendance.OfficeHours) *Normalizer {
	return &Normalizer{hours: hours}
}

// Normalize never fails: a day without both check-in and check-out yields a zero result.
func (n *Normalizer) Normalize(rec attendance.DailyPunchRecord) attendance.DailyResult {
	if rec.CheckIn == nil || rec.CheckOut == nil {
		return attendance.DailyResult{}
	}
	checkIn, checkOut := *rec.CheckIn, *rec.CheckOut

	if rec.Date.Weekday() == time.Sunday {
		return attendance.DailyResult{
			OvertimeHours: hours(wholeMinutes(checkOut.Sub(checkIn))),
		}
	}

	h := n.hours
	inClock := attendance.ClockOf(checkIn)
	outClock := attendance.ClockOf(checkOut)
	officeStart := h.OfficeStart.On(checkIn)
	officeEnd := h.OfficeEnd.On(checkIn)

	// Only a late arrival keeps its own time, everything earlier counts from office start.
	normalizedIn := officeStart
	if inClock >= h.LateCheckInStart {
		normalizedIn = checkIn
	}

	normalizedOut := checkOut
	if outClock >= h.OfficeEnd && outClock < h.EveningOvertimeStart {
		normalizedOut = h.OfficeEnd.On(checkOut)
	}

	var overtime int64
	if inClock >= h.EarlyCheckInStart && inClock < h.EarlyCheckInEnd {
		overtime += wholeMinutes(h.EarlyCheckInEnd.On(checkIn).Sub(checkIn))
	}
	if outClock >= h.EveningOvertimeStart {
		overtime += wholeMinutes(checkOut.Sub(h.EveningOvertimeStart.On(checkOut)))
	}

	worked := wholeMinutes(officeEnd.Sub(officeStart)) - wholeMinutes(h.LunchAllowance)
	worked -= n.extraLunchMinutes(rec.LunchOut, rec.LunchIn)
	if inClock >= h.LateCheckInStart {
		worked -= wholeMinutes(normalizedIn.Sub(officeStart))
	}
	if attendance.ClockOf(normalizedOut) < h.OfficeEnd {
		// A check-out past midnight is measured against the check-in day and never penalized.
		worked -= max(0, wholeMinutes(officeEnd.Sub(normalizedOut)))
	}

	return attendance.DailyResult{
		WorkingHours:  min(max(0, hours(worked)), h.MaxWorkingHours),
		OvertimeHours: hours(overtime),
	}
}

// extraLunchMinutes is the lunch time beyond the allowance, only when both lunch punches exist.
func (n *Normalizer) extraLunchMinutes(lunchOut, lunchIn *time.Time) int64 {
	if lunchOut == nil || lunchIn == nil {
		return 0
	}
	taken := wholeMinutes(lunchIn.Sub(*lunchOut))
	allowance := wholeMinutes(n.hours.LunchAllowance)
	if taken > allowance {
		return taken - allowance
	}
	return 0
}

// NormalizeMonth normalizes every record, keeping input order.
func (n *Normalizer) NormalizeMonth(records []attendance.DailyPunchRecord) []attendance.DailyResult {
	results := make([]attendance.DailyResult, 0, len(records))
	for _, rec := range records {
		results = append(results, n.Normalize(rec))
	}
	return results
}

// wholeMinutes truncates toward zero, dropping seconds.
func wholeMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

func hours(minutes int64) float64 {
	return max(0, float64(minutes)/60.0)
}
