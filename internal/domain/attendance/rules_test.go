package attendance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOfDay_Text(t *testing.T) {
	var c TimeOfDay
	require.NoError(t, c.UnmarshalText([]byte("09:16")))
	assert.Equal(t, NewTimeOfDay(9, 16), c)
	assert.Equal(t, "09:16", c.String())

	assert.Error(t, c.UnmarshalText([]byte("9.16")))

	var payload struct {
		Start TimeOfDay `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"18:00"}`), &payload))
	assert.Equal(t, NewTimeOfDay(18, 0), payload.Start)
}

func TestClockOfAndOn(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	ts := time.Date(2024, 3, 13, 9, 15, 59, 0, loc)

	assert.Equal(t, TimeOfDay(9*time.Hour+15*time.Minute+59*time.Second), ClockOf(ts))
	assert.Equal(t, time.Date(2024, 3, 13, 18, 0, 0, 0, loc), NewTimeOfDay(18, 0).On(ts))
}

func TestOfficeHours_Validate(t *testing.T) {
	assert.NoError(t, DefaultOfficeHours().Validate())

	cases := []struct {
		name   string
		mutate func(o *OfficeHours)
		field  string
	}{
		{"office end before start", func(o *OfficeHours) { o.OfficeEnd = NewTimeOfDay(8, 0) }, "office_end"},
		{"late start not after office start", func(o *OfficeHours) { o.LateCheckInStart = o.OfficeStart }, "late_check_in_start"},
		{"evening overtime before office end", func(o *OfficeHours) { o.EveningOvertimeStart = NewTimeOfDay(17, 0) }, "evening_overtime_start"},
		{"early window past office start", func(o *OfficeHours) { o.EarlyCheckInEnd = NewTimeOfDay(9, 30) }, "early_check_in_end"},
		{"lunch longer than day", func(o *OfficeHours) { o.LunchAllowance = 10 * time.Hour }, "lunch_allowance"},
		{"non positive cap", func(o *OfficeHours) { o.MaxWorkingHours = 0 }, "max_working_hours"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := DefaultOfficeHours()
			c.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.field)
		})
	}
}

func TestAttendance_ApplyPunch(t *testing.T) {
	day := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
	first := day.Add(9 * time.Hour)
	second := day.Add(10 * time.Hour)
	lunch := day.Add(13 * time.Hour)

	var a Attendance
	a.ApplyPunch(PunchCheckIn, first)
	a.ApplyPunch(PunchCheckIn, second)
	assert.Equal(t, first, *a.CheckIn, "check-in is set once")
	assert.Equal(t, StatusPresent, a.Status)

	var b Attendance
	b.ApplyPunch(PunchLunchOut, lunch)
	require.NotNil(t, b.CheckIn)
	assert.Equal(t, lunch, *b.CheckIn, "lunch-out doubles as missing check-in")
	assert.False(t, b.HasCompleteSpan())

	b.ApplyPunch(PunchCheckOut, day.Add(18*time.Hour))
	assert.True(t, b.HasCompleteSpan())

	b.SetPunch(PunchCheckIn, &second)
	assert.Equal(t, second, *b.CheckIn)
	b.SetPunch(PunchCheckOut, nil)
	assert.False(t, b.HasCompleteSpan())
}
