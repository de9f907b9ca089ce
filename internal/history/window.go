package history

import "time"

const (
	dayEndHourConstant   = 23
	dayEndMinuteConstant = 59
	dayEndSecondConstant = 59
	headerLayoutConstant = "Mon Jan 02 2006"
)

// DayWindow is the local calendar day Offset days before a reference instant,
// from midnight through 23:59:59 inclusive.
type DayWindow struct {
	Offset int
	Start  time.Time
	End    time.Time
}

// NewDayWindow computes the window for offset calendar days before referenceInstant,
// in referenceInstant's location.
func NewDayWindow(referenceInstant time.Time, offset int) DayWindow {
	targetDay := referenceInstant.AddDate(0, 0, -offset)
	year, month, day := targetDay.Date()
	location := referenceInstant.Location()

	return DayWindow{
		Offset: offset,
		Start:  time.Date(year, month, day, 0, 0, 0, 0, location),
		End:    time.Date(year, month, day, dayEndHourConstant, dayEndMinuteConstant, dayEndSecondConstant, 0, location),
	}
}

// Contains reports whether instant falls inside the window.
func (window DayWindow) Contains(instant time.Time) bool {
	return !instant.Before(window.Start) && !instant.After(window.End)
}

// Label renders the window's calendar date for report headers, e.g. "Mon Oct 19 2026".
func (window DayWindow) Label() string {
	return window.Start.Format(headerLayoutConstant)
}
