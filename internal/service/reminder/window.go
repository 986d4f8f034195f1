package reminder

import (
	"time"

	"github.com/nkiryanov/pacta/internal/models"
)

// DayWindow returns the civil day of now in loc as an inclusive range of instants
//
// Day boundaries are built from the civil date fields, so days shortened or
// extended by a DST switch get their real length.
func DayWindow(now time.Time, loc *time.Location) models.Window {
	y, m, d := now.In(loc).Date()

	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	return models.Window{
		Start: start,
		End:   next.Add(-time.Nanosecond),
	}
}
