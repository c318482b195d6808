package schedule

import "time"

// ActiveHours restricts proactive dispatch to a daily window of local
// hours. The window is half-open [Start, End): with Start=8 and End=22,
// dispatch is allowed from 08:00:00 through 21:59:59. Windows may wrap
// midnight (Start=22, End=6). Start == End means the window is empty
// and dispatch never happens.
type ActiveHours struct {
	Start int
	End   int
	Loc   *time.Location
}

// Contains reports whether t falls inside the active window
func (h ActiveHours) Contains(t time.Time) bool {
	loc := h.Loc
	if loc == nil {
		loc = time.Local
	}
	hour := t.In(loc).Hour()

	if h.Start == h.End {
		return false
	}
	if h.Start < h.End {
		return hour >= h.Start && hour < h.End
	}
	// wraps midnight
	return hour >= h.Start || hour < h.End
}
