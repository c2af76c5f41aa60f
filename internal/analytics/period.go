package analytics

import (
	"fmt"
	"strings"
	"time"

	"trade-journal/internal/models"
)

// WeekdayKeys are the lowercase English weekday names, indexed by time.Weekday.
var WeekdayKeys = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Period is an inclusive [Start, End] span of local time.
type Period struct {
	Granularity models.Granularity `json:"granularity"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
}

// Key is the period's start date in YYYY-MM-DD form.
func (p Period) Key() string {
	return p.Start.Format(models.DateLayout)
}

// Contains reports whether t lies within the period, endpoints included.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Resolver maps reference dates to period bounds under a week-start
// convention and a time zone.
type Resolver struct {
	WeekStart time.Weekday
	Location  *time.Location
}

// NewResolver creates a resolver. A nil location means time.Local.
func NewResolver(weekStart time.Weekday, loc *time.Location) Resolver {
	return Resolver{WeekStart: weekStart, Location: loc}
}

// Loc returns the resolver's time zone.
func (r Resolver) Loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// Bounds returns the period of granularity g containing ref. The end is the
// last millisecond of the final day. Unknown granularities resolve as days.
func (r Resolver) Bounds(g models.Granularity, ref time.Time) Period {
	loc := r.Loc()
	ref = ref.In(loc)
	y, m, d := ref.Date()

	var start, last time.Time
	switch g {
	case models.GranularityWeek:
		offset := (int(ref.Weekday()) - int(r.WeekStart) + 7) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
		last = time.Date(y, m, d-offset+6, 0, 0, 0, 0, loc)
	case models.GranularityMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		last = time.Date(y, m+1, 0, 0, 0, 0, 0, loc)
	case models.GranularityYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		last = time.Date(y, time.December, 31, 0, 0, 0, 0, loc)
	default:
		g = models.GranularityDay
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		last = start
	}
	return Period{Granularity: g, Start: start, End: endOfDay(last)}
}

// Recorded returns the period an achievement dated ref names. A recorded
// week is the seven days beginning on ref, whatever the current week start;
// other granularities resolve as Bounds does.
func (r Resolver) Recorded(g models.Granularity, ref time.Time) Period {
	if g != models.GranularityWeek {
		return r.Bounds(g, ref)
	}
	loc := r.Loc()
	y, m, d := ref.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return Period{
		Granularity: g,
		Start:       start,
		End:         endOfDay(time.Date(y, m, d+6, 0, 0, 0, 0, loc)),
	}
}

func endOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), day.Location())
}

// DayOfWeekKey returns the lowercase weekday name of date.
func DayOfWeekKey(date time.Time) string {
	return WeekdayKeys[date.Weekday()]
}

// HourBucket labels a clock time by its hour, e.g. "9:00–10:00".
// Missing or malformed times yield models.UnknownLabel.
func HourBucket(clock string) string {
	if strings.TrimSpace(clock) == "" {
		return models.UnknownLabel
	}
	h, _, ok := models.ParseClock(clock)
	if !ok {
		return models.UnknownLabel
	}
	return fmt.Sprintf("%d:00–%d:00", h, h+1)
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return time.Sunday, false
	}
	for i, name := range WeekdayKeys {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}
