package analytics

import (
	"time"

	"trade-journal/internal/models"
)

// DaySummary aggregates one calendar day.
type DaySummary struct {
	Day   int     `json:"day"`
	Date  string  `json:"date"`
	PnL   float64 `json:"pnl"`
	Count int     `json:"count"`
	Wins  int     `json:"wins"`
}

// WeekSummary aggregates one week clipped to the month it belongs to.
type WeekSummary struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	PnL     float64 `json:"pnl"`
	Count   int     `json:"count"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"winRate"`
}

// CalendarMonth is the per-day view of one month.
type CalendarMonth struct {
	Year        int           `json:"year"`
	Month       time.Month    `json:"month"`
	Days        []DaySummary  `json:"days"`
	Weeks       []WeekSummary `json:"weeks"`
	BestDay     *DaySummary   `json:"bestDay,omitempty"`
	WorstDay    *DaySummary   `json:"worstDay,omitempty"`
	BestWeek    *WeekSummary  `json:"bestWeek,omitempty"`
	ActiveDays  int           `json:"activeDays"`
	TotalPnL    float64       `json:"totalPnl"`
	AvgDailyPnL float64       `json:"avgDailyPnl"`
}

// DayMap indexes active days by day of month.
func (c CalendarMonth) DayMap() map[int]DaySummary {
	out := make(map[int]DaySummary, len(c.Days))
	for _, d := range c.Days {
		out[d.Day] = d
	}
	return out
}

// BuildCalendarMonth buckets trades into the days of year/month. Trades
// without a usable date, or outside the month, are ignored.
//
// Best and worst day ties go to the earlier day. Weeks follow r's week
// start and are clipped to the month; the best week is the one with the
// highest summed P/L among weeks that have trades.
func BuildCalendarMonth(trades []ScoredTrade, year int, month time.Month, r Resolver) CalendarMonth {
	loc := r.Loc()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	numDays := last.Day()

	perDay := make([]DaySummary, numDays+1)
	for d := 1; d <= numDays; d++ {
		perDay[d] = DaySummary{Day: d, Date: time.Date(year, month, d, 0, 0, 0, 0, loc).Format(models.DateLayout)}
	}

	for _, t := range trades {
		day, ok := t.Trade.Day(loc)
		if !ok || day.Year() != year || day.Month() != month {
			continue
		}
		s := &perDay[day.Day()]
		pnl := t.PnL()
		s.PnL += pnl
		s.Count++
		if pnl > 0 {
			s.Wins++
		}
	}

	cal := CalendarMonth{Year: year, Month: month, Days: []DaySummary{}}
	for d := 1; d <= numDays; d++ {
		if perDay[d].Count == 0 {
			continue
		}
		day := perDay[d]
		cal.Days = append(cal.Days, day)
		cal.TotalPnL += day.PnL
	}
	cal.ActiveDays = len(cal.Days)
	if cal.ActiveDays > 0 {
		cal.AvgDailyPnL = cal.TotalPnL / float64(cal.ActiveDays)
	}

	for i := range cal.Days {
		d := cal.Days[i]
		if cal.BestDay == nil || d.PnL > cal.BestDay.PnL {
			cal.BestDay = &d
		}
		if cal.WorstDay == nil || d.PnL < cal.WorstDay.PnL {
			cal.WorstDay = &d
		}
	}

	cal.Weeks = monthWeeks(perDay, first, last, r)
	for i := range cal.Weeks {
		w := cal.Weeks[i]
		if w.Count == 0 {
			continue
		}
		if cal.BestWeek == nil || w.PnL > cal.BestWeek.PnL {
			cal.BestWeek = &w
		}
	}
	return cal
}

func monthWeeks(perDay []DaySummary, first, last time.Time, r Resolver) []WeekSummary {
	var weeks []WeekSummary
	for ws := r.Bounds(models.GranularityWeek, first).Start; !ws.After(last); ws = ws.AddDate(0, 0, 7) {
		from, to := ws, ws.AddDate(0, 0, 6)
		if from.Before(first) {
			from = first
		}
		if to.After(last) {
			to = last
		}

		w := WeekSummary{Start: from.Format(models.DateLayout), End: to.Format(models.DateLayout)}
		for d := from.Day(); d <= to.Day(); d++ {
			w.PnL += perDay[d].PnL
			w.Count += perDay[d].Count
			w.Wins += perDay[d].Wins
		}
		if w.Count > 0 {
			w.WinRate = float64(w.Wins) / float64(w.Count) * 100
		}
		weeks = append(weeks, w)
	}
	return weeks
}

// MonthSummary is one month of a year overview, judged against the
// current monthly goal.
type MonthSummary struct {
	Month           time.Month `json:"month"`
	PnL             float64    `json:"pnl"`
	Count           int        `json:"count"`
	Wins            int        `json:"wins"`
	Goal            float64    `json:"goal"`
	ProgressPercent float64    `json:"progressPercent"`
	GoalMet         bool       `json:"goalMet"`
}

// YearOverview holds twelve month summaries for one year.
type YearOverview struct {
	Year     int            `json:"year"`
	Months   []MonthSummary `json:"months"`
	TotalPnL float64        `json:"totalPnl"`
	GoalsMet int            `json:"goalsMet"`
}

// BuildYearOverview summarises each month of year. Every month is compared
// against today's monthly goal, including months that had a different goal
// at the time.
func BuildYearOverview(trades []ScoredTrade, year int, goals models.GoalSet, loc *time.Location) YearOverview {
	if loc == nil {
		loc = time.Local
	}
	months := make([]MonthSummary, 12)
	for i := range months {
		months[i] = MonthSummary{Month: time.Month(i + 1), Goal: goals.Monthly}
	}

	for _, t := range trades {
		day, ok := t.Trade.Day(loc)
		if !ok || day.Year() != year {
			continue
		}
		m := &months[day.Month()-1]
		pnl := t.PnL()
		m.PnL += pnl
		m.Count++
		if pnl > 0 {
			m.Wins++
		}
	}

	ov := YearOverview{Year: year, Months: months}
	for i := range ov.Months {
		m := &ov.Months[i]
		m.ProgressPercent = progressPercent(m.PnL, m.Goal)
		m.GoalMet = goalMet(m.PnL, m.Goal)
		ov.TotalPnL += m.PnL
		if m.GoalMet {
			ov.GoalsMet++
		}
	}
	return ov
}
