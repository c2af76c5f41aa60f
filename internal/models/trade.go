package models

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in trade records.
const DateLayout = "2006-01-02"

// Leg is one partial fill of a multi-leg entry or exit.
// Either field may be missing; such legs are ignored when averaging.
type Leg struct {
	Price    *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Quantity *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
}

// NewLeg returns a leg with both fields present.
func NewLeg(price, qty float64) Leg {
	return Leg{Price: &price, Quantity: &qty}
}

// Trade represents one closed or scored position.
//
// Prices and quantity are NaN when the stored value was missing or unparsable;
// such trades contribute zero to every numeric aggregate.
type Trade struct {
	ID             string      `json:"id" yaml:"id"`
	Date           string      `json:"date" yaml:"date"`
	Time           string      `json:"time,omitempty" yaml:"time,omitempty"`
	Direction      Direction   `json:"direction" yaml:"direction"`
	Symbol         string      `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Quantity       float64     `json:"quantity" yaml:"quantity"`
	EntryPrice     float64     `json:"entryPrice" yaml:"entryPrice"`
	ExitPrice      float64     `json:"exitPrice" yaml:"exitPrice"`
	StopLoss       *float64    `json:"stopLoss,omitempty" yaml:"stopLoss,omitempty"`
	Fees           float64     `json:"fees" yaml:"fees"`
	EntryLegs      []Leg       `json:"entryLegs,omitempty" yaml:"entryLegs,omitempty"`
	ExitLegs       []Leg       `json:"exitLegs,omitempty" yaml:"exitLegs,omitempty"`
	StrategyLabel  string      `json:"strategyLabel" yaml:"strategyLabel"`
	MentalStateTag MentalState `json:"mentalStateTag,omitempty" yaml:"mentalStateTag,omitempty"`
	Notes          string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Day parses the trade date as a local calendar day in loc.
// It accepts YYYY-MM-DD and RFC 3339 timestamps (whose date part is used).
func (t Trade) Day(loc *time.Location) (time.Time, bool) {
	return ParseDay(t.Date, loc)
}

// ParseDay parses a calendar date at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// ClockTime returns the trade's hour and minute when Time is set and valid.
func (t Trade) ClockTime() (hour, minute int, ok bool) {
	return ParseClock(t.Time)
}

// ParseClock parses "H:MM", "HH:MM" or "HH:MM:SS".
func ParseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, 0, false
		}
	}
	return h, m, true
}

// Instant combines date and time. A missing or invalid time resolves to the
// start of the day; ok is false only when the date itself is unusable.
func (t Trade) Instant(loc *time.Location) (time.Time, bool) {
	day, ok := t.Day(loc)
	if !ok {
		return time.Time{}, false
	}
	if h, m, ok := t.ClockTime(); ok {
		return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), true
	}
	return day, true
}

// Strategy returns the strategy label, or UnknownLabel when it is blank.
func (t Trade) Strategy() string {
	if s := strings.TrimSpace(t.StrategyLabel); s != "" {
		return s
	}
	return UnknownLabel
}

// HasLegs reports whether multi-leg entry or exit data is attached.
func (t Trade) HasLegs() bool {
	return len(t.EntryLegs) > 0 || len(t.ExitLegs) > 0
}
