// Package models provides domain models for the trading journal.
package models

import (
	"strings"
)

// UnknownLabel is the bucket for missing or unparsable grouping keys.
const UnknownLabel = "Unknown"

// Direction represents the side of a trade.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// ParseDirection accepts long/short and buy/sell in any case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return DirectionLong, true
	case "short", "sell":
		return DirectionShort, true
	default:
		return "", false
	}
}

// MentalState is the optional self-assessment tag attached to a trade.
type MentalState string

const (
	MentalDisciplined MentalState = "disciplined"
	MentalRandom      MentalState = "random"
	MentalEmotional   MentalState = "emotional"
)

// ParseMentalState parses a mental state tag. The empty string is valid and means untagged.
func ParseMentalState(s string) (MentalState, bool) {
	switch MentalState(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", true
	case MentalDisciplined:
		return MentalDisciplined, true
	case MentalRandom:
		return MentalRandom, true
	case MentalEmotional:
		return MentalEmotional, true
	default:
		return "", false
	}
}

// Granularity is the length of a goal period.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// Granularities lists every granularity from shortest to longest.
var Granularities = []Granularity{GranularityDay, GranularityWeek, GranularityMonth, GranularityYear}

// ParseGranularity accepts both the period name and its goal key (day or daily).
func ParseGranularity(s string) (Granularity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily", "d":
		return GranularityDay, true
	case "week", "weekly", "w":
		return GranularityWeek, true
	case "month", "monthly", "m":
		return GranularityMonth, true
	case "year", "yearly", "y":
		return GranularityYear, true
	default:
		return "", false
	}
}

// GoalKey returns the key used for this granularity in a GoalSet document.
func (g Granularity) GoalKey() string {
	switch g {
	case GranularityDay:
		return "daily"
	case GranularityWeek:
		return "weekly"
	case GranularityMonth:
		return "monthly"
	case GranularityYear:
		return "yearly"
	default:
		return ""
	}
}

// Valid reports whether g is one of the known granularities.
func (g Granularity) Valid() bool {
	return g.GoalKey() != ""
}
