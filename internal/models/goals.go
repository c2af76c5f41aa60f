package models

import (
	"time"
)

// GoalSet maps each granularity to a non-negative profit target.
// A zero target means no goal is set for that period.
type GoalSet struct {
	Daily   float64 `json:"daily" yaml:"daily"`
	Weekly  float64 `json:"weekly" yaml:"weekly"`
	Monthly float64 `json:"monthly" yaml:"monthly"`
	Yearly  float64 `json:"yearly" yaml:"yearly"`
}

// Get returns the target for g.
func (gs GoalSet) Get(g Granularity) float64 {
	switch g {
	case GranularityDay:
		return gs.Daily
	case GranularityWeek:
		return gs.Weekly
	case GranularityMonth:
		return gs.Monthly
	case GranularityYear:
		return gs.Yearly
	default:
		return 0
	}
}

// With returns a copy of gs with the target for g replaced.
func (gs GoalSet) With(g Granularity, amount float64) GoalSet {
	switch g {
	case GranularityDay:
		gs.Daily = amount
	case GranularityWeek:
		gs.Weekly = amount
	case GranularityMonth:
		gs.Monthly = amount
	case GranularityYear:
		gs.Yearly = amount
	}
	return gs
}

// Achievement records that a period's net profit met its goal.
// It stays in the set only while the period still meets the current goal.
type Achievement struct {
	Granularity Granularity `json:"granularity" yaml:"granularity"`
	// ReferenceDate is the first day of the achieved period (YYYY-MM-DD).
	ReferenceDate string    `json:"referenceDate" yaml:"referenceDate"`
	GoalValue     float64   `json:"goalValueAtCreation" yaml:"goalValueAtCreation"`
	AchievedAt    time.Time `json:"achievedAt,omitempty" yaml:"achievedAt,omitempty"`
}

// Key identifies the period an achievement belongs to.
func (a Achievement) Key() string {
	return string(a.Granularity) + "/" + a.ReferenceDate
}
