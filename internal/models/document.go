package models

import (
	"math"
	"time"

	"trade-journal/pkg/utils"
)

// Document is the persisted shape of one user's journal.
type Document struct {
	Trades          []Trade       `json:"trades" yaml:"trades"`
	Goals           GoalSet       `json:"goals" yaml:"goals"`
	Achievements    []Achievement `json:"achievements" yaml:"achievements"`
	StartingCapital float64       `json:"startingCapital" yaml:"startingCapital"`
}

// NewDocument returns an empty document with the given starting capital.
func NewDocument(startingCapital float64) *Document {
	return &Document{
		Trades:          []Trade{},
		Achievements:    []Achievement{},
		StartingCapital: startingCapital,
	}
}

// Clone returns a deep copy of the document's slices.
func (d *Document) Clone() *Document {
	out := *d
	out.Trades = make([]Trade, len(d.Trades))
	for i, t := range d.Trades {
		out.Trades[i] = t.Clone()
	}
	out.Achievements = append([]Achievement{}, d.Achievements...)
	return &out
}

// Clone returns a copy of t that shares no pointers with it.
func (t Trade) Clone() Trade {
	if t.StopLoss != nil {
		v := *t.StopLoss
		t.StopLoss = &v
	}
	t.EntryLegs = cloneLegs(t.EntryLegs)
	t.ExitLegs = cloneLegs(t.ExitLegs)
	return t
}

func cloneLegs(legs []Leg) []Leg {
	if legs == nil {
		return nil
	}
	out := make([]Leg, len(legs))
	for i, l := range legs {
		if l.Price != nil {
			v := *l.Price
			l.Price = &v
		}
		if l.Quantity != nil {
			v := *l.Quantity
			l.Quantity = &v
		}
		out[i] = l
	}
	return out
}

// Normalize applies the document defaults in place: empty slices instead of
// nil, generated IDs for trades without one, the Unknown strategy label,
// zero for negative or non-finite goals and fees, and removal of
// achievements that do not name a valid period.
func Normalize(d *Document) {
	if d.Trades == nil {
		d.Trades = []Trade{}
	}
	seen := make(map[string]bool, len(d.Trades))
	for i := range d.Trades {
		t := &d.Trades[i]
		if t.ID == "" || seen[t.ID] {
			t.ID = utils.NewID()
		}
		seen[t.ID] = true
		t.StrategyLabel = t.Strategy()
		if !utils.IsFinite(t.Fees) {
			t.Fees = 0
		}
		if t.StopLoss != nil && !utils.IsFinite(*t.StopLoss) {
			t.StopLoss = nil
		}
	}

	for _, g := range Granularities {
		if v := d.Goals.Get(g); v < 0 || !utils.IsFinite(v) {
			d.Goals = d.Goals.With(g, 0)
		}
	}

	if !utils.IsFinite(d.StartingCapital) {
		d.StartingCapital = 0
	}

	achievements := make([]Achievement, 0, len(d.Achievements))
	keys := make(map[string]bool, len(d.Achievements))
	for _, a := range d.Achievements {
		if !a.Granularity.Valid() {
			continue
		}
		day, ok := ParseDay(a.ReferenceDate, time.UTC)
		if !ok {
			continue
		}
		a.ReferenceDate = day.Format(DateLayout)
		if math.IsNaN(a.GoalValue) {
			a.GoalValue = 0
		}
		if keys[a.Key()] {
			continue
		}
		keys[a.Key()] = true
		achievements = append(achievements, a)
	}
	d.Achievements = achievements
}

// FindTrade returns the index of the trade with id, or -1.
func (d *Document) FindTrade(id string) int {
	for i, t := range d.Trades {
		if t.ID == id {
			return i
		}
	}
	return -1
}
