package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// flexFloat decodes a JSON number, a numeric string, or null.
// Anything else, and any non-finite value, decodes as unset.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	*f = flexFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = flexFloat{value: v, set: true}
	return nil
}

func (f flexFloat) or(def float64) float64 {
	if f.set {
		return f.value
	}
	return def
}

func (f flexFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// flexString decodes a JSON string or number; anything else decodes as "".
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	*s = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err == nil {
			*s = flexString(strings.TrimSpace(str))
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*s = flexString(b)
	}
	return nil
}

type legWire struct {
	Price    flexFloat `json:"price"`
	Quantity flexFloat `json:"quantity"`
}

type tradeWire struct {
	ID             flexString      `json:"id"`
	Date           flexString      `json:"date"`
	Time           flexString      `json:"time"`
	Direction      flexString      `json:"direction"`
	Symbol         flexString      `json:"symbol"`
	Quantity       flexFloat       `json:"quantity"`
	EntryPrice     flexFloat       `json:"entryPrice"`
	ExitPrice      flexFloat       `json:"exitPrice"`
	StopLoss       flexFloat       `json:"stopLoss"`
	Fees           flexFloat       `json:"fees"`
	EntryLegs      json.RawMessage `json:"entryLegs"`
	ExitLegs       json.RawMessage `json:"exitLegs"`
	StrategyLabel  flexString      `json:"strategyLabel"`
	Strategy       flexString      `json:"strategy"`
	MentalStateTag flexString      `json:"mentalStateTag"`
	Notes          flexString      `json:"notes"`
}

// UnmarshalJSON decodes a trade without failing on malformed fields.
// Missing or unparsable quantity and prices become NaN, fees become 0,
// and an unusable stop loss is treated as absent.
func (t *Trade) UnmarshalJSON(b []byte) error {
	var w tradeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	nan := math.NaN()
	*t = Trade{
		ID:         string(w.ID),
		Date:       string(w.Date),
		Time:       string(w.Time),
		Symbol:     string(w.Symbol),
		Quantity:   w.Quantity.or(nan),
		EntryPrice: w.EntryPrice.or(nan),
		ExitPrice:  w.ExitPrice.or(nan),
		StopLoss:   w.StopLoss.ptr(),
		Fees:       w.Fees.or(0),
		EntryLegs:  decodeLegs(w.EntryLegs),
		ExitLegs:   decodeLegs(w.ExitLegs),
		Notes:      string(w.Notes),
	}
	if d, ok := ParseDirection(string(w.Direction)); ok {
		t.Direction = d
	}
	if ms, ok := ParseMentalState(string(w.MentalStateTag)); ok {
		t.MentalStateTag = ms
	}
	t.StrategyLabel = string(w.StrategyLabel)
	if t.StrategyLabel == "" {
		t.StrategyLabel = string(w.Strategy)
	}
	return nil
}

func decodeLegs(raw json.RawMessage) []Leg {
	if len(raw) == 0 {
		return nil
	}
	var wires []legWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil
	}
	legs := make([]Leg, 0, len(wires))
	for _, w := range wires {
		legs = append(legs, Leg{Price: w.Price.ptr(), Quantity: w.Quantity.ptr()})
	}
	return legs
}

// MarshalJSON writes non-finite numbers as null.
func (t Trade) MarshalJSON() ([]byte, error) {
	type alias Trade
	return json.Marshal(struct {
		alias
		Quantity   *float64 `json:"quantity"`
		EntryPrice *float64 `json:"entryPrice"`
		ExitPrice  *float64 `json:"exitPrice"`
		StopLoss   *float64 `json:"stopLoss,omitempty"`
	}{
		alias:      alias(t),
		Quantity:   finitePtr(t.Quantity),
		EntryPrice: finitePtr(t.EntryPrice),
		ExitPrice:  finitePtr(t.ExitPrice),
		StopLoss:   finiteDeref(t.StopLoss),
	})
}

// MarshalJSON writes non-finite leg values as null.
func (l Leg) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Price    *float64 `json:"price"`
		Quantity *float64 `json:"quantity"`
	}{finiteDeref(l.Price), finiteDeref(l.Quantity)})
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func finiteDeref(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return finitePtr(*p)
}

type achievementWire struct {
	Granularity   flexString `json:"granularity"`
	ReferenceDate flexString `json:"referenceDate"`
	GoalValue     flexFloat  `json:"goalValueAtCreation"`
	AchievedAt    flexString `json:"achievedAt"`
}

type documentWire struct {
	Trades          []json.RawMessage    `json:"trades"`
	Goals           map[string]flexFloat `json:"goals"`
	Achievements    []achievementWire    `json:"achievements"`
	StartingCapital flexFloat            `json:"startingCapital"`
}

// UnmarshalJSON decodes a journal document. Elements that cannot be decoded
// are skipped instead of failing the whole document.
func (d *Document) UnmarshalJSON(b []byte) error {
	var w documentWire
	if err := json.Unmarshal(b, &w); err != nil {
		// Retry field by field so one malformed section does not lose the others.
		var sections map[string]json.RawMessage
		if err2 := json.Unmarshal(b, &sections); err2 != nil {
			return err
		}
		w = documentWire{}
		_ = json.Unmarshal(sections["trades"], &w.Trades)
		_ = json.Unmarshal(sections["goals"], &w.Goals)
		_ = json.Unmarshal(sections["achievements"], &w.Achievements)
		_ = json.Unmarshal(sections["startingCapital"], &w.StartingCapital)
	}

	*d = Document{StartingCapital: w.StartingCapital.or(0)}

	for _, raw := range w.Trades {
		var t Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		d.Trades = append(d.Trades, t)
	}

	for key, v := range w.Goals {
		if g, ok := ParseGranularity(key); ok {
			d.Goals = d.Goals.With(g, v.or(0))
		}
	}

	for _, aw := range w.Achievements {
		a := Achievement{
			ReferenceDate: string(aw.ReferenceDate),
			GoalValue:     aw.GoalValue.or(0),
		}
		if g, ok := ParseGranularity(string(aw.Granularity)); ok {
			a.Granularity = g
		}
		if ts, err := time.Parse(time.RFC3339, string(aw.AchievedAt)); err == nil {
			a.AchievedAt = ts
		}
		d.Achievements = append(d.Achievements, a)
	}
	return nil
}
