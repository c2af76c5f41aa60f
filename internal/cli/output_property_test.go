package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Colored text must occupy the same table width as the plain text.
func TestPropertyVisibleLenIgnoresColor(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	o := &Output{colorEnabled: true, currency: "$"}
	attrs := []color.Attribute{color.FgGreen, color.FgRed, color.Bold, color.Faint}

	properties.Property("visibleLen(paint(s)) == visibleLen(s)", prop.ForAll(
		func(s string, i int) bool {
			return visibleLen(o.paint(attrs[i], s)) == len([]rune(s))
		},
		gen.AlphaString(),
		gen.IntRange(0, len(attrs)-1),
	))

	properties.TestingRun(t)
}

func TestPropertyProgressBarWidth(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("bar is always width runes wide", prop.ForAll(
		func(pct float64, width int) bool {
			return len([]rune(progressBar(pct, width))) == width
		},
		gen.Float64Range(-50, 250),
		gen.IntRange(1, 60),
	))

	properties.Property("filled share never exceeds the percentage", prop.ForAll(
		func(pct float64) bool {
			filled := strings.Count(progressBar(pct, 20), "█")
			return float64(filled) <= pct/100*20+1e-9 || pct > 100
		},
		gen.Float64Range(0, 150),
	))

	properties.TestingRun(t)
}

func TestPropertyParseLegRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("PRICE@QTY parses back to the same numbers", prop.ForAll(
		func(price, qty float64) bool {
			l, err := parseLeg(fmt.Sprintf("%g@%g", price, qty))
			if err != nil {
				return false
			}
			return *l.Price == price && *l.Quantity == qty
		},
		gen.Float64Range(0.01, 1e6),
		gen.Float64Range(0.01, 1e4),
	))

	properties.TestingRun(t)
}

func TestTableAlignsColoredCells(t *testing.T) {
	var b strings.Builder
	o := &Output{writer: &b, colorEnabled: true, currency: "$"}
	table := NewTable(o, "Key", "P&L")
	table.AddRow("a", o.PnL(10))
	table.AddRow("longer", o.PnL(-5))
	table.Render()

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), b.String())
	}
	col := strings.Index(ansiPattern.ReplaceAllString(lines[0], ""), "P&L")
	for _, line := range lines[2:] {
		plain := ansiPattern.ReplaceAllString(line, "")
		if idx := strings.IndexAny(plain, "+-"); idx != col {
			t.Errorf("P&L column at %d, want %d: %q", idx, col, plain)
		}
	}
}
