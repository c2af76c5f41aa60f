package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
)

// output returns an Output using the journal currency.
func (app *App) output(cmd *cobra.Command) *Output {
	o := NewOutput(cmd)
	if app.Config != nil {
		o.WithCurrency(app.Config.Journal.CurrencySymbol)
	}
	return o
}

// today returns the command clock in the configured time zone.
func (app *App) today() time.Time {
	return app.Now().In(app.Config.Resolver().Loc())
}

// parseDate parses YYYY-MM-DD, or the words today and yesterday.
func (app *App) parseDate(s string) (time.Time, error) {
	loc := app.Config.Resolver().Loc()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		t := app.today()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	case "yesterday":
		t := app.today().AddDate(0, 0, -1)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
	}
	d, ok := models.ParseDay(s, loc)
	if !ok {
		return time.Time{}, apperrors.NewValidationError("date", s, "must be YYYY-MM-DD, today or yesterday")
	}
	return d, nil
}

// dateFlag reads an optional date flag. An unset flag returns the zero time.
func (app *App) dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return app.parseDate(raw)
}

// rangeFlags reads --from and --to.
func (app *App) rangeFlags(cmd *cobra.Command) (journal.Range, error) {
	from, err := app.dateFlag(cmd, "from")
	if err != nil {
		return journal.Range{}, err
	}
	to, err := app.dateFlag(cmd, "to")
	if err != nil {
		return journal.Range{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return journal.Range{}, apperrors.NewValidationError("to", to.Format(models.DateLayout), "must not be before --from")
	}
	return journal.Range{From: from, To: to}, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "last day to include (YYYY-MM-DD)")
}

// describeRange renders a range header such as "2024-05-01 to 2024-05-31".
func describeRange(r journal.Range) string {
	switch {
	case r.IsZero():
		return "all time"
	case r.From.IsZero():
		return "through " + r.To.Format(models.DateLayout)
	case r.To.IsZero():
		return "since " + r.From.Format(models.DateLayout)
	default:
		return r.From.Format(models.DateLayout) + " to " + r.To.Format(models.DateLayout)
	}
}

// formatPrice formats a price, showing a dash when it is missing.
func formatPrice(p float64) string {
	if math.IsNaN(p) {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// formatDateCell renders a trade date and optional clock time.
func formatDateCell(t models.Trade) string {
	if t.Date == "" {
		return "-"
	}
	if t.Time == "" {
		return t.Date
	}
	return t.Date + " " + t.Time
}

// progressBar draws a fixed-width bar for a 0-100 percentage.
func progressBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(float64(width) * pct / 100)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
