package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
)

// addStatsCommands adds performance review commands.
func addStatsCommands(rootCmd *cobra.Command, app *App) {
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Performance statistics",
	}
	stats.AddCommand(newStatsSummaryCmd(app))
	stats.AddCommand(newStatsByCmd(app))
	rootCmd.AddCommand(stats)

	rootCmd.AddCommand(newEquityCmd(app))
	rootCmd.AddCommand(newCalendarCmd(app))
}

func newStatsSummaryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Headline statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			rng, err := app.rangeFlags(cmd)
			if err != nil {
				return err
			}
			sum, err := svc.Summary(cmd.Context(), rng)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(sum)
			}

			output.Bold("Performance - %s", describeRange(rng))
			if sum.TotalTrades == 0 {
				output.Info("No trades in range.")
				return nil
			}
			output.Printf("  Trades:        %d (%d wins, %d losses, %d breakeven)\n", sum.TotalTrades, sum.Wins, sum.Losses, sum.Breakeven)
			output.Printf("  Win Rate:      %.1f%%\n", sum.WinRate)
			output.Printf("  Net P&L:       %s\n", output.PnL(sum.TotalPnL))
			output.Printf("  Gross:         %s / %s\n", output.Green(output.Money(sum.GrossProfit)), output.Red(output.Money(-sum.GrossLoss)))
			output.Printf("  Fees:          %s\n", output.Money(sum.TotalFees))
			output.Printf("  Profit Factor: %.2f\n", sum.ProfitFactor)
			output.Printf("  Expectancy:    %s\n", output.PnL(sum.Expectancy))
			output.Println()
			output.Printf("  Avg Win:       %s\n", output.PnL(sum.AvgWin))
			output.Printf("  Avg Loss:      %s\n", output.PnL(sum.AvgLoss))
			output.Printf("  Largest Win:   %s\n", output.PnL(sum.LargestWin))
			output.Printf("  Largest Loss:  %s\n", output.PnL(sum.LargestLoss))
			output.Printf("  Avg R:         %s\n", output.R(sum.AvgR))
			output.Printf("  Streaks:       %d wins, %d losses\n", sum.MaxConsecutiveWins, sum.MaxConsecutiveLosses)
			return nil
		},
	}
	addRangeFlags(cmd)
	return cmd
}

func newStatsByCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "by <strategy|direction|mental|weekday|hour|symbol>",
		Short: "Break performance down by a dimension",
		Long: `Group trades by one dimension and rank the groups.

Groups with fewer than --min-trades trades are listed but not ranked.`,
		Example: `  tradejournal stats by strategy --min-trades 5
  tradejournal stats by weekday --from 2024-01-01`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: dimensionNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			dim, err := analytics.ParseDimension(args[0])
			if err != nil {
				return err
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			rng, err := app.rangeFlags(cmd)
			if err != nil {
				return err
			}
			minTrades, _ := cmd.Flags().GetInt("min-trades")

			report, err := svc.Groups(cmd.Context(), dim, minTrades, rng)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(report)
			}

			output.Bold("By %s - %s", dim, describeRange(rng))
			if len(report.Groups) == 0 {
				output.Info("No trades in range.")
				return nil
			}

			table := NewTable(output, capitalize(string(dim)), "Trades", "W/L", "Win %", "Avg R", "P&L")
			for _, g := range report.Groups {
				key := g.Key
				if g.Count < report.MinTrades {
					key = output.DimText(key)
				}
				table.AddRow(
					key,
					strconv.Itoa(g.Count),
					fmt.Sprintf("%d/%d", g.Wins, g.Losses),
					fmt.Sprintf("%.1f", g.WinRate),
					output.R(g.AvgR),
					output.PnL(g.TotalPnL),
				)
			}
			table.Render()
			output.Println()

			if report.BestByProfit != nil {
				output.Printf("Most profitable:  %s (%s)\n", report.BestByProfit.Key, output.PnL(report.BestByProfit.TotalPnL))
			}
			if report.BestByWinRate != nil {
				output.Printf("Best win rate:    %s (%.1f%%)\n", report.BestByWinRate.Key, report.BestByWinRate.WinRate)
			}
			if report.BestByProfit == nil {
				output.Dim("No group has %d or more trades.", report.MinTrades)
			}
			return nil
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().Int("min-trades", 0, "minimum trades for a group to be ranked (default from config)")
	return cmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func dimensionNames() []string {
	names := make([]string, len(analytics.Dimensions))
	for i, d := range analytics.Dimensions {
		names[i] = string(d)
	}
	return names
}

func newEquityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Equity curve and drawdown",
		Long: `Replay trades in date order from the starting capital.

In absolute mode values are account equity; in incremental mode they are
cumulative P/L from zero. Ranged curves default to incremental.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			var mode analytics.EquityMode
			if raw, _ := cmd.Flags().GetString("mode"); raw != "" {
				m, ok := analytics.ParseEquityMode(raw)
				if !ok {
					return apperrors.NewValidationError("mode", raw, "must be absolute or incremental")
				}
				mode = m
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			rng, err := app.rangeFlags(cmd)
			if err != nil {
				return err
			}

			curve, err := svc.Equity(cmd.Context(), mode, rng)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(curve)
			}

			output.Bold("Equity (%s) - %s", curve.Mode, describeRange(rng))
			table := NewTable(output, "#", "Date", "P&L", "Value", "Return", "Drawdown")
			for _, p := range curve.Points {
				date := p.Date
				if p.Index == 0 {
					date = "start"
				}
				table.AddRow(
					strconv.Itoa(p.Index),
					dash(date),
					output.PnL(p.PnL),
					output.Money(p.Value),
					output.Percent(p.Percent),
					fmt.Sprintf("%s (%.1f%%)", output.Money(p.Drawdown), p.DrawdownPercent),
				)
			}
			table.Render()
			output.Println()
			if chart, _ := cmd.Flags().GetBool("chart"); chart {
				drawEquityCurve(output, curve)
				output.Println()
			}
			final := curve.Final()
			output.Printf("Starting capital: %s\n", output.Money(curve.StartingCapital))
			output.Printf("Final:            %s (%s)\n", output.Money(final.Value), output.Percent(final.Percent))
			output.Printf("Max drawdown:     %s (%.1f%%)\n", output.Money(curve.MaxDrawdown), curve.MaxDrawdownPercent)
			return nil
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().String("mode", "", "absolute or incremental")
	cmd.Flags().Bool("chart", false, "draw the curve as a text chart")
	return cmd
}

func drawEquityCurve(output *Output, curve analytics.EquityCurve) {
	if len(curve.Points) < 2 {
		output.Println("  Insufficient data for equity curve")
		return
	}

	// Find min/max for scaling
	minEquity := curve.Points[0].Value
	maxEquity := curve.Points[0].Value
	for _, p := range curve.Points {
		if p.Value < minEquity {
			minEquity = p.Value
		}
		if p.Value > maxEquity {
			maxEquity = p.Value
		}
	}

	padding := (maxEquity - minEquity) * 0.1
	if padding == 0 {
		padding = math.Max(math.Abs(maxEquity)*0.05, 1)
	}
	minEquity -= padding
	maxEquity += padding

	width := 40
	height := 8
	if n := len(curve.Points); n < width {
		width = n
	}

	chart := make([][]rune, height)
	for i := range chart {
		chart[i] = []rune(strings.Repeat(" ", width))
	}

	n := len(curve.Points)
	for i, p := range curve.Points {
		x := i * width / n
		y := int((p.Value - minEquity) / (maxEquity - minEquity) * float64(height-1))
		if y >= 0 && y < height && x >= 0 && x < width {
			chart[height-1-y][x] = '█'
		}
	}

	for i := 0; i < height; i++ {
		label := strings.Repeat(" ", 12)
		if i == 0 {
			label = fmt.Sprintf("%12s", output.Money(maxEquity))
		} else if i == height-1 {
			label = fmt.Sprintf("%12s", output.Money(minEquity))
		}
		output.Printf("  %s │%s\n", label, string(chart[i]))
	}
	output.Printf("  %s └%s\n", strings.Repeat(" ", 12), strings.Repeat("─", width))
}

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Monthly P&L calendar",
		Example: `  tradejournal calendar
  tradejournal calendar --month 2024-05
  tradejournal calendar year 2024`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			raw, _ := cmd.Flags().GetString("month")
			year, month, err := parseMonth(raw, app.today())
			if err != nil {
				return err
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			cal, err := svc.Calendar(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(cal)
			}
			printCalendar(output, cal, app.Config.WeekStart())
			return nil
		},
	}
	cmd.Flags().String("month", "", "month as YYYY-MM or 1-12 (default current)")
	cmd.AddCommand(newCalendarYearCmd(app))
	return cmd
}

func printCalendar(output *Output, cal analytics.CalendarMonth, weekStart time.Weekday) {
	first := time.Date(cal.Year, cal.Month, 1, 0, 0, 0, 0, time.UTC)
	output.Bold("%s %d", cal.Month, cal.Year)

	var header []string
	for i := 0; i < 7; i++ {
		header = append(header, fmt.Sprintf("%-5s", ((weekStart + time.Weekday(i)) % 7).String()[:3]))
	}
	output.Println(strings.Join(header, " "))

	days := cal.DayMap()
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	last := first.AddDate(0, 1, -1).Day()
	cells := make([]string, 0, 7)
	for i := 0; i < offset; i++ {
		cells = append(cells, "     ")
	}
	for d := 1; d <= last; d++ {
		cell := fmt.Sprintf("%-5d", d)
		if s, ok := days[d]; ok {
			switch {
			case s.PnL > 0:
				cell = output.Green(cell)
			case s.PnL < 0:
				cell = output.Red(cell)
			default:
				cell = output.Yellow(cell)
			}
		} else {
			cell = output.DimText(cell)
		}
		cells = append(cells, cell)
		if len(cells) == 7 {
			output.Println(strings.Join(cells, " "))
			cells = cells[:0]
		}
	}
	if len(cells) > 0 {
		output.Println(strings.Join(cells, " "))
	}
	output.Println()

	if cal.ActiveDays == 0 {
		output.Info("No trades this month.")
		return
	}

	table := NewTable(output, "Week", "Trades", "Win %", "P&L")
	for _, w := range cal.Weeks {
		table.AddRow(w.Start+" - "+w.End, strconv.Itoa(w.Count), fmt.Sprintf("%.1f", w.WinRate), output.PnL(w.PnL))
	}
	table.Render()
	output.Println()

	output.Printf("Net:        %s over %d trading days (avg %s)\n", output.PnL(cal.TotalPnL), cal.ActiveDays, output.PnL(cal.AvgDailyPnL))
	if cal.BestDay != nil {
		output.Printf("Best day:   %s %s\n", cal.BestDay.Date, output.PnL(cal.BestDay.PnL))
	}
	if cal.WorstDay != nil {
		output.Printf("Worst day:  %s %s\n", cal.WorstDay.Date, output.PnL(cal.WorstDay.PnL))
	}
	if cal.BestWeek != nil {
		output.Printf("Best week:  %s %s\n", cal.BestWeek.Start, output.PnL(cal.BestWeek.PnL))
	}
}

func newCalendarYearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "year [yyyy]",
		Short: "Twelve-month overview against the monthly goal",
		Long: `Summarise each month of a year.

Every month is compared against the current monthly goal, including months
that were traded under a different goal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			year := app.today().Year()
			if len(args) == 1 {
				y, err := strconv.Atoi(args[0])
				if err != nil {
					return apperrors.NewValidationError("year", args[0], "must be a number")
				}
				year = y
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			ov, err := svc.YearOverview(cmd.Context(), year)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(ov)
			}

			output.Bold("%d overview", ov.Year)
			table := NewTable(output, "Month", "Trades", "Wins", "P&L", "Goal")
			for _, m := range ov.Months {
				goal := output.DimText("-")
				if m.Goal > 0 {
					goal = fmt.Sprintf("%s %.0f%%", progressBar(m.ProgressPercent, 10), m.ProgressPercent)
					if m.GoalMet {
						goal = output.Green(goal)
					}
				}
				table.AddRow(m.Month.String()[:3], strconv.Itoa(m.Count), strconv.Itoa(m.Wins), output.PnL(m.PnL), goal)
			}
			table.Render()
			output.Println()
			output.Printf("Net: %s, monthly goal met %d of 12 months\n", output.PnL(ov.TotalPnL), ov.GoalsMet)
			return nil
		},
	}
}
