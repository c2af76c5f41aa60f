package cli

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/journal"
	"trade-journal/internal/models"
	"trade-journal/pkg/utils"
)

// addTradeCommands adds trade recording and review commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "trade",
		Aliases: []string{"trades"},
		Short:   "Record and review trades",
	}

	cmd.AddCommand(newTradeAddCmd(app))
	cmd.AddCommand(newTradeEditCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeShowCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func addTradeFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "trade date (YYYY-MM-DD, today or yesterday)")
	cmd.Flags().String("time", "", "entry time (HH:MM)")
	cmd.Flags().String("symbol", "", "instrument symbol")
	cmd.Flags().StringP("direction", "d", "", "long or short")
	cmd.Flags().Float64P("qty", "q", 0, "quantity")
	cmd.Flags().Float64("entry", 0, "entry price")
	cmd.Flags().Float64("exit", 0, "exit price")
	cmd.Flags().Float64("stop", 0, "stop loss price")
	cmd.Flags().Float64("fees", 0, "fees and commissions")
	cmd.Flags().StringP("strategy", "s", "", "strategy label")
	cmd.Flags().String("mental", "", "mental state: disciplined, random or emotional")
	cmd.Flags().String("notes", "", "free-form notes")
	cmd.Flags().StringArray("entry-leg", nil, "entry fill as PRICE@QTY (repeatable)")
	cmd.Flags().StringArray("exit-leg", nil, "exit fill as PRICE@QTY (repeatable)")
}

// parseLeg parses PRICE@QTY.
func parseLeg(s string) (models.Leg, error) {
	price, qty, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok {
		return models.Leg{}, apperrors.NewValidationError("leg", s, "must be PRICE@QTY")
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return models.Leg{}, apperrors.NewValidationError("leg", s, "price is not a number")
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
	if err != nil {
		return models.Leg{}, apperrors.NewValidationError("leg", s, "quantity is not a number")
	}
	return models.NewLeg(p, q), nil
}

func parseLegs(values []string) ([]models.Leg, error) {
	var legs []models.Leg
	for _, v := range values {
		l, err := parseLeg(v)
		if err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, nil
}

// applyTradeFlags copies every flag the user set onto t.
func (app *App) applyTradeFlags(cmd *cobra.Command, t *models.Trade) error {
	f := cmd.Flags()

	if f.Changed("date") {
		raw, _ := f.GetString("date")
		d, err := app.parseDate(raw)
		if err != nil {
			return err
		}
		t.Date = d.Format(models.DateLayout)
	}
	if f.Changed("time") {
		t.Time, _ = f.GetString("time")
	}
	if f.Changed("symbol") {
		sym, _ := f.GetString("symbol")
		t.Symbol = strings.ToUpper(strings.TrimSpace(sym))
	}
	if f.Changed("direction") {
		raw, _ := f.GetString("direction")
		d, ok := models.ParseDirection(raw)
		if !ok {
			return apperrors.NewValidationError("direction", raw, "must be long or short")
		}
		t.Direction = d
	}
	if f.Changed("qty") {
		t.Quantity, _ = f.GetFloat64("qty")
	}
	if f.Changed("entry") {
		t.EntryPrice, _ = f.GetFloat64("entry")
	}
	if f.Changed("exit") {
		t.ExitPrice, _ = f.GetFloat64("exit")
	}
	if f.Changed("stop") {
		stop, _ := f.GetFloat64("stop")
		t.StopLoss = &stop
	}
	if f.Changed("fees") {
		t.Fees, _ = f.GetFloat64("fees")
	}
	if f.Changed("strategy") {
		t.StrategyLabel, _ = f.GetString("strategy")
	}
	if f.Changed("mental") {
		raw, _ := f.GetString("mental")
		ms, ok := models.ParseMentalState(raw)
		if !ok {
			return apperrors.NewValidationError("mental", raw, "must be disciplined, random or emotional")
		}
		t.MentalStateTag = ms
	}
	if f.Changed("notes") {
		t.Notes, _ = f.GetString("notes")
	}
	if f.Changed("entry-leg") {
		raw, _ := f.GetStringArray("entry-leg")
		legs, err := parseLegs(raw)
		if err != nil {
			return err
		}
		t.EntryLegs = legs
	}
	if f.Changed("exit-leg") {
		raw, _ := f.GetStringArray("exit-leg")
		legs, err := parseLegs(raw)
		if err != nil {
			return err
		}
		t.ExitLegs = legs
	}
	return nil
}

func newTradeAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a closed trade",
		Long: `Record a closed trade.

Prices can be given directly or as partial fills with --entry-leg and
--exit-leg; fills are averaged by quantity.`,
		Example: `  tradejournal trade add --symbol AAPL -d long -q 100 --entry 182.5 --exit 185.1 --stop 181
  tradejournal trade add --symbol ES -d short --entry-leg 5200@1 --entry-leg 5205@1 --exit 5190 -s fade`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			t := models.Trade{
				Date:       app.today().Format(models.DateLayout),
				Direction:  models.DirectionLong,
				Quantity:   math.NaN(),
				EntryPrice: math.NaN(),
				ExitPrice:  math.NaN(),
			}
			if err := app.applyTradeFlags(cmd, &t); err != nil {
				return err
			}
			t = analytics.ResolveLegs(t)
			if err := models.ValidateTrade(t); err != nil {
				return err
			}

			added, err := svc.AddTrade(cmd.Context(), t)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(added)
			}
			output.Success("✓ Trade %s recorded", added.Trade.ID)
			printTradeDetail(output, added)
			return nil
		},
	}
	addTradeFlags(cmd)
	return cmd
}

func newTradeEditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <trade-id>",
		Aliases: []string{"replace"},
		Short:   "Change fields of a recorded trade",
		Example: `  tradejournal trade edit 01HZX3 --exit 186.2 --fees 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			current, err := svc.Trade(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t := current.Trade.Clone()
			if err := app.applyTradeFlags(cmd, &t); err != nil {
				return err
			}
			t = analytics.ResolveLegs(t)
			if err := models.ValidateTrade(t); err != nil {
				return err
			}

			replaced, err := svc.ReplaceTrade(cmd.Context(), t)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(replaced)
			}
			output.Success("✓ Trade %s updated", replaced.Trade.ID)
			printTradeDetail(output, replaced)
			return nil
		},
	}
	addTradeFlags(cmd)
	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded trades",
		Example: `  tradejournal trade list --from 2024-05-01 --symbol AAPL
  tradejournal trade list --newest -n 10`,
		Args: cobra.NoArgs,
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

			strategy, _ := cmd.Flags().GetString("strategy")
			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")
			newest, _ := cmd.Flags().GetBool("newest")

			trades, err := svc.Trades(cmd.Context(), journal.TradeQuery{
				From:     rng.From,
				To:       rng.To,
				Strategy: strategy,
				Symbol:   symbol,
				Limit:    limit,
				Newest:   newest,
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No trades recorded for %s.", describeRange(rng))
				return nil
			}

			table := NewTable(output, "ID", "Date", "Symbol", "Side", "Qty", "Entry", "Exit", "P&L", "R", "Strategy")
			var total float64
			var multiLeg int
			for _, t := range trades {
				total += t.PnL()
				symbol := t.Trade.Symbol
				if t.Trade.HasLegs() {
					symbol += "*"
					multiLeg++
				}
				table.AddRow(
					shortID(t.Trade.ID),
					formatDateCell(t.Trade),
					symbol,
					string(t.Trade.Direction),
					formatQty(t.Trade.Quantity),
					formatPrice(t.Trade.EntryPrice),
					formatPrice(t.Trade.ExitPrice),
					output.PnL(t.PnL()),
					output.R(t.Metrics.RMultiple),
					utils.TruncateString(t.Trade.Strategy(), 16),
				)
			}
			table.Render()
			if multiLeg > 0 {
				output.Dim("* prices averaged over multiple fills")
			}
			output.Println()
			output.Printf("%d trades, net %s\n", len(trades), output.PnL(total))
			return nil
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().StringP("strategy", "s", "", "only this strategy")
	cmd.Flags().String("symbol", "", "only this symbol")
	cmd.Flags().IntP("limit", "n", 0, "show at most n trades")
	cmd.Flags().Bool("newest", false, "most recent first")
	return cmd
}

func newTradeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show one trade with its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			t, err := svc.Trade(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(t)
			}
			printTradeDetail(output, t)
			return nil
		},
	}
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <trade-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a trade",
		Long:    "Delete a trade. Goal achievements that no longer hold are withdrawn.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DeleteTrade(cmd.Context(), args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Trade %s deleted", args[0])
			return nil
		},
	}
}

func printTradeDetail(output *Output, t analytics.ScoredTrade) {
	tr := t.Trade
	output.Bold("Trade %s", tr.ID)
	output.Printf("  Date:        %s\n", formatDateCell(tr))
	output.Printf("  Symbol:      %s\n", dash(tr.Symbol))
	output.Printf("  Direction:   %s\n", tr.Direction)
	output.Printf("  Quantity:    %s\n", formatQty(tr.Quantity))
	output.Printf("  Entry:       %s\n", formatPrice(tr.EntryPrice))
	output.Printf("  Exit:        %s\n", formatPrice(tr.ExitPrice))
	if tr.StopLoss != nil {
		output.Printf("  Stop:        %s\n", formatPrice(*tr.StopLoss))
	}
	output.Printf("  Fees:        %s\n", output.Money(tr.Fees))
	output.Printf("  Strategy:    %s\n", tr.Strategy())
	if tr.MentalStateTag != "" {
		output.Printf("  Mental:      %s\n", tr.MentalStateTag)
	}
	if tr.HasLegs() {
		output.Printf("  Fills:       %d entry, %d exit\n", len(tr.EntryLegs), len(tr.ExitLegs))
	}
	output.Println()
	output.Printf("  P&L:         %s\n", output.PnL(t.Metrics.PnL))
	output.Printf("  Risk:        %s\n", output.Money(t.Metrics.TotalRisk))
	output.Printf("  R-Multiple:  %s\n", output.R(t.Metrics.RMultiple))
	output.Printf("  Risk/Reward: %s\n", t.Metrics.RiskReward)
	if tr.Notes != "" {
		output.Println()
		output.Dim("  %s", tr.Notes)
	}
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[len(id)-10:]
	}
	return id
}

func formatQty(q float64) string {
	if math.IsNaN(q) {
		return "-"
	}
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// parseMonth accepts 1-12 or YYYY-MM.
func parseMonth(s string, now time.Time) (int, time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Year(), now.Month(), nil
	}
	if t, err := time.Parse("2006-01", s); err == nil {
		return t.Year(), t.Month(), nil
	}
	if m, err := strconv.Atoi(s); err == nil && m >= 1 && m <= 12 {
		return now.Year(), time.Month(m), nil
	}
	return 0, 0, apperrors.NewValidationError("month", s, "must be 1-12 or YYYY-MM")
}
