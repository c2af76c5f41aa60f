package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"trade-journal/internal/analytics"
	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
	"trade-journal/internal/store"
)

// addGoalCommands adds goal, achievement and capital commands.
func addGoalCommands(rootCmd *cobra.Command, app *App) {
	goal := &cobra.Command{
		Use:     "goal",
		Aliases: []string{"goals"},
		Short:   "Profit goals and progress",
	}
	goal.AddCommand(newGoalSetCmd(app))
	goal.AddCommand(newGoalShowCmd(app))
	rootCmd.AddCommand(goal)

	rootCmd.AddCommand(newAchievementsCmd(app))

	capital := &cobra.Command{
		Use:   "capital",
		Short: "Starting capital for equity curves",
	}
	capital.AddCommand(newCapitalSetCmd(app), newCapitalShowCmd(app))
	rootCmd.AddCommand(capital)
}

func newGoalSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <day|week|month|year> <amount>",
		Short: "Set a profit goal",
		Long:  "Set the net profit target for a period length. An amount of 0 clears the goal.",
		Example: `  tradejournal goal set day 500
  tradejournal goal set monthly 10000`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			g, ok := models.ParseGranularity(args[0])
			if !ok {
				return apperrors.Wrapf(apperrors.ErrUnknownGranularity, "%q", args[0])
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return apperrors.NewValidationError("amount", args[1], "must be a number")
			}

			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			goals, err := svc.SetGoal(cmd.Context(), g, amount)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(goals)
			}
			if amount == 0 {
				output.Success("✓ %s goal cleared", g.GoalKey())
			} else {
				output.Success("✓ %s goal set to %s", g.GoalKey(), output.Money(amount))
			}
			return nil
		},
	}
}

func newGoalShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [day|week|month|year]",
		Short: "Show progress toward goals",
		Long:  "Show progress toward each goal for the periods containing --date (default today).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			ref := app.today()
			if d, err := app.dateFlag(cmd, "date"); err != nil {
				return err
			} else if !d.IsZero() {
				ref = d
			}

			granularities := models.Granularities
			if len(args) == 1 {
				g, ok := models.ParseGranularity(args[0])
				if !ok {
					return apperrors.Wrapf(apperrors.ErrUnknownGranularity, "%q", args[0])
				}
				granularities = []models.Granularity{g}
			}

			all, err := svc.AllProgress(cmd.Context(), ref)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				if len(granularities) == 1 {
					return output.JSON(all[granularities[0]])
				}
				return output.JSON(all)
			}

			for _, g := range granularities {
				printProgress(output, g, all[g])
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "reference date (YYYY-MM-DD)")
	return cmd
}

func printProgress(output *Output, g models.Granularity, p analytics.Progress) {
	output.Bold("%s goal - period from %s", g.GoalKey(), p.ReferenceDate)
	if p.Goal <= 0 {
		output.Dim("  No goal set. Net so far: %s", output.PnL(p.NetProfit))
		output.Println()
		return
	}
	output.Printf("  %s %.0f%%\n", progressBar(p.ProgressPercent, 30), p.ProgressPercent)
	output.Printf("  Net:       %s of %s (%d trades)\n", output.PnL(p.NetProfit), output.Money(p.Goal), p.Trades)
	output.Printf("  Gross:     %s / %s\n", output.Green(output.Money(p.GrossProfit)), output.Red(output.Money(-p.GrossLoss)))
	if p.IsCompleted {
		output.Success("  ✓ Goal reached")
	} else {
		output.Printf("  Remaining: %s\n", output.Money(p.Remaining))
	}
	output.Println()
}

func newAchievementsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "List goal achievements",
		Long: `List the goal periods whose target was met.

Achievements are checked against the current trades and goals each time they
are read; periods that no longer meet their goal are withdrawn. With
--history, the sqlite backend's record/withdraw audit trail is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			if history, _ := cmd.Flags().GetBool("history"); history {
				limit, _ := cmd.Flags().GetInt("limit")
				events, ok, err := svc.AchievementHistory(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if !ok {
					output.Warning("The %s backend keeps no achievement history.", app.Config.Storage.Backend)
					return nil
				}
				if output.IsJSON() {
					return output.JSON(events)
				}
				table := NewTable(output, "When", "Action", "Period", "Start", "Goal")
				for _, ev := range events {
					action := output.Green(ev.Action)
					if ev.Action != store.ActionRecorded {
						action = output.Red(ev.Action)
					}
					table.AddRow(ev.CreatedAt.Format("2006-01-02 15:04"), action, ev.Granularity.GoalKey(), ev.ReferenceDate, output.Money(ev.GoalValue))
				}
				table.Render()
				return nil
			}

			list, err := svc.Achievements(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(list)
			}
			if len(list) == 0 {
				output.Info("No goals achieved yet.")
				return nil
			}
			table := NewTable(output, "Period", "Start", "Goal", "Achieved")
			for _, a := range list {
				table.AddRow(a.Granularity.GoalKey(), a.ReferenceDate, output.Money(a.GoalValue), a.AchievedAt.Format("2006-01-02 15:04"))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Bool("history", false, "show the audit trail instead")
	cmd.Flags().IntP("limit", "n", 50, "history entries to show")
	return cmd
}

func newCapitalSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "set <amount>",
		Short:   "Set the starting capital",
		Example: `  tradejournal capital set 25000`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return apperrors.NewValidationError("amount", args[0], "must be a number")
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.SetStartingCapital(cmd.Context(), amount); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]float64{"startingCapital": amount})
			}
			output.Success("✓ Starting capital set to %s", output.Money(amount))
			return nil
		},
	}
}

func newCapitalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the starting capital",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			amount, err := svc.StartingCapital(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]float64{"startingCapital": amount})
			}
			output.Printf("Starting capital: %s\n", output.Money(amount))
			return nil
		},
	}
}
