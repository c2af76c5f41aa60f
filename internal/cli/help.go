package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds workflow guidance commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
}

type workflow struct {
	title    string
	commands []string
}

var workflows = []workflow{
	{
		title: "Record the Day's Trades",
		commands: []string{
			"tradejournal trade add --symbol AAPL -d long -q 100 --entry 182.5 --exit 185.1 --stop 181",
			"tradejournal trade add --symbol ES -d short --entry-leg 5200@1 --entry-leg 5205@1 --exit 5190",
			"tradejournal trade list --from today   # Review what was logged",
		},
	},
	{
		title: "Track Goals",
		commands: []string{
			"tradejournal goal set day 500          # Daily net profit target",
			"tradejournal goal set month 8000",
			"tradejournal goal show                 # Progress for every period",
			"tradejournal achievements              # Periods that met their goal",
		},
	},
	{
		title: "Weekly Review",
		commands: []string{
			"tradejournal stats summary --from 2024-05-06 --to 2024-05-10",
			"tradejournal stats by strategy --min-trades 3",
			"tradejournal stats by mental           # Discipline versus results",
			"tradejournal calendar                  # This month day by day",
		},
	},
	{
		title: "Account Growth",
		commands: []string{
			"tradejournal capital set 25000         # Equity curve starting point",
			"tradejournal equity --chart            # Curve with drawdown",
			"tradejournal calendar year             # Months against the monthly goal",
		},
	},
	{
		title: "Backup and Move Data",
		commands: []string{
			"tradejournal export backup.json        # Whole journal",
			"tradejournal export trades.csv         # Trades with computed P&L",
			"tradejournal import old-trades.csv     # Merge, skipping known ids",
			"tradejournal import backup.json --replace",
		},
	},
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			for _, ex := range workflows {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}
