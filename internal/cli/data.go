package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"trade-journal/internal/store"
)

// addTransferCommands adds snapshot export and import.
func addTransferCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
}

// snapshotFormat resolves --format, falling back to the file extension.
func snapshotFormat(cmd *cobra.Command, path string) (store.Format, error) {
	if raw, _ := cmd.Flags().GetString("format"); raw != "" {
		return store.ParseFormat(raw)
	}
	if path == "" || path == "-" {
		return store.FormatJSON, nil
	}
	return store.FormatFromPath(path)
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the journal to a JSON, YAML or CSV file",
		Long: `Write the journal to a file, or to stdout when no file is given.

JSON and YAML carry the whole journal. CSV carries trades only, with
computed pnl, r_multiple and risk_reward columns.`,
		Example: `  tradejournal export backup.json
  tradejournal export --format csv > trades.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			format, err := snapshotFormat(cmd, path)
			if err != nil {
				return err
			}
			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}

			if path == "" || path == "-" {
				return svc.Export(cmd.Context(), cmd.OutOrStdout(), format)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := svc.Export(cmd.Context(), f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path, "format": string(format)})
			}
			output.Success("✓ Exported %s to %s", format, path)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "json, yaml or csv (default from extension)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load trades or a whole journal from a file",
		Long: `Load a snapshot written by export, or a CSV of trades.

By default trades are merged and trades whose id already exists are skipped.
With --replace a JSON or YAML snapshot replaces the whole journal. Goal
achievements are checked again afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			path := args[0]
			format, err := snapshotFormat(cmd, path)
			if err != nil {
				return err
			}
			replace, _ := cmd.Flags().GetBool("replace")

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			svc, err := app.journal(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Import(cmd.Context(), r, format, replace)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}
			if res.Replaced {
				output.Success("✓ Journal replaced from %s (%d trades)", path, res.Trades)
			} else {
				output.Success("✓ Imported %d trades from %s", res.Trades, path)
			}
			if res.Skipped > 0 {
				output.Warning("Skipped %d trades that already exist", res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "json, yaml or csv (default from extension)")
	cmd.Flags().Bool("replace", false, "replace the whole journal (json and yaml only)")
	return cmd
}
