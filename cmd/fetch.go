package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var fetchStrict bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [SOURCE]",
	Short: "Load a source and save its records in the local database",
	Long: `Loads the source (or --src when no argument is given), validates it, and
saves the records under the source locator. Later commands can read the saved
copy with --from-store, without touching the network.

Fetching the same source again replaces the saved copy.`,
	Example: `  fauna fetch species.csv
  fauna fetch https://example.com/species.csv
  fauna fetch s3://zoo-data/species.csv --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			globalFlags.Src = args[0]
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		ds, rowErrs, err := loadDataset(cmd.Context(), deps, false)
		if err != nil {
			return err
		}
		if fetchStrict {
			if err := strictError(rowErrs); err != nil {
				return err
			}
		}
		if ds.Empty() {
			return fmt.Errorf("%s has no valid records; nothing saved", deps.Config.Source)
		}

		st, err := deps.Store()
		if err != nil {
			return err
		}
		if err := st.PutDataset(ds); err != nil {
			return fmt.Errorf("saving dataset: %w", err)
		}

		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d records from %s", ds.Len(), ds.Source)
			if len(rowErrs) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  (%d rows skipped)", len(rowErrs))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if deps.Config.Verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  •  %dms\n", st.Path(), time.Since(start).Milliseconds())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchStrict, "strict", false, "fail if any row is malformed instead of skipping it")
}
