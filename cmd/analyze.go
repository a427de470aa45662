package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/analyze"
	"github.com/derickschaefer/fauna/internal/model"
)

var analyzeFromStore bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Descriptive statistics of top speeds, overall and per diet",
	Long: `Prints count, mean, standard deviation, min, median and max of the top
speeds, plus the fastest and slowest animal, for the whole dataset and for
each diet present.`,
	Example: `  fauna analyze --src species.csv
  fauna analyze --src species.csv --format json
  fauna analyze --src species.csv --from-store --format md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ds, rowErrs, err := loadDataset(cmd.Context(), deps, analyzeFromStore)
		if err != nil {
			return err
		}
		if ds.Empty() {
			return fmt.Errorf("%s has no valid records to analyze", deps.Config.Source)
		}

		sums := analyze.ByDiet(ds.Records)
		result := newResult(model.KindSummary, "analyze", sums, ds.Len())
		result.Warnings = rowWarnings(rowErrs)
		result.Stats.Skipped = len(rowErrs)
		result.Stats.FromStore = analyzeFromStore
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeFromStore, "from-store", false, "read the dataset saved by 'fauna fetch' instead of the source")
}
