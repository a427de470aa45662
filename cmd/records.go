package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/model"
)

var (
	recordsStrict    bool
	recordsFromStore bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print the parsed records of the source",
	Long: `Loads and validates the source and prints the records that would be charted,
in input order. Skipped rows are listed as warnings after the output.`,
	Example: `  fauna records --src species.csv
  fauna records --src s3://zoo-data/species.csv --format json
  fauna records --src species.csv --format csv --out clean.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		ds, rowErrs, err := loadDataset(cmd.Context(), deps, recordsFromStore)
		if err != nil {
			return err
		}
		if recordsStrict {
			if err := strictError(rowErrs); err != nil {
				return err
			}
		}

		recs := ds.Records
		if recs == nil {
			recs = []model.Record{}
		}
		result := newResult(model.KindRecords, "records", recs, len(recs))
		result.Warnings = rowWarnings(rowErrs)
		for _, name := range ds.DuplicateNames() {
			result.Warnings = append(result.Warnings, "duplicate name "+name+" shares one bar position")
		}
		result.Stats.Skipped = len(rowErrs)
		result.Stats.FromStore = recordsFromStore
		result.Stats.DurationMs = time.Since(start).Milliseconds()
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.Flags().BoolVar(&recordsStrict, "strict", false, "fail if any row is malformed instead of skipping it")
	recordsCmd.Flags().BoolVar(&recordsFromStore, "from-store", false, "read the dataset saved by 'fauna fetch' instead of the source")
}
