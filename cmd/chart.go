package cmd

import (
	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/chart"
	"github.com/derickschaefer/fauna/internal/layout"
)

// ─── preview ─────────────────────────────────────────────────────────────────

var (
	previewWidth     int
	previewMaxBars   int
	previewByDiet    bool
	previewFromStore bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "ASCII bar chart of the source in the terminal",
	Long: `Renders one horizontal bar per record, scaled from zero to the same niced
maximum the SVG chart uses, tagged with a diet marker (H, C, O).

With --by-diet, prints one bar per diet showing the mean speed and count.
Width auto-detects from $COLUMNS (falls back to 80).`,
	Example: `  fauna preview --src species.csv
  fauna preview --src species.csv --max-bars 10 --width 100
  fauna preview --src species.csv --by-diet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ds, _, err := loadDataset(cmd.Context(), deps, previewFromStore)
		if err != nil {
			return err
		}
		opts := chart.BarOptions{Width: previewWidth, MaxBars: previewMaxBars}
		if previewByDiet {
			return chart.Diets(cmd.OutOrStdout(), ds.Records, opts)
		}
		return chart.Bar(cmd.OutOrStdout(), layout.DefaultOptions().Title, ds.Records, opts)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().IntVar(&previewWidth, "width", 0,
		"total chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	previewCmd.Flags().IntVar(&previewMaxBars, "max-bars", 0,
		"maximum bars to render, keeping the first N records (0 = no limit)")
	previewCmd.Flags().BoolVar(&previewByDiet, "by-diet", false,
		"one bar per diet with mean speed and record count")
	previewCmd.Flags().BoolVar(&previewFromStore, "from-store", false,
		"read the dataset saved by 'fauna fetch' instead of the source")
}
