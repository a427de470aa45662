package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/render"
	"github.com/derickschaefer/fauna/internal/store"
	"github.com/derickschaefer/fauna/internal/util"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and manage the local database",
	Long: `Commands for inspecting what has been saved in the local bbolt database.

Datasets are saved with 'fauna fetch'; chart snapshots with 'fauna snapshot save'.
It is an intentional data store, not a transparent cache: entries persist until
you delete or clear them.`,
}

// ─── store list ───────────────────────────────────────────────────────────────

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets saved in the local database",
	Example: `  fauna store list
  fauna store list --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		sums, err := st.ListDatasets()
		if err != nil {
			return fmt.Errorf("reading store: %w", err)
		}
		if len(sums) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No datasets in local database.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: fauna fetch <source>")
			return nil
		}

		format := resolveFormat(deps.Config.Format)
		if format == render.FormatTable {
			printSimpleTable(cmd.OutOrStdout(), []string{"SOURCE", "RECORDS", "MAX SPEED", "FETCHED AT"}, func(add func(...string)) {
				for _, s := range sums {
					src := s.Source
					if len(src) > 50 {
						src = src[:47] + "..."
					}
					add(src, strconv.Itoa(s.Records), util.FormatValue(s.MaxSpeed), shortTime(s.FetchedAt))
				}
			})
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d datasets  •  %s\n", len(sums), st.Path())
			return nil
		}

		return emit(cmd.OutOrStdout(), deps, newResult(model.KindDatasets, "store list", sums, len(sums)))
	},
}

// ─── store get ────────────────────────────────────────────────────────────────

var storeGetCmd = &cobra.Command{
	Use:   "get <SOURCE>",
	Short: "Print the records of a saved dataset",
	Example: `  fauna store get species.csv
  fauna store get s3://zoo-data/species.csv --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		ds, ok, err := st.GetDataset(args[0])
		if err != nil {
			return fmt.Errorf("reading dataset: %w", err)
		}
		if !ok {
			return fmt.Errorf("no stored dataset for %s\n\n  Use: fauna fetch %s", args[0], args[0])
		}

		result := newResult(model.KindRecords, "store get "+args[0], ds.Records, ds.Len())
		result.Stats.FromStore = true
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

// ─── store delete ─────────────────────────────────────────────────────────────

var storeDeleteCmd = &cobra.Command{
	Use:     "delete <SOURCE>",
	Short:   "Delete a saved dataset",
	Example: `  fauna store delete species.csv`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		ok, err := st.DeleteDataset(args[0])
		if err != nil {
			return fmt.Errorf("deleting dataset: %w", err)
		}
		if !ok {
			return fmt.Errorf("no stored dataset for %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted dataset %s\n", args[0])
		return nil
	},
}

// ─── store stats ──────────────────────────────────────────────────────────────

var storeStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show entry counts and sizes for each bucket",
	Example: `  fauna store stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		stats, err := st.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}

		format := resolveFormat(deps.Config.Format)
		if format != render.FormatTable {
			return emit(cmd.OutOrStdout(), deps, newResult(model.KindBuckets, "store stats", stats, len(stats)))
		}

		version, _ := st.SchemaVersion()
		fmt.Fprintf(cmd.OutOrStdout(), "Database: %s  (schema %s)\n\n", st.Path(), version)
		printSimpleTable(cmd.OutOrStdout(), []string{"BUCKET", "ENTRIES", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(s.Name, strconv.Itoa(s.Count), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── store clear ──────────────────────────────────────────────────────────────

var (
	storeClearAll    bool
	storeClearBucket string
)

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the local database",
	Long: `Delete every entry from one or all buckets.

Note: bbolt does not shrink the database file after clearing. Free pages are
reused internally on the next write.`,
	Example: `  fauna store clear --all
  fauna store clear --bucket snapshots`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storeClearAll && storeClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <name>\n\nBuckets: %s", strings.Join(store.AllBuckets, ", "))
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		st, err := deps.Store()
		if err != nil {
			return err
		}

		if storeClearAll {
			if err := st.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared all buckets")
			return nil
		}

		if err := st.ClearBucket(storeClearBucket); err != nil {
			return fmt.Errorf("clearing bucket %q: %w", storeClearBucket, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared bucket %q\n", storeClearBucket)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeGetCmd)
	storeCmd.AddCommand(storeDeleteCmd)
	storeCmd.AddCommand(storeStatsCmd)
	storeCmd.AddCommand(storeClearCmd)

	storeClearCmd.Flags().BoolVar(&storeClearAll, "all", false, "clear every bucket")
	storeClearCmd.Flags().StringVar(&storeClearBucket, "bucket", "", "clear a single bucket: "+strings.Join(store.AllBuckets, "|"))
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// humanBytes formats a byte count for display.
func humanBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// shortTime formats t for tables, blank when zero.
func shortTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
