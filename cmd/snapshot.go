package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/render"
	"github.com/derickschaefer/fauna/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and recall rendered charts",
	Long: `Snapshots keep a rendered SVG chart in the local database together with the
source it was drawn from and its size, so it can be written out again later
without reloading the data.

  fauna snapshot save --name "spring-survey" --src species.csv
  fauna snapshot list
  fauna snapshot show <ID> --svg --out chart.svg`,
}

// ─── snapshot save ────────────────────────────────────────────────────────────

var (
	snapshotSaveName  string
	snapshotSaveFlags chartFlags
)

var snapshotSaveCommand = &cobra.Command{
	Use:   "save",
	Short: "Render the source and save the chart as a named snapshot",
	Example: `  fauna snapshot save --name "zoo-2026" --src species.csv
  fauna snapshot save --name "wide" --src species.csv --width 1400 --height 600
  fauna snapshot save --name "offline" --src species.csv --from-store`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotSaveName == "" {
			return fmt.Errorf("--name is required")
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

		ctrl, err := drawChart(cmd.Context(), deps, &snapshotSaveFlags)
		if err != nil {
			return err
		}
		defer ctrl.Unmount()

		dim := ctrl.Dimensions()
		snap, err := st.PutSnapshot(store.Snapshot{
			Name:    snapshotSaveName,
			Source:  deps.Config.Source,
			Records: ctrl.Dataset().Len(),
			Width:   dim.Width,
			Height:  dim.Height,
			SVG:     ctrl.SVG(),
		})
		if err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved snapshot %s  (%s)\n", snap.ID, snap.Name)
		return nil
	},
}

// ─── snapshot list ────────────────────────────────────────────────────────────

var snapshotListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all saved snapshots",
	Example: `  fauna snapshot list`,
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

		snaps, err := st.ListSnapshots()
		if err != nil {
			return fmt.Errorf("listing snapshots: %w", err)
		}
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshots saved.")
			fmt.Fprintln(cmd.OutOrStdout(), "  Use: fauna snapshot save --name <name> --src <source>")
			return nil
		}

		if resolveFormat(deps.Config.Format) != render.FormatTable {
			return emit(cmd.OutOrStdout(), deps, newResult(model.KindSnapshots, "snapshot list", snaps, len(snaps)))
		}
		printSimpleTable(cmd.OutOrStdout(), []string{"ID", "NAME", "SOURCE", "RECORDS", "SIZE", "CREATED"}, func(add func(...string)) {
			for _, s := range snaps {
				src := s.Source
				if len(src) > 40 {
					src = src[:37] + "..."
				}
				add(s.ID, s.Name, src, strconv.Itoa(s.Records), fmt.Sprintf("%gx%g", s.Width, s.Height), shortTime(s.CreatedAt))
			}
		})
		return nil
	},
}

// ─── snapshot show ────────────────────────────────────────────────────────────

var snapshotShowSVG bool

var snapshotShowCmd = &cobra.Command{
	Use:   "show <ID>",
	Short: "Show details of a snapshot, or write its SVG",
	Example: `  fauna snapshot show 3f2b...
  fauna snapshot show 3f2b... --svg --out chart.svg`,
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

		snap, ok, err := st.GetSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}
		if !ok {
			return fmt.Errorf("snapshot %q not found", args[0])
		}

		if snapshotShowSVG {
			out, closeFn, err := outputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := out.Write(snap.SVG); err != nil {
				_ = closeFn()
				return fmt.Errorf("writing svg: %w", err)
			}
			return closeFn()
		}

		printSimpleTable(cmd.OutOrStdout(), []string{"FIELD", "VALUE"}, func(add func(...string)) {
			add("ID", snap.ID)
			add("Name", snap.Name)
			add("Source", snap.Source)
			add("Records", strconv.Itoa(snap.Records))
			add("Size", fmt.Sprintf("%gx%g", snap.Width, snap.Height))
			add("SVG", humanBytes(int64(len(snap.SVG))))
			add("Created", snap.CreatedAt.Format(time.RFC3339))
		})
		return nil
	},
}

// ─── snapshot delete ──────────────────────────────────────────────────────────

var snapshotDeleteCmd = &cobra.Command{
	Use:     "delete <ID>",
	Short:   "Delete a saved snapshot",
	Example: `  fauna snapshot delete 3f2b...`,
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

		snap, ok, err := st.GetSnapshot(args[0])
		if err != nil {
			return fmt.Errorf("reading snapshot: %w", err)
		}
		if !ok {
			return fmt.Errorf("snapshot %q not found", args[0])
		}
		if _, err := st.DeleteSnapshot(args[0]); err != nil {
			return fmt.Errorf("deleting snapshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted snapshot %s  (%s)\n", snap.ID, snap.Name)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCommand)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDeleteCmd)

	snapshotSaveCommand.Flags().StringVar(&snapshotSaveName, "name", "", "human-readable name for the snapshot (required)")
	_ = snapshotSaveCommand.MarkFlagRequired("name")
	snapshotSaveFlags.register(snapshotSaveCommand)

	snapshotShowCmd.Flags().BoolVar(&snapshotShowSVG, "svg", false, "write the stored SVG instead of the details table")
}
