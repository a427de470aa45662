package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/fauna/internal/app"
	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/view"
)

// chartFlags are shared by every command that draws a chart.
type chartFlags struct {
	width     float64
	height    float64
	strict    bool
	fromStore bool
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "container width in pixels (default: config width, minimum 600)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "container height in pixels (default: config height, minimum 400)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail if any row is malformed instead of skipping it")
	cmd.Flags().BoolVar(&f.fromStore, "from-store", false, "read the dataset saved by 'fauna fetch' instead of the source")
}

// dimensions returns the requested container size, filling unset sides from config.
func (f *chartFlags) dimensions(cfgW, cfgH float64) model.Dimensions {
	d := model.Dimensions{Width: cfgW, Height: cfgH}
	if f.width > 0 {
		d.Width = f.width
	}
	if f.height > 0 {
		d.Height = f.height
	}
	return d
}

// startChart sizes ctrl, mounts it on locator and waits for the load. The
// controller is unmounted when either step fails.
func startChart(ctx context.Context, ctrl *view.Controller, dim model.Dimensions, locator string) error {
	if _, err := ctrl.Resize(dim); err != nil {
		ctrl.Unmount()
		return err
	}
	if err := ctrl.Mount(ctx, locator); err != nil {
		ctrl.Unmount()
		return err
	}
	ctrl.Wait()
	return nil
}

// drawChart runs the full pipeline once: mount, wait for the load, and
// return the controller holding the drawn chart. The caller unmounts it.
func drawChart(ctx context.Context, deps *app.Deps, f *chartFlags) (*view.Controller, error) {
	if err := deps.Config.RequireSource(); err != nil {
		return nil, err
	}
	l, err := loader(deps, f.fromStore)
	if err != nil {
		return nil, err
	}

	ctrl := deps.NewController(l)
	if err := startChart(ctx, ctrl, f.dimensions(deps.Config.Width, deps.Config.Height), deps.Config.Source); err != nil {
		return nil, err
	}

	fail := func(err error) (*view.Controller, error) {
		ctrl.Unmount()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := ctrl.Err(); err != nil {
		return fail(err)
	}
	if f.strict {
		if err := strictError(ctrl.Skipped()); err != nil {
			return fail(err)
		}
	}
	if ctrl.SVG() == nil {
		return fail(fmt.Errorf("%s: %w", deps.Config.Source, layout.ErrEmptyDataset))
	}
	return ctrl, nil
}

// ─── render ───────────────────────────────────────────────────────────────────

var renderFlags chartFlags

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Draw the species bar chart as SVG",
	Long: `Loads the source, lays out the chart and writes it as an SVG document.

Malformed rows are skipped with a warning; use --strict to fail instead.
An empty dataset draws nothing and is reported as an error.`,
	Example: `  fauna render --src species.csv --out chart.svg
  fauna render --src https://example.com/species.csv --width 1200 --height 600 > chart.svg
  cat species.csv | fauna render --src - --out chart.svg
  fauna render --src species.csv --from-store --out cached.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ctrl, err := drawChart(cmd.Context(), deps, &renderFlags)
		if err != nil {
			return err
		}
		defer ctrl.Unmount()

		out, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if _, err := out.Write(ctrl.SVG()); err != nil {
			_ = closeFn()
			return fmt.Errorf("writing svg: %w", err)
		}
		if err := closeFn(); err != nil {
			return err
		}

		if globalFlags.Out != "" && !deps.Config.Quiet {
			dim := ctrl.Dimensions()
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s  (%d bars, %gx%g, %d skipped)\n",
				globalFlags.Out, ctrl.Dataset().Len(), dim.Width, dim.Height, len(ctrl.Skipped()))
		}
		return nil
	},
}

// ─── scene ────────────────────────────────────────────────────────────────────

var sceneFlags chartFlags

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Describe the chart layout without drawing it",
	Long: `Builds the same scene 'fauna render' would draw and prints it.

The table format lists primitives per group; json and yaml print the full
scene tree with every rect, line and text position.`,
	Example: `  fauna scene --src species.csv
  fauna scene --src species.csv --format json --width 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		ctrl, err := drawChart(cmd.Context(), deps, &sceneFlags)
		if err != nil {
			return err
		}
		defer ctrl.Unmount()

		scn, ok := ctrl.Scene()
		if !ok {
			return errors.New("no scene available")
		}
		result := newResult(model.KindScene, "scene", scn, ctrl.Dataset().Len())
		result.Warnings = rowWarnings(ctrl.Skipped())
		result.Stats.Skipped = len(ctrl.Skipped())
		result.Stats.FromStore = sceneFlags.fromStore
		return emit(cmd.OutOrStdout(), deps, result)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(sceneCmd)
	renderFlags.register(renderCmd)
	sceneFlags.register(sceneCmd)
}
