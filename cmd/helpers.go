package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/fauna/internal/app"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/render"
	"github.com/derickschaefer/fauna/internal/store"
	"github.com/derickschaefer/fauna/internal/util"
	"github.com/derickschaefer/fauna/internal/view"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns def, or a file when --out is set. The returned close
// function must always be called.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// printKVTable renders a two-column key/value list with aligned keys.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// storeLoader serves datasets previously saved with `fauna fetch`.
type storeLoader struct {
	st *store.Store
}

func (l storeLoader) Load(ctx context.Context, locator string) (model.Dataset, []model.RowError, error) {
	if err := ctx.Err(); err != nil {
		return model.Dataset{}, nil, err
	}
	ds, ok, err := l.st.GetDataset(locator)
	if err != nil {
		return model.Dataset{}, nil, err
	}
	if !ok {
		return model.Dataset{}, nil, fmt.Errorf("no stored dataset for %s\n\n  Use: fauna fetch %s", locator, locator)
	}
	return ds, nil, nil
}

// loader picks the live loader or, with fromStore, the local store.
func loader(deps *app.Deps, fromStore bool) (view.Loader, error) {
	if !fromStore {
		return deps.Loader, nil
	}
	st, err := deps.Store()
	if err != nil {
		return nil, err
	}
	return storeLoader{st: st}, nil
}

// loadDataset resolves the source and loads it once.
func loadDataset(ctx context.Context, deps *app.Deps, fromStore bool) (model.Dataset, []model.RowError, error) {
	if err := deps.Config.RequireSource(); err != nil {
		return model.Dataset{}, nil, err
	}
	l, err := loader(deps, fromStore)
	if err != nil {
		return model.Dataset{}, nil, err
	}
	return l.Load(ctx, deps.Config.Source)
}

// strictError joins row errors into one error, or nil when there are none.
func strictError(rowErrs []model.RowError) error {
	var me util.MultiError
	for _, re := range rowErrs {
		me.Add(re)
	}
	if err := me.Err(); err != nil {
		return fmt.Errorf("%d malformed row(s): %w", len(rowErrs), err)
	}
	return nil
}

// rowWarnings formats skipped rows for the result footer.
func rowWarnings(rowErrs []model.RowError) []string {
	out := make([]string, 0, len(rowErrs))
	for _, re := range rowErrs {
		out = append(out, "skipped "+re.Error())
	}
	return out
}

// newResult wraps data in a Result envelope.
func newResult(kind, command string, data any, items int) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats:       model.ResultStats{Items: items},
	}
}

// emit renders result to --out or cmd's stdout, then the footer.
func emit(w io.Writer, deps *app.Deps, result *model.Result) error {
	format := resolveFormat(deps.Config.Format)
	out, closeFn, err := outputWriter(w)
	if err != nil {
		return err
	}
	if err := render.Render(out, result, format); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if !deps.Config.Quiet {
		render.PrintFooter(w, result, deps.Config.Verbose)
	}
	return nil
}
