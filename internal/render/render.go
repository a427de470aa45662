// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/fauna/internal/analyze"
	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/store"
	"github.com/derickschaefer/fauna/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatYAML  = "yaml"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD, FormatYAML}

// ValidFormat reports whether f is an accepted format.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	default:
		return renderTable(w, result)
	}
}

// ─── Tabular view ────────────────────────────────────────────────────────────

// rows flattens a result payload to a header and string rows. ok is false for
// payloads with no tabular shape.
func rows(result *model.Result) (header []string, body [][]string, ok bool) {
	switch d := result.Data.(type) {
	case []model.Record:
		header = []string{"ANIMAL", "TOP SPEED (KM/H)", "DIET"}
		for _, r := range d {
			body = append(body, []string{r.Name, util.FormatValue(r.Speed), string(r.Diet)})
		}
	case layout.Scene:
		header = []string{"GROUP", "RECTS", "LINES", "TEXTS"}
		for _, c := range d.Count() {
			body = append(body, []string{c.Group, strconv.Itoa(c.Rects), strconv.Itoa(c.Lines), strconv.Itoa(c.Texts)})
		}
	case []model.DatasetSummary:
		header = []string{"SOURCE", "RECORDS", "MAX SPEED", "FETCHED AT"}
		for _, s := range d {
			body = append(body, []string{s.Source, strconv.Itoa(s.Records), util.FormatValue(s.MaxSpeed), s.FetchedAt.Format(time.RFC3339)})
		}
	case []store.Snapshot:
		header = []string{"ID", "NAME", "SOURCE", "RECORDS", "SIZE", "CREATED AT"}
		for _, s := range d {
			body = append(body, []string{
				s.ID, s.Name, s.Source, strconv.Itoa(s.Records),
				fmt.Sprintf("%gx%g", s.Width, s.Height),
				s.CreatedAt.Format(time.RFC3339),
			})
		}
	case []store.BucketStats:
		header = []string{"BUCKET", "ENTRIES", "BYTES"}
		for _, s := range d {
			body = append(body, []string{s.Name, strconv.Itoa(s.Count), strconv.FormatInt(s.Bytes, 10)})
		}
	case []analyze.Summary:
		header = []string{"GROUP", "COUNT", "MEAN", "STD", "MIN", "MEDIAN", "MAX", "FASTEST", "SLOWEST"}
		for _, s := range d {
			body = append(body, []string{
				s.Group, strconv.Itoa(s.Count),
				formatStat(s.Mean), formatStat(s.Std), formatStat(s.Min),
				formatStat(s.Median), formatStat(s.Max),
				s.Fastest, s.Slowest,
			})
		}
	case model.Table:
		header, body = d.Headers, d.Rows
	default:
		return nil, nil, false
	}
	return header, body, true
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one line per element for slice payloads.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case []model.Record:
		for _, r := range d {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
	case []model.DatasetSummary:
		for _, s := range d {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
	case []store.Snapshot:
		for _, s := range d {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
	case []analyze.Summary:
		for _, s := range d {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
	case layout.Scene:
		for _, c := range d.Count() {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
	default:
		return enc.Encode(result.Data)
	}
	return nil
}

// ─── YAML ─────────────────────────────────────────────────────────────────────

func renderYAML(w io.Writer, result *model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	header, body, ok := rows(result)
	if !ok {
		return renderJSON(w, result)
	}
	if sc, isScene := result.Data.(layout.Scene); isScene {
		fmt.Fprintf(w, "%s  %gx%g\n\n", sc.Title, sc.Width, sc.Height)
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	if _, isRecords := result.Data.([]model.Record); isRecords {
		tw.SetColumnAlignment([]int{
			tablewriter.ALIGN_LEFT,
			tablewriter.ALIGN_RIGHT,
			tablewriter.ALIGN_LEFT,
		})
	}
	for _, r := range body {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	if rec, ok := result.Data.([]model.Record); ok {
		// Same header as the input file, so output can be fed back in.
		_ = cw.Write([]string{"Animal", "Top Speed (km/h)", "Diet"})
		for _, r := range rec {
			_ = cw.Write([]string{r.Name, util.FormatValue(r.Speed), string(r.Diet)})
		}
	} else if header, body, ok := rows(result); ok {
		lower := make([]string, len(header))
		for i, h := range header {
			lower[i] = strings.ToLower(strings.ReplaceAll(h, " ", "_"))
		}
		_ = cw.Write(lower)
		for _, r := range body {
			_ = cw.Write(r)
		}
	} else {
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	header, body, ok := rows(result)
	if !ok {
		return renderJSON(w, result)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "|%s|\n", strings.Join(seps, "|"))
	for _, r := range body {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.FromStore {
			src = "store"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %d skipped • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.Skipped,
			result.Stats.DurationMs,
			src,
		)
	}
}

// formatStat rounds a statistic to two decimals; NaN prints as ".".
func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
