// Package dataset parses species CSV files into typed, validated records.
//
// The header row must name the three contract columns below; their order in
// the file does not matter. Every data row either becomes a model.Record or a
// model.RowError. Malformed rows are reported and skipped, never coerced.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/util"
)

// Contract column names.
const (
	ColumnName  = "Animal"
	ColumnSpeed = "Top Speed (km/h)"
	ColumnDiet  = "Diet"
)

// Columns lists the contract header names in canonical order.
var Columns = []string{ColumnName, ColumnSpeed, ColumnDiet}

// ErrMissingColumn is returned when the header lacks a contract column.
var ErrMissingColumn = errors.New("missing column")

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("no header row")

const utf8BOM = "\ufeff"

// Parse reads CSV from r and returns the valid records in file order along
// with one RowError per rejected row. A non-nil error means the input as a
// whole could not be read; in that case the dataset is empty.
func Parse(r io.Reader, source string) (model.Dataset, []model.RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows become row errors, not fatal ones
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return model.Dataset{}, nil, ErrNoHeader
	}
	if err != nil {
		return model.Dataset{}, nil, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return model.Dataset{}, nil, err
	}

	ds := model.Dataset{Source: source, LoadedAt: time.Now().UTC()}
	var rowErrs []model.RowError
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, model.RowError{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return model.Dataset{}, nil, fmt.Errorf("reading input: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		rec, rowErr := parseRow(fields, idx, line)
		if rowErr != nil {
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, rowErrs, nil
}

// columns maps contract names to their position in a row.
type columns struct {
	name, speed, diet int
	width             int
}

func columnIndex(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return columns{
		name:  pos[ColumnName],
		speed: pos[ColumnSpeed],
		diet:  pos[ColumnDiet],
		width: len(header),
	}, nil
}

func parseRow(fields []string, c columns, line int) (model.Record, *model.RowError) {
	if len(fields) != c.width {
		return model.Record{}, &model.RowError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d fields, got %d", c.width, len(fields)),
		}
	}

	name := strings.TrimSpace(fields[c.name])
	if name == "" {
		return model.Record{}, &model.RowError{Line: line, Field: ColumnName, Reason: "empty name"}
	}

	rawSpeed := fields[c.speed]
	speed, err := util.ParseSpeed(rawSpeed)
	if err != nil {
		return model.Record{}, &model.RowError{Line: line, Field: ColumnSpeed, Value: rawSpeed, Reason: err.Error()}
	}

	rawDiet := fields[c.diet]
	diet, err := model.ParseDiet(rawDiet)
	if err != nil {
		return model.Record{}, &model.RowError{Line: line, Field: ColumnDiet, Value: rawDiet, Reason: "unknown diet"}
	}

	return model.Record{Name: name, Speed: speed, Diet: diet}, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
