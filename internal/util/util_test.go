package util_test

import (
	"errors"
	"math"
	"testing"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/util"
)

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"120", 120, false},
		{" 88.5 ", 88.5, false},
		{"0", 0, false},
		{"", 0, true},
		{"fast", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		got, err := util.ParseSpeed(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSpeed(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpeed(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpeed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		120:        "120",
		88.5:       "88.5",
		0:          "0",
		math.NaN(): ".",
	}
	for in, want := range cases {
		if got := util.FormatValue(in); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestMultiError(t *testing.T) {
	var m util.MultiError
	if m.Err() != nil {
		t.Fatal("empty MultiError should yield nil")
	}
	m.Add(nil)
	m.Add(model.RowError{Line: 3, Field: "Diet", Value: "Unknown", Reason: "unknown diet"})
	m.Add(errors.New("second"))

	err := m.Err()
	if err == nil {
		t.Fatal("expected non-nil error")
	}
	want := `line 3: Diet "Unknown": unknown diet; second`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var rowErr model.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 3 {
		t.Errorf("errors.As should find the RowError, got %+v", rowErr)
	}
}
