package chart_test

import (
	"math"
	"strings"
	"testing"

	"github.com/derickschaefer/fauna/internal/chart"
	"github.com/derickschaefer/fauna/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func recs() []model.Record {
	return []model.Record{
		{Name: "Cheetah", Speed: 120, Diet: model.Carnivore},
		{Name: "Elephant", Speed: 40, Diet: model.Herbivore},
		{Name: "Brown Bear", Speed: 56, Diet: model.Omnivore},
	}
}

// barLines returns the bar rows of a Bar rendering, skipping the header and
// legend.
func barLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n")[1:] {
		if strings.Contains(l, "█") {
			lines = append(lines, l)
		}
	}
	return lines
}

// ─── Bar tests ────────────────────────────────────────────────────────────────

func TestBarBasic(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", recs(), chart.BarOptions{Width: 60}); err != nil {
		t.Fatalf("Bar returned error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "Speeds  (0 – 120 km/h)") {
		t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	lines := barLines(out)
	if len(lines) != 3 {
		t.Fatalf("got %d bar lines, want 3:\n%s", len(lines), out)
	}
	for i, name := range []string{"Cheetah", "Elephant", "Brown Bear"} {
		if !strings.HasPrefix(lines[i], name) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], name)
		}
	}
	if !strings.Contains(out, "H=Herbivore  C=Carnivore  O=Omnivore") {
		t.Error("legend missing")
	}
}

func TestBarLengthsFollowSpeed(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", recs(), chart.BarOptions{Width: 60}); err != nil {
		t.Fatal(err)
	}
	lines := barLines(buf.String())
	n := func(l string) int { return strings.Count(l, "█") }
	if !(n(lines[0]) > n(lines[2]) && n(lines[2]) > n(lines[1])) {
		t.Errorf("bar lengths out of order: %d %d %d", n(lines[0]), n(lines[1]), n(lines[2]))
	}
}

func TestBarFitsWidth(t *testing.T) {
	for _, width := range []int{40, 60, 100} {
		var buf strings.Builder
		if err := chart.Bar(&buf, "Speeds", recs(), chart.BarOptions{Width: width}); err != nil {
			t.Fatal(err)
		}
		for _, l := range barLines(buf.String()) {
			if got := len([]rune(l)); got > width {
				t.Errorf("width %d: line is %d runes: %q", width, got, l)
			}
		}
	}
}

func TestBarDietMarkers(t *testing.T) {
	in := append(recs(), model.Record{Name: "Mystery", Speed: 10, Diet: "Detritivore"})
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", in, chart.BarOptions{Width: 80}); err != nil {
		t.Fatal(err)
	}
	lines := barLines(buf.String())
	want := []string{" C ", " H ", " O ", " ? "}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d %q missing marker %q", i, lines[i], w)
		}
	}
}

func TestBarSkipsNaN(t *testing.T) {
	in := append(recs(), model.Record{Name: "Ghost", Speed: math.NaN(), Diet: model.Carnivore})
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", in, chart.BarOptions{Width: 60}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Ghost") {
		t.Error("NaN record should be skipped")
	}
}

func TestBarZeroSpeedHasNoBlocks(t *testing.T) {
	in := []model.Record{
		{Name: "Coral", Speed: 0, Diet: model.Carnivore},
		{Name: "Fox", Speed: 50, Diet: model.Omnivore},
	}
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", in, chart.BarOptions{Width: 60}); err != nil {
		t.Fatal(err)
	}
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(l, "Coral") && strings.Contains(l, "█") {
			t.Errorf("zero speed drew a bar: %q", l)
		}
	}
}

func TestBarMaxBars(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", recs(), chart.BarOptions{Width: 60, MaxBars: 2}); err != nil {
		t.Fatal(err)
	}
	if got := len(barLines(buf.String())); got != 2 {
		t.Errorf("got %d bars, want 2", got)
	}
}

func TestBarEmpty(t *testing.T) {
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", nil, chart.BarOptions{}); err == nil {
		t.Error("expected an error for no records")
	}
}

func TestBarUsesColumnsEnv(t *testing.T) {
	t.Setenv("COLUMNS", "50")
	var buf strings.Builder
	if err := chart.Bar(&buf, "Speeds", recs(), chart.BarOptions{}); err != nil {
		t.Fatal(err)
	}
	for _, l := range barLines(buf.String()) {
		if len([]rune(l)) > 50 {
			t.Errorf("line exceeds $COLUMNS: %q", l)
		}
	}
}

// ─── Diets tests ──────────────────────────────────────────────────────────────

func TestDietStats(t *testing.T) {
	in := append(recs(),
		model.Record{Name: "Lion", Speed: 80, Diet: model.Carnivore},
		model.Record{Name: "Mystery", Speed: 10, Diet: "Detritivore"},
	)
	stats := chart.DietStats(in)
	if len(stats) != 4 {
		t.Fatalf("got %d stats, want 4", len(stats))
	}
	if s := stats[1]; s.Diet != model.Carnivore || s.Count != 2 || s.MeanSpeed != 100 {
		t.Errorf("carnivore = %+v", s)
	}
	if s := stats[3]; s.Diet != "Other" || s.Count != 1 || s.MeanSpeed != 10 {
		t.Errorf("other = %+v", s)
	}
}

func TestDiets(t *testing.T) {
	var buf strings.Builder
	if err := chart.Diets(&buf, recs(), chart.BarOptions{Width: 70}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Herbivore (1)", "Carnivore (1)", "Omnivore (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
