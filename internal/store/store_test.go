package store_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/store"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDB opens a fresh isolated database in t.TempDir().
// It is closed and deleted automatically when the test ends.
func testDB(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeDataset(source string, recs ...model.Record) model.Dataset {
	return model.Dataset{Source: source, Records: recs}
}

var (
	cheetah  = model.Record{Name: "Cheetah", Speed: 120, Diet: model.Carnivore}
	elephant = model.Record{Name: "Elephant", Speed: 40, Diet: model.Herbivore}
	bear     = model.Record{Name: "Brown Bear", Speed: 56, Diet: model.Omnivore}
)

// ─── Open / Path ──────────────────────────────────────────────────────────────

func TestOpenCreatesDB(t *testing.T) {
	s := testDB(t)
	if s.Path() == "" {
		t.Error("Path() should return the db path after open")
	}
	v, err := s.SchemaVersion()
	if err != nil || v != "1" {
		t.Errorf("SchemaVersion = %q, %v; want 1", v, err)
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open with nested path: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path: expected %q, got %q", path, s.Path())
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutDataset(makeDataset("zoo.csv", cheetah)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, ok, err := s.GetDataset("zoo.csv"); !ok || err != nil {
		t.Errorf("dataset lost across reopen: ok=%v err=%v", ok, err)
	}
}

// ─── Datasets ─────────────────────────────────────────────────────────────────

func TestDatasetRoundTrip(t *testing.T) {
	s := testDB(t)
	ds := makeDataset("https://example.com/zoo.csv", cheetah, elephant, bear)

	before := time.Now().UTC().Add(-time.Second)
	if err := s.PutDataset(ds); err != nil {
		t.Fatalf("PutDataset: %v", err)
	}
	got, ok, err := s.GetDataset(ds.Source)
	if err != nil || !ok {
		t.Fatalf("GetDataset: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(ds.Records, got.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if got.LoadedAt.Before(before) {
		t.Errorf("LoadedAt %v should be stamped at put time", got.LoadedAt)
	}
}

func TestDatasetOrderPreserved(t *testing.T) {
	s := testDB(t)
	ds := makeDataset("zoo.csv", elephant, bear, cheetah)
	if err := s.PutDataset(ds); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.GetDataset("zoo.csv")
	if diff := cmp.Diff([]string{"Elephant", "Brown Bear", "Cheetah"}, got.Names()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetDatasetMissing(t *testing.T) {
	s := testDB(t)
	_, ok, err := s.GetDataset("nope.csv")
	if err != nil || ok {
		t.Errorf("missing dataset: ok=%v err=%v", ok, err)
	}
}

func TestPutDatasetRequiresSource(t *testing.T) {
	s := testDB(t)
	if err := s.PutDataset(makeDataset("", cheetah)); err == nil {
		t.Error("expected an error for a dataset without a source")
	}
}

func TestListDatasets(t *testing.T) {
	s := testDB(t)
	for _, ds := range []model.Dataset{
		makeDataset("b.csv", cheetah, elephant),
		makeDataset("a.csv", bear),
	} {
		if err := s.PutDataset(ds); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListDatasets()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d summaries, want 2", len(list))
	}
	// bbolt iterates keys in byte order.
	if list[0].Source != "a.csv" || list[0].Records != 1 || list[0].MaxSpeed != 56 {
		t.Errorf("first summary = %+v", list[0])
	}
	if list[1].Source != "b.csv" || list[1].Records != 2 || list[1].MaxSpeed != 120 {
		t.Errorf("second summary = %+v", list[1])
	}
}

func TestDeleteDataset(t *testing.T) {
	s := testDB(t)
	if err := s.PutDataset(makeDataset("zoo.csv", cheetah)); err != nil {
		t.Fatal(err)
	}
	found, err := s.DeleteDataset("zoo.csv")
	if err != nil || !found {
		t.Fatalf("DeleteDataset: found=%v err=%v", found, err)
	}
	if _, ok, _ := s.GetDataset("zoo.csv"); ok {
		t.Error("dataset still present after delete")
	}
	found, err = s.DeleteDataset("zoo.csv")
	if err != nil || found {
		t.Errorf("second delete: found=%v err=%v", found, err)
	}
}

// ─── Snapshots ────────────────────────────────────────────────────────────────

func TestSnapshotRoundTrip(t *testing.T) {
	s := testDB(t)
	saved, err := s.PutSnapshot(store.Snapshot{
		Name:    "speeds",
		Source:  "zoo.csv",
		Records: 3,
		Width:   800,
		Height:  500,
		SVG:     []byte("<svg></svg>"),
	})
	if err != nil {
		t.Fatalf("PutSnapshot: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("PutSnapshot should assign ID and CreatedAt: %+v", saved)
	}

	got, ok, err := s.GetSnapshot(saved.ID)
	if err != nil || !ok {
		t.Fatalf("GetSnapshot: ok=%v err=%v", ok, err)
	}
	if got.Name != "speeds" || string(got.SVG) != "<svg></svg>" || got.Width != 800 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestSnapshotIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := store.NewSnapshotID()
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestListSnapshotsOldestFirstWithoutBodies(t *testing.T) {
	s := testDB(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"third", "first", "second"} {
		offset := map[int]time.Duration{0: 2 * time.Hour, 1: 0, 2: time.Hour}[i]
		if _, err := s.PutSnapshot(store.Snapshot{Name: name, SVG: []byte("<svg/>"), CreatedAt: base.Add(offset)}); err != nil {
			t.Fatal(err)
		}
	}
	snaps, err := s.ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, sn := range snaps {
		names = append(names, sn.Name)
		if sn.SVG != nil {
			t.Errorf("snapshot %q listed with its SVG body", sn.Name)
		}
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	s := testDB(t)
	saved, err := s.PutSnapshot(store.Snapshot{Name: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if found, err := s.DeleteSnapshot(saved.ID); err != nil || !found {
		t.Fatalf("DeleteSnapshot: found=%v err=%v", found, err)
	}
	if _, ok, _ := s.GetSnapshot(saved.ID); ok {
		t.Error("snapshot still present after delete")
	}
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	s := testDB(t)
	if err := s.PutDataset(makeDataset("zoo.csv", cheetah)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutSnapshot(store.Snapshot{Name: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutSnapshot(store.Snapshot{Name: "b"}); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d buckets, want 2", len(stats))
	}
	if stats[0].Name != "datasets" || stats[0].Count != 1 || stats[0].Bytes == 0 {
		t.Errorf("datasets stats = %+v", stats[0])
	}
	if stats[1].Name != "snapshots" || stats[1].Count != 2 {
		t.Errorf("snapshots stats = %+v", stats[1])
	}
}

func TestClearBucket(t *testing.T) {
	s := testDB(t)
	if err := s.PutDataset(makeDataset("zoo.csv", cheetah)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutSnapshot(store.Snapshot{Name: "keep"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearBucket("datasets"); err != nil {
		t.Fatalf("ClearBucket: %v", err)
	}
	if list, _ := s.ListDatasets(); len(list) != 0 {
		t.Errorf("datasets not cleared: %v", list)
	}
	if snaps, _ := s.ListSnapshots(); len(snaps) != 1 {
		t.Error("clearing datasets must not touch snapshots")
	}
}

func TestClearUnknownBucket(t *testing.T) {
	s := testDB(t)
	if err := s.ClearBucket("_meta"); !errors.Is(err, store.ErrUnknownBucket) {
		t.Errorf("ClearBucket(_meta) = %v, want ErrUnknownBucket", err)
	}
}

func TestClearAll(t *testing.T) {
	s := testDB(t)
	if err := s.PutDataset(makeDataset("zoo.csv", cheetah)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PutSnapshot(store.Snapshot{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearAll(); err != nil {
		t.Fatal(err)
	}
	stats, _ := s.Stats()
	for _, st := range stats {
		if st.Count != 0 {
			t.Errorf("bucket %s has %d entries after ClearAll", st.Name, st.Count)
		}
	}
	if v, _ := s.SchemaVersion(); v != "1" {
		t.Error("ClearAll must not drop schema metadata")
	}
}
