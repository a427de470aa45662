package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/derickschaefer/fauna/internal/watch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.csv")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := watch.New(path, 100*time.Millisecond, func() { calls.Add(1) }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times for one burst, want 1", got)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "species.csv")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := watch.New(path, 50*time.Millisecond, func() { calls.Add(1) }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("a change to another file should not fire the callback")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.csv")
	w, err := watch.New(path, 0, func() {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestNewRejectsNilCallback(t *testing.T) {
	if _, err := watch.New("x.csv", 0, nil, nil); err == nil {
		t.Error("expected an error for a nil callback")
	}
}
