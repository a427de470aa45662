package view_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/surface"
	"github.com/derickschaefer/fauna/internal/view"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func species() model.Dataset {
	return model.Dataset{Source: "mem", Records: []model.Record{
		{Name: "Cheetah", Speed: 120, Diet: model.Carnivore},
		{Name: "Elephant", Speed: 40, Diet: model.Herbivore},
	}}
}

// fakeLoader returns a fixed result, optionally blocking until released.
type fakeLoader struct {
	ds      model.Dataset
	rowErrs []model.RowError
	err     error
	gate    chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeLoader) Load(ctx context.Context, locator string) (model.Dataset, []model.RowError, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			// Still return a result, as a loader that ignores cancellation would.
		}
	}
	return f.ds, f.rowErrs, f.err
}

func (f *fakeLoader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// spy records every state mutation.
type spy struct {
	mu     sync.Mutex
	states []view.State
}

func (s *spy) observe(st view.State, _ model.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func (s *spy) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

func (s *spy) States() []view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]view.State(nil), s.states...)
}

func newController(l view.Loader, sp *spy, opts ...view.Option) (*view.Controller, *surface.Surface) {
	surf := surface.New(surface.Options{})
	if sp != nil {
		opts = append(opts, view.WithStateObserver(sp.observe))
	}
	return view.New(l, surf, opts...), surf
}

func TestMountLoadsAndRenders(t *testing.T) {
	l := &fakeLoader{ds: species()}
	sp := &spy{}
	var scenes int
	c, surf := newController(l, sp, view.WithRenderHook(func(layout.Scene) { scenes++ }))

	if c.State() != view.Idle {
		t.Fatalf("initial state = %v, want idle", c.State())
	}
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Wait()

	if c.State() != view.Loaded {
		t.Errorf("state = %v, want loaded", c.State())
	}
	want := []view.State{view.Loading, view.Loaded}
	if got := sp.States(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("transitions = %v, want %v", got, want)
	}
	if !surf.Drawn() || c.SVG() == nil {
		t.Error("surface should hold a chart")
	}
	if c.Renders() != 1 || scenes != 1 {
		t.Errorf("renders = %d, hook calls = %d, want 1", c.Renders(), scenes)
	}
	if l.Calls() != 1 {
		t.Errorf("loader called %d times, want exactly 1", l.Calls())
	}
	if _, ok := c.Scene(); !ok {
		t.Error("Scene should be available after render")
	}
	c.Unmount()
}

func TestMountTwice(t *testing.T) {
	c, _ := newController(&fakeLoader{ds: species()}, nil)
	defer c.Unmount()
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if err := c.Mount(context.Background(), "mem"); !errors.Is(err, view.ErrMounted) {
		t.Errorf("second Mount = %v, want ErrMounted", err)
	}
}

func TestEmptyDatasetNeverRenders(t *testing.T) {
	var scenes int
	c, surf := newController(&fakeLoader{ds: model.Dataset{Source: "mem"}}, nil,
		view.WithRenderHook(func(layout.Scene) { scenes++ }))
	defer c.Unmount()

	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if c.State() != view.Loaded {
		t.Errorf("state = %v, want loaded", c.State())
	}
	if surf.Drawn() || surf.Draws() != 0 || scenes != 0 {
		t.Error("an empty dataset must not be drawn")
	}
}

func TestLoadFailureReturnsToIdle(t *testing.T) {
	boom := errors.New("network down")
	c, surf := newController(&fakeLoader{err: boom}, nil)
	defer c.Unmount()

	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if c.State() != view.Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("Err = %v, want %v", c.Err(), boom)
	}
	if !c.Dataset().Empty() || surf.Drawn() {
		t.Error("failed load must leave the dataset empty and draw nothing")
	}
}

func TestUnmountBeforeFetchResolves(t *testing.T) {
	l := &fakeLoader{ds: species(), gate: make(chan struct{})}
	sp := &spy{}
	c, surf := newController(l, sp)

	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Unmount()
	afterUnmount := sp.Len()

	close(l.gate)
	c.Wait()

	if got := sp.Len() - afterUnmount; got != 0 {
		t.Errorf("%d state mutations after unmount, want 0", got)
	}
	if c.State() != view.Unmounted {
		t.Errorf("state = %v, want unmounted", c.State())
	}
	if !c.Dataset().Empty() {
		t.Error("dataset must not be updated after unmount")
	}
	if !surf.Released() || surf.Draws() != 0 {
		t.Error("surface must be released and never drawn")
	}
}

func TestOperationsAfterUnmount(t *testing.T) {
	c, _ := newController(&fakeLoader{ds: species()}, nil)
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	c.Unmount()
	c.Unmount()

	if err := c.Reload(context.Background()); !errors.Is(err, view.ErrUnmounted) {
		t.Errorf("Reload = %v, want ErrUnmounted", err)
	}
	if _, err := c.Resize(model.Dimensions{Width: 900, Height: 600}); !errors.Is(err, view.ErrUnmounted) {
		t.Errorf("Resize = %v, want ErrUnmounted", err)
	}
	if err := c.Mount(context.Background(), "mem"); !errors.Is(err, view.ErrUnmounted) {
		t.Errorf("Mount = %v, want ErrUnmounted", err)
	}
	if c.SVG() != nil {
		t.Error("SVG should be gone after unmount")
	}
}

func TestReloadBeforeMount(t *testing.T) {
	c, _ := newController(&fakeLoader{}, nil)
	defer c.Unmount()
	if err := c.Reload(context.Background()); !errors.Is(err, view.ErrNotMounted) {
		t.Errorf("Reload = %v, want ErrNotMounted", err)
	}
}

func TestReloadSupersedesInFlightFetch(t *testing.T) {
	l := &fakeLoader{ds: species(), gate: make(chan struct{})}
	c, _ := newController(l, nil)
	defer c.Unmount()

	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	if err := c.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(l.gate)
	c.Wait()

	if l.Calls() != 2 {
		t.Errorf("loader called %d times, want 2", l.Calls())
	}
	if c.Renders() != 1 {
		t.Errorf("renders = %d, want 1 (superseded fetch discarded)", c.Renders())
	}
}

func TestResizeRedrawsIdempotently(t *testing.T) {
	c, surf := newController(&fakeLoader{ds: species()}, nil)
	defer c.Unmount()
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	dim := model.Dimensions{Width: 1000, Height: 600}
	got, err := c.Resize(dim)
	if err != nil || got != dim {
		t.Fatalf("Resize = %v, %v", got, err)
	}
	first := c.SVG()
	if _, err := c.Resize(dim); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, c.SVG()) {
		t.Error("redrawing the same data at the same size changed the output")
	}
	if surf.Draws() != 3 {
		t.Errorf("draws = %d, want 3", surf.Draws())
	}

	small, _ := c.Resize(model.Dimensions{Width: 100, Height: 100})
	if small != (model.Dimensions{Width: 600, Height: 400}) {
		t.Errorf("small resize = %v, want minimum 600x400", small)
	}
}

func TestResizeBeforeLoadDoesNotDraw(t *testing.T) {
	c, surf := newController(&fakeLoader{}, nil)
	defer c.Unmount()
	if _, err := c.Resize(model.Dimensions{Width: 900, Height: 500}); err != nil {
		t.Fatal(err)
	}
	if surf.Drawn() {
		t.Error("nothing should be drawn before a dataset is loaded")
	}
}

func TestRenderAt(t *testing.T) {
	c, surf := newController(&fakeLoader{ds: species()}, nil)
	defer c.Unmount()
	if _, _, err := c.RenderAt(model.Dimensions{Width: 900, Height: 500}); !errors.Is(err, view.ErrNoChart) {
		t.Errorf("before load: err = %v, want ErrNoChart", err)
	}
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	shared := c.SVG()

	svg, dim, err := c.RenderAt(model.Dimensions{Width: 1200, Height: 300})
	if err != nil {
		t.Fatalf("RenderAt: %v", err)
	}
	if dim != (model.Dimensions{Width: 1200, Height: 400}) {
		t.Errorf("dim = %v, want 1200x400", dim)
	}
	if !bytes.Contains(svg, []byte(`width="1200" height="400"`)) {
		t.Errorf("svg not drawn at the requested size:\n%.200s", svg)
	}
	if !bytes.Equal(shared, c.SVG()) || surf.Draws() != 1 || c.Renders() != 1 {
		t.Error("RenderAt should not touch the shared surface")
	}

	c.Unmount()
	if _, _, err := c.RenderAt(dim); !errors.Is(err, view.ErrUnmounted) {
		t.Errorf("after unmount: err = %v, want ErrUnmounted", err)
	}
}

func TestRenderAtEmptyDataset(t *testing.T) {
	c, _ := newController(&fakeLoader{ds: model.Dataset{Source: "empty"}}, nil)
	defer c.Unmount()
	if err := c.Mount(context.Background(), "empty"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if _, _, err := c.RenderAt(model.Dimensions{Width: 900, Height: 500}); !errors.Is(err, view.ErrNoChart) {
		t.Errorf("err = %v, want ErrNoChart", err)
	}
}

func TestLoadHook(t *testing.T) {
	var events []view.LoadEvent
	l := &fakeLoader{ds: species(), rowErrs: []model.RowError{{Line: 3, Reason: "bad"}}}
	c, _ := newController(l, nil, view.WithLoadHook(func(ev view.LoadEvent) { events = append(events, ev) }))
	defer c.Unmount()
	if err := c.Mount(context.Background(), "mem"); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	if len(events) != 1 {
		t.Fatalf("got %d load events, want 1", len(events))
	}
	if ev := events[0]; ev.Records != 2 || ev.Skipped != 1 || ev.Err != nil || ev.Locator != "mem" {
		t.Errorf("event = %+v", ev)
	}
	if len(c.Skipped()) != 1 {
		t.Errorf("Skipped = %v", c.Skipped())
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[view.State]string{
		view.Idle: "idle", view.Loading: "loading", view.Loaded: "loaded", view.Unmounted: "unmounted",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
