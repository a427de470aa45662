// Package view drives one chart: it loads a dataset, renders it onto a
// surface, and tears everything down on unmount.
//
// The controller moves through Idle → Loading → Loaded, and from any state to
// the terminal Unmounted. At most one fetch is in flight. Each fetch carries
// its own cancellable context; the controller checks that context under its
// lock before touching any state, so a fetch that finishes after Unmount (or
// after being superseded by Reload) changes nothing.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/surface"
)

// State is the controller lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Unmounted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Unmounted:
		return "unmounted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrUnmounted is returned by operations on an unmounted controller.
	ErrUnmounted = errors.New("view: unmounted")
	// ErrNotMounted is returned by Reload before Mount.
	ErrNotMounted = errors.New("view: not mounted")
	// ErrMounted is returned by a second Mount.
	ErrMounted = errors.New("view: already mounted")
	// ErrNoChart is returned by RenderAt when no chart is on the surface.
	ErrNoChart = errors.New("view: no chart available")
)

// Loader fetches and parses a dataset.
type Loader interface {
	Load(ctx context.Context, locator string) (model.Dataset, []model.RowError, error)
}

// LoadEvent describes one completed, non-cancelled fetch.
type LoadEvent struct {
	Locator  string
	Records  int
	Skipped  int
	Err      error
	Duration time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStateObserver registers fn to be called after every state mutation,
// with the new state and dataset. fn runs with the controller locked and must
// not call back into it.
func WithStateObserver(fn func(State, model.Dataset)) Option {
	return func(c *Controller) { c.observe = fn }
}

// WithRenderHook registers fn to be called with every scene drawn.
func WithRenderHook(fn func(layout.Scene)) Option {
	return func(c *Controller) { c.onRender = fn }
}

// WithLoadHook registers fn to be called when a fetch completes.
func WithLoadHook(fn func(LoadEvent)) Option {
	return func(c *Controller) { c.onLoad = fn }
}

// WithLayout overrides the chart decoration.
func WithLayout(o layout.Options) Option {
	return func(c *Controller) { c.layout = o }
}

// Controller is safe for concurrent use.
type Controller struct {
	loader   Loader
	surf     *surface.Surface
	logger   *zap.Logger
	layout   layout.Options
	observe  func(State, model.Dataset)
	onRender func(layout.Scene)
	onLoad   func(LoadEvent)

	mu      sync.Mutex
	state   State
	locator string
	ds      model.Dataset
	skipped []model.RowError
	lastErr error
	scene   layout.Scene
	hasScn  bool
	renders int
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

// New returns an Idle controller drawing onto surf.
func New(loader Loader, surf *surface.Surface, opts ...Option) *Controller {
	c := &Controller{
		loader: loader,
		surf:   surf,
		logger: zap.NewNop(),
		layout: layout.DefaultOptions(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.Named("view")
	return c
}

// Mount starts the initial fetch of locator. It returns immediately; use
// Wait to block until the fetch has finished.
func (c *Controller) Mount(ctx context.Context, locator string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == Unmounted:
		return ErrUnmounted
	case c.locator != "":
		return ErrMounted
	}
	c.locator = locator
	c.startLocked(ctx)
	return nil
}

// Reload cancels any in-flight fetch and fetches the locator again.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == Unmounted:
		return ErrUnmounted
	case c.locator == "":
		return ErrNotMounted
	}
	c.startLocked(ctx)
	return nil
}

func (c *Controller) startLocked(parent context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	token, cancel := context.WithCancel(parent)
	c.cancel = cancel
	c.setStateLocked(Loading)

	c.wg.Add(1)
	go c.fetch(token, c.locator)
}

func (c *Controller) fetch(token context.Context, locator string) {
	defer c.wg.Done()

	start := time.Now()
	ds, rowErrs, err := c.loader.Load(token, locator)
	elapsed := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token.Err() != nil {
		// Unmounted or superseded; the result belongs to nobody.
		c.logger.Debug("discarding cancelled fetch", zap.String("source", locator))
		return
	}

	ev := LoadEvent{Locator: locator, Records: ds.Len(), Skipped: len(rowErrs), Err: err, Duration: elapsed}
	if c.onLoad != nil {
		c.onLoad(ev)
	}

	if err != nil {
		c.lastErr = err
		c.logger.Warn("load failed", zap.String("source", locator), zap.Error(err))
		c.setStateLocked(Idle)
		return
	}

	c.lastErr = nil
	c.ds = ds
	c.skipped = rowErrs
	c.setStateLocked(Loaded)
	c.renderLocked()
}

// Resize changes the surface size and redraws the current dataset.
// It returns the size actually used.
func (c *Controller) Resize(d model.Dimensions) (model.Dimensions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Unmounted {
		return model.Dimensions{}, ErrUnmounted
	}
	eff := c.surf.Resize(d)
	if c.state == Loaded {
		c.renderLocked()
	}
	return eff, nil
}

// RenderAt draws the current dataset at d on a private surface and returns
// the document. The shared surface, its size and the render count are left
// untouched, so concurrent callers each get a chart of the size they asked for.
func (c *Controller) RenderAt(d model.Dimensions) ([]byte, model.Dimensions, error) {
	c.mu.Lock()
	if c.state == Unmounted {
		c.mu.Unlock()
		return nil, model.Dimensions{}, ErrUnmounted
	}
	if !c.hasScn {
		c.mu.Unlock()
		return nil, model.Dimensions{}, ErrNoChart
	}
	ds, opts := c.ds, c.layout
	c.mu.Unlock()

	// ds is immutable once loaded, so the draw needs no lock.
	surf := surface.New(surface.Options{Size: d, Minimum: c.surf.Minimum()})
	eff := surf.Dimensions()
	scn, err := layout.Build(ds, eff, opts)
	if err != nil {
		return nil, eff, fmt.Errorf("layout at %gx%g: %w", eff.Width, eff.Height, err)
	}
	if err := surf.Draw(scn); err != nil {
		return nil, eff, err
	}
	return surf.Bytes(), eff, nil
}

// Unmount cancels pending work and releases the surface. It is idempotent.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Unmounted {
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.surf.Release()
	c.hasScn = false
	c.setStateLocked(Unmounted)
}

// Wait blocks until every fetch goroutine has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// renderLocked draws the current dataset. An empty dataset is never drawn;
// any previous chart is cleared instead.
func (c *Controller) renderLocked() {
	if c.ds.Empty() {
		c.surf.Clear()
		c.hasScn = false
		c.logger.Info("dataset is empty; nothing to draw", zap.String("source", c.ds.Source))
		return
	}

	scn, err := layout.Build(c.ds, c.surf.Dimensions(), c.layout)
	if err != nil {
		c.logger.Error("layout failed", zap.Error(err))
		return
	}
	if err := c.surf.Draw(scn); err != nil {
		c.logger.Error("draw failed", zap.Error(err))
		return
	}
	c.scene = scn
	c.hasScn = true
	c.renders++
	c.logger.Debug("rendered",
		zap.Int("records", c.ds.Len()),
		zap.Float64("width", scn.Width),
		zap.Float64("height", scn.Height))
	if c.onRender != nil {
		c.onRender(scn)
	}
}

func (c *Controller) setStateLocked(s State) {
	c.state = s
	if c.observe != nil {
		c.observe(s, c.ds)
	}
}

// ─── Accessors ────────────────────────────────────────────────────────────────

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dataset returns the last successfully loaded dataset.
func (c *Controller) Dataset() model.Dataset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ds
}

// Skipped returns the rows rejected by the last successful load.
func (c *Controller) Skipped() []model.RowError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped
}

// Err returns the error from the last completed fetch, if it failed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Scene returns the scene currently on the surface.
func (c *Controller) Scene() (layout.Scene, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scene, c.hasScn
}

// SVG returns the current drawing, or nil when no chart is present.
func (c *Controller) SVG() []byte {
	return c.surf.Bytes()
}

// Dimensions returns the surface drawing size.
func (c *Controller) Dimensions() model.Dimensions {
	return c.surf.Dimensions()
}

// Renders returns how many times a chart has been drawn.
func (c *Controller) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Locator returns the mounted locator.
func (c *Controller) Locator() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locator
}
