// Package app wires together configuration, the logger, the loader and the
// local store into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/derickschaefer/fauna/internal/config"
	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/source"
	"github.com/derickschaefer/fauna/internal/store"
	"github.com/derickschaefer/fauna/internal/surface"
	"github.com/derickschaefer/fauna/internal/view"
)

// Deps holds all runtime dependencies injected into command Run functions.
// The store is opened on first use so commands that never touch it do not
// take the bbolt file lock.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	Loader *source.Loader

	store *store.Store
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) (*Deps, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	loader := source.New(source.Config{
		Timeout:     cfg.Timeout,
		Rate:        cfg.Rate,
		S3Region:    cfg.S3Region,
		S3Endpoint:  cfg.S3Endpoint,
		S3PathStyle: cfg.S3PathStyle,
	}, logger)
	return &Deps{
		Config: cfg,
		Logger: logger,
		Loader: loader,
	}, nil
}

// NewLogger builds a console logger on stderr. --debug shows everything,
// --quiet only errors, and the default is warnings and above.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	switch {
	case cfg.Debug:
		level = zapcore.DebugLevel
	case cfg.Quiet:
		level = zapcore.ErrorLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = !cfg.Debug
	zc.Sampling = nil

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// Store opens the local store on first call and returns it thereafter.
func (d *Deps) Store() (*store.Store, error) {
	if d.store != nil {
		return d.store, nil
	}
	if d.Config.DBPath == "" {
		return nil, fmt.Errorf("no database path configured (set %s or db_path in config.json)", config.EnvDBPath)
	}
	if err := os.MkdirAll(filepath.Dir(d.Config.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		return nil, err
	}
	d.store = s
	return s, nil
}

// Surface returns a surface sized from config.
func (d *Deps) Surface() *surface.Surface {
	return surface.New(surface.Options{
		Size:    model.Dimensions{Width: d.Config.Width, Height: d.Config.Height},
		Minimum: model.Dimensions{Width: d.Config.MinWidth, Height: d.Config.MinHeight},
	})
}

// NewController returns a controller that loads through loader (d.Loader when
// nil) onto a fresh surface.
func (d *Deps) NewController(loader view.Loader, opts ...view.Option) *view.Controller {
	if loader == nil {
		loader = d.Loader
	}
	base := []view.Option{
		view.WithLogger(d.Logger),
		view.WithLayout(layout.DefaultOptions()),
	}
	return view.New(loader, d.Surface(), append(base, opts...)...)
}

// Close releases the store and flushes the logger.
func (d *Deps) Close() error {
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}
	if d.store != nil {
		err := d.store.Close()
		d.store = nil
		return err
	}
	return nil
}
