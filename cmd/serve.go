package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/fauna/internal/server"
	"github.com/derickschaefer/fauna/internal/source"
	"github.com/derickschaefer/fauna/internal/view"
	"github.com/derickschaefer/fauna/internal/watch"
)

var (
	serveAddr     string
	serveWatch    bool
	serveDebounce time.Duration
	serveRefresh  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live chart over HTTP",
	Long: `Mounts the chart once and serves it until interrupted:

  GET /chart.svg      current chart (?width=&height= resize it)
  GET /scene.json     layout of the current chart
  GET /records.json   records of the current dataset
  GET /healthz        controller state
  GET /metrics        Prometheus metrics

With --watch, a local file source is reloaded whenever it changes on disk.
With --refresh, any source is reloaded on a fixed interval. A reload that
fails keeps the previous chart on screen.`,
	Example: `  fauna serve --src species.csv --watch
  fauna serve --src https://example.com/species.csv --refresh 5m --addr :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if err := deps.Config.RequireSource(); err != nil {
			return err
		}
		src := deps.Config.Source
		if serveWatch && source.Kind(src) != source.KindFile {
			return fmt.Errorf("--watch needs a local file source, got %s source %s", source.Kind(src), src)
		}
		if source.Kind(src) == source.KindStdin && serveRefresh > 0 {
			return fmt.Errorf("--refresh cannot re-read stdin")
		}

		addr := deps.Config.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := server.NewMetrics(reg)

		ctrl := deps.NewController(nil,
			view.WithLoadHook(metrics.ObserveLoad),
			view.WithRenderHook(metrics.ObserveRender),
		)
		defer func() {
			ctrl.Unmount()
			ctrl.Wait()
		}()

		g, ctx := errgroup.WithContext(cmd.Context())
		if err := ctrl.Mount(ctx, src); err != nil {
			return err
		}

		reload := func() {
			if err := ctrl.Reload(ctx); err != nil {
				deps.Logger.Warn("reload", zap.Error(err))
			}
		}

		if serveWatch {
			w, err := watch.New(src, serveDebounce, reload, deps.Logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()
		}
		if serveRefresh > 0 {
			g.Go(func() error {
				return refreshLoop(ctx, serveRefresh, reload)
			})
		}

		srv := server.New(ctrl, reg, deps.Logger)
		g.Go(func() error {
			return srv.Run(ctx, addr)
		})
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on %s (Ctrl-C to stop)\n", src, addr)
		}
		return g.Wait()
	},
}

// refreshLoop calls reload every interval until ctx is done.
func refreshLoop(ctx context.Context, interval time.Duration, reload func()) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			reload()
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config listen_addr, :8080)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload when the source file changes")
	serveCmd.Flags().DurationVar(&serveDebounce, "debounce", watch.DefaultDebounce, "quiet period before a file change triggers a reload")
	serveCmd.Flags().DurationVar(&serveRefresh, "refresh", 0, "reload the source on this interval (0 = never)")
}
