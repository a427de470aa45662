// Package server exposes a view controller over HTTP.
//
// Routes:
//
//	GET /chart.svg     current chart; ?width=&height= draw this response at that size
//	GET /scene.json    scene description of the current chart
//	GET /records.json  records of the current dataset
//	GET /healthz       controller state
//	GET /metrics       Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/derickschaefer/fauna/internal/model"
	"github.com/derickschaefer/fauna/internal/view"
)

const shutdownTimeout = 5 * time.Second

// Server serves one controller.
type Server struct {
	ctrl   *view.Controller
	gather prometheus.Gatherer
	logger *zap.Logger
}

// New returns a Server. gather supplies /metrics; a nil logger discards output.
func New(ctrl *view.Controller, gather prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{ctrl: ctrl, gather: gather, logger: logger.Named("server")}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /chart.svg", s.handleChart)
	mux.HandleFunc("GET /scene.json", s.handleScene)
	mux.HandleFunc("GET /records.json", s.handleRecords)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.gather != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	return mux
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var svg []byte
	if r.URL.Query().Has("width") || r.URL.Query().Has("height") {
		dim, err := parseDimensions(r, s.ctrl.Dimensions())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		svg, _, err = s.ctrl.RenderAt(dim)
		if err != nil && !errors.Is(err, view.ErrNoChart) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	} else {
		svg = s.ctrl.SVG()
	}

	if svg == nil {
		writeError(w, http.StatusServiceUnavailable, "no chart available (state "+s.ctrl.State().String()+")")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

func (s *Server) handleScene(w http.ResponseWriter, _ *http.Request) {
	scn, ok := s.ctrl.Scene()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no chart available")
		return
	}
	writeJSON(w, http.StatusOK, scn)
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	ds := s.ctrl.Dataset()
	recs := ds.Records
	if recs == nil {
		recs = []model.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":  ds.Source,
		"records": recs,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ds := s.ctrl.Dataset()
	body := map[string]any{
		"state":   s.ctrl.State().String(),
		"records": ds.Len(),
		"diets":   ds.CountByDiet(),
		"skipped": len(s.ctrl.Skipped()),
	}
	if err := s.ctrl.Err(); err != nil {
		body["error"] = err.Error()
	}
	status := http.StatusOK
	if s.ctrl.State() == view.Unmounted {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

// parseDimensions reads width and height, keeping cur for any that is absent.
func parseDimensions(r *http.Request, cur model.Dimensions) (model.Dimensions, error) {
	d := cur
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"width", &d.Width}, {"height", &d.Height}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v > 20000 {
			return d, errors.New("invalid " + p.name + ": " + raw)
		}
		*p.dst = v
	}
	return d, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
