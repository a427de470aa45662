// Package source fetches species tables from a locator and parses them into
// a dataset. A locator is a local path, "-" for stdin, an http(s) URL, or an
// s3://bucket/key object. Every Load performs exactly one fetch; failures are
// returned to the caller and never retried.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/derickschaefer/fauna/internal/dataset"
	"github.com/derickschaefer/fauna/internal/model"
)

// Locator kinds.
const (
	KindFile  = "file"
	KindStdin = "stdin"
	KindHTTP  = "http"
	KindS3    = "s3"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
	userAgent      = "fauna-cli/1.0"
)

// ErrNoLocator is returned when Load is called with an empty locator.
var ErrNoLocator = errors.New("source: no locator given")

// StatusError is a non-200 HTTP response.
type StatusError struct {
	URL  string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
	}
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.Code, e.Body)
}

// Kind classifies a locator.
func Kind(locator string) string {
	switch {
	case locator == "-":
		return KindStdin
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return KindHTTP
	case strings.HasPrefix(locator, "s3://"):
		return KindS3
	default:
		return KindFile
	}
}

// Config holds loader settings. HTTPClient, S3Client and Stdin override the
// defaults and exist mainly for tests.
type Config struct {
	Timeout     time.Duration
	Rate        float64 // HTTP requests per second
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	HTTPClient *http.Client
	S3Client   S3API
	Stdin      io.Reader
}

// Loader resolves locators. It is safe for concurrent use.
type Loader struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	stdin      io.Reader
	logger     *zap.Logger

	s3mu sync.Mutex
	s3   S3API
}

// New returns a Loader. A nil logger discards output.
func New(cfg Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 2
	}
	burst := int(cfg.Rate)
	if burst < 1 {
		burst = 1
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	return &Loader{
		cfg:        cfg,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Rate), burst),
		stdin:      stdin,
		logger:     logger.Named("source"),
		s3:         cfg.S3Client,
	}
}

// Load fetches locator once and parses it. Rejected rows are logged at warn
// level and returned alongside the dataset; they are not fatal.
func (l *Loader) Load(ctx context.Context, locator string) (model.Dataset, []model.RowError, error) {
	body, err := l.Fetch(ctx, locator)
	if err != nil {
		return model.Dataset{}, nil, err
	}

	ds, rowErrs, err := dataset.Parse(bytes.NewReader(body), locator)
	if err != nil {
		return model.Dataset{}, nil, fmt.Errorf("parse %s: %w", locator, err)
	}

	for _, re := range rowErrs {
		l.logger.Warn("skipping row",
			zap.String("source", locator),
			zap.Int("line", re.Line),
			zap.String("field", re.Field),
			zap.String("value", re.Value),
			zap.String("reason", re.Reason))
	}
	if dups := ds.DuplicateNames(); len(dups) > 0 {
		l.logger.Warn("duplicate animal names share one band",
			zap.String("source", locator),
			zap.Strings("names", dups))
	}
	l.logger.Debug("loaded",
		zap.String("source", locator),
		zap.Int("records", ds.Len()),
		zap.Int("skipped", len(rowErrs)))

	return ds, rowErrs, nil
}

// Fetch returns the raw bytes behind locator.
func (l *Loader) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, ErrNoLocator
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch Kind(locator) {
	case KindStdin:
		return readAll(l.stdin)
	case KindHTTP:
		return l.fetchHTTP(ctx, locator)
	case KindS3:
		return l.fetchS3(ctx, locator)
	default:
		f, err := os.Open(locator)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", locator, err)
		}
		defer f.Close()
		return readAll(f)
	}
}

func (l *Loader) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", userAgent)

	l.logger.Debug("http request", zap.String("url", url))
	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	body, err := readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	l.logger.Debug("http response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{URL: url, Code: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

func readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxBodyBytes {
		return nil, fmt.Errorf("input exceeds %d bytes", maxBodyBytes)
	}
	return b, nil
}
