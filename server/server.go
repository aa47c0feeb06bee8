// Package server is the browser shell around the chart resolver.
//
// Every request rebuilds the form state from the query string and runs the
// resolver again; the only state kept between requests is the parsed upload
// in the session store.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/csvplot/render"
	"github.com/spektr-org/csvplot/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ============================================================================
// OPTIONS
// ============================================================================

type options struct {
	tableRows       int
	histogramBins   int
	colors          []string
	maxUpload       int64
	readTimeout     time.Duration
	writeTimeout    time.Duration
	shutdownTimeout time.Duration
	sweepInterval   time.Duration
	logger          *zap.Logger
}

// Option configures a Server.
type Option func(*options)

// WithTableRows limits the rows shown in the data table. 0 shows all rows.
func WithTableRows(n int) Option {
	return func(o *options) { o.tableRows = n }
}

// WithHistogramBins fixes the histogram bin count. 0 means automatic.
func WithHistogramBins(n int) Option {
	return func(o *options) { o.histogramBins = n }
}

// WithColors overrides the series palette.
func WithColors(colors []string) Option {
	return func(o *options) { o.colors = colors }
}

// WithMaxUploadBytes caps the upload request body.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUpload = n
		}
	}
}

// WithTimeouts sets the HTTP read/write timeouts and the graceful shutdown
// budget. Zero values keep the defaults.
func WithTimeouts(read, write, shutdown time.Duration) Option {
	return func(o *options) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
		if shutdown > 0 {
			o.shutdownTimeout = shutdown
		}
	}
}

// WithSweepInterval sets how often expired uploads are dropped.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server serves the upload form, the dataset page and chart output.
type Server struct {
	store     *session.Store
	renderers *render.Registry
	opts      options
	logger    *zap.Logger
	handler   http.Handler
}

// New creates a server over store using renderers for chart output.
func New(store *session.Store, renderers *render.Registry, opts ...Option) *Server {
	o := options{
		tableRows:       1000,
		maxUpload:       200 << 20,
		readTimeout:     30 * time.Second,
		writeTimeout:    60 * time.Second,
		shutdownTimeout: 10 * time.Second,
		sweepInterval:   time.Minute,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		store:     store,
		renderers: renderers,
		opts:      o,
		logger:    o.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /d/{id}", s.handleDataset)
	mux.HandleFunc("GET /d/{id}/chart", s.handleChart)
	mux.HandleFunc("GET /d/{id}/figure.json", s.handleFigure)
	mux.HandleFunc("GET /d/{id}/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.logRequests(mux)

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and runs the upload janitor until ctx is done, then
// shuts down gracefully. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.opts.readTimeout,
		ReadHeaderTimeout: s.opts.readTimeout,
		WriteTimeout:      s.opts.writeTimeout,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		return s.store.Run(egCtx, s.opts.sweepInterval)
	})

	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// ============================================================================
// MIDDLEWARE
// ============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// ============================================================================
// RESPONSE HELPERS
// ============================================================================

// page renders a template into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) page(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
