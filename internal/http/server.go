package http

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"time"

	applog "rupeetrack/internal/log"
	"rupeetrack/internal/middleware/recovery"
	"rupeetrack/internal/middleware/security"
	"rupeetrack/internal/middleware/trace"
	"rupeetrack/internal/store"
)

// DefaultMaxBodyBytes caps request bodies at 16 MiB.
const DefaultMaxBodyBytes int64 = 16 << 20

// Options configures the HTTP server.
type Options struct {
	Addr         string
	UploadDir    string
	MaxBodyBytes int64
	Logger       *applog.Logger
}

type Server struct {
	http.Server

	catWriter store.CategoryWriter
	catLister store.CategoryLister
	txWriter  store.TransactionWriter
	txLister  store.TransactionLister

	uploads      fs.FS
	maxBodyBytes int64
	logger       *applog.Logger

	traceMiddleware *trace.Middleware
	started         time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options, cw store.CategoryWriter, cl store.CategoryLister, tw store.TransactionWriter, tl store.TransactionLister) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}

	ipResolver := security.NewClientIPResolver()

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		catWriter:       cw,
		catLister:       cl,
		txWriter:        tw,
		txLister:        tl,
		uploads:         os.DirFS(opts.UploadDir),
		maxBodyBytes:    opts.MaxBodyBytes,
		logger:          opts.Logger.WithComponent(applog.ComponentHTTP),
		traceMiddleware: trace.NewMiddleware(ipResolver.ExtractClientIP),
		started:         time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /add_category", s.handleAddCategory)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /add_transaction", s.handleAddTransaction)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("GET /uploads/{filename}", s.handleUpload)
	mux.HandleFunc("GET /ping", s.handlePing)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = mux
	h = s.limitBody(h)
	h = headers.Middleware(h)
	h = security.CORS(h)
	h = recovery.Middleware(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = s.traceMiddleware.Middleware(h)
	h = applog.Middleware(opts.Logger)(h)
	s.Handler = h

	return s
}

// limitBody rejects declared oversize bodies up front and caps the rest while reading.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > s.maxBodyBytes {
			s.logger.WarnContext(r.Context(), "Request body too large",
				"content_length", r.ContentLength,
				"max_bytes", s.maxBodyBytes)
			RequestEntityTooLargeError().Write(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// Metrics exposes the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.traceMiddleware.GetMetrics()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Shutting down HTTP server",
		applog.FieldOperation, applog.OpShutdown,
		"uptime", time.Since(s.started).String(),
		"requests_served", s.traceMiddleware.GetMetrics().TotalRequests)
	return s.Server.Shutdown(ctx)
}
