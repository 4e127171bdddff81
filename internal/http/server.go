// Package http serves the balancete JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"balancete/internal/cache"
	"balancete/internal/events"
	"balancete/internal/ledgers"
	"balancete/internal/log"
	"balancete/internal/middleware/ratelimit"
	"balancete/internal/middleware/security"
	"balancete/internal/middleware/trace"
	"balancete/internal/services"
)

const cacheCleanupInterval = time.Minute

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	Logger             *log.Logger
}

type Server struct {
	http.Server
	repo    ledgers.Repository
	ingest  *services.IngestService
	ledgers *cache.LedgerCache
	caches  *cache.Manager
	limiter *ratelimit.Limiter
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// Ledger reads go through an LRU snapshot cache that ingestion, deletion and
// HandleLedgerEvent invalidate.
func NewServer(opts Options, repo ledgers.Repository, ingestSvc *services.IngestService) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		repo:    repo,
		ingest:  ingestSvc,
		ledgers: cache.NewLedgerCache(repo, opts.CacheSize, opts.CacheTTL),
		caches:  cache.NewManager(opts.Logger.Logger.With(log.FieldComponent, log.ComponentCache)),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		logger:  logger,
	}
	s.caches.Register(s.ledgers)
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/entities", s.handleListEntities)
	mux.HandleFunc("POST /api/entities", s.handleCreateEntity)
	mux.HandleFunc("DELETE /api/entities/{id}", s.handleDeleteEntity)
	mux.HandleFunc("POST /api/entities/{id}/ledger", s.handleReingest)
	mux.HandleFunc("GET /api/entities/{id}/ledger", s.handleLedger)
	mux.HandleFunc("GET /api/entities/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/entities/{id}/timeline", s.handleTimeline)
	mux.HandleFunc("GET /api/entities/{id}/categories/{group}", s.handleCategories)
	mux.HandleFunc("GET /api/entities/{id}/table/{group}", s.handleTable)
	mux.HandleFunc("GET /api/entities/{id}/export/{group}", s.handleExport)
	mux.HandleFunc("POST /api/compare", s.handleCompare)

	clientIP := security.NewClientIP()
	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	})(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger, clientIP.Extract).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HandleLedgerEvent drops the cached snapshot of the event's entity. It is
// the handler for events consumed from other instances.
func (s *Server) HandleLedgerEvent(ctx context.Context, e events.LedgerEvent) error {
	s.ledgers.Invalidate(e.EntityID)
	s.logger.DebugContext(ctx, "Invalidated cached ledger",
		log.FieldEventType, e.Type,
		log.FieldEntityID, e.EntityID)
	return nil
}

// CacheStats reports the ledger snapshot cache counters.
func (s *Server) CacheStats() cache.Stats {
	return s.ledgers.Stats()
}

// Shutdown gracefully shuts down the server and its background goroutines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
