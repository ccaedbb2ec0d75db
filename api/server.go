package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openalpha/crowdchain/api/middleware"
	"github.com/openalpha/crowdchain/api/types"
	ws "github.com/openalpha/crowdchain/api/websocket"
	"github.com/openalpha/crowdchain/metrics"
)

// Server is the read gateway: REST views over the indexer, a websocket feed,
// and a Prometheus endpoint. It holds no chain keys and accepts no writes.
type Server struct {
	httpServer *http.Server
	config     *Config

	indexer     *Indexer
	hub         *ws.Hub
	subscriber  *Subscriber
	rateLimiter *middleware.RateLimiter
	collector   *metrics.Collector

	cancelSubscriber context.CancelFunc
}

// Config contains server configuration
type Config struct {
	Host         string
	Port         int
	NodeURL      string // CometBFT websocket endpoint
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		NodeURL:      "ws://localhost:26657/websocket",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates a new gateway server
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	indexer := NewIndexer()
	hub := ws.NewHub(nil)

	return &Server{
		config:      config,
		indexer:     indexer,
		hub:         hub,
		subscriber:  NewSubscriber(config.NodeURL, indexer, hub),
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		collector:   metrics.GetCollector(),
	}
}

// Indexer exposes the projection, mainly for tests
func (s *Server) Indexer() *Indexer {
	return s.indexer
}

// Start runs the hub, the chain subscription and the HTTP listener
func (s *Server) Start() error {
	go s.hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelSubscriber = cancel
	go s.subscriber.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/pools", s.handlePools)
	mux.HandleFunc("/v1/pools/", s.handlePoolSubpaths)
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.Handle("/metrics", metrics.Handler())

	var handler http.Handler = s.instrument(mux)
	if !s.config.DisableRateLimit {
		handler = s.rateLimiter.Middleware(handler)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.cancelSubscriber != nil {
		s.cancelSubscriber()
	}
	s.rateLimiter.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// instrument wraps the mux with request metrics
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.collector.RecordAPIRequest(r.Method, routePattern(r.URL.Path), strconv.Itoa(recorder.status), timer.ElapsedMs())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// routePattern collapses pool ids so metrics stay low-cardinality
func routePattern(path string) string {
	if strings.HasPrefix(path, "/v1/pools/") {
		rest := strings.TrimPrefix(path, "/v1/pools/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/v1/pools/{id}" + rest[i:]
		}
		return "/v1/pools/{id}"
	}
	return path
}

// ============ Handlers ============

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:      "ok",
		BlockHeight: s.indexer.BlockHeight(),
		Pools:       s.indexer.PoolCount(),
		Timestamp:   time.Now().Unix(),
	})
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pools := s.indexer.Pools()
	if status := r.URL.Query().Get("status"); status != "" {
		filtered := pools[:0]
		for _, pool := range pools {
			if pool.Status == status {
				filtered = append(filtered, pool)
			}
		}
		pools = filtered
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"pools": pools})
}

// handlePoolSubpaths routes /v1/pools/{id}[/leaderboard|/contributions]
func (s *Server) handlePoolSubpaths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/pools/")
	parts := strings.SplitN(rest, "/", 2)
	poolID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid pool id")
		return
	}

	if len(parts) == 1 {
		s.servePool(w, poolID)
		return
	}
	switch parts[1] {
	case "leaderboard":
		s.serveLeaderboard(w, r, poolID)
	case "contributions":
		s.serveContributions(w, r, poolID)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) servePool(w http.ResponseWriter, poolID uint64) {
	summary, ok := s.indexer.Pool(poolID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "pool not found")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request, poolID uint64) {
	limit := queryInt(r, "limit", 10)
	entries, ok := s.indexer.Leaderboard(poolID, limit)
	if !ok {
		s.writeError(w, http.StatusNotFound, "pool not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool_id":     poolID,
		"leaderboard": entries,
	})
}

func (s *Server) serveContributions(w http.ResponseWriter, r *http.Request, poolID uint64) {
	limit := queryInt(r, "limit", 50)
	feed, ok := s.indexer.Contributions(poolID, limit)
	if !ok {
		s.writeError(w, http.StatusNotFound, "pool not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"pool_id":       poolID,
		"contributions": feed,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, types.ErrorResponse{Error: message})
}
