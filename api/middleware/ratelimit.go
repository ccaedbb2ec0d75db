package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/openalpha/crowdchain/metrics"
)

// RateLimiter implements a token bucket rate limiter keyed by client IP
type RateLimiter struct {
	config *RateLimitConfig

	buckets   map[string]*Bucket
	bucketsMu sync.RWMutex

	cleanupTicker *time.Ticker
	stopCh        chan struct{}
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int           // Requests per second per IP
	Burst             int           // Burst capacity
	BlockDuration     time.Duration // How long to block after limit exceeded

	CleanupInterval time.Duration // How often to clean up old buckets
	BucketTTL       time.Duration // Time before an unused bucket is removed
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		BlockDuration:     time.Minute,
		CleanupInterval:   5 * time.Minute,
		BucketTTL:         time.Hour,
	}
}

// Bucket represents a token bucket for rate limiting
type Bucket struct {
	tokens       float64
	maxTokens    float64
	refillRate   float64 // tokens per second
	lastUpdate   time.Time
	blockedUntil time.Time
	mu           sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:        config,
		buckets:       make(map[string]*Bucket),
		cleanupTicker: time.NewTicker(config.CleanupInterval),
		stopCh:        make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the rate limiter
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
	rl.cleanupTicker.Stop()
}

func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.BucketTTL)

	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	for key, bucket := range rl.buckets {
		bucket.mu.Lock()
		stale := bucket.lastUpdate.Before(cutoff)
		bucket.mu.Unlock()
		if stale {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) bucket(key string) *Bucket {
	rl.bucketsMu.RLock()
	bucket, ok := rl.buckets[key]
	rl.bucketsMu.RUnlock()
	if ok {
		return bucket
	}

	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	if bucket, ok = rl.buckets[key]; ok {
		return bucket
	}
	bucket = &Bucket{
		tokens:     float64(rl.config.Burst),
		maxTokens:  float64(rl.config.Burst),
		refillRate: float64(rl.config.RequestsPerSecond),
		lastUpdate: time.Now(),
	}
	rl.buckets[key] = bucket
	return bucket
}

// Allow reports whether a request from the key is within limits
func (rl *RateLimiter) Allow(key string) bool {
	bucket := rl.bucket(key)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	if now.Before(bucket.blockedUntil) {
		return false
	}

	elapsed := now.Sub(bucket.lastUpdate).Seconds()
	bucket.tokens += elapsed * bucket.refillRate
	if bucket.tokens > bucket.maxTokens {
		bucket.tokens = bucket.maxTokens
	}
	bucket.lastUpdate = now

	if bucket.tokens < 1 {
		bucket.blockedUntil = now.Add(rl.config.BlockDuration)
		return false
	}
	bucket.tokens--
	return true
}

// Middleware wraps a handler with IP rate limiting
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			metrics.GetCollector().RateLimitHits.WithLabelValues("ip").Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
