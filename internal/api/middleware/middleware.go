package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/TheGojiOG/mcadmin/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID tags each request with an id, reusing a well-formed id sent by
// the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CORS middleware adds CORS headers
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	methods := "GET, POST, OPTIONS"
	if len(cfg.AllowedMethods) > 0 {
		methods = strings.Join(cfg.AllowedMethods, ", ")
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if isOriginAllowed(origin, cfg.AllowedOrigins) {
			if origin != "" {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Add("Vary", "Origin")
			} else if containsWildcard(cfg.AllowedOrigins) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", methods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		c.Writer.Header().Set("X-Response-Time", latency.String())

		if path == "/health" && gin.Mode() != gin.DebugMode {
			return
		}

		logging.Component("http").Info("http_request",
			"request_id", c.GetString(ContextRequestID),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", latency.String(),
			"ip", c.ClientIP(),
			"subject", c.GetString(ContextSubject),
		)
	}
}

// RateLimit middleware (simple in-memory implementation)
func RateLimit(enabled bool, requestsPerMinute int) gin.HandlerFunc {
	limiter := newRateLimiter(enabled, requestsPerMinute)

	return func(c *gin.Context) {
		if !limiter.enabled || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		if !limiter.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	if origin == "" {
		return true
	}

	for _, allowedOrigin := range allowedOrigins {
		normalized := strings.TrimSpace(allowedOrigin)
		if normalized == "*" || normalized == origin {
			return true
		}
	}

	return false
}

func containsWildcard(allowedOrigins []string) bool {
	for _, allowedOrigin := range allowedOrigins {
		if strings.TrimSpace(allowedOrigin) == "*" {
			return true
		}
	}
	return false
}

type rateLimiter struct {
	enabled           bool
	requestsPerMinute int
	window            time.Duration
	mu                sync.Mutex
	entries           map[string]*rateLimitEntry
	lastCleanup       time.Time
}

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(enabled bool, requestsPerMinute int) *rateLimiter {
	return &rateLimiter{
		enabled:           enabled && requestsPerMinute > 0,
		requestsPerMinute: requestsPerMinute,
		window:            time.Minute,
		entries:           make(map[string]*rateLimitEntry),
		lastCleanup:       time.Now(),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) > rl.window {
		for k, entry := range rl.entries {
			if now.Sub(entry.windowStart) >= rl.window {
				delete(rl.entries, k)
			}
		}
		rl.lastCleanup = now
	}

	entry, exists := rl.entries[key]
	if !exists || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	if entry.count >= rl.requestsPerMinute {
		return false
	}

	entry.count++
	return true
}
