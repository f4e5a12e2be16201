// Package ratelimit enforces fixed-window request limits per client address
// and endpoint class.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Class groups endpoints that share a budget.
type Class string

const (
	General Class = "general"
	Create  Class = "create"
	Auth    Class = "auth"
)

// Config holds the window and the per-class limits.
type Config struct {
	Window time.Duration
	Limits map[Class]int
}

// DefaultConfig is 15 minutes with 100 general, 20 create and 5 auth requests.
func DefaultConfig() Config {
	return Config{
		Window: 15 * time.Minute,
		Limits: map[Class]int{General: 100, Create: 20, Auth: 5},
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration
}

// Limiter checks hits against a Store.
type Limiter struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

func NewLimiter(store Store, cfg Config, logger *slog.Logger) *Limiter {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Limits == nil {
		cfg.Limits = def.Limits
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: store, cfg: cfg, logger: logger}
}

// Allow records one hit for key in class.
func (l *Limiter) Allow(ctx context.Context, class Class, key string) (Decision, error) {
	limit := l.cfg.Limits[class]
	if limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	count, reset, err := l.store.Incr(ctx, string(class)+":"+key, l.cfg.Window)
	if err != nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, err
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= int64(limit), Limit: limit, Remaining: remaining, Reset: reset}, nil
}

// Middleware limits requests of one class by client IP. onLimit writes the
// rejection; the chain is aborted afterwards. Store failures let the request through.
func (l *Limiter) Middleware(class Class, onLimit func(*gin.Context, Decision)) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := l.Allow(c.Request.Context(), class, c.ClientIP())
		if err != nil {
			l.logger.WarnContext(c.Request.Context(), "rate limit store unavailable", "class", class, "error", err)
			c.Next()
			return
		}
		if d.Limit > 0 {
			resetSecs := strconv.Itoa(int(math.Ceil(d.Reset.Seconds())))
			c.Header("RateLimit-Limit", strconv.Itoa(d.Limit))
			c.Header("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			c.Header("RateLimit-Reset", resetSecs)
			if !d.Allowed {
				c.Header("Retry-After", resetSecs)
			}
		}
		if !d.Allowed {
			if onLimit != nil {
				onLimit(c, d)
			} else {
				c.String(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}
