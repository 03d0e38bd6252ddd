// Package ratelimit implements the RateLimitedRpcClient (C1): a
// token-bucket gate over external chain/market calls with FIFO queueing,
// retry, and jittered exponential backoff.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/time/rate"
)

// Config tunes the gate. Zero values fall back to spec.md defaults:
// 5 tokens per 1000ms, 3 retries, 500ms base backoff, ±30% jitter.
type Config struct {
	MaxTokens     int
	Window        time.Duration
	MaxRetries    int
	BaseBackoff   time.Duration
	JitterPercent float64
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 5
	}
	if c.Window <= 0 {
		c.Window = time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.JitterPercent <= 0 {
		c.JitterPercent = 0.30
	}
	return c
}

// Metrics is the point-in-time snapshot exposed by the gate.
type Metrics struct {
	TotalCalls       int64
	RateLimitHits    int64
	AvgQueueWaitMs   float64
	CurrentQueueDepth int64
}

// Client is the token-bucket gate. Safe for concurrent use.
type Client struct {
	cfg     Config
	limiter *rate.Limiter

	mu             sync.Mutex
	totalCalls     int64
	rateLimitHits  int64
	queueWaitTotal time.Duration
	queueWaitCount int64
	queueDepth     int64
}

// New constructs a gate. The underlying token bucket refills continuously
// at MaxTokens per Window, matching the "tokens released by timestamp
// aging, not by completion" rule in spec.md §4.1.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	perToken := cfg.Window / time.Duration(cfg.MaxTokens)
	return &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(perToken), cfg.MaxTokens),
	}
}

// OpFunc is the operation the gate runs under rate limiting and retry.
type OpFunc func(ctx context.Context) (any, error)

// Call runs opFn under the token bucket with retry+jitter. Total attempts
// are bounded by cfg.MaxRetries+1 (≤4 by default); the gate is re-entered
// — consuming another token — on every retry.
func (c *Client) Call(ctx context.Context, label string, opFn OpFunc) (any, error) {
	atomic.AddInt64(&c.totalCalls, 1)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := jitteredBackoff(c.cfg.BaseBackoff, attempt, c.cfg.JitterPercent)
			logx.WithContext(ctx).Infof("ratelimit: retrying %s attempt=%d backoff=%s", label, attempt, backoff)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		enqueuedAt := time.Now()
		c.incQueueDepth(1)
		if err := c.waitForToken(ctx); err != nil {
			c.incQueueDepth(-1)
			return nil, err
		}
		c.incQueueDepth(-1)
		c.recordQueueWait(time.Since(enqueuedAt))

		result, err := opFn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		atomic.AddInt64(&c.rateLimitHits, 1)
		logx.WithContext(ctx).Errorf("ratelimit: %s attempt=%d failed: %v", label, attempt, err)
	}
	return nil, fmt.Errorf("ratelimit: %s exhausted %d attempts: %w", label, c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) waitForToken(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) incQueueDepth(delta int64) {
	atomic.AddInt64(&c.queueDepth, delta)
}

func (c *Client) recordQueueWait(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queueWaitTotal += d
	c.queueWaitCount++
}

// Metrics returns a point-in-time snapshot.
func (c *Client) Metrics() Metrics {
	c.mu.Lock()
	avg := 0.0
	if c.queueWaitCount > 0 {
		avg = float64(c.queueWaitTotal.Milliseconds()) / float64(c.queueWaitCount)
	}
	c.mu.Unlock()
	return Metrics{
		TotalCalls:        atomic.LoadInt64(&c.totalCalls),
		RateLimitHits:      atomic.LoadInt64(&c.rateLimitHits),
		AvgQueueWaitMs:      avg,
		CurrentQueueDepth:  atomic.LoadInt64(&c.queueDepth),
	}
}

func jitteredBackoff(base time.Duration, attempt int, jitterPercent float64) time.Duration {
	mult := 1 << uint(attempt) // spec.md §4.1: 500ms · 2^attempt, attempt is the retry number (1-indexed)
	raw := float64(base) * float64(mult)
	jitter := raw * jitterPercent * (2*rand.Float64() - 1)
	d := time.Duration(raw + jitter)
	if d < 0 {
		d = 0
	}
	return d
}
