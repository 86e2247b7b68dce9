package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/mezonai/lightsync/logx"
)

type RateLimiterConfig struct {
	MaxRequests     int
	WindowSize      time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig suits the sync spec method, which rebuilds a full snapshot per call.
func DefaultConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		MaxRequests:     10,
		WindowSize:      time.Second,
		CleanupInterval: 5 * time.Minute, // cleanup every 5 minutes
	}
}

type RateLimiterData struct {
	mu           sync.Mutex
	currentCount int
	rejected     int
	windowStart  time.Time
	lastClean    time.Time
}

// RateLimiter is a fixed window limiter keyed by client (usually the remote IP).
type RateLimiter struct {
	config      *RateLimiterConfig
	requests    map[string]*RateLimiterData
	mu          sync.Mutex
	stopOnce    sync.Once
	stopCleanup chan struct{}
	now         func() time.Time
}

func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		config:      config,
		requests:    make(map[string]*RateLimiterData),
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}

	go rl.cleanupExpiredEntries()

	return rl
}

// Allow checks if a request from the given key is allowed
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowWithContext(context.Background(), key)
}

// AllowWithContext checks if a request from the given key is allowed with context
func (rl *RateLimiter) AllowWithContext(ctx context.Context, key string) bool {
	if ctx.Err() != nil {
		return false
	}
	now := rl.now()

	rl.mu.Lock()
	data, exists := rl.requests[key]
	if !exists {
		data = &RateLimiterData{
			windowStart: now,
			lastClean:   now,
		}
		rl.requests[key] = data
	}
	rl.mu.Unlock()

	data.mu.Lock()
	defer data.mu.Unlock()

	if now.Sub(data.windowStart) >= rl.config.WindowSize {
		if data.rejected > 0 {
			logx.Warn("SECURITY", "Client", key, "was rate limited", data.rejected, "times in last window")
		}
		data.currentCount = 0
		data.rejected = 0
		data.windowStart = now
	}

	if data.currentCount >= rl.config.MaxRequests {
		data.rejected++
		return false
	}

	data.currentCount++
	return true
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func (rl *RateLimiter) cleanupExpiredEntries() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := rl.now()
	cutoff := now.Add(-rl.config.WindowSize)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, data := range rl.requests {
		if rl.cleanupData(data, now, cutoff) {
			delete(rl.requests, key)
		}
	}
}

// cleanupData reports whether a client has been idle for more than one window
func (rl *RateLimiter) cleanupData(data *RateLimiterData, now, cutoff time.Time) bool {
	data.mu.Lock()
	defer data.mu.Unlock()

	if data.windowStart.Before(cutoff) {
		return data.lastClean.Before(cutoff)
	}

	data.lastClean = now
	return false
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
