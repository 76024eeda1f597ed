package ratelimit

import (
	"sync"
	"time"
)

// PerKeyLimiter manages rate limiters keyed by an arbitrary string,
// typically a LINE user ID. Limiters are created lazily on first use
// and removed by a background cleanup loop once they return to full
// capacity, which keeps memory bounded for one-off users.
type PerKeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	config   PerKeyLimiterConfig
	stopCh   chan struct{}
	stopOnce sync.Once
}

// PerKeyLimiterConfig configures a PerKeyLimiter.
type PerKeyLimiterConfig struct {
	// MaxTokens is the burst capacity of each per-key bucket.
	MaxTokens float64
	// RefillRate is tokens added per second to each bucket.
	RefillRate float64
	// CleanupPeriod is how often idle limiters are swept.
	// Zero disables the cleanup loop.
	CleanupPeriod time.Duration
	// OnDrop is called when a request is rejected. Optional.
	OnDrop func(key string)
}

// NewPerKey creates a PerKeyLimiter and starts its cleanup loop
// when CleanupPeriod is positive.
func NewPerKey(cfg PerKeyLimiterConfig) *PerKeyLimiter {
	p := &PerKeyLimiter{
		limiters: make(map[string]*Limiter),
		config:   cfg,
		stopCh:   make(chan struct{}),
	}

	if cfg.CleanupPeriod > 0 {
		go p.cleanupLoop()
	}

	return p
}

// Allow reports whether a request for key is within its rate limit,
// consuming a token when it is.
func (p *PerKeyLimiter) Allow(key string) bool {
	p.mu.Lock()
	limiter, ok := p.limiters[key]
	if !ok {
		limiter = New(p.config.MaxTokens, p.config.RefillRate)
		p.limiters[key] = limiter
	}
	p.mu.Unlock()

	allowed := limiter.Allow()
	if !allowed && p.config.OnDrop != nil {
		p.config.OnDrop(key)
	}
	return allowed
}

// Len returns the number of tracked keys.
func (p *PerKeyLimiter) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}

// Stop terminates the cleanup loop. Safe to call multiple times.
func (p *PerKeyLimiter) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}

func (p *PerKeyLimiter) cleanupLoop() {
	ticker := time.NewTicker(p.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.cleanup()
		}
	}
}

// cleanup removes limiters whose buckets have refilled completely,
// meaning the key has been idle long enough to forget.
func (p *PerKeyLimiter) cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, limiter := range p.limiters {
		if limiter.IsFull() {
			delete(p.limiters, key)
		}
	}
}
