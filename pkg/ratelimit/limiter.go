// Package ratelimit limits admin API calls per client address with a token
// bucket.
package ratelimit

import (
	"net"
	"sync"
	"time"
)

// Default limiter values.
const (
	DefaultCleanupInterval = time.Minute
	DefaultEntryTTL        = time.Minute
)

// Config configures a Limiter.
type Config struct {
	// Rate is tokens per second. Defaults to 100.
	Rate float64

	// Burst is the bucket capacity. Defaults to twice the rate.
	Burst int

	CleanupInterval time.Duration
	EntryTTL        time.Duration
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// Limiter tracks one token bucket per client address. Idle buckets are
// dropped by a background goroutine until Stop.
type Limiter struct {
	rate     float64
	burst    int
	entryTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce  sync.Once
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// New creates a limiter and starts its cleanup goroutine.
func New(cfg Config) *Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.Rate * 2)
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = DefaultEntryTTL
	}

	l := &Limiter{
		rate:      cfg.Rate,
		burst:     cfg.Burst,
		entryTTL:  cfg.EntryTTL,
		buckets:   make(map[string]*bucket),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go l.cleanup(cfg.CleanupInterval)
	return l
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.burst
}

// Allow consumes a token for key. When denied, retryAfter is how long until
// the next token.
func (l *Limiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastUpdate: now}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(b.tokens+now.Sub(b.lastUpdate).Seconds()*l.rate, float64(l.burst))
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, 0, max(wait, time.Second)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	<-l.stoppedCh
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(l.stoppedCh)

	for {
		select {
		case <-ticker.C:
			l.removeStale(time.Now().Add(-l.entryTTL))
		case <-l.stopCh:
			return
		}
	}
}

func (l *Limiter) removeStale(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		b.mu.Lock()
		if b.lastUpdate.Before(cutoff) {
			delete(l.buckets, key)
		}
		b.mu.Unlock()
	}
}

// clientIP strips the port from a RemoteAddr.
func clientIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return ip
}
