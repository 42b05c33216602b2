package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter enforces a minimum delay between any two requests to the
// same domain, shared across all workers. One token-bucket limiter per
// domain, no burst, powered by golang.org/x/time/rate.
//
// Entries unused for an hour are evicted by a background goroutine so a
// long-lived process does not accumulate dead domains.
type DomainLimiter struct {
	minDelay time.Duration

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	done     chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewDomainLimiter creates a DomainLimiter with the given minimum
// inter-request delay. A non-positive delay disables pacing.
func NewDomainLimiter(minDelay time.Duration) *DomainLimiter {
	dl := &DomainLimiter{
		minDelay: minDelay,
		limiters: make(map[string]*limiterEntry),
		done:     make(chan struct{}),
	}
	go dl.cleanupLoop()
	return dl
}

// Wait blocks until a request to the domain is permitted or the context
// is cancelled.
func (dl *DomainLimiter) Wait(ctx context.Context, domain string) error {
	if dl.minDelay <= 0 {
		return nil
	}
	return dl.get(domain).Wait(ctx)
}

func (dl *DomainLimiter) get(domain string) *rate.Limiter {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	entry, ok := dl.limiters[domain]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(dl.minDelay), 1),
		}
		dl.limiters[domain] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Stop terminates the background cleanup goroutine.
func (dl *DomainLimiter) Stop() {
	close(dl.done)
}

func (dl *DomainLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-dl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-1 * time.Hour)
			dl.mu.Lock()
			for domain, entry := range dl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(dl.limiters, domain)
				}
			}
			dl.mu.Unlock()
		}
	}
}
