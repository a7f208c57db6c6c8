package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// UploadLimiter throttles blob-store uploads per destination so a large
// batch does not flood the archive's storage service.
type UploadLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewUploadLimiter creates a limiter with the given default rate per
// destination
func NewUploadLimiter(perSecond float64, burst int) *UploadLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UploadLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(perSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until an upload to the destination is allowed
func (l *UploadLimiter) Wait(ctx context.Context, destination string) error {
	return l.limiter(destination).Wait(ctx)
}

// Allow reports whether an upload is allowed right now, without waiting
func (l *UploadLimiter) Allow(destination string) bool {
	return l.limiter(destination).Allow()
}

// SetRate overrides the rate for one destination
func (l *UploadLimiter) SetRate(destination string, perSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[destination] = rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (l *UploadLimiter) limiter(destination string) *rate.Limiter {
	l.mu.RLock()
	lim, exists := l.limiters[destination]
	l.mu.RUnlock()
	if exists {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, exists := l.limiters[destination]; exists {
		return lim
	}
	lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[destination] = lim
	return lim
}
