package fetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// hostLimiters holds one token-bucket limiter per host. The map is guarded
// by a mutex; the limiters themselves are safe for concurrent use, so a
// caller only holds the lock long enough to look up or create its limiter.
type hostLimiters struct {
	mu    sync.Mutex
	delay time.Duration
	byKey map[string]*rate.Limiter
}

func newHostLimiters(delay time.Duration) *hostLimiters {
	return &hostLimiters{
		delay: delay,
		byKey: make(map[string]*rate.Limiter),
	}
}

func (h *hostLimiters) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.byKey[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(h.delay), 1)
		h.byKey[host] = lim
	}
	return lim
}

// wait blocks until the host's next request slot or the context ends.
func (h *hostLimiters) wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}
