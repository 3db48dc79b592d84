package rdapstorm

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// EndpointLimiter gates outbound requests per RDAP endpoint. WHOIS
// queries do not pass through it. Wait blocks until a token is
// available or ctx is done.
type EndpointLimiter interface {
	Wait(ctx context.Context, endpoint string) error
}

// memoryEndpointLimiter is a get-or-insert map of per-endpoint token
// buckets. Every distinct endpoint is rate limited independently, so a
// slow or strict registry never throttles probes against a different
// one. Entries are lazily created on first reference and never removed
// for the lifetime of the Prober — a long-running sweep across
// thousands of TLDs keeps every bucket it has ever touched, trading a
// small fixed amount of memory per distinct endpoint for the guarantee
// that a bucket's fill state (and thus its throttling behavior) never
// resets mid-run. Grounded on the get-or-insert bucket-map pattern of
// ProviderLimiter/memoryProviderLimiter, backed here by
// golang.org/x/time/rate instead of hand-rolled refill math.
type memoryEndpointLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*rate.Limiter
}

func newMemoryEndpointLimiter(ratePerSec float64, burst int) *memoryEndpointLimiter {
	if burst < 1 {
		burst = 1
	}
	return &memoryEndpointLimiter{
		rps:     rate.Limit(ratePerSec),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *memoryEndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	lim := l.bucketFor(endpoint)
	return lim.Wait(ctx)
}

func (l *memoryEndpointLimiter) bucketFor(endpoint string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.buckets[endpoint]; ok {
		return lim
	}

	lim := rate.NewLimiter(l.rps, l.burst)
	l.buckets[endpoint] = lim
	return lim
}
