package rdapstorm

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Prober runs bulk domain-availability sweeps: RDAP first, WHOIS as a
// fallback, rate limited per endpoint and safe to run many probes
// concurrently. A zero-value Prober is not usable; construct one with
// New. Grounded on original_source's Prober (same fields, same
// clone-shares-state semantics) and the teacher's Client (owns pool +
// cache, cheaply clonable).
type Prober struct {
	hc       Doer
	ua       string
	registry *EndpointRegistry
	limiter  EndpointLimiter
	config   ProbeConfig
}

// ProberOption configures a Prober at construction time.
type ProberOption func(*Prober)

// WithConfig overrides the default ProbeConfig. Zero-valued numeric
// fields fall back to DefaultProbeConfig; WhoisFallback is taken
// exactly as given.
func WithConfig(cfg ProbeConfig) ProberOption {
	return func(p *Prober) { p.config = cfg }
}

// WithProberHTTPDoer overrides the pooled HTTP client (tests only, normally).
func WithProberHTTPDoer(d Doer) ProberOption {
	return func(p *Prober) { p.hc = d }
}

// WithProberUserAgent overrides the User-Agent sent on RDAP requests.
func WithProberUserAgent(ua string) ProberOption {
	return func(p *Prober) { p.ua = ua }
}

// WithProberLimiter overrides the default in-memory per-endpoint rate
// limiter, e.g. with WithRedisLimiter's distributed implementation.
func WithProberLimiter(l EndpointLimiter) ProberOption {
	return func(p *Prober) { p.limiter = l }
}

// New returns a ready Prober using DefaultProbeConfig unless
// overridden by WithConfig.
func New(opts ...ProberOption) *Prober {
	p := &Prober{config: DefaultProbeConfig()}
	// First pass: let WithConfig land before we size the pool/limiter off it.
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.config = p.config.withDefaults()

	if p.ua == "" {
		p.ua = "rdapstorm/0.1 (+https://example.invalid)"
	}
	if p.hc == nil {
		p.hc = newHTTPPool(p.config.Timeout)
	}
	p.registry = newEndpointRegistry(p.hc, p.ua, "https://data.iana.org/rdap/dns.json", make(http.Header), p.config.Timeout)
	if p.limiter == nil {
		p.limiter = newMemoryEndpointLimiter(p.config.MaxRatePerEndpoint, int(p.config.MaxRatePerEndpoint))
	}
	return p
}

// Clone returns a Prober that shares the HTTP pool, endpoint registry
// (so bootstrap runs at most once across clones), and rate limiter
// with the receiver, but has its own copy of config (which is a plain
// value, so mutating the clone's config never affects the original).
func (p *Prober) Clone() *Prober {
	return &Prober{
		hc:       p.hc,
		ua:       p.ua,
		registry: p.registry,
		limiter:  p.limiter,
		config:   p.config,
	}
}

// Objects returns a rich RDAP object Client sharing this Prober's
// endpoint registry and HTTP pool, so a caller mixing bulk probes with
// one-off lookups never pays for bootstrap twice.
func (p *Prober) Objects(opts ...Option) *Client {
	base := []Option{
		WithHTTPDoer(p.hc),
		WithUserAgent(p.ua),
		WithTimeout(p.config.Timeout),
		WithRegistry(p.registry),
	}
	return NewClient(append(base, opts...)...)
}

// ensureBootstrapped bootstraps the shared registry and returns any
// failure; ProbeOne turns that error into an Unknown reason string.
func (p *Prober) ensureBootstrapped(ctx context.Context) error {
	return p.registry.Bootstrap(ctx)
}

// checkWHOISWithTimeout bounds the WHOIS read by the same per-operation
// Timeout that governs bootstrap and RDAP, since checkWHOIS itself takes
// no deadline of its own.
func (p *Prober) checkWHOISWithTimeout(ctx context.Context, domain string) Availability {
	whoisCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()
	return checkWHOIS(whoisCtx, domain)
}

// ProbeOne probes a single domain: bootstrap, resolve its RDAP
// endpoint, rate-limit, query RDAP, and fall through to WHOIS when
// RDAP is missing or its answer is Unknown and WhoisFallback is
// enabled. Mirrors original_source's probe_one exactly.
func (p *Prober) ProbeOne(ctx context.Context, domain string) ProbeResult {
	start := time.Now()

	if err := p.ensureBootstrapped(ctx); err != nil {
		return ProbeResult{
			Domain:       domain,
			Availability: Unknown("Bootstrap failed: " + err.Error()),
			Duration:     time.Since(start),
		}
	}

	tld, err := ExtractTLD(domain)
	if err != nil {
		return ProbeResult{
			Domain:       domain,
			Availability: Unknown(err.Error()),
			Duration:     time.Since(start),
		}
	}

	endpoint, err := p.registry.GetEndpoint(ctx, tld)
	if err != nil {
		if p.config.WhoisFallback {
			return ProbeResult{
				Domain:       domain,
				Availability: p.checkWHOISWithTimeout(ctx, domain),
				Duration:     time.Since(start),
			}
		}
		return ProbeResult{
			Domain:       domain,
			Availability: Unknown("No RDAP endpoint for ." + tld),
			Duration:     time.Since(start),
		}
	}

	if err := p.limiter.Wait(ctx, endpoint); err != nil {
		return ProbeResult{
			Domain:       domain,
			Availability: Unknown("Request failed: " + err.Error()),
			Duration:     time.Since(start),
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	availability := checkRDAP(reqCtx, p.hc, p.ua, endpoint, domain)
	cancel()

	if availability.IsUnknown() && p.config.WhoisFallback {
		availability = p.checkWHOISWithTimeout(ctx, domain)
	}

	return ProbeResult{
		Domain:       domain,
		Availability: availability,
		Duration:     time.Since(start),
	}
}

// ProbeStream probes every domain with bounded, unordered concurrency
// and streams results back as they complete — a caller can start
// rendering output before the whole batch finishes. The concurrency
// window is sized at MaxConcurrentPerEndpoint*10 (matching
// original_source's buffer_unordered sizing), shared across all
// endpoints, not per endpoint; per-endpoint throughput is governed
// separately by the rate limiter. The returned channel is closed once
// every domain has a result or ctx is done.
func (p *Prober) ProbeStream(ctx context.Context, domains []string) <-chan ProbeResult {
	out := make(chan ProbeResult)
	window := int64(p.config.MaxConcurrentPerEndpoint) * 10
	sem := semaphore.NewWeighted(window)

	go func() {
		defer close(out)
		g, gctx := errgroup.WithContext(ctx)
		for _, domain := range domains {
			domain := domain
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			g.Go(func() error {
				defer sem.Release(1)
				result := p.ProbeOne(gctx, domain)
				select {
				case out <- result:
				case <-ctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// Probe runs a single probe using a freshly constructed default Prober.
func Probe(ctx context.Context, domain string) ProbeResult {
	return New().ProbeOne(ctx, domain)
}

// ProbeMany runs ProbeStream using a freshly constructed default
// Prober and collects every result before returning.
func ProbeMany(ctx context.Context, domains []string) []ProbeResult {
	p := New()
	results := make([]ProbeResult, 0, len(domains))
	for r := range p.ProbeStream(ctx, domains) {
		results = append(results, r)
	}
	return results
}
