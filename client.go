package rdapstorm

import (
	"context"
	"net/http"
	"time"
)

// Doer is the minimal http.Client interface we depend on (handy for tests/mocks).
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a concurrency-safe rich RDAP object client (domain,
// nameserver, entity, IP network, and AS number lookups). It shares
// its DNS endpoint resolution with the bulk Prober when constructed
// via Prober.Objects, so the two never bootstrap independently.
type Client struct {
	// HTTP / defaults
	hc          Doer
	ua          string
	baseTimeout time.Duration
	headerExtra http.Header

	// sources
	ipBootstrapURL  string // IANA IP bootstrap
	asnBootstrapURL string // IANA ASN bootstrap

	// registry resolves TLD -> RDAP base URL; respCache backs object lookups.
	registry  *EndpointRegistry
	respCache *respCache        // url -> cachedResponse
	miscCache *ttlCache[string] // "asn:"/"ip:" prefixed keys -> base URL

	// behavior
	maxRetries  int
	backoff     Backoff
	negativeTTL time.Duration // how long a 404 is remembered before re-fetching
	now         func() time.Time
}

// NewClient returns a ready Client with good defaults and its own
// private EndpointRegistry. Use Prober.Objects to share a registry
// instead.
func NewClient(opts ...Option) *Client {
	hc := defaultHTTPClient()
	ua := "rdapstorm/0.1 (+https://example.invalid)"
	baseTimeout := 10 * time.Second
	headerExtra := make(http.Header)

	c := &Client{
		hc:              hc,
		ua:              ua,
		baseTimeout:     baseTimeout,
		ipBootstrapURL:  "https://data.iana.org/rdap/ipv4.json", // covers v4 and v6 via ipv6.json; see options
		asnBootstrapURL: "https://data.iana.org/rdap/asn.json",
		headerExtra:     headerExtra,

		registry:  newEndpointRegistry(hc, ua, "https://data.iana.org/rdap/dns.json", headerExtra, baseTimeout),
		respCache: newRespCache(512, 10*time.Minute),
		miscCache: newTTLCache[string](6*time.Hour, 256),

		maxRetries:  2,
		backoff:     ExponentialBackoff(200*time.Millisecond, 2.0, 2*time.Second),
		negativeTTL: 5 * time.Minute,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultHTTPClient() *http.Client { return &http.Client{Timeout: 15 * time.Second} }

// RefreshBootstrap forces a re-fetch of the shared IANA DNS bootstrap right now.
func (c *Client) RefreshBootstrap(ctx context.Context) error { return c.registry.RefreshBootstrap(ctx) }

func (c *Client) rdapBaseForDomain(ctx context.Context, fqdn string) (string, error) {
	tld, err := ExtractTLD(fqdn)
	if err != nil {
		return "", err
	}
	return c.registry.GetEndpoint(ctx, tld)
}

func (c *Client) rdapBaseForTLD(ctx context.Context, tld string) (string, error) {
	return c.registry.GetEndpoint(ctx, trimDotLower(tld))
}
