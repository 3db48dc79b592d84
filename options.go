package rdapstorm

import "time"

type Option func(*Client)

func WithHTTPDoer(d Doer) Option          { return func(c *Client) { c.hc = d } }
func WithUserAgent(ua string) Option      { return func(c *Client) { c.ua = ua } }
func WithTimeout(d time.Duration) Option  { return func(c *Client) { c.baseTimeout = d } }
func WithBootstrapURL(u string) Option    { return func(c *Client) { c.registry.bootstrapURL = u } }
func WithIPBootstrapURL(u string) Option  { return func(c *Client) { c.ipBootstrapURL = u } }
func WithASNBootstrapURL(u string) Option { return func(c *Client) { c.asnBootstrapURL = u } }
func WithMaxRetries(n int) Option         { return func(c *Client) { c.maxRetries = n } }
func WithBackoff(b Backoff) Option        { return func(c *Client) { c.backoff = b } }
func WithHeader(k, v string) Option       { return func(c *Client) { c.headerExtra.Add(k, v) } }

// WithNegativeCacheTTL controls how long a 404 response is remembered
// before getJSON re-fetches it. A bulk-probing workload that also uses
// the rich client (e.g. `stormctl domain` right after a `probe` sweep)
// benefits from a short TTL here, since a domain that was free a
// minute ago may already be registered.
func WithNegativeCacheTTL(d time.Duration) Option { return func(c *Client) { c.negativeTTL = d } }

// WithRegistry replaces the client's private EndpointRegistry with a
// shared one, so a rich Client and a Prober never bootstrap DNS
// independently. Used internally by Prober.Objects.
func WithRegistry(r *EndpointRegistry) Option { return func(c *Client) { c.registry = r } }

func WithCacheSizes(tldCap, entityCap int) Option {
	return func(c *Client) {
		if tldCap > 0 {
			c.registry.byTLD.Resize(tldCap)
		}
		if entityCap > 0 {
			c.respCache.Resize(entityCap)
		}
	}
}
