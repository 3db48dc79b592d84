package rdapstorm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EndpointRegistry maps TLDs to RDAP base URLs via the IANA DNS
// bootstrap registry. Each registry bootstraps at most once unless
// RefreshBootstrap is called explicitly, and is safe for concurrent
// use by both the probe engine and the rich object client — they
// share one registry so a bulk probe and a one-off lookup never pay
// for two independent bootstrap fetches.
type EndpointRegistry struct {
	hc           Doer
	ua           string
	headerExtra  http.Header
	bootstrapURL string
	timeout      time.Duration

	mu           sync.Mutex
	bootstrapped atomic.Bool
	byTLD        *ttlCache[string]
	respCache    *respCache
}

func newEndpointRegistry(hc Doer, ua, bootstrapURL string, headerExtra http.Header, timeout time.Duration) *EndpointRegistry {
	return &EndpointRegistry{
		hc:           hc,
		ua:           ua,
		headerExtra:  headerExtra,
		bootstrapURL: bootstrapURL,
		timeout:      timeout,
		byTLD:        newTTLCache[string](0, 4096),
		respCache:    newRespCache(4, 0),
	}
}

// Bootstrap fetches the IANA DNS bootstrap document if it hasn't been
// fetched yet. Concurrent callers wait on one in-flight fetch; once a
// fetch has succeeded later calls are no-ops, and after a failed fetch
// the next caller fetches again.
func (r *EndpointRegistry) Bootstrap(ctx context.Context) error {
	return r.bootstrap(ctx, false)
}

// RefreshBootstrap forces a re-fetch regardless of prior state.
func (r *EndpointRegistry) RefreshBootstrap(ctx context.Context) error {
	return r.bootstrap(ctx, true)
}

func (r *EndpointRegistry) bootstrap(ctx context.Context, force bool) error {
	if r.bootstrapped.Load() && !force {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bootstrapped.Load() && !force {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.bootstrapURL, nil)
	if err != nil {
		return fetchError(err)
	}
	req.Header.Set("User-Agent", r.ua)
	copyHeaders(req.Header, r.headerExtra)

	if meta, ok := r.respCache.Meta(r.bootstrapURL); ok && !force {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if !meta.LastModified.IsZero() {
			req.Header.Set("If-Modified-Since", meta.LastModified.Format(http.TimeFormat))
		}
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return fetchError(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		r.bootstrapped.Store(true)
		return nil
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fetchError(err)
		}
		var doc struct {
			Services [][]any `json:"services"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return fetchError(fmt.Errorf("parse bootstrap: %w", err))
		}
		for _, svc := range doc.Services {
			if len(svc) != 2 {
				continue
			}
			tlds := toStringSlice(svc[0])
			urls := toStringSlice(svc[1])
			if len(urls) == 0 {
				continue
			}
			base := strings.TrimRight(urls[0], "/")
			for _, tld := range tlds {
				r.byTLD.Set(strings.ToLower(tld), base)
			}
		}
		r.respCache.StoreMeta(r.bootstrapURL, resp.Header)
		r.bootstrapped.Store(true)
		return nil
	default:
		return fetchError(fmt.Errorf("bootstrap fetch failed: %s", resp.Status))
	}
}

// GetEndpoint returns the RDAP base URL for tld, bootstrapping first
// if necessary. tld is matched case-insensitively.
func (r *EndpointRegistry) GetEndpoint(ctx context.Context, tld string) (string, error) {
	if err := r.Bootstrap(ctx); err != nil {
		return "", err
	}
	tld = strings.ToLower(strings.TrimSpace(tld))
	base, ok := r.byTLD.Get(tld)
	if !ok {
		return "", noEndpointError(tld)
	}
	return base, nil
}

// ExtractTLD returns the lowercased last label of domain. It rejects
// domains with no dot and domains whose last label is empty — which
// includes a trailing dot, since the label after it is empty. This
// mirrors a plain rsplit('.').next() over the untrimmed string: a
// trailing dot is never special-cased away.
func ExtractTLD(domain string) (string, error) {
	d := strings.TrimSpace(domain)
	if d == "" {
		return "", invalidDomainError(domain)
	}
	idx := strings.LastIndex(d, ".")
	if idx < 0 {
		return "", invalidDomainError(domain)
	}
	tld := strings.ToLower(d[idx+1:])
	if tld == "" {
		return "", invalidDomainError(domain)
	}
	return tld, nil
}
