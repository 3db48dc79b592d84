package rdapstorm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestProber wires a Prober straight to a local RDAP test server,
// bypassing New's hardcoded IANA bootstrap URL (package-internal test,
// so touching the unexported fields directly is fine).
func newTestProber(t *testing.T, srv *httptest.Server, cfg ProbeConfig) *Prober {
	t.Helper()
	cfg = cfg.withDefaults()
	p := &Prober{
		hc:      srv.Client(),
		ua:      "prober-test/1.0",
		config:  cfg,
		limiter: newMemoryEndpointLimiter(cfg.MaxRatePerEndpoint, int(cfg.MaxRatePerEndpoint)),
	}
	p.registry = newEndpointRegistry(p.hc, p.ua, srv.URL+"/bootstrap", make(http.Header), cfg.Timeout)
	return p
}

// domainStatus maps FQDN -> RDAP HTTP status the fake registry returns.
func newRDAPServer(t *testing.T, domainStatus map[string]int) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"services": [[["com","net","io"], [%q]]]}`, srv.URL)
	})
	mux.HandleFunc("/domain/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/domain/"):]
		status, ok := domainStatus[name]
		if !ok {
			status = http.StatusNotFound
		}
		w.WriteHeader(status)
	})
	srv = httptest.NewServer(mux)
	return srv
}

func TestProber_ProbeOne_Available(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	res := p.ProbeOne(context.Background(), "freename.com")
	if !res.Availability.IsAvailable() {
		t.Fatalf("expected Available, got %v", res.Availability)
	}
	if res.Domain != "freename.com" {
		t.Fatalf("Domain echo wrong: %q", res.Domain)
	}
}

func TestProber_ProbeOne_Taken(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{"google.com": http.StatusOK})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	res := p.ProbeOne(context.Background(), "google.com")
	if !res.Availability.IsTaken() {
		t.Fatalf("expected Taken, got %v", res.Availability)
	}
}

func TestProber_ProbeOne_NoEndpointWithoutWhois(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	res := p.ProbeOne(context.Background(), "example.zz")
	if !res.Availability.IsUnknown() {
		t.Fatalf("expected Unknown for unmapped TLD, got %v", res.Availability)
	}
}

func TestProber_ProbeOne_InvalidDomain(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	res := p.ProbeOne(context.Background(), "nodot")
	if !res.Availability.IsUnknown() {
		t.Fatalf("expected Unknown for invalid domain, got %v", res.Availability)
	}
}

func TestProber_ProbeStream_AllDomainsReported(t *testing.T) {
	domains := make([]string, 0, 30)
	status := map[string]int{}
	for i := 0; i < 30; i++ {
		d := fmt.Sprintf("name%d.com", i)
		domains = append(domains, d)
		if i%3 == 0 {
			status[d] = http.StatusOK
		}
	}
	srv := newRDAPServer(t, status)
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false, MaxConcurrentPerEndpoint: 5})

	seen := make(map[string]Availability, len(domains))
	for r := range p.ProbeStream(context.Background(), domains) {
		seen[r.Domain] = r.Availability
	}

	if len(seen) != len(domains) {
		t.Fatalf("expected %d results, got %d", len(domains), len(seen))
	}
	for _, d := range domains {
		av, ok := seen[d]
		if !ok {
			t.Fatalf("missing result for %s", d)
		}
		if status[d] == http.StatusOK && !av.IsTaken() {
			t.Errorf("%s: expected Taken, got %v", d, av)
		}
		if status[d] == 0 && !av.IsAvailable() {
			t.Errorf("%s: expected Available, got %v", d, av)
		}
	}
}

func TestProber_ProbeStream_RespectsContextCancellation(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	domains := []string{"a.com", "b.com", "c.com"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var results []string
	for r := range p.ProbeStream(ctx, domains) {
		results = append(results, r.Domain)
	}
	if len(results) > len(domains) {
		t.Fatalf("got more results than requested domains: %v", results)
	}
}

func TestProber_Clone_SharesRegistryAndLimiter(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})
	clone := p.Clone()

	if clone.registry != p.registry {
		t.Fatalf("Clone should share the same EndpointRegistry pointer")
	}
	if clone.limiter != p.limiter {
		t.Fatalf("Clone should share the same limiter")
	}

	// Mutating the clone's config must not affect the original.
	clone.config.WhoisFallback = true
	if p.config.WhoisFallback {
		t.Fatalf("Prober.config should be a value copy, independent across clones")
	}
}

func TestProber_Objects_SharesRegistry(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	c := p.Objects()
	if c.registry != p.registry {
		t.Fatalf("Prober.Objects() should share the Prober's EndpointRegistry")
	}
}

func TestProber_ProbeOne_Duration(t *testing.T) {
	srv := newRDAPServer(t, map[string]int{})
	defer srv.Close()
	p := newTestProber(t, srv, ProbeConfig{WhoisFallback: false})

	res := p.ProbeOne(context.Background(), "timed.com")
	if res.Duration <= 0 {
		t.Fatalf("expected positive duration, got %v", res.Duration)
	}
	if res.Duration > 5*time.Second {
		t.Fatalf("duration suspiciously large for a local test server: %v", res.Duration)
	}
}

