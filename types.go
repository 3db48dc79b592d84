// Package rdapstorm is a bulk domain-availability prober: given a
// base name and a set of TLDs it determines, for each candidate FQDN,
// whether the name is registered, free, or indeterminate. It
// discovers RDAP endpoints from the IANA bootstrap registry, queries
// them over a pooled HTTPS client with per-endpoint rate limiting,
// and falls back to WHOIS when RDAP is unavailable or inconclusive.
package rdapstorm

import "time"

// Availability is the verdict for a single probed domain.
type Availability struct {
	kind   availabilityKind
	reason string
}

type availabilityKind uint8

const (
	availabilityAvailable availabilityKind = iota
	availabilityTaken
	availabilityUnknown
)

// Available reports that no registration record was found.
func Available() Availability { return Availability{kind: availabilityAvailable} }

// Taken reports that a registration record exists.
func Taken() Availability { return Availability{kind: availabilityTaken} }

// Unknown reports that the oracle could not give a definitive
// verdict. reason is a short, human-readable, opaque string; callers
// must not pattern-match on it beyond display.
func Unknown(reason string) Availability {
	return Availability{kind: availabilityUnknown, reason: reason}
}

// IsAvailable reports whether the availability is Available.
func (a Availability) IsAvailable() bool { return a.kind == availabilityAvailable }

// IsTaken reports whether the availability is Taken.
func (a Availability) IsTaken() bool { return a.kind == availabilityTaken }

// IsUnknown reports whether the availability is Unknown.
func (a Availability) IsUnknown() bool { return a.kind == availabilityUnknown }

// Reason returns the Unknown reason string, or "" for Available/Taken.
func (a Availability) Reason() string { return a.reason }

// String renders a short human form, e.g. "available", "taken", or
// `unknown (Timeout)`.
func (a Availability) String() string {
	switch a.kind {
	case availabilityAvailable:
		return "available"
	case availabilityTaken:
		return "taken"
	default:
		return "unknown (" + a.reason + ")"
	}
}

// Equal compares two Availability values, including the Unknown
// reason string.
func (a Availability) Equal(b Availability) bool {
	return a.kind == b.kind && a.reason == b.reason
}

// ProbeResult is the immutable outcome of probing a single domain.
// Domain echoes the input verbatim.
type ProbeResult struct {
	Domain       string
	Availability Availability
	Duration     time.Duration
}

// ProbeConfig is immutable configuration consumed at Prober
// construction time.
type ProbeConfig struct {
	// Timeout applies independently to each network operation:
	// bootstrap fetch, RDAP request, WHOIS read.
	Timeout time.Duration
	// WhoisFallback enables the WHOIS oracle when RDAP is missing or
	// inconclusive.
	WhoisFallback bool
	// MaxRatePerEndpoint is the sustained token-bucket rate, in
	// requests/second, applied independently to every RDAP endpoint.
	// Must be >= 1.
	MaxRatePerEndpoint float64
	// MaxConcurrentPerEndpoint sizes the unordered-stream concurrency
	// window (the window itself is global, not per endpoint; see
	// Prober.ProbeStream).
	MaxConcurrentPerEndpoint int
}

// DefaultProbeConfig returns the spec's default configuration: 5s
// timeout, WHOIS fallback on, 20 rps per endpoint, concurrency window
// sized for 10.
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Timeout:                  5 * time.Second,
		WhoisFallback:            true,
		MaxRatePerEndpoint:       20,
		MaxConcurrentPerEndpoint: 10,
	}
}

func (c ProbeConfig) withDefaults() ProbeConfig {
	d := DefaultProbeConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxRatePerEndpoint < 1 {
		c.MaxRatePerEndpoint = d.MaxRatePerEndpoint
	}
	if c.MaxConcurrentPerEndpoint <= 0 {
		c.MaxConcurrentPerEndpoint = d.MaxConcurrentPerEndpoint
	}
	return c
}
