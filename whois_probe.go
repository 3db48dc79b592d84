package rdapstorm

import (
	"context"
	"errors"
	"strings"

	whois "github.com/domainr/whois"
)

// whoisServers maps a handful of well-known TLDs to their
// authoritative WHOIS host. Unlisted TLDs return Unknown rather than
// guessing at a server, since querying the wrong host silently
// produces a confident-looking but meaningless response. Reproduced
// exactly from original_source's check_whois server table.
var whoisServers = map[string]string{
	"com": "whois.verisign-grs.com",
	"net": "whois.verisign-grs.com",
	"org": "whois.pir.org",
	"io":  "whois.nic.io",
	"dev": "whois.nic.google",
	"app": "whois.nic.google",
	"ai":  "whois.nic.ai",
	"co":  "whois.nic.co",
	"me":  "whois.nic.me",
}

// checkWHOIS is the fallback oracle used when RDAP is unavailable or
// inconclusive. It connects to the TLD's WHOIS host over raw TCP/43 via
// github.com/domainr/whois (grounded on
// network-services-operator/internal/registrydata/whois.go's transport
// choice) and classifies the response body by substring, exactly as
// original_source's check_whois does: "no match"/"not found"/"no data
// found"/"no entries found" -> Available; "domain name:"/"registrar:"
// -> Taken; anything else -> Unknown{"Ambiguous WHOIS response"}.
func checkWHOIS(ctx context.Context, domain string) Availability {
	tld, err := ExtractTLD(domain)
	if err != nil {
		return Unknown("Invalid domain")
	}

	host, ok := whoisServers[tld]
	if !ok {
		return Unknown("No WHOIS server for ." + tld)
	}

	body, err := fetchWHOIS(ctx, domain, host)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Unknown("WHOIS timeout")
		}
		return Unknown("WHOIS error: " + err.Error())
	}

	lower := strings.ToLower(body)
	switch {
	case containsAny(lower, "no match", "not found", "no data found", "no entries found"):
		return Available()
	case containsAny(lower, "domain name:", "registrar:"):
		return Taken()
	default:
		return Unknown("Ambiguous WHOIS response")
	}
}

// fetchWHOIS is a var so tests can replace it with a stub that returns
// canned response text without a live WHOIS server.
var fetchWHOIS = func(ctx context.Context, query, host string) (string, error) {
	req, err := whois.NewRequest(query)
	if err != nil {
		return "", err
	}
	req.Host = host
	resp, err := whois.DefaultClient.FetchContext(ctx, req)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}
