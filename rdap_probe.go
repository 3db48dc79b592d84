package rdapstorm

import (
	"context"
	"net/http"
	"strconv"
)

// checkRDAP issues a single RDAP domain lookup against endpoint and
// maps the outcome to an Availability. It never retries: a probe that
// gets an inconclusive answer is the caller's (Prober's) business to
// retry or fall through to WHOIS, not this function's. Grounded on
// original_source's check_rdap — the status table is reproduced
// exactly (404 Available, 200 Taken, 429 "Rate limited", any other
// status "HTTP {code}", transport error "Request failed: {err}",
// timeout "Timeout").
func checkRDAP(ctx context.Context, hc Doer, ua, endpoint, domain string) Availability {
	url := mustJoin(endpoint, "/domain/", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unknown("Request failed: " + err.Error())
	}
	req.Header.Set("Accept", "application/rdap+json, application/json;q=0.8, */*;q=0.1")
	req.Header.Set("User-Agent", ua)

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Unknown("Timeout")
		}
		return Unknown("Request failed: " + err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return Available()
	case http.StatusOK:
		return Taken()
	case http.StatusTooManyRequests:
		return Unknown("Rate limited")
	default:
		return Unknown("HTTP " + strconv.Itoa(resp.StatusCode))
	}
}
