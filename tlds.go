package rdapstorm

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ianaTLDListURL is the canonical list of all currently assigned
// top-level domains.
const ianaTLDListURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

// FetchIANATLDs downloads and filters the IANA TLD list: blank and
// '#'-prefixed lines are dropped, remaining lines are lowercased, and
// internationalized (punycode, "xn--"-prefixed) TLDs are excluded.
// Grounded on original_source's fetch_iana_tlds, filter rules
// reproduced exactly.
func FetchIANATLDs(ctx context.Context, hc Doer) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ianaTLDListURL, nil)
	if err != nil {
		return nil, &TldError{Cause: err}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &TldError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TldError{Cause: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	var tlds []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tld := strings.ToLower(line)
		if strings.HasPrefix(tld, "xn--") {
			continue
		}
		tlds = append(tlds, tld)
	}
	if err := scanner.Err(); err != nil {
		return nil, &TldError{Cause: err}
	}
	return tlds, nil
}

// ExpandTLDs builds the candidate FQDN list "name.tld" for every tld.
func ExpandTLDs(name string, tlds []string) []string {
	out := make([]string, len(tlds))
	for i, tld := range tlds {
		out[i] = name + "." + tld
	}
	return out
}
