// main.go
// A Cobra-based CLI wired into rdapstorm: single-name RDAP lookups
// annotated with a live availability verdict, and a bulk NDJSON sweep.
//
// Subcommands
//   domain                 – fetch one domain's RDAP record and its availability verdict
//   lookup                 – auto-detect and fetch RDAP (ASN/IP/Domain/NS/Entity)
//   probe                  – bulk availability sweep across a TLD set, NDJSON output
//
// Flags
//   --json (default true)  – JSON output; false selects the plain-text renderer
//   --tld                  – hint for entity/lookup resolution
//
// Env options for client/prober construction:
//   STORMCTL_UA, STORMCTL_TIMEOUT, STORMCTL_DNS_BOOTSTRAP, STORMCTL_IP_BOOTSTRAP, STORMCTL_ASN_BOOTSTRAP
//
// Run examples
//   ./stormctl domain example.com
//   ./stormctl lookup ns1.google.com --json=false
//   ./stormctl probe acme --tlds com,net,io --rate 10 --concurrency 20

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	rc "github.com/nimbus-labs/rdapstorm"
)

var (
	flagJSON = true // default to JSON output
	flagTLD  string
)

func main() {
	root := &cobra.Command{
		Use:   "stormctl",
		Short: "Bulk domain-availability CLI, backed by RDAP with a WHOIS fallback",
	}

	root.PersistentFlags().BoolVar(&flagJSON, "json", true, "emit JSON; set --json=false for text output")
	root.PersistentFlags().StringVar(&flagTLD, "tld", "", "TLD hint for entity lookups (e.g., 'com')")

	root.AddCommand(cmdDomain(), cmdLookup(), cmdProbe())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// newSession builds a Prober and a rich object Client that share one
// HTTP pool and one EndpointRegistry, from STORMCTL_* environment
// overrides. The `domain` and `lookup` commands go through this so a
// lookup and the availability verdict sitting next to it never pay for
// two independent bootstrap fetches; `probe` builds its own Prober from
// its flags in runProbe.
func newSession() (*rc.Prober, *rc.Client) {
	cfg := rc.DefaultProbeConfig()
	if to := os.Getenv("STORMCTL_TIMEOUT"); to != "" {
		if d, err := time.ParseDuration(to); err == nil {
			cfg.Timeout = d
		}
	}
	popts := []rc.ProberOption{rc.WithConfig(cfg)}
	if ua := os.Getenv("STORMCTL_UA"); ua != "" {
		popts = append(popts, rc.WithProberUserAgent(ua))
	}
	p := rc.New(popts...)

	var copts []rc.Option
	if u := os.Getenv("STORMCTL_DNS_BOOTSTRAP"); u != "" {
		copts = append(copts, rc.WithBootstrapURL(u))
	}
	if u := os.Getenv("STORMCTL_IP_BOOTSTRAP"); u != "" {
		copts = append(copts, rc.WithIPBootstrapURL(u))
	}
	if u := os.Getenv("STORMCTL_ASN_BOOTSTRAP"); u != "" {
		copts = append(copts, rc.WithASNBootstrapURL(u))
	}
	return p, p.Objects(copts...)
}

// domainReport pairs the full RDAP record with the same availability
// verdict ProbeOne would produce, so a single `domain` call answers
// both "what's on file" and "is it free" without a second round trip
// to decide which question to ask.
type domainReport struct {
	*rc.Domain
	Availability       string `json:"availability"`
	AvailabilityReason string `json:"availabilityReason,omitempty"`
	PendingDelete      bool   `json:"pendingDelete,omitempty"`
}

func reportFor(d *rc.Domain, a rc.Availability) domainReport {
	r := domainReport{Domain: d}
	switch {
	case a.IsAvailable():
		r.Availability = "available"
	case a.IsTaken():
		r.Availability = "taken"
	default:
		r.Availability = "unknown"
		r.AvailabilityReason = a.Reason()
	}
	if d != nil {
		r.PendingDelete = d.IsPendingDelete()
	}
	return r
}

func cmdDomain() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain <fqdn>",
		Short: "Fetch a domain's RDAP record plus a live availability verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, c := newSession()
			ctx := context.Background()

			d, rdapErr := c.Domain(ctx, args[0])
			avail := p.ProbeOne(ctx, args[0]).Availability

			if rdapErr != nil {
				if flagJSON {
					return printJSON(reportFor(nil, avail))
				}
				printHeader("domain", args[0], "")
				fmt.Printf("rdap: %v\n", rdapErr)
				fmt.Printf("availability: %s\n", avail)
				return nil
			}

			if flagJSON {
				return printJSON(reportFor(d, avail))
			}
			printDomain(d, avail)
			return nil
		},
	}
	return cmd
}

func cmdLookup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Auto-detect and fetch RDAP (ASN/IP/Domain/NS/Entity)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, c := newSession()
			ctx := context.Background()
			obj, err := c.Lookup(ctx, args[0], flagTLD)
			if err != nil {
				return err
			}
			return renderObject(p, ctx, obj)
		},
	}
	return cmd
}

// ---- PROBE (bulk availability sweep) ---------------------------------------

var (
	flagProbeTLDs         string
	flagProbeAllTLDs      bool
	flagProbeRate         float64
	flagProbeConcurrency  int
	flagProbeTimeout      time.Duration
	flagProbeNoWhois      bool
	flagProbeRetryUnknown int
)

func cmdProbe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <name>",
		Short: "Bulk-probe <name>.<tld> across a TLD set, streaming NDJSON results",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runProbe(args[0])
		},
	}
	cmd.Flags().StringVar(&flagProbeTLDs, "tlds", "com,net,org,io,dev,app,ai,co,me", "comma-separated TLD list to probe")
	cmd.Flags().BoolVar(&flagProbeAllTLDs, "all-tlds", false, "probe against the full IANA TLD list instead of --tlds")
	cmd.Flags().Float64Var(&flagProbeRate, "rate", 20, "sustained requests/second per RDAP endpoint")
	cmd.Flags().IntVar(&flagProbeConcurrency, "concurrency", 10, "concurrency window sizing factor (see Prober.ProbeStream)")
	cmd.Flags().DurationVar(&flagProbeTimeout, "timeout", 5*time.Second, "per-operation timeout (bootstrap, RDAP, WHOIS)")
	cmd.Flags().BoolVar(&flagProbeNoWhois, "no-whois", false, "disable WHOIS fallback; report Unknown when RDAP can't answer")
	cmd.Flags().IntVar(&flagProbeRetryUnknown, "retry-unknown", 0, "re-probe Unknown results this many times, backing off between waves")
	return cmd
}

func runProbe(name string) error {
	ctx := context.Background()

	p := rc.New(
		rc.WithConfig(rc.ProbeConfig{
			Timeout:                  flagProbeTimeout,
			WhoisFallback:            !flagProbeNoWhois,
			MaxRatePerEndpoint:       flagProbeRate,
			MaxConcurrentPerEndpoint: flagProbeConcurrency,
		}),
	)

	var domains []string
	if flagProbeAllTLDs {
		tlds, err := rc.FetchIANATLDs(ctx, http.DefaultClient)
		if err != nil {
			return fmt.Errorf("fetching IANA TLD list: %w", err)
		}
		domains = rc.ExpandTLDs(name, tlds)
	} else {
		tlds := strings.Split(flagProbeTLDs, ",")
		for i := range tlds {
			tlds[i] = strings.TrimSpace(tlds[i])
		}
		domains = rc.ExpandTLDs(name, tlds)
	}

	results := make(map[string]rc.ProbeResult, len(domains))
	pending := domains
	backoff := rc.ExponentialBackoff(500*time.Millisecond, 2.0, 10*time.Second)

	for wave := 0; ; wave++ {
		var unresolved []string
		for r := range p.ProbeStream(ctx, pending) {
			results[r.Domain] = r
			if err := emitNDJSON(r); err != nil {
				return err
			}
			if r.Availability.IsUnknown() {
				unresolved = append(unresolved, r.Domain)
			}
		}
		if len(unresolved) == 0 || wave >= flagProbeRetryUnknown {
			break
		}
		time.Sleep(backoff(wave + 1))
		pending = unresolved
	}
	return nil
}

type probeRecord struct {
	Domain   string `json:"domain"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Duration string `json:"duration"`
}

func emitNDJSON(r rc.ProbeResult) error {
	rec := probeRecord{
		Domain:   r.Domain,
		Duration: r.Duration.String(),
	}
	switch {
	case r.Availability.IsAvailable():
		rec.Status = "available"
	case r.Availability.IsTaken():
		rec.Status = "taken"
	default:
		rec.Status = "unknown"
		rec.Reason = r.Availability.Reason()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// ---- Rendering for single objects -----------------------------------------

// renderObject prints whatever Lookup resolved to. A *rc.Domain also
// gets a live availability verdict from p, mirroring `domain`'s
// behavior; the other RDAP object classes carry no notion of
// availability so they print as-is.
func renderObject(p *rc.Prober, ctx context.Context, obj any) error {
	switch v := obj.(type) {
	case *rc.Domain:
		avail := p.ProbeOne(ctx, v.LDHName).Availability
		if flagJSON {
			return printJSON(reportFor(v, avail))
		}
		printDomain(v, avail)
	case *rc.Nameserver:
		if flagJSON {
			return printJSON(v)
		}
		printNameserver(v)
	case *rc.IPNetwork:
		if flagJSON {
			return printJSON(v)
		}
		printIPNet(v)
	case *rc.Autnum:
		if flagJSON {
			return printJSON(v)
		}
		printAutnum(v)
	case *rc.Entity:
		if flagJSON {
			return printJSON(v)
		}
		printEntity(v)
	default:
		return errors.New("unknown object type")
	}
	return nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printHeader(kind, handle, extra string) {
	fmt.Printf("\n=== %s: %s %s===\n", strings.ToUpper(kind), handle, extra)
}

func printDomain(d *rc.Domain, avail rc.Availability) {
	printHeader("domain", d.LDHName, "")
	fmt.Printf("availability: %s\n", avail)
	fmt.Printf("handle: %s\n", d.Handle)
	if len(d.Status) > 0 {
		fmt.Printf("status: %v\n", d.Status)
	}
	if d.IsPendingDelete() {
		fmt.Println("note: pending delete — likely to become available soon")
	}
	if d.SecureDNS != nil {
		fmt.Printf("dnssec: zoneSigned=%v delegationSigned=%v\n", d.SecureDNS.ZoneSigned, d.SecureDNS.DelegationSigned)
	}
	if len(d.Nameservers) > 0 {
		fmt.Println("nameservers:")
		for _, ns := range d.Nameservers {
			fmt.Printf("  - %s\n", ns.LDHName)
		}
	}
	if len(d.Entities) > 0 {
		fmt.Println("entities:")
		for _, e := range d.Entities {
			fmt.Printf("  - %s (%v)\n", e.Handle, e.Roles)
		}
	}
}

func printNameserver(n *rc.Nameserver) {
	printHeader("nameserver", n.LDHName, "")
	fmt.Printf("handle: %s\n", n.Handle)
	if n.IPAddresses != nil {
		if len(n.IPAddresses.V4) > 0 {
			fmt.Printf("v4: %v\n", n.IPAddresses.V4)
		}
		if len(n.IPAddresses.V6) > 0 {
			fmt.Printf("v6: %v\n", n.IPAddresses.V6)
		}
	}
	if len(n.Entities) > 0 {
		fmt.Println("entities:")
		for _, e := range n.Entities {
			fmt.Printf("  - %s (%v)\n", e.Handle, e.Roles)
		}
	}
}

func printIPNet(n *rc.IPNetwork) {
	printHeader("ip network", n.Handle, fmt.Sprintf("(%s %s-%s) ", n.IPVersion, n.StartAddress, n.EndAddress))
	fmt.Printf("name: %s country: %s parent: %s\n", n.Name, n.Country, n.ParentHandle)
}

func printAutnum(a *rc.Autnum) {
	printHeader("autnum", a.Handle, fmt.Sprintf("(%d-%d) ", a.StartAutnum, a.EndAutnum))
	fmt.Printf("name: %s country: %s type: %s\n", a.Name, a.Country, a.Type)
}

func printEntity(e *rc.Entity) {
	printHeader("entity", e.Handle, "")
	if len(e.Roles) > 0 {
		fmt.Printf("roles: %v\n", e.Roles)
	}
}
