package rdapstorm

import (
	"context"
	"errors"
	"testing"
)

func withFetchWHOIS(t *testing.T, fn func(ctx context.Context, query, host string) (string, error)) {
	t.Helper()
	orig := fetchWHOIS
	fetchWHOIS = fn
	t.Cleanup(func() { fetchWHOIS = orig })
}

func TestCheckWHOIS_AvailableClassification(t *testing.T) {
	for _, body := range []string{
		"No match for domain \"EXAMPLE.COM\".",
		"NOT FOUND",
		"No Data Found",
		"No entries found for the selected source(s).",
	} {
		withFetchWHOIS(t, func(ctx context.Context, query, host string) (string, error) {
			return body, nil
		})
		got := checkWHOIS(context.Background(), "example.com")
		if !got.IsAvailable() {
			t.Errorf("body %q: expected Available, got %v", body, got)
		}
	}
}

func TestCheckWHOIS_TakenClassification(t *testing.T) {
	for _, body := range []string{
		"Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar, LLC",
		"registrar: Some Registrar Inc.",
	} {
		withFetchWHOIS(t, func(ctx context.Context, query, host string) (string, error) {
			return body, nil
		})
		got := checkWHOIS(context.Background(), "example.com")
		if !got.IsTaken() {
			t.Errorf("body %q: expected Taken, got %v", body, got)
		}
	}
}

func TestCheckWHOIS_AmbiguousResponse(t *testing.T) {
	withFetchWHOIS(t, func(ctx context.Context, query, host string) (string, error) {
		return "this response matches neither pattern", nil
	})
	got := checkWHOIS(context.Background(), "example.com")
	if !got.IsUnknown() || got.Reason() != "Ambiguous WHOIS response" {
		t.Fatalf("expected ambiguous Unknown, got %v", got)
	}
}

func TestCheckWHOIS_UnmappedTLD(t *testing.T) {
	got := checkWHOIS(context.Background(), "example.zz")
	if !got.IsUnknown() || got.Reason() != "No WHOIS server for .zz" {
		t.Fatalf("expected unmapped-TLD Unknown, got %v", got)
	}
}

func TestCheckWHOIS_InvalidDomain(t *testing.T) {
	got := checkWHOIS(context.Background(), "nodot")
	if !got.IsUnknown() || got.Reason() != "Invalid domain" {
		t.Fatalf("expected invalid-domain Unknown, got %v", got)
	}
}

func TestCheckWHOIS_TimeoutAndTransportError(t *testing.T) {
	withFetchWHOIS(t, func(ctx context.Context, query, host string) (string, error) {
		return "", context.DeadlineExceeded
	})
	got := checkWHOIS(context.Background(), "example.com")
	if !got.IsUnknown() || got.Reason() != "WHOIS timeout" {
		t.Fatalf("expected WHOIS timeout, got %v", got)
	}

	withFetchWHOIS(t, func(ctx context.Context, query, host string) (string, error) {
		return "", errors.New("connection refused")
	})
	got = checkWHOIS(context.Background(), "example.com")
	if !got.IsUnknown() {
		t.Fatalf("expected Unknown on transport error, got %v", got)
	}
}
