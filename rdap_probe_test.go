package rdapstorm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckRDAP_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   func(Availability) bool
	}{
		{"404 means available", http.StatusNotFound, Availability.IsAvailable},
		{"200 means taken", http.StatusOK, Availability.IsTaken},
		{"429 means unknown", http.StatusTooManyRequests, Availability.IsUnknown},
		{"500 means unknown", http.StatusInternalServerError, Availability.IsUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got, want := r.Header.Get("Accept"), "application/rdap+json, application/json;q=0.8, */*;q=0.1"; got != want {
					t.Errorf("Accept header = %q, want %q", got, want)
				}
				if got := r.Header.Get("User-Agent"); got != "probe-ua/1.0" {
					t.Errorf("User-Agent = %q, want probe-ua/1.0", got)
				}
				w.WriteHeader(c.status)
			}))
			defer srv.Close()

			got := checkRDAP(context.Background(), srv.Client(), "probe-ua/1.0", srv.URL, "example.com")
			if !c.want(got) {
				t.Fatalf("status %d: unexpected availability %v", c.status, got)
			}
		})
	}
}

func TestCheckRDAP_RequestPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	checkRDAP(context.Background(), srv.Client(), "ua", srv.URL, "example.com")
	if gotPath != "/domain/example.com" {
		t.Fatalf("path = %q, want /domain/example.com", gotPath)
	}
}

type erroringDoer struct{ err error }

func (d erroringDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestCheckRDAP_TransportError(t *testing.T) {
	got := checkRDAP(context.Background(), erroringDoer{err: errors.New("boom")}, "ua", "https://rdap.example.invalid", "example.com")
	if !got.IsUnknown() {
		t.Fatalf("expected Unknown on transport error, got %v", got)
	}
}

func TestCheckRDAP_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	got := checkRDAP(ctx, srv.Client(), "ua", srv.URL, "example.com")
	if !got.IsUnknown() {
		t.Fatalf("expected Unknown on timeout, got %v", got)
	}
	if got.Reason() != "Timeout" {
		t.Fatalf("expected reason Timeout, got %q", got.Reason())
	}
}
