package rdapstorm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
)

// redirectDoer sends every request to srv whatever its URL, so the
// fixed IANA list URL FetchIANATLDs requests lands on the test server.
type redirectDoer struct{ srv *httptest.Server }

func (d redirectDoer) Do(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(d.srv.URL)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	req.Host = u.Host
	return d.srv.Client().Do(req)
}

func TestFetchIANATLDs_FiltersAndLowercases(t *testing.T) {
	body := "# Version 2024013100, Last Updated Wed Jan 31 07:07:01 2024 UTC\n" +
		"COM\n" +
		"\n" +
		"NET\n" +
		"XN--P1AI\n" +
		"  IO  \n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	got, err := FetchIANATLDs(context.Background(), redirectDoer{srv})
	if err != nil {
		t.Fatalf("FetchIANATLDs: %v", err)
	}
	want := []string{"com", "net", "io"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFetchIANATLDs_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := FetchIANATLDs(context.Background(), redirectDoer{srv})
	if err == nil {
		t.Fatalf("expected error for non-200 status")
	}
	var te *TldError
	if !errorsAs(err, &te) {
		t.Fatalf("expected *TldError, got %T", err)
	}
}

func TestExpandTLDs(t *testing.T) {
	got := ExpandTLDs("acme", []string{"com", "net", "io"})
	want := []string{"acme.com", "acme.net", "acme.io"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
