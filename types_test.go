package rdapstorm

import "testing"

func TestAvailability_Predicates(t *testing.T) {
	a := Available()
	if !a.IsAvailable() || a.IsTaken() || a.IsUnknown() {
		t.Fatalf("Available() predicates wrong: %+v", a)
	}
	if got, want := a.String(), "available"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	tk := Taken()
	if !tk.IsTaken() || tk.IsAvailable() || tk.IsUnknown() {
		t.Fatalf("Taken() predicates wrong: %+v", tk)
	}
	if got, want := tk.String(), "taken"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	u := Unknown("Timeout")
	if !u.IsUnknown() || u.IsAvailable() || u.IsTaken() {
		t.Fatalf("Unknown() predicates wrong: %+v", u)
	}
	if got, want := u.Reason(), "Timeout"; got != want {
		t.Fatalf("Reason() = %q, want %q", got, want)
	}
	if got, want := u.String(), "unknown (Timeout)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestAvailability_Equal(t *testing.T) {
	if !Available().Equal(Available()) {
		t.Fatalf("Available() should equal itself")
	}
	if Available().Equal(Taken()) {
		t.Fatalf("Available() should not equal Taken()")
	}
	if !Unknown("x").Equal(Unknown("x")) {
		t.Fatalf("Unknown(x) should equal Unknown(x)")
	}
	if Unknown("x").Equal(Unknown("y")) {
		t.Fatalf("Unknown(x) should not equal Unknown(y)")
	}
}

func TestProbeConfig_WithDefaults(t *testing.T) {
	cfg := ProbeConfig{}.withDefaults()
	d := DefaultProbeConfig()
	if cfg.Timeout != d.Timeout {
		t.Fatalf("Timeout default: got %v want %v", cfg.Timeout, d.Timeout)
	}
	if cfg.MaxRatePerEndpoint != d.MaxRatePerEndpoint {
		t.Fatalf("MaxRatePerEndpoint default: got %v want %v", cfg.MaxRatePerEndpoint, d.MaxRatePerEndpoint)
	}
	if cfg.MaxConcurrentPerEndpoint != d.MaxConcurrentPerEndpoint {
		t.Fatalf("MaxConcurrentPerEndpoint default: got %v want %v", cfg.MaxConcurrentPerEndpoint, d.MaxConcurrentPerEndpoint)
	}
	if cfg.WhoisFallback {
		t.Fatalf("WhoisFallback should not be defaulted to true, zero value stands")
	}

	// Explicit values pass through untouched.
	custom := ProbeConfig{Timeout: 7, MaxRatePerEndpoint: 3, MaxConcurrentPerEndpoint: 2, WhoisFallback: true}.withDefaults()
	if custom.Timeout != 7 || custom.MaxRatePerEndpoint != 3 || custom.MaxConcurrentPerEndpoint != 2 || !custom.WhoisFallback {
		t.Fatalf("withDefaults overrode explicit values: %+v", custom)
	}
}
