package gameversion

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAny(t *testing.T) {
	v, err := Parse("any")
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsEmpty() {
		t.Fatal("expected empty version")
	}
}

func TestParseMajorOnly(t *testing.T) {
	v, err := Parse("5")
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.Major().Get(); !ok || n != 5 {
		t.Fatalf("major = %v, %v", n, ok)
	}
	if _, ok := v.Minor().Get(); ok {
		t.Fatal("expected absent minor")
	}
}

func TestParseFull(t *testing.T) {
	v, err := Parse("0.0.0.15")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.Build().Get(); n != 15 {
		t.Fatalf("build = %d", n)
	}
}

func TestParseTooManyParts(t *testing.T) {
	_, err := Parse("1.2.3.4.5")
	if !errors.Is(err, ErrTooManyParts) {
		t.Fatalf("expected ErrTooManyParts, got %v", err)
	}
}

func TestParseNotInteger(t *testing.T) {
	_, err := Parse("1.2.3b")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestOrderingNoneBelowSome(t *testing.T) {
	a, _ := Parse("1.1.0.0")
	b, _ := Parse("1.1.1")
	if !a.Less(b) {
		t.Fatalf("expected %v < %v", a, b)
	}
}

func TestSpecRoundTripAny(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`"any"`), &s); err != nil {
		t.Fatal(err)
	}
	if !s.IsEmpty() {
		t.Fatal("expected empty")
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"any"` {
		t.Fatalf("got %s", out)
	}
}

func TestSpecRoundTripNull(t *testing.T) {
	var s Spec
	if err := json.Unmarshal([]byte(`null`), &s); err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `null` {
		t.Fatalf("got %s", out)
	}
}

func TestSpecRoundTripComponents(t *testing.T) {
	for _, in := range []string{`"1"`, `"1.2"`, `"1.2.3"`} {
		var s Spec
		if err := json.Unmarshal([]byte(in), &s); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		out, err := json.Marshal(s)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != in {
			t.Fatalf("round-trip mismatch: in=%s out=%s", in, out)
		}
	}
}

func TestSpecRejectsFourComponents(t *testing.T) {
	var s Spec
	err := json.Unmarshal([]byte(`"1.2.3.4"`), &s)
	if err == nil {
		t.Fatal("expected error for 4-component spec")
	}
}
