package moduleversion

import "testing"

// Scenarios mirror the CKAN-core test suite the ordering rules were lifted
// from (CKAN/Tests/Core/Versioning/ModuleVersionTests.cs).

func assertLess(t *testing.T, a, b string) {
	t.Helper()
	va, vb := Parse(a), Parse(b)
	if !va.Less(vb) {
		t.Errorf("expected %q < %q", a, b)
	}
	if vb.Compare(va) <= 0 {
		t.Errorf("expected %q > %q", b, a)
	}
}

func assertEqual(t *testing.T, a, b string) {
	t.Helper()
	va, vb := Parse(a), Parse(b)
	if !va.Equal(vb) {
		t.Errorf("expected %q == %q", a, b)
	}
	if va.HashKey() != vb.HashKey() {
		t.Errorf("expected HashKey(%q) == HashKey(%q)", a, b)
	}
}

func TestDifferentEpoch(t *testing.T) {
	assertLess(t, "banana", "1:alpha")
	assertLess(t, "0:alpha", "banana")
	assertLess(t, "2:banana", "3:alpha")
}

func TestAlpha(t *testing.T) {
	assertLess(t, "alpha", "banana")
}

func TestBasic(t *testing.T) {
	assertEqual(t, "1.2.0", "1.2.0")
	assertLess(t, "1.2.0", "1.2.2")
}

func TestZeroPaddingEquivalence(t *testing.T) {
	assertEqual(t, "1.1", "1.01")
}

func TestDotHasSortPriority(t *testing.T) {
	assertLess(t, "1.0-beta", "1.0.1-beta")
	assertLess(t, "1.0_beta", "1.0.1_beta")
}

func TestDotForExtraData(t *testing.T) {
	assertLess(t, "1.0", "1.0.repackaged")
	assertLess(t, "1.0.repackaged", "1.0.1")
}

func TestSubversionOverMetadata(t *testing.T) {
	assertLess(t, "1.beta", "1.4")
}

func TestDotSegmentsCompareLexicographically(t *testing.T) {
	assertLess(t, "1.alpha", "1.beta")
}

func TestUnevenVersioning(t *testing.T) {
	assertLess(t, "1.1.0.0", "1.1.1")
}

func TestComplex(t *testing.T) {
	assertLess(t, "v6a5", "v6a12")
}

func TestTotalOrderTransitivity(t *testing.T) {
	versions := []string{"1:alpha", "banana", "1.0", "1.0.1", "1.01", "1.1", "1.10", "1.2", "v6a5", "v6a12"}
	for _, a := range versions {
		for _, b := range versions {
			for _, c := range versions {
				va, vb, vc := Parse(a), Parse(b), Parse(c)
				if va.Less(vb) && vb.Less(vc) && !va.Less(vc) {
					t.Errorf("transitivity violated: %q < %q < %q but not %q < %q", a, b, c, a, c)
				}
			}
		}
	}
}

func TestTakePrefix(t *testing.T) {
	s := "abc123"
	prefix := takePrefix(&s, func(c byte) bool { return !isDigit(c) })
	if prefix != "abc" || s != "123" {
		t.Fatalf("got prefix=%q rest=%q", prefix, s)
	}
}
