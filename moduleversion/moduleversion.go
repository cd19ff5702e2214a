// Package moduleversion implements the CKAN-style module version
// comparator: a natural-sort ordering over freeform version strings with
// an optional "epoch:" prefix, distinct from SemVer.
//
// Most of the asset and catalog packages only ever need [Version.Compare]
// or the package-level [Compare]; the registered SQLite collation in
// catalogstore calls the latter directly.
package moduleversion

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed module version: an optional non-negative epoch and
// the freeform body that natural-sort compares.
//
// The zero Version is a valid, empty-bodied version with no epoch.
type Version struct {
	epoch    uint64
	hasEpoch bool
	body     string
	// raw preserves the exact input string, including any epoch prefix, so
	// values round-trip through storage unchanged.
	raw string
}

// Parse splits s into an optional epoch and body.
//
// If s contains ':' and everything before the first colon parses as a
// non-negative integer, that's the epoch and the body is everything after
// the colon. Otherwise the whole string is the body and the epoch is
// absent (treated as zero in comparisons).
func Parse(s string) Version {
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		if epoch, err := strconv.ParseUint(s[:idx], 10, 64); err == nil {
			return Version{epoch: epoch, hasEpoch: true, body: s[idx+1:], raw: s}
		}
	}
	return Version{body: s, raw: s}
}

// String returns the original input string, unchanged.
func (v Version) String() string { return v.raw }

// Epoch returns the version's epoch, or 0 if absent.
func (v Version) Epoch() uint64 { return v.epoch }

// Body returns the version string with any epoch prefix stripped.
func (v Version) Body() string { return v.body }

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, using CKAN's natural-sort-with-epoch algorithm:
//
//  1. Differing epochs (absent treated as 0) dominate all else.
//  2. Otherwise the bodies are compared by alternating string/numeric
//     passes: the maximal non-digit prefix of each side is compared first
//     (with a special case so a literal "." outranks other separators and
//     a bare "." outranks a "." followed by more text), then the maximal
//     digit prefix of each side is compared numerically (ignoring leading
//     zeros).
//  3. Whichever side still has characters left once the other is
//     exhausted is greater.
func Compare(a, b Version) int {
	if c := cmpEpoch(a, b); c != 0 {
		return c
	}

	left, right := a.body, b.body
	if left == right {
		return 0
	}

	for left != "" && right != "" {
		if c := cmpStringPass(&left, &right); c != 0 {
			return c
		}
		if c := cmpNumberPass(&left, &right); c != 0 {
			return c
		}
	}

	return strings.Compare(left, right)
}

func cmpEpoch(a, b Version) int {
	ae, be := a.epoch, b.epoch
	switch {
	case ae < be:
		return -1
	case ae > be:
		return 1
	default:
		return 0
	}
}

// Compare implements the total order for v against other. See the
// package-level [Compare] for the algorithm.
func (v Version) Compare(other Version) int { return Compare(v, other) }

// Equal reports whether v and other compare equal.
func (v Version) Equal(other Version) bool { return Compare(v, other) == 0 }

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// cmpStringPass removes the maximal non-digit prefix from each side and
// compares those prefixes, honoring the "." precedence rules.
func cmpStringPass(left, right *string) int {
	l := takePrefix(left, isNotDigit)
	r := takePrefix(right, isNotDigit)

	lDot := strings.HasPrefix(l, ".")
	rDot := strings.HasPrefix(r, ".")

	if lDot || rDot {
		// A side introducing a new subversion (".") beats one that's
		// just attaching metadata to the current one.
		if lDot != rDot {
			if lDot {
				return 1
			}
			return -1
		}

		// Both are dots: a bare "." outranks a "." with trailing text,
		// e.g. "1.10" > "1.beta".
		if len(l) == 1 && len(r) > 1 {
			return 1
		}
		if len(l) > 1 && len(r) == 1 {
			return -1
		}
		// Fall through: both bare, or both carry trailing text.
	}

	return strings.Compare(l, r)
}

// cmpNumberPass removes the maximal digit prefix from each side and
// compares the two as unsigned integers (empty prefix is 0).
func cmpNumberPass(left, right *string) int {
	l := takePrefix(left, isDigit)
	r := takePrefix(right, isDigit)

	ln, _ := strconv.ParseUint(l, 10, 64)
	rn, _ := strconv.ParseUint(r, 10, 64)

	switch {
	case ln < rn:
		return -1
	case ln > rn:
		return 1
	default:
		return 0
	}
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isNotDigit(c byte) bool { return !isDigit(c) }

// takePrefix splits off and returns the leading run of bytes satisfying
// keep, advancing *s past it.
func takePrefix(s *string, keep func(byte) bool) string {
	str := *s
	i := 0
	for i < len(str) && keep(str[i]) {
		i++
	}
	prefix := str[:i]
	*s = str[i:]
	return prefix
}

// HashKey returns a value suitable for use as a map key or hash input that
// is consistent with Compare: two versions that compare equal always
// produce the same HashKey, even across zero-padding differences like
// "1.1" and "1.01".
func (v Version) HashKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:", v.epoch)

	body := v.body
	for body != "" {
		nonDigit := takePrefix(&body, isNotDigit)
		b.WriteString(nonDigit)

		digits := takePrefix(&body, isDigit)
		if digits == "" {
			continue
		}
		n, _ := strconv.ParseUint(digits, 10, 64)
		fmt.Fprintf(&b, "%d", n)
	}
	return b.String()
}
