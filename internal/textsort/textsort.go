// Package textsort implements numeric-aware string ordering for product
// display names. Plain lexical sort places "16-inch" before "8-core" and
// mixes storage capacities out of size order; this comparator splits each
// string into digit and non-digit runs, compares digit runs by magnitude,
// and scales capacity figures by their unit so "512GB" orders before "1TB".
//
// Compare is a pure function and defines a total order: ties at every level
// (leading zeros, letter case) fall through to a raw byte comparison so the
// result is deterministic for any input pair.
package textsort

import (
	"sort"
	"strings"
)

// capacityUnits maps a storage-unit token (the leading letters of the run
// following a digit run) to a byte multiplier. Only engaged when the two
// digit runs under comparison carry different units.
var capacityUnits = map[string]float64{
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// Compare reports the order of a and b: -1 if a sorts first, +1 if b sorts
// first, 0 if the strings are identical.
func Compare(a, b string) int {
	ia, ib := 0, 0
	tie := 0 // first lower-priority difference seen (leading zeros, case)

	for ia < len(a) && ib < len(b) {
		da, db := isDigit(a[ia]), isDigit(b[ib])

		switch {
		case da && db:
			runA, nextA := digitRun(a, ia)
			runB, nextB := digitRun(b, ib)

			if c := compareDigitRuns(runA, a[nextA:], runB, b[nextB:]); c != 0 {
				return c
			}
			// Equal magnitude; remember leading-zero padding difference.
			if tie == 0 && len(runA) != len(runB) {
				tie = sign(len(runA) - len(runB))
			}
			ia, ib = nextA, nextB

		case !da && !db:
			ca, cb := lower(a[ia]), lower(b[ib])
			if ca != cb {
				return sign(int(ca) - int(cb))
			}
			if tie == 0 && a[ia] != b[ib] {
				tie = sign(int(a[ia]) - int(b[ib]))
			}
			ia++
			ib++

		default:
			// Digit runs order before text runs, so "13-inch" precedes "inch".
			if da {
				return -1
			}
			return 1
		}
	}

	// One string is a strict run-prefix of the other: shorter sorts first.
	if ia < len(a) {
		return 1
	}
	if ib < len(b) {
		return -1
	}
	if tie != 0 {
		return tie
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts ss in place using Compare.
func Strings(ss []string) {
	sort.Slice(ss, func(i, j int) bool { return Compare(ss[i], ss[j]) < 0 })
}

// Sorted returns a sorted copy of ss, leaving the input untouched.
func Sorted(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	Strings(out)
	return out
}

// compareDigitRuns compares two digit runs numerically. restA and restB are
// the text following each run; a run followed by a capacity unit is scaled
// to bytes, a unitless run has an implicit multiplier of 1. Every digit run
// is valued by the same key, which keeps the order transitive when scaled
// and unscaled figures meet. Runs with equal multipliers compare exactly on
// the digit text, so arbitrarily long numbers stay precise.
func compareDigitRuns(runA, restA, runB, restB string) int {
	multA := unitMultiplier(restA)
	multB := unitMultiplier(restB)
	if multA != multB {
		return compareScaled(runA, multA, runB, multB)
	}

	// Magnitude comparison: strip leading zeros, longer run wins, then
	// byte-wise (digits compare correctly byte-wise at equal length).
	ta, tb := strings.TrimLeft(runA, "0"), strings.TrimLeft(runB, "0")
	if len(ta) != len(tb) {
		return sign(len(ta) - len(tb))
	}
	return sign(strings.Compare(ta, tb))
}

// compareScaled compares value*mult for two digit runs. Capacity figures in
// product names are small, so float64 precision is more than sufficient.
func compareScaled(runA string, multA float64, runB string, multB float64) int {
	va := parseMagnitude(runA) * multA
	vb := parseMagnitude(runB) * multB
	switch {
	case va < vb:
		return -1
	case va > vb:
		return 1
	default:
		return 0
	}
}

func parseMagnitude(run string) float64 {
	v := 0.0
	for i := 0; i < len(run); i++ {
		v = v*10 + float64(run[i]-'0')
	}
	return v
}

// unitMultiplier inspects the text following a digit run and returns the
// byte multiplier if it begins with a capacity unit ("512GB", "1 TB"),
// or 1 for anything else.
func unitMultiplier(rest string) float64 {
	rest = strings.TrimLeft(rest, " ")
	i := 0
	for i < len(rest) && isLetter(rest[i]) {
		i++
	}
	if i == 0 {
		return 1
	}
	if mult, ok := capacityUnits[strings.ToUpper(rest[:i])]; ok {
		return mult
	}
	return 1
}

// digitRun returns the maximal digit run starting at i and the index just
// past it.
func digitRun(s string, i int) (string, int) {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	return s[i:j], j
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isLetter(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
