package textsort_test

import (
	"reflect"
	"testing"

	"github.com/example/stockwatch/internal/textsort"
)

func TestCompareOrderedPairs(t *testing.T) {
	// Each pair is (smaller, larger).
	pairs := [][2]string{
		{"13-inch, 512GB", "13-inch, 1TB"},
		{"14-inch", "16-inch"},
		{"8GB", "16GB"},
		{"512GB", "1TB"},
		{"1TB", "2TB"},
		{"iPhone 9", "iPhone 10"},
		{"13-inch", "13-inch, 512GB"}, // strict prefix sorts first
		{"", "a"},
		{"2", "10"},
		{"8", "008a"}, // equal magnitude, longer run sequence sorts after
		{"abc", "abd"},
		{"10-core", "alpha"}, // digit run orders before text run
	}
	for _, p := range pairs {
		if c := textsort.Compare(p[0], p[1]); c != -1 {
			t.Errorf("Compare(%q, %q) = %d, want -1", p[0], p[1], c)
		}
		if c := textsort.Compare(p[1], p[0]); c != 1 {
			t.Errorf("Compare(%q, %q) = %d, want 1", p[1], p[0], c)
		}
	}
}

func TestCompareEqualOnlyForIdentical(t *testing.T) {
	// Pairs that are equal at the primary level but must still order
	// deterministically (total order requires antisymmetry, not equality).
	pairs := [][2]string{
		{"008", "8"},
		{"ABC", "abc"},
		{"1024GB", "1TB"},
	}
	for _, p := range pairs {
		a, b := textsort.Compare(p[0], p[1]), textsort.Compare(p[1], p[0])
		if a == 0 || b == 0 {
			t.Errorf("Compare(%q, %q) = %d and %d; distinct strings must not compare equal", p[0], p[1], a, b)
		}
		if a != -b {
			t.Errorf("Compare(%q, %q) = %d but reversed = %d; want negation", p[0], p[1], a, b)
		}
	}

	for _, s := range []string{"", "13-inch", "512GB", "a1b2"} {
		if c := textsort.Compare(s, s); c != 0 {
			t.Errorf("Compare(%q, %q) = %d, want 0", s, s, c)
		}
	}
}

// TestTotalOrder checks antisymmetry and transitivity over every triple of a
// corpus chosen to hit digit/text boundaries, leading zeros, case folds, and
// capacity units.
func TestTotalOrder(t *testing.T) {
	corpus := []string{
		"", "0", "00", "8", "008", "10", "2",
		"a", "A", "ab", "a1", "1a", "a01", "a1b",
		"13-inch", "13-inch, 1TB", "13-inch, 512GB", "16-inch",
		"512GB", "1TB", "1024GB", "2TB", "8GB",
		"iPhone 9", "iPhone 10", "iphone 10",
	}

	for _, a := range corpus {
		for _, b := range corpus {
			if textsort.Compare(a, b) != -textsort.Compare(b, a) {
				t.Fatalf("antisymmetry violated for (%q, %q)", a, b)
			}
			for _, c := range corpus {
				if textsort.Compare(a, b) <= 0 && textsort.Compare(b, c) <= 0 {
					if textsort.Compare(a, c) > 0 {
						t.Fatalf("transitivity violated: %q <= %q <= %q but Compare(%q, %q) > 0", a, b, c, a, c)
					}
				}
			}
		}
	}
}

func TestSorted(t *testing.T) {
	in := []string{
		"14-inch MacBook Pro, 1TB",
		"16-inch MacBook Pro, 512GB",
		"14-inch MacBook Pro, 512GB",
		"13-inch MacBook Pro, 256GB",
	}
	want := []string{
		"13-inch MacBook Pro, 256GB",
		"14-inch MacBook Pro, 512GB",
		"14-inch MacBook Pro, 1TB",
		"16-inch MacBook Pro, 512GB",
	}
	got := textsort.Sorted(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
	if got[0] == in[0] && in[0] != want[0] {
		t.Error("Sorted mutated its input")
	}
}

func TestStringsSortsInPlace(t *testing.T) {
	ss := []string{"2TB", "512GB", "1TB"}
	textsort.Strings(ss)
	want := []string{"512GB", "1TB", "2TB"}
	if !reflect.DeepEqual(ss, want) {
		t.Errorf("Strings() = %v, want %v", ss, want)
	}
}
