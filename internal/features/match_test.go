package features

import (
	"math"
	"testing"

	"github.com/terrawatch/scenediff/internal/errors"
)

func floatDesc(vals ...float32) Descriptor {
	return Descriptor{Floats: vals}
}

func binaryDesc(words ...uint64) Descriptor {
	return Descriptor{Bits: words}
}

func TestDistance_Float(t *testing.T) {
	a := floatDesc(0, 0, 0)
	b := floatDesc(3, 4, 0)

	if got := Distance(a, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("euclidean distance: got %f, want 5", got)
	}
	if got := Distance(a, a); got != 0 {
		t.Errorf("self distance: got %f, want 0", got)
	}
}

func TestDistance_Binary(t *testing.T) {
	a := binaryDesc(0b1011, 0)
	b := binaryDesc(0b0010, 1)

	// Words differ in bits {0,3} and {0}
	if got := Distance(a, b); got != 3 {
		t.Errorf("hamming distance: got %f, want 3", got)
	}
}

func TestDistance_MixedKinds(t *testing.T) {
	a := floatDesc(1, 2)
	b := binaryDesc(7)

	if got := Distance(a, b); !math.IsInf(got, 1) {
		t.Errorf("mixed-kind distance: got %f, want +Inf", got)
	}
}

func TestMatchDescriptors_Identical(t *testing.T) {
	set := []Descriptor{
		floatDesc(1, 0, 0, 0),
		floatDesc(0, 1, 0, 0),
		floatDesc(0, 0, 1, 0),
		floatDesc(0, 0, 0, 1),
		floatDesc(1, 1, 0, 0),
	}

	matches, err := MatchDescriptors(set, set, DefaultMatchParams(false))
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}

	if len(matches) != len(set) {
		t.Fatalf("matches: got %d, want %d", len(matches), len(set))
	}
	for _, m := range matches {
		if m.A != m.B {
			t.Errorf("identical sets should match index to index, got %d->%d", m.A, m.B)
		}
		if m.Distance != 0 {
			t.Errorf("match distance: got %f, want 0", m.Distance)
		}
	}
}

func TestMatchDescriptors_RatioRejectsAmbiguous(t *testing.T) {
	// Two b-side descriptors nearly equidistant from a[0] fail the
	// ratio test; the remaining descriptors are distinctive.
	a := []Descriptor{
		floatDesc(5, 5),
		floatDesc(10, 0),
		floatDesc(0, 10),
		floatDesc(-10, 0),
		floatDesc(0, -10),
	}
	b := []Descriptor{
		floatDesc(5, 5.1),
		floatDesc(5.1, 5),
		floatDesc(10, 0),
		floatDesc(0, 10),
		floatDesc(-10, 0),
		floatDesc(0, -10),
	}

	p := DefaultMatchParams(false)
	p.MinMatches = 1

	matches, err := MatchDescriptors(a, b, p)
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}

	for _, m := range matches {
		if m.A == 0 {
			t.Error("ambiguous descriptor survived the ratio test")
		}
	}
	if len(matches) != 4 {
		t.Errorf("matches: got %d, want 4", len(matches))
	}
}

func TestMatchDescriptors_MutualFilter(t *testing.T) {
	// b[0] is the best candidate for both a[0] and a[1], but its own
	// best candidate is a[0]; the a[1] pairing must be dropped.
	a := []Descriptor{
		floatDesc(0, 0),
		floatDesc(1, 0),
		floatDesc(20, 0),
		floatDesc(0, 20),
		floatDesc(-20, 0),
	}
	b := []Descriptor{
		floatDesc(0.1, 0),
		floatDesc(20, 0),
		floatDesc(0, 20),
		floatDesc(-20, 0),
	}

	p := DefaultMatchParams(false)
	p.Ratio = 1.0 // isolate the mutual filter
	p.MinMatches = 1

	matches, err := MatchDescriptors(a, b, p)
	if err != nil {
		t.Fatalf("MatchDescriptors failed: %v", err)
	}

	for _, m := range matches {
		if m.A == 1 {
			t.Error("non-mutual pairing survived the mutual filter")
		}
	}
}

func TestMatchDescriptors_InsufficientMatches(t *testing.T) {
	a := []Descriptor{floatDesc(1, 0)}
	b := []Descriptor{floatDesc(0, 1)}

	_, err := MatchDescriptors(a, b, DefaultMatchParams(false))
	if err == nil {
		t.Fatal("expected failure below the match floor")
	}
	if !errors.IsKind(err, errors.KindInsufficientMatches) {
		t.Errorf("error kind: got %v, want insufficient matches", err)
	}
}

func TestMatchDescriptors_EmptySets(t *testing.T) {
	_, err := MatchDescriptors(nil, nil, DefaultMatchParams(false))
	if err == nil {
		t.Fatal("expected failure on empty descriptor sets")
	}
	if !errors.IsKind(err, errors.KindInsufficientMatches) {
		t.Errorf("error kind: got %v, want insufficient matches", err)
	}
}
