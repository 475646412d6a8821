package features

import (
	"math"

	"github.com/steakknife/hamming"

	"github.com/terrawatch/scenediff/internal/errors"
)

// MatchParams tunes correspondence selection.
type MatchParams struct {
	// Ratio is the nearest/second-nearest rejection ratio: a match is
	// kept only when bestDist < Ratio * secondBestDist. Binary
	// descriptors tolerate a slightly looser ratio than float patches.
	Ratio float64

	// Mutual keeps only 1:1 matches where each keypoint is the other's
	// best candidate.
	Mutual bool

	// MinMatches is the floor below which matching fails. 4 is hard
	// minimum headroom for a 3-point affine solve plus one check point.
	MinMatches int
}

// DefaultMatchParams returns the tuning for the given descriptor kind.
func DefaultMatchParams(binary bool) MatchParams {
	ratio := 0.75
	if binary {
		ratio = 0.8
	}
	return MatchParams{Ratio: ratio, Mutual: true, MinMatches: 4}
}

// MatchDescriptors pairs descriptors between two sets.
//
// For each descriptor in a, the best and second-best candidates in b are
// found; the pair survives only when the best distance beats the second
// best by the configured ratio (ambiguous matches on repetitive texture
// fail this test). With Mutual set, a pair additionally survives only
// when the b-side descriptor picks the same a-side descriptor as its
// best match.
func MatchDescriptors(a, b []Descriptor, p MatchParams) ([]Match, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, errors.InsufficientMatches("match", 0, p.MinMatches)
	}

	forward := bestCandidates(a, b)
	var reverse []candidate
	if p.Mutual {
		reverse = bestCandidates(b, a)
	}

	var matches []Match
	for i, c := range forward {
		if c.best < 0 {
			continue
		}
		if c.second >= 0 && c.bestDist >= p.Ratio*c.secondDist {
			continue
		}
		if p.Mutual && reverse[c.best].best != i {
			continue
		}
		matches = append(matches, Match{
			A:        i,
			B:        c.best,
			Distance: c.bestDist,
			Confidence: func() float64 {
				if a[i].Binary() {
					return 1 - c.bestDist/briefBits
				}
				if c.secondDist > 0 {
					return 1 - c.bestDist/c.secondDist
				}
				return 1
			}(),
		})
	}

	if len(matches) < p.MinMatches {
		return nil, errors.InsufficientMatches("match", len(matches), p.MinMatches)
	}
	return matches, nil
}

type candidate struct {
	best       int
	second     int
	bestDist   float64
	secondDist float64
}

// bestCandidates finds, for every descriptor in a, the two closest
// descriptors in b.
func bestCandidates(a, b []Descriptor) []candidate {
	out := make([]candidate, len(a))
	for i := range a {
		c := candidate{best: -1, second: -1, bestDist: math.Inf(1), secondDist: math.Inf(1)}
		for j := range b {
			d := Distance(a[i], b[j])
			switch {
			case d < c.bestDist:
				c.second, c.secondDist = c.best, c.bestDist
				c.best, c.bestDist = j, d
			case d < c.secondDist:
				c.second, c.secondDist = j, d
			}
		}
		out[i] = c
	}
	return out
}

// Distance computes the descriptor distance: Hamming popcount for binary
// descriptors, Euclidean for float patches. Mixed kinds return +Inf so
// they can never match.
func Distance(a, b Descriptor) float64 {
	if a.Binary() != b.Binary() {
		return math.Inf(1)
	}
	if a.Binary() {
		d := 0
		for k := range a.Bits {
			d += hamming.CountBitsUint64(a.Bits[k] ^ b.Bits[k])
		}
		return float64(d)
	}
	sum := 0.0
	for k := range a.Floats {
		d := float64(a.Floats[k] - b.Floats[k])
		sum += d * d
	}
	return math.Sqrt(sum)
}
