package align

import (
	"math"
	"math/rand"

	"github.com/terrawatch/scenediff/internal/errors"
)

// RANSACParams tunes the random-sample consensus estimator.
type RANSACParams struct {
	// MaxTrials caps the number of minimal-sample draws. The default of
	// 2000 is deliberately high: repetitive or sparse scene texture
	// produces correspondence sets with large outlier fractions, and
	// extra trials buy convergence at negligible cost next to the rest
	// of the pipeline.
	MaxTrials int

	// MaxResidual is the reprojection distance (pixels) below which a
	// correspondence counts as an inlier.
	MaxResidual float64

	// Confidence stops sampling early once the probability of having
	// already drawn an all-inlier sample exceeds it.
	Confidence float64

	// MinInlierFraction is the consensus floor: the best sample must
	// cover at least this fraction of the correspondences.
	MinInlierFraction float64

	// Rand is the source of sample draws. Inject a seeded source for
	// reproducible runs; nil falls back to a fixed-seed source.
	Rand *rand.Rand
}

// DefaultRANSACParams returns the field-tested defaults.
func DefaultRANSACParams() RANSACParams {
	return RANSACParams{
		MaxTrials:         2000,
		MaxResidual:       3.0,
		Confidence:        0.995,
		MinInlierFraction: 0.3,
	}
}

// EstimateRANSAC fits a transform of the given model family to noisy
// correspondences, separating inliers from outliers.
//
// Minimal subsets are drawn at random, solved in closed form and scored
// by how many correspondences reproject within MaxResidual. Sampling
// stops early once enough trials have run that an all-inlier draw was
// seen with probability Confidence, and always at MaxTrials. The best
// consensus set is then refit by least squares and the inlier mask
// recomputed against the refit model.
//
// The returned mask is index-aligned with pairs. Failure modes are
// typed: InsufficientTrials when no sample reaches the consensus floor,
// DegenerateModel when the refit is near-singular or implies a
// non-physical scale.
func EstimateRANSAC(pairs []PointPair, model Model, p RANSACParams) (Transform, []bool, error) {
	n := len(pairs)
	s := model.MinSamples()
	if n < s+1 {
		return Identity(), nil, errors.InsufficientMatches("ransac", n, s+1)
	}

	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	minInliers := int(math.Ceil(p.MinInlierFraction * float64(n)))
	if minInliers < s+1 {
		minInliers = s + 1
	}

	bestCount := 0
	bestMask := make([]bool, n)
	trials := 0
	maxTrials := p.MaxTrials

	idx := make([]int, s)
	mask := make([]bool, n)

	for trials = 0; trials < maxTrials; trials++ {
		sampleIndices(rng, n, idx)

		var t Transform
		var ok bool
		if model == ModelSimilarity {
			t, ok = solveSimilarity(pairs[idx[0]], pairs[idx[1]])
		} else {
			t, ok = solveAffine(pairs[idx[0]], pairs[idx[1]], pairs[idx[2]])
		}
		if !ok {
			continue
		}

		count := 0
		for i, pair := range pairs {
			in := t.Residual(pair) <= p.MaxResidual
			mask[i] = in
			if in {
				count++
			}
		}

		if count > bestCount {
			bestCount = count
			copy(bestMask, mask)

			// Adaptive trial budget: with inlier ratio w, the chance a
			// random minimal sample is all-inlier is w^s.
			w := float64(count) / float64(n)
			if pOutlierFree := math.Pow(w, float64(s)); pOutlierFree > 1e-12 {
				needed := math.Log(1-p.Confidence) / math.Log(1-pOutlierFree)
				if !math.IsNaN(needed) && !math.IsInf(needed, 0) && int(needed)+1 < maxTrials {
					maxTrials = int(needed) + 1
				}
			}
		}
	}

	if bestCount < minInliers {
		return Identity(), nil, errors.InsufficientTrials("ransac", bestCount, n, trials)
	}

	inlierPairs := make([]PointPair, 0, bestCount)
	for i, in := range bestMask {
		if in {
			inlierPairs = append(inlierPairs, pairs[i])
		}
	}
	t, ok := refit(inlierPairs, model)
	if !ok {
		return Identity(), nil, errors.DegenerateModel("ransac", "least-squares refit over inliers failed")
	}
	if err := validateTransform(t); err != nil {
		return Identity(), nil, err
	}

	final := InlierMask(t, pairs, p.MaxResidual)
	return t, final, nil
}

// InlierMask scores every pair against t: true where the reprojection
// residual is within maxResidual. For a fixed transform, a larger
// residual bound can only admit more pairs, never fewer.
func InlierMask(t Transform, pairs []PointPair, maxResidual float64) []bool {
	mask := make([]bool, len(pairs))
	for i, p := range pairs {
		mask[i] = t.Residual(p) <= maxResidual
	}
	return mask
}

// CountInliers returns the number of pairs within maxResidual of t.
func CountInliers(t Transform, pairs []PointPair, maxResidual float64) int {
	count := 0
	for _, p := range pairs {
		if t.Residual(p) <= maxResidual {
			count++
		}
	}
	return count
}

// validateTransform rejects near-singular or non-physical refits. A
// legitimate two-frame alignment never flips the image or scales an
// axis by more than 10x.
func validateTransform(t Transform) error {
	det := t.Det()
	if math.Abs(det) < 1e-6 {
		return errors.DegenerateModel("ransac", "transform is near-singular")
	}
	if det < 0 {
		return errors.DegenerateModel("ransac", "transform mirrors the image")
	}
	sx, sy := t.Scales()
	if sx < 0.1 || sx > 10 || sy < 0.1 || sy > 10 {
		return errors.DegenerateModel("ransac", "transform implies a non-physical scale")
	}
	return nil
}

// sampleIndices fills idx with distinct values in [0, n).
func sampleIndices(rng *rand.Rand, n int, idx []int) {
	for i := range idx {
		for {
			v := rng.Intn(n)
			dup := false
			for j := 0; j < i; j++ {
				if idx[j] == v {
					dup = true
					break
				}
			}
			if !dup {
				idx[i] = v
				break
			}
		}
	}
}
