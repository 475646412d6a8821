package features

import (
	"math"
	"sort"

	"github.com/terrawatch/scenediff/internal/errors"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// DoGParams tunes the blob detector.
type DoGParams struct {
	// BaseSigma is the smallest blur level of the sigma ladder.
	BaseSigma float64

	// SigmaStep is the multiplicative step between levels.
	SigmaStep float64

	// Levels is the number of difference-of-Gaussian levels.
	Levels int

	// Threshold is the minimum absolute DoG response for an extremum.
	Threshold float64

	// MinFeatures is the floor below which detection fails.
	MinFeatures int

	// MaxFeatures caps the result at the strongest blobs.
	MaxFeatures int
}

// DefaultDoGParams returns the tuning used by the alignment pipeline.
func DefaultDoGParams() DoGParams {
	return DoGParams{
		BaseSigma:   1.2,
		SigmaStep:   1.6,
		Levels:      4,
		Threshold:   0.01,
		MinFeatures: 8,
		MaxFeatures: 500,
	}
}

// DetectDoG finds blob keypoints as local extrema of a
// difference-of-Gaussians stack.
//
// The plane is blurred at Levels+1 increasing sigmas; adjacent levels are
// subtracted to form the DoG stack, and a point is a keypoint when its
// absolute response exceeds Threshold and it is an extremum among its 26
// neighbors in space and scale. The keypoint scale is the sigma of the
// responding level, which the patch descriptor uses as its sampling
// spacing.
func DetectDoG(plane []float32, width, height int, p DoGParams) ([]Keypoint, error) {
	if p.Levels < 3 {
		p.Levels = 3
	}

	sigmas := make([]float64, p.Levels+1)
	blurred := make([][]float32, p.Levels+1)
	sigma := p.BaseSigma
	for i := range blurred {
		sigmas[i] = sigma
		blurred[i] = imaging.GaussianPlane(plane, width, height, sigma)
		sigma *= p.SigmaStep
	}

	dog := make([][]float32, p.Levels)
	for i := range dog {
		d := make([]float32, width*height)
		hi, lo := blurred[i+1], blurred[i]
		for j := range d {
			d[j] = hi[j] - lo[j]
		}
		dog[i] = d
	}

	var kps []Keypoint
	for level := 1; level < p.Levels-1; level++ {
		cur := dog[level]
		for y := 1; y < height-1; y++ {
			for x := 1; x < width-1; x++ {
				i := y*width + x
				v := cur[i]
				if math.Abs(float64(v)) < p.Threshold {
					continue
				}
				if !isScaleSpaceExtremum(dog, level, width, i, v) {
					continue
				}
				kps = append(kps, Keypoint{
					X:     float64(x),
					Y:     float64(y),
					Scale: sigmas[level],
					Score: math.Abs(float64(v)),
				})
			}
		}
	}

	if len(kps) < p.MinFeatures {
		return nil, errors.InsufficientFeatures("dog", len(kps), p.MinFeatures)
	}

	sort.Slice(kps, func(i, j int) bool { return kps[i].Score > kps[j].Score })
	if p.MaxFeatures > 0 && len(kps) > p.MaxFeatures {
		kps = kps[:p.MaxFeatures]
	}
	return kps, nil
}

// isScaleSpaceExtremum checks the 26-neighborhood across the current,
// previous and next DoG levels.
func isScaleSpaceExtremum(dog [][]float32, level, width, i int, v float32) bool {
	maximum := v > 0
	for l := level - 1; l <= level+1; l++ {
		d := dog[l]
		for _, off := range [9]int{-width - 1, -width, -width + 1, -1, 0, 1, width - 1, width, width + 1} {
			if l == level && off == 0 {
				continue
			}
			n := d[i+off]
			if maximum && n >= v {
				return false
			}
			if !maximum && n <= v {
				return false
			}
		}
	}
	return true
}
