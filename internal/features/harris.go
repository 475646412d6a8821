package features

import (
	"math"
	"sort"

	"github.com/terrawatch/scenediff/internal/errors"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// HarrisParams tunes the corner detector.
type HarrisParams struct {
	// K is the Harris trace weight. The classic range is 0.04-0.06.
	K float64

	// RelThreshold keeps corners whose response exceeds this fraction
	// of the strongest response in the image.
	RelThreshold float64

	// Sigma is the Gaussian window applied to the structure tensor.
	Sigma float64

	// MinFeatures is the floor below which detection fails.
	MinFeatures int

	// MaxFeatures caps the result at the strongest corners.
	MaxFeatures int
}

// DefaultHarrisParams returns the tuning used by the alignment pipeline.
func DefaultHarrisParams() HarrisParams {
	return HarrisParams{
		K:            0.04,
		RelThreshold: 0.01,
		Sigma:        1.5,
		MinFeatures:  8,
		MaxFeatures:  500,
	}
}

// DetectHarris finds corner keypoints in a grayscale float plane.
//
// The response is the classic Harris measure det(M) - k*trace(M)^2 over
// the Gaussian-windowed structure tensor M of Sobel gradients. Corners
// below RelThreshold of the global maximum are discarded, and a 3x3
// non-maximum suppression keeps only local peaks.
func DetectHarris(plane []float32, width, height int, p HarrisParams) ([]Keypoint, error) {
	gx, gy := imaging.SobelGradients(plane, width, height)

	ixx := make([]float32, width*height)
	iyy := make([]float32, width*height)
	ixy := make([]float32, width*height)
	for i := range gx {
		ixx[i] = gx[i] * gx[i]
		iyy[i] = gy[i] * gy[i]
		ixy[i] = gx[i] * gy[i]
	}
	ixx = imaging.GaussianPlane(ixx, width, height, p.Sigma)
	iyy = imaging.GaussianPlane(iyy, width, height, p.Sigma)
	ixy = imaging.GaussianPlane(ixy, width, height, p.Sigma)

	response := make([]float64, width*height)
	maxResponse := 0.0
	for i := range response {
		a, b, c := float64(ixx[i]), float64(iyy[i]), float64(ixy[i])
		det := a*b - c*c
		trace := a + b
		r := det - p.K*trace*trace
		response[i] = r
		if r > maxResponse {
			maxResponse = r
		}
	}

	var kps []Keypoint
	if maxResponse > 0 {
		threshold := p.RelThreshold * maxResponse
		for y := 1; y < height-1; y++ {
			for x := 1; x < width-1; x++ {
				i := y*width + x
				r := response[i]
				if r < threshold {
					continue
				}
				if !isLocalMax(response, width, i, r) {
					continue
				}
				kps = append(kps, Keypoint{
					X:           float64(x),
					Y:           float64(y),
					Scale:       1,
					Orientation: math.Atan2(float64(gy[i]), float64(gx[i])),
					Score:       r,
				})
			}
		}
	}

	if len(kps) < p.MinFeatures {
		return nil, errors.InsufficientFeatures("harris", len(kps), p.MinFeatures)
	}

	sort.Slice(kps, func(i, j int) bool { return kps[i].Score > kps[j].Score })
	if p.MaxFeatures > 0 && len(kps) > p.MaxFeatures {
		kps = kps[:p.MaxFeatures]
	}
	return kps, nil
}

// isLocalMax reports whether value v at index i is >= all 8 neighbors.
func isLocalMax(response []float64, width, i int, v float64) bool {
	for _, off := range [8]int{-width - 1, -width, -width + 1, -1, 1, width - 1, width, width + 1} {
		if response[i+off] > v {
			return false
		}
	}
	return true
}
