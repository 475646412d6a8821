package align

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/terrawatch/scenediff/internal/features"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// StrategyAuto walks the full fallback chain; any other strategy string
// pins a single named method.
const StrategyAuto = "auto"

// IntensityMethodName is the strategy name of the keypoint-free
// fallback.
const IntensityMethodName = "intensity"

// Method is one feature-based alignment strategy: a detector/descriptor
// pairing plus the match tuning appropriate for its descriptor kind.
type Method interface {
	// Name identifies the method in results and strategy selection.
	Name() string

	// DetectAndDescribe finds keypoints in a grayscale plane and
	// attaches descriptors. The two slices are index-aligned.
	DetectAndDescribe(plane []float32, width, height int) ([]features.Keypoint, []features.Descriptor, error)

	// MatchParams returns the ratio-test tuning for this descriptor
	// kind.
	MatchParams() features.MatchParams
}

type dogMethod struct{ params features.DoGParams }

// NewDoGMethod builds the blob-detector strategy.
func NewDoGMethod(p features.DoGParams) Method { return dogMethod{params: p} }

func (m dogMethod) Name() string { return "dog" }

func (m dogMethod) DetectAndDescribe(plane []float32, width, height int) ([]features.Keypoint, []features.Descriptor, error) {
	kps, err := features.DetectDoG(plane, width, height, m.params)
	if err != nil {
		return nil, nil, err
	}
	kept, descs := features.DescribePatches(plane, width, height, kps)
	return kept, descs, nil
}

func (m dogMethod) MatchParams() features.MatchParams { return features.DefaultMatchParams(false) }

type harrisMethod struct{ params features.HarrisParams }

// NewHarrisMethod builds the corner-detector strategy.
func NewHarrisMethod(p features.HarrisParams) Method { return harrisMethod{params: p} }

func (m harrisMethod) Name() string { return "harris" }

func (m harrisMethod) DetectAndDescribe(plane []float32, width, height int) ([]features.Keypoint, []features.Descriptor, error) {
	kps, err := features.DetectHarris(plane, width, height, m.params)
	if err != nil {
		return nil, nil, err
	}
	kept, descs := features.DescribePatches(plane, width, height, kps)
	return kept, descs, nil
}

func (m harrisMethod) MatchParams() features.MatchParams { return features.DefaultMatchParams(false) }

type fastMethod struct{ params features.FASTParams }

// NewFASTMethod builds the binary-descriptor strategy.
func NewFASTMethod(p features.FASTParams) Method { return fastMethod{params: p} }

func (m fastMethod) Name() string { return "fast" }

func (m fastMethod) DetectAndDescribe(plane []float32, width, height int) ([]features.Keypoint, []features.Descriptor, error) {
	return features.DetectFAST(plane, width, height, m.params)
}

func (m fastMethod) MatchParams() features.MatchParams { return features.DefaultMatchParams(true) }

// Result is the outcome of one alignment call. It is created once per
// call and owned by the caller.
type Result struct {
	// Transform maps moving-image coordinates onto the fixed image.
	// Identity when alignment failed.
	Transform Transform `json:"-"`

	// Aligned is the moving raster resampled into the fixed raster's
	// grid (zero-filled outside the source). On failure it is the
	// original, unaligned moving raster.
	Aligned *imaging.Raster `json:"-"`

	// Method is the name of the strategy that produced the transform;
	// empty when alignment failed.
	Method string `json:"method"`

	// Success reports whether any strategy converged.
	Success bool `json:"success"`

	// KeypointsFixed and KeypointsMoving count described keypoints in
	// the two inputs for the winning method.
	KeypointsFixed  int `json:"keypoints_fixed"`
	KeypointsMoving int `json:"keypoints_moving"`

	// Matches counts correspondences that survived ratio rejection.
	Matches int `json:"matches"`

	// Inliers counts correspondences consistent with the final
	// transform.
	Inliers int `json:"inliers"`
}

// Pipeline drives the ordered fallback chain. The zero value is not
// usable; construct with NewPipeline.
type Pipeline struct {
	// Methods is the ordered feature-strategy chain tried before the
	// intensity fallback.
	Methods []Method

	// RANSAC tunes consensus estimation for every feature method.
	RANSAC RANSACParams

	// Intensity tunes the keypoint-free fallback.
	Intensity IntensityParams

	// Model is the transform family solved for feature methods. Affine
	// is the default everywhere; the intensity fallback always searches
	// the similarity family, whose smoother parameter space suits
	// direct optimization.
	Model Model

	// Log receives per-method progress at debug level and fallback
	// decisions at info level.
	Log logrus.FieldLogger
}

// NewPipeline builds a pipeline with the default method order
// (dog, harris, fast, then intensity) and default tuning.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Methods: []Method{
			NewDoGMethod(features.DefaultDoGParams()),
			NewHarrisMethod(features.DefaultHarrisParams()),
			NewFASTMethod(features.DefaultFASTParams()),
		},
		RANSAC:    DefaultRANSACParams(),
		Intensity: DefaultIntensityParams(),
		Model:     ModelAffine,
		Log:       logrus.StandardLogger(),
	}
}

// Align estimates the transform mapping moving onto fixed and resamples
// moving into fixed's pixel grid.
//
// With StrategyAuto every method is tried in order and the intensity
// fallback last; a named strategy runs only that method. Per-method
// failures are consumed internally and logged; the chain simply
// advances. When everything fails the returned Result carries
// the identity transform, the original moving raster and Success=false,
// with a nil error: an unalignable pair is a legitimate outcome.
//
// The inputs may differ in size; the aligned output always uses fixed's
// dimensions. An error is returned only for misuse (unknown strategy,
// unsupported band layout).
func (p *Pipeline) Align(fixed, moving *imaging.Raster, strategy string) (*Result, error) {
	grayFixed, err := fixed.Gray()
	if err != nil {
		return nil, err
	}
	grayMoving, err := moving.Gray()
	if err != nil {
		return nil, err
	}

	methods := p.Methods
	tryIntensity := true
	if strategy != StrategyAuto && strategy != "" {
		methods = nil
		tryIntensity = strategy == IntensityMethodName
		if !tryIntensity {
			for _, m := range p.Methods {
				if m.Name() == strategy {
					methods = []Method{m}
					break
				}
			}
			if len(methods) == 0 {
				return nil, fmt.Errorf("unknown alignment strategy %q", strategy)
			}
		}
	}

	for _, m := range methods {
		res, err := p.tryMethod(m, grayFixed, grayMoving)
		if err != nil {
			p.Log.WithFields(logrus.Fields{"method": m.Name(), "reason": err}).
				Info("alignment method failed, advancing fallback chain")
			continue
		}
		res.Aligned = imaging.WarpRaster(moving, res.Transform.Aff3(), fixed.Width, fixed.Height)
		return res, nil
	}

	if tryIntensity {
		t, corr, err := RegisterIntensity(fixed, moving, p.Intensity)
		if err == nil {
			p.Log.WithField("correlation", corr).Debug("intensity registration converged")
			return &Result{
				Transform: t,
				Aligned:   imaging.WarpRaster(moving, t.Aff3(), fixed.Width, fixed.Height),
				Method:    IntensityMethodName,
				Success:   true,
			}, nil
		}
		p.Log.WithField("reason", err).Info("intensity registration failed")
	}

	// Terminal state: nothing converged. Not an error by contract.
	return &Result{
		Transform: Identity(),
		Aligned:   moving,
		Success:   false,
	}, nil
}

// tryMethod runs detect/describe on both planes, matches, and estimates
// the transform. Any stage failure aborts the method.
func (p *Pipeline) tryMethod(m Method, fixed, moving *imaging.Raster) (*Result, error) {
	kpsF, descsF, err := m.DetectAndDescribe(fixed.Planes[0], fixed.Width, fixed.Height)
	if err != nil {
		return nil, err
	}
	kpsM, descsM, err := m.DetectAndDescribe(moving.Planes[0], moving.Width, moving.Height)
	if err != nil {
		return nil, err
	}

	matches, err := features.MatchDescriptors(descsF, descsM, m.MatchParams())
	if err != nil {
		return nil, err
	}

	pairs := make([]PointPair, len(matches))
	for i, match := range matches {
		pairs[i] = PointPair{
			SrcX: kpsM[match.B].X, SrcY: kpsM[match.B].Y,
			DstX: kpsF[match.A].X, DstY: kpsF[match.A].Y,
		}
	}

	t, mask, err := EstimateRANSAC(pairs, p.Model, p.RANSAC)
	if err != nil {
		return nil, err
	}

	inliers := 0
	for _, in := range mask {
		if in {
			inliers++
		}
	}

	p.Log.WithFields(logrus.Fields{
		"method":  m.Name(),
		"matches": len(matches),
		"inliers": inliers,
	}).Debug("alignment method converged")

	return &Result{
		Transform:       t,
		Method:          m.Name(),
		Success:         true,
		KeypointsFixed:  len(kpsF),
		KeypointsMoving: len(kpsM),
		Matches:         len(matches),
		Inliers:         inliers,
	}, nil
}
