package change

import (
	"github.com/sirupsen/logrus"

	"github.com/terrawatch/scenediff/internal/errors"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// Config controls the full change detection pass: which signals run
// with what parameters, how they are fused, and how the fused map is
// binarized and cleaned.
type Config struct {
	// SmoothSigma pre-blurs the inputs of the pixel difference
	// signal. Zero disables smoothing.
	SmoothSigma float64

	// SSIMWindow is the square window side for the structural
	// similarity signal.
	SSIMWindow int

	// EdgeLow and EdgeHigh are the hysteresis thresholds of the edge
	// detector backing the edge change signal.
	EdgeLow  float64
	EdgeHigh float64

	// EdgeDilate grows each edge map before the symmetric difference
	// so sub-pixel registration error does not read as change.
	EdgeDilate int

	// TextureRadius is the window radius of the local standard
	// deviation signal.
	TextureRadius int

	Weights         Weights
	ThresholdMethod ThresholdMethod

	// Percentile is consulted only when ThresholdMethod is
	// ThresholdPercentile. Zero means 0.90.
	Percentile float64

	Cleanup CleanupParams

	Log logrus.FieldLogger
}

// DefaultConfig returns the detection settings used by the server
// tools.
func DefaultConfig() Config {
	return Config{
		SmoothSigma:     1.0,
		SSIMWindow:      8,
		EdgeLow:         0.1,
		EdgeHigh:        0.3,
		EdgeDilate:      2,
		TextureRadius:   5,
		Weights:         DefaultWeights(),
		ThresholdMethod: ThresholdOtsu,
		Cleanup:         DefaultCleanupParams(),
		Log:             logrus.StandardLogger(),
	}
}

// DetectionResult is the outcome of a change detection pass over two
// registered rasters.
type DetectionResult struct {
	// Map is the fused per-pixel change strength in [0,1].
	Map *ChangeMap

	// Mask is the cleaned binary change mask.
	Mask []bool

	TotalPixels   int
	ChangedPixels int
	ChangePercent float64

	// Threshold is the clamped cut applied to the fused map.
	Threshold float64

	// Signals holds every signal that was attempted, including failed
	// ones, for per-signal diagnostics.
	Signals []Signal

	// FusedSignals names the signals that actually contributed to the
	// fused map: available and carrying a positive weight. Sorted.
	FusedSignals []string
}

// ComputeSignals runs every configured change signal over the raster
// pair. A signal that cannot be computed is returned with its error
// recorded rather than aborting the pass; the caller decides whether
// partial evidence is enough.
func ComputeSignals(a, b *imaging.Raster, cfg Config) []Signal {
	signals := make([]Signal, 0, 5)

	run := func(name string, m *ChangeMap, err error) {
		signals = append(signals, Signal{Name: name, Map: m, Err: err})
		if err != nil && cfg.Log != nil {
			cfg.Log.WithFields(logrus.Fields{
				"signal": name,
				"error":  err.Error(),
			}).Debug("change signal unavailable")
		}
	}

	m, err := pixelDiff(a, b, cfg.SmoothSigma)
	run(SignalPixelDiff, m, err)

	m, err = ssimChange(a, b, cfg.SSIMWindow)
	run(SignalSSIM, m, err)

	m, err = edgeChange(a, b, cfg.EdgeLow, cfg.EdgeHigh, cfg.EdgeDilate)
	run(SignalEdgeChange, m, err)

	m, err = textureChange(a, b, cfg.TextureRadius)
	run(SignalTexture, m, err)

	m, err = spectralAngle(a, b)
	run(SignalSpectralAngle, m, err)

	return signals
}

// Detect runs the full pipeline: signals, fusion, threshold selection,
// binarization and mask cleanup. The rasters must share dimensions;
// align the moving image first.
func Detect(a, b *imaging.Raster, cfg Config) (*DetectionResult, error) {
	if !a.SameGrid(b) {
		return nil, errors.DimensionMismatch("detect", a.Width, a.Height, b.Width, b.Height)
	}

	signals := ComputeSignals(a, b, cfg)

	weights := cfg.Weights
	if weights == nil {
		weights = DefaultWeights()
	}
	fused, used, err := Fuse(signals, weights)
	if err != nil {
		return nil, err
	}

	threshold, err := SelectThreshold(fused, cfg.ThresholdMethod, cfg.Percentile)
	if err != nil {
		return nil, err
	}

	mask := applyThreshold(fused, threshold)
	mask = CleanupMask(mask, fused.Width, fused.Height, cfg.Cleanup)

	changed := 0
	for _, set := range mask {
		if set {
			changed++
		}
	}
	total := fused.Width * fused.Height

	if cfg.Log != nil {
		cfg.Log.WithFields(logrus.Fields{
			"signals":        used,
			"threshold":      threshold,
			"changed_pixels": changed,
			"total_pixels":   total,
		}).Info("change detection complete")
	}

	return &DetectionResult{
		Map:           fused,
		Mask:          mask,
		TotalPixels:   total,
		ChangedPixels: changed,
		ChangePercent: 100 * float64(changed) / float64(total),
		Threshold:     threshold,
		Signals:       signals,
		FusedSignals:  used,
	}, nil
}
