package change

import (
	"fmt"
	"sort"
)

// Weights maps signal names to their contribution in the fused map.
type Weights map[string]float64

// DefaultWeights returns the standard signal weighting. Pixel,
// structural and spectral evidence carry full weight; the noisier edge
// and texture signals carry half.
func DefaultWeights() Weights {
	return Weights{
		SignalPixelDiff:     1.0,
		SignalSSIM:          1.0,
		SignalEdgeChange:    0.5,
		SignalTexture:       0.5,
		SignalSpectralAngle: 1.0,
	}
}

// Fuse combines the available signals into a single change map as a
// weighted mean. Signals that failed to compute, or whose weight is
// zero, are excluded and the divisor shrinks accordingly, so a missing
// signal never drags the fused value toward zero. Returns the fused
// map and the names of the signals that actually contributed.
func Fuse(signals []Signal, weights Weights) (*ChangeMap, []string, error) {
	var (
		fused *ChangeMap
		total float64
		used  []string
	)

	for _, s := range signals {
		if !s.Available() {
			continue
		}
		w := weights[s.Name]
		if w <= 0 {
			continue
		}
		if fused == nil {
			fused = NewChangeMap(s.Map.Width, s.Map.Height)
		}
		for i, v := range s.Map.Values {
			fused.Values[i] += w * v
		}
		total += w
		used = append(used, s.Name)
	}

	if fused == nil {
		return nil, nil, fmt.Errorf("no change signal available for fusion")
	}

	inv := 1.0 / total
	for i := range fused.Values {
		fused.Values[i] *= inv
	}
	sort.Strings(used)
	return fused, used, nil
}
