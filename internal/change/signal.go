package change

// ChangeMap is a per-pixel change confidence grid with values in [0,1].
type ChangeMap struct {
	Width  int
	Height int

	// Values is row-major, len Width*Height.
	Values []float64
}

// NewChangeMap allocates a zero-filled map.
func NewChangeMap(width, height int) *ChangeMap {
	return &ChangeMap{Width: width, Height: height, Values: make([]float64, width*height)}
}

// Normalize rescales the values to [0,1] by min-max scaling, in place.
// A constant map collapses to all zeros: with no contrast there is no
// evidence of change.
func (m *ChangeMap) Normalize() {
	if len(m.Values) == 0 {
		return
	}
	lo, hi := m.Values[0], m.Values[0]
	for _, v := range m.Values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span < 1e-12 {
		for i := range m.Values {
			m.Values[i] = 0
		}
		return
	}
	for i := range m.Values {
		m.Values[i] = (m.Values[i] - lo) / span
	}
}

// Signal is the outcome of one change detector: either a usable map or
// the reason it could not be computed.
type Signal struct {
	Name string
	Map  *ChangeMap
	Err  error
}

// Available reports whether the signal produced a usable map.
func (s Signal) Available() bool {
	return s.Err == nil && s.Map != nil
}

// DiagnosticMask binarizes a single signal with an Otsu threshold.
// The fused pipeline consumes only the continuous maps; this standalone
// mask exists for inspecting one detector in isolation.
func (s Signal) DiagnosticMask() ([]bool, float64, error) {
	if !s.Available() {
		return nil, 0, s.Err
	}
	thr := clampThreshold(otsuThreshold(s.Map.Values))
	return applyThreshold(s.Map, thr), thr, nil
}

// Signal names, also used as fusion weight keys.
const (
	SignalPixelDiff     = "pixel_diff"
	SignalSSIM          = "ssim"
	SignalEdgeChange    = "edge_change"
	SignalTexture       = "texture"
	SignalSpectralAngle = "spectral_angle"
)
