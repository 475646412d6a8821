package features

// Keypoint is a located interest point in image coordinates.
type Keypoint struct {
	// X, Y is the keypoint location in pixels. Sub-pixel positions are
	// possible for centroid-based detectors.
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Scale is the characteristic size in pixels at which the point was
	// detected. 1.0 for single-scale detectors.
	Scale float64 `json:"scale"`

	// Orientation is the local gradient orientation in radians.
	Orientation float64 `json:"orientation"`

	// Score is the detector response; higher means stronger.
	Score float64 `json:"score"`
}

// Descriptor is the numeric signature attached to one keypoint. Exactly
// one of the two representations is populated: Floats for patch
// descriptors compared by Euclidean distance, Bits for packed binary
// descriptors compared by Hamming distance. Descriptors are never
// mutated after creation.
type Descriptor struct {
	Floats []float32
	Bits   []uint64
}

// Binary reports whether the descriptor uses the packed binary form.
func (d Descriptor) Binary() bool {
	return d.Bits != nil
}

// Match pairs a keypoint index in image A with one in image B.
type Match struct {
	// A, B index into the keypoint/descriptor slices of the two images.
	A int `json:"a"`
	B int `json:"b"`

	// Distance is the descriptor distance (L2 or Hamming).
	Distance float64 `json:"distance"`

	// Confidence is a normalized match-quality score in [0,1];
	// higher is better.
	Confidence float64 `json:"confidence"`
}
