package features

import "math"

// patchGrid is the side length of the sampled descriptor patch.
const patchGrid = 8

// DescribePatches builds mean/variance-normalized intensity patch
// descriptors for the given keypoints.
//
// Each descriptor samples an 8x8 grid centered on the keypoint with a
// spacing of the keypoint scale (bilinear interpolation), then
// normalizes the 64 samples to zero mean and unit variance so the
// descriptor is invariant to brightness and contrast shifts. Keypoints
// whose patch would leave the image are dropped; the returned keypoint
// slice is the surviving subset, index-aligned with the descriptors.
func DescribePatches(plane []float32, width, height int, kps []Keypoint) ([]Keypoint, []Descriptor) {
	kept := make([]Keypoint, 0, len(kps))
	descs := make([]Descriptor, 0, len(kps))

	for _, kp := range kps {
		spacing := kp.Scale
		if spacing < 1 {
			spacing = 1
		}
		half := spacing * (patchGrid - 1) / 2
		if kp.X-half < 1 || kp.Y-half < 1 || kp.X+half >= float64(width-1) || kp.Y+half >= float64(height-1) {
			continue
		}

		samples := make([]float64, patchGrid*patchGrid)
		idx := 0
		sum := 0.0
		for gy := 0; gy < patchGrid; gy++ {
			for gx := 0; gx < patchGrid; gx++ {
				sx := kp.X - half + float64(gx)*spacing
				sy := kp.Y - half + float64(gy)*spacing
				v := bilinear(plane, width, sx, sy)
				samples[idx] = v
				sum += v
				idx++
			}
		}

		mean := sum / float64(len(samples))
		variance := 0.0
		for _, v := range samples {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(samples)))
		if std < 1e-8 {
			// Flat patch carries no structure to match against.
			continue
		}

		floats := make([]float32, len(samples))
		for i, v := range samples {
			floats[i] = float32((v - mean) / std)
		}

		kept = append(kept, kp)
		descs = append(descs, Descriptor{Floats: floats})
	}

	return kept, descs
}

// bilinear samples a float plane at a fractional coordinate. The caller
// guarantees the coordinate is at least one pixel inside the border.
func bilinear(plane []float32, width int, x, y float64) float64 {
	x0 := int(x)
	y0 := int(y)
	dx := x - float64(x0)
	dy := y - float64(y0)
	i := y0*width + x0
	v00 := float64(plane[i])
	v10 := float64(plane[i+1])
	v01 := float64(plane[i+width])
	v11 := float64(plane[i+width+1])
	top := v00 + (v10-v00)*dx
	bot := v01 + (v11-v01)*dx
	return top + (bot-top)*dy
}
