package imaging

import "math"

// EdgeMap performs Canny-style edge detection on a grayscale float plane
// and returns a binary edge mask (true = edge pixel).
//
// The algorithm is the usual chain:
//
//  1. Gaussian smoothing to suppress noise
//  2. Sobel gradients (magnitude + direction)
//  3. Non-maximum suppression to thin edges to 1 pixel
//  4. Hysteresis thresholding: pixels above thresholdHigh are strong
//     edges, pixels between the thresholds are kept only when adjacent
//     to a strong edge
//
// Thresholds are in the same [0,1] domain as the plane samples. Lower
// thresholds detect more edges but admit more noise; 0.1/0.3 works well
// for photographic content.
func EdgeMap(src []float32, width, height int, thresholdLow, thresholdHigh float64) []bool {
	blurred := GaussianPlane(src, width, height, 1.4)

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := float64(blurred[py*width+px])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression along the gradient direction.
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]

			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis.
	edges := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			val := suppressed[i]
			if val >= thresholdHigh {
				edges[i] = true
				continue
			}
			if val < thresholdLow {
				continue
			}
			for ky := -1; ky <= 1 && !edges[i]; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					if suppressed[py*width+px] >= thresholdHigh {
						edges[i] = true
						break
					}
				}
			}
		}
	}

	return edges
}

// SobelGradients computes Sobel X/Y gradients for a float plane.
// Used by the corner detector's structure tensor.
func SobelGradients(src []float32, width, height int) (gx, gy []float32) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	gx = make([]float32, width*height)
	gy = make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sx, sy float64
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := float64(src[py*width+px])
					sx += v * sobelX[ky+1][kx+1]
					sy += v * sobelY[ky+1][kx+1]
				}
			}
			gx[y*width+x] = float32(sx)
			gy[y*width+x] = float32(sy)
		}
	}
	return gx, gy
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
