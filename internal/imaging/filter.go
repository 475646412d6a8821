package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// GaussianPlane applies a separable Gaussian filter to a float plane.
//
// The kernel radius is ceil(3*sigma), which captures >99% of the kernel
// mass. Borders use clamped (replicated) samples. This operates on float
// samples directly so repeated filtering (scale-space construction, SSIM
// windows) does not accumulate 8-bit quantization error.
func GaussianPlane(src []float32, width, height int, sigma float64) []float32 {
	if sigma <= 0 {
		out := make([]float32, len(src))
		copy(out, src)
		return out
	}

	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		k := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = k
		sum += k
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	// Horizontal pass.
	tmp := make([]float32, width*height)
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				px := clamp(x+i, 0, width-1)
				acc += float64(src[row+px]) * kernel[i+radius]
			}
			tmp[row+x] = float32(acc)
		}
	}

	// Vertical pass.
	out := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				py := clamp(y+i, 0, height-1)
				acc += float64(tmp[py*width+x]) * kernel[i+radius]
			}
			out[y*width+x] = float32(acc)
		}
	}
	return out
}

// GaussianGray smooths an 8-bit grayscale image. Used where 8-bit
// precision is sufficient, e.g. before binary descriptor sampling.
func GaussianGray(img *image.Gray, radius float64) *image.Gray {
	blurred := blur.Gaussian(img, radius)
	bounds := blurred.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := blurred.At(x, y).RGBA()
			out.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}
	return out
}

// LocalStdDev computes the windowed standard deviation of a float plane.
// The window is a (2*radius+1) square with clamped borders. This is the
// texture measure used by the texture-change signal.
func LocalStdDev(src []float32, width, height, radius int) []float32 {
	out := make([]float32, width*height)
	n := float64((2*radius + 1) * (2*radius + 1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, sumSq float64
			for ky := -radius; ky <= radius; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -radius; kx <= radius; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := float64(src[py*width+px])
					sum += v
					sumSq += v * v
				}
			}
			mean := sum / n
			variance := sumSq/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			out[y*width+x] = float32(math.Sqrt(variance))
		}
	}
	return out
}

// BoxMean computes the windowed mean of a float64 plane with clamped
// borders. Shared by the SSIM signal's local statistics.
func BoxMean(src []float64, width, height, radius int) []float64 {
	out := make([]float64, width*height)
	n := float64((2*radius + 1) * (2*radius + 1))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum := 0.0
			for ky := -radius; ky <= radius; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -radius; kx <= radius; kx++ {
					px := clamp(x+kx, 0, width-1)
					sum += src[py*width+px]
				}
			}
			out[y*width+x] = sum / n
		}
	}
	return out
}
