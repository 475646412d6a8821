package features

import (
	"image"
	"math/rand"
	"sync"

	"github.com/lafin/fast"

	"github.com/terrawatch/scenediff/internal/errors"
	"github.com/terrawatch/scenediff/internal/imaging"
)

const (
	// briefBits is the descriptor length in comparisons.
	briefBits = 256

	// briefWindow is the half-size of the comparison window.
	briefWindow = 15

	// briefSeed fixes the comparison pattern so descriptors from
	// different runs (and different images) are comparable.
	briefSeed = 0x5ce9ed1f
)

// FASTParams tunes the binary-descriptor method.
type FASTParams struct {
	// Threshold is the FAST segment-test intensity threshold (0-255).
	Threshold int

	// SmoothRadius is the Gaussian radius applied before descriptor
	// sampling; BRIEF comparisons on raw pixels are noise-dominated.
	SmoothRadius float64

	// MinFeatures is the floor below which detection fails.
	MinFeatures int

	// MaxFeatures caps the number of corners described.
	MaxFeatures int
}

// DefaultFASTParams returns the tuning used by the alignment pipeline.
func DefaultFASTParams() FASTParams {
	return FASTParams{
		Threshold:    20,
		SmoothRadius: 2,
		MinFeatures:  8,
		MaxFeatures:  800,
	}
}

// briefOffsets holds the fixed random comparison pattern: for each bit,
// two (dx, dy) offsets inside the window.
var briefOffsets = struct {
	once sync.Once
	a    [briefBits][2]int
	b    [briefBits][2]int
}{}

func briefPattern() (a, b *[briefBits][2]int) {
	briefOffsets.once.Do(func() {
		rng := rand.New(rand.NewSource(briefSeed))
		for i := 0; i < briefBits; i++ {
			briefOffsets.a[i] = [2]int{rng.Intn(2*briefWindow+1) - briefWindow, rng.Intn(2*briefWindow+1) - briefWindow}
			briefOffsets.b[i] = [2]int{rng.Intn(2*briefWindow+1) - briefWindow, rng.Intn(2*briefWindow+1) - briefWindow}
		}
	})
	return &briefOffsets.a, &briefOffsets.b
}

// DetectFAST finds FAST corners on a grayscale float plane and attaches
// 256-bit BRIEF descriptors.
//
// The plane is quantized to 8 bits for the segment test, then smoothed
// before descriptor sampling so individual comparisons are not dominated
// by pixel noise. Corners closer than the comparison window to the
// border are dropped. Returned keypoints and descriptors are
// index-aligned.
func DetectFAST(plane []float32, width, height int, p FASTParams) ([]Keypoint, []Descriptor, error) {
	pixels := make(map[int]int, width*height)
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i, v := range plane {
		g := int(v*255 + 0.5)
		if g < 0 {
			g = 0
		} else if g > 255 {
			g = 255
		}
		pixels[i] = g
		gray.Pix[i] = uint8(g)
	}

	corners := fast.FindCorners(pixels, width, height, p.Threshold)

	smoothed := imaging.GaussianGray(gray, p.SmoothRadius)
	offA, offB := briefPattern()

	kps := make([]Keypoint, 0, len(corners)/2)
	descs := make([]Descriptor, 0, len(corners)/2)
	for i := 0; i+1 < len(corners); i += 2 {
		x, y := corners[i], corners[i+1]
		if x < briefWindow || y < briefWindow || x >= width-briefWindow || y >= height-briefWindow {
			continue
		}

		var bits [briefBits / 64]uint64
		for j := 0; j < briefBits; j++ {
			pa := smoothed.Pix[(y+offA[j][1])*width+(x+offA[j][0])]
			pb := smoothed.Pix[(y+offB[j][1])*width+(x+offB[j][0])]
			if pa < pb {
				bits[j>>6] |= 1 << (uint(j) & 63)
			}
		}

		words := make([]uint64, len(bits))
		copy(words, bits[:])
		kps = append(kps, Keypoint{X: float64(x), Y: float64(y), Scale: 1})
		descs = append(descs, Descriptor{Bits: words})

		if p.MaxFeatures > 0 && len(kps) >= p.MaxFeatures {
			break
		}
	}

	if len(kps) < p.MinFeatures {
		return nil, nil, errors.InsufficientFeatures("fast", len(kps), p.MinFeatures)
	}
	return kps, descs, nil
}
