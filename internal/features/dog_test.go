package features

import (
	"math"
	"testing"

	"github.com/terrawatch/scenediff/internal/errors"
)

// blobPlane places Gaussian blobs of the given radius at the centers.
func blobPlane(width, height int, centers [][2]float64, radius float64) []float32 {
	plane := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := 0.0
			for _, c := range centers {
				dx := float64(x) - c[0]
				dy := float64(y) - c[1]
				v += math.Exp(-(dx*dx + dy*dy) / (2 * radius * radius))
			}
			if v > 1 {
				v = 1
			}
			plane[y*width+x] = float32(v)
		}
	}
	return plane
}

func TestDetectDoG_Blobs(t *testing.T) {
	centers := [][2]float64{
		{16, 16}, {48, 16}, {16, 48}, {48, 48},
		{32, 32}, {16, 32}, {48, 32}, {32, 16}, {32, 48},
	}
	plane := blobPlane(64, 64, centers, 3)

	kps, err := DetectDoG(plane, 64, 64, DefaultDoGParams())
	if err != nil {
		t.Fatalf("DetectDoG failed: %v", err)
	}

	// Every planted blob should be recovered within a couple of pixels
	for _, c := range centers {
		found := false
		for _, kp := range kps {
			if math.Hypot(kp.X-c[0], kp.Y-c[1]) <= 3 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("blob at (%.0f,%.0f) not detected", c[0], c[1])
		}
	}

	// Scale must carry the sigma of the responding level
	for _, kp := range kps {
		if kp.Scale <= 0 {
			t.Fatalf("keypoint scale not set: %+v", kp)
		}
	}
}

func TestDetectDoG_UniformPlane(t *testing.T) {
	plane := make([]float32, 64*64)
	for i := range plane {
		plane[i] = 0.5
	}

	_, err := DetectDoG(plane, 64, 64, DefaultDoGParams())
	if err == nil {
		t.Fatal("expected failure on a featureless plane")
	}
	if !errors.IsKind(err, errors.KindInsufficientFeatures) {
		t.Errorf("error kind: got %v, want insufficient features", err)
	}
}
