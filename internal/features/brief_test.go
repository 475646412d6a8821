package features

import (
	"testing"

	"github.com/terrawatch/scenediff/internal/errors"
)

// blockPlane scatters bright rectangles on a dark background. Rectangle
// corners satisfy the segment test at any reasonable threshold.
func blockPlane(width, height int) []float32 {
	plane := make([]float32, width*height)
	for _, r := range [][4]int{
		{24, 24, 44, 40},
		{70, 30, 100, 52},
		{30, 70, 58, 100},
		{76, 72, 102, 98},
	} {
		for y := r[1]; y < r[3]; y++ {
			for x := r[0]; x < r[2]; x++ {
				plane[y*width+x] = 0.9
			}
		}
	}
	return plane
}

func TestDetectFAST_FindsCorners(t *testing.T) {
	plane := blockPlane(128, 128)

	kps, descs, err := DetectFAST(plane, 128, 128, DefaultFASTParams())
	if err != nil {
		t.Fatalf("DetectFAST failed: %v", err)
	}

	if len(kps) < 8 {
		t.Fatalf("keypoints: got %d, want at least 8", len(kps))
	}
	if len(kps) != len(descs) {
		t.Fatalf("keypoints and descriptors not aligned: %d vs %d", len(kps), len(descs))
	}
	for i, d := range descs {
		if !d.Binary() {
			t.Fatalf("descriptor %d is not binary", i)
		}
		if len(d.Bits) != 4 {
			t.Fatalf("descriptor %d: got %d words, want 4", i, len(d.Bits))
		}
	}
}

func TestDetectFAST_BorderCornersDropped(t *testing.T) {
	plane := blockPlane(128, 128)

	kps, _, err := DetectFAST(plane, 128, 128, DefaultFASTParams())
	if err != nil {
		t.Fatalf("DetectFAST failed: %v", err)
	}
	for _, kp := range kps {
		if kp.X < 15 || kp.Y < 15 || kp.X >= 128-15 || kp.Y >= 128-15 {
			t.Errorf("keypoint (%f,%f) inside the descriptor border margin", kp.X, kp.Y)
		}
	}
}

func TestDetectFAST_Deterministic(t *testing.T) {
	plane := blockPlane(128, 128)
	p := DefaultFASTParams()

	_, d1, err := DetectFAST(plane, 128, 128, p)
	if err != nil {
		t.Fatalf("DetectFAST failed: %v", err)
	}
	_, d2, err := DetectFAST(plane, 128, 128, p)
	if err != nil {
		t.Fatalf("DetectFAST failed: %v", err)
	}

	if len(d1) != len(d2) {
		t.Fatalf("descriptor counts differ: %d vs %d", len(d1), len(d2))
	}
	for i := range d1 {
		for w := range d1[i].Bits {
			if d1[i].Bits[w] != d2[i].Bits[w] {
				t.Fatalf("descriptor %d word %d differs between runs", i, w)
			}
		}
	}
}

func TestDetectFAST_UniformPlane(t *testing.T) {
	plane := make([]float32, 64*64)

	_, _, err := DetectFAST(plane, 64, 64, DefaultFASTParams())
	if !errors.IsKind(err, errors.KindInsufficientFeatures) {
		t.Fatalf("expected insufficient features, got %v", err)
	}
}

func TestDetectFAST_MaxFeaturesCap(t *testing.T) {
	plane := blockPlane(128, 128)
	p := DefaultFASTParams()
	p.MaxFeatures = 5
	p.MinFeatures = 1

	kps, _, err := DetectFAST(plane, 128, 128, p)
	if err != nil {
		t.Fatalf("DetectFAST failed: %v", err)
	}
	if len(kps) > 5 {
		t.Errorf("keypoints: got %d, want at most 5", len(kps))
	}
}
