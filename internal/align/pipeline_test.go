package align

import (
	"math"
	"testing"

	"github.com/terrawatch/scenediff/internal/imaging"
)

// sceneRaster builds a grayscale raster with blobs and corners so every
// feature strategy has something to detect.
func sceneRaster(width, height int) *imaging.Raster {
	r := imaging.NewRaster(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx := float64(x) / float64(width)
			fy := float64(y) / float64(height)
			v := 0.4 + 0.2*math.Sin(9*fx*math.Pi)*math.Cos(7*fy*math.Pi)
			// Checker overlay adds corner structure
			if ((x/12)+(y/12))%2 == 0 {
				v += 0.3
			}
			r.Planes[0][y*width+x] = float32(v)
		}
	}
	return r
}

func TestPipeline_Align_IdenticalFrames(t *testing.T) {
	p := NewPipeline()
	r := sceneRaster(160, 120)

	res, err := p.Align(r, r, StrategyAuto)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if !res.Success {
		t.Fatal("identical frames should align")
	}
	if res.Method == "" {
		t.Error("winning method not recorded")
	}
	if !res.Transform.NearIdentity(0.05) {
		t.Errorf("transform not near identity: %+v", res.Transform)
	}
	if res.Aligned == nil || !res.Aligned.SameGrid(r) {
		t.Error("aligned raster must use the fixed raster's grid")
	}
}

func TestPipeline_Align_Translation(t *testing.T) {
	p := NewPipeline()
	fixed := sceneRaster(160, 120)

	shift := Transform{A: 1, E: 1, C: 8, F: 5}
	moving := imaging.WarpRaster(fixed, shift.Aff3(), 160, 120)

	res, err := p.Align(fixed, moving, StrategyAuto)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if !res.Success {
		t.Fatal("shifted frames should align")
	}

	// The recovered transform maps moving onto fixed, so it must undo
	// the shift: a point at (80, 60) in moving lands near (72, 55).
	gx, gy := res.Transform.Apply(80, 60)
	if math.Hypot(gx-72, gy-55) > 2.5 {
		t.Errorf("recovered mapping of (80,60): got (%f,%f), want ~(72,55)", gx, gy)
	}

	// The resampled raster should again correlate with the fixed one
	if c := correlation(fixed, res.Aligned, Identity()); c < 0.9 {
		t.Errorf("aligned correlation: got %f", c)
	}
}

func TestPipeline_Align_BlankFrames(t *testing.T) {
	p := NewPipeline()
	blank := imaging.NewRaster(64, 64, 1)

	res, err := p.Align(blank, blank, StrategyAuto)
	if err != nil {
		t.Fatalf("Align returned error on unalignable pair: %v", err)
	}

	if res.Success {
		t.Fatal("blank frames must not report success")
	}
	if !res.Transform.NearIdentity(1e-12) {
		t.Errorf("failed alignment should return identity, got %+v", res.Transform)
	}
	if res.Aligned != blank {
		t.Error("failed alignment should return the original moving raster")
	}
}

func TestPipeline_Align_UnknownStrategy(t *testing.T) {
	p := NewPipeline()
	r := sceneRaster(64, 64)

	_, err := p.Align(r, r, "orb")
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestPipeline_Align_NamedStrategy(t *testing.T) {
	p := NewPipeline()
	r := sceneRaster(160, 120)

	for _, strategy := range []string{"harris", "intensity"} {
		res, err := p.Align(r, r, strategy)
		if err != nil {
			t.Fatalf("Align(%s) failed: %v", strategy, err)
		}
		if !res.Success {
			t.Errorf("strategy %s failed on identical frames", strategy)
		}
		if res.Method != strategy {
			t.Errorf("method: got %s, want %s", res.Method, strategy)
		}
	}
}

func TestPipeline_Align_DifferentSizes(t *testing.T) {
	p := NewPipeline()
	fixed := sceneRaster(160, 120)
	moving := sceneRaster(140, 100)

	res, err := p.Align(fixed, moving, StrategyAuto)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	if res.Success {
		if res.Aligned.Width != fixed.Width || res.Aligned.Height != fixed.Height {
			t.Errorf("aligned dimensions: got %dx%d, want %dx%d",
				res.Aligned.Width, res.Aligned.Height, fixed.Width, fixed.Height)
		}
	}
}

func TestPipeline_Align_ColorInputs(t *testing.T) {
	p := NewPipeline()

	gray := sceneRaster(120, 90)
	color := imaging.NewRaster(120, 90, 3)
	for b := 0; b < 3; b++ {
		copy(color.Planes[b], gray.Planes[0])
	}

	res, err := p.Align(color, color, StrategyAuto)
	if err != nil {
		t.Fatalf("Align failed on color input: %v", err)
	}
	if !res.Success {
		t.Fatal("color frames should align via their luminance")
	}
	if res.Aligned.Bands != 3 {
		t.Errorf("aligned raster bands: got %d, want 3", res.Aligned.Bands)
	}
}
