package align

import (
	"math"
	"testing"

	"github.com/terrawatch/scenediff/internal/imaging"
)

// texturedRaster builds a deterministic grayscale raster with broad,
// smooth structure for correlation to latch onto.
func texturedRaster(width, height int) *imaging.Raster {
	r := imaging.NewRaster(width, height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx := float64(x) / float64(width)
			fy := float64(y) / float64(height)
			v := 0.5 + 0.25*math.Sin(7*fx*math.Pi) + 0.25*math.Cos(5*fy*math.Pi)
			r.Planes[0][y*width+x] = float32(v * 0.8)
		}
	}
	return r
}

func TestRegisterIntensity_Identity(t *testing.T) {
	r := texturedRaster(128, 128)

	tr, corr, err := RegisterIntensity(r, r, DefaultIntensityParams())
	if err != nil {
		t.Fatalf("RegisterIntensity failed: %v", err)
	}

	if corr < 0.99 {
		t.Errorf("self correlation: got %f, want ~1", corr)
	}
	if !tr.NearIdentity(0.05) {
		t.Errorf("transform not near identity: %+v", tr)
	}
}

func TestRegisterIntensity_Translation(t *testing.T) {
	fixed := texturedRaster(128, 128)

	// Moving is fixed shifted 6 pixels right and 4 down
	shift := Transform{A: 1, E: 1, C: 6, F: 4}
	moving := imaging.WarpRaster(fixed, shift.Aff3(), 128, 128)

	tr, corr, err := RegisterIntensity(fixed, moving, DefaultIntensityParams())
	if err != nil {
		t.Fatalf("RegisterIntensity failed: %v", err)
	}
	if corr < 0.8 {
		t.Errorf("correlation after registration: got %f", corr)
	}

	// The recovered transform maps moving coordinates back onto fixed:
	// a scene point at (70, 64) in moving should land near (64, 60).
	gx, gy := tr.Apply(70, 64)
	if math.Hypot(gx-64, gy-60) > 2.5 {
		t.Errorf("recovered mapping of (70,64): got (%f,%f), want ~(64,60)", gx, gy)
	}
}

func TestRegisterIntensity_BlankFrames(t *testing.T) {
	blank := imaging.NewRaster(64, 64, 1)

	_, _, err := RegisterIntensity(blank, blank, DefaultIntensityParams())
	if err == nil {
		t.Fatal("blank frames carry no signal and must not register")
	}
}

func TestSimilarityAbout_FixesCenter(t *testing.T) {
	tr := similarityAbout(32, 32, 0, 0, 0.3, 1.2)

	x, y := tr.Apply(32, 32)
	if math.Hypot(x-32, y-32) > 1e-9 {
		t.Errorf("center moved to (%f,%f)", x, y)
	}
}

func TestCorrelation_SelfIsOne(t *testing.T) {
	r := texturedRaster(64, 64)

	c := correlation(r, r, Identity())
	if math.Abs(c-1) > 1e-6 {
		t.Errorf("self correlation: got %f, want 1", c)
	}
}

func TestCorrelation_FlatPlaneFails(t *testing.T) {
	flat := imaging.NewRaster(64, 64, 1)
	textured := texturedRaster(64, 64)

	if c := correlation(flat, textured, Identity()); c != -1 {
		t.Errorf("flat fixed plane: got %f, want -1", c)
	}
	if c := correlation(textured, flat, Identity()); c != -1 {
		t.Errorf("flat moving plane: got %f, want -1", c)
	}
}

func TestCorrelation_NoOverlap(t *testing.T) {
	r := texturedRaster(64, 64)
	far := Transform{A: 1, E: 1, C: 1000, F: 1000}

	if c := correlation(r, r, far); c != -1 {
		t.Errorf("disjoint overlap: got %f, want -1", c)
	}
}
