package imaging

import (
	"testing"
)

func TestEdgeMap_UniformPlane(t *testing.T) {
	// Uniform plane should have no edges
	plane := makePlane(50, 50, 0.5)

	edges := EdgeMap(plane, 50, 50, 0.1, 0.3)

	for i, set := range edges {
		if set {
			t.Fatalf("uniform plane should have no edges, found one at index %d", i)
		}
	}
}

func TestEdgeMap_StrongEdge(t *testing.T) {
	// Left half black, right half white
	width, height := 100, 100
	plane := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= width/2 {
				plane[y*width+x] = 1.0
			}
		}
	}

	edges := EdgeMap(plane, width, height, 0.1, 0.3)

	// The edge should be detected around x=50
	edgeFound := false
	for x := 48; x <= 52; x++ {
		if edges[50*width+x] {
			edgeFound = true
			break
		}
	}
	if !edgeFound {
		t.Error("strong vertical edge was not detected")
	}

	// Far from the boundary there should be nothing
	if edges[50*width+10] || edges[50*width+90] {
		t.Error("edge detected far from the boundary")
	}
}

func TestEdgeMap_Rectangle(t *testing.T) {
	// Dark rectangle on a bright background creates a closed contour
	width, height := 80, 80
	plane := makePlane(width, height, 1.0)
	for y := height / 4; y < 3*height/4; y++ {
		for x := width / 4; x < 3*width/4; x++ {
			plane[y*width+x] = 0.0
		}
	}

	edges := EdgeMap(plane, width, height, 0.1, 0.3)

	count := 0
	for _, set := range edges {
		if set {
			count++
		}
	}
	if count == 0 {
		t.Fatal("rectangle contour was not detected")
	}
	// A thin contour covers a small fraction of the image
	if count > width*height/4 {
		t.Errorf("edge map too dense: %d of %d pixels", count, width*height)
	}
}

func TestEdgeMap_SmallPlane(t *testing.T) {
	// Very small plane (edge cases for convolution)
	plane := makePlane(5, 5, 0.5)

	edges := EdgeMap(plane, 5, 5, 0.1, 0.3)
	if len(edges) != 25 {
		t.Errorf("edge map length: got %d, want 25", len(edges))
	}
}

func TestSobelGradients(t *testing.T) {
	// Horizontal ramp has a pure x gradient
	width, height := 20, 20
	plane := make([]float32, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			plane[y*width+x] = float32(x) / float32(width-1)
		}
	}

	gx, gy := SobelGradients(plane, width, height)

	if gx[10*width+10] <= 0 {
		t.Errorf("gx at interior: got %f, want positive", gx[10*width+10])
	}
	if absFloat(float64(gy[10*width+10])) > 1e-4 {
		t.Errorf("gy at interior: got %f, want ~0", gy[10*width+10])
	}
}

func TestGaussianPlane_Uniform(t *testing.T) {
	plane := makePlane(10, 10, 0.5)

	blurred := GaussianPlane(plane, 10, 10, 1.4)

	// Uniform plane should remain uniform after blur
	for i, v := range blurred {
		if absFloat(float64(v)-0.5) > 0.01 {
			t.Errorf("blurred[%d]: got %.3f, want ~0.5", i, v)
		}
	}
}

func TestGaussianPlane_WithSpot(t *testing.T) {
	width, height := 11, 11
	plane := make([]float32, width*height)
	plane[5*width+5] = 1.0 // bright spot in center

	blurred := GaussianPlane(plane, width, height, 1.4)

	// Center should be reduced (spread to neighbors)
	if blurred[5*width+5] >= 1.0 {
		t.Error("bright spot should be reduced after blur")
	}

	// Neighbors should receive some of the brightness
	if blurred[5*width+4] == 0 || blurred[5*width+6] == 0 || blurred[4*width+5] == 0 || blurred[6*width+5] == 0 {
		t.Error("neighbors should receive some brightness from blur")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}

// Helper functions

func makePlane(width, height int, v float32) []float32 {
	plane := make([]float32, width*height)
	for i := range plane {
		plane[i] = v
	}
	return plane
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
