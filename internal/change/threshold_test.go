package change

import (
	"testing"
)

func constMap(width, height int, v float64) *ChangeMap {
	m := NewChangeMap(width, height)
	for i := range m.Values {
		m.Values[i] = v
	}
	return m
}

// bimodalMap fills the left half with lo and the right half with hi.
func bimodalMap(width, height int, lo, hi float64) *ChangeMap {
	m := NewChangeMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := lo
			if x >= width/2 {
				v = hi
			}
			m.Values[y*width+x] = v
		}
	}
	return m
}

func TestSelectThreshold_Otsu_Bimodal(t *testing.T) {
	m := bimodalMap(64, 64, 0.2, 0.8)

	got, err := SelectThreshold(m, ThresholdOtsu, 0)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	if got <= 0.2 || got >= 0.8 {
		t.Errorf("otsu threshold %f does not separate the modes", got)
	}
}

func TestSelectThreshold_KMeans_Bimodal(t *testing.T) {
	m := bimodalMap(64, 64, 0.2, 0.8)

	got, err := SelectThreshold(m, ThresholdKMeans, 0)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	// Cluster centers converge on the modes; the cut is their midpoint
	if got < 0.45 || got > 0.55 {
		t.Errorf("kmeans threshold: got %f, want ~0.5", got)
	}
}

func TestSelectThreshold_Percentile(t *testing.T) {
	m := NewChangeMap(10, 10)
	for i := range m.Values {
		m.Values[i] = float64(i) / 99.0
	}

	got, err := SelectThreshold(m, ThresholdPercentile, 0.5)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	if got < 0.45 || got > 0.55 {
		t.Errorf("median threshold: got %f, want ~0.5", got)
	}
}

func TestSelectThreshold_PercentileDefault(t *testing.T) {
	m := NewChangeMap(10, 10)
	for i := range m.Values {
		m.Values[i] = float64(i) / 99.0
	}

	// Out-of-range percentile falls back to 0.90
	got, err := SelectThreshold(m, ThresholdPercentile, 0)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	want, err := SelectThreshold(m, ThresholdPercentile, 0.90)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	if got != want {
		t.Errorf("default percentile: got %f, want %f", got, want)
	}
}

func TestSelectThreshold_Clamped(t *testing.T) {
	tests := []struct {
		name   string
		m      *ChangeMap
		method ThresholdMethod
		want   float64
	}{
		{"otsu all zero", constMap(8, 8, 0), ThresholdOtsu, 0.1},
		{"kmeans all zero", constMap(8, 8, 0), ThresholdKMeans, 0.1},
		{"percentile all one", constMap(8, 8, 1), ThresholdPercentile, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectThreshold(tt.m, tt.method, 0.9)
			if err != nil {
				t.Fatalf("SelectThreshold failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestSelectThreshold_EmptyMethodIsOtsu(t *testing.T) {
	m := bimodalMap(32, 32, 0.2, 0.8)

	def, err := SelectThreshold(m, "", 0)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	otsu, err := SelectThreshold(m, ThresholdOtsu, 0)
	if err != nil {
		t.Fatalf("SelectThreshold failed: %v", err)
	}
	if def != otsu {
		t.Errorf("empty method: got %f, want otsu value %f", def, otsu)
	}
}

func TestSelectThreshold_UnknownMethod(t *testing.T) {
	_, err := SelectThreshold(constMap(8, 8, 0.5), "triangle", 0)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestApplyThreshold_StrictlyAbove(t *testing.T) {
	m := NewChangeMap(3, 1)
	m.Values = []float64{0.1, 0.5, 0.9}

	mask := applyThreshold(m, 0.5)
	want := []bool{false, false, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d]: got %v, want %v", i, mask[i], want[i])
		}
	}
}
