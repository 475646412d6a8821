package change

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/terrawatch/scenediff/internal/errors"
	"github.com/terrawatch/scenediff/internal/imaging"
)

// pixelDiff computes the absolute luminance difference, optionally
// Gaussian-smoothed so isolated sensor noise does not register as
// change.
func pixelDiff(a, b *imaging.Raster, sigma float64) (*ChangeMap, error) {
	la, err := a.Luminance()
	if err != nil {
		return nil, err
	}
	lb, err := b.Luminance()
	if err != nil {
		return nil, err
	}

	diff := make([]float32, len(la))
	for i := range la {
		d := la[i] - lb[i]
		if d < 0 {
			d = -d
		}
		diff[i] = d
	}
	if sigma > 0 {
		diff = imaging.GaussianPlane(diff, a.Width, a.Height, sigma)
	}

	m := NewChangeMap(a.Width, a.Height)
	for i, v := range diff {
		m.Values[i] = float64(v)
	}
	m.Normalize()
	return m, nil
}

// ssimChange computes 1 - SSIM over a local window, so structural
// disagreement scores high. The standard stabilizing constants assume a
// unit dynamic range.
func ssimChange(a, b *imaging.Raster, window int) (*ChangeMap, error) {
	la, err := a.Luminance()
	if err != nil {
		return nil, err
	}
	lb, err := b.Luminance()
	if err != nil {
		return nil, err
	}

	w, h := a.Width, a.Height
	radius := window / 2
	if radius < 1 {
		radius = 1
	}

	fa := make([]float64, len(la))
	fb := make([]float64, len(lb))
	faa := make([]float64, len(la))
	fbb := make([]float64, len(lb))
	fab := make([]float64, len(la))
	for i := range la {
		va, vb := float64(la[i]), float64(lb[i])
		fa[i] = va
		fb[i] = vb
		faa[i] = va * va
		fbb[i] = vb * vb
		fab[i] = va * vb
	}

	muA := imaging.BoxMean(fa, w, h, radius)
	muB := imaging.BoxMean(fb, w, h, radius)
	muAA := imaging.BoxMean(faa, w, h, radius)
	muBB := imaging.BoxMean(fbb, w, h, radius)
	muAB := imaging.BoxMean(fab, w, h, radius)

	const (
		c1 = 0.01 * 0.01
		c2 = 0.03 * 0.03
	)

	m := NewChangeMap(w, h)
	for i := range m.Values {
		varA := muAA[i] - muA[i]*muA[i]
		varB := muBB[i] - muB[i]*muB[i]
		cov := muAB[i] - muA[i]*muB[i]

		ssim := ((2*muA[i]*muB[i] + c1) * (2*cov + c2)) /
			((muA[i]*muA[i] + muB[i]*muB[i] + c1) * (varA + varB + c2))

		// SSIM lies in [-1,1]; map disagreement onto [0,1].
		m.Values[i] = (1 - ssim) / 2
	}
	m.Normalize()
	return m, nil
}

// edgeChange extracts a binary edge map from each image and marks the
// symmetric difference, dilated so changed edges form regions instead
// of one-pixel filaments.
func edgeChange(a, b *imaging.Raster, low, high float64, dilateRadius int) (*ChangeMap, error) {
	la, err := a.Luminance()
	if err != nil {
		return nil, err
	}
	lb, err := b.Luminance()
	if err != nil {
		return nil, err
	}

	w, h := a.Width, a.Height
	edgesA := imaging.EdgeMap(la, w, h, low, high)
	edgesB := imaging.EdgeMap(lb, w, h, low, high)

	sym := make([]bool, len(edgesA))
	for i := range sym {
		sym[i] = edgesA[i] != edgesB[i]
	}
	if dilateRadius > 0 {
		sym = dilateMask(sym, w, h, dilateRadius)
	}

	m := NewChangeMap(w, h)
	for i, v := range sym {
		if v {
			m.Values[i] = 1
		}
	}
	return m, nil
}

// textureChange compares local intensity standard deviation, a cheap
// stand-in for texture energy: surfaces that gained or lost structure
// score high even when mean brightness is unchanged.
func textureChange(a, b *imaging.Raster, radius int) (*ChangeMap, error) {
	la, err := a.Luminance()
	if err != nil {
		return nil, err
	}
	lb, err := b.Luminance()
	if err != nil {
		return nil, err
	}

	w, h := a.Width, a.Height
	ta := imaging.LocalStdDev(la, w, h, radius)
	tb := imaging.LocalStdDev(lb, w, h, radius)

	m := NewChangeMap(w, h)
	for i := range m.Values {
		d := float64(ta[i] - tb[i])
		if d < 0 {
			d = -d
		}
		m.Values[i] = d
	}
	m.Normalize()
	return m, nil
}

// spectralAngle computes the per-pixel angle between the two linearized
// band vectors. The angle isolates composition change from brightness
// change: a shadow leaves it near zero while new material moves it.
// Only defined for color input; grayscale pairs report unavailable so
// fusion does not double-count the pixel-difference evidence.
func spectralAngle(a, b *imaging.Raster) (*ChangeMap, error) {
	if a.Bands < 3 || b.Bands < 3 {
		bands := a.Bands
		if b.Bands < bands {
			bands = b.Bands
		}
		return nil, errors.UnsupportedBandCount(SignalSpectralAngle, bands)
	}

	w, h := a.Width, a.Height
	m := NewChangeMap(w, h)
	for i := 0; i < w*h; i++ {
		ra, ga, ba := linearBands(a, i)
		rb, gb, bb := linearBands(b, i)

		na := math.Sqrt(ra*ra + ga*ga + ba*ba)
		nb := math.Sqrt(rb*rb + gb*gb + bb*bb)
		if na < 1e-9 || nb < 1e-9 {
			continue
		}

		cos := (ra*rb + ga*gb + ba*bb) / (na * nb)
		if cos > 1 {
			cos = 1
		} else if cos < -1 {
			cos = -1
		}
		m.Values[i] = math.Acos(cos)
	}
	m.Normalize()
	return m, nil
}

// linearBands returns the pixel's band vector in linear light. Spectral
// comparison in gamma-encoded sRGB would skew dark pixels.
func linearBands(r *imaging.Raster, i int) (float64, float64, float64) {
	c := colorful.Color{
		R: float64(r.Planes[0][i]),
		G: float64(r.Planes[1][i]),
		B: float64(r.Planes[2][i]),
	}
	return c.LinearRgb()
}
