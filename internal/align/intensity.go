package align

import (
	"fmt"
	"math"

	dimaging "github.com/disintegration/imaging"
	"gonum.org/v1/gonum/optimize"

	"github.com/terrawatch/scenediff/internal/imaging"
)

// IntensityParams tunes the direct registration fallback.
type IntensityParams struct {
	// MaxDim is the working width of the downsampled pyramid level the
	// optimizer runs on. Smaller is faster and smoother but less exact;
	// the result is only expected to be a coarse rescue when feature
	// methods fail.
	MaxDim int

	// MaxIterations bounds the simplex optimizer.
	MaxIterations int

	// MinCorrelation is the normalized cross-correlation the optimized
	// transform must reach for the registration to count as converged.
	MinCorrelation float64
}

// DefaultIntensityParams returns the tuning used by the alignment
// pipeline.
func DefaultIntensityParams() IntensityParams {
	return IntensityParams{
		MaxDim:         256,
		MaxIterations:  300,
		MinCorrelation: 0.55,
	}
}

// RegisterIntensity estimates a similarity transform by directly
// maximizing normalized cross-correlation between the fixed raster and
// the warped moving raster, without any keypoints.
//
// Both rasters are reduced to a Lanczos-downsampled grayscale working
// level; a Nelder-Mead simplex then searches translation, rotation and
// log-scale. The optimized transform is composed with the pyramid
// scaling so the returned transform operates at full resolution.
func RegisterIntensity(fixed, moving *imaging.Raster, p IntensityParams) (Transform, float64, error) {
	fixedSmall, fixedFactor, err := workingLevel(fixed, p.MaxDim)
	if err != nil {
		return Identity(), 0, err
	}
	movingSmall, movingFactor, err := workingLevel(moving, p.MaxDim)
	if err != nil {
		return Identity(), 0, err
	}

	cx := float64(movingSmall.Width) / 2
	cy := float64(movingSmall.Height) / 2

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			t := similarityAbout(cx, cy, x[0], x[1], x[2], math.Exp(x[3]))
			return 1 - correlation(fixedSmall, movingSmall, t)
		},
	}

	x0 := []float64{0, 0, 0, 0}
	settings := &optimize.Settings{MajorIterations: p.MaxIterations}
	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return Identity(), 0, fmt.Errorf("intensity registration did not converge: %w", err)
	}

	corr := 1 - result.F
	if corr < p.MinCorrelation {
		return Identity(), corr, fmt.Errorf("intensity registration correlation %.3f below floor %.3f", corr, p.MinCorrelation)
	}

	small := similarityAbout(cx, cy, result.X[0], result.X[1], result.X[2], math.Exp(result.X[3]))

	// Lift the working-level transform to full resolution:
	// full = upscale(fixed) ∘ small ∘ downscale(moving).
	up := Transform{A: fixedFactor, E: fixedFactor}
	down := Transform{A: 1 / movingFactor, E: 1 / movingFactor}
	full := up.Mul(small).Mul(down)

	return full, corr, nil
}

// workingLevel reduces a raster to a grayscale plane at most maxDim
// wide, returning the scale factor back to full resolution.
func workingLevel(r *imaging.Raster, maxDim int) (*imaging.Raster, float64, error) {
	gray, err := r.Gray()
	if err != nil {
		return nil, 0, err
	}
	if gray.Width <= maxDim {
		return gray, 1, nil
	}

	img, err := gray.ToGrayImage()
	if err != nil {
		return nil, 0, err
	}
	small := dimaging.Resize(img, maxDim, 0, dimaging.Lanczos)
	sr := imaging.FromImage(small)
	return sr, float64(r.Width) / float64(sr.Width), nil
}

// similarityAbout builds a similarity transform rotating and scaling
// about (cx, cy), then translating by (tx, ty).
func similarityAbout(cx, cy, tx, ty, theta, scale float64) Transform {
	cos := scale * math.Cos(theta)
	sin := scale * math.Sin(theta)
	return Transform{
		A: cos, B: -sin, C: cx - cos*cx + sin*cy + tx,
		D: sin, E: cos, F: cy - sin*cx - cos*cy + ty,
	}
}

// correlation computes the normalized cross-correlation between the
// fixed plane and the moving plane warped by t, over the overlapping
// pixels. Returns -1 when the overlap or the signal variance is too
// small to score.
func correlation(fixed, moving *imaging.Raster, t Transform) float64 {
	inv, ok := t.Invert()
	if !ok {
		return -1
	}

	fp := fixed.Planes[0]
	mp := moving.Planes[0]

	var n int
	var sumF, sumM, sumFF, sumMM, sumFM float64
	for y := 0; y < fixed.Height; y++ {
		for x := 0; x < fixed.Width; x++ {
			sx, sy := inv.Apply(float64(x), float64(y))
			if sx < 0 || sy < 0 || sx > float64(moving.Width-1) || sy > float64(moving.Height-1) {
				continue
			}
			x0, y0 := int(sx), int(sy)
			x1, y1 := x0+1, y0+1
			if x1 > moving.Width-1 {
				x1 = moving.Width - 1
			}
			if y1 > moving.Height-1 {
				y1 = moving.Height - 1
			}
			dx, dy := sx-float64(x0), sy-float64(y0)
			top := float64(mp[y0*moving.Width+x0]) + (float64(mp[y0*moving.Width+x1])-float64(mp[y0*moving.Width+x0]))*dx
			bot := float64(mp[y1*moving.Width+x0]) + (float64(mp[y1*moving.Width+x1])-float64(mp[y1*moving.Width+x0]))*dx
			m := top + (bot-top)*dy
			f := float64(fp[y*fixed.Width+x])

			n++
			sumF += f
			sumM += m
			sumFF += f * f
			sumMM += m * m
			sumFM += f * m
		}
	}

	if n < fixed.Width*fixed.Height/5 {
		return -1
	}

	nf := float64(n)
	varF := sumFF - sumF*sumF/nf
	varM := sumMM - sumM*sumM/nf
	if varF < 1e-9 || varM < 1e-9 {
		return -1
	}
	cov := sumFM - sumF*sumM/nf
	return cov / math.Sqrt(varF*varM)
}
