package align

import (
	"math"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
)

// Model selects the transform family estimated from correspondences.
type Model int

const (
	// ModelSimilarity is rotation + uniform scale + translation
	// (4 degrees of freedom, 2-point minimal sample).
	ModelSimilarity Model = iota

	// ModelAffine adds non-uniform scale and shear
	// (6 degrees of freedom, 3-point minimal sample).
	ModelAffine
)

// String returns the model family name.
func (m Model) String() string {
	if m == ModelSimilarity {
		return "similarity"
	}
	return "affine"
}

// MinSamples returns the minimal point count for a closed-form solve.
func (m Model) MinSamples() int {
	if m == ModelSimilarity {
		return 2
	}
	return 3
}

// Transform is a 2D affine mapping in homogeneous form. Only the first
// two rows are stored; the third row is implicitly [0 0 1].
//
//	[A B C]   [x]
//	[D E F] * [y]
//	          [1]
type Transform struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, E: 1}
}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// Mul composes transforms: the result applies u first, then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		A: t.A*u.A + t.B*u.D,
		B: t.A*u.B + t.B*u.E,
		C: t.A*u.C + t.B*u.F + t.C,
		D: t.D*u.A + t.E*u.D,
		E: t.D*u.B + t.E*u.E,
		F: t.D*u.C + t.E*u.F + t.F,
	}
}

// Det returns the determinant of the linear part.
func (t Transform) Det() float64 {
	return t.A*t.E - t.B*t.D
}

// Scales returns the per-axis scale factors of the linear part.
func (t Transform) Scales() (sx, sy float64) {
	return math.Hypot(t.A, t.D), math.Hypot(t.B, t.E)
}

// Aff3 returns the x/image affine form for resampling.
func (t Transform) Aff3() f64.Aff3 {
	return f64.Aff3{t.A, t.B, t.C, t.D, t.E, t.F}
}

// Matrix returns the full 3x3 homogeneous matrix, row-major.
func (t Transform) Matrix() [9]float64 {
	return [9]float64{t.A, t.B, t.C, t.D, t.E, t.F, 0, 0, 1}
}

// Invert returns the inverse mapping. Returns ok=false when the linear
// part is singular.
func (t Transform) Invert() (Transform, bool) {
	det := t.Det()
	if det == 0 {
		return Transform{}, false
	}
	id := 1 / det
	return Transform{
		A: t.E * id, B: -t.B * id, C: (t.B*t.F - t.C*t.E) * id,
		D: -t.D * id, E: t.A * id, F: (t.C*t.D - t.A*t.F) * id,
	}, true
}

// NearIdentity reports whether the transform is within eps of identity
// in every coefficient.
func (t Transform) NearIdentity(eps float64) bool {
	return math.Abs(t.A-1) < eps && math.Abs(t.B) < eps && math.Abs(t.C) < eps &&
		math.Abs(t.D) < eps && math.Abs(t.E-1) < eps && math.Abs(t.F) < eps
}

// PointPair is one correspondence: a point in the moving image (source)
// and the claimed matching point in the fixed image (destination).
type PointPair struct {
	SrcX, SrcY float64
	DstX, DstY float64
}

// Residual returns the reprojection distance of the pair under t.
func (t Transform) Residual(p PointPair) float64 {
	x, y := t.Apply(p.SrcX, p.SrcY)
	return math.Hypot(x-p.DstX, y-p.DstY)
}

// solveSimilarity computes the exact similarity from two pairs.
// Returns ok=false for coincident source points.
func solveSimilarity(p1, p2 PointPair) (Transform, bool) {
	dx := p2.SrcX - p1.SrcX
	dy := p2.SrcY - p1.SrcY
	den := dx*dx + dy*dy
	if den < 1e-12 {
		return Transform{}, false
	}
	dpx := p2.DstX - p1.DstX
	dpy := p2.DstY - p1.DstY

	a := (dx*dpx + dy*dpy) / den
	b := (dx*dpy - dy*dpx) / den

	return Transform{
		A: a, B: -b, C: p1.DstX - a*p1.SrcX + b*p1.SrcY,
		D: b, E: a, F: p1.DstY - b*p1.SrcX - a*p1.SrcY,
	}, true
}

// solveAffine computes the exact affine from three pairs.
// Returns ok=false for (near-)collinear source points.
func solveAffine(p1, p2, p3 PointPair) (Transform, bool) {
	// Determinant of the source triangle; collinear points give 0.
	det := (p2.SrcX-p1.SrcX)*(p3.SrcY-p1.SrcY) - (p3.SrcX-p1.SrcX)*(p2.SrcY-p1.SrcY)
	if math.Abs(det) < 1e-9 {
		return Transform{}, false
	}

	// Cramer's rule on the 3x3 system [x y 1] * coeffs = dst, solved
	// independently for the X and Y rows.
	m := [3][3]float64{
		{p1.SrcX, p1.SrcY, 1},
		{p2.SrcX, p2.SrcY, 1},
		{p3.SrcX, p3.SrcY, 1},
	}
	d := det3(m)
	if math.Abs(d) < 1e-12 {
		return Transform{}, false
	}

	row := func(b1, b2, b3 float64) (float64, float64, float64) {
		ma := m
		ma[0][0], ma[1][0], ma[2][0] = b1, b2, b3
		mb := m
		mb[0][1], mb[1][1], mb[2][1] = b1, b2, b3
		mc := m
		mc[0][2], mc[1][2], mc[2][2] = b1, b2, b3
		return det3(ma) / d, det3(mb) / d, det3(mc) / d
	}

	t := Transform{}
	t.A, t.B, t.C = row(p1.DstX, p2.DstX, p3.DstX)
	t.D, t.E, t.F = row(p1.DstY, p2.DstY, p3.DstY)
	return t, true
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// refit solves the transform over all given pairs in the least-squares
// sense. The similarity system constrains 4 unknowns (a, b, tx, ty), the
// affine system 6.
func refit(pairs []PointPair, model Model) (Transform, bool) {
	n := len(pairs)
	if n < model.MinSamples() {
		return Transform{}, false
	}

	if model == ModelSimilarity {
		a := mat.NewDense(2*n, 4, nil)
		b := mat.NewVecDense(2*n, nil)
		for i, p := range pairs {
			a.SetRow(2*i, []float64{p.SrcX, -p.SrcY, 1, 0})
			a.SetRow(2*i+1, []float64{p.SrcY, p.SrcX, 0, 1})
			b.SetVec(2*i, p.DstX)
			b.SetVec(2*i+1, p.DstY)
		}
		var x mat.VecDense
		if err := x.SolveVec(a, b); err != nil {
			return Transform{}, false
		}
		return Transform{
			A: x.AtVec(0), B: -x.AtVec(1), C: x.AtVec(2),
			D: x.AtVec(1), E: x.AtVec(0), F: x.AtVec(3),
		}, true
	}

	a := mat.NewDense(2*n, 6, nil)
	b := mat.NewVecDense(2*n, nil)
	for i, p := range pairs {
		a.SetRow(2*i, []float64{p.SrcX, p.SrcY, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, p.SrcX, p.SrcY, 1})
		b.SetVec(2*i, p.DstX)
		b.SetVec(2*i+1, p.DstY)
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Transform{}, false
	}
	return Transform{
		A: x.AtVec(0), B: x.AtVec(1), C: x.AtVec(2),
		D: x.AtVec(3), E: x.AtVec(4), F: x.AtVec(5),
	}, true
}
