package imaging

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// WarpRaster resamples src through the forward affine matrix m (src
// coordinates to dst coordinates) into a raster of the given output
// size. Sampling is bilinear; pixels that map outside the source are
// filled with zero (background).
//
// The matrix convention matches x/image/draw: m is the 2x3 affine
//
//	[a b c]
//	[d e f]
//
// applied to column vectors (x, y, 1).
func WarpRaster(src *Raster, m f64.Aff3, outWidth, outHeight int) *Raster {
	inv, ok := invertAff3(m)
	out := NewRaster(outWidth, outHeight, src.Bands)
	if !ok {
		return out
	}

	for y := 0; y < outHeight; y++ {
		fy := float64(y)
		for x := 0; x < outWidth; x++ {
			fx := float64(x)
			sx := inv[0]*fx + inv[1]*fy + inv[2]
			sy := inv[3]*fx + inv[4]*fy + inv[5]

			if sx < 0 || sy < 0 || sx > float64(src.Width-1) || sy > float64(src.Height-1) {
				continue
			}
			x0 := int(sx)
			y0 := int(sy)
			// Clamp the interpolation neighbors so samples on the last
			// row or column stay in bounds.
			x1 := x0 + 1
			if x1 > src.Width-1 {
				x1 = src.Width - 1
			}
			y1 := y0 + 1
			if y1 > src.Height-1 {
				y1 = src.Height - 1
			}
			dx := sx - float64(x0)
			dy := sy - float64(y0)

			for b := 0; b < src.Bands; b++ {
				p := src.Planes[b]
				v00 := float64(p[y0*src.Width+x0])
				v10 := float64(p[y0*src.Width+x1])
				v01 := float64(p[y1*src.Width+x0])
				v11 := float64(p[y1*src.Width+x1])
				top := v00 + (v10-v00)*dx
				bot := v01 + (v11-v01)*dx
				out.Planes[b][y*outWidth+x] = float32(top + (bot-top)*dy)
			}
		}
	}
	return out
}

// WarpImage resamples a decoded image through the forward affine matrix
// m into the given output bounds using Catmull-Rom interpolation. This
// is the presentation-quality path used when emitting aligned PNGs.
func WarpImage(src image.Image, m f64.Aff3, outWidth, outHeight int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, outWidth, outHeight))
	draw.CatmullRom.Transform(dst, m, src, src.Bounds(), draw.Src, nil)
	return dst
}

// invertAff3 inverts a 2x3 affine matrix. Returns ok=false when the
// linear part is singular.
func invertAff3(m f64.Aff3) (f64.Aff3, bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return f64.Aff3{}, false
	}
	id := 1 / det
	return f64.Aff3{
		m[4] * id, -m[1] * id, (m[1]*m[5] - m[2]*m[4]) * id,
		-m[3] * id, m[0] * id, (m[2]*m[3] - m[0]*m[5]) * id,
	}, true
}
