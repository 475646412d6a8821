package imaging

import (
	"image"
	"image/color"

	"github.com/terrawatch/scenediff/internal/errors"
)

// Raster is the working representation of an image inside the pipeline:
// a fixed-size grid of float32 samples in [0,1], stored as one plane per
// band. 1 band is grayscale, 3 bands is color. Pipeline stages treat a
// Raster as immutable and return new instances.
type Raster struct {
	Width  int
	Height int
	Bands  int

	// Planes holds one Width*Height sample slice per band, row-major.
	Planes [][]float32
}

// NewRaster allocates a zero-filled raster.
func NewRaster(width, height, bands int) *Raster {
	planes := make([][]float32, bands)
	for b := range planes {
		planes[b] = make([]float32, width*height)
	}
	return &Raster{Width: width, Height: height, Bands: bands, Planes: planes}
}

// FromImage converts a decoded image into a raster. Grayscale source
// types produce a single band; everything else produces three bands in
// sRGB order. Values are scaled to [0,1].
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		r := NewRaster(w, h, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g, _, _, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
				r.Planes[0][y*w+x] = float32(g) / 65535.0
			}
		}
		return r
	}

	r := NewRaster(w, h, 3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cr, cg, cb, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			i := y*w + x
			r.Planes[0][i] = float32(cr) / 65535.0
			r.Planes[1][i] = float32(cg) / 65535.0
			r.Planes[2][i] = float32(cb) / 65535.0
		}
	}
	return r
}

// At returns the sample for band b at (x, y). No bounds checking.
func (r *Raster) At(x, y, b int) float32 {
	return r.Planes[b][y*r.Width+x]
}

// Set writes the sample for band b at (x, y). No bounds checking.
func (r *Raster) Set(x, y, b int, v float32) {
	r.Planes[b][y*r.Width+x] = v
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	out := NewRaster(r.Width, r.Height, r.Bands)
	for b := range r.Planes {
		copy(out.Planes[b], r.Planes[b])
	}
	return out
}

// SameGrid reports whether two rasters share the same pixel grid.
func (r *Raster) SameGrid(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Luminance returns the raster collapsed to a single grayscale plane
// using ITU-R BT.601 weights. A 1-band raster returns its own plane
// (not a copy).
func (r *Raster) Luminance() ([]float32, error) {
	switch r.Bands {
	case 1:
		return r.Planes[0], nil
	case 3:
		out := make([]float32, r.Width*r.Height)
		for i := range out {
			out[i] = 0.299*r.Planes[0][i] + 0.587*r.Planes[1][i] + 0.114*r.Planes[2][i]
		}
		return out, nil
	default:
		return nil, errors.UnsupportedBandCount("raster", r.Bands)
	}
}

// Gray returns a single-band raster view of the luminance.
func (r *Raster) Gray() (*Raster, error) {
	if r.Bands == 1 {
		return r, nil
	}
	plane, err := r.Luminance()
	if err != nil {
		return nil, err
	}
	return &Raster{Width: r.Width, Height: r.Height, Bands: 1, Planes: [][]float32{plane}}, nil
}

// ToGrayImage renders the luminance plane as an 8-bit grayscale image.
func (r *Raster) ToGrayImage() (*image.Gray, error) {
	plane, err := r.Luminance()
	if err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, r.Width, r.Height))
	for i, v := range plane {
		img.Pix[i] = quantize(v)
	}
	return img, nil
}

// ToImage renders the raster as an 8-bit image: grayscale for one band,
// NRGBA for three.
func (r *Raster) ToImage() (image.Image, error) {
	switch r.Bands {
	case 1:
		return r.ToGrayImage()
	case 3:
		img := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
		for y := 0; y < r.Height; y++ {
			for x := 0; x < r.Width; x++ {
				i := y*r.Width + x
				img.SetNRGBA(x, y, color.NRGBA{
					R: quantize(r.Planes[0][i]),
					G: quantize(r.Planes[1][i]),
					B: quantize(r.Planes[2][i]),
					A: 255,
				})
			}
		}
		return img, nil
	default:
		return nil, errors.UnsupportedBandCount("raster", r.Bands)
	}
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
