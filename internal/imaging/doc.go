// Package imaging provides the pixel-level foundation for the change
// detection pipeline: the Raster data model, image loading and caching,
// float-plane filtering, edge maps, and affine warping.
//
// # Raster Model
//
// Pipeline stages work on Raster values: per-band []float32 planes with
// samples in [0,1]. One band is grayscale, three bands is color. Rasters
// are treated as immutable; each stage returns a new instance, so no
// state is shared across concurrent pipeline calls.
//
// # Coordinate System
//
// All pixel coordinates are 0-based: X increases rightward, Y increases
// downward, (0,0) is the top-left pixel. For regions, (x1,y1) is
// inclusive and (x2,y2) is exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions
// are stateless and can be called concurrently on different rasters.
//
// # Precision
//
// Filters that feed the detection math (GaussianPlane, LocalStdDev,
// BoxMean) operate on float planes directly so repeated passes do not
// accumulate 8-bit quantization error. 8-bit paths (GaussianGray,
// WarpImage) exist for descriptor sampling and presentation output,
// where quantization is acceptable.
package imaging
