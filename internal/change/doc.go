// Package change turns an aligned raster pair into a change confidence
// map and a cleaned binary change mask.
//
// Five independent signals each estimate per-pixel change on their own
// terms (intensity difference, structural similarity, edge layout,
// local texture, spectral composition) and normalize their output to
// [0,1]. A signal that cannot be computed, such as spectral angle on
// grayscale input, reports itself unavailable rather than failing
// the run; fusion averages whichever signals exist, weighted, with the
// divisor tracking the weights actually used so the result degrades
// gracefully.
//
// The fused map is binarized with a selectable threshold policy (Otsu,
// percentile, or 2-means), always clamped to [0.1, 0.9] so pathological
// inputs cannot produce all-changed or no-changed masks, then cleaned
// by a fixed morphological pipeline: small-component removal, optional
// hole filling, closing, opening.
//
// The only fatal errors are contract misuse: inputs on different pixel
// grids or with unsupported band layouts.
package change
