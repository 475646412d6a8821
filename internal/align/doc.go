// Package align estimates the geometric transform that maps a later
// (moving) raster onto an earlier (fixed) raster and resamples the
// moving raster into the fixed raster's grid.
//
// The entry point is Pipeline.Align, which walks an ordered chain of
// feature-based strategies (blob, corner, binary-descriptor) and, when
// every feature method fails, a direct intensity-based registration
// fallback. Per-method failures advance the chain and are never
// surfaced; only the terminal outcome reaches the caller, as a Result
// with Success=false and the identity transform.
//
// Transform estimation from noisy correspondences uses random-sample
// consensus with an injected random source, followed by a least-squares
// refit over the inlier set. The default trial budget (2000) and
// residual bound (3 px) are deliberately generous: satellite pairs with
// repetitive or sparse texture produce noisy correspondence sets, and
// trading runtime for convergence robustness is the right side of that
// trade here.
package align
