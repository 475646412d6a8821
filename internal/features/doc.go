// Package features implements interest point detection, description and
// matching for the alignment pipeline.
//
// Three method families are provided, differing in their interest-point
// criterion:
//
//   - Harris (corner-like): structure-tensor corner response with
//     non-maximum suppression, described by normalized intensity patches.
//   - DoG (blob-like): difference-of-Gaussians extrema over a small
//     sigma ladder, described by patches sampled at the detected scale.
//   - FAST/BRIEF (binary-descriptor): FAST segment-test corners with
//     256-bit BRIEF descriptors compared by Hamming distance.
//
// Detection and description are pure functions over pixel data: they
// allocate their results and never mutate the input plane. Matching uses
// nearest/second-nearest ratio rejection with an optional mutual (1:1)
// filter.
//
// Detectors fail with a typed insufficient-features error when too few
// points survive, which the alignment pipeline treats as a signal to
// advance its fallback chain.
package features
