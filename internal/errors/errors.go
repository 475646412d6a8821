// Package errors defines the typed failure kinds shared by the alignment
// and change-detection stages.
//
// Every stage fails fast with a *Error carrying a Kind, the stage name and
// the counts observed at the time of failure, so callers can log or display
// a failure without parsing message strings. The alignment pipeline consumes
// these kinds internally while walking its fallback chain; only terminal
// failures reach the caller.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a stage failure.
type Kind string

const (
	// KindInsufficientFeatures indicates a detector returned fewer
	// keypoints than the configured floor.
	KindInsufficientFeatures Kind = "insufficient_features"

	// KindInsufficientMatches indicates too few correspondences survived
	// ratio rejection to attempt a transform solve.
	KindInsufficientMatches Kind = "insufficient_matches"

	// KindDegenerateModel indicates the refit transform is near-singular
	// or non-physical (scale far outside plausible bounds).
	KindDegenerateModel Kind = "degenerate_model"

	// KindInsufficientTrials indicates no consensus sample ever reached
	// the minimum inlier fraction.
	KindInsufficientTrials Kind = "insufficient_trials"

	// KindDimensionMismatch indicates the change-detection inputs do not
	// share the same pixel grid. Always fatal: it means alignment was
	// skipped or failed silently upstream.
	KindDimensionMismatch Kind = "dimension_mismatch"

	// KindUnsupportedBandCount indicates a raster band layout the stage
	// cannot process.
	KindUnsupportedBandCount Kind = "unsupported_band_count"
)

// Error is a structured stage failure.
type Error struct {
	Kind    Kind           `json:"kind"`
	Stage   string         `json:"stage"`
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts,omitempty"`
	Cause   error          `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s (caused by: %v)", e.Stage, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// InsufficientFeatures builds the failure for a starved detector.
func InsufficientFeatures(stage string, got, floor int) *Error {
	return &Error{
		Kind:    KindInsufficientFeatures,
		Stage:   stage,
		Message: fmt.Sprintf("detected %d keypoints, need at least %d", got, floor),
		Counts:  map[string]int{"keypoints": got, "floor": floor},
	}
}

// InsufficientMatches builds the failure for a starved matcher.
func InsufficientMatches(stage string, got, floor int) *Error {
	return &Error{
		Kind:    KindInsufficientMatches,
		Stage:   stage,
		Message: fmt.Sprintf("kept %d matches, need at least %d", got, floor),
		Counts:  map[string]int{"matches": got, "floor": floor},
	}
}

// DegenerateModel builds the failure for a near-singular or non-physical
// transform refit.
func DegenerateModel(stage, detail string) *Error {
	return &Error{
		Kind:    KindDegenerateModel,
		Stage:   stage,
		Message: detail,
	}
}

// InsufficientTrials builds the failure for a consensus loop that never
// reached the minimum inlier fraction.
func InsufficientTrials(stage string, bestInliers, total, trials int) *Error {
	return &Error{
		Kind:    KindInsufficientTrials,
		Stage:   stage,
		Message: fmt.Sprintf("best sample had %d/%d inliers after %d trials", bestInliers, total, trials),
		Counts:  map[string]int{"inliers": bestInliers, "correspondences": total, "trials": trials},
	}
}

// DimensionMismatch builds the failure for inputs on different pixel grids.
func DimensionMismatch(stage string, wa, ha, wb, hb int) *Error {
	return &Error{
		Kind:    KindDimensionMismatch,
		Stage:   stage,
		Message: fmt.Sprintf("inputs are %dx%d and %dx%d; align before detecting changes", wa, ha, wb, hb),
	}
}

// UnsupportedBandCount builds the failure for a raster band layout the
// stage cannot process.
func UnsupportedBandCount(stage string, bands int) *Error {
	return &Error{
		Kind:    KindUnsupportedBandCount,
		Stage:   stage,
		Message: fmt.Sprintf("raster has %d bands; expected 1 (grayscale) or 3 (color)", bands),
		Counts:  map[string]int{"bands": bands},
	}
}
