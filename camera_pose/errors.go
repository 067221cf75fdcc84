package camerapose

import "errors"

var (
	// ErrTooFewPoints is returned when fewer than three point pairs are available
	// for rigid-transform estimation.
	ErrTooFewPoints = errors.New("too few point pairs for rigid transform")

	// ErrPointCountMismatch is returned when the two point sets passed to the
	// estimator have different lengths.
	ErrPointCountMismatch = errors.New("point sets have different lengths")

	// ErrDegenerateGeometry is returned when the correspondence geometry is too
	// ill-conditioned for the SVD to produce a rotation.
	ErrDegenerateGeometry = errors.New("degenerate point geometry")

	// ErrTooFewSamples is returned when a correspondence set has fewer samples
	// than the solver minimum.
	ErrTooFewSamples = errors.New("too few samples for depth-scale solve")

	// ErrNotConverged is returned when the depth-scale search terminates without
	// converging.
	ErrNotConverged = errors.New("depth-scale search did not converge")

	// ErrNilIntrinsics is returned when no camera intrinsics are supplied.
	ErrNilIntrinsics = errors.New("camera intrinsics are nil")

	// ErrInvalidIntrinsics is returned when the supplied intrinsics have
	// non-positive focal lengths.
	ErrInvalidIntrinsics = errors.New("camera intrinsics have invalid focal lengths")

	// ErrInvalidBounds is returned when a workspace interval has Min > Max.
	ErrInvalidBounds = errors.New("workspace bounds have min > max")

	// ErrInvalidStep is returned when the grid step is not positive.
	ErrInvalidStep = errors.New("grid step must be positive")
)
