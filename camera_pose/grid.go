package camerapose

import (
	"math"

	"github.com/golang/geo/r3"
)

// Interval is one axis of the calibration workspace, in mm.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Bounds is the cuboid the calibration grid spans, in the robot's world frame.
type Bounds struct {
	X Interval `json:"x"`
	Y Interval `json:"y"`
	Z Interval `json:"z"`
}

// Validate checks that every axis is ordered. An axis with Min == Max is
// valid and yields a single grid layer.
func (b Bounds) Validate() error {
	for _, iv := range []Interval{b.X, b.Y, b.Z} {
		if iv.Min > iv.Max {
			return ErrInvalidBounds
		}
	}
	return nil
}

// Grid returns the ordered tool positions spanning bounds on a fixed step:
// the Cartesian product of the three per-axis sequences, X outermost and Z
// innermost. Each axis holds 1+floor((max-min)/step) points at min + i*step,
// so the last point falls short of max when the span is not an exact
// multiple of the step. The sequence is deterministic for fixed inputs.
func Grid(b Bounds, stepMm float64) ([]r3.Vector, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if stepMm <= 0 {
		return nil, ErrInvalidStep
	}

	xs := axisPoints(b.X, stepMm)
	ys := axisPoints(b.Y, stepMm)
	zs := axisPoints(b.Z, stepMm)

	points := make([]r3.Vector, 0, len(xs)*len(ys)*len(zs))
	for _, x := range xs {
		for _, y := range ys {
			for _, z := range zs {
				points = append(points, r3.Vector{X: x, Y: y, Z: z})
			}
		}
	}
	return points, nil
}

func axisPoints(iv Interval, step float64) []float64 {
	n := 1 + int(math.Floor((iv.Max-iv.Min)/step))
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = iv.Min + float64(i)*step
	}
	return pts
}
