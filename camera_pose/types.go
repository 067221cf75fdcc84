package camerapose

import (
	"image"

	"github.com/golang/geo/r3"

	"go.viam.com/rdk/rimage/transform"
)

// Correspondences accumulates one entry per retained calibration sample:
// the tool-mounted target's position in the robot's world frame, the pixel
// where the camera saw the target's center, and the raw depth reading at
// that pixel in sensor units (mm). The three sequences are index-aligned.
//
// Only Append mutates a Correspondences; the collection loop owns it during
// collection and the solver treats it as frozen afterwards.
type Correspondences struct {
	Measured []r3.Vector
	Pixels   []image.Point
	Depths   []float64
}

// Append records one validated sample. Callers must have already rejected
// zero-depth readings.
func (c *Correspondences) Append(measured r3.Vector, pix image.Point, depthMm float64) {
	c.Measured = append(c.Measured, measured)
	c.Pixels = append(c.Pixels, pix)
	c.Depths = append(c.Depths, depthMm)
}

// Len returns the number of retained samples.
func (c *Correspondences) Len() int {
	return len(c.Measured)
}

// BackProjectScaled back-projects every stored pixel into a camera-frame 3D
// point after multiplying its raw depth by scale.
func (c *Correspondences) BackProjectScaled(intr *transform.PinholeCameraIntrinsics, scale float64) []r3.Vector {
	pts := make([]r3.Vector, len(c.Pixels))
	for i, pix := range c.Pixels {
		pts[i] = BackProject(intr, float64(pix.X), float64(pix.Y), c.Depths[i]*scale)
	}
	return pts
}

// Result is the output of a completed depth-scale solve.
type Result struct {
	// DepthScale multiplies raw depth readings to correct systematic sensor bias.
	DepthScale float64

	// RMSE is the registration residual at DepthScale, in mm.
	RMSE float64

	// CameraPose is the camera frame expressed in the robot's world frame,
	// i.e. the inverse of the fitted world-to-camera transform.
	CameraPose *RigidTransform
}
