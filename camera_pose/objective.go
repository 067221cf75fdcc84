package camerapose

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/rdk/rimage/transform"
)

// BackProject lifts a pixel with a known depth into the camera frame using
// the pinhole model. Depth is along the optical axis, in the same unit the
// returned point is expressed in (mm throughout this package).
func BackProject(intr *transform.PinholeCameraIntrinsics, px, py, depth float64) r3.Vector {
	x, y, z := intr.PixelToPoint(px, py, depth)
	return r3.Vector{X: x, Y: y, Z: z}
}

// RegistrationRMSE fits the best rigid transform from src onto dst and
// reports the root-mean-square residual of the aligned points. It is the
// goodness-of-fit measure for a candidate depth scale.
func RegistrationRMSE(src, dst []r3.Vector) (float64, error) {
	_, rmse, err := registrationRMSE(src, dst)
	return rmse, err
}

func registrationRMSE(src, dst []r3.Vector) (*RigidTransform, float64, error) {
	rt, err := EstimateRigidTransform(src, dst)
	if err != nil {
		return nil, 0, err
	}
	var sum float64
	for i := range src {
		d := rt.Apply(src[i]).Sub(dst[i])
		sum += d.X*d.X + d.Y*d.Y + d.Z*d.Z
	}
	return rt, math.Sqrt(sum / float64(len(src))), nil
}
