package camerapose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"go.viam.com/rdk/rimage/transform"
)

// SolveDepthScale searches for the multiplicative depth correction that
// minimizes the registration RMSE between the robot-frame points and their
// back-projected camera-frame observations. It returns the best scale and
// the RMSE achieved there.
func SolveDepthScale(corr *Correspondences, intr *transform.PinholeCameraIntrinsics, cfg Config) (float64, float64, error) {
	if intr == nil {
		return 0, 0, ErrNilIntrinsics
	}
	if corr.Len() < MinSamples {
		return 0, 0, fmt.Errorf("%w: have %d, need %d", ErrTooFewSamples, corr.Len(), MinSamples)
	}

	objective := func(x []float64) float64 {
		observed := corr.BackProjectScaled(intr, x[0])
		rmse, err := RegistrationRMSE(corr.Measured, observed)
		if err != nil {
			return math.MaxFloat64
		}
		return rmse
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		FuncEvaluations: cfg.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.Absolute,
			Relative:   cfg.Relative,
			Iterations: cfg.Iterations,
		},
	}

	result, err := optimize.Minimize(problem, []float64{cfg.InitialScale}, settings, &optimize.NelderMead{})
	if err != nil {
		return 0, 0, fmt.Errorf("depth scale search: %w", err)
	}
	if statusErr := result.Status.Err(); statusErr != nil {
		return 0, 0, fmt.Errorf("%w: %v (best RMSE %.6f)", ErrNotConverged, statusErr, result.F)
	}
	return result.X[0], result.F, nil
}

// Solve runs the full estimation: find the depth scale, then refit the rigid
// transform at that scale and invert it so the returned pose locates the
// camera in the robot's world frame.
func Solve(corr *Correspondences, intr *transform.PinholeCameraIntrinsics, cfg Config) (*Result, error) {
	if intr == nil {
		return nil, ErrNilIntrinsics
	}
	if intr.Fx <= 0 || intr.Fy <= 0 {
		return nil, ErrInvalidIntrinsics
	}

	scale, _, err := SolveDepthScale(corr, intr, cfg)
	if err != nil {
		return nil, err
	}

	observed := corr.BackProjectScaled(intr, scale)
	worldToCamera, rmse, err := registrationRMSE(corr.Measured, observed)
	if err != nil {
		return nil, err
	}

	return &Result{
		DepthScale: scale,
		RMSE:       rmse,
		CameraPose: worldToCamera.Inverse(),
	}, nil
}
