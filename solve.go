package handeye

import (
	"context"

	camerapose "github.com/biotinker/handeye/camera_pose"
)

// Solve runs the depth-scale search and rigid fit over the collected
// correspondences. Too few samples or a search that fails to converge are
// fatal; there is no fallback estimate.
func Solve(ctx context.Context, r *Robot) error {
	result, err := camerapose.Solve(r.state.Correspondences, r.intrinsics, r.cfg.Solver)
	if err != nil {
		return err
	}
	r.state.Result = result

	r.logger.Infof("Depth scale %.6f, registration RMSE %.3f mm over %d samples",
		result.DepthScale, result.RMSE, r.state.Correspondences.Len())
	pos := result.CameraPose.T
	r.logger.Infof("Camera position in world: (%.1f, %.1f, %.1f) mm", pos.X, pos.Y, pos.Z)
	return nil
}
