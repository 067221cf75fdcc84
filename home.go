package handeye

import (
	"context"
	"fmt"
)

// Home opens the gripper so the fiducial mount sits unobstructed and drives
// the arm to the gripper-up posture the sweep starts from.
func Home(ctx context.Context, r *Robot) error {
	r.logger.Info("Opening gripper")
	if err := r.gripper.Open(ctx, nil); err != nil {
		return fmt.Errorf("open gripper: %w", err)
	}

	r.logger.Info("Moving arm to gripper-up posture")
	if err := r.moveToStartPosture(ctx); err != nil {
		return fmt.Errorf("move to gripper-up posture: %w", err)
	}
	return nil
}
