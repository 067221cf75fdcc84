package handeye

import (
	"go.viam.com/rdk/referenceframe"
)

// Joint positions recorded from the live robot on 2026-07-14.
var (
	// GripperUpJoints is the session start posture: the gripper points
	// straight up so the board on its mount faces the overhead camera.
	GripperUpJoints = []referenceframe.Input{
		-3.141593, -1.570796, 1.570796, 0.000000, 1.570796, 3.141593,
	}
)
