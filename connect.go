package handeye

import (
	"context"
	"fmt"

	camerapose "github.com/biotinker/handeye/camera_pose"
)

// Connect fetches the camera's pinhole intrinsics and stores them for the
// session. Calibration cannot back-project pixels without them, so a camera
// that reports none is fatal.
func Connect(ctx context.Context, r *Robot) error {
	props, err := r.cam.Properties(ctx)
	if err != nil {
		return fmt.Errorf("camera properties: %w", err)
	}
	if props.IntrinsicParams == nil {
		return fmt.Errorf("camera %q: %w", r.cfg.CameraName, camerapose.ErrNilIntrinsics)
	}
	if err := props.IntrinsicParams.CheckValid(); err != nil {
		return fmt.Errorf("camera %q intrinsics: %w", r.cfg.CameraName, err)
	}

	r.intrinsics = props.IntrinsicParams
	r.logger.Infof("Camera intrinsics: %dx%d fx=%.2f fy=%.2f ppx=%.2f ppy=%.2f",
		r.intrinsics.Width, r.intrinsics.Height,
		r.intrinsics.Fx, r.intrinsics.Fy, r.intrinsics.Ppx, r.intrinsics.Ppy)
	if props.DistortionParams != nil {
		r.logger.Infof("Camera reports a %s distortion model; frames are assumed pre-rectified",
			props.DistortionParams.ModelType())
	}
	return nil
}
