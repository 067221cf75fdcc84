package handeye

import (
	"context"
	"fmt"
)

// Persist writes the solved depth scale and camera pose next to the
// correspondence tables Collect already saved, plus a pair of world-frame
// point clouds for eyeballing the registration.
func Persist(ctx context.Context, r *Robot) error {
	dir := r.outDir()

	if err := SaveResult(dir, r.state.Result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	// The clouds only serve visual inspection; a failed export does not
	// invalidate the calibration.
	if err := saveClouds(dir, r.state.Correspondences, r.intrinsics, r.state.Result); err != nil {
		r.logger.Warnf("Failed to save inspection clouds: %v", err)
	}

	r.logger.Infof("Artifacts written to %s", dir)
	return nil
}
