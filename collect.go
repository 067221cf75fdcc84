package handeye

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"

	camerapose "github.com/biotinker/handeye/camera_pose"
	"go.viam.com/rdk/rimage"
)

// Collect sweeps the tool through the calibration grid and accumulates one
// correspondence per position where the fiducial was seen with valid depth.
// Detection misses, depth holes, and frame errors skip the position; motion
// failures and cancellation abort the session.
func Collect(ctx context.Context, r *Robot) error {
	grid, err := camerapose.Grid(r.cfg.Workspace, r.cfg.StepMm)
	if err != nil {
		return fmt.Errorf("build grid: %w", err)
	}
	r.state.Planned = len(grid)
	r.logger.Infof("Sweeping %d grid positions (step %.0f mm)", len(grid), r.cfg.StepMm)

	for i, pos := range grid {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Infof("Position %d/%d: (%.0f, %.0f, %.0f)", i+1, len(grid), pos.X, pos.Y, pos.Z)
		if err := r.moveTool(ctx, pos); err != nil {
			return fmt.Errorf("move to (%.0f, %.0f, %.0f): %w", pos.X, pos.Y, pos.Z, err)
		}
		if err := r.settle(ctx); err != nil {
			return err
		}

		if err := collectSample(ctx, r, pos); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.state.Skipped++
			r.logger.Warnf("Skipping position %d: %v", i+1, err)
			continue
		}
	}

	// The raw correspondences go to disk before anything else happens, so an
	// offline solve can still run if the rest of the session dies.
	if err := SaveCorrespondences(r.outDir(), r.state.Correspondences, r.intrinsics); err != nil {
		return fmt.Errorf("save correspondences: %w", err)
	}

	r.logger.Info("Sweep finished, returning to start posture")
	if err := r.moveToStartPosture(ctx); err != nil {
		return fmt.Errorf("return to start posture: %w", err)
	}

	r.logger.Infof("Collected %d samples, skipped %d of %d positions",
		r.state.Correspondences.Len(), r.state.Skipped, r.state.Planned)
	return nil
}

// collectSample captures an aligned color and depth pair at the current
// position and appends the resulting correspondence.
func collectSample(ctx context.Context, r *Robot, commanded r3.Vector) error {
	colorImg, depthImg, err := captureFramePair(ctx, r)
	if err != nil {
		return err
	}
	return appendSample(ctx, r, commanded, colorImg, depthImg)
}

// appendSample finds the fiducial center in the color frame, reads the depth
// under it, and appends the correspondence. The measured point is the
// commanded tool position plus the fixed board offset; the offset stays
// valid because the tool orientation never changes during the sweep.
func appendSample(ctx context.Context, r *Robot, commanded r3.Vector, colorImg, depthImg image.Image) error {
	obs, err := r.detector.FindBoard(ctx, colorImg)
	if err != nil {
		return err
	}

	pix := image.Point{
		X: int(math.Round(obs.Center.X)),
		Y: int(math.Round(obs.Center.Y)),
	}

	dm, err := rimage.ConvertImageToDepthMap(ctx, depthImg)
	if err != nil {
		return fmt.Errorf("convert depth frame: %w", err)
	}
	if pix.X < 0 || pix.X >= dm.Width() || pix.Y < 0 || pix.Y >= dm.Height() {
		return fmt.Errorf("fiducial center (%d, %d) outside depth frame %dx%d",
			pix.X, pix.Y, dm.Width(), dm.Height())
	}
	depth := float64(dm.GetDepth(pix.X, pix.Y))
	if depth == 0 {
		return fmt.Errorf("no depth at fiducial center (%d, %d)", pix.X, pix.Y)
	}

	measured := commanded.Add(r.cfg.FiducialOffset)
	r.state.Correspondences.Append(measured, pix, depth)
	r.logger.Debugf("Sample %d: pixel (%d, %d), depth %.0f mm",
		r.state.Correspondences.Len(), pix.X, pix.Y, depth)
	return nil
}

// captureFramePair fetches the color and depth frames from a single Images
// call so both describe the same capture instant.
func captureFramePair(ctx context.Context, r *Robot) (image.Image, image.Image, error) {
	named, _, err := r.cam.Images(ctx, []string{r.cfg.ColorSource, r.cfg.DepthSource}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("camera images: %w", err)
	}

	var colorImg, depthImg image.Image
	for i := range named {
		ni := &named[i]
		switch ni.SourceName {
		case r.cfg.ColorSource:
			img, err := ni.Image(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("decode %s frame: %w", ni.SourceName, err)
			}
			colorImg = img
		case r.cfg.DepthSource:
			img, err := ni.Image(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("decode %s frame: %w", ni.SourceName, err)
			}
			depthImg = img
		}
	}
	if colorImg == nil {
		return nil, nil, fmt.Errorf("camera returned no %q frame", r.cfg.ColorSource)
	}
	if depthImg == nil {
		return nil, nil, fmt.Errorf("camera returned no %q frame", r.cfg.DepthSource)
	}
	return colorImg, depthImg, nil
}
