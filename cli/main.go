package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/biotinker/handeye"
	camerapose "github.com/biotinker/handeye/camera_pose"
	"github.com/biotinker/handeye/internal/creds"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/robot/client"
	"go.viam.com/utils/rpc"
)

const validSteps = "home, collect, solve"

func main() {
	credsPath := flag.String("creds", "", "path to robot credentials JSON file")
	configPath := flag.String("config", "", "path to calibration config JSON file (optional)")
	outDir := flag.String("out", ".", "directory for calibration artifacts")
	step := flag.String("step", "", "step to run: "+validSteps)
	flag.Parse()

	logger := logging.NewLogger("handeye-cli")

	if *step == "" {
		logger.Fatal("-step flag is required; valid steps: " + validSteps)
	}

	cfg := handeye.DefaultConfig()
	if *configPath != "" {
		loaded, err := handeye.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal(err)
		}
		cfg = loaded
	}

	// Solve replays saved artifacts; it needs no robot connection.
	if *step == "solve" {
		logger.Info("=== Running step: solve ===")
		if err := runSolve(*outDir, cfg, logger); err != nil {
			logger.Fatal(err)
		}
		return
	}

	if *step != "home" && *step != "collect" {
		logger.Fatalf("unknown step %q; valid steps: %s", *step, validSteps)
	}

	if *credsPath == "" {
		logger.Fatal("-creds flag is required")
	}
	robotCreds, err := creds.Load(*credsPath)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	machine, err := client.New(
		ctx,
		robotCreds.Address,
		logger,
		client.WithDialOptions(rpc.WithEntityCredentials(
			robotCreds.EntityID,
			rpc.Credentials{
				Type:    rpc.CredentialsTypeAPIKey,
				Payload: robotCreds.APIKey,
			})),
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer machine.Close(context.Background())

	logger.Info("Connected to robot")

	r, err := handeye.NewRobot(ctx, machine, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	r.OutDir = *outDir

	logger.Infof("=== Running step: %s ===", *step)

	switch *step {
	case "home":
		err = runHome(ctx, r)
	case "collect":
		err = runCollect(ctx, r, *outDir, logger)
	}
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infof("Step %s completed successfully", *step)
}

// runHome verifies the camera before any motion, then moves to the start
// posture.
func runHome(ctx context.Context, r *handeye.Robot) error {
	if err := handeye.Connect(ctx, r); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := handeye.Home(ctx, r); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	return nil
}

// runCollect fetches intrinsics, homes, and sweeps the grid. Collect itself
// saves the raw correspondences so a later solve can run offline.
func runCollect(ctx context.Context, r *handeye.Robot, dir string, logger logging.Logger) error {
	if err := handeye.Connect(ctx, r); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := handeye.Home(ctx, r); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	if err := handeye.Collect(ctx, r); err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	logger.Infof("Saved %d correspondences to %s (%d positions skipped)",
		r.State().Correspondences.Len(), dir, r.State().Skipped)
	return nil
}

// runSolve loads saved correspondences, runs the depth-scale search, and
// writes the solved scale and camera pose next to them.
func runSolve(dir string, cfg handeye.Config, logger logging.Logger) error {
	corr, intr, err := handeye.LoadCorrespondences(dir)
	if err != nil {
		return fmt.Errorf("load correspondences: %w", err)
	}
	logger.Infof("Loaded %d correspondences from %s", corr.Len(), dir)

	result, err := camerapose.Solve(corr, intr, cfg.Solver)
	if err != nil {
		return err
	}
	pos := result.CameraPose.T
	logger.Infof("Depth scale %.6f, RMSE %.3f mm", result.DepthScale, result.RMSE)
	logger.Infof("Camera position in world: (%.1f, %.1f, %.1f) mm", pos.X, pos.Y, pos.Z)

	if err := handeye.SaveResult(dir, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}
