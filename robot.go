package handeye

import (
	"context"
	"fmt"

	"github.com/golang/geo/r3"

	camerapose "github.com/biotinker/handeye/camera_pose"
	"go.viam.com/rdk/components/arm"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/gripper"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/rimage/transform"
	"go.viam.com/rdk/robot"
	"go.viam.com/rdk/services/vision"
	"go.viam.com/rdk/spatialmath"
	rdkutils "go.viam.com/rdk/utils"
	goutils "go.viam.com/utils"
)

// maxJointVelDegsPerSec caps joint speed for the posture moves. The board is
// already mounted, so these moves stay gentle.
const maxJointVelDegsPerSec = 60.0

// Robot holds the hardware references, configuration, and state for one
// hand-eye calibration session.
type Robot struct {
	logger  logging.Logger
	machine robot.Robot

	// Hardware
	arm     arm.Arm
	cam     camera.Camera
	gripper gripper.Gripper

	// Detection
	detector Detector

	// Configuration
	cfg Config

	// Camera intrinsics, fetched during Connect.
	intrinsics *transform.PinholeCameraIntrinsics

	// State
	state *CalibrationState

	// OutDir, when set, is the directory calibration artifacts are written
	// to. If empty, artifacts land in the working directory.
	OutDir string
}

// Phase identifies where in the calibration session the robot currently is.
type Phase int

const (
	// PhaseIdle is the state before a session starts.
	PhaseIdle Phase = iota
	// PhaseConnecting covers resource checks and intrinsics fetch.
	PhaseConnecting
	// PhaseHoming covers the move to the start posture.
	PhaseHoming
	// PhaseCollecting covers the grid sweep.
	PhaseCollecting
	// PhaseOptimizing covers the depth-scale search and rigid fit.
	PhaseOptimizing
	// PhasePersisting covers artifact writes.
	PhasePersisting
	// PhaseDone is the state after a successful session.
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseHoming:
		return "homing"
	case PhaseCollecting:
		return "collecting"
	case PhaseOptimizing:
		return "optimizing"
	case PhasePersisting:
		return "persisting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// CalibrationState tracks the progress of the current calibration session.
type CalibrationState struct {
	// Phase is the current session phase.
	Phase Phase

	// Planned is the number of grid positions the session will visit.
	Planned int

	// Skipped counts grid positions dropped for recoverable reasons:
	// detection misses, zero depth, frame errors.
	Skipped int

	// Correspondences accumulates the retained samples.
	Correspondences *camerapose.Correspondences

	// Result is set once optimization completes.
	Result *camerapose.Result
}

// NewRobot creates a Robot by looking up all hardware resources from the machine.
// All resources are required; NewRobot returns an error if any are missing.
func NewRobot(ctx context.Context, machine robot.Robot, cfg Config, logger logging.Logger) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	r := &Robot{
		logger:  logger,
		machine: machine,
		cfg:     cfg,
		state:   newCalibrationState(),
	}

	// Arm — required.
	armComponent, err := arm.FromProvider(machine, cfg.ArmName)
	if err != nil {
		return nil, fmt.Errorf("arm (%s): %w", cfg.ArmName, err)
	}
	r.arm = armComponent

	// Depth camera — required.
	cam, err := camera.FromProvider(machine, cfg.CameraName)
	if err != nil {
		return nil, fmt.Errorf("camera (%s): %w", cfg.CameraName, err)
	}
	r.cam = cam

	// Gripper carrying the fiducial mount — required.
	grip, err := gripper.FromProvider(machine, cfg.GripperName)
	if err != nil {
		return nil, fmt.Errorf("gripper (%s): %w", cfg.GripperName, err)
	}
	r.gripper = grip

	// Vision service running the chessboard finder — required.
	visionSvc, err := vision.FromProvider(machine, cfg.DetectorName)
	if err != nil {
		return nil, fmt.Errorf("detector service (%s): %w", cfg.DetectorName, err)
	}
	r.detector = newVisionDetector(visionSvc, cfg.PatternRows, cfg.PatternCols)

	return r, nil
}

// State returns the current session state.
func (r *Robot) State() *CalibrationState {
	return r.state
}

// Intrinsics returns the camera intrinsics fetched during Connect, or nil
// before Connect has run.
func (r *Robot) Intrinsics() *transform.PinholeCameraIntrinsics {
	return r.intrinsics
}

// moveTool moves the arm's tool to pos, holding the configured calibration
// orientation so the board keeps facing the camera.
func (r *Robot) moveTool(ctx context.Context, pos r3.Vector) error {
	dest := spatialmath.NewPose(pos, r.cfg.ToolOrientation)
	return r.arm.MoveToPosition(ctx, dest, nil)
}

// moveToStartPosture drives the arm to the gripper-up joints directly,
// bypassing motion planning; the sweep volume is free of obstacles.
func (r *Robot) moveToStartPosture(ctx context.Context) error {
	opts := &arm.MoveOptions{MaxVelRads: rdkutils.DegToRad(maxJointVelDegsPerSec)}
	return r.arm.MoveThroughJointPositions(ctx, [][]referenceframe.Input{GripperUpJoints}, opts, nil)
}

// settle blocks for the configured settle delay so arm vibration dies down
// before a frame is captured.
func (r *Robot) settle(ctx context.Context) error {
	if !goutils.SelectContextOrWait(ctx, r.cfg.settleDelay()) {
		return ctx.Err()
	}
	return nil
}

// outDir returns the artifact directory, defaulting to the working directory.
func (r *Robot) outDir() string {
	if r.OutDir == "" {
		return "."
	}
	return r.OutDir
}

// setPhase records and logs a phase transition.
func (r *Robot) setPhase(p Phase) {
	r.state.Phase = p
	r.logger.Debugf("Phase: %s", p)
}

// resetState clears all session progress for a fresh run.
func (r *Robot) resetState() {
	r.state = newCalibrationState()
}

func newCalibrationState() *CalibrationState {
	return &CalibrationState{
		Phase:           PhaseIdle,
		Correspondences: &camerapose.Correspondences{},
	}
}
