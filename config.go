package handeye

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang/geo/r3"

	camerapose "github.com/biotinker/handeye/camera_pose"
	"go.viam.com/rdk/spatialmath"
)

// Config holds everything a calibration session needs beyond the machine
// connection itself. Distances are mm in the robot's world frame.
type Config struct {
	// Resource names on the machine.
	ArmName      string `json:"arm"`
	CameraName   string `json:"camera"`
	GripperName  string `json:"gripper"`
	DetectorName string `json:"detector"`

	// Source names of the color and depth streams within the camera.
	ColorSource string `json:"color_source"`
	DepthSource string `json:"depth_source"`

	// Workspace is the cuboid the tool sweeps.
	Workspace camerapose.Bounds `json:"workspace"`

	// StepMm is the grid spacing along every axis.
	StepMm float64 `json:"step_mm"`

	// FiducialOffset is the board center relative to the commanded tool
	// position. It stays constant because the tool orientation is held
	// fixed over the whole sweep.
	FiducialOffset r3.Vector `json:"fiducial_offset"`

	// ToolOrientation is commanded at every grid position so the board
	// keeps facing the camera.
	ToolOrientation *spatialmath.OrientationVectorDegrees `json:"tool_orientation"`

	// PatternRows and PatternCols are the chessboard's inner-corner counts.
	// Both must be odd so a unique center corner exists.
	PatternRows int `json:"pattern_rows"`
	PatternCols int `json:"pattern_cols"`

	// SettleDelayMs is how long the arm rests at each position before the
	// frame is captured.
	SettleDelayMs int `json:"settle_delay_ms"`

	// Solver holds the depth-scale search parameters.
	Solver camerapose.Config `json:"solver"`
}

// DefaultConfig returns the parameters for the overhead-RealSense rig: a
// tabletop workspace swept on a 50 mm grid, a 3x3 inner-corner board on the
// gripper mount, and unity-seeded depth search.
func DefaultConfig() Config {
	return Config{
		ArmName:      "arm",
		CameraName:   "camera",
		GripperName:  "gripper",
		DetectorName: "detector",
		ColorSource:  "color",
		DepthSource:  "depth",
		Workspace: camerapose.Bounds{
			X: camerapose.Interval{Min: 300, Max: 748},
			Y: camerapose.Interval{Min: 50, Max: 400},
			Z: camerapose.Interval{Min: -200, Max: -100},
		},
		StepMm:          50,
		FiducialOffset:  r3.Vector{X: 0, Y: -130, Z: 20},
		ToolOrientation: &spatialmath.OrientationVectorDegrees{OZ: 1},
		PatternRows:     3,
		PatternCols:     3,
		SettleDelayMs:   1000,
		Solver:          camerapose.DefaultConfig(),
	}
}

// Validate checks the configuration before a session starts.
func (c *Config) Validate() error {
	if c.ArmName == "" || c.CameraName == "" || c.GripperName == "" || c.DetectorName == "" {
		return fmt.Errorf("arm, camera, gripper, and detector resource names are all required")
	}
	if c.ColorSource == "" || c.DepthSource == "" {
		return fmt.Errorf("color and depth source names are required")
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if c.StepMm <= 0 {
		return camerapose.ErrInvalidStep
	}
	if c.PatternRows < 3 || c.PatternCols < 3 || c.PatternRows%2 == 0 || c.PatternCols%2 == 0 {
		return fmt.Errorf("pattern must be odd-by-odd with at least 3 corners per side, got %dx%d",
			c.PatternRows, c.PatternCols)
	}
	if c.ToolOrientation == nil {
		return fmt.Errorf("tool orientation is required")
	}
	if c.SettleDelayMs < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	return nil
}

// settleDelay returns the configured settle delay as a duration.
func (c *Config) settleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// LoadConfig reads a JSON config file over the defaults, so a file only
// needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
