package camerapose

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/rimage/transform"
)

func TestSolve_RecoversScaleAndCameraPose(t *testing.T) {
	intr := testIntrinsics()

	// Camera 700 mm above the workspace, looking straight down: the camera
	// X axis runs along world X, its Y and Z axes are flipped.
	truthPose := &RigidTransform{
		R: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, -1, 0,
			0, 0, -1,
		}),
		T: r3.Vector{X: 650, Y: 225, Z: 700},
	}
	truthScale := 0.97

	corr := syntheticCorrespondences(t, truthPose, intr, truthScale)

	result, err := Solve(corr, intr, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if math.Abs(result.DepthScale-truthScale) > 0.005 {
		t.Errorf("depth scale = %.5f, want %.5f within 0.005", result.DepthScale, truthScale)
	}
	if result.RMSE > 2.0 {
		t.Errorf("RMSE = %.3f mm, want under 2.0 mm", result.RMSE)
	}

	posErr := result.CameraPose.T.Sub(truthPose.T).Norm()
	if posErr > 5.0 {
		t.Errorf("camera position error %.2f mm > 5.0 mm (got %v, want %v)",
			posErr, result.CameraPose.T, truthPose.T)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(result.CameraPose.R.At(i, j)-truthPose.R.At(i, j)) > 0.01 {
				t.Errorf("R[%d][%d] = %.4f, want %.4f", i, j,
					result.CameraPose.R.At(i, j), truthPose.R.At(i, j))
			}
		}
	}

	t.Logf("scale: %.5f (truth %.5f), RMSE: %.3f mm, position error: %.3f mm",
		result.DepthScale, truthScale, result.RMSE, posErr)
}

func TestSolve_UnitScaleForUnbiasedDepth(t *testing.T) {
	intr := testIntrinsics()
	truthPose := &RigidTransform{
		R: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, -1, 0,
			0, 0, -1,
		}),
		T: r3.Vector{X: 650, Y: 225, Z: 700},
	}

	corr := syntheticCorrespondences(t, truthPose, intr, 1.0)

	result, err := Solve(corr, intr, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if math.Abs(result.DepthScale-1.0) > 0.005 {
		t.Errorf("depth scale = %.5f, want 1.0 within 0.005", result.DepthScale)
	}
}

func TestSolve_NilIntrinsics(t *testing.T) {
	corr := &Correspondences{}
	corr.Append(r3.Vector{X: 1}, image.Point{X: 10, Y: 10}, 500)

	if _, err := Solve(corr, nil, DefaultConfig()); !errors.Is(err, ErrNilIntrinsics) {
		t.Errorf("got %v, want ErrNilIntrinsics", err)
	}
}

func TestSolve_InvalidIntrinsics(t *testing.T) {
	corr := &Correspondences{}
	corr.Append(r3.Vector{X: 1}, image.Point{X: 10, Y: 10}, 500)
	corr.Append(r3.Vector{X: 2}, image.Point{X: 20, Y: 20}, 510)
	corr.Append(r3.Vector{X: 3}, image.Point{X: 30, Y: 30}, 520)

	bad := &transform.PinholeCameraIntrinsics{Fx: 0, Fy: 905}
	if _, err := Solve(corr, bad, DefaultConfig()); !errors.Is(err, ErrInvalidIntrinsics) {
		t.Errorf("got %v, want ErrInvalidIntrinsics", err)
	}
}

func TestSolve_TooFewSamples(t *testing.T) {
	corr := &Correspondences{}
	corr.Append(r3.Vector{X: 1}, image.Point{X: 10, Y: 10}, 500)
	corr.Append(r3.Vector{X: 2}, image.Point{X: 20, Y: 20}, 510)

	if _, err := Solve(corr, testIntrinsics(), DefaultConfig()); !errors.Is(err, ErrTooFewSamples) {
		t.Errorf("got %v, want ErrTooFewSamples", err)
	}
}

func TestSolveDepthScale_ReportsObjectiveAtOptimum(t *testing.T) {
	intr := testIntrinsics()
	truthPose := &RigidTransform{
		R: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, -1, 0,
			0, 0, -1,
		}),
		T: r3.Vector{X: 650, Y: 225, Z: 700},
	}
	corr := syntheticCorrespondences(t, truthPose, intr, 1.03)

	scale, rmse, err := SolveDepthScale(corr, intr, DefaultConfig())
	if err != nil {
		t.Fatalf("SolveDepthScale failed: %v", err)
	}
	if math.Abs(scale-1.03) > 0.005 {
		t.Errorf("scale = %.5f, want 1.03 within 0.005", scale)
	}
	if rmse <= 0 || rmse > 2.0 {
		t.Errorf("RMSE = %.3f mm, want in (0, 2.0]", rmse)
	}

	// The reported RMSE is the objective value at the returned scale.
	observed := corr.BackProjectScaled(intr, scale)
	recheck, err := RegistrationRMSE(corr.Measured, observed)
	if err != nil {
		t.Fatalf("RegistrationRMSE failed: %v", err)
	}
	if math.Abs(recheck-rmse) > 1e-9 {
		t.Errorf("objective at optimum = %v, solver reported %v", recheck, rmse)
	}
}

// syntheticCorrespondences projects a grid of tool positions through a known
// camera pose and depth scale, producing the correspondence set a perfect
// collection pass would record. Pixels are rounded to integers the way the
// collector stores them.
func syntheticCorrespondences(t *testing.T, cameraPose *RigidTransform, intr *transform.PinholeCameraIntrinsics, depthScale float64) *Correspondences {
	t.Helper()

	bounds := Bounds{
		X: Interval{Min: 450, Max: 850},
		Y: Interval{Min: 75, Max: 375},
		Z: Interval{Min: -250, Max: -50},
	}
	measured, err := Grid(bounds, 100)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}

	worldToCamera := cameraPose.Inverse()
	corr := &Correspondences{}
	for _, m := range measured {
		c := worldToCamera.Apply(m)
		if c.Z <= 0 {
			t.Fatalf("point %v lands behind the camera (Z=%v)", m, c.Z)
		}
		px := intr.Ppx + intr.Fx*c.X/c.Z
		py := intr.Ppy + intr.Fy*c.Y/c.Z
		if px < 0 || px >= float64(intr.Width) || py < 0 || py >= float64(intr.Height) {
			t.Fatalf("point %v projects off frame at (%v, %v)", m, px, py)
		}
		pix := image.Point{X: int(math.Round(px)), Y: int(math.Round(py))}
		corr.Append(m, pix, c.Z/depthScale)
	}
	return corr
}
