package camerapose

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/rimage/transform"
)

func TestBackProject_PrincipalPoint(t *testing.T) {
	intr := testIntrinsics()

	p := BackProject(intr, intr.Ppx, intr.Ppy, 1000)
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("principal point back-projected to (%v, %v), want (0, 0)", p.X, p.Y)
	}
	if p.Z != 1000 {
		t.Errorf("Z = %v, want 1000", p.Z)
	}
}

func TestBackProject_FocalOffset(t *testing.T) {
	intr := testIntrinsics()

	// A pixel one focal length from the principal point back-projects to
	// X equal to the depth.
	p := BackProject(intr, intr.Ppx+intr.Fx, intr.Ppy, 850)
	if math.Abs(p.X-850) > 1e-9 {
		t.Errorf("X = %v, want 850", p.X)
	}
	if math.Abs(p.Y) > 1e-9 {
		t.Errorf("Y = %v, want 0", p.Y)
	}
}

func TestBackProject_ScalesLinearlyWithDepth(t *testing.T) {
	intr := testIntrinsics()

	near := BackProject(intr, 800, 200, 500)
	far := BackProject(intr, 800, 200, 1000)
	if math.Abs(far.X-2*near.X) > 1e-9 || math.Abs(far.Y-2*near.Y) > 1e-9 {
		t.Errorf("doubling depth did not double lateral offsets: near %v, far %v", near, far)
	}
}

func TestRegistrationRMSE_ZeroAtTrueScaleForExactSamples(t *testing.T) {
	// Geometry picked so every grid point projects onto an integer pixel
	// (camZ equals the focal length's divisor) and the raw depths divide the
	// scale exactly: at the true scale the objective must vanish.
	intr := &transform.PinholeCameraIntrinsics{
		Width:  640,
		Height: 480,
		Fx:     800,
		Fy:     800,
		Ppx:    320,
		Ppy:    240,
	}
	cameraPose := &RigidTransform{
		R: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, -1, 0,
			0, 0, -1,
		}),
		T: r3.Vector{X: 50, Y: 50, Z: 800},
	}
	truthScale := 0.5

	bounds := Bounds{
		X: Interval{Min: 0, Max: 100},
		Y: Interval{Min: 0, Max: 100},
		Z: Interval{Min: 0, Max: 0},
	}
	measured, err := Grid(bounds, 50)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(measured) != 9 {
		t.Fatalf("got %d grid points, want 9 (3x3x1)", len(measured))
	}

	worldToCamera := cameraPose.Inverse()
	corr := &Correspondences{}
	for _, m := range measured {
		c := worldToCamera.Apply(m)
		pix := image.Point{
			X: int(math.Round(intr.Ppx + intr.Fx*c.X/c.Z)),
			Y: int(math.Round(intr.Ppy + intr.Fy*c.Y/c.Z)),
		}
		corr.Append(m, pix, c.Z/truthScale)
	}

	observed := corr.BackProjectScaled(intr, truthScale)
	rmse, err := RegistrationRMSE(corr.Measured, observed)
	if err != nil {
		t.Fatalf("RegistrationRMSE failed: %v", err)
	}
	if rmse > 1e-9 {
		t.Errorf("RMSE = %v at the true scale for exact samples, want ~0", rmse)
	}

	// Away from the true scale the same samples cannot align rigidly.
	offScale := corr.BackProjectScaled(intr, truthScale*1.1)
	biased, err := RegistrationRMSE(corr.Measured, offScale)
	if err != nil {
		t.Fatalf("RegistrationRMSE failed: %v", err)
	}
	if biased <= rmse {
		t.Errorf("RMSE at a wrong scale = %v, want above %v", biased, rmse)
	}
}

func TestRegistrationRMSE_ZeroForCongruentSets(t *testing.T) {
	truth := &RigidTransform{
		R: rotationZ(0.4),
		T: r3.Vector{X: -20, Y: 35, Z: 90},
	}
	src := randomPoints(25, 150, 11)
	dst := make([]r3.Vector, len(src))
	for i, p := range src {
		dst[i] = truth.Apply(p)
	}

	rmse, err := RegistrationRMSE(src, dst)
	if err != nil {
		t.Fatalf("RegistrationRMSE failed: %v", err)
	}
	if rmse > 1e-9 {
		t.Errorf("RMSE = %v for congruent sets, want ~0", rmse)
	}
}

func TestRegistrationRMSE_TracksNoiseMagnitude(t *testing.T) {
	truth := &RigidTransform{
		R: rotationZ(-0.8),
		T: r3.Vector{X: 10, Y: 10, Z: 10},
	}
	src := randomPoints(200, 300, 23)
	//nolint:gosec
	rng := rand.New(rand.NewSource(23))
	noiseMm := 2.0
	dst := make([]r3.Vector, len(src))
	for i, p := range src {
		d := truth.Apply(p)
		dst[i] = r3.Vector{
			X: d.X + noiseMm*(2*rng.Float64()-1),
			Y: d.Y + noiseMm*(2*rng.Float64()-1),
			Z: d.Z + noiseMm*(2*rng.Float64()-1),
		}
	}

	rmse, err := RegistrationRMSE(src, dst)
	if err != nil {
		t.Fatalf("RegistrationRMSE failed: %v", err)
	}
	if rmse <= 0 {
		t.Fatalf("RMSE = %v for noisy sets, want > 0", rmse)
	}
	// Uniform noise in [-2, 2] mm per axis has an RMS around 2 mm in 3D.
	if rmse > 3*noiseMm {
		t.Errorf("RMSE = %v mm, want under %v mm", rmse, 3*noiseMm)
	}
	t.Logf("RMSE with %.1f mm uniform noise: %.3f mm", noiseMm, rmse)
}

// testIntrinsics returns pinhole parameters matching a 1280x720 RealSense
// color stream.
func testIntrinsics() *transform.PinholeCameraIntrinsics {
	return &transform.PinholeCameraIntrinsics{
		Width:  1280,
		Height: 720,
		Fx:     906.0663452148438,
		Fy:     905.1234741210938,
		Ppx:    646.94970703125,
		Ppy:    374.4667663574219,
	}
}
