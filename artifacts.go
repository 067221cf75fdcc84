package handeye

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	camerapose "github.com/biotinker/handeye/camera_pose"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/rimage/transform"
)

// Artifact file names within the output directory. The point, pixel, scale,
// and pose files are whitespace-delimited float text, one row per line, so
// they load directly into any numeric environment.
const (
	measuredPointsFile = "measured_pts.txt"
	observedPointsFile = "observed_pts.txt"
	observedPixelsFile = "observed_pix.txt"
	intrinsicsFile     = "camera_intrinsics.txt"
	depthScaleFile     = "camera_depth_scale.txt"
	cameraPoseFile     = "camera_pose.txt"
	cloudsDirName      = "clouds"
)

// SaveCorrespondences writes the collected samples plus the 3x3 camera
// matrix used to interpret them. observed_pts.txt holds unit-scale
// back-projections, so its third column is the raw depth reading; that is
// what lets LoadCorrespondences reconstruct the sample set exactly.
func SaveCorrespondences(dir string, corr *camerapose.Correspondences, intr *transform.PinholeCameraIntrinsics) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	measured := make([][]float64, corr.Len())
	for i, p := range corr.Measured {
		measured[i] = []float64{p.X, p.Y, p.Z}
	}
	if err := writeMatrix(filepath.Join(dir, measuredPointsFile), measured); err != nil {
		return err
	}

	observed := make([][]float64, corr.Len())
	for i, p := range corr.BackProjectScaled(intr, 1.0) {
		observed[i] = []float64{p.X, p.Y, p.Z}
	}
	if err := writeMatrix(filepath.Join(dir, observedPointsFile), observed); err != nil {
		return err
	}

	pixels := make([][]float64, corr.Len())
	for i, pix := range corr.Pixels {
		pixels[i] = []float64{float64(pix.X), float64(pix.Y)}
	}
	if err := writeMatrix(filepath.Join(dir, observedPixelsFile), pixels); err != nil {
		return err
	}

	k := intr.GetCameraMatrix()
	kRows := make([][]float64, 3)
	for i := range kRows {
		kRows[i] = []float64{k.At(i, 0), k.At(i, 1), k.At(i, 2)}
	}
	return writeMatrix(filepath.Join(dir, intrinsicsFile), kRows)
}

// LoadCorrespondences reads a saved sample set back into memory, recovering
// raw depths from the unit-scale back-projections. The returned intrinsics
// carry only the pinhole terms the solver uses; frame width and height are
// not part of the persisted camera matrix.
func LoadCorrespondences(dir string) (*camerapose.Correspondences, *transform.PinholeCameraIntrinsics, error) {
	kRows, err := readMatrix(filepath.Join(dir, intrinsicsFile))
	if err != nil {
		return nil, nil, err
	}
	if len(kRows) != 3 || len(kRows[0]) != 3 || len(kRows[1]) != 3 || len(kRows[2]) != 3 {
		return nil, nil, fmt.Errorf("%s: want a 3x3 matrix", intrinsicsFile)
	}
	intr := &transform.PinholeCameraIntrinsics{
		Fx:  kRows[0][0],
		Fy:  kRows[1][1],
		Ppx: kRows[0][2],
		Ppy: kRows[1][2],
	}

	measured, err := readMatrix(filepath.Join(dir, measuredPointsFile))
	if err != nil {
		return nil, nil, err
	}
	observed, err := readMatrix(filepath.Join(dir, observedPointsFile))
	if err != nil {
		return nil, nil, err
	}
	pixels, err := readMatrix(filepath.Join(dir, observedPixelsFile))
	if err != nil {
		return nil, nil, err
	}
	if len(measured) != len(observed) || len(measured) != len(pixels) {
		return nil, nil, fmt.Errorf("artifact row counts disagree: %d measured, %d observed, %d pixels",
			len(measured), len(observed), len(pixels))
	}

	corr := &camerapose.Correspondences{}
	for i := range measured {
		if len(measured[i]) != 3 || len(observed[i]) != 3 || len(pixels[i]) != 2 {
			return nil, nil, fmt.Errorf("artifact row %d has wrong width", i)
		}
		pix := image.Point{X: int(pixels[i][0]), Y: int(pixels[i][1])}
		corr.Append(
			r3.Vector{X: measured[i][0], Y: measured[i][1], Z: measured[i][2]},
			pix,
			observed[i][2],
		)
	}
	return corr, intr, nil
}

// SaveResult writes the solved depth scale and the 4x4 homogeneous camera
// pose (camera frame in the robot's world frame).
func SaveResult(dir string, result *camerapose.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeMatrix(filepath.Join(dir, depthScaleFile), [][]float64{{result.DepthScale}}); err != nil {
		return err
	}

	m := result.CameraPose.Matrix()
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = []float64{m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3)}
	}
	return writeMatrix(filepath.Join(dir, cameraPoseFile), rows)
}

// saveClouds writes the measured points and the solved-scale observations as
// two world-frame PCD clouds. After a good solve the red observed cloud sits
// on top of the green measured cloud.
func saveClouds(dir string, corr *camerapose.Correspondences, intr *transform.PinholeCameraIntrinsics, result *camerapose.Result) error {
	cloudsDir := filepath.Join(dir, cloudsDirName)
	if err := os.MkdirAll(cloudsDir, 0o755); err != nil {
		return fmt.Errorf("create clouds dir: %w", err)
	}

	measured := pointcloud.NewBasicEmpty()
	green := pointcloud.NewColoredData(color.NRGBA{G: 255, A: 255})
	for _, p := range corr.Measured {
		if err := measured.Set(p, green); err != nil {
			return fmt.Errorf("build measured cloud: %w", err)
		}
	}
	if err := savePointCloudToPCD(measured, filepath.Join(cloudsDir, "measured.pcd")); err != nil {
		return fmt.Errorf("save measured cloud: %w", err)
	}

	observed := pointcloud.NewBasicEmpty()
	red := pointcloud.NewColoredData(color.NRGBA{R: 255, A: 255})
	for _, p := range corr.BackProjectScaled(intr, result.DepthScale) {
		if err := observed.Set(result.CameraPose.Apply(p), red); err != nil {
			return fmt.Errorf("build observed cloud: %w", err)
		}
	}
	if err := savePointCloudToPCD(observed, filepath.Join(cloudsDir, "observed.pcd")); err != nil {
		return fmt.Errorf("save observed cloud: %w", err)
	}
	return nil
}

// savePointCloudToPCD writes a point cloud to a PCD file in binary format.
func savePointCloudToPCD(cloud pointcloud.PointCloud, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := pointcloud.ToPCD(cloud, file, pointcloud.PCDBinary); err != nil {
		return fmt.Errorf("write PCD: %w", err)
	}
	return nil
}

// writeMatrix writes rows of floats as whitespace-delimited text, one row
// per line, at full float64 precision.
func writeMatrix(path string, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, row := range rows {
		for j, v := range row {
			if j > 0 {
				if err := w.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%.18e", v); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// readMatrix parses whitespace-delimited float text. Rows may vary in width;
// callers check the shape they need.
func readMatrix(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
