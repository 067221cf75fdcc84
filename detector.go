package handeye

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"

	"go.viam.com/rdk/services/vision"
)

// ErrBoardNotFound is returned by a Detector when the frame holds no
// complete fiducial pattern. The collector treats it as a recoverable miss
// and skips the position.
var ErrBoardNotFound = errors.New("fiducial board not found in frame")

// BoardObservation is one successful fiducial detection.
type BoardObservation struct {
	// Corners holds the detected inner corners in row-major order, sub-pixel.
	Corners []r2.Point

	// Center is the corner at the pattern's center index, the point whose
	// depth gets sampled.
	Center r2.Point
}

// Detector locates the calibration fiducial in a color frame.
type Detector interface {
	FindBoard(ctx context.Context, img image.Image) (*BoardObservation, error)
}

// visionDetector finds chessboards through a vision service's DoCommand,
// shipping it the exact frame the depth reading will be paired with.
type visionDetector struct {
	svc  vision.Service
	rows int
	cols int
}

func newVisionDetector(svc vision.Service, rows, cols int) *visionDetector {
	return &visionDetector{svc: svc, rows: rows, cols: cols}
}

// FindBoard encodes the frame as PNG and sends it to the service's
// find_chessboard command. The response lists all inner corners row-major;
// a found=false response maps to ErrBoardNotFound.
func (d *visionDetector) FindBoard(ctx context.Context, img image.Image) (*BoardObservation, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	resp, err := d.svc.DoCommand(ctx, map[string]interface{}{
		"find_chessboard": map[string]interface{}{
			"image": base64.StdEncoding.EncodeToString(buf.Bytes()),
			"rows":  d.rows,
			"cols":  d.cols,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("find_chessboard: %w", err)
	}
	return parseBoardResponse(resp, d.rows, d.cols)
}

// parseBoardResponse decodes a find_chessboard response map into an
// observation, mapping found=false to ErrBoardNotFound.
func parseBoardResponse(resp map[string]interface{}, rows, cols int) (*BoardObservation, error) {
	var decoded struct {
		Found   bool        `mapstructure:"found"`
		Corners [][]float64 `mapstructure:"corners"`
	}
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return nil, fmt.Errorf("decode find_chessboard response: %w", err)
	}
	if !decoded.Found {
		return nil, ErrBoardNotFound
	}
	want := rows * cols
	if len(decoded.Corners) != want {
		return nil, fmt.Errorf("find_chessboard returned %d corners, want %d", len(decoded.Corners), want)
	}

	obs := &BoardObservation{Corners: make([]r2.Point, want)}
	for i, c := range decoded.Corners {
		if len(c) != 2 {
			return nil, fmt.Errorf("corner %d has %d coordinates, want 2", i, len(c))
		}
		obs.Corners[i] = r2.Point{X: c[0], Y: c[1]}
	}
	obs.Center = obs.Corners[centerCornerIndex(rows, cols)]
	return obs, nil
}

// centerCornerIndex returns the row-major index of the middle corner of an
// odd-by-odd pattern.
func centerCornerIndex(rows, cols int) int {
	return (rows * cols) / 2
}
