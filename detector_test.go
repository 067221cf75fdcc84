package handeye

import (
	"errors"
	"testing"

	"go.viam.com/test"
)

// boardResponse builds a response map shaped the way DoCommand results
// arrive off the wire: []interface{} slices and float64 numbers.
func boardResponse(found bool, corners [][2]float64) map[string]interface{} {
	raw := make([]interface{}, len(corners))
	for i, c := range corners {
		raw[i] = []interface{}{c[0], c[1]}
	}
	return map[string]interface{}{
		"found":   found,
		"corners": raw,
	}
}

func TestParseBoardResponse_Found(t *testing.T) {
	corners := [][2]float64{
		{100.5, 50.25}, {200, 50}, {300, 50},
		{100, 150}, {201.75, 151.5}, {300, 150},
		{100, 250}, {200, 250}, {300, 250},
	}

	obs, err := parseBoardResponse(boardResponse(true, corners), 3, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(obs.Corners), test.ShouldEqual, 9)
	test.That(t, obs.Corners[0].X, test.ShouldEqual, 100.5)
	test.That(t, obs.Corners[0].Y, test.ShouldEqual, 50.25)
	// The center of a 3x3 pattern is the fifth corner.
	test.That(t, obs.Center.X, test.ShouldEqual, 201.75)
	test.That(t, obs.Center.Y, test.ShouldEqual, 151.5)
}

func TestParseBoardResponse_NotFound(t *testing.T) {
	_, err := parseBoardResponse(boardResponse(false, nil), 3, 3)
	test.That(t, errors.Is(err, ErrBoardNotFound), test.ShouldBeTrue)
}

func TestParseBoardResponse_WrongCornerCount(t *testing.T) {
	corners := [][2]float64{{1, 2}, {3, 4}, {5, 6}}
	_, err := parseBoardResponse(boardResponse(true, corners), 3, 3)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseBoardResponse_BadCoordinateWidth(t *testing.T) {
	resp := map[string]interface{}{
		"found": true,
		"corners": []interface{}{
			[]interface{}{1.0, 2.0}, []interface{}{3.0, 4.0}, []interface{}{5.0, 6.0},
			[]interface{}{1.0, 2.0}, []interface{}{3.0, 4.0, 9.0}, []interface{}{5.0, 6.0},
			[]interface{}{1.0, 2.0}, []interface{}{3.0, 4.0}, []interface{}{5.0, 6.0},
		},
	}
	_, err := parseBoardResponse(resp, 3, 3)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCenterCornerIndex(t *testing.T) {
	test.That(t, centerCornerIndex(3, 3), test.ShouldEqual, 4)
	test.That(t, centerCornerIndex(5, 3), test.ShouldEqual, 7)
	test.That(t, centerCornerIndex(5, 5), test.ShouldEqual, 12)
	test.That(t, centerCornerIndex(5, 7), test.ShouldEqual, 17)
}
