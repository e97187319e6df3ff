package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDriftCoordinate checks the drift projection against the two-anode
// module: distance zero lands exactly on the anode plane and the projected
// coordinate moves toward the cathode with the tile's polarity.
func TestDriftCoordinate(t *testing.T) {
	state := buildTwoTileGeometry(t)

	coords, err := state.DriftCoordinate(
		[]int{1, 1, 2, 2},
		[]int{1, 1, 1, 1},
		[]float64{0, 10, 0, 10},
	)
	require.NoError(t, err)
	assert.Equal(t, []float64{155, 145, -155, -145}, coords)

	// Linearity: slope is exactly the drift polarity.
	coords, err = state.DriftCoordinate([]int{1, 1}, []int{1, 1}, []float64{20, 120})
	require.NoError(t, err)
	assert.Equal(t, -1.0, (coords[1]-coords[0])/100)
}

// TestDriftCoordinateErrors rejects mismatched inputs and unknown
// electronics addresses.
func TestDriftCoordinateErrors(t *testing.T) {
	state := buildTwoTileGeometry(t)

	_, err := state.DriftCoordinate([]int{1}, []int{1, 1}, []float64{0})
	assert.Error(t, err)

	var keyErr *ErrKeyOutOfRange
	_, err = state.DriftCoordinate([]int{99}, []int{1}, []float64{0})
	assert.ErrorAs(t, err, &keyErr)
}

// TestInFiducial checks the two drift sub-volumes of the two-anode module:
// the region between the drift volumes is never fiducial, and with all
// margins zero the readout boundary itself still is.
func TestInFiducial(t *testing.T) {
	state := buildTwoTileGeometry(t)

	// Drift regions span x in [5,155] and [-155,-5]; y and z in [-4,4].
	points := [][3]float64{
		{100, 0, 0},   // inside the positive drift region
		{-100, 0, 0},  // inside the negative drift region
		{0, 0, 0},     // cathode gap between the regions
		{155, 4, 4},   // corner of the positive region
		{100, 5, 0},   // outside the field cage
		{200, 0, 0},   // behind the anode
		{100, 0, -10}, // outside the field cage in z
	}
	assert.Equal(t, []bool{true, true, false, true, false, false, false},
		state.InFiducial(points, 0, 0, 0))
}

// TestInFiducialMargins checks that each margin shrinks its own boundary
// and that growing any margin never reclaims a point.
func TestInFiducialMargins(t *testing.T) {
	state := buildTwoTileGeometry(t)

	// The anode margin retires the anode face only.
	anodeFace := [][3]float64{{155, 0, 0}, {150, 0, 0}}
	assert.Equal(t, []bool{true, true}, state.InFiducial(anodeFace, 0, 0, 0))
	assert.Equal(t, []bool{false, true}, state.InFiducial(anodeFace, 0, 0, 1))
	assert.Equal(t, []bool{true, true}, state.InFiducial(anodeFace, 1, 1, 0))

	// The cathode margin retires the cathode face only.
	cathodeFace := [][3]float64{{5, 0, 0}, {10, 0, 0}}
	assert.Equal(t, []bool{true, true}, state.InFiducial(cathodeFace, 0, 0, 0))
	assert.Equal(t, []bool{false, true}, state.InFiducial(cathodeFace, 1, 0, 0))

	// The field cage margin retires the transverse faces.
	sideFace := [][3]float64{{100, 4, 0}, {100, 0, 4}}
	assert.Equal(t, []bool{true, true}, state.InFiducial(sideFace, 0, 0, 0))
	assert.Equal(t, []bool{false, false}, state.InFiducial(sideFace, 0, 1, 0))

	// Monotonicity: a point fiducial under larger margins is fiducial
	// under smaller ones.
	grid := make([][3]float64, 0)
	for x := -160.0; x <= 160; x += 20 {
		for y := -5.0; y <= 5; y += 2.5 {
			grid = append(grid, [3]float64{x, y, 0})
		}
	}
	loose := state.InFiducial(grid, 0, 0, 0)
	tight := state.InFiducial(grid, 10, 2, 10)
	for i := range grid {
		if tight[i] {
			assert.True(t, loose[i], "point %v fiducial with margins but not without", grid[i])
		}
	}
}

// solidAngleState builds a state with a single hand-placed light detector:
// a 100x200mm face centered on the origin in the x = 0 plane.
func solidAngleState(t *testing.T) *GeometryState {
	t.Helper()
	bounds := NewLUT[float32]("det_bounds", 0, []Range{{0, 0}, {0, 0}}, 2, 3)
	require.NoError(t, bounds.Set([]int{0, 0}, -0.5, -50, -100, 0.5, 50, 100))
	return &GeometryState{DetBounds: bounds}
}

// TestSolidAngleOnPlane checks the limiting case of a point on the
// detector plane inside the face outline: exactly half the sphere.
func TestSolidAngleOnPlane(t *testing.T) {
	state := solidAngleState(t)
	omega, err := state.SolidAngle([][3]float64{{0, 10, 20}}, []int{0}, []int{0})
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pi, omega[0][0], 1e-9)
}

// TestSolidAngleSymmetry mirrors the viewpoint across both transverse
// axes and across the detector plane.
func TestSolidAngleSymmetry(t *testing.T) {
	state := solidAngleState(t)
	points := [][3]float64{
		{300, 20, 30},
		{300, -20, 30},
		{300, 20, -30},
		{-300, 20, 30},
	}
	omega, err := state.SolidAngle(points, []int{0}, []int{0})
	require.NoError(t, err)
	for i := 1; i < len(points); i++ {
		assert.InDelta(t, omega[0][0], omega[i][0], 1e-12, "point %v", points[i])
	}
}

// TestSolidAngleFalloff checks that the angle shrinks monotonically as the
// viewpoint retreats along the axis or moves off-axis, and vanishes at
// long range.
func TestSolidAngleFalloff(t *testing.T) {
	state := solidAngleState(t)

	axial := [][3]float64{{10, 0, 0}, {50, 0, 0}, {100, 0, 0}, {500, 0, 0}}
	omega, err := state.SolidAngle(axial, []int{0}, []int{0})
	require.NoError(t, err)
	for i := 1; i < len(axial); i++ {
		assert.Less(t, omega[i][0], omega[i-1][0])
	}

	offAxis, err := state.SolidAngle([][3]float64{{100, 200, 0}}, []int{0}, []int{0})
	require.NoError(t, err)
	assert.Less(t, offAxis[0][0], omega[2][0])
	assert.Greater(t, offAxis[0][0], 0.0)

	far, err := state.SolidAngle([][3]float64{{1e6, 0, 0}}, []int{0}, []int{0})
	require.NoError(t, err)
	assert.Greater(t, far[0][0], 0.0)
	assert.Less(t, far[0][0], 1e-6)
}

// TestSolidAngleErrors rejects unknown detector ids and mismatched id
// lists.
func TestSolidAngleErrors(t *testing.T) {
	state := solidAngleState(t)

	var keyErr *ErrKeyOutOfRange
	_, err := state.SolidAngle([][3]float64{{100, 0, 0}}, []int{0}, []int{5})
	assert.ErrorAs(t, err, &keyErr)

	_, err = state.SolidAngle([][3]float64{{100, 0, 0}}, []int{0, 1}, []int{0})
	assert.Error(t, err)
}

// TestSolidAngleBuiltGeometry runs the query against detectors from the
// light layout fixture and checks the output shape.
func TestSolidAngleBuiltGeometry(t *testing.T) {
	state := buildTwoTileGeometry(t)

	points := [][3]float64{{50, -150, 0}, {50, 150, 0}}
	omega, err := state.SolidAngle(points, []int{0, 1}, []int{0, 1})
	require.NoError(t, err)
	require.Len(t, omega, 2)
	require.Len(t, omega[0], 2)
	for i := range omega {
		for j := range omega[i] {
			assert.Greater(t, omega[i][j], 0.0)
			assert.LessOrEqual(t, omega[i][j], 4*math.Pi)
		}
	}
}
