package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildGeometry assembles charge and light geometry from the fixture
// documents into one state.
func TestBuildGeometry(t *testing.T) {
	state := buildTwoTileGeometry(t)

	assert.Equal(t, ClassVersion, state.ClassVersion)
	assert.Equal(t, "z", state.BeamDirection)
	assert.Equal(t, "x", state.DriftDirection)
	assert.Equal(t, 4.0, state.PixelPitch)
	assert.Equal(t, 150.0, state.MaxDriftDistance)
	assert.Equal(t, 10.0, state.CathodeThickness)
	assert.Equal(t, [2][3]float64{{-155, -4, -4}, {155, 4, 4}}, state.DetectorBounds)
	require.Len(t, state.ModuleBounds, 1)
	assert.Greater(t, state.LUTBytes(), 0)
}

// TestGeometrySnapshotRoundTrip persists a built geometry through the
// in-memory store and checks the restored state answers queries
// identically.
func TestGeometrySnapshotRoundTrip(t *testing.T) {
	state := buildTwoTileGeometry(t)

	store := NewMemoryStore()
	require.NoError(t, store.WriteGeometry(state))
	restored, err := store.ReadGeometry()
	require.NoError(t, err)

	assert.Equal(t, state.ClassVersion, restored.ClassVersion)
	assert.Equal(t, state.BeamDirection, restored.BeamDirection)
	assert.Equal(t, state.DriftDirection, restored.DriftDirection)
	assert.Equal(t, state.PixelPitch, restored.PixelPitch)
	assert.Equal(t, state.CathodeThickness, restored.CathodeThickness)
	assert.Equal(t, state.MaxDriftDistance, restored.MaxDriftDistance)
	assert.Equal(t, state.DetectorBounds, restored.DetectorBounds)
	assert.Equal(t, state.ModuleBounds, restored.ModuleBounds)

	// Every lookup table entry survives, including default-filled keys.
	for _, key := range state.PixelCoordinates.Keys() {
		want, err := state.PixelCoordinates.Get(key)
		require.NoError(t, err)
		got, err := restored.PixelCoordinates.Get(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, "pixel key %v", key)
	}
	for _, key := range state.TPCID.Keys() {
		want, err := state.TPCID.GetScalar(key)
		require.NoError(t, err)
		got, err := restored.TPCID.GetScalar(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, "tpc key %v", key)
	}

	// Queries agree between the built and restored states.
	original, err := state.DriftCoordinate([]int{1, 2}, []int{1, 1}, []float64{25, 25})
	require.NoError(t, err)
	reloaded, err := restored.DriftCoordinate([]int{1, 2}, []int{1, 1}, []float64{25, 25})
	require.NoError(t, err)
	assert.Equal(t, original, reloaded)

	points := [][3]float64{{100, 0, 0}, {0, 0, 0}}
	assert.Equal(t, state.InFiducial(points, 0, 0, 0), restored.InFiducial(points, 0, 0, 0))
}

// TestLoadOrBuildGeometry builds and persists on the first call and loads
// the snapshot afterwards without rebuilding.
func TestLoadOrBuildGeometry(t *testing.T) {
	config := Configuration{
		TileLayoutFile:  writeFixture(t, "tiles.yaml", twoTileLayoutYAML),
		DetectorFile:    writeFixture(t, "detector.yaml", twoTileDetectorYAML),
		LightLayoutFile: writeFixture(t, "light.yaml", lightLayoutFixtureYAML),
		BeamDirection:   "z",
		DriftDirection:  "x",
	}
	store := NewMemoryStore()

	first, err := LoadOrBuildGeometry(config, store)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Writes)

	second, err := LoadOrBuildGeometry(config, store)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Writes)
	assert.Equal(t, first.DetectorBounds, second.DetectorBounds)
}

// TestRestoreGeometryVersionMismatch rejects snapshots whose schema
// version differs in the major or the minor component.
func TestRestoreGeometryVersionMismatch(t *testing.T) {
	state := buildTwoTileGeometry(t)
	attrs, records := snapshotGeometry(state)
	var versionErr *ErrVersionMismatch

	attrs.ClassVersion = "1.0.0"
	_, err := restoreGeometry(attrs, records)
	assert.ErrorAs(t, err, &versionErr)

	attrs.ClassVersion = "0.9.0"
	_, err = restoreGeometry(attrs, records)
	assert.ErrorAs(t, err, &versionErr)
}

// TestRestoreGeometryMissingTable rejects snapshots with a lookup table
// dropped.
func TestRestoreGeometryMissingTable(t *testing.T) {
	state := buildTwoTileGeometry(t)
	attrs, records := snapshotGeometry(state)
	delete(records, "det_bounds")

	_, err := restoreGeometry(attrs, records)
	assert.Error(t, err)
}
