package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Single module, single tile, one chip with a 2x2 channel grid at 4mm
// pitch. Pixel centers land at ±2mm in z and y.
const singleTileLayoutYAML = `
multitile_layout_version: 2.4.0
pixel_pitch: 4.0
chip_channel_to_position:
  11000: [0, 0]
  11001: [1, 0]
  11002: [0, 1]
  11003: [1, 1]
tile_orientations:
  1: [1, 1, 1]
tile_positions:
  1: [0, 0, 0]
tile_chip_to_io:
  1:
    11: 1001
`

const singleTileDetectorYAML = `
drift_length: 30.0
tpc_offsets:
- [0, 0, 0]
module_to_io_groups:
  1: [1]
`

// One module with two facing anode tiles at x = ±155mm and a 150mm drift
// length, leaving a 10mm-thick cathode at x = 0.
const twoTileLayoutYAML = `
multitile_layout_version: 2.4.0
pixel_pitch: 4.0
chip_channel_to_position:
  11000: [0, 0]
  11001: [1, 0]
  11002: [0, 1]
  11003: [1, 1]
tile_orientations:
  1: [-1, 1, 1]
  2: [1, -1, 1]
tile_positions:
  1: [155, 0, 0]
  2: [-155, 0, 0]
tile_chip_to_io:
  1:
    11: 1001
  2:
    11: 2001
`

const twoTileDetectorYAML = `
drift_length: 15.0
tpc_offsets:
- [0, 0, 0]
module_to_io_groups:
  1: [1, 2]
`

// Two TPCs with two detectors each, one shared box shape. Source units are
// centimeters; adc 1 channel 3 is deliberately left unmapped.
const lightLayoutFixtureYAML = `
format_version: 0.0.0
tpc_center:
  0: [0, 0, 0]
  1: [30, 0, 0]
det_center:
  0: [0, -15, 0]
  1: [0, 15, 0]
det_geom:
  0: 0
  1: 0
geom:
  0:
    min: [-0.5, -5, -10]
    max: [0.5, 5, 10]
det_adc:
  0:
    0: 0
    1: 0
  1:
    0: 1
    1: 1
det_chan:
  0:
    0: [0, 1]
    1: [2, 3]
  1:
    0: [0, 1]
    1: [2]
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildTwoTileGeometry(t *testing.T) *GeometryState {
	t.Helper()
	config := Configuration{
		TileLayoutFile:  writeFixture(t, "tiles.yaml", twoTileLayoutYAML),
		DetectorFile:    writeFixture(t, "detector.yaml", twoTileDetectorYAML),
		LightLayoutFile: writeFixture(t, "light.yaml", lightLayoutFixtureYAML),
		BeamDirection:   "z",
		DriftDirection:  "x",
	}
	state, err := BuildGeometry(config)
	require.NoError(t, err)
	return state
}
