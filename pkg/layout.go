package geometry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Expected format version of the light readout description documents.
const lightLayoutVersion = "0.0.0"

// TileLayout describes the charge readout pixel/tile geometry (the
// multi-tile layout YAML). Positions in this document are already in
// millimeters. Chip/channel and io group/channel pairs are packed as
// id*1000 + index, as produced by the layout generator.
type TileLayout struct {
	LayoutVersion         string              `yaml:"multitile_layout_version"`
	PixelPitch            float64             `yaml:"pixel_pitch"`
	ChipChannelToPosition map[int][]float64   `yaml:"chip_channel_to_position"`
	TileOrientations      map[int][]float64   `yaml:"tile_orientations"`
	TilePositions         map[int][]float64   `yaml:"tile_positions"`
	TileChipToIO          map[int]map[int]int `yaml:"tile_chip_to_io"`
}

func LoadTileLayout(path string) (*TileLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	var layout TileLayout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing tile layout %q: %w", path, err)
	}
	// Only multi-tile geometry descriptions are accepted.
	if layout.LayoutVersion == "" {
		return nil, &ErrConfigField{Filename: path, Field: "multitile_layout_version"}
	}
	if layout.PixelPitch <= 0 {
		return nil, &ErrConfigField{Filename: path, Field: "pixel_pitch"}
	}
	if len(layout.ChipChannelToPosition) == 0 {
		return nil, &ErrConfigField{Filename: path, Field: "chip_channel_to_position"}
	}
	if len(layout.TileChipToIO) == 0 {
		return nil, &ErrConfigField{Filename: path, Field: "tile_chip_to_io"}
	}
	return &layout, nil
}

// DetectorLayout describes the LArTPC modules (the detector description
// YAML). The source document is in centimeters; all lengths are converted
// to millimeters here, at the single unit boundary.
type DetectorLayout struct {
	DriftLength      float64       // max drift distance per TPC [mm]
	ModuleCenters    [][3]float64  // world-frame center per module [mm]
	ModuleToIOGroups map[int][]int // module id -> global io groups
}

type detectorLayoutYAML struct {
	DriftLength      float64       `yaml:"drift_length"`
	TPCOffsets       [][]float64   `yaml:"tpc_offsets"`
	ModuleToIOGroups map[int][]int `yaml:"module_to_io_groups"`
}

func LoadDetectorLayout(path string) (*DetectorLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	var doc detectorLayoutYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing detector layout %q: %w", path, err)
	}
	if doc.DriftLength <= 0 {
		return nil, &ErrConfigField{Filename: path, Field: "drift_length"}
	}
	if len(doc.ModuleToIOGroups) == 0 {
		return nil, &ErrConfigField{Filename: path, Field: "module_to_io_groups"}
	}
	if len(doc.TPCOffsets) != len(doc.ModuleToIOGroups) {
		return nil, &ErrConfigField{Filename: path, Field: "tpc_offsets"}
	}
	layout := &DetectorLayout{
		DriftLength:      doc.DriftLength * Centimeter,
		ModuleToIOGroups: doc.ModuleToIOGroups,
	}
	for _, offset := range doc.TPCOffsets {
		if len(offset) != 3 {
			return nil, &ErrConfigField{Filename: path, Field: "tpc_offsets"}
		}
		layout.ModuleCenters = append(layout.ModuleCenters, [3]float64{
			offset[0] * Centimeter,
			offset[1] * Centimeter,
			offset[2] * Centimeter,
		})
	}
	return layout, nil
}

// LightGeomShape is one detector shape: bounding box corners relative to
// the detector center [mm].
type LightGeomShape struct {
	Min [3]float64
	Max [3]float64
}

// LightLayout describes the light readout system (TPC/detector/channel
// YAML). The source document is in centimeters; converted to millimeters
// here.
type LightLayout struct {
	FormatVersion string
	TPCCenters    map[int][3]float64
	DetCenters    map[int][3]float64
	DetGeom       map[int]int
	Shapes        map[int]LightGeomShape
	DetADC        map[int]map[int]int
	DetChan       map[int]map[int][]int
}

type lightGeomYAML struct {
	Min []float64 `yaml:"min"`
	Max []float64 `yaml:"max"`
}

type lightLayoutYAML struct {
	FormatVersion string                `yaml:"format_version"`
	TPCCenter     map[int][]float64     `yaml:"tpc_center"`
	DetCenter     map[int][]float64     `yaml:"det_center"`
	DetGeom       map[int]int           `yaml:"det_geom"`
	Geom          map[int]lightGeomYAML `yaml:"geom"`
	DetADC        map[int]map[int]int   `yaml:"det_adc"`
	DetChan       map[int]map[int][]int `yaml:"det_chan"`
}

func LoadLightLayout(path string) (*LightLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	var doc lightLayoutYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing light layout %q: %w", path, err)
	}
	if doc.FormatVersion == "" {
		return nil, &ErrConfigField{Filename: path, Field: "format_version"}
	}
	if err := checkCompatVersion(path, lightLayoutVersion, doc.FormatVersion); err != nil {
		return nil, err
	}
	if len(doc.TPCCenter) == 0 {
		return nil, &ErrConfigField{Filename: path, Field: "tpc_center"}
	}
	if len(doc.DetCenter) == 0 {
		return nil, &ErrConfigField{Filename: path, Field: "det_center"}
	}

	layout := &LightLayout{
		FormatVersion: doc.FormatVersion,
		TPCCenters:    make(map[int][3]float64, len(doc.TPCCenter)),
		DetCenters:    make(map[int][3]float64, len(doc.DetCenter)),
		DetGeom:       doc.DetGeom,
		Shapes:        make(map[int]LightGeomShape, len(doc.Geom)),
		DetADC:        doc.DetADC,
		DetChan:       doc.DetChan,
	}
	for tpc, center := range doc.TPCCenter {
		xyz, err := toMillimeters(path, "tpc_center", center)
		if err != nil {
			return nil, err
		}
		layout.TPCCenters[tpc] = xyz
	}
	for det, center := range doc.DetCenter {
		xyz, err := toMillimeters(path, "det_center", center)
		if err != nil {
			return nil, err
		}
		layout.DetCenters[det] = xyz
	}
	for id, shape := range doc.Geom {
		minCorner, err := toMillimeters(path, "geom.min", shape.Min)
		if err != nil {
			return nil, err
		}
		maxCorner, err := toMillimeters(path, "geom.max", shape.Max)
		if err != nil {
			return nil, err
		}
		layout.Shapes[id] = LightGeomShape{Min: minCorner, Max: maxCorner}
	}
	return layout, nil
}

func toMillimeters(path, field string, v []float64) ([3]float64, error) {
	if len(v) != 3 {
		return [3]float64{}, &ErrConfigField{Filename: path, Field: field}
	}
	return [3]float64{v[0] * Centimeter, v[1] * Centimeter, v[2] * Centimeter}, nil
}

// checkCompatVersion enforces compatibility between the expected schema
// version and the one found in a document. Major and minor must both
// match; only the patch component may differ.
func checkCompatVersion(filename, expected, found string) error {
	expMajor, expMinor := versionPrefix(expected)
	gotMajor, gotMinor := versionPrefix(found)
	if expMajor != gotMajor || expMinor != gotMinor {
		return &ErrVersionMismatch{Filename: filename, Expected: expected, Found: found}
	}
	return nil
}

func versionPrefix(v string) (major, minor int) {
	major, minor = -1, -1
	parts := strings.SplitN(v, ".", 3)
	if n, err := strconv.Atoi(parts[0]); err == nil {
		major = n
	}
	if len(parts) > 1 {
		if n, err := strconv.Atoi(parts[1]); err == nil {
			minor = n
		}
	}
	return major, minor
}
