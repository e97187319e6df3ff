package geometry

import (
	"fmt"
	"os"

	hdf5 "github.com/next-exp/hdf5-go"
)

// Compound row for the scalar geometry attributes.
type GeometryInfoHDF5 struct {
	classVersion     [STRLEN]byte
	beamDirection    [STRLEN]byte
	driftDirection   [STRLEN]byte
	tileLayoutFile   [STRLEN]byte
	detectorFile     [STRLEN]byte
	lightLayoutFile  [STRLEN]byte
	pixelPitch       float64
	cathodeThickness float64
	maxDriftDistance float64
	nModules         int32
}

const maxLUTDims = 4

// Compound row describing one serialized lookup table; the dense data
// lives next to it in the same subgroup.
type LUTMetaHDF5 struct {
	dtype      [STRLEN]byte
	nDims      int32
	mins       [maxLUTDims]int32
	maxs       [maxLUTDims]int32
	nShape     int32
	shape      [maxLUTDims]int32
	defaultVal float64
}

// HDF5Store persists geometry snapshots as a named group in an HDF5 file:
// a one-row "info" table with the scalar attributes, the bounds datasets,
// and one subgroup per lookup table holding a one-row "meta" table plus the
// flattened dense "data" array.
type HDF5Store struct {
	Filename string
	Path     string
}

func NewHDF5Store(filename, path string) *HDF5Store {
	return &HDF5Store{Filename: filename, Path: path}
}

// HasGeometry reports whether the file already holds a geometry group.
// Presence of the group means "skip rebuild, load instead".
func (s *HDF5Store) HasGeometry() (bool, error) {
	if _, err := os.Stat(s.Filename); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	f, err := openFileReadOnly(s.Filename)
	if err != nil {
		return false, err
	}
	defer f.Close()
	group, err := f.OpenGroup(s.Path)
	if err != nil {
		return false, nil
	}
	group.Close()
	return true, nil
}

func (s *HDF5Store) WriteGeometry(g *GeometryState) error {
	hdf5.SetStringLength(STRLEN)

	logger.Info(fmt.Sprintf("Writing geometry to %s", s.Filename), "hdf5writer")
	f, err := createFile(s.Filename)
	if err != nil {
		return err
	}
	defer f.Close()

	group, err := createGroup(f, s.Path)
	if err != nil {
		return err
	}
	defer group.Close()

	attrs, records := snapshotGeometry(g)

	infoTable, err := createTable(group, "info", GeometryInfoHDF5{})
	if err != nil {
		return err
	}
	defer infoTable.Close()
	info := GeometryInfoHDF5{
		classVersion:     convertToHdf5String(attrs.ClassVersion),
		beamDirection:    convertToHdf5String(attrs.BeamDirection),
		driftDirection:   convertToHdf5String(attrs.DriftDirection),
		tileLayoutFile:   convertToHdf5String(attrs.TileLayoutFile),
		detectorFile:     convertToHdf5String(attrs.DetectorFile),
		lightLayoutFile:  convertToHdf5String(attrs.LightLayoutFile),
		pixelPitch:       attrs.PixelPitch,
		cathodeThickness: attrs.CathodeThickness,
		maxDriftDistance: attrs.MaxDriftDistance,
		nModules:         int32(len(attrs.ModuleBounds)),
	}
	if err := writeEntryToTable(infoTable, info, 0); err != nil {
		return &ErrCreateTable{TableName: "info", Err: err}
	}

	if err := writeFloatArray(group, "detector_bounds", []uint{2, 3}, flattenBounds(attrs.DetectorBounds)); err != nil {
		return err
	}
	moduleFlat := make([]float64, 0, len(attrs.ModuleBounds)*6)
	for _, bounds := range attrs.ModuleBounds {
		moduleFlat = append(moduleFlat, flattenBounds(bounds)...)
	}
	if err := writeFloatArray(group, "module_bounds", []uint{uint(len(attrs.ModuleBounds)), 2, 3}, moduleFlat); err != nil {
		return err
	}

	for _, name := range lutNames {
		if err := writeLUTRecord(group, records[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeLUTRecord(group *hdf5.Group, rec LUTRecord) error {
	sub, err := createSubGroup(group, rec.Name)
	if err != nil {
		return err
	}
	defer sub.Close()

	meta := LUTMetaHDF5{
		dtype:      convertToHdf5String(rec.Dtype),
		nDims:      int32(len(rec.Ranges)),
		nShape:     int32(len(rec.ValueShape)),
		defaultVal: rec.Default,
	}
	if len(rec.Ranges) > maxLUTDims || len(rec.ValueShape) > maxLUTDims {
		return fmt.Errorf("lookup table %q exceeds %d dimensions", rec.Name, maxLUTDims)
	}
	for i, r := range rec.Ranges {
		meta.mins[i] = int32(r.Min)
		meta.maxs[i] = int32(r.Max)
	}
	for i, n := range rec.ValueShape {
		meta.shape[i] = int32(n)
	}

	metaTable, err := createTable(sub, "meta", LUTMetaHDF5{})
	if err != nil {
		return err
	}
	defer metaTable.Close()
	if err := writeEntryToTable(metaTable, meta, 0); err != nil {
		return &ErrCreateTable{TableName: rec.Name + "/meta", Err: err}
	}
	return writeFloatArray(sub, "data", []uint{uint(len(rec.Data))}, rec.Data)
}

func flattenBounds(bounds [2][3]float64) []float64 {
	flat := make([]float64, 0, 6)
	for _, corner := range bounds {
		flat = append(flat, corner[0], corner[1], corner[2])
	}
	return flat
}
