package geometry

import "fmt"

// GeometryAttrs are the scalar attributes persisted alongside the lookup
// tables.
type GeometryAttrs struct {
	ClassVersion     string
	BeamDirection    string
	DriftDirection   string
	TileLayoutFile   string
	DetectorFile     string
	LightLayoutFile  string
	PixelPitch       float64
	CathodeThickness float64
	MaxDriftDistance float64
	DetectorBounds   [2][3]float64
	ModuleBounds     [][2][3]float64
}

// GeometryStore is the persistence collaborator for geometry snapshots.
// The geometry code treats it as an opaque named store: one write of the
// complete snapshot, any number of reads.
type GeometryStore interface {
	HasGeometry() (bool, error)
	WriteGeometry(*GeometryState) error
	ReadGeometry() (*GeometryState, error)
}

// Names of the persisted lookup tables, in write order.
var lutNames = []string{
	"pixel_coordinates_2D",
	"tile_id",
	"anode_drift_coordinate",
	"drift_dir",
	"tpc_id",
	"det_id",
	"det_bounds",
}

// snapshotGeometry flattens a geometry state into attributes plus one
// record per lookup table.
func snapshotGeometry(g *GeometryState) (GeometryAttrs, map[string]LUTRecord) {
	attrs := GeometryAttrs{
		ClassVersion:     g.ClassVersion,
		BeamDirection:    g.BeamDirection,
		DriftDirection:   g.DriftDirection,
		TileLayoutFile:   g.TileLayoutFile,
		DetectorFile:     g.DetectorFile,
		LightLayoutFile:  g.LightLayoutFile,
		PixelPitch:       g.PixelPitch,
		CathodeThickness: g.CathodeThickness,
		MaxDriftDistance: g.MaxDriftDistance,
		DetectorBounds:   g.DetectorBounds,
		ModuleBounds:     append([][2][3]float64(nil), g.ModuleBounds...),
	}
	records := map[string]LUTRecord{
		"pixel_coordinates_2D":   g.PixelCoordinates.Record(),
		"tile_id":                g.TileID.Record(),
		"anode_drift_coordinate": g.AnodeDriftCoordinate.Record(),
		"drift_dir":              g.DriftDir.Record(),
		"tpc_id":                 g.TPCID.Record(),
		"det_id":                 g.DetID.Record(),
		"det_bounds":             g.DetBounds.Record(),
	}
	return attrs, records
}

// restoreGeometry rebuilds a geometry state from persisted attributes and
// lookup table records, enforcing schema compatibility.
func restoreGeometry(attrs GeometryAttrs, records map[string]LUTRecord) (*GeometryState, error) {
	if err := checkCompatVersion("persisted geometry", ClassVersion, attrs.ClassVersion); err != nil {
		return nil, err
	}
	for _, name := range lutNames {
		if _, ok := records[name]; !ok {
			return nil, fmt.Errorf("persisted geometry is missing lookup table %q", name)
		}
	}
	pixel, err := LUTFromRecord[float32](records["pixel_coordinates_2D"])
	if err != nil {
		return nil, err
	}
	tile, err := LUTFromRecord[int32](records["tile_id"])
	if err != nil {
		return nil, err
	}
	anode, err := LUTFromRecord[float32](records["anode_drift_coordinate"])
	if err != nil {
		return nil, err
	}
	driftDir, err := LUTFromRecord[int8](records["drift_dir"])
	if err != nil {
		return nil, err
	}
	tpcID, err := LUTFromRecord[int32](records["tpc_id"])
	if err != nil {
		return nil, err
	}
	detID, err := LUTFromRecord[int32](records["det_id"])
	if err != nil {
		return nil, err
	}
	detBounds, err := LUTFromRecord[float32](records["det_bounds"])
	if err != nil {
		return nil, err
	}
	return &GeometryState{
		ClassVersion:         attrs.ClassVersion,
		BeamDirection:        attrs.BeamDirection,
		DriftDirection:       attrs.DriftDirection,
		TileLayoutFile:       attrs.TileLayoutFile,
		DetectorFile:         attrs.DetectorFile,
		LightLayoutFile:      attrs.LightLayoutFile,
		PixelPitch:           attrs.PixelPitch,
		CathodeThickness:     attrs.CathodeThickness,
		MaxDriftDistance:     attrs.MaxDriftDistance,
		DetectorBounds:       attrs.DetectorBounds,
		ModuleBounds:         attrs.ModuleBounds,
		PixelCoordinates:     pixel,
		TileID:               tile,
		AnodeDriftCoordinate: anode,
		DriftDir:             driftDir,
		TPCID:                tpcID,
		DetID:                detID,
		DetBounds:            detBounds,
	}, nil
}

// MemoryStore keeps the serialized snapshot in memory. It goes through the
// same record round-trip as the HDF5 store; used in tests and by
// cooperating in-process consumers.
type MemoryStore struct {
	attrs   *GeometryAttrs
	records map[string]LUTRecord
	Writes  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) HasGeometry() (bool, error) {
	return s.attrs != nil, nil
}

func (s *MemoryStore) WriteGeometry(g *GeometryState) error {
	attrs, records := snapshotGeometry(g)
	s.attrs = &attrs
	s.records = records
	s.Writes++
	return nil
}

func (s *MemoryStore) ReadGeometry() (*GeometryState, error) {
	if s.attrs == nil {
		return nil, fmt.Errorf("memory store holds no geometry")
	}
	return restoreGeometry(*s.attrs, s.records)
}
