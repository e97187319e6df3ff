package geometry

import (
	"fmt"
)

// ClassVersion pins the persisted geometry schema. Snapshots written by a
// different major version are rejected on load.
const ClassVersion = "0.1.0"

// GeometryState is the complete detector geometry: scalar attributes plus
// the seven lookup tables, built once per run and never mutated afterwards.
// All lengths in millimeters. Queries live in queries.go.
type GeometryState struct {
	ClassVersion   string
	BeamDirection  string
	DriftDirection string

	TileLayoutFile  string
	DetectorFile    string
	LightLayoutFile string

	PixelPitch       float64
	CathodeThickness float64
	MaxDriftDistance float64
	DetectorBounds   [2][3]float64
	ModuleBounds     [][2][3]float64

	PixelCoordinates     *LUT[float32] // (io_group, io_channel, chip, channel) -> (z, y)
	TileID               *LUT[int32]   // (io_group, io_channel) -> tile id
	AnodeDriftCoordinate *LUT[float32] // (tile id) -> anode x
	DriftDir             *LUT[int8]    // (tile id) -> ±1
	TPCID                *LUT[int32]   // (adc, channel) -> tpc id
	DetID                *LUT[int32]   // (adc, channel) -> det id
	DetBounds            *LUT[float32] // (tpc id, det id) -> min/max xyz
}

// BuildGeometry parses the three geometry description documents named in
// the configuration and runs the charge and light builders. Any failure
// aborts the build; nothing is persisted on error.
func BuildGeometry(config Configuration) (*GeometryState, error) {
	logger.Info(fmt.Sprintf("Loading charge geometry from %s", config.TileLayoutFile), "geometry")
	tiles, err := LoadTileLayout(config.TileLayoutFile)
	if err != nil {
		return nil, err
	}
	det, err := LoadDetectorLayout(config.DetectorFile)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("Loading light geometry from %s", config.LightLayoutFile), "geometry")
	light, err := LoadLightLayout(config.LightLayoutFile)
	if err != nil {
		return nil, err
	}

	charge, err := BuildChargeGeometry(tiles, det)
	if err != nil {
		return nil, fmt.Errorf("building charge geometry: %w", err)
	}
	lg, err := BuildLightGeometry(light)
	if err != nil {
		return nil, fmt.Errorf("building light geometry: %w", err)
	}

	state := &GeometryState{
		ClassVersion:         ClassVersion,
		BeamDirection:        config.BeamDirection,
		DriftDirection:       config.DriftDirection,
		TileLayoutFile:       config.TileLayoutFile,
		DetectorFile:         config.DetectorFile,
		LightLayoutFile:      config.LightLayoutFile,
		PixelPitch:           charge.PixelPitch,
		CathodeThickness:     charge.CathodeThickness,
		MaxDriftDistance:     charge.MaxDriftDistance,
		DetectorBounds:       charge.DetectorBounds,
		ModuleBounds:         charge.ModuleBounds,
		PixelCoordinates:     charge.PixelCoordinates,
		TileID:               charge.TileID,
		AnodeDriftCoordinate: charge.AnodeDriftCoordinate,
		DriftDir:             charge.DriftDirection,
		TPCID:                lg.TPCID,
		DetID:                lg.DetID,
		DetBounds:            lg.DetBounds,
	}
	logger.Info(fmt.Sprintf("Geometry LUT(s) size: %.2fMB", float64(state.LUTBytes())/1024/1024), "geometry")
	return state, nil
}

// LoadOrBuildGeometry returns the persisted geometry snapshot if the store
// already holds one, and otherwise builds it and persists it. Idempotent:
// a cooperating process that arrives after another one persisted the
// snapshot simply loads it.
func LoadOrBuildGeometry(config Configuration, store GeometryStore) (*GeometryState, error) {
	ok, err := store.HasGeometry()
	if err != nil {
		return nil, err
	}
	if ok {
		logger.Info("Loading persisted geometry", "geometry")
		return store.ReadGeometry()
	}
	state, err := BuildGeometry(config)
	if err != nil {
		return nil, err
	}
	if err := store.WriteGeometry(state); err != nil {
		return nil, err
	}
	return state, nil
}

// LUTBytes is the summed backing-array footprint of all lookup tables.
func (g *GeometryState) LUTBytes() int {
	return g.PixelCoordinates.NBytes() + g.TileID.NBytes() +
		g.AnodeDriftCoordinate.NBytes() + g.DriftDir.NBytes() +
		g.TPCID.NBytes() + g.DetID.NBytes() + g.DetBounds.NBytes()
}
