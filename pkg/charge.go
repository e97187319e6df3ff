package geometry

import (
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ChargeGeometry holds everything derived from the charge readout
// description documents: the electronics-to-position lookup tables and the
// aggregate detector extents. All lengths in millimeters.
type ChargeGeometry struct {
	PixelPitch       float64
	MaxDriftDistance float64
	CathodeThickness float64
	ModuleBounds     [][2][3]float64
	DetectorBounds   [2][3]float64

	PixelCoordinates     *LUT[float32] // (io_group, io_channel, chip, channel) -> (z, y)
	TileID               *LUT[int32]   // (io_group, io_channel) -> tile id
	AnodeDriftCoordinate *LUT[float32] // (tile id) -> anode x
	DriftDirection       *LUT[int8]    // (tile id) -> ±1
}

type zyExtrema struct {
	minZ, maxZ float64
	minY, maxY float64
	set        bool
}

func (e *zyExtrema) update(z, y float64) {
	if !e.set {
		e.minZ, e.maxZ, e.minY, e.maxY = z, z, y, y
		e.set = true
		return
	}
	e.minZ = math.Min(e.minZ, z)
	e.maxZ = math.Max(e.maxZ, z)
	e.minY = math.Min(e.minY, y)
	e.maxY = math.Max(e.maxY, y)
}

// BuildChargeGeometry populates the charge readout lookup tables from a
// tile layout and a detector layout.
//
// io groups are globally unique across modules: a tile layout addresses
// io groups 1..N within one module, and module m shifts them by
// (m-1)*N. Tile ids are globalized the same way.
func BuildChargeGeometry(tiles *TileLayout, det *DetectorLayout) (*ChargeGeometry, error) {
	pitch := tiles.PixelPitch
	numTiles := len(tiles.TileChipToIO)
	moduleIDs := maps.Keys(det.ModuleToIOGroups)
	slices.Sort(moduleIDs)
	numModules := len(moduleIDs)
	for _, id := range moduleIDs {
		if id < 1 || id > len(det.ModuleCenters) {
			return nil, fmt.Errorf("module id %d has no matching entry in tpc_offsets", id)
		}
	}

	tileIDs := maps.Keys(tiles.TileChipToIO)
	slices.Sort(tileIDs)
	for i, tile := range tileIDs {
		// Global tile ids are local id + (module-1)*numTiles, which only
		// stays collision-free for contiguous local ids starting at 1.
		if tile != i+1 {
			return nil, fmt.Errorf("tile ids must be contiguous from 1, found %v", tileIDs)
		}
		if len(tiles.TilePositions[tile]) != 3 || len(tiles.TileOrientations[tile]) != 3 {
			return nil, fmt.Errorf("tile %d is missing a position or orientation", tile)
		}
	}

	// Local grid extent: chip/channel positions are grid indices, scaled by
	// the pitch and centered on the tile.
	chipChannels := maps.Keys(tiles.ChipChannelToPosition)
	slices.Sort(chipChannels)
	first := tiles.ChipChannelToPosition[chipChannels[0]]
	if len(first) != 2 {
		return nil, fmt.Errorf("chip_channel_to_position entries must be 2-vectors")
	}
	minZ, maxZ := first[0]*pitch, first[0]*pitch
	minY, maxY := first[1]*pitch, first[1]*pitch
	for _, cc := range chipChannels {
		pos := tiles.ChipChannelToPosition[cc]
		if len(pos) != 2 {
			return nil, fmt.Errorf("chip_channel_to_position entry %d must be a 2-vector", cc)
		}
		minZ = math.Min(minZ, pos[0]*pitch)
		maxZ = math.Max(maxZ, pos[0]*pitch)
		minY = math.Min(minY, pos[1]*pitch)
		maxY = math.Max(maxY, pos[1]*pitch)
	}
	zSize := maxZ - minZ + pitch
	ySize := maxY - minY + pitch

	// Pre-pass over every module to size the key ranges.
	var ioGroups, ioChannels, chips, channels []int
	for _, moduleID := range moduleIDs {
		perModule := len(det.ModuleToIOGroups[moduleID])
		for _, tile := range tileIDs {
			for _, packed := range tiles.TileChipToIO[tile] {
				ioGroups = append(ioGroups, packed/1000+(moduleID-1)*perModule)
				ioChannels = append(ioChannels, packed%1000)
			}
		}
	}
	for _, cc := range chipChannels {
		chips = append(chips, cc/1000)
		channels = append(channels, cc%1000)
	}

	pixelLUT := NewLUT[float32]("pixel_coordinates_2D", 0, []Range{
		{slices.Min(ioGroups), slices.Max(ioGroups)},
		{slices.Min(ioChannels), slices.Max(ioChannels)},
		{slices.Min(chips), slices.Max(chips)},
		{slices.Min(channels), slices.Max(channels)},
	}, 2)
	tileLUT := NewLUT[int32]("tile_id", -1, []Range{
		{slices.Min(ioGroups), slices.Max(ioGroups)},
		{slices.Min(ioChannels), slices.Max(ioChannels)},
	})
	tileRange := []Range{{1, numTiles * numModules}}
	anodeLUT := NewLUT[float32]("anode_drift_coordinate", 0, tileRange)
	driftDirLUT := NewLUT[int8]("drift_dir", 0, tileRange)

	// Anode drift coordinate and drift polarity per global tile id.
	for globalTile := 1; globalTile <= numTiles*numModules; globalTile++ {
		localTile := (globalTile-1)%numTiles + 1
		modIdx := (globalTile - 1) / numTiles
		anode := tiles.TilePositions[localTile][0] + det.ModuleCenters[moduleIDs[modIdx]-1][0]
		if err := anodeLUT.Set([]int{globalTile}, float32(anode)); err != nil {
			return nil, err
		}
		dir := int8(tiles.TileOrientations[localTile][0])
		if err := driftDirLUT.Set([]int{globalTile}, dir); err != nil {
			return nil, err
		}
	}

	// Populate the pixel and tile tables; track per-io-group extrema for
	// the module bounds afterwards.
	extremaByIOG := make(map[int]*zyExtrema)
	anodeByIOG := make(map[int]float64)
	for _, moduleID := range moduleIDs {
		perModule := len(det.ModuleToIOGroups[moduleID])
		center := det.ModuleCenters[moduleID-1]
		for _, tile := range tileIDs {
			orientation := tiles.TileOrientations[tile]
			position := tiles.TilePositions[tile]
			globalTile := tile + (moduleID-1)*numTiles

			chipsOfTile := maps.Keys(tiles.TileChipToIO[tile])
			slices.Sort(chipsOfTile)
			for _, chip := range chipsOfTile {
				packed := tiles.TileChipToIO[tile][chip]
				ioGroup := packed/1000 + (moduleID-1)*perModule
				ioChannel := packed % 1000
				if err := tileLUT.Set([]int{ioGroup, ioChannel}, int32(globalTile)); err != nil {
					return nil, err
				}
				anode, err := anodeLUT.GetScalar([]int{globalTile})
				if err != nil {
					return nil, err
				}
				anodeByIOG[ioGroup] = float64(anode)
			}

			for _, cc := range chipChannels {
				chip := cc / 1000
				channel := cc % 1000
				packed, ok := tiles.TileChipToIO[tile][chip]
				if !ok {
					continue
				}
				ioGroup := packed/1000 + (moduleID-1)*perModule
				ioChannel := packed % 1000

				pos := tiles.ChipChannelToPosition[cc]
				z := pos[0]*pitch - zSize/2 + pitch/2
				y := pos[1]*pitch - ySize/2 + pitch/2
				// Tile orientation applies as independent sign flips.
				z *= orientation[2]
				y *= orientation[1]
				z += position[2] + center[2]
				y += position[1] + center[1]

				key := []int{ioGroup, ioChannel, chip, channel}
				if err := pixelLUT.Set(key, float32(z), float32(y)); err != nil {
					return nil, err
				}
				ext, ok := extremaByIOG[ioGroup]
				if !ok {
					ext = &zyExtrema{}
					extremaByIOG[ioGroup] = ext
				}
				ext.update(z, y)
			}
		}
	}

	geo := &ChargeGeometry{
		PixelPitch:           pitch,
		MaxDriftDistance:     det.DriftLength,
		PixelCoordinates:     pixelLUT,
		TileID:               tileLUT,
		AnodeDriftCoordinate: anodeLUT,
		DriftDirection:       driftDirLUT,
	}

	// Module readout bounds: transverse extent from the pixel extrema of
	// the module's io groups padded by half a pitch (pixels have area), and
	// drift extent from the anode coordinates of those io groups.
	for _, moduleID := range moduleIDs {
		var bounds [2][3]float64
		started := false
		for _, iog := range det.ModuleToIOGroups[moduleID] {
			ext, ok := extremaByIOG[iog]
			if !ok {
				return nil, fmt.Errorf("module %d lists io group %d but no pixels map to it", moduleID, iog)
			}
			anode, ok := anodeByIOG[iog]
			if !ok {
				return nil, fmt.Errorf("module %d lists io group %d but no tile maps to it", moduleID, iog)
			}
			if !started {
				bounds[0] = [3]float64{anode, ext.minY - pitch/2, ext.minZ - pitch/2}
				bounds[1] = [3]float64{anode, ext.maxY + pitch/2, ext.maxZ + pitch/2}
				started = true
				continue
			}
			bounds[0][0] = math.Min(bounds[0][0], anode)
			bounds[1][0] = math.Max(bounds[1][0], anode)
			bounds[0][1] = math.Min(bounds[0][1], ext.minY-pitch/2)
			bounds[1][1] = math.Max(bounds[1][1], ext.maxY+pitch/2)
			bounds[0][2] = math.Min(bounds[0][2], ext.minZ-pitch/2)
			bounds[1][2] = math.Max(bounds[1][2], ext.maxZ+pitch/2)
		}
		geo.ModuleBounds = append(geo.ModuleBounds, bounds)
	}

	geo.DetectorBounds = geo.ModuleBounds[0]
	for _, bounds := range geo.ModuleBounds[1:] {
		for axis := 0; axis < 3; axis++ {
			geo.DetectorBounds[0][axis] = math.Min(geo.DetectorBounds[0][axis], bounds[0][axis])
			geo.DetectorBounds[1][axis] = math.Max(geo.DetectorBounds[1][axis], bounds[1][axis])
		}
	}

	geo.CathodeThickness = cathodeThickness(det, geo.DetectorBounds, geo.MaxDriftDistance)
	return geo, nil
}

// cathodeThickness derives the cathode thickness from the gap between the
// nominal drift length and the anode-to-cathode span. Cathode planes sit at
// the module center drift coordinates.
func cathodeThickness(det *DetectorLayout, detectorBounds [2][3]float64, maxDrift float64) float64 {
	anodeToCathode := math.Inf(1)
	for _, center := range det.ModuleCenters {
		anodeToCathode = math.Min(anodeToCathode, math.Abs(detectorBounds[0][0]-center[0]))
	}
	if maxDrift < anodeToCathode {
		return 2 * (anodeToCathode - maxDrift)
	}
	return 0
}
