package geometry

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LightGeometry holds the light readout lookup tables. Digitizer addressing
// is (adc index, channel index); detectors are identified by (tpc id,
// det id). All lengths in millimeters.
type LightGeometry struct {
	TPCID     *LUT[int32]   // (adc, channel) -> tpc id
	DetID     *LUT[int32]   // (adc, channel) -> det id
	DetBounds *LUT[float32] // (tpc id, det id) -> min/max xyz corners
}

// BuildLightGeometry populates the light readout lookup tables from a light
// layout document. A detector's bounding box is its TPC center plus its own
// center plus the min/max corners of its shape.
func BuildLightGeometry(layout *LightLayout) (*LightGeometry, error) {
	tpcIDs := maps.Keys(layout.TPCCenters)
	slices.Sort(tpcIDs)
	detIDs := maps.Keys(layout.DetCenters)
	slices.Sort(detIDs)

	type channelEntry struct {
		adc, channel, tpc, det int
	}
	type boundsEntry struct {
		tpc, det int
		corners  [2][3]float64
	}
	var chanEntries []channelEntry
	var boundsEntries []boundsEntry

	for _, tpc := range tpcIDs {
		for _, det := range detIDs {
			adc, ok := layout.DetADC[tpc][det]
			if !ok {
				return nil, fmt.Errorf("light layout: det_adc has no entry for tpc %d det %d", tpc, det)
			}
			channels := layout.DetChan[tpc][det]
			if len(channels) == 0 {
				continue
			}
			for _, ch := range channels {
				chanEntries = append(chanEntries, channelEntry{adc: adc, channel: ch, tpc: tpc, det: det})
			}

			geomID, ok := layout.DetGeom[det]
			if !ok {
				return nil, fmt.Errorf("light layout: det_geom has no entry for det %d", det)
			}
			shape, ok := layout.Shapes[geomID]
			if !ok {
				return nil, fmt.Errorf("light layout: geom has no entry for shape %d", geomID)
			}
			tpcCenter := layout.TPCCenters[tpc]
			detCenter := layout.DetCenters[det]
			var corners [2][3]float64
			for axis := 0; axis < 3; axis++ {
				corners[0][axis] = tpcCenter[axis] + detCenter[axis] + shape.Min[axis]
				corners[1][axis] = tpcCenter[axis] + detCenter[axis] + shape.Max[axis]
			}
			boundsEntries = append(boundsEntries, boundsEntry{tpc: tpc, det: det, corners: corners})
		}
	}
	if len(chanEntries) == 0 {
		return nil, fmt.Errorf("light layout: no digitizer channels mapped")
	}

	// Both (adc, channel) tables share one key domain, sized to the
	// populated entries.
	adcMin, adcMax := chanEntries[0].adc, chanEntries[0].adc
	chanMin, chanMax := chanEntries[0].channel, chanEntries[0].channel
	tpcMin, tpcMax := chanEntries[0].tpc, chanEntries[0].tpc
	detMin, detMax := chanEntries[0].det, chanEntries[0].det
	for _, e := range chanEntries {
		adcMin, adcMax = min(adcMin, e.adc), max(adcMax, e.adc)
		chanMin, chanMax = min(chanMin, e.channel), max(chanMax, e.channel)
		tpcMin, tpcMax = min(tpcMin, e.tpc), max(tpcMax, e.tpc)
		detMin, detMax = min(detMin, e.det), max(detMax, e.det)
	}

	adcChanRanges := []Range{{adcMin, adcMax}, {chanMin, chanMax}}
	tpcLUT := NewLUT[int32]("tpc_id", -1, adcChanRanges)
	detLUT := NewLUT[int32]("det_id", -1, adcChanRanges)
	boundsLUT := NewLUT[float32]("det_bounds", 0, []Range{{tpcMin, tpcMax}, {detMin, detMax}}, 2, 3)

	for _, e := range chanEntries {
		key := []int{e.adc, e.channel}
		if err := tpcLUT.Set(key, int32(e.tpc)); err != nil {
			return nil, err
		}
		if err := detLUT.Set(key, int32(e.det)); err != nil {
			return nil, err
		}
	}
	for _, e := range boundsEntries {
		flat := make([]float32, 0, 6)
		for _, corner := range e.corners {
			for _, v := range corner {
				flat = append(flat, float32(v))
			}
		}
		if err := boundsLUT.Set([]int{e.tpc, e.det}, flat...); err != nil {
			return nil, err
		}
	}

	return &LightGeometry{TPCID: tpcLUT, DetID: detLUT, DetBounds: boundsLUT}, nil
}
