package geometry

import (
	"fmt"
	"math"
)

// InFiducial reports, for each xyz point [mm], whether it lies inside the
// fiducial volume. Each module contributes two drift sub-volumes, one per
// anode, derived fresh from the module's readout bounds: the positive
// region spans [maxX - maxDrift, maxX] (anode at maxX), the negative one
// [minX, minX + maxDrift] (anode at minX). cathodeMargin shrinks the
// cathode-facing drift boundary, anodeMargin the anode-facing one, and
// fieldCageMargin both transverse boundaries. A point is fiducial if it is
// inside any shrunk sub-volume; with all margins zero the unshrunk boundary
// itself counts as inside.
func (g *GeometryState) InFiducial(points [][3]float64, cathodeMargin, fieldCageMargin, anodeMargin float64) []bool {
	out := make([]bool, len(points))
	for _, bounds := range g.ModuleBounds {
		positive := bounds
		positive[0][0] = bounds[1][0] - g.MaxDriftDistance
		negative := bounds
		negative[1][0] = bounds[0][0] + g.MaxDriftDistance

		posMin := [3]float64{positive[0][0] + cathodeMargin, positive[0][1] + fieldCageMargin, positive[0][2] + fieldCageMargin}
		posMax := [3]float64{positive[1][0] - anodeMargin, positive[1][1] - fieldCageMargin, positive[1][2] - fieldCageMargin}
		negMin := [3]float64{negative[0][0] + anodeMargin, negative[0][1] + fieldCageMargin, negative[0][2] + fieldCageMargin}
		negMax := [3]float64{negative[1][0] - cathodeMargin, negative[1][1] - fieldCageMargin, negative[1][2] - fieldCageMargin}

		for i, p := range points {
			if out[i] {
				continue
			}
			out[i] = insideBox(p, posMin, posMax) || insideBox(p, negMin, negMax)
		}
	}
	return out
}

func insideBox(p, lo, hi [3]float64) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < lo[axis] || p[axis] > hi[axis] {
			return false
		}
	}
	return true
}

// DriftCoordinate projects measured drift distances [mm] onto the drift
// axis: for each (io group, io channel) the tile's anode coordinate plus
// its drift polarity times the distance. The three slices must have equal
// length.
func (g *GeometryState) DriftCoordinate(ioGroups, ioChannels []int, drifts []float64) ([]float64, error) {
	if len(ioGroups) != len(ioChannels) || len(ioGroups) != len(drifts) {
		return nil, fmt.Errorf("drift coordinate: mismatched lengths (%d io groups, %d io channels, %d drifts)",
			len(ioGroups), len(ioChannels), len(drifts))
	}
	out := make([]float64, len(drifts))
	for i := range drifts {
		tile, err := g.TileID.GetScalar([]int{ioGroups[i], ioChannels[i]})
		if err != nil {
			return nil, err
		}
		anode, err := g.AnodeDriftCoordinate.GetScalar([]int{int(tile)})
		if err != nil {
			return nil, err
		}
		dir, err := g.DriftDir.GetScalar([]int{int(tile)})
		if err != nil {
			return nil, err
		}
		out[i] = float64(anode) + float64(dir)*drifts[i]
	}
	return out, nil
}

// SolidAngle computes the solid angle [sr] of each listed light detector as
// seen from each point, assuming the detector face is oriented along the
// drift axis. Occlusion by the cathode or field cage is not considered.
// Returns one row per point, one column per (tpc id, det id) pair.
func (g *GeometryState) SolidAngle(points [][3]float64, tpcIDs, detIDs []int) ([][]float64, error) {
	if len(tpcIDs) != len(detIDs) {
		return nil, fmt.Errorf("solid angle: %d tpc ids but %d det ids", len(tpcIDs), len(detIDs))
	}
	lo := make([][3]float64, len(tpcIDs))
	hi := make([][3]float64, len(tpcIDs))
	for j := range tpcIDs {
		corners, err := g.DetBounds.Get([]int{tpcIDs[j], detIDs[j]})
		if err != nil {
			return nil, err
		}
		lo[j] = [3]float64{float64(corners[0]), float64(corners[1]), float64(corners[2])}
		hi[j] = [3]float64{float64(corners[3]), float64(corners[4]), float64(corners[5])}
	}
	out := make([][]float64, len(points))
	for i, p := range points {
		row := make([]float64, len(tpcIDs))
		for j := range tpcIDs {
			row[j] = rectSolidAngle(p, lo[j], hi[j])
		}
		out[i] = row
	}
	return out, nil
}

// rectSolidAngleSign encodes whether a coordinate projects inside the
// rectangle extent on one axis. Inside: both edge terms add. Outside: the
// near edge term subtracts from the far one, shrinking the angle as the
// point moves off-axis.
func rectSolidAngleSign(coord, rectMin, rectMax float64) (signMin, signMax float64) {
	if coord >= rectMin && coord <= rectMax {
		return 1, 1
	}
	if math.Abs(rectMin-coord) < math.Abs(rectMax-coord) {
		return -1, 1
	}
	return 1, -1
}

// rectSolidAngle is the closed-form solid angle of the axis-aligned
// rectangle spanning the y/z extent of the box [lo,hi], placed at the box
// midplane in x, as seen from p. Standard four-corner arctangent
// decomposition.
func rectSolidAngle(p, lo, hi [3]float64) float64 {
	detX := (lo[0] + hi[0]) / 2
	ySignMin, ySignMax := rectSolidAngleSign(p[1], lo[1], hi[1])
	zSignMin, zSignMax := rectSolidAngleSign(p[2], lo[2], hi[2])

	omega := 0.0
	yEdges := [2]struct{ coord, sign float64 }{{hi[1], ySignMax}, {lo[1], ySignMin}}
	zEdges := [2]struct{ coord, sign float64 }{{hi[2], zSignMax}, {lo[2], zSignMin}}
	for _, ye := range yEdges {
		for _, ze := range zEdges {
			dx := p[0] - detX
			dy := p[1] - ye.coord
			dz := p[2] - ze.coord
			d := math.Sqrt(dx*dx + dy*dy + dz*dz)
			omega += ye.sign * ze.sign * math.Atan2(math.Abs(dy)*math.Abs(dz), math.Abs(dx)*d)
		}
	}
	return omega
}
