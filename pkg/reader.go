package geometry

import (
	"fmt"

	hdf5 "github.com/next-exp/hdf5-go"
)

func (s *HDF5Store) ReadGeometry() (*GeometryState, error) {
	hdf5.SetStringLength(STRLEN)

	logger.Info(fmt.Sprintf("Reading geometry from %s", s.Filename), "hdf5reader")
	f, err := openFileReadOnly(s.Filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	group, err := f.OpenGroup(s.Path)
	if err != nil {
		return nil, &ErrReadDataset{Name: s.Path, Err: err}
	}
	defer group.Close()

	infoRows, err := readTable[GeometryInfoHDF5](group, "info")
	if err != nil {
		return nil, err
	}
	if len(infoRows) != 1 {
		return nil, fmt.Errorf("geometry group %q: expected one info row, found %d", s.Path, len(infoRows))
	}
	info := infoRows[0]

	attrs := GeometryAttrs{
		ClassVersion:     hdf5StringToGo(info.classVersion),
		BeamDirection:    hdf5StringToGo(info.beamDirection),
		DriftDirection:   hdf5StringToGo(info.driftDirection),
		TileLayoutFile:   hdf5StringToGo(info.tileLayoutFile),
		DetectorFile:     hdf5StringToGo(info.detectorFile),
		LightLayoutFile:  hdf5StringToGo(info.lightLayoutFile),
		PixelPitch:       info.pixelPitch,
		CathodeThickness: info.cathodeThickness,
		MaxDriftDistance: info.maxDriftDistance,
	}

	_, detFlat, err := readFloatArray(group, "detector_bounds")
	if err != nil {
		return nil, err
	}
	attrs.DetectorBounds, err = unflattenBounds(detFlat)
	if err != nil {
		return nil, &ErrReadDataset{Name: "detector_bounds", Err: err}
	}

	moduleDims, moduleFlat, err := readFloatArray(group, "module_bounds")
	if err != nil {
		return nil, err
	}
	if len(moduleDims) != 3 || int32(moduleDims[0]) != info.nModules {
		return nil, &ErrReadDataset{Name: "module_bounds",
			Err: fmt.Errorf("shape %v does not match %d modules", moduleDims, info.nModules)}
	}
	for m := 0; m < int(info.nModules); m++ {
		bounds, err := unflattenBounds(moduleFlat[m*6 : (m+1)*6])
		if err != nil {
			return nil, &ErrReadDataset{Name: "module_bounds", Err: err}
		}
		attrs.ModuleBounds = append(attrs.ModuleBounds, bounds)
	}

	records := make(map[string]LUTRecord, len(lutNames))
	for _, name := range lutNames {
		rec, err := readLUTRecord(group, name)
		if err != nil {
			return nil, err
		}
		records[name] = rec
	}
	return restoreGeometry(attrs, records)
}

func readLUTRecord(group *hdf5.Group, name string) (LUTRecord, error) {
	sub, err := group.OpenGroup(name)
	if err != nil {
		return LUTRecord{}, &ErrReadDataset{Name: name, Err: err}
	}
	defer sub.Close()

	metas, err := readTable[LUTMetaHDF5](sub, "meta")
	if err != nil {
		return LUTRecord{}, err
	}
	if len(metas) != 1 {
		return LUTRecord{}, &ErrReadDataset{Name: name + "/meta",
			Err: fmt.Errorf("expected one meta row, found %d", len(metas))}
	}
	meta := metas[0]
	if meta.nDims < 1 || meta.nDims > maxLUTDims || meta.nShape < 0 || meta.nShape > maxLUTDims {
		return LUTRecord{}, &ErrReadDataset{Name: name + "/meta",
			Err: fmt.Errorf("corrupt dimensions (%d key dims, %d value dims)", meta.nDims, meta.nShape)}
	}

	rec := LUTRecord{
		Name:    name,
		Dtype:   hdf5StringToGo(meta.dtype),
		Default: meta.defaultVal,
	}
	for d := 0; d < int(meta.nDims); d++ {
		rec.Ranges = append(rec.Ranges, Range{Min: int(meta.mins[d]), Max: int(meta.maxs[d])})
	}
	for d := 0; d < int(meta.nShape); d++ {
		rec.ValueShape = append(rec.ValueShape, int(meta.shape[d]))
	}

	_, rec.Data, err = readFloatArray(sub, "data")
	if err != nil {
		return LUTRecord{}, err
	}
	return rec, nil
}

func unflattenBounds(flat []float64) ([2][3]float64, error) {
	var bounds [2][3]float64
	if len(flat) != 6 {
		return bounds, fmt.Errorf("expected 6 elements, found %d", len(flat))
	}
	bounds[0] = [3]float64{flat[0], flat[1], flat[2]}
	bounds[1] = [3]float64{flat[3], flat[4], flat[5]}
	return bounds, nil
}
