package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLUTDefaultFill checks that keys inside the allocated ranges read
// back the default fill value until they are set.
func TestLUTDefaultFill(t *testing.T) {
	lut := NewLUT[int32]("tile_id", -1, []Range{{1, 2}, {1, 4}})

	v, err := lut.GetScalar([]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)

	require.NoError(t, lut.Set([]int{1, 1}, 7))
	v, err = lut.GetScalar([]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	// Neighbouring keys stay at the default.
	v, err = lut.GetScalar([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
	assert.Equal(t, int32(-1), lut.Default())
}

// TestLUTVectorValues exercises tables whose values are fixed-shape
// vectors, including multi-dimensional value shapes.
func TestLUTVectorValues(t *testing.T) {
	pixels := NewLUT[float32]("pixel_coordinates_2D", 0, []Range{{0, 1}}, 2)
	require.NoError(t, pixels.Set([]int{0}, -2, 2))

	v, err := pixels.Get([]int{0})
	require.NoError(t, err)
	assert.Equal(t, []float32{-2, 2}, v)

	// The unset key reads back a default-filled vector.
	v, err = pixels.Get([]int{1})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, v)

	// GetScalar is only valid on scalar-valued tables.
	_, err = pixels.GetScalar([]int{0})
	assert.Error(t, err)

	// A 2x3 bounding box flattens to six elements, innermost fastest.
	bounds := NewLUT[float32]("det_bounds", 0, []Range{{0, 0}, {0, 0}}, 2, 3)
	require.NoError(t, bounds.Set([]int{0, 0}, -1, -2, -3, 1, 2, 3))
	v, err = bounds.Get([]int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, -2, -3, 1, 2, 3}, v)
}

// TestLUTKeyOutOfRange checks that keys outside the allocated ranges are
// rejected with a typed error on both read and write.
func TestLUTKeyOutOfRange(t *testing.T) {
	lut := NewLUT[int32]("tile_id", -1, []Range{{1, 2}, {1, 4}})

	var keyErr *ErrKeyOutOfRange
	_, err := lut.GetScalar([]int{0, 1})
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "tile_id", keyErr.Table)
	assert.Equal(t, []int{0, 1}, keyErr.Key)

	err = lut.Set([]int{1, 5}, 3)
	assert.ErrorAs(t, err, &keyErr)

	// Wrong key arity counts as out of range too.
	_, err = lut.GetScalar([]int{1})
	assert.ErrorAs(t, err, &keyErr)

	err = lut.Set([]int{3, 1}, 3)
	assert.True(t, errors.As(err, &keyErr))
}

// TestLUTKeys checks domain enumeration order: every key in the allocated
// ranges exactly once, last dimension varying fastest.
func TestLUTKeys(t *testing.T) {
	lut := NewLUT[int8]("drift_dir", 0, []Range{{1, 2}, {10, 11}})
	assert.Equal(t, [][]int{
		{1, 10}, {1, 11},
		{2, 10}, {2, 11},
	}, lut.Keys())
}

// TestLUTSetAll checks the parallel assignment form used by the builders.
func TestLUTSetAll(t *testing.T) {
	lut := NewLUT[float32]("anode_drift_coordinate", 0, []Range{{1, 4}})
	keys := [][]int{{1}, {2}, {3}, {4}}
	values := [][]float32{{155}, {-155}, {155}, {-155}}
	require.NoError(t, lut.SetAll(keys, values))

	for i, key := range keys {
		v, err := lut.GetScalar(key)
		require.NoError(t, err)
		assert.Equal(t, values[i][0], v)
	}

	assert.Error(t, lut.SetAll(keys[:2], values[:1]))
}

// TestLUTRecordRoundTrip serializes tables of several element types and
// rebuilds them, checking set values, defaults and metadata survive.
func TestLUTRecordRoundTrip(t *testing.T) {
	drift := NewLUT[int8]("drift_dir", 0, []Range{{1, 4}})
	require.NoError(t, drift.Set([]int{1}, -1))
	require.NoError(t, drift.Set([]int{3}, 1))

	rec := drift.Record()
	assert.Equal(t, "i1", rec.Dtype)
	restored, err := LUTFromRecord[int8](rec)
	require.NoError(t, err)
	assert.Equal(t, drift.Ranges(), restored.Ranges())
	for _, key := range drift.Keys() {
		want, err := drift.GetScalar(key)
		require.NoError(t, err)
		got, err := restored.GetScalar(key)
		require.NoError(t, err)
		assert.Equal(t, want, got, "key %v", key)
	}

	pixels := NewLUT[float32]("pixel_coordinates_2D", 0, []Range{{1, 1}, {0, 1}}, 2)
	require.NoError(t, pixels.Set([]int{1, 0}, -2.5, 2.5))
	restoredPixels, err := LUTFromRecord[float32](pixels.Record())
	require.NoError(t, err)
	v, err := restoredPixels.Get([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{-2.5, 2.5}, v)
	// The never-set key keeps the default.
	v, err = restoredPixels.Get([]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, v)

	small := NewLUT[int16]("counts", 0, []Range{{0, 1}})
	require.NoError(t, small.Set([]int{1}, 12345))
	smallRec := small.Record()
	assert.Equal(t, "i2", smallRec.Dtype)
	restoredSmall, err := LUTFromRecord[int16](smallRec)
	require.NoError(t, err)
	sv, err := restoredSmall.GetScalar([]int{1})
	require.NoError(t, err)
	assert.Equal(t, int16(12345), sv)

	tiles := NewLUT[int32]("tile_id", -1, []Range{{1, 2}, {1, 1}})
	require.NoError(t, tiles.Set([]int{2, 1}, 8))
	restoredTiles, err := LUTFromRecord[int32](tiles.Record())
	require.NoError(t, err)
	got, err := restoredTiles.GetScalar([]int{1, 1})
	require.NoError(t, err)
	assert.Equal(t, int32(-1), got)
	got, err = restoredTiles.GetScalar([]int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, int32(8), got)
}

// TestLUTFromRecordMismatch rejects records whose dtype or element count
// does not match the requested table type.
func TestLUTFromRecordMismatch(t *testing.T) {
	rec := NewLUT[int32]("tile_id", -1, []Range{{1, 2}}).Record()

	_, err := LUTFromRecord[float32](rec)
	assert.Error(t, err)

	rec.Data = rec.Data[:1]
	_, err = LUTFromRecord[int32](rec)
	assert.Error(t, err)
}
