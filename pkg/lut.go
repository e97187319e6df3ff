package geometry

import (
	"fmt"
	"unsafe"
)

// Range is the closed interval of key values allocated for one dimension of
// a lookup table.
type Range struct {
	Min int
	Max int
}

func (r Range) size() int { return r.Max - r.Min + 1 }

// Element constrains the payload types stored in geometry lookup tables.
// Every member widens losslessly to float64, which is what makes the
// serialized record form round-trip exact.
type Element interface {
	~int8 | ~int16 | ~int32 | ~float32 | ~float64
}

// LUT is a dense lookup table over small integer-tuple keys. Each key
// dimension is offset-indexed against its allocated Range, so the backing
// store is one flat array of size prod(range sizes) * prod(value shape).
// Keys inside the allocated ranges that were never set read back as the
// default fill value; keys outside the ranges are an ErrKeyOutOfRange.
// Values may be small fixed-shape vectors (e.g. a 2-vector pixel position
// or a 2x3 bounding box); scalar tables have an empty value shape.
//
// Tables are populated once by a geometry builder and read-only afterwards.
type LUT[T Element] struct {
	name       string
	ranges     []Range
	valueShape []int
	valueSize  int
	def        T
	data       []T
}

// NewLUT allocates a table spanning the given key ranges, filled with def.
func NewLUT[T Element](name string, def T, ranges []Range, valueShape ...int) *LUT[T] {
	size := 1
	for _, r := range ranges {
		size *= r.size()
	}
	valueSize := 1
	for _, n := range valueShape {
		valueSize *= n
	}
	data := make([]T, size*valueSize)
	for i := range data {
		data[i] = def
	}
	return &LUT[T]{
		name:       name,
		ranges:     append([]Range(nil), ranges...),
		valueShape: append([]int(nil), valueShape...),
		valueSize:  valueSize,
		def:        def,
		data:       data,
	}
}

func (l *LUT[T]) index(key []int) (int, error) {
	if len(key) != len(l.ranges) {
		return 0, &ErrKeyOutOfRange{Table: l.name, Key: append([]int(nil), key...)}
	}
	idx := 0
	for d, k := range key {
		r := l.ranges[d]
		if k < r.Min || k > r.Max {
			return 0, &ErrKeyOutOfRange{Table: l.name, Key: append([]int(nil), key...)}
		}
		idx = idx*r.size() + (k - r.Min)
	}
	return idx * l.valueSize, nil
}

// Set assigns the value stored at key. Vector-valued tables take one
// element per slot of the value shape, innermost dimension fastest.
func (l *LUT[T]) Set(key []int, values ...T) error {
	idx, err := l.index(key)
	if err != nil {
		return err
	}
	if len(values) != l.valueSize {
		return fmt.Errorf("lookup table %q: expected %d values at key %v, got %d",
			l.name, l.valueSize, key, len(values))
	}
	copy(l.data[idx:idx+l.valueSize], values)
	return nil
}

// SetAll performs a parallel assignment: keys[i] receives values[i].
func (l *LUT[T]) SetAll(keys [][]int, values [][]T) error {
	if len(keys) != len(values) {
		return fmt.Errorf("lookup table %q: %d keys but %d values in parallel assignment",
			l.name, len(keys), len(values))
	}
	for i := range keys {
		if err := l.Set(keys[i], values[i]...); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored at key as a flat slice of the value shape.
func (l *LUT[T]) Get(key []int) ([]T, error) {
	idx, err := l.index(key)
	if err != nil {
		return nil, err
	}
	out := make([]T, l.valueSize)
	copy(out, l.data[idx:idx+l.valueSize])
	return out, nil
}

// GetScalar returns the value at key for scalar-valued tables.
func (l *LUT[T]) GetScalar(key []int) (T, error) {
	var zero T
	if l.valueSize != 1 {
		return zero, fmt.Errorf("lookup table %q holds vector values, use Get", l.name)
	}
	idx, err := l.index(key)
	if err != nil {
		return zero, err
	}
	return l.data[idx], nil
}

// Keys enumerates every key tuple in the allocated domain, last dimension
// varying fastest.
func (l *LUT[T]) Keys() [][]int {
	total := 1
	for _, r := range l.ranges {
		total *= r.size()
	}
	keys := make([][]int, 0, total)
	key := make([]int, len(l.ranges))
	for i := 0; i < total; i++ {
		rem := i
		for d := len(l.ranges) - 1; d >= 0; d-- {
			size := l.ranges[d].size()
			key[d] = l.ranges[d].Min + rem%size
			rem /= size
		}
		keys = append(keys, append([]int(nil), key...))
	}
	return keys
}

func (l *LUT[T]) Name() string { return l.name }

func (l *LUT[T]) Ranges() []Range { return append([]Range(nil), l.ranges...) }

func (l *LUT[T]) ValueShape() []int { return append([]int(nil), l.valueShape...) }

func (l *LUT[T]) Default() T { return l.def }

// NBytes is the size of the backing array, used for footprint logging.
func (l *LUT[T]) NBytes() int {
	return len(l.data) * int(unsafe.Sizeof(l.def))
}

// LUTRecord is the serializable form of a lookup table: dtype code,
// per-dimension key ranges, value shape, default fill and the dense backing
// array widened to float64. A table is fully reconstructible from its
// record; see LUTFromRecord.
type LUTRecord struct {
	Name       string
	Dtype      string
	Ranges     []Range
	ValueShape []int
	Default    float64
	Data       []float64
}

// Record serializes the table.
func (l *LUT[T]) Record() LUTRecord {
	data := make([]float64, len(l.data))
	for i, v := range l.data {
		data[i] = float64(v)
	}
	return LUTRecord{
		Name:       l.name,
		Dtype:      dtypeOf[T](),
		Ranges:     l.Ranges(),
		ValueShape: l.ValueShape(),
		Default:    float64(l.def),
		Data:       data,
	}
}

// LUTFromRecord rebuilds a table from its serialized record. The element
// type must match the record's dtype code.
func LUTFromRecord[T Element](rec LUTRecord) (*LUT[T], error) {
	if rec.Dtype != dtypeOf[T]() {
		return nil, fmt.Errorf("lookup table %q: dtype %q does not match requested %q",
			rec.Name, rec.Dtype, dtypeOf[T]())
	}
	l := NewLUT[T](rec.Name, T(rec.Default), rec.Ranges, rec.ValueShape...)
	if len(rec.Data) != len(l.data) {
		return nil, fmt.Errorf("lookup table %q: %d stored elements, allocated size is %d",
			rec.Name, len(rec.Data), len(l.data))
	}
	for i, v := range rec.Data {
		l.data[i] = T(v)
	}
	return l, nil
}

func dtypeOf[T Element]() string {
	var v T
	switch any(v).(type) {
	case int8:
		return "i1"
	case int16:
		return "i2"
	case int32:
		return "i4"
	case float32:
		return "f4"
	default:
		return "f8"
	}
}
