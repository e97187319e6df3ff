package geometry

// All internal lengths are millimeters. Detector description documents that
// use other units are converted exactly once, at parse time; nothing past
// the layout loaders multiplies by a unit constant.
const (
	Millimeter float64 = 1.0
	Centimeter float64 = 10.0 * Millimeter
)
