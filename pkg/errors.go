package geometry

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrConfigField represents a missing or invalid required field in a
// geometry description document. Fatal: no geometry is built past it.
type ErrConfigField struct {
	Filename string
	Field    string
}

func (e *ErrConfigField) Error() string {
	return fmt.Sprintf("geometry description %q: missing or invalid required field %q", e.Filename, e.Field)
}

// ErrVersionMismatch represents an incompatible format or schema version.
type ErrVersionMismatch struct {
	Filename string
	Expected string
	Found    string
}

func (e *ErrVersionMismatch) Error() string {
	return fmt.Sprintf("incompatible version in %q: expected %s, found %s", e.Filename, e.Expected, e.Found)
}

// ErrKeyOutOfRange represents a lookup with a key outside the allocated
// range of a lookup table. Keys inside the range that were never set are
// not an error (they return the table default); a key outside the range
// means the electronics addressing and the geometry description disagree
// and has to be investigated.
type ErrKeyOutOfRange struct {
	Table string
	Key   []int
}

func (e *ErrKeyOutOfRange) Error() string {
	return fmt.Sprintf("key %v out of range for lookup table %q", e.Key, e.Table)
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ErrReadDataset represents an error when reading a dataset or table back
// from a persisted geometry file.
type ErrReadDataset struct {
	Name string
	Err  error
}

func (e *ErrReadDataset) Error() string {
	return fmt.Sprintf("error reading dataset %q: %v", e.Name, e.Err)
}

func (e *ErrReadDataset) Unwrap() error { return e.Err }
