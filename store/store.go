// Package store defines the backing store consumed by the bas.h5 reader: a
// hierarchical container of named, typed, multi-dimensional arrays addressed
// by slash-separated paths.
//
// Two implementations are provided. HDF5 reads real files through go-hdf5.
// Memory holds arrays in process and counts reads per path, which makes it
// suitable as a test double and for synthesizing small run files.
package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Common errors
var (
	ErrNotFound    = errors.New("object not found")
	ErrClosed      = errors.New("store is closed")
	ErrInvalidPath = errors.New("invalid path")
	ErrShape       = errors.New("selection outside dataset shape")
)

// Store is a read-only view of a hierarchical array container.
//
// Paths are absolute ("/PulseData/BaseCalls/Basecall"). Attribute paths use
// the "/object@name" form. A Store is not safe for concurrent use.
type Store interface {
	// Has reports whether a group or dataset exists at path.
	Has(path string) bool

	// Members lists the names of the children of the group at path.
	Members(path string) ([]string, error)

	// Attr returns the value of the attribute at an "/object@name" path.
	Attr(path string) (interface{}, error)

	// Shape returns the dimensions of the dataset at path.
	Shape(path string) ([]uint64, error)

	// Read reads the whole dataset into dest, a pointer to a slice.
	Read(path string, dest interface{}) error

	// ReadSlice reads the hyperslab starting at start with count elements
	// per dimension into dest, a pointer to a slice.
	ReadSlice(path string, start, count []uint64, dest interface{}) error

	// Close releases the store. Closing twice is a no-op.
	Close() error
}

// Opener opens a Store for a file path.
type Opener func(path string) (Store, error)

// AttrString reads a string attribute. Single-element string arrays are
// accepted since some writers store scalar strings that way.
func AttrString(s Store, path string) (string, error) {
	v, err := s.Attr(path)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []string:
		if len(x) > 0 {
			return x[0], nil
		}
	case []byte:
		return strings.TrimRight(string(x), "\x00"), nil
	}
	return "", fmt.Errorf("attribute %s is %T, not a string", path, v)
}

// ParseAttrPath splits "/group/object@name" into object path and attribute name.
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: attribute path must contain '@': %s", ErrInvalidPath, path)
	}
	objectPath, attrName = CleanPath(path[:at]), path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name: %s", ErrInvalidPath, path)
	}
	return objectPath, attrName, nil
}

// Join joins path elements into an absolute, cleaned path.
func Join(elem ...string) string {
	return CleanPath(strings.Join(elem, "/"))
}

// CleanPath normalizes a path so that it starts with "/", has no trailing
// slash and no empty components.
func CleanPath(path string) string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// setEmpty stores an empty slice of dest's element type into dest.
func setEmpty(dest interface{}) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to a slice, got %T", dest)
	}
	v.Elem().Set(reflect.MakeSlice(v.Elem().Type(), 0, 0))
	return nil
}

func isEmptySelection(count []uint64) bool {
	for _, c := range count {
		if c == 0 {
			return true
		}
	}
	return false
}

// hyperslab copies the row-major selection of count elements per dimension
// starting at start out of data, a flat slice holding an array of shape.
// The selection must already be checked against shape.
func hyperslab(data reflect.Value, shape, start, count []uint64) reflect.Value {
	rank := len(shape)
	if rank == 0 {
		return reflect.AppendSlice(reflect.MakeSlice(data.Type(), 0, data.Len()), data)
	}
	strides := make([]uint64, rank)
	stride := uint64(1)
	for i := rank - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= shape[i]
	}

	n := uint64(1)
	for _, c := range count {
		n *= c
	}
	sel := reflect.MakeSlice(data.Type(), 0, int(n))
	if n == 0 {
		return sel
	}

	// Rows along the last dimension are contiguous, so copy them whole.
	row := count[rank-1]
	pos := make([]uint64, rank)
	for k := uint64(0); k < n; k += row {
		flat := uint64(0)
		for i := range pos {
			flat += (start[i] + pos[i]) * strides[i]
		}
		sel = reflect.AppendSlice(sel, data.Slice(int(flat), int(flat+row)))
		for i := rank - 2; i >= 0; i-- {
			pos[i]++
			if pos[i] < count[i] {
				break
			}
			pos[i] = 0
		}
	}
	return sel
}
