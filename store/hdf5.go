package store

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// DecodeBudget bounds the bytes of decoded datasets an HDF5 store keeps for
// ReadSlice.
const DecodeBudget = 512 << 20

// HDF5 is a Store backed by an HDF5 file read with go-hdf5.
//
// go-hdf5 reads datasets whole, so the first ReadSlice of a dataset decodes
// all of it into the destination's element type and later slices are served
// from that copy. A slice of a few elements from a per-base dataset therefore
// costs one full decode of the dataset up front, and the copy is sized by the
// destination type: a uint8 dataset sliced into []int32 is held at four bytes
// per element. One copy is kept per dataset; slicing it into a different type
// replaces it. Copies are dropped least recently used first once they exceed
// DecodeBudget bytes, except the copy just read. Close releases them all.
type HDF5 struct {
	file     *hdf5.File
	datasets map[string]*hdf5.Dataset // opened dataset headers, by clean path
	decoded  map[string]decodedArray
	recent   []string // decoded paths, least recently used first
	held     uint64
	budget   uint64
	closed   bool
}

type decodedArray struct {
	data reflect.Value
	size uint64
}

// OpenHDF5 opens an HDF5 file for reading.
func OpenHDF5(path string) (Store, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &HDF5{
		file:     f,
		datasets: make(map[string]*hdf5.Dataset),
		decoded:  make(map[string]decodedArray),
		budget:   DecodeBudget,
	}, nil
}

// Path returns the path of the underlying file.
func (s *HDF5) Path() string {
	return s.file.Path()
}

// Has reports whether a group or dataset exists at path.
func (s *HDF5) Has(path string) bool {
	if s.closed {
		return false
	}
	path = CleanPath(path)
	if path == "/" {
		return true
	}
	if _, ok := s.datasets[path]; ok {
		return true
	}
	if _, err := s.file.OpenGroup(path); err == nil {
		return true
	}
	_, err := s.dataset(path)
	return err == nil
}

// Members lists the children of the group at path.
func (s *HDF5) Members(path string) ([]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	g, err := s.file.OpenGroup(CleanPath(path))
	if err != nil {
		return nil, s.wrap(path, err)
	}
	return g.Members()
}

// Attr returns the value of the attribute at an "/object@name" path.
func (s *HDF5) Attr(path string) (interface{}, error) {
	if s.closed {
		return nil, ErrClosed
	}
	objectPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	var attr *hdf5.Attribute
	if g, gerr := s.file.OpenGroup(objectPath); gerr == nil {
		attr = g.Attr(name)
	} else if ds, derr := s.dataset(objectPath); derr == nil {
		attr = ds.Attr(name)
	} else {
		return nil, s.wrap(objectPath, derr)
	}
	if attr == nil {
		return nil, fmt.Errorf("attribute %s: %w", path, ErrNotFound)
	}
	return attr.Value()
}

// Shape returns the dimensions of the dataset at path.
func (s *HDF5) Shape(path string) ([]uint64, error) {
	if s.closed {
		return nil, ErrClosed
	}
	ds, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	return ds.Shape(), nil
}

// Read reads the whole dataset at path into dest.
func (s *HDF5) Read(path string, dest interface{}) error {
	if s.closed {
		return ErrClosed
	}
	ds, err := s.dataset(path)
	if err != nil {
		return err
	}
	if ds.NumElements() == 0 {
		return setEmpty(dest)
	}
	if err := ds.Read(dest); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

// ReadSlice reads a hyperslab of the dataset at path into dest.
func (s *HDF5) ReadSlice(path string, start, count []uint64, dest interface{}) error {
	if s.closed {
		return ErrClosed
	}
	ds, err := s.dataset(path)
	if err != nil {
		return err
	}
	if err := checkSelection(ds.Shape(), start, count); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if isEmptySelection(count) {
		return setEmpty(dest)
	}
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to a slice, got %T", dest)
	}

	data, err := s.decode(CleanPath(path), ds, dv.Elem().Type())
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	dv.Elem().Set(hyperslab(data, ds.Shape(), start, count))
	return nil
}

// decode returns the whole dataset at path as a slice of typ, reusing the
// held copy when it has that type.
func (s *HDF5) decode(path string, ds *hdf5.Dataset, typ reflect.Type) (reflect.Value, error) {
	if d, ok := s.decoded[path]; ok && d.data.Type() == typ {
		s.touch(path)
		return d.data, nil
	}
	s.drop(path)

	whole := reflect.New(typ)
	if err := ds.Read(whole.Interface()); err != nil {
		return reflect.Value{}, err
	}
	data := whole.Elem()
	if uint64(data.Len()) != ds.NumElements() {
		return reflect.Value{}, fmt.Errorf("decoded %d of %d elements", data.Len(), ds.NumElements())
	}

	size := uint64(data.Len()) * uint64(typ.Elem().Size())
	s.decoded[path] = decodedArray{data: data, size: size}
	s.recent = append(s.recent, path)
	s.held += size
	for s.held > s.budget && len(s.recent) > 1 {
		s.drop(s.recent[0])
	}
	return data, nil
}

// touch marks path as most recently used.
func (s *HDF5) touch(path string) {
	for i, p := range s.recent {
		if p == path {
			s.recent = append(append(s.recent[:i:i], s.recent[i+1:]...), path)
			return
		}
	}
}

// drop releases the decoded copy of path, if any.
func (s *HDF5) drop(path string) {
	d, ok := s.decoded[path]
	if !ok {
		return
	}
	delete(s.decoded, path)
	s.held -= d.size
	for i, p := range s.recent {
		if p == path {
			s.recent = append(s.recent[:i:i], s.recent[i+1:]...)
			break
		}
	}
}

// Close closes the underlying file.
func (s *HDF5) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.datasets = nil
	s.decoded = nil
	s.recent = nil
	s.held = 0
	return s.file.Close()
}

func (s *HDF5) dataset(path string) (*hdf5.Dataset, error) {
	path = CleanPath(path)
	if ds, ok := s.datasets[path]; ok {
		return ds, nil
	}
	ds, err := s.file.OpenDataset(path)
	if err != nil {
		return nil, s.wrap(path, err)
	}
	s.datasets[path] = ds
	return ds, nil
}

// wrap maps go-hdf5 lookup failures onto ErrNotFound.
func (s *HDF5) wrap(path string, err error) error {
	if errors.Is(err, hdf5.ErrNotFound) || errors.Is(err, hdf5.ErrNotDataset) || errors.Is(err, hdf5.ErrNotGroup) {
		return fmt.Errorf("%s: %w (%v)", path, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

// checkSelection validates a hyperslab against a dataset shape.
func checkSelection(shape, start, count []uint64) error {
	if len(start) != len(shape) || len(count) != len(shape) {
		return fmt.Errorf("%w: rank %d selection on rank %d dataset", ErrShape, len(start), len(shape))
	}
	for i := range shape {
		if start[i]+count[i] > shape[i] {
			return fmt.Errorf("%w: dim %d [%d, %d) exceeds %d", ErrShape, i, start[i], start[i]+count[i], shape[i])
		}
	}
	return nil
}

var _ Store = (*HDF5)(nil)
