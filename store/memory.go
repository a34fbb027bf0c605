package store

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Memory is an in-process Store. Datasets are flat Go slices with a shape;
// every Read and ReadSlice is counted per path.
//
// The Put methods panic on malformed input; they are meant for building
// fixtures, not for handling untrusted data.
type Memory struct {
	groups   map[string]bool
	datasets map[string]memDataset
	attrs    map[string]interface{}
	reads    map[string]int
	closed   bool
}

type memDataset struct {
	shape []uint64
	data  reflect.Value
}

// NewMemory returns an empty in-memory store containing only the root group.
func NewMemory() *Memory {
	return &Memory{
		groups:   map[string]bool{"/": true},
		datasets: make(map[string]memDataset),
		attrs:    make(map[string]interface{}),
		reads:    make(map[string]int),
	}
}

// PutGroup creates the group at path and any missing parents.
func (m *Memory) PutGroup(path string) *Memory {
	path = CleanPath(path)
	for p := path; p != "/"; p = parent(p) {
		if _, ok := m.datasets[p]; ok {
			panic(fmt.Sprintf("store: %s is a dataset", p))
		}
		m.groups[p] = true
	}
	return m
}

// Put stores a dataset. data must be a slice; shape defaults to a single
// dimension of len(data) and must otherwise multiply out to len(data).
func (m *Memory) Put(path string, data interface{}, shape ...uint64) *Memory {
	path = CleanPath(path)
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		panic(fmt.Sprintf("store: dataset %s must be a slice, got %T", path, data))
	}
	if len(shape) == 0 {
		shape = []uint64{uint64(v.Len())}
	}
	n := uint64(1)
	for _, d := range shape {
		n *= d
	}
	if n != uint64(v.Len()) {
		panic(fmt.Sprintf("store: dataset %s has %d elements, shape %v needs %d", path, v.Len(), shape, n))
	}
	m.PutGroup(parent(path))
	m.datasets[path] = memDataset{shape: append([]uint64(nil), shape...), data: v}
	return m
}

// SetAttr sets the attribute at an "/object@name" path. The object must exist.
func (m *Memory) SetAttr(path string, value interface{}) *Memory {
	objectPath, name, err := ParseAttrPath(path)
	if err != nil {
		panic(err)
	}
	if !m.Has(objectPath) {
		panic(fmt.Sprintf("store: attribute on missing object %s", objectPath))
	}
	m.attrs[objectPath+"@"+name] = value
	return m
}

// Reads returns how many times the dataset at path has been read.
func (m *Memory) Reads(path string) int {
	return m.reads[CleanPath(path)]
}

// Has reports whether a group or dataset exists at path.
func (m *Memory) Has(path string) bool {
	if m.closed {
		return false
	}
	path = CleanPath(path)
	_, ok := m.datasets[path]
	return ok || m.groups[path]
}

// Members lists the children of the group at path, sorted by name.
func (m *Memory) Members(path string) ([]string, error) {
	if m.closed {
		return nil, ErrClosed
	}
	path = CleanPath(path)
	if !m.groups[path] {
		return nil, fmt.Errorf("group %s: %w", path, ErrNotFound)
	}
	var names []string
	add := func(p string) {
		if p != "/" && parent(p) == path {
			names = append(names, p[strings.LastIndex(p, "/")+1:])
		}
	}
	for p := range m.groups {
		add(p)
	}
	for p := range m.datasets {
		add(p)
	}
	sort.Strings(names)
	return names, nil
}

// Attr returns the attribute at an "/object@name" path.
func (m *Memory) Attr(path string) (interface{}, error) {
	if m.closed {
		return nil, ErrClosed
	}
	objectPath, name, err := ParseAttrPath(path)
	if err != nil {
		return nil, err
	}
	v, ok := m.attrs[objectPath+"@"+name]
	if !ok {
		return nil, fmt.Errorf("attribute %s: %w", path, ErrNotFound)
	}
	return v, nil
}

// Shape returns the dimensions of the dataset at path.
func (m *Memory) Shape(path string) ([]uint64, error) {
	ds, err := m.dataset(path)
	if err != nil {
		return nil, err
	}
	return append([]uint64(nil), ds.shape...), nil
}

// Read converts the whole dataset into dest.
func (m *Memory) Read(path string, dest interface{}) error {
	ds, err := m.dataset(path)
	if err != nil {
		return err
	}
	m.reads[CleanPath(path)]++
	return assign(ds.data, dest)
}

// ReadSlice converts a row-major hyperslab of the dataset into dest.
func (m *Memory) ReadSlice(path string, start, count []uint64, dest interface{}) error {
	ds, err := m.dataset(path)
	if err != nil {
		return err
	}
	if err := checkSelection(ds.shape, start, count); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	m.reads[CleanPath(path)]++
	if isEmptySelection(count) {
		return setEmpty(dest)
	}

	sel := hyperslab(ds.data, ds.shape, start, count)
	return assign(sel, dest)
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.closed = true
	return nil
}

func (m *Memory) dataset(path string) (memDataset, error) {
	if m.closed {
		return memDataset{}, ErrClosed
	}
	ds, ok := m.datasets[CleanPath(path)]
	if !ok {
		return memDataset{}, fmt.Errorf("dataset %s: %w", path, ErrNotFound)
	}
	return ds, nil
}

func parent(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}

// assign converts every element of src into a fresh slice stored in dest.
func assign(src reflect.Value, dest interface{}) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to a slice, got %T", dest)
	}
	st, et := src.Type().Elem(), dv.Elem().Type().Elem()
	if (st.Kind() == reflect.String) != (et.Kind() == reflect.String) || !st.ConvertibleTo(et) {
		return fmt.Errorf("cannot convert %s elements into %s", st, et)
	}
	out := reflect.MakeSlice(dv.Elem().Type(), src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		out.Index(i).Set(src.Index(i).Convert(et))
	}
	dv.Elem().Set(out)
	return nil
}

var _ Store = (*Memory)(nil)
