// Package metriccache lazily loads whole-file per-hole metric arrays and
// serves individual rows from memory.
//
// A metric is read from the backing store at most once per Cache. Callers
// index by row position in the hole-number array, not by hole number.
package metriccache

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-bash5/store"
)

// ErrRowOutOfRange is returned when a row index exceeds the metric's first axis.
var ErrRowOutOfRange = errors.New("metric row out of range")

// Value is one hole's entry of a metric. Rank-1 metrics give scalar values;
// higher-rank metrics give the row's sub-array, flattened.
type Value struct {
	data   []float64
	scalar bool
}

// Scalar reports whether the metric is one number per hole.
func (v Value) Scalar() bool {
	return v.scalar
}

// Float64 returns the first element, which is the value for scalar metrics.
func (v Value) Float64() float64 {
	if len(v.data) == 0 {
		return 0
	}
	return v.data[0]
}

// Values returns a copy of every element of the row.
func (v Value) Values() []float64 {
	return append([]float64(nil), v.data...)
}

type entry struct {
	data   []float64
	rows   int
	stride int
	scalar bool
}

// Cache is keyed by metric name, unbounded, and not safe for concurrent use.
type Cache struct {
	store   store.Store
	group   string
	entries map[string]*entry
}

// New returns a cache over the metric datasets under group.
func New(s store.Store, group string) *Cache {
	return &Cache{
		store:   s,
		group:   store.CleanPath(group),
		entries: make(map[string]*entry),
	}
}

// Get returns row of the named metric, loading the metric on first use.
func (c *Cache) Get(name string, row int) (Value, error) {
	e, ok := c.entries[name]
	if !ok {
		var err error
		if e, err = c.load(name); err != nil {
			return Value{}, err
		}
		c.entries[name] = e
	}
	if row < 0 || row >= e.rows {
		return Value{}, fmt.Errorf("%w: metric %s row %d of %d", ErrRowOutOfRange, name, row, e.rows)
	}
	return Value{
		data:   e.data[row*e.stride : (row+1)*e.stride],
		scalar: e.scalar,
	}, nil
}

// Names lists the metrics available under the cache's group.
func (c *Cache) Names() ([]string, error) {
	names, err := c.store.Members(c.group)
	if err != nil {
		return nil, fmt.Errorf("listing metrics: %w", err)
	}
	return names, nil
}

// Len returns the number of metrics currently loaded.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Reset drops every loaded metric.
func (c *Cache) Reset() {
	clear(c.entries)
}

func (c *Cache) load(name string) (*entry, error) {
	path := store.Join(c.group, name)
	shape, err := c.store.Shape(path)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", name, err)
	}
	var data []float64
	if err := c.store.Read(path, &data); err != nil {
		return nil, fmt.Errorf("metric %s: %w", name, err)
	}

	e := &entry{data: data, rows: len(data), stride: 1, scalar: len(shape) <= 1}
	if len(shape) > 0 {
		e.rows = int(shape[0])
		for _, d := range shape[1:] {
			e.stride *= int(d)
		}
	}
	if e.rows*e.stride != len(data) {
		return nil, fmt.Errorf("metric %s: shape %v does not match %d values", name, shape, len(data))
	}
	return e, nil
}
