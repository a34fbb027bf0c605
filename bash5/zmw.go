package bash5

import (
	"fmt"

	"github.com/robert-malhotra/go-bash5/internal/metriccache"
)

// MetricValue is one hole's entry of a ZMW metric.
type MetricValue = metriccache.Value

// Names of metrics with dedicated accessors.
const (
	metricReadScore    = "ReadScore"
	metricProductivity = "Productivity"
)

// Zmw is a view of one hole of a part. It is cheap to create and holds no
// data of its own; every call reads through the owning part.
type Zmw struct {
	part *Part
	hole int32
	row  int // row in the part's main basecall group
}

// HoleNumber returns the hole the view refers to.
func (z *Zmw) HoleNumber() int32 {
	return z.hole
}

// Name returns "movie/hole".
func (z *Zmw) Name() string {
	return fmt.Sprintf("%s/%d", z.part.movieName, z.hole)
}

func (z *Zmw) String() string {
	return fmt.Sprintf("<Zmw: %s>", z.Name())
}

// RegionRows returns the region table rows of the hole, in table order. A
// hole without rows gives an empty result.
func (z *Zmw) RegionRows() ([]RegionRow, error) {
	if err := z.part.checkOpen(); err != nil {
		return nil, err
	}
	return append([]RegionRow(nil), z.part.regionRows(z.hole)...), nil
}

// HQRegion returns the high-quality interval. Holes without exactly one HQ
// row get the empty interval (0, 0); this is not an error.
func (z *Zmw) HQRegion() (Interval, error) {
	if err := z.part.checkOpen(); err != nil {
		return Interval{}, err
	}
	return z.hqRegion(), nil
}

func (z *Zmw) hqRegion() Interval {
	hq, n := hqInterval(z.part.regionRows(z.hole))
	if n != 1 {
		z.part.logger.Debug("hq region unavailable", "hole", z.hole, "hq_rows", n)
	}
	return hq
}

// AdapterRegions returns the adapter intervals clipped to the HQ region.
func (z *Zmw) AdapterRegions() ([]Interval, error) {
	return z.clippedRegions(Adapter)
}

// InsertRegions returns the insert intervals clipped to the HQ region.
func (z *Zmw) InsertRegions() ([]Interval, error) {
	return z.clippedRegions(Insert)
}

func (z *Zmw) clippedRegions(t RegionType) ([]Interval, error) {
	if err := z.part.checkOpen(); err != nil {
		return nil, err
	}
	return clipped(z.part.regionRows(z.hole), t, z.hqRegion()), nil
}

// Read returns a raw read of the hole. A nil start or end defaults to the
// matching bound of the HQ region.
func (z *Zmw) Read(start, end *int32) (*Read, error) {
	if err := z.part.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := z.part.group(RawRead); err != nil {
		return nil, err
	}
	hq := z.hqRegion()
	iv := hq
	if start != nil {
		iv.Start = *start
	}
	if end != nil {
		iv.End = *end
	}
	return newRead(z.part, RawRead, z.hole, iv.Start, iv.End)
}

// ReadRange returns the raw read [start, end) of the hole.
func (z *Zmw) ReadRange(start, end int32) (*Read, error) {
	return z.Read(&start, &end)
}

// Subreads returns one raw read per clipped insert region.
func (z *Zmw) Subreads() ([]*Read, error) {
	return z.regionReads(Insert)
}

// Adapters returns one raw read per clipped adapter region.
func (z *Zmw) Adapters() ([]*Read, error) {
	return z.regionReads(Adapter)
}

func (z *Zmw) regionReads(t RegionType) ([]*Read, error) {
	if err := z.part.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := z.part.group(RawRead); err != nil {
		return nil, err
	}
	ivs := clipped(z.part.regionRows(z.hole), t, z.hqRegion())
	reads := make([]*Read, 0, len(ivs))
	for _, iv := range ivs {
		r, err := newRead(z.part, RawRead, z.hole, iv.Start, iv.End)
		if err != nil {
			return nil, err
		}
		reads = append(reads, r)
	}
	return reads, nil
}

// CCSRead returns the consensus read of the hole, or nil when the hole has
// no consensus events.
func (z *Zmw) CCSRead() (*Read, error) {
	if err := z.part.checkOpen(); err != nil {
		return nil, err
	}
	g, err := z.part.group(CCSRead)
	if err != nil {
		return nil, err
	}
	r, ok := g.offsets[z.hole]
	if !ok {
		return nil, fmt.Errorf("hole %d in consensus basecalls: %w", z.hole, ErrNotFound)
	}
	if r.Len() <= 0 {
		return nil, nil
	}
	return newRead(z.part, CCSRead, z.hole, 0, int32(r.Len()))
}

// NumPasses returns the number of passes over the insert used to build the
// consensus read.
func (z *Zmw) NumPasses() (int32, error) {
	if err := z.part.checkOpen(); err != nil {
		return 0, err
	}
	g, err := z.part.group(CCSRead)
	if err != nil {
		return 0, err
	}
	row, ok := g.rows[z.hole]
	if !ok {
		return 0, fmt.Errorf("hole %d in consensus basecalls: %w", z.hole, ErrNotFound)
	}
	passes, err := z.part.loadNumPasses()
	if err != nil {
		return 0, err
	}
	if row >= len(passes) {
		return 0, fmt.Errorf("num passes has %d rows, hole %d is row %d: %w", len(passes), z.hole, row, ErrRange)
	}
	return passes[row], nil
}

// Metric returns the hole's value of a ZMW metric.
func (z *Zmw) Metric(name string) (MetricValue, error) {
	return z.part.ZmwMetric(name, z.row)
}

// ListMetrics lists the ZMW metrics of the owning file.
func (z *Zmw) ListMetrics() ([]string, error) {
	return z.part.ListMetrics()
}

// ReadScore returns the predicted accuracy of the hole's basecalls.
func (z *Zmw) ReadScore() (float64, error) {
	v, err := z.Metric(metricReadScore)
	if err != nil {
		return 0, err
	}
	return v.Float64(), nil
}

// Productivity returns the estimated number of polymerase reactions in the
// hole, for example 2 for a doubly loaded hole.
func (z *Zmw) Productivity() (int, error) {
	v, err := z.Metric(metricProductivity)
	if err != nil {
		return 0, err
	}
	return int(v.Float64()), nil
}
