package bash5

import "fmt"

// RegionType is the kind of a region table row.
type RegionType int32

const (
	Adapter     RegionType = 0
	Insert      RegionType = 1
	HighQuality RegionType = 2
)

func (t RegionType) String() string {
	switch t {
	case Adapter:
		return "Adapter"
	case Insert:
		return "Insert"
	case HighQuality:
		return "HQRegion"
	default:
		return fmt.Sprintf("RegionType(%d)", int32(t))
	}
}

// regionColumns is the width of /PulseData/Regions:
// holeNumber, regionType, regionStart, regionEnd, regionScore.
const regionColumns = 5

// RegionRow is one row of the region table.
type RegionRow struct {
	Hole  int32
	Type  RegionType
	Start int32
	End   int32
	Score int32
}

// Interval returns the row's [Start, End) interval.
func (r RegionRow) Interval() Interval {
	return Interval{Start: r.Start, End: r.End}
}

// Interval is a half-open [Start, End) span of a hole's events.
type Interval struct {
	Start, End int32
}

// Len returns End - Start.
func (iv Interval) Len() int32 {
	return iv.End - iv.Start
}

// Intersect returns the overlap of two intervals; ok is false when the
// overlap is empty.
func (iv Interval) Intersect(other Interval) (Interval, bool) {
	out := Interval{Start: max(iv.Start, other.Start), End: min(iv.End, other.End)}
	return out, out.Start < out.End
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%d_%d", iv.Start, iv.End)
}

// parseRegions turns the flat row-major region table into rows.
func parseRegions(flat []int32) ([]RegionRow, error) {
	if len(flat)%regionColumns != 0 {
		return nil, fmt.Errorf("region table has %d values, not a multiple of %d", len(flat), regionColumns)
	}
	rows := make([]RegionRow, len(flat)/regionColumns)
	for i := range rows {
		c := flat[i*regionColumns : (i+1)*regionColumns]
		rows[i] = RegionRow{Hole: c[0], Type: RegionType(c[1]), Start: c[2], End: c[3], Score: c[4]}
	}
	return rows, nil
}

// clipped collects the intervals of rows of type t, each intersected with hq,
// dropping empty intersections. Table order is preserved.
func clipped(rows []RegionRow, t RegionType, hq Interval) []Interval {
	var out []Interval
	for _, r := range rows {
		if r.Type != t {
			continue
		}
		if iv, ok := r.Interval().Intersect(hq); ok {
			out = append(out, iv)
		}
	}
	return out
}

// hqInterval applies the HQ rule: exactly one HQ row gives its interval,
// anything else gives (0, 0). n is the number of HQ rows seen.
func hqInterval(rows []RegionRow) (iv Interval, n int) {
	for _, r := range rows {
		if r.Type == HighQuality {
			n++
			iv = r.Interval()
		}
	}
	if n != 1 {
		return Interval{}, n
	}
	return iv, n
}
