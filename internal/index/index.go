// Package index builds the lookup tables that give O(1) access to a hole's
// slice of the flat per-event arrays and of the region table.
package index

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrLengthMismatch = errors.New("parallel arrays differ in length")
	ErrNegativeCount  = errors.New("negative event count")
	ErrDuplicateHole  = errors.New("hole number appears more than once")
	ErrNonContiguous  = errors.New("region rows for a hole are not contiguous")
)

// Range is a half-open [Begin, End) span of rows or events.
type Range struct {
	Begin, End int64
}

// Len returns End - Begin.
func (r Range) Len() int64 {
	return r.End - r.Begin
}

// Offsets maps a hole number to its span of the flat event arrays.
type Offsets map[int32]Range

// BuildOffsets turns per-hole event counts, in file row order, into event
// spans. holeNumbers[i] is the hole stored at row i; spans follow the row
// order of the file and are contiguous.
func BuildOffsets(numEvent []int64, holeNumbers []int32) (Offsets, error) {
	if len(numEvent) != len(holeNumbers) {
		return nil, fmt.Errorf("%w: %d event counts, %d hole numbers",
			ErrLengthMismatch, len(numEvent), len(holeNumbers))
	}

	offsets := make(Offsets, len(holeNumbers))
	var end int64
	for i, n := range numEvent {
		if n < 0 {
			return nil, fmt.Errorf("%w: hole %d has %d events", ErrNegativeCount, holeNumbers[i], n)
		}
		hole := holeNumbers[i]
		if _, dup := offsets[hole]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateHole, hole)
		}
		offsets[hole] = Range{Begin: end, End: end + n}
		end += n
	}
	return offsets, nil
}

// Regions maps a hole number to its span of rows in the region table.
type Regions map[int32]Range

// BuildRegions groups the hole-number column of a region table into row
// spans. Rows for one hole must be adjacent; the table need not be sorted
// by hole number. Holes without rows get no entry.
func BuildRegions(holes []int32) (Regions, error) {
	regions := make(Regions)

	// Changepoints are the row indices where the hole column changes value,
	// bracketed by 0 and len(holes).
	start := 0
	for i := 1; i <= len(holes); i++ {
		if i < len(holes) && holes[i] == holes[i-1] {
			continue
		}
		hole := holes[start]
		if _, seen := regions[hole]; seen {
			return nil, fmt.Errorf("%w: hole %d reappears at row %d", ErrNonContiguous, hole, start)
		}
		regions[hole] = Range{Begin: int64(start), End: int64(i)}
		start = i
	}
	return regions, nil
}
