package bash5

import (
	"fmt"
	"iter"
)

// Lookup is a bulk hole request for Reader.Lookup. It is implemented by
// Hole, HoleRange, Holes and Mask only.
type Lookup interface {
	holes(r *Reader) (iter.Seq[int32], error)
}

// Hole requests a single hole.
type Hole int32

// HoleRange requests the holes with Start <= hole < End.
type HoleRange struct {
	Start, End int32
}

// Holes requests a list of holes, in order.
type Holes []int32

// Mask selects from SequencingZmws the holes at true positions. Its length
// must equal the number of sequencing holes.
type Mask []bool

func (h Hole) holes(*Reader) (iter.Seq[int32], error) {
	return func(yield func(int32) bool) {
		yield(int32(h))
	}, nil
}

func (hr HoleRange) holes(*Reader) (iter.Seq[int32], error) {
	if hr.End < hr.Start {
		return nil, fmt.Errorf("%w: hole range [%d, %d) is reversed", ErrInvalidLookup, hr.Start, hr.End)
	}
	return func(yield func(int32) bool) {
		for h := int64(hr.Start); h < int64(hr.End); h++ {
			if !yield(int32(h)) {
				return
			}
		}
	}, nil
}

func (hs Holes) holes(*Reader) (iter.Seq[int32], error) {
	return func(yield func(int32) bool) {
		for _, h := range hs {
			if !yield(h) {
				return
			}
		}
	}, nil
}

func (m Mask) holes(r *Reader) (iter.Seq[int32], error) {
	if len(m) != len(r.sequencing) {
		return nil, fmt.Errorf("%w: mask of %d for %d sequencing holes", ErrInvalidLookup, len(m), len(r.sequencing))
	}
	return func(yield func(int32) bool) {
		for i, ok := range m {
			if ok && !yield(r.sequencing[i]) {
				return
			}
		}
	}, nil
}

var (
	_ Lookup = Hole(0)
	_ Lookup = HoleRange{}
	_ Lookup = Holes(nil)
	_ Lookup = Mask(nil)
)
