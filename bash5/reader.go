package bash5

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/robert-malhotra/go-bash5/store"
)

// holeLookupColumns is the width of /MultiPart/HoleLookup; column 1 holds the
// 1-based part index of each hole.
const holeLookupColumns = 2

// Reader reads a bas.h5 file, following its multi-part declaration when it
// has one. Holes are routed to the part that records them; a single-part
// file routes every hole to itself.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	path   string
	store  store.Store // top-level handle of a multi-part file; nil otherwise
	logger *Logger

	parts     []*Part
	multipart bool
	lookup    []int32 // hole number -> 1-based part index

	sequencing    []int32
	sequencingSet *roaring.Bitmap

	closed bool
}

// Open opens a bas.h5 or bax.h5 file.
func Open(path string, opts ...Option) (*Reader, error) {
	o := applyOptions(opts)
	s, err := o.opener(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	r := &Reader{path: path, logger: o.logger.WithFile(path)}

	if !s.Has(pathMultiPart) {
		p, err := newPart(path, s, r.logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
		}
		r.parts = []*Part{p}
	} else {
		r.store = s
		r.multipart = true
		if err := r.openParts(o); err != nil {
			r.Close()
			return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
		}
	}

	r.sequencingSet = roaring.New()
	for _, p := range r.parts {
		r.sequencing = append(r.sequencing, p.sequencing...)
		r.sequencingSet.Or(p.sequencingSet)
	}
	r.logger.LogOpen(len(r.parts), r.multipart, len(r.sequencing))
	return r, nil
}

func (r *Reader) openParts(o *options) error {
	var names []string
	if err := r.store.Read(pathParts, &names); err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%s lists no parts", pathParts)
	}
	dir := filepath.Dir(r.path)
	for _, name := range names {
		p, err := openPart(filepath.Join(dir, name), o)
		if err != nil {
			return err
		}
		r.parts = append(r.parts, p)
	}

	shape, err := r.store.Shape(pathHoleLookup)
	if err != nil {
		return err
	}
	if len(shape) != 2 || shape[1] != holeLookupColumns {
		return fmt.Errorf("%s has shape %v, want N×%d", pathHoleLookup, shape, holeLookupColumns)
	}
	var flat []int32
	if err := r.store.Read(pathHoleLookup, &flat); err != nil {
		return err
	}
	r.lookup = make([]int32, shape[0])
	for i := range r.lookup {
		r.lookup[i] = flat[i*holeLookupColumns+1]
	}
	return nil
}

// route returns the part that records hole.
func (r *Reader) route(hole int32) (*Part, error) {
	if !r.multipart {
		return r.parts[0], nil
	}
	if hole < 0 || int(hole) >= len(r.lookup) {
		return nil, fmt.Errorf("hole %d outside hole lookup of %d: %w", hole, len(r.lookup), ErrNotFound)
	}
	i := r.lookup[hole]
	if i < 1 || int(i) > len(r.parts) {
		return nil, fmt.Errorf("hole %d routed to part %d of %d: %w", hole, i, len(r.parts), ErrNotFound)
	}
	return r.parts[i-1], nil
}

func (r *Reader) checkOpen() error {
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Zmw returns the view of one hole from the part that records it.
func (r *Reader) Zmw(hole int32) (*Zmw, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	p, err := r.route(hole)
	if err != nil {
		return nil, err
	}
	return p.Zmw(hole)
}

// Lookup returns the views for a bulk request, in request order. Holes are
// resolved one at a time and the first that cannot be found fails the whole
// request.
func (r *Reader) Lookup(q Lookup) ([]*Zmw, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidLookup)
	}
	holes, err := q.holes(r)
	if err != nil {
		return nil, err
	}
	out := []*Zmw{}
	for h := range holes {
		z, err := r.Zmw(h)
		if err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, nil
}

// SequencingZmws returns the usable holes of every part, in part order.
func (r *Reader) SequencingZmws() []int32 {
	return append([]int32(nil), r.sequencing...)
}

// IsSequencing reports whether hole is in SequencingZmws.
func (r *Reader) IsSequencing(hole int32) bool {
	return hole >= 0 && r.sequencingSet.Contains(uint32(hole))
}

// AllSequencingZmws returns the holes with sequencing status of every part,
// in part order.
func (r *Reader) AllSequencingZmws() []int32 {
	var out []int32
	for _, p := range r.parts {
		out = append(out, p.AllSequencingZmws()...)
	}
	return out
}

// Zmws iterates over the usable holes.
func (r *Reader) Zmws() iter.Seq2[*Zmw, error] {
	return zmwSeq(r.sequencing, r.Zmw)
}

// Len returns the number of usable holes.
func (r *Reader) Len() int {
	return len(r.sequencing)
}

// HasRawBasecalls reports whether every part has raw basecalls.
func (r *Reader) HasRawBasecalls() bool {
	for _, p := range r.parts {
		if !p.HasRawBasecalls() {
			return false
		}
	}
	return true
}

// HasConsensusBasecalls reports whether every part has consensus basecalls.
func (r *Reader) HasConsensusBasecalls() bool {
	for _, p := range r.parts {
		if !p.HasConsensusBasecalls() {
			return false
		}
	}
	return true
}

// MovieName returns the movie name of the first part.
func (r *Reader) MovieName() string {
	return r.parts[0].MovieName()
}

// Parts returns the physical files backing the reader.
func (r *Reader) Parts() []*Part {
	return append([]*Part(nil), r.parts...)
}

// IsMultiPart reports whether the file declared a multi-part layout.
func (r *Reader) IsMultiPart() bool {
	return r.multipart
}

// Close closes every part and the top-level file. Closing twice is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for _, p := range r.parts {
		errs = append(errs, p.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

func (r *Reader) String() string {
	return fmt.Sprintf("<BasH5Reader: %s>", filepath.Base(r.path))
}
