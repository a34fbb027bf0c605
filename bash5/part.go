package bash5

import (
	"fmt"
	"iter"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/robert-malhotra/go-bash5/internal/index"
	"github.com/robert-malhotra/go-bash5/internal/metriccache"
	"github.com/robert-malhotra/go-bash5/store"
)

// Paths into a bas.h5 / bax.h5 file.
const (
	pathBaseCalls          = "/PulseData/BaseCalls"
	pathConsensusBaseCalls = "/PulseData/ConsensusBaseCalls"
	pathRegions            = "/PulseData/Regions"
	pathMovieName          = "/ScanData/RunInfo@MovieName"
	pathMultiPart          = "/MultiPart"
	pathParts              = "/MultiPart/Parts"
	pathHoleLookup         = "/MultiPart/HoleLookup"

	// Relative to a basecalls group.
	relBasecall   = "Basecall"
	relNumEvent   = "ZMW/NumEvent"
	relHoleNumber = "ZMW/HoleNumber"
	relHoleStatus = "ZMW/HoleStatus"
	relMetrics    = "ZMWMetrics"
	relNumPasses  = "Passes/NumPasses"
)

// sequencingStatus is the HoleStatus code of a hole capable of sequencing.
const sequencingStatus = 0

// basecallGroup is one of the two basecall groups and its event index.
type basecallGroup struct {
	path        string
	offsets     index.Offsets
	holeNumbers []int32
	numEvent    []int64
	rows        map[int32]int // hole number -> row
}

func loadBasecallGroup(s store.Store, path string) (*basecallGroup, error) {
	g := &basecallGroup{path: path}
	if err := s.Read(store.Join(path, relHoleNumber), &g.holeNumbers); err != nil {
		return nil, err
	}
	if err := s.Read(store.Join(path, relNumEvent), &g.numEvent); err != nil {
		return nil, err
	}
	offsets, err := index.BuildOffsets(g.numEvent, g.holeNumbers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.offsets = offsets
	g.rows = make(map[int32]int, len(g.holeNumbers))
	for i, h := range g.holeNumbers {
		g.rows[h] = i
	}
	return g, nil
}

// Part reads a single physical file: a bax.h5 file or a single-part bas.h5
// file. Indexes are built when the part is opened; Zmw and ZmwRead views
// are created on demand and refer back to the part.
//
// A Part is not safe for concurrent use. After Close every view obtained from
// the part fails with ErrClosed.
type Part struct {
	path   string
	store  store.Store
	logger *Logger

	movieName string

	raw  *basecallGroup // nil without raw basecalls
	ccs  *basecallGroup // nil without consensus basecalls
	main *basecallGroup // raw if present, else ccs

	holeStatus []int32

	regions     []RegionRow
	regionIndex index.Regions

	metrics   *metriccache.Cache
	numPasses []int32 // loaded on first use

	sequencing    []int32
	sequencingSet *roaring.Bitmap

	closed bool
}

// OpenPart opens one physical bas.h5 or bax.h5 file, without following a
// multi-part declaration.
func OpenPart(path string, opts ...Option) (*Part, error) {
	return openPart(path, applyOptions(opts))
}

func openPart(path string, o *options) (*Part, error) {
	s, err := o.opener(path)
	if err != nil {
		return nil, err
	}
	p, err := newPart(path, s, o.logger.WithFile(path))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening part %s: %w", filepath.Base(path), err)
	}
	return p, nil
}

func newPart(path string, s store.Store, logger *Logger) (*Part, error) {
	p := &Part{path: path, store: s, logger: logger}

	var err error
	if s.Has(pathBaseCalls) {
		if p.raw, err = loadBasecallGroup(s, pathBaseCalls); err != nil {
			return nil, err
		}
	}
	if s.Has(pathConsensusBaseCalls) {
		if p.ccs, err = loadBasecallGroup(s, pathConsensusBaseCalls); err != nil {
			return nil, err
		}
	}
	switch {
	case p.raw != nil:
		p.main = p.raw
	case p.ccs != nil:
		p.main = p.ccs
	default:
		return nil, fmt.Errorf("%w: file has neither raw nor consensus basecalls", ErrCapabilityMissing)
	}

	if p.movieName, err = store.AttrString(s, pathMovieName); err != nil {
		return nil, fmt.Errorf("reading movie name: %w", err)
	}

	if err := s.Read(store.Join(p.main.path, relHoleStatus), &p.holeStatus); err != nil {
		return nil, err
	}
	if len(p.holeStatus) != len(p.main.holeNumbers) {
		return nil, fmt.Errorf("%d hole statuses for %d holes", len(p.holeStatus), len(p.main.holeNumbers))
	}

	var flat []int32
	if err := s.Read(pathRegions, &flat); err != nil {
		return nil, err
	}
	if p.regions, err = parseRegions(flat); err != nil {
		return nil, err
	}
	holes := make([]int32, len(p.regions))
	for i, r := range p.regions {
		holes[i] = r.Hole
	}
	if p.regionIndex, err = index.BuildRegions(holes); err != nil {
		return nil, fmt.Errorf("%s: %w", pathRegions, err)
	}

	p.metrics = metriccache.New(s, store.Join(p.main.path, relMetrics))
	p.buildSequencing()

	p.logger.LogPartOpen(p.movieName, len(p.main.holeNumbers), len(p.sequencing), len(p.regions),
		p.raw != nil, p.ccs != nil)
	return p, nil
}

// buildSequencing selects holes with sequencing status, at least one event
// and a non-empty HQ region, and reports holes with a malformed HQ annotation.
func (p *Part) buildSequencing() {
	p.sequencingSet = roaring.New()
	var (
		malformed int
		example   int32
		exampleN  int
	)
	for i, hole := range p.main.holeNumbers {
		hq, n := hqInterval(p.regionRows(hole))
		if n != 1 {
			if malformed == 0 {
				example, exampleN = hole, n
			}
			malformed++
		}
		if p.holeStatus[i] == sequencingStatus && p.main.numEvent[i] > 0 && hq.Len() > 0 {
			p.sequencing = append(p.sequencing, hole)
			p.sequencingSet.Add(uint32(hole))
		}
	}
	p.logger.LogMalformedHQ(malformed, example, exampleN)
}

// regionRows returns the shared region table rows of hole without copying.
func (p *Part) regionRows(hole int32) []RegionRow {
	r, ok := p.regionIndex[hole]
	if !ok {
		return nil
	}
	return p.regions[r.Begin:r.End:r.End]
}

func (p *Part) checkOpen() error {
	if p.closed {
		return ErrClosed
	}
	return nil
}

// group returns the basecall group a read kind resolves against.
func (p *Part) group(kind ReadKind) (*basecallGroup, error) {
	switch kind {
	case RawRead:
		if p.raw == nil {
			return nil, ErrNoRawBasecalls
		}
		return p.raw, nil
	case CCSRead:
		if p.ccs == nil {
			return nil, ErrNoConsensusBasecalls
		}
		return p.ccs, nil
	}
	return nil, fmt.Errorf("unknown read kind %d", kind)
}

// Path returns the file path the part was opened from.
func (p *Part) Path() string {
	return p.path
}

// MovieName returns the movie name prefixed to every read name.
func (p *Part) MovieName() string {
	return p.movieName
}

// HasRawBasecalls reports whether the file has /PulseData/BaseCalls.
func (p *Part) HasRawBasecalls() bool {
	return p.raw != nil
}

// HasConsensusBasecalls reports whether the file has /PulseData/ConsensusBaseCalls.
func (p *Part) HasConsensusBasecalls() bool {
	return p.ccs != nil
}

// Zmw returns the view of one hole.
func (p *Part) Zmw(hole int32) (*Zmw, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	row, ok := p.main.rows[hole]
	if !ok {
		return nil, fmt.Errorf("hole %d in %s: %w", hole, filepath.Base(p.path), ErrNotFound)
	}
	return &Zmw{part: p, hole: hole, row: row}, nil
}

// SequencingZmws returns the hole numbers that produced usable sequence:
// sequencing status, at least one event and a non-empty HQ region.
func (p *Part) SequencingZmws() []int32 {
	return append([]int32(nil), p.sequencing...)
}

// IsSequencing reports whether hole is in SequencingZmws.
func (p *Part) IsSequencing(hole int32) bool {
	return hole >= 0 && p.sequencingSet.Contains(uint32(hole))
}

// AllSequencingZmws returns every hole with sequencing status, whether or
// not it produced usable sequence. This is fixed per chip.
func (p *Part) AllSequencingZmws() []int32 {
	var out []int32
	for i, hole := range p.main.holeNumbers {
		if p.holeStatus[i] == sequencingStatus {
			out = append(out, hole)
		}
	}
	return out
}

// Len returns the number of usable holes.
func (p *Part) Len() int {
	return len(p.sequencing)
}

// Zmws iterates over the usable holes in file order.
func (p *Part) Zmws() iter.Seq2[*Zmw, error] {
	return zmwSeq(p.sequencing, p.Zmw)
}

// ListMetrics lists the ZMW metrics available in the file.
func (p *Part) ListMetrics() ([]string, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	return p.metrics.Names()
}

// ZmwMetric returns metric name for the hole at row of the hole-number array.
func (p *Part) ZmwMetric(name string, row int) (MetricValue, error) {
	if err := p.checkOpen(); err != nil {
		return MetricValue{}, err
	}
	return p.metrics.Get(name, row)
}

func (p *Part) loadNumPasses() ([]int32, error) {
	if p.numPasses == nil {
		var passes []int32
		if err := p.store.Read(store.Join(p.ccs.path, relNumPasses), &passes); err != nil {
			return nil, err
		}
		p.numPasses = passes
	}
	return p.numPasses, nil
}

// Close releases the file and the metric cache. Closing twice is a no-op.
func (p *Part) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.metrics.Reset()
	p.numPasses = nil
	err := p.store.Close()
	p.logger.LogClose(err)
	return err
}

func (p *Part) String() string {
	return fmt.Sprintf("<BaxH5Reader: %s>", filepath.Base(p.path))
}

// zmwSeq adapts a hole list and a lookup function into an iterator.
func zmwSeq(holes []int32, get func(int32) (*Zmw, error)) iter.Seq2[*Zmw, error] {
	return func(yield func(*Zmw, error) bool) {
		for _, hole := range holes {
			if !yield(get(hole)) {
				return
			}
		}
	}
}
