package bash5

import (
	"fmt"
	"strings"

	"github.com/robert-malhotra/go-bash5/store"
)

// ReadKind selects the basecall group a read resolves against.
type ReadKind int

const (
	// RawRead reads from /PulseData/BaseCalls.
	RawRead ReadKind = iota
	// CCSRead reads from /PulseData/ConsensusBaseCalls.
	CCSRead
)

func (k ReadKind) String() string {
	switch k {
	case RawRead:
		return "raw"
	case CCSRead:
		return "ccs"
	default:
		return fmt.Sprintf("ReadKind(%d)", int(k))
	}
}

// featureAliases maps public per-base feature names to stored dataset names.
var featureAliases = map[string]string{
	"IPD":             "PreBaseFrames",
	"PreBaseFrames":   "PreBaseFrames",
	"PulseWidth":      "WidthInFrames",
	"WidthInFrames":   "WidthInFrames",
	"QualityValue":    "QualityValue",
	"InsertionQV":     "InsertionQV",
	"DeletionQV":      "DeletionQV",
	"DeletionTag":     "DeletionTag",
	"MergeQV":         "MergeQV",
	"SubstitutionQV":  "SubstitutionQV",
	"SubstitutionTag": "SubstitutionTag",
}

// FeatureDataset returns the dataset name a feature is stored under. Names
// outside the alias table are returned unchanged.
func FeatureDataset(name string) string {
	if stored, ok := featureAliases[name]; ok {
		return stored
	}
	return name
}

// fastqOffset is the Phred+33 encoding offset.
const fastqOffset = 33

// Read is a bounds-checked span [Start, End) of a hole's events in one
// basecall group. Raw reads are named "movie/hole/start_end" and consensus
// reads "movie/hole/ccs".
type Read struct {
	part  *Part
	kind  ReadKind
	hole  int32
	start int32
	end   int32

	offsetBegin int64
	offsetEnd   int64
}

// newRead resolves [start, end) against the hole's offsets and refuses spans
// that leave the hole's own events.
func newRead(p *Part, kind ReadKind, hole, start, end int32) (*Read, error) {
	g, err := p.group(kind)
	if err != nil {
		return nil, err
	}
	zr, ok := g.offsets[hole]
	if !ok {
		return nil, fmt.Errorf("hole %d in %s basecalls: %w", hole, kind, ErrNotFound)
	}
	r := &Read{
		part:        p,
		kind:        kind,
		hole:        hole,
		start:       start,
		end:         end,
		offsetBegin: zr.Begin + int64(start),
		offsetEnd:   zr.Begin + int64(end),
	}
	if !(zr.Begin <= r.offsetBegin && r.offsetBegin <= r.offsetEnd && r.offsetEnd <= zr.End) {
		return nil, fmt.Errorf("%w: hole %d [%d, %d) with %d events", ErrRange, hole, start, end, zr.Len())
	}
	return r, nil
}

// Kind returns the basecall group the read belongs to.
func (r *Read) Kind() ReadKind {
	return r.kind
}

// HoleNumber returns the hole the read was taken from.
func (r *Read) HoleNumber() int32 {
	return r.hole
}

// Start returns the first event of the read, relative to the hole.
func (r *Read) Start() int32 {
	return r.start
}

// End returns the event after the last one of the read, relative to the hole.
func (r *Read) End() int32 {
	return r.end
}

// Len returns the number of events in the read.
func (r *Read) Len() int {
	return int(r.end - r.start)
}

// Name returns the read's display name.
func (r *Read) Name() string {
	if r.kind == CCSRead {
		return fmt.Sprintf("%s/%d/ccs", r.part.movieName, r.hole)
	}
	return fmt.Sprintf("%s/%d/%d_%d", r.part.movieName, r.hole, r.start, r.end)
}

func (r *Read) String() string {
	if r.kind == CCSRead {
		return fmt.Sprintf("<CCSZmwRead: %s>", r.Name())
	}
	return fmt.Sprintf("<ZmwRead: %s>", r.Name())
}

// Zmw returns the view of the hole the read belongs to.
func (r *Read) Zmw() (*Zmw, error) {
	return r.part.Zmw(r.hole)
}

// Basecalls returns the read's base symbols.
func (r *Read) Basecalls() (string, error) {
	var bases []uint8
	if err := r.slice("Basecall", &bases); err != nil {
		return "", err
	}
	return string(bases), nil
}

// Feature returns a per-base feature array, parallel to Basecalls. Public
// aliases such as IPD and PulseWidth are resolved to their stored names.
func (r *Read) Feature(name string) ([]int32, error) {
	var values []int32
	if err := r.slice(FeatureDataset(name), &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *Read) slice(dataset string, dest interface{}) error {
	if err := r.part.checkOpen(); err != nil {
		return err
	}
	g, err := r.part.group(r.kind)
	if err != nil {
		return err
	}
	path := store.Join(g.path, dataset)
	start := []uint64{uint64(r.offsetBegin)}
	count := []uint64{uint64(r.offsetEnd - r.offsetBegin)}
	if err := r.part.store.ReadSlice(path, start, count, dest); err != nil {
		return fmt.Errorf("reading %s of %s: %w", dataset, r.Name(), err)
	}
	return nil
}

// FASTA renders the read as a FASTA record.
func (r *Read) FASTA() (string, error) {
	bases, err := r.Basecalls()
	if err != nil {
		return "", err
	}
	return ">" + r.Name() + "\n" + bases + "\n", nil
}

// FASTQ renders the read as a FASTQ record with Phred+33 qualities taken from
// the QualityValue feature.
func (r *Read) FASTQ() (string, error) {
	bases, err := r.Basecalls()
	if err != nil {
		return "", err
	}
	qvs, err := r.Feature("QualityValue")
	if err != nil {
		return "", err
	}
	if len(qvs) != len(bases) {
		return "", fmt.Errorf("%s: %d quality values for %d bases", r.Name(), len(qvs), len(bases))
	}
	var b strings.Builder
	b.Grow(2*len(bases) + len(r.Name()) + 6)
	b.WriteString("@")
	b.WriteString(r.Name())
	b.WriteString("\n")
	b.WriteString(bases)
	b.WriteString("\n+\n")
	for _, q := range qvs {
		b.WriteByte(byte(min(max(q, 0), 93) + fastqOffset))
	}
	b.WriteString("\n")
	return b.String(), nil
}
