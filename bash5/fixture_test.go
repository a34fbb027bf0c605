package bash5

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-bash5/store"
)

const testMovie = "m110818_075520_42141_c100129202555500000315043109121112_s1_p0"

// fixtureHole describes one hole of a synthetic run file.
type fixtureHole struct {
	hole   int32
	status int32
	raw    int // raw events
	ccs    int // consensus events
	passes int32
	score  float32
	prod   uint8
}

// fixture builds an in-memory bax.h5 layout.
type fixture struct {
	movie   string
	raw     bool
	ccs     bool
	holes   []fixtureHole
	regions []RegionRow
}

func newFixture(holes ...fixtureHole) *fixture {
	return &fixture{movie: testMovie, raw: true, ccs: true, holes: holes}
}

func (f *fixture) region(hole int32, t RegionType, start, end int32) *fixture {
	f.regions = append(f.regions, RegionRow{Hole: hole, Type: t, Start: start, End: end})
	return f
}

// hq adds an HQ row.
func (f *fixture) hq(hole, start, end int32) *fixture {
	return f.region(hole, HighQuality, start, end)
}

// base returns the symbol stored at absolute event offset k.
func base(k int) byte {
	return "ACGT"[k%4]
}

// qv returns the QualityValue stored at absolute event offset k.
func qv(k int) int32 {
	return int32(k % 41)
}

// ipd returns the PreBaseFrames value stored at absolute event offset k.
func ipd(k int) int32 {
	return int32(1000 + k)
}

func (f *fixture) store() *store.Memory {
	m := store.NewMemory()
	m.PutGroup("/ScanData/RunInfo").SetAttr(pathMovieName, f.movie)

	n := len(f.holes)
	holeNumbers := make([]int32, n)
	status := make([]int32, n)
	for i, h := range f.holes {
		holeNumbers[i] = h.hole
		status[i] = h.status
	}

	putGroup := func(group string, events func(fixtureHole) int) {
		numEvent := make([]int32, n)
		total := 0
		for i, h := range f.holes {
			numEvent[i] = int32(events(h))
			total += events(h)
		}
		bases := make([]uint8, total)
		qvs := make([]uint8, total)
		ipds := make([]uint16, total)
		widths := make([]uint16, total)
		for k := range total {
			bases[k] = base(k)
			qvs[k] = uint8(qv(k))
			ipds[k] = uint16(ipd(k))
			widths[k] = uint16(k % 7)
		}
		m.Put(store.Join(group, relHoleNumber), holeNumbers).
			Put(store.Join(group, relNumEvent), numEvent).
			Put(store.Join(group, relHoleStatus), status).
			Put(store.Join(group, relBasecall), bases).
			Put(store.Join(group, "QualityValue"), qvs).
			Put(store.Join(group, "PreBaseFrames"), ipds).
			Put(store.Join(group, "WidthInFrames"), widths)
	}

	var main string
	if f.ccs {
		putGroup(pathConsensusBaseCalls, func(h fixtureHole) int { return h.ccs })
		passes := make([]int32, n)
		for i, h := range f.holes {
			passes[i] = h.passes
		}
		m.Put(store.Join(pathConsensusBaseCalls, relNumPasses), passes)
		main = pathConsensusBaseCalls
	}
	if f.raw {
		putGroup(pathBaseCalls, func(h fixtureHole) int { return h.raw })
		main = pathBaseCalls
	}
	if main != "" {
		scores := make([]float32, n)
		prods := make([]uint8, n)
		snr := make([]float32, 0, 4*n)
		for i, h := range f.holes {
			scores[i] = h.score
			prods[i] = h.prod
			for c := range 4 {
				snr = append(snr, float32(10*i+c))
			}
		}
		metrics := store.Join(main, relMetrics)
		m.Put(store.Join(metrics, metricReadScore), scores).
			Put(store.Join(metrics, metricProductivity), prods).
			Put(store.Join(metrics, "HQRegionSNR"), snr, uint64(n), 4)
	}

	flat := make([]int32, 0, regionColumns*len(f.regions))
	for _, r := range f.regions {
		flat = append(flat, r.Hole, int32(r.Type), r.Start, r.End, r.Score)
	}
	m.Put(pathRegions, flat, uint64(len(f.regions)), regionColumns)
	return m
}

// stores is an opener over a fixed set of in-memory files.
type stores map[string]*store.Memory

func (s stores) open(path string) (store.Store, error) {
	m, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, store.ErrNotFound)
	}
	return m, nil
}

func openFixture(t *testing.T, f *fixture) (*Reader, *store.Memory) {
	t.Helper()
	m := f.store()
	r, err := Open("run.bax.h5", WithOpener(stores{"run.bax.h5": m}.open))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, m
}

func i32(v int32) *int32 {
	return &v
}
