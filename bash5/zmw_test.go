package bash5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioFixture has three holes:
//
//	7: HQ (50, 950), inserts (40, 500) and (500, 960), adapters (30, 45) and (495, 505)
//	8: inserts but no HQ row
//	9: two HQ rows
func scenarioFixture() *fixture {
	f := newFixture(
		fixtureHole{hole: 7, raw: 1000, ccs: 300, passes: 4, score: 0.85, prod: 1},
		fixtureHole{hole: 8, raw: 400, ccs: 0, passes: 0, score: 0.1, prod: 0},
		fixtureHole{hole: 9, raw: 200, ccs: 50, passes: 2, score: 0.7, prod: 2},
	)
	f.region(7, Adapter, 30, 45).
		region(7, Insert, 40, 500).
		region(7, Adapter, 495, 505).
		region(7, Insert, 500, 960).
		hq(7, 50, 950)
	f.region(8, Insert, 0, 200).
		region(8, Insert, 220, 400)
	f.hq(9, 0, 100).
		hq(9, 20, 150).
		region(9, Insert, 10, 90)
	return f
}

func TestZmwRegions(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())

	z, err := r.Zmw(7)
	require.NoError(t, err)

	rows, err := z.RegionRows()
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	hq, err := z.HQRegion()
	require.NoError(t, err)
	assert.Equal(t, Interval{50, 950}, hq)

	inserts, err := z.InsertRegions()
	require.NoError(t, err)
	assert.Equal(t, []Interval{{50, 500}, {500, 950}}, inserts)

	adapters, err := z.AdapterRegions()
	require.NoError(t, err)
	assert.Equal(t, []Interval{{495, 505}}, adapters)

	for _, iv := range append(inserts, adapters...) {
		assert.True(t, hq.Contains(iv), "%v outside %v", iv, hq)
	}
}

func TestZmwMalformedHQ(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())

	tests := []struct {
		name string
		hole int32
	}{
		{"no HQ row", 8},
		{"two HQ rows", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := r.Zmw(tt.hole)
			require.NoError(t, err)

			hq, err := z.HQRegion()
			require.NoError(t, err)
			assert.Equal(t, Interval{}, hq)

			inserts, err := z.InsertRegions()
			require.NoError(t, err)
			assert.Empty(t, inserts)

			subreads, err := z.Subreads()
			require.NoError(t, err)
			assert.Empty(t, subreads)
		})
	}
}

func TestZmwHoleWithoutRegions(t *testing.T) {
	f := newFixture(
		fixtureHole{hole: 1, raw: 10},
		fixtureHole{hole: 2, raw: 10},
	).hq(1, 0, 10)
	r, _ := openFixture(t, f)

	z, err := r.Zmw(2)
	require.NoError(t, err)
	rows, err := z.RegionRows()
	require.NoError(t, err)
	assert.Empty(t, rows)
	hq, err := z.HQRegion()
	require.NoError(t, err)
	assert.Equal(t, Interval{}, hq)
}

func TestZmwSubreads(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())
	z, err := r.Zmw(7)
	require.NoError(t, err)

	subreads, err := z.Subreads()
	require.NoError(t, err)
	require.Len(t, subreads, 2)
	assert.Equal(t, testMovie+"/7/50_500", subreads[0].Name())
	assert.Equal(t, testMovie+"/7/500_950", subreads[1].Name())
	assert.Equal(t, 450, subreads[0].Len())

	adapters, err := z.Adapters()
	require.NoError(t, err)
	require.Len(t, adapters, 1)
	assert.Equal(t, testMovie+"/7/495_505", adapters[0].Name())

	again, err := z.Subreads()
	require.NoError(t, err)
	assert.Equal(t, subreads, again)
}

func TestZmwRead(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())
	z, err := r.Zmw(7)
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end *int32
		want       string
	}{
		{"defaults to HQ", nil, nil, "50_950"},
		{"start only", i32(100), nil, "100_950"},
		{"end only", nil, i32(60), "50_60"},
		{"whole hole", i32(0), i32(1000), "0_1000"},
		{"empty", i32(10), i32(10), "10_10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			read, err := z.Read(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, testMovie+"/7/"+tt.want, read.Name())
		})
	}
}

func TestZmwReadRangeErrors(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())
	z, err := r.Zmw(8)
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end int32
	}{
		{"past end", 300, 401},
		{"negative start", -1, 10},
		{"reversed", 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := z.ReadRange(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrRange)
		})
	}

	read, err := z.ReadRange(0, 400)
	require.NoError(t, err)
	assert.Equal(t, 400, read.Len())
}

func TestZmwCCSRead(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())

	z, err := r.Zmw(7)
	require.NoError(t, err)
	ccs, err := z.CCSRead()
	require.NoError(t, err)
	require.NotNil(t, ccs)
	assert.Equal(t, 300, ccs.Len())
	assert.Equal(t, CCSRead, ccs.Kind())
	assert.Equal(t, testMovie+"/7/ccs", ccs.Name())
	assert.Equal(t, "<CCSZmwRead: "+testMovie+"/7/ccs>", ccs.String())

	passes, err := z.NumPasses()
	require.NoError(t, err)
	assert.EqualValues(t, 4, passes)

	z, err = r.Zmw(8)
	require.NoError(t, err)
	ccs, err = z.CCSRead()
	require.NoError(t, err)
	assert.Nil(t, ccs)
}

func TestZmwCapabilities(t *testing.T) {
	t.Run("no raw basecalls", func(t *testing.T) {
		f := scenarioFixture()
		f.raw = false
		r, _ := openFixture(t, f)
		assert.False(t, r.HasRawBasecalls())
		assert.True(t, r.HasConsensusBasecalls())

		z, err := r.Zmw(7)
		require.NoError(t, err)

		_, err = z.Read(nil, nil)
		assert.ErrorIs(t, err, ErrNoRawBasecalls)
		assert.ErrorIs(t, err, ErrCapabilityMissing)
		assert.NotErrorIs(t, err, ErrNotFound)

		_, err = z.Subreads()
		assert.ErrorIs(t, err, ErrNoRawBasecalls)
		_, err = z.Adapters()
		assert.ErrorIs(t, err, ErrNoRawBasecalls)

		ccs, err := z.CCSRead()
		require.NoError(t, err)
		assert.Equal(t, 300, ccs.Len())

		// Metrics come from the consensus group when it is the only one.
		score, err := z.ReadScore()
		require.NoError(t, err)
		assert.InDelta(t, 0.85, score, 1e-6)
	})

	t.Run("no consensus basecalls", func(t *testing.T) {
		f := scenarioFixture()
		f.ccs = false
		r, _ := openFixture(t, f)
		assert.True(t, r.HasRawBasecalls())
		assert.False(t, r.HasConsensusBasecalls())

		z, err := r.Zmw(7)
		require.NoError(t, err)

		_, err = z.CCSRead()
		assert.ErrorIs(t, err, ErrNoConsensusBasecalls)
		assert.ErrorIs(t, err, ErrCapabilityMissing)
		_, err = z.NumPasses()
		assert.ErrorIs(t, err, ErrNoConsensusBasecalls)

		_, err = z.Read(nil, nil)
		assert.NoError(t, err)
	})

	t.Run("neither", func(t *testing.T) {
		f := scenarioFixture()
		f.raw, f.ccs = false, false
		_, err := Open("run.bax.h5", WithOpener(stores{"run.bax.h5": f.store()}.open))
		assert.ErrorIs(t, err, ErrCapabilityMissing)
	})
}

func TestZmwMetrics(t *testing.T) {
	r, m := openFixture(t, scenarioFixture())
	path := pathBaseCalls + "/" + relMetrics + "/" + metricReadScore

	z7, err := r.Zmw(7)
	require.NoError(t, err)
	z9, err := r.Zmw(9)
	require.NoError(t, err)

	score, err := z7.ReadScore()
	require.NoError(t, err)
	assert.InDelta(t, 0.85, score, 1e-6)
	score, err = z9.ReadScore()
	require.NoError(t, err)
	assert.InDelta(t, 0.7, score, 1e-6)
	assert.Equal(t, 1, m.Reads(path), "ReadScore should be read once")

	var direct []float32
	require.NoError(t, m.Read(path, &direct))
	assert.InDelta(t, float64(direct[2]), score, 0)

	prod, err := z9.Productivity()
	require.NoError(t, err)
	assert.Equal(t, 2, prod)

	snr, err := z9.Metric("HQRegionSNR")
	require.NoError(t, err)
	assert.False(t, snr.Scalar())
	assert.Equal(t, []float64{20, 21, 22, 23}, snr.Values())

	names, err := z7.ListMetrics()
	require.NoError(t, err)
	assert.Equal(t, []string{"HQRegionSNR", "Productivity", "ReadScore"}, names)

	_, err = z7.Metric("NoSuchMetric")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZmwNames(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())
	z, err := r.Zmw(7)
	require.NoError(t, err)

	assert.EqualValues(t, 7, z.HoleNumber())
	assert.Equal(t, testMovie+"/7", z.Name())
	assert.Equal(t, "<Zmw: "+testMovie+"/7>", z.String())

	read, err := z.ReadRange(50, 500)
	require.NoError(t, err)
	assert.Equal(t, "<ZmwRead: "+testMovie+"/7/50_500>", read.String())

	back, err := read.Zmw()
	require.NoError(t, err)
	assert.Equal(t, z.Name(), back.Name())
}

func TestZmwAfterClose(t *testing.T) {
	r, _ := openFixture(t, scenarioFixture())
	z, err := r.Zmw(7)
	require.NoError(t, err)
	read, err := z.ReadRange(50, 60)
	require.NoError(t, err)

	require.NoError(t, r.Close())

	_, err = z.HQRegion()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = z.Subreads()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = z.ReadScore()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = read.Basecalls()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = r.Zmw(7)
	assert.ErrorIs(t, err, ErrClosed)
}
