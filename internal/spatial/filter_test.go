package spatial

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

var testBounds = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.01, 0.01}}

func newTestGrid(t *testing.T, n int) *grid.Grid {
	t.Helper()
	g, err := grid.New(testBounds, 1113.0/(float64(n)+0.5), 3, 4)
	require.NoError(t, err)
	require.NoError(t, g.InitZones(0))
	return g
}

// westHalf covers the western half of testBounds.
var westHalf = orb.Ring{{-1, -1}, {0.005, -1}, {0.005, 1}, {-1, 1}}

func TestFilter_Zones(t *testing.T) {
	g := newTestGrid(t, 10)
	f := NewFilter([]orb.Ring{westHalf}, 3)

	require.NoError(t, f.Zones(context.Background(), g))
	assert.Len(t, g.Inside, 50)
	assert.LessOrEqual(t, len(g.Inside), len(g.Zones))

	for _, id := range g.Inside {
		assert.GreaterOrEqual(t, id, 0)
		assert.Less(t, id, g.Width*g.Height)
		_, col := g.RowCol(id)
		assert.Less(t, col, 5)
	}
	for i := 1; i < len(g.Inside); i++ {
		assert.Less(t, g.Inside[i-1], g.Inside[i])
	}
}

func TestFilter_Zones_MultipleRings(t *testing.T) {
	g := newTestGrid(t, 10)
	south := orb.Ring{{-1, -1}, {1, -1}, {1, 0.002}, {-1, 0.002}}
	f := NewFilter([]orb.Ring{westHalf, south}, 2)

	require.NoError(t, f.Zones(context.Background(), g))
	// West half (50) plus the two southern rows of the east half (10).
	assert.Len(t, g.Inside, 60)
}

func TestFilter_Zones_NoOverlap(t *testing.T) {
	g := newTestGrid(t, 10)
	far := orb.Ring{{10, 10}, {11, 10}, {11, 11}, {10, 11}}
	f := NewFilter([]orb.Ring{far}, 2)

	require.NoError(t, f.Zones(context.Background(), g))
	assert.Empty(t, g.Inside)
}

func TestFilter_PoIs(t *testing.T) {
	g := newTestGrid(t, 10)
	f := NewFilter([]orb.Ring{westHalf}, 4)

	pois := []grid.PoI{
		{Lat: 0.001, Lon: 0.001, Weight: 2},
		{Lat: 0.001, Lon: 0.009, Weight: 1},
		{Lat: 0.008, Lon: 0.002, Weight: 3},
	}
	require.NoError(t, f.PoIs(context.Background(), g, pois))
	require.Len(t, g.PoIs, 2)
	assert.InDelta(t, 2.0, g.PoIs[0].Weight, 1e-12)
	assert.InDelta(t, 3.0, g.PoIs[1].Weight, 1e-12)
	for _, p := range g.PoIs {
		assert.True(t, p.Inside)
	}
	assert.False(t, pois[0].Inside, "input slice must not be mutated")
}

func TestNewFilter_CopiesRings(t *testing.T) {
	ring := orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	f := NewFilter([]orb.Ring{ring}, 1)
	ring[0] = orb.Point{5, 5}

	ids, err := f.Inside(context.Background(), []orb.Point{{0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, ids)
}
