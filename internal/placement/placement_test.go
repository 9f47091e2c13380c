package placement

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

var testBounds = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{0.01, 0.01}}

// newLeveledGrid builds an n x n grid with every zone inside the AoI and the
// level chosen by level(row, col).
func newLeveledGrid(t *testing.T, n, levels, budget int, level func(row, col int) int) *grid.Grid {
	t.Helper()
	g, err := grid.New(testBounds, 1113.0/(float64(n)+0.5), levels, budget)
	require.NoError(t, err)
	require.NoError(t, g.InitZones(0))
	require.Equal(t, n, g.Width)
	require.Equal(t, n, g.Height)
	for i := range g.Zones {
		row, col := g.RowCol(i)
		g.Zones[i].Level = level(row, col)
	}
	return g
}

func flat(lvl int) func(int, int) int {
	return func(int, int) int { return lvl }
}

func placedIDs(g *grid.Grid) []int {
	var ids []int
	for lvl := 1; lvl <= g.Levels; lvl++ {
		ids = append(ids, g.EDUs[lvl]...)
	}
	return ids
}

func TestParseAlgorithm(t *testing.T) {
	for _, s := range []string{"random", "balanced", "enhanced", "restricted"} {
		a, err := ParseAlgorithm(s)
		require.NoError(t, err)
		assert.Equal(t, Algorithm(s), a)
	}
	_, err := ParseAlgorithm("greedy")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tests := []struct {
		alg  Algorithm
		name string
	}{
		{Random, "random"},
		{Unbalanced, "balanced"},
		{Balanced, "enhanced"},
		{Restricted, "restricted"},
	}
	for _, tt := range tests {
		p, err := New(tt.alg)
		require.NoError(t, err)
		assert.Equal(t, tt.name, p.Name())
	}

	_, err := New(Algorithm("nope"))
	assert.Error(t, err)
}

func TestNewPlan(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	p := newPlan(g, 4)

	assert.Equal(t, []int{0, 4}, p.quotas)
	assert.InDelta(t, 2.5, p.radius[1], 1e-12)
	assert.Equal(t, 6, p.step[1])
	assert.InDelta(t, 6.0, p.minDist[1], 1e-12)
	assert.InDelta(t, 2.5, p.smallest, 1e-12)
	assert.Equal(t, 8, p.window)
}

func TestNewPlan_EmptyLevel(t *testing.T) {
	g := newLeveledGrid(t, 10, 3, 4, flat(1))
	p := newPlan(g, 4)

	assert.Equal(t, 0, p.quotas[3])
	assert.InDelta(t, 0.0, p.radius[3], 1e-12)
	// The highest level has no zones, so its radius is floored to 1.
	assert.InDelta(t, 1.0, p.smallest, 1e-12)
	assert.Equal(t, 20, p.window)
}

func TestNewPlan_SubUnitRadius(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 100, flat(1))
	p := newPlan(g, 100)

	assert.InDelta(t, 0.5, p.radius[1], 1e-12)
	assert.InDelta(t, 2.0, p.minDist[1], 1e-12)
	assert.InDelta(t, 0.5, p.smallest, 1e-12)
	assert.Equal(t, 40, p.window)
}

func TestRandom(t *testing.T) {
	// Level 2 has no zones at all.
	g := newLeveledGrid(t, 10, 3, 12, func(row, _ int) int {
		if row < 5 {
			return 1
		}
		return 3
	})

	p, err := New(Random, WithRand(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	// Quotas: sum = 1*50 + 3*50 = 200 -> level 1: 3, level 3: 9.
	assert.Len(t, g.EDUs[1], 3)
	assert.Empty(t, g.EDUs[2])
	assert.Len(t, g.EDUs[3], 9)

	for lvl := 1; lvl <= g.Levels; lvl++ {
		for _, id := range g.EDUs[lvl] {
			assert.Equal(t, lvl, g.Zones[id].Level)
			assert.True(t, g.Zones[id].HasEDU)
		}
	}
}

func TestRandom_Deterministic(t *testing.T) {
	run := func() []int {
		g := newLeveledGrid(t, 10, 2, 10, func(_, col int) int { return 1 + col%2 })
		p, err := New(Random, WithRand(rand.New(rand.NewPCG(7, 7))))
		require.NoError(t, err)
		require.NoError(t, p.Place(context.Background(), g))
		return placedIDs(g)
	}
	assert.Equal(t, run(), run())
}

func TestUnbalanced_SingleLevel(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	p, err := New(Unbalanced)
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	want := []int{g.ID(0, 0), g.ID(0, 6), g.ID(6, 0), g.ID(6, 6)}
	assert.Equal(t, want, g.EDUs[1])
	for _, id := range want {
		assert.True(t, g.Zones[id].HasEDU)
	}
}

func TestUnbalanced_SkipsOutside(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	for i := range g.Zones {
		if _, col := g.RowCol(i); col < 2 {
			g.Zones[i].Inside = false
		}
	}
	g.RefreshInside()

	p, err := New(Unbalanced)
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	require.NotEmpty(t, g.EDUs[1])
	for _, id := range g.EDUs[1] {
		assert.True(t, g.Zones[id].Inside)
	}
	assert.Equal(t, g.ID(0, 2), g.EDUs[1][0])
}

func TestBalanced_SingleLevel(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	p, err := New(Balanced)
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	want := []int{g.ID(2, 0), g.ID(2, 6), g.ID(8, 0), g.ID(8, 6)}
	assert.Equal(t, want, g.EDUs[1])
}

func TestBalanced_SubUnitRadiusStartsAtFirstRow(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 100, flat(1))
	p, err := New(Balanced)
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	var firstRow []int
	for _, id := range g.EDUs[1] {
		if row, _ := g.RowCol(id); row == 0 {
			firstRow = append(firstRow, id)
		}
	}
	assert.Equal(t, []int{g.ID(0, 0), g.ID(0, 2), g.ID(0, 4), g.ID(0, 6), g.ID(0, 8)}, firstRow)
	assert.Len(t, g.EDUs[1], 25)
}

func TestBalanced_MinimumSpacing(t *testing.T) {
	for _, tt := range []struct{ n, budget int }{
		{10, 4}, {20, 5}, {20, 16}, {30, 9}, {30, 40}, {25, 3},
	} {
		g := newLeveledGrid(t, tt.n, 1, tt.budget, flat(1))
		spacing := newPlan(g, tt.budget).minDist[1]

		p, err := New(Balanced)
		require.NoError(t, err)
		require.NoError(t, p.Place(context.Background(), g))

		ids := g.EDUs[1]
		require.NotEmpty(t, ids)
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				assert.GreaterOrEqual(t, g.GridDistance(ids[i], ids[j]), spacing,
					"n=%d budget=%d: EDUs %d and %d too close", tt.n, tt.budget, ids[i], ids[j])
			}
		}
	}
}

func TestBalanced_OnlyInsideZones(t *testing.T) {
	g := newLeveledGrid(t, 20, 2, 8, func(row, _ int) int { return 1 + row%2 })
	for i := range g.Zones {
		if row, col := g.RowCol(i); row+col < 10 {
			g.Zones[i].Inside = false
		}
	}
	g.RefreshInside()

	p, err := New(Balanced)
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))

	seen := map[int]bool{}
	for lvl := 1; lvl <= g.Levels; lvl++ {
		for _, id := range g.EDUs[lvl] {
			assert.True(t, g.Zones[id].Inside)
			assert.Equal(t, lvl, g.Zones[id].Level)
			assert.False(t, seen[id], "zone %d holds two EDUs", id)
			seen[id] = true
		}
	}
}

func TestTry_Outcomes(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	p := newPlan(g, 4)

	assert.Equal(t, outOfBounds, p.try(g, -1))
	assert.Equal(t, outOfBounds, p.try(g, len(g.Zones)))
	assert.Equal(t, placed, p.try(g, g.ID(0, 0)))
	assert.Equal(t, rejected, p.try(g, g.ID(0, 0)), "zone already holds an EDU")
	assert.Equal(t, rejected, p.try(g, g.ID(0, 5)), "closer than the spacing")
	assert.Equal(t, placed, p.try(g, g.ID(0, 6)))

	g.Zones[g.ID(9, 9)].Inside = false
	assert.Equal(t, rejected, p.try(g, g.ID(9, 9)))
}

func TestTry_SearchWindow(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	p := newPlan(g, 4)
	require.Equal(t, 8, p.window)

	far := g.ID(9, 9)
	near := g.ID(0, 0)

	// Six later EDUs keep the near one within the latest window-1.
	g.EDUs[1] = []int{near, far, far, far, far, far, far}
	assert.Equal(t, rejected, p.try(g, g.ID(0, 1)))

	// A seventh pushes it out of range.
	g.EDUs[1] = append(g.EDUs[1], far)
	assert.Equal(t, placed, p.try(g, g.ID(0, 1)))
}

// roadEvery flags every third row of g as road.
func roadEvery(g *grid.Grid) {
	for i := range g.Zones {
		if row, _ := g.RowCol(i); row%3 == 0 {
			g.Zones[i].IsRoad = true
		}
	}
}

func TestRestricted_OnlyRoads(t *testing.T) {
	for _, budget := range []int{1, 4, 6, 15} {
		g := newLeveledGrid(t, 20, 2, budget, func(_, col int) int { return 1 + col/10 })
		roadEvery(g)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p, err := New(Restricted, WithMaxRounds(100))
		require.NoError(t, err)
		require.NoError(t, p.Place(ctx, g))
		cancel()

		ids := placedIDs(g)
		assert.GreaterOrEqual(t, len(ids), budget)
		seen := map[int]bool{}
		for _, id := range ids {
			assert.True(t, g.Zones[id].IsRoad, "budget %d: EDU on non-road zone %d", budget, id)
			assert.True(t, g.Zones[id].HasEDU)
			assert.False(t, seen[id], "zone %d holds two EDUs", id)
			seen[id] = true
		}
	}
}

func TestRestricted_NoRoadsRoundLimit(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))

	p, err := New(Restricted, WithMaxRounds(3))
	require.NoError(t, err)
	require.NoError(t, p.Place(context.Background(), g))
	assert.Equal(t, 0, g.EDUCount())
}

func TestRestricted_Cancelled(t *testing.T) {
	g := newLeveledGrid(t, 10, 1, 4, flat(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := New(Restricted)
	require.NoError(t, err)
	assert.Error(t, p.Place(ctx, g))
}
