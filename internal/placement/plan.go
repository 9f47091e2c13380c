package placement

import (
	"math"

	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/risk"
)

// plan holds the per-level spacing parameters derived from a budget.
// Slices are indexed by level; index 0 is unused.
type plan struct {
	quotas  []int
	radius  []float64
	step    []int
	minDist []float64

	// smallest is the radius of the highest level, 1 when that radius is 0.
	smallest float64
	// window is the reverse search range over each level's EDUs. A candidate
	// is checked against the latest window-1 of them.
	window int
}

func newPlan(g *grid.Grid, budget int) *plan {
	counts := g.ZonesPerLevel()
	p := &plan{
		quotas:  risk.Quotas(counts, budget),
		radius:  make([]float64, g.Levels+1),
		step:    make([]int, g.Levels+1),
		minDist: make([]float64, g.Levels+1),
	}

	for lvl := 1; lvl <= g.Levels; lvl++ {
		q := max(p.quotas[lvl], 1)
		area := math.Round(float64(counts[lvl]) / float64(q))
		r := math.Sqrt(area) / 2

		p.radius[lvl] = r
		p.step[lvl] = int(math.Ceil(2*r + 1))
		p.minDist[lvl] = 2*r + 1
	}

	p.smallest = p.radius[g.Levels]
	if p.smallest == 0 {
		p.smallest = 1
	}
	p.window = int(math.Ceil(2 * float64(g.Width) / p.smallest))
	return p
}
