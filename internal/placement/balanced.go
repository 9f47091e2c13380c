package placement

import (
	"context"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// outcome is the result of trying to place an EDU in one zone.
type outcome int

const (
	placed outcome = iota
	rejected
	outOfBounds
)

// balancedPlacer sweeps the grid and places an EDU in every zone that keeps
// the candidate level's minimum spacing from recently placed EDUs.
type balancedPlacer struct{}

func (balancedPlacer) Name() string { return string(Balanced) }

func (balancedPlacer) Place(_ context.Context, g *grid.Grid) error {
	g.ResetEDUs()
	sweepBalanced(g, newPlan(g, g.Budget))
	return nil
}

// sweepBalanced runs one balanced sweep over g, appending to g.EDUs.
func sweepBalanced(g *grid.Grid, p *plan) {
	prog := newProgress(string(Balanced), g.Height)
	jump := max(int(2*p.smallest), 1)

	for row := int(p.smallest); row < g.Height; row++ {
		col := 0
		for col < g.Width {
			switch p.try(g, g.ID(row, col)) {
			case placed:
				col += jump
			case rejected:
				col++
			case outOfBounds:
				col = g.Width
			}
		}
		prog.report(row + 1)
	}
}

// try places an EDU in zone id unless the zone is unusable or an EDU among
// the latest window-1 of any level is closer than the zone level's spacing.
func (p *plan) try(g *grid.Grid, id int) outcome {
	if !g.Valid(id) {
		return outOfBounds
	}
	z := &g.Zones[id]
	if !z.Inside || z.HasEDU {
		return rejected
	}

	limit := p.minDist[z.Level]
	for lvl := 1; lvl <= g.Levels; lvl++ {
		edus := g.EDUs[lvl]
		for i := len(edus) - 1; i >= 0 && i > len(edus)-p.window; i-- {
			if g.GridDistance(id, edus[i]) < limit {
				return rejected
			}
		}
	}

	z.HasEDU = true
	g.EDUs[z.Level] = append(g.EDUs[z.Level], id)
	return placed
}
