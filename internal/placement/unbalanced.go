package placement

import (
	"context"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// unbalancedPlacer sweeps the grid row by row and drops an EDU whenever the
// per-level column and row counters are both multiples of the level step.
type unbalancedPlacer struct{}

func (unbalancedPlacer) Name() string { return string(Unbalanced) }

func (unbalancedPlacer) Place(_ context.Context, g *grid.Grid) error {
	g.ResetEDUs()
	p := newPlan(g, g.Budget)
	prog := newProgress(string(Unbalanced), g.Height)

	stepX := make([]int, g.Levels+1)
	stepY := make([]int, g.Levels+1)
	seenInRow := make([]bool, g.Levels+1)

	for row := 0; row < g.Height; row++ {
		for lvl := 1; lvl <= g.Levels; lvl++ {
			stepX[lvl] = 0
			if seenInRow[lvl] {
				stepY[lvl]++
				seenInRow[lvl] = false
			}
		}

		for col := 0; col < g.Width; col++ {
			z := &g.Zones[row*g.Width+col]
			if !z.Inside {
				continue
			}

			lvl := z.Level
			seenInRow[lvl] = true
			if stepX[lvl]%p.step[lvl] == 0 && stepY[lvl]%p.step[lvl] == 0 {
				z.HasEDU = true
				g.EDUs[lvl] = append(g.EDUs[lvl], z.ID)
			}
			stepX[lvl]++
		}
		prog.report(row + 1)
	}
	return nil
}
