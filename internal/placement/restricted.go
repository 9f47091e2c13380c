package placement

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// restrictedPlacer runs balanced sweeps in rounds. After each sweep every EDU
// off a road is moved to the nearest free road zone within its level radius,
// or dropped. Kept EDUs are final; the next round spreads what is left of
// the budget.
//
// A round that keeps nothing leaves the budget unchanged, so an AoI without
// reachable road zones never finishes unless maxRounds is set or ctx ends.
type restrictedPlacer struct {
	maxRounds int
}

func (restrictedPlacer) Name() string { return string(Restricted) }

func (r *restrictedPlacer) Place(ctx context.Context, g *grid.Grid) error {
	log := zap.L().With(zap.String("algorithm", string(Restricted)))

	final := make(map[int][]int, g.Levels)
	taken := make(map[int]bool)
	remaining := g.Budget

	for round := 0; remaining > 0; round++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrapf(err, "placement: restricted round %d", round)
		}
		if r.maxRounds > 0 && round >= r.maxRounds {
			log.Warn("placement: round limit reached before budget was spent",
				zap.Int("rounds", round),
				zap.Int("remaining", remaining),
			)
			break
		}

		g.ResetEDUs()
		for id := range taken {
			g.Zones[id].HasEDU = true
		}
		p := newPlan(g, remaining)
		sweepBalanced(g, p)

		kept, moved, dropped := 0, 0, 0
		for lvl := 1; lvl <= g.Levels; lvl++ {
			for _, id := range g.EDUs[lvl] {
				if !g.Zones[id].IsRoad {
					g.Zones[id].HasEDU = false
					nid, ok := nearestRoad(g, id, p.radius[lvl])
					if !ok {
						dropped++
						continue
					}
					g.Zones[nid].HasEDU = true
					id = nid
					moved++
				}
				final[lvl] = append(final[lvl], id)
				taken[id] = true
				kept++
			}
		}

		remaining -= kept
		log.Debug("placement: restricted round finished",
			zap.Int("round", round),
			zap.Int("kept", kept),
			zap.Int("moved", moved),
			zap.Int("dropped", dropped),
			zap.Int("remaining", remaining),
		)
	}

	g.ResetEDUs()
	for lvl := 1; lvl <= g.Levels; lvl++ {
		g.EDUs[lvl] = final[lvl]
		for _, id := range final[lvl] {
			g.Zones[id].HasEDU = true
		}
	}
	return nil
}
