package placement

import (
	"context"
	"math/rand/v2"

	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/risk"
)

// randomPlacer samples each level's quota uniformly, with replacement, from
// the zones of that level.
type randomPlacer struct {
	rng *rand.Rand
}

func (randomPlacer) Name() string { return string(Random) }

func (r *randomPlacer) Place(_ context.Context, g *grid.Grid) error {
	g.ResetEDUs()
	byLevel := g.ZonesByLevel()
	quotas := risk.EDUsPerLevel(g, g.Budget)

	for lvl := 1; lvl <= g.Levels; lvl++ {
		zones := byLevel[lvl]
		if len(zones) == 0 {
			continue
		}
		for range quotas[lvl] {
			id := zones[r.rng.IntN(len(zones))]
			g.Zones[id].HasEDU = true
			g.EDUs[lvl] = append(g.EDUs[lvl], id)
		}
	}
	return nil
}
