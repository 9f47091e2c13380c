// Package risk scores the zones inside the AoI from weighted PoIs and
// discretizes the scores into risk levels.
package risk

import (
	"context"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/geo"
	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/spatial"
)

type score struct {
	id   int
	risk float64
}

// Classify computes the raw risk of every zone inside the AoI, normalizes the
// scores to [0, 1] and assigns each zone its risk level. It is a no-op when
// the grid holds no PoIs.
func Classify(ctx context.Context, g *grid.Grid, workers int) error {
	if len(g.PoIs) == 0 || len(g.Inside) == 0 {
		return nil
	}

	pois := slices.Clone(g.PoIs)
	ids := g.Inside
	zones := g.Zones

	shards, err := spatial.MapShards(ctx, len(ids), workers, func(lo, hi int) []score {
		out := make([]score, 0, hi-lo)
		for _, id := range ids[lo:hi] {
			out = append(out, score{id: id, risk: RawRisk(&zones[id], pois)})
		}
		return out
	})
	if err != nil {
		return err
	}

	for _, s := range shards {
		for _, sc := range s {
			g.Zones[sc.id].Risk = sc.risk
		}
	}

	Normalize(g)
	Levelize(g)

	zap.L().Info("risk: zones classified",
		zap.Int("zones", len(g.Inside)),
		zap.Int("pois", len(pois)),
		zap.Ints("zones_per_level", g.ZonesPerLevel()[1:]),
	)
	return nil
}

// RawRisk is 1 / sum(weight / distance^2) over pois. A PoI at distance zero
// contributes nothing; a zone with no contribution at all gets +Inf.
func RawRisk(z *grid.Zone, pois []grid.PoI) float64 {
	p := z.Point()
	sum := 0.0
	for _, poi := range pois {
		d := geo.Distance(p, poi.Point())
		if d == 0 {
			continue
		}
		sum += poi.Weight / (d * d)
	}
	if sum == 0 {
		return math.Inf(1)
	}
	return 1 / sum
}

// Normalize rescales the risk of the zones inside the AoI to [0, 1] with
// (v - min) / (max - min). When all values are equal the divisor is 1, so
// every zone collapses to 0. Infinite scores are left out of min and max and
// pinned to 1.
func Normalize(g *grid.Grid) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, id := range g.Inside {
		r := g.Zones[id].Risk
		if math.IsInf(r, 0) || math.IsNaN(r) {
			continue
		}
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	if math.IsInf(lo, 1) {
		// Nothing finite to scale against.
		for _, id := range g.Inside {
			g.Zones[id].Risk = 1
		}
		return
	}

	amplitude := hi - lo
	if amplitude == 0 {
		amplitude = 1
	}
	for _, id := range g.Inside {
		z := &g.Zones[id]
		if math.IsInf(z.Risk, 0) || math.IsNaN(z.Risk) {
			z.Risk = 1
			continue
		}
		z.Risk = (z.Risk - lo) / amplitude
	}
}

// Levelize assigns each zone inside the AoI a risk level from its normalized
// risk: level 1 for exactly zero risk, otherwise
// M - min(|trunc(ln(risk))|, M-1), clamped to [1, M].
func Levelize(g *grid.Grid) {
	for _, id := range g.Inside {
		g.Zones[id].Level = Level(g.Zones[id].Risk, g.Levels)
	}
}

// Level maps a normalized risk to a level in [1, levels].
func Level(risk float64, levels int) int {
	if risk == 0 {
		return 1
	}
	mag := math.Abs(math.Trunc(math.Log(risk)))
	rl := levels - int(math.Min(mag, float64(levels-1)))
	return max(1, min(rl, levels))
}

// Quotas splits budget across levels in proportion to level * zones in level:
// quota[i] = floor(budget * i * n[i] / sum(j * n[j])). zonesPerLevel and the
// result are indexed by level, index 0 unused. The quotas may add up to less
// than budget.
func Quotas(zonesPerLevel []int, budget int) []int {
	quotas := make([]int, len(zonesPerLevel))
	sum := 0
	for lvl := 1; lvl < len(zonesPerLevel); lvl++ {
		sum += lvl * zonesPerLevel[lvl]
	}
	if sum == 0 || budget <= 0 {
		return quotas
	}
	for lvl := 1; lvl < len(zonesPerLevel); lvl++ {
		quotas[lvl] = budget * lvl * zonesPerLevel[lvl] / sum
	}
	return quotas
}

// EDUsPerLevel returns the quotas of g for budget.
func EDUsPerLevel(g *grid.Grid, budget int) []int {
	return Quotas(g.ZonesPerLevel(), budget)
}
