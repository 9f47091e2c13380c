package spatial

import (
	"context"
	"slices"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/geo"
	"github.com/sells-group/riskzones-cli/internal/grid"
)

// Filter runs point-in-polygon tests against a fixed set of AoI rings.
type Filter struct {
	rings   []orb.Ring
	workers int
}

// NewFilter creates a Filter over a private copy of rings.
func NewFilter(rings []orb.Ring, workers int) *Filter {
	cp := make([]orb.Ring, len(rings))
	for i, r := range rings {
		cp[i] = slices.Clone(r)
	}
	return &Filter{rings: cp, workers: Workers(workers)}
}

// Inside returns the indexes of points lying inside any ring, ascending.
func (f *Filter) Inside(ctx context.Context, points []orb.Point) ([]int, error) {
	shards, err := MapShards(ctx, len(points), f.workers, func(lo, hi int) []int {
		var ids []int
		for i := lo; i < hi; i++ {
			if geo.PointInRings(points[i], f.rings) {
				ids = append(ids, i)
			}
		}
		return ids
	})
	if err != nil {
		return nil, err
	}

	var inside []int
	for _, s := range shards {
		inside = append(inside, s...)
	}
	return inside, nil
}

// Zones sets the inside flag of every zone and rebuilds g.Inside.
func (f *Filter) Zones(ctx context.Context, g *grid.Grid) error {
	points := make([]orb.Point, len(g.Zones))
	for i := range g.Zones {
		points[i] = g.Zones[i].Point()
	}

	inside, err := f.Inside(ctx, points)
	if err != nil {
		return err
	}

	for i := range g.Zones {
		g.Zones[i].Inside = false
	}
	for _, idx := range inside {
		g.Zones[idx].Inside = true
	}
	g.RefreshInside()

	zap.L().Info("spatial: zones inside AoI",
		zap.Int("inside", len(g.Inside)),
		zap.Int("zones", len(g.Zones)),
	)
	return nil
}

// PoIs keeps only the PoIs lying inside the AoI and stores them on g.
func (f *Filter) PoIs(ctx context.Context, g *grid.Grid, pois []grid.PoI) error {
	points := make([]orb.Point, len(pois))
	for i := range pois {
		points[i] = pois[i].Point()
	}

	inside, err := f.Inside(ctx, points)
	if err != nil {
		return err
	}

	g.PoIs = make([]grid.PoI, 0, len(inside))
	for _, idx := range inside {
		p := pois[idx]
		p.Inside = true
		g.PoIs = append(g.PoIs, p)
	}

	zap.L().Info("spatial: PoIs inside AoI",
		zap.Int("inside", len(g.PoIs)),
		zap.Int("pois", len(pois)),
	)
	return nil
}
