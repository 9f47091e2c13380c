// Package pipeline sequences one classification run: grid construction,
// AoI filtering, risk classification or snapshot reuse, road rasterization
// and EDU placement.
package pipeline

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/aoi"
	"github.com/sells-group/riskzones-cli/internal/config"
	"github.com/sells-group/riskzones-cli/internal/grid"
	"github.com/sells-group/riskzones-cli/internal/placement"
	"github.com/sells-group/riskzones-cli/internal/report"
	"github.com/sells-group/riskzones-cli/internal/risk"
	"github.com/sells-group/riskzones-cli/internal/snapshot"
	"github.com/sells-group/riskzones-cli/internal/spatial"
)

// Pipeline runs one classification for a run config.
type Pipeline struct {
	cfg    *config.Config
	run    *config.RunConfig
	source Source
	store  snapshot.Store
	placer placement.Placer
}

// New creates a Pipeline. store may be nil to disable snapshots.
func New(cfg *config.Config, run *config.RunConfig, source Source, store snapshot.Store, placer placement.Placer) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		run:    run,
		source: source,
		store:  store,
		placer: placer,
	}
}

// Result is the outcome of a run.
type Result struct {
	RunID   string
	Grid    *grid.Grid
	Metrics *report.Metrics
}

// Run executes every stage and returns the populated grid with its metrics.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID), zap.String("config", p.run.Path))
	log.Info("pipeline: starting run", zap.String("algorithm", p.placer.Name()))

	// Soft limit for the whole run; InitZones enforces the hard ceiling.
	if limit := p.cfg.Engine.MemoryLimitBytes(); limit > 0 {
		prev := debug.SetMemoryLimit(limit)
		defer debug.SetMemoryLimit(prev)
	}

	rings, err := p.loadAoI(log)
	if err != nil {
		return nil, err
	}

	g, err := p.buildGrid(rings)
	if err != nil {
		return nil, err
	}
	log.Info("pipeline: grid ready",
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Int("zones", g.Size()),
		zap.Int("polygon_points", g.PolygonPoints()),
	)

	extracted, err := p.source.Extract(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract pois")
	}

	metrics := &report.Metrics{RunID: runID}

	start := time.Now()
	loaded, err := p.loadSnapshot(ctx, g)
	if err != nil {
		return nil, err
	}
	if !loaded {
		if err := p.classify(ctx, g, rings, extracted.PoIs); err != nil {
			return nil, err
		}
	}
	metrics.SnapshotUsed = loaded
	metrics.TimeClassification = time.Since(start).Seconds()
	log.Info("pipeline: classification complete",
		zap.Bool("snapshot", loaded),
		zap.Int("zones_inside", len(g.Inside)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !loaded {
		p.saveSnapshot(ctx, log, runID, g)
	}

	start = time.Now()
	g.AddRoads(extracted.Roads)
	log.Info("pipeline: roads rasterized",
		zap.Int("segments", len(extracted.Roads)),
		zap.Int("road_zones", len(g.RoadZones())),
	)

	if err := p.placer.Place(ctx, g); err != nil {
		return nil, eris.Wrap(err, "pipeline: place edus")
	}
	metrics.TimePositioning = time.Since(start).Seconds()

	metrics.Zones = len(g.Inside)
	metrics.PoIs = len(g.PoIs)
	metrics.Roads = len(g.RoadZones())
	metrics.EDUs = g.EDUCount()
	metrics.EDUsPerLevel = make([]int, g.Levels)
	for lvl := 1; lvl <= g.Levels; lvl++ {
		metrics.EDUsPerLevel[lvl-1] = len(g.EDUs[lvl])
	}
	log.Info("pipeline: edus placed",
		zap.Int("edus", metrics.EDUs),
		zap.Ints("edus_per_level", metrics.EDUsPerLevel),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{RunID: runID, Grid: g, Metrics: metrics}, nil
}

// loadAoI reads the AoI rings. A missing AoI is not an error: the run then
// classifies the whole bbox with every PoI.
func (p *Pipeline) loadAoI(log *zap.Logger) ([]orb.Ring, error) {
	if p.run.GeoJSON == "" {
		log.Warn("pipeline: no AoI file configured, not filtering by polygon")
		return nil, nil
	}

	rings, err := aoi.Load(p.run.GeoJSON)
	if eris.Is(err, aoi.ErrNotFound) {
		log.Warn("pipeline: AoI file not found, not filtering by polygon", zap.String("path", p.run.GeoJSON))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("pipeline: AoI loaded", zap.Int("rings", len(rings)))
	return rings, nil
}

func (p *Pipeline) buildGrid(rings []orb.Ring) (*grid.Grid, error) {
	if !p.run.HasBounds() {
		if len(rings) == 0 {
			return nil, eris.Wrap(grid.ErrDegenerateGrid, "pipeline: bbox is unset and no AoI was loaded")
		}
		p.run.SetBounds(aoi.Bounds(rings))
	}

	g, err := grid.New(p.run.Bounds(), p.run.ZoneSize, p.run.Levels, p.run.EDUs)
	if err != nil {
		return nil, err
	}

	if err := g.InitZones(p.cfg.Engine.MemoryLimitBytes()); err != nil {
		return nil, err
	}
	g.SetPolygons(rings)
	return g, nil
}

// loadSnapshot replaces the zones of g with the stored snapshot when
// caching is enabled and one exists.
func (p *Pipeline) loadSnapshot(ctx context.Context, g *grid.Grid) (bool, error) {
	if !p.run.CacheZones || p.store == nil {
		return false, nil
	}

	zones, ok, err := p.store.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := g.LoadZones(zones); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pipeline) classify(ctx context.Context, g *grid.Grid, rings []orb.Ring, pois []grid.PoI) error {
	workers := spatial.Workers(p.cfg.Engine.Workers)

	if len(rings) > 0 {
		filter := spatial.NewFilter(rings, workers)
		if err := filter.Zones(ctx, g); err != nil {
			return eris.Wrap(err, "pipeline: filter zones")
		}
		if len(g.Inside) == 0 {
			return eris.Wrap(grid.ErrNoZonesInAoI, "pipeline: filter zones")
		}
		if err := filter.PoIs(ctx, g, pois); err != nil {
			return eris.Wrap(err, "pipeline: filter pois")
		}
		if len(g.PoIs) == 0 {
			return eris.Wrap(grid.ErrNoPoisInAoI, "pipeline: filter pois")
		}
	} else {
		g.PoIs = make([]grid.PoI, len(pois))
		for i, poi := range pois {
			poi.Inside = true
			g.PoIs[i] = poi
		}
	}

	return eris.Wrap(risk.Classify(ctx, g, workers), "pipeline: classify")
}

// saveSnapshot stores the classified zones when caching is enabled and no
// snapshot exists yet. Failures are logged; the run goes on.
func (p *Pipeline) saveSnapshot(ctx context.Context, log *zap.Logger, runID string, g *grid.Grid) {
	if !p.run.CacheZones || p.store == nil {
		return
	}
	if _, exists, err := p.store.Info(ctx); err != nil || exists {
		return
	}
	if err := p.store.Save(ctx, runID, g.Zones); err != nil {
		log.Warn("pipeline: failed to save snapshot", zap.Error(err))
		return
	}
	log.Info("pipeline: snapshot saved", zap.Int("zones", len(g.Zones)))
}
