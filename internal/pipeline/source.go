package pipeline

import (
	"context"

	"github.com/sells-group/riskzones-cli/internal/osm"
)

// Source supplies the weighted PoIs and road segments of a run.
type Source interface {
	Extract(ctx context.Context) (*osm.Result, error)
}

// OSMSource reads PoIs and roads from an OSM XML export.
type OSMSource struct {
	Path    string
	Weights osm.Weights
}

func (s OSMSource) Extract(ctx context.Context) (*osm.Result, error) {
	return osm.ExtractFile(ctx, s.Path, s.Weights)
}

// StaticSource returns a fixed result.
type StaticSource struct {
	Result osm.Result
}

func (s StaticSource) Extract(_ context.Context) (*osm.Result, error) {
	res := s.Result
	return &res, nil
}
