// Package placement positions EDUs over a classified grid.
//
// Four strategies are available: random sampling per level, an unbalanced
// raster sweep, a balanced sweep that enforces a minimum spacing between
// EDUs, and a restricted mode that repeats the balanced sweep and moves EDUs
// onto road zones until the budget is spent.
package placement

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// Algorithm selects a placement strategy. Values match the run config's
// edu_alg selector.
type Algorithm string

const (
	Random     Algorithm = "random"
	Unbalanced Algorithm = "balanced"
	Balanced   Algorithm = "enhanced"
	Restricted Algorithm = "restricted"
)

// ParseAlgorithm validates an edu_alg selector.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case Random, Unbalanced, Balanced, Restricted:
		return a, nil
	default:
		return "", eris.Errorf("placement: unknown algorithm %q", s)
	}
}

// Placer positions EDUs on a grid, replacing any previous placement.
type Placer interface {
	Name() string
	Place(ctx context.Context, g *grid.Grid) error
}

type options struct {
	rng       *rand.Rand
	maxRounds int
}

// Option configures a Placer.
type Option func(*options)

// WithRand sets the random source used by the random strategy.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithMaxRounds caps the rounds of the restricted strategy. Zero means no cap.
func WithMaxRounds(n int) Option {
	return func(o *options) { o.maxRounds = n }
}

// New returns the Placer for alg.
func New(alg Algorithm, opts ...Option) (Placer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	switch alg {
	case Random:
		rng := o.rng
		if rng == nil {
			rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
		return &randomPlacer{rng: rng}, nil
	case Unbalanced:
		return unbalancedPlacer{}, nil
	case Balanced:
		return balancedPlacer{}, nil
	case Restricted:
		return &restrictedPlacer{maxRounds: o.maxRounds}, nil
	default:
		return nil, eris.Errorf("placement: unknown algorithm %q", alg)
	}
}

// progress logs sweep progress at most once per second.
type progress struct {
	name  string
	total int
	limit rate.Sometimes
}

func newProgress(name string, total int) *progress {
	return &progress{name: name, total: total, limit: rate.Sometimes{Interval: time.Second}}
}

func (p *progress) report(done int) {
	p.limit.Do(func() {
		zap.L().Debug("placement: positioning EDUs",
			zap.String("algorithm", p.name),
			zap.Float64("percent", 100*float64(done)/float64(max(p.total, 1))),
		)
	})
}
