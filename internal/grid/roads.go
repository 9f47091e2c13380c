package grid

import (
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/geo"
)

// AddRoads rasterizes each road onto the grid and returns how many segments
// were drawn. Segments with an endpoint outside the bbox are skipped.
func (g *Grid) AddRoads(roads []Road) int {
	drawn := 0
	for _, r := range roads {
		if g.rasterize(r) {
			drawn++
		}
	}
	if skipped := len(roads) - drawn; skipped > 0 {
		zap.L().Debug("grid: skipped road segments outside bbox", zap.Int("skipped", skipped))
	}
	return drawn
}

// RoadCount returns the number of zones flagged as road.
func (g *Grid) RoadCount() int {
	n := 0
	for i := range g.Zones {
		if g.Zones[i].IsRoad {
			n++
		}
	}
	return n
}

func (g *Grid) rasterize(r Road) bool {
	if !g.Bounds.Contains(r.Start) || !g.Bounds.Contains(r.End) {
		return false
	}

	a := g.IDFromCoordinates(r.Start.Lat(), r.Start.Lon())
	b := g.IDFromCoordinates(r.End.Lat(), r.End.Lon())
	if !g.Valid(a) || !g.Valid(b) {
		return false
	}

	rowA, colA := g.RowCol(a)
	rowB, colB := g.RowCol(b)
	dCol, dRow := colB-colA, rowB-rowA

	if abs(dCol) >= abs(dRow) {
		g.walk(a, b, dCol, dRow, sign(dCol), g.Width*sign(dRow))
	} else {
		g.walk(a, b, dRow, dCol, g.Width*sign(dRow), sign(dCol))
	}

	g.Zones[a].IsRoad = true
	g.Zones[b].IsRoad = true
	return true
}

// walk steps from a toward b one zone at a time along the major axis while a
// fractional accumulator decides when to also step along the minor axis.
// The walk stops once the distance to b no longer decreases.
func (g *Grid) walk(a, b, dMajor, dMinor, majorStep, minorStep int) {
	if dMajor == 0 {
		return
	}

	var step float64
	if dMinor > 0 {
		step = float64(dMinor+1) / float64(abs(dMajor)+1)
	} else {
		step = float64(dMinor-1) / float64(abs(dMajor)+1)
	}

	target := g.Zones[b].Point()
	id := a
	acc := 0.0
	prev := geo.Distance(g.Zones[id].Point(), target)
	for id != b {
		id += majorStep
		acc += step
		if acc >= 1 || acc <= -1 {
			id += minorStep
			acc -= float64(sign(int(acc)))
		}
		if !g.Valid(id) {
			return
		}

		dist := geo.Distance(g.Zones[id].Point(), target)
		if dist > prev {
			return
		}
		g.Zones[id].IsRoad = true
		prev = dist
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
