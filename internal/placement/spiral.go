package placement

import "github.com/sells-group/riskzones-cli/internal/grid"

// delta is one move of a spiral walk in grid rows and columns.
type delta struct {
	dRow, dCol int
}

// spiralPath returns the moves of an outward square spiral: runs of growing
// length alternating between the row and the column axis, changing direction
// after each pair, until the run length exceeds radius. At least the first
// ring is always produced.
func spiralPath(radius float64) []delta {
	var path []delta
	step := -1
	for {
		s, n := 1, step
		if step < 0 {
			s, n = -1, -step
		}
		for range n {
			path = append(path, delta{dRow: s})
		}
		for range n {
			path = append(path, delta{dCol: s})
		}

		step = -(step + s)
		if float64(n+1) > radius {
			break
		}
	}
	return path
}

// nearestRoad walks the spiral around zone from and returns the first zone
// inside the AoI that is a road and holds no EDU.
func nearestRoad(g *grid.Grid, from int, radius float64) (int, bool) {
	row, col := g.RowCol(from)
	for _, d := range spiralPath(radius) {
		row += d.dRow
		col += d.dCol
		id := g.ID(row, col)
		if id < 0 {
			continue
		}
		z := &g.Zones[id]
		if z.Inside && z.IsRoad && !z.HasEDU {
			return id, true
		}
	}
	return 0, false
}
