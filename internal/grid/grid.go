// Package grid models the uniform zone grid that covers an AoI bounding box.
//
// Zones are stored in a flat slice indexed by id, with id = row*Width + col.
// Row 0 is the southern edge of the bbox and column 0 the western edge.
package grid

import (
	"math"
	"slices"
	"unsafe"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/riskzones-cli/internal/geo"
)

// Zone is one cell of the grid.
type Zone struct {
	ID     int
	Lat    float64
	Lon    float64
	Risk   float64
	Level  int
	Inside bool
	HasEDU bool
	IsRoad bool
}

// Point returns the zone center as an orb.Point.
func (z *Zone) Point() orb.Point { return orb.Point{z.Lon, z.Lat} }

// PoI is a weighted point of interest.
type PoI struct {
	Lat    float64
	Lon    float64
	Weight float64
	Inside bool
}

// Point returns the PoI location as an orb.Point.
func (p PoI) Point() orb.Point { return orb.Point{p.Lon, p.Lat} }

// Road is a single road segment between two coordinates.
type Road struct {
	Start orb.Point
	End   orb.Point
}

// Grid owns the zones of an AoI and every per-run structure derived from them.
type Grid struct {
	Bounds   orb.Bound
	ZoneSize float64
	Width    int
	Height   int
	Levels   int
	Budget   int

	Zones    []Zone
	Inside   []int
	Polygons []orb.Ring
	PoIs     []PoI

	// EDUs holds the zone ids of placed EDUs keyed by risk level 1..Levels.
	EDUs map[int][]int

	spanLat float64
	spanLon float64
}

// New builds an empty grid for bounds split into zones of zoneSize meters.
// The width follows the top edge and the height the left edge of the bbox.
func New(bounds orb.Bound, zoneSize float64, levels, budget int) (*Grid, error) {
	if zoneSize <= 0 {
		return nil, eris.Wrapf(ErrDegenerateGrid, "zone size %.2f", zoneSize)
	}
	if levels < 1 {
		return nil, eris.Wrapf(ErrDegenerateGrid, "%d risk levels", levels)
	}

	topLeft := orb.Point{bounds.Left(), bounds.Top()}
	w := geo.Distance(topLeft, orb.Point{bounds.Right(), bounds.Top()})
	h := geo.Distance(topLeft, orb.Point{bounds.Left(), bounds.Bottom()})

	g := &Grid{
		Bounds:   bounds,
		ZoneSize: zoneSize,
		Width:    int(math.Floor(w / zoneSize)),
		Height:   int(math.Floor(h / zoneSize)),
		Levels:   levels,
		Budget:   budget,
		EDUs:     make(map[int][]int, levels),
	}
	if g.Width <= 0 || g.Height <= 0 {
		return nil, eris.Wrapf(ErrDegenerateGrid, "%dx%d zones for %.0fm x %.0fm", g.Width, g.Height, w, h)
	}

	g.spanLon = bounds.Right() - bounds.Left()
	g.spanLat = bounds.Top() - bounds.Bottom()
	g.ResetEDUs()
	return g, nil
}

// Size returns the number of zones in the grid.
func (g *Grid) Size() int { return g.Width * g.Height }

// EstimatedBytes is the memory needed by the zone array.
func (g *Grid) EstimatedBytes() int64 {
	return int64(g.Size()) * int64(unsafe.Sizeof(Zone{}))
}

// InitZones allocates every zone with its center at the middle of its cell.
// All zones start inside the AoI with risk 1 and the highest level. A
// positive memLimit caps the size of the zone array in bytes.
func (g *Grid) InitZones(memLimit int64) error {
	if memLimit > 0 && g.EstimatedBytes() > memLimit {
		return eris.Wrapf(ErrResourceExhausted, "%d zones need %d bytes, limit is %d", g.Size(), g.EstimatedBytes(), memLimit)
	}

	halfLat := g.spanLat / float64(g.Height) / 2
	halfLon := g.spanLon / float64(g.Width) / 2

	g.Zones = make([]Zone, g.Size())
	g.Inside = make([]int, g.Size())
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			id := row*g.Width + col
			g.Zones[id] = Zone{
				ID:     id,
				Lat:    float64(row)/float64(g.Height)*g.spanLat + g.Bounds.Bottom() + halfLat,
				Lon:    float64(col)/float64(g.Width)*g.spanLon + g.Bounds.Left() + halfLon,
				Risk:   1.0,
				Level:  g.Levels,
				Inside: true,
			}
			g.Inside[id] = id
		}
	}

	zap.L().Debug("grid: zones initialized",
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.Int("zones", len(g.Zones)),
	)
	return nil
}

// LoadZones replaces the zone array with zones restored from a snapshot.
// The snapshot must hold exactly one zone per id of this grid.
func (g *Grid) LoadZones(zones []Zone) error {
	if len(zones) != g.Size() {
		return eris.Wrapf(ErrSnapshotCorrupted, "snapshot has %d zones, grid has %d", len(zones), g.Size())
	}
	sorted := slices.Clone(zones)
	slices.SortFunc(sorted, func(a, b Zone) int { return a.ID - b.ID })
	for i := range sorted {
		if sorted[i].ID != i {
			return eris.Wrapf(ErrSnapshotCorrupted, "zone id %d at position %d", sorted[i].ID, i)
		}
		if sorted[i].Level < 1 || sorted[i].Level > g.Levels {
			return eris.Wrapf(ErrSnapshotCorrupted, "zone %d has level %d", i, sorted[i].Level)
		}
	}
	g.Zones = sorted
	g.RefreshInside()
	return nil
}

// RefreshInside rebuilds the ascending list of zone ids inside the AoI.
func (g *Grid) RefreshInside() {
	g.Inside = g.Inside[:0]
	for i := range g.Zones {
		if g.Zones[i].Inside {
			g.Inside = append(g.Inside, g.Zones[i].ID)
		}
	}
}

// SetPolygons replaces the AoI rings.
func (g *Grid) SetPolygons(rings []orb.Ring) {
	g.Polygons = slices.Clone(rings)
}

// PolygonPoints returns the number of vertices over all AoI rings.
func (g *Grid) PolygonPoints() int {
	n := 0
	for _, r := range g.Polygons {
		n += len(r)
	}
	return n
}

// Valid reports whether id addresses a zone of the grid.
func (g *Grid) Valid(id int) bool { return id >= 0 && id < len(g.Zones) }

// RowCol splits a zone id into its row and column.
func (g *Grid) RowCol(id int) (row, col int) { return id / g.Width, id % g.Width }

// ID joins a row and column into a zone id. It returns -1 when the cell is
// outside the grid.
func (g *Grid) ID(row, col int) int {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return -1
	}
	return row*g.Width + col
}

// IDFromCoordinates maps a coordinate to the id of the zone containing it.
// Points on the east or north edge of the bbox belong to the last column or
// row. Coordinates outside the bbox yield ids the caller must check with
// Valid.
func (g *Grid) IDFromCoordinates(lat, lon float64) int {
	propX := (lon - g.Bounds.Left()) / math.Abs(g.spanLon)
	propY := (lat - g.Bounds.Bottom()) / math.Abs(g.spanLat)
	col := int(propX * float64(g.Width))
	row := int(propY * float64(g.Height))
	if col == g.Width && lon <= g.Bounds.Right() {
		col--
	}
	if row == g.Height && lat <= g.Bounds.Top() {
		row--
	}
	return row*g.Width + col
}

// GridDistance is the euclidean distance between two zones in zone units.
func (g *Grid) GridDistance(a, b int) float64 {
	ra, ca := g.RowCol(a)
	rb, cb := g.RowCol(b)
	return math.Hypot(float64(cb-ca), float64(rb-ra))
}

// ZonesPerLevel counts zones inside the AoI by level. The result is indexed
// by level, so index 0 is always zero.
func (g *Grid) ZonesPerLevel() []int {
	counts := make([]int, g.Levels+1)
	for _, id := range g.Inside {
		counts[g.Zones[id].Level]++
	}
	return counts
}

// ZonesByLevel lists the ids of zones inside the AoI by level.
func (g *Grid) ZonesByLevel() [][]int {
	byLevel := make([][]int, g.Levels+1)
	for _, id := range g.Inside {
		lvl := g.Zones[id].Level
		byLevel[lvl] = append(byLevel[lvl], id)
	}
	return byLevel
}

// ResetEDUs clears every placement and has_edu flag.
func (g *Grid) ResetEDUs() {
	for i := range g.Zones {
		g.Zones[i].HasEDU = false
	}
	for lvl := 1; lvl <= g.Levels; lvl++ {
		g.EDUs[lvl] = nil
	}
}

// EDUCount returns the number of placed EDUs over all levels.
func (g *Grid) EDUCount() int {
	n := 0
	for lvl := 1; lvl <= g.Levels; lvl++ {
		n += len(g.EDUs[lvl])
	}
	return n
}

// RoadZones lists the ids of zones inside the AoI flagged as road.
func (g *Grid) RoadZones() []int {
	var ids []int
	for _, id := range g.Inside {
		if g.Zones[id].IsRoad {
			ids = append(ids, id)
		}
	}
	return ids
}
