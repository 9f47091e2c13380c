// Package report renders classification results as CSV, XLSX and run
// metrics files.
package report

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Table is a named header plus rows of cells.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ZonesTable lists every zone inside the AoI in id order with its risk
// level.
func ZonesTable(g *grid.Grid) (*Table, error) {
	t := &Table{Name: "zones", Header: []string{"system:index", "class", ".geo"}}
	for i, id := range g.Inside {
		z := g.Zones[id]
		point, err := geoPoint(z)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, []string{index(i), fmt.Sprint(z.Level), point})
	}
	return t, nil
}

// EDUsTable lists placed EDUs level by level.
func EDUsTable(g *grid.Grid) (*Table, error) {
	t := &Table{Name: "edus", Header: []string{"system:index", ".geo"}}
	for lvl := 1; lvl <= g.Levels; lvl++ {
		for _, id := range g.EDUs[lvl] {
			point, err := geoPoint(g.Zones[id])
			if err != nil {
				return nil, err
			}
			t.Rows = append(t.Rows, []string{index(len(t.Rows)), point})
		}
	}
	return t, nil
}

// RoadsTable lists road zones inside the AoI.
func RoadsTable(g *grid.Grid) (*Table, error) {
	t := &Table{Name: "roads", Header: []string{"system:index", ".geo"}}
	for i, id := range g.RoadZones() {
		point, err := geoPoint(g.Zones[id])
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, []string{index(i), point})
	}
	return t, nil
}

func index(row int) string {
	return fmt.Sprintf("%020d", row)
}

// geoPoint renders a zone center as a GeoJSON Point.
func geoPoint(z grid.Zone) (string, error) {
	data, err := geojson.Marshal(geom.NewPointFlat(geom.XY, []float64{z.Lon, z.Lat}))
	if err != nil {
		return "", eris.Wrapf(err, "report: encode zone %d", z.ID)
	}
	return string(data), nil
}
