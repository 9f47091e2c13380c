package aoi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareCoords = `[[[-35.0,-8.1],[-34.9,-8.1],[-34.9,-8.0],[-35.0,-8.0],[-35.0,-8.1]]]`

func TestParseGeoJSON(t *testing.T) {
	polygon := `{"type":"Polygon","coordinates":` + squareCoords + `}`
	withHole := `{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]],[[1,1],[2,1],[2,2],[1,1]]]}`
	multi := `{"type":"MultiPolygon","coordinates":[` + squareCoords + `,[[[1,1],[2,1],[2,2],[1,1]]]]}`

	tests := []struct {
		name      string
		input     string
		wantRings int
		wantFirst orb.Point
	}{
		{"geometry", polygon, 1, orb.Point{-35.0, -8.1}},
		{"feature", `{"type":"Feature","properties":{},"geometry":` + polygon + `}`, 1, orb.Point{-35.0, -8.1}},
		{"collection", `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":` + multi + `},{"type":"Feature","properties":{},"geometry":` + withHole + `}]}`, 2, orb.Point{-35.0, -8.1}},
		{"outer ring only", withHole, 1, orb.Point{0, 0}},
		{"multipolygon", multi, 2, orb.Point{-35.0, -8.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rings, err := ParseGeoJSON([]byte(tt.input))
			require.NoError(t, err)
			require.Len(t, rings, tt.wantRings)
			assert.Equal(t, tt.wantFirst, rings[0][0])
			assert.Len(t, rings[0], 5)
		})
	}
}

func TestParseGeoJSON_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"empty collection", `{"type":"FeatureCollection","features":[]}`},
		{"point", `{"type":"Point","coordinates":[1,2]}`},
		{"feature without geometry", `{"type":"Feature","properties":{},"geometry":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeoJSON([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_GeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recife.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"Polygon","coordinates":`+squareCoords+`}`), 0o644))

	rings, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.Equal(t, orb.Point{-34.9, -8.0}, rings[0][2])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestPolygonRings(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 5},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
			{X: 20, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 30}, {X: 20, Y: 20},
		},
	}

	rings := polygonRings(p)
	require.Len(t, rings, 2)
	assert.Len(t, rings[0], 5)
	assert.Len(t, rings[1], 4)
	assert.Equal(t, orb.Point{30, 30}, rings[1][2])
}

func TestPolygonRings_Empty(t *testing.T) {
	assert.Nil(t, polygonRings(nil))
	assert.Nil(t, polygonRings(&shp.Polygon{}))
}

func TestLoadShapefile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.shp")
	require.NoError(t, os.WriteFile(path, []byte("not a shapefile"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	rings := []orb.Ring{
		{{0, 0}, {2, 0}, {2, 1}, {0, 0}},
		{{-1, 3}, {1, 3}, {1, 5}, {-1, 3}},
	}
	b := Bounds(rings)
	assert.Equal(t, orb.Point{-1, 0}, b.Min)
	assert.Equal(t, orb.Point{2, 5}, b.Max)
}
