// Package aoi loads area-of-interest polygons from GeoJSON or shapefiles.
package aoi

import (
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrNotFound is returned by Load when the AoI file does not exist.
var ErrNotFound = eris.New("aoi: file not found")

// Load reads the AoI rings from path. Files ending in .shp are read as
// shapefiles, anything else as GeoJSON.
func Load(path string) ([]orb.Ring, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "aoi: %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return LoadShapefile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aoi: read %s", path)
	}
	rings, err := ParseGeoJSON(data)
	if err != nil {
		return nil, eris.Wrapf(err, "aoi: %s", path)
	}
	return rings, nil
}

// ParseGeoJSON decodes a FeatureCollection, Feature or bare geometry and
// returns the rings of its first polygonal geometry. A Polygon yields its
// outer ring and a MultiPolygon the outer ring of every member.
func ParseGeoJSON(data []byte) ([]orb.Ring, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "aoi: decode geojson")
	}

	var g geom.T
	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "aoi: decode feature collection")
		}
		if len(fc.Features) == 0 {
			return nil, eris.New("aoi: feature collection is empty")
		}
		g = fc.Features[0].Geometry
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "aoi: decode feature")
		}
		g = f.Geometry
	default:
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "aoi: decode geometry")
		}
	}
	return geometryRings(g)
}

func geometryRings(g geom.T) ([]orb.Ring, error) {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil, eris.New("aoi: polygon has no rings")
		}
		return []orb.Ring{ringOf(t.LinearRing(0).Coords())}, nil
	case *geom.MultiPolygon:
		var rings []orb.Ring
		for i := range t.NumPolygons() {
			p := t.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			rings = append(rings, ringOf(p.LinearRing(0).Coords()))
		}
		if len(rings) == 0 {
			return nil, eris.New("aoi: multipolygon has no rings")
		}
		return rings, nil
	case nil:
		return nil, eris.New("aoi: feature has no geometry")
	default:
		return nil, eris.Errorf("aoi: unsupported geometry %T", g)
	}
}

func ringOf(coords []geom.Coord) orb.Ring {
	ring := make(orb.Ring, len(coords))
	for i, c := range coords {
		ring[i] = orb.Point{c.X(), c.Y()}
	}
	return ring
}

// LoadShapefile returns every part of every polygon record in a shapefile.
func LoadShapefile(path string) ([]orb.Ring, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aoi: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var rings []orb.Ring
	for reader.Next() {
		_, shape := reader.Shape()
		if p, ok := shape.(*shp.Polygon); ok {
			rings = append(rings, polygonRings(p)...)
		}
	}
	if len(rings) == 0 {
		return nil, eris.Errorf("aoi: shapefile %s has no polygons", path)
	}
	return rings, nil
}

func polygonRings(p *shp.Polygon) []orb.Ring {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	rings := make([]orb.Ring, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}

// Bounds returns the bounding box of all rings.
func Bounds(rings []orb.Ring) orb.Bound {
	b := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, r := range rings {
		for _, p := range r {
			b = b.Extend(p)
		}
	}
	return b
}
