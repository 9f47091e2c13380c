// Package osm extracts weighted PoIs and road segments from OpenStreetMap
// XML exports.
package osm

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// RoadTypes are the highway values rasterized as roads.
var RoadTypes = map[string]bool{
	"motorway":     true,
	"trunk":        true,
	"primary":      true,
	"secondary":    true,
	"tertiary":     true,
	"unclassified": true,
	"residential":  true,
}

// Tag is an OSM key/value pair.
type Tag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type node struct {
	ID   int64  `xml:"id,attr"`
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Tags []Tag  `xml:"tag"`
}

type nodeRef struct {
	Ref int64 `xml:"ref,attr"`
}

type way struct {
	ID    int64     `xml:"id,attr"`
	Nodes []nodeRef `xml:"nd"`
	Tags  []Tag     `xml:"tag"`
}

type member struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
}

type relation struct {
	ID      int64    `xml:"id,attr"`
	Members []member `xml:"member"`
	Tags    []Tag    `xml:"tag"`
}

// Result holds what Extract found.
type Result struct {
	PoIs    []grid.PoI
	Roads   []grid.Road
	Skipped int
}

// ExtractFile opens path and runs Extract on it.
func ExtractFile(ctx context.Context, path string, weights Weights) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "osm: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	res, err := Extract(ctx, f, weights)
	if err != nil {
		return nil, eris.Wrapf(err, "osm: extract %s", path)
	}
	return res, nil
}

// Extract streams an OSM XML document. Nodes, ways and relations whose tags
// match weights become PoIs; ways take the position of their first known
// node and relations that of their first known member way. Highway ways of
// a RoadTypes class yield one segment per consecutive pair of known nodes.
// Elements with missing or unparseable coordinates are skipped.
func Extract(ctx context.Context, r io.Reader, weights Weights) (*Result, error) {
	e := &extractor{
		weights: weights,
		nodes:   make(map[int64]orb.Point),
		ways:    make(map[int64]orb.Point),
		res:     &Result{},
	}

	err := stream(ctx, r, map[string]func(*xml.Decoder, *xml.StartElement) error{
		"node":     decodeInto(e.node),
		"way":      decodeInto(e.way),
		"relation": decodeInto(e.relation),
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("osm: extraction complete",
		zap.Int("pois", len(e.res.PoIs)),
		zap.Int("roads", len(e.res.Roads)),
		zap.Int("skipped", e.res.Skipped),
	)
	return e.res, nil
}

type extractor struct {
	weights Weights
	nodes   map[int64]orb.Point
	ways    map[int64]orb.Point
	res     *Result
}

func (e *extractor) node(n *node) {
	lat, errLat := strconv.ParseFloat(n.Lat, 64)
	lon, errLon := strconv.ParseFloat(n.Lon, 64)
	if errLat != nil || errLon != nil {
		e.skip("node", n.ID)
		return
	}
	p := orb.Point{lon, lat}
	e.nodes[n.ID] = p
	e.poi(p, n.Tags)
}

func (e *extractor) way(w *way) {
	known := make([]orb.Point, 0, len(w.Nodes))
	for _, ref := range w.Nodes {
		if p, ok := e.nodes[ref.Ref]; ok {
			known = append(known, p)
		}
	}
	if len(known) == 0 {
		e.skip("way", w.ID)
		return
	}
	e.ways[w.ID] = known[0]
	e.poi(known[0], w.Tags)

	if !isRoad(w.Tags) {
		return
	}
	// A segment needs both adjacent refs resolved; gaps split the road.
	for i := 1; i < len(w.Nodes); i++ {
		start, okStart := e.nodes[w.Nodes[i-1].Ref]
		end, okEnd := e.nodes[w.Nodes[i].Ref]
		if okStart && okEnd {
			e.res.Roads = append(e.res.Roads, grid.Road{Start: start, End: end})
		}
	}
}

func (e *extractor) relation(rel *relation) {
	if _, ok := e.weights.Lookup(rel.Tags); !ok {
		return
	}
	for _, m := range rel.Members {
		if m.Type != "way" {
			continue
		}
		if p, ok := e.ways[m.Ref]; ok {
			e.poi(p, rel.Tags)
			return
		}
	}
	e.skip("relation", rel.ID)
}

func (e *extractor) poi(p orb.Point, tags []Tag) {
	w, ok := e.weights.Lookup(tags)
	if !ok {
		return
	}
	e.res.PoIs = append(e.res.PoIs, grid.PoI{Lat: p.Lat(), Lon: p.Lon(), Weight: w})
}

func (e *extractor) skip(kind string, id int64) {
	e.res.Skipped++
	zap.L().Debug("osm: skipping element without coordinates",
		zap.String("kind", kind),
		zap.Int64("id", id),
	)
}

func isRoad(tags []Tag) bool {
	for _, t := range tags {
		if t.K == "highway" {
			return RoadTypes[t.V]
		}
	}
	return false
}

// decodeInto decodes the current element into a fresh T and hands it to fn.
func decodeInto[T any](fn func(*T)) func(*xml.Decoder, *xml.StartElement) error {
	return func(d *xml.Decoder, se *xml.StartElement) error {
		var item T
		if err := d.DecodeElement(&item, se); err != nil {
			return eris.Wrapf(err, "xml: decode %s", se.Name.Local)
		}
		fn(&item)
		return nil
	}
}

// stream walks the XML tokens of r and dispatches every start element with
// a handler. Unhandled elements are descended into.
func stream(ctx context.Context, r io.Reader, handlers map[string]func(*xml.Decoder, *xml.StartElement) error) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	for {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "xml: context cancelled")
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "xml: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		handle, ok := handlers[se.Name.Local]
		if !ok {
			continue
		}
		if err := handle(decoder, &se); err != nil {
			return err
		}
	}
}
