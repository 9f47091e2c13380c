package osm

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// WeightTag overrides the table weight of an element that carries it.
const WeightTag = "poi_weight"

// Weight is one entry of a weight table.
type Weight struct {
	W float64 `json:"w" yaml:"w"`
}

// Weights maps tag key to tag value to weight. An element whose tags match
// an entry is a PoI.
type Weights map[string]map[string]Weight

// LoadWeights reads a YAML weight table.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "osm: read weights %s", path)
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, eris.Wrapf(err, "osm: parse weights %s", path)
	}
	return w, nil
}

// Merge returns a copy of w with the entries of over added or replaced.
func (w Weights) Merge(over Weights) Weights {
	out := make(Weights, len(w)+len(over))
	for _, src := range []Weights{w, over} {
		for k, values := range src {
			if out[k] == nil {
				out[k] = make(map[string]Weight, len(values))
			}
			for v, wt := range values {
				out[k][v] = wt
			}
		}
	}
	return out
}

// Lookup returns the weight of an element with tags, and whether it is a
// PoI at all. The first matching tag sets the table weight; a parseable
// poi_weight tag replaces it.
func (w Weights) Lookup(tags []Tag) (float64, bool) {
	weight, ok := 0.0, false
	for _, t := range tags {
		if wt, hit := w[t.K][t.V]; hit {
			weight, ok = wt.W, true
			break
		}
	}
	if !ok {
		return 0, false
	}

	for _, t := range tags {
		if t.K != WeightTag {
			continue
		}
		if v, err := strconv.ParseFloat(t.V, 64); err == nil {
			weight = v
		}
		break
	}
	return weight, true
}
