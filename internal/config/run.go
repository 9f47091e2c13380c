package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/riskzones-cli/internal/osm"
	"github.com/sells-group/riskzones-cli/internal/placement"
)

// RunConfig describes one classification run. It is read from a JSON or
// YAML file.
type RunConfig struct {
	Left   float64 `json:"left" yaml:"left"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Right  float64 `json:"right" yaml:"right"`
	Top    float64 `json:"top" yaml:"top"`

	ZoneSize   float64 `json:"zone_size" yaml:"zone_size"`
	Levels     int     `json:"M" yaml:"M"`
	EDUs       int     `json:"edus" yaml:"edus"`
	EDUAlg     string  `json:"edu_alg" yaml:"edu_alg"`
	CacheZones bool    `json:"cache_zones" yaml:"cache_zones"`

	PoIs        string      `json:"pois" yaml:"pois"`
	PoIsTypes   osm.Weights `json:"pois_types" yaml:"pois_types"`
	WeightsFile string      `json:"weights_file" yaml:"weights_file"`
	GeoJSON     string      `json:"geojson" yaml:"geojson"`

	Output      string `json:"output" yaml:"output"`
	OutputEDUs  string `json:"output_edus" yaml:"output_edus"`
	OutputRoads string `json:"output_roads" yaml:"output_roads"`
	ResData     string `json:"res_data" yaml:"res_data"`

	// Path is the file the config was read from.
	Path string `json:"-" yaml:"-"`
}

// LoadRun reads a run config from path: JSON for .json files, YAML
// otherwise. Map keys keep their case, which matters for PoI tag tables.
func LoadRun(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read run config %s", path)
	}

	var rc RunConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &rc)
	} else {
		err = yaml.Unmarshal(data, &rc)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "config: parse run config %s", path)
	}
	rc.Path = path
	return &rc, nil
}

// HasBounds reports whether the bbox is set. An all-zero bbox is derived
// from the AoI.
func (rc *RunConfig) HasBounds() bool {
	return rc.Left != 0 || rc.Bottom != 0 || rc.Right != 0 || rc.Top != 0
}

// Bounds returns the configured bbox.
func (rc *RunConfig) Bounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{rc.Left, rc.Bottom},
		Max: orb.Point{rc.Right, rc.Top},
	}
}

// SetBounds replaces the bbox.
func (rc *RunConfig) SetBounds(b orb.Bound) {
	rc.Left, rc.Bottom = b.Min.Lon(), b.Min.Lat()
	rc.Right, rc.Top = b.Max.Lon(), b.Max.Lat()
}

// Algorithm returns the parsed placement selector.
func (rc *RunConfig) Algorithm() (placement.Algorithm, error) {
	return placement.ParseAlgorithm(rc.EDUAlg)
}

// Weights returns pois_types merged with the optional weights file.
func (rc *RunConfig) Weights() (osm.Weights, error) {
	if rc.WeightsFile == "" {
		return rc.PoIsTypes.Merge(nil), nil
	}
	extra, err := osm.LoadWeights(rc.WeightsFile)
	if err != nil {
		return nil, err
	}
	return rc.PoIsTypes.Merge(extra), nil
}

// Validate checks the run config and reports every problem at once.
func (rc *RunConfig) Validate() error {
	var errs []string

	if rc.ZoneSize <= 0 {
		errs = append(errs, "zone_size must be > 0")
	}
	if rc.Levels < 1 {
		errs = append(errs, "M must be >= 1")
	}
	if rc.EDUs < 0 {
		errs = append(errs, "edus must be >= 0")
	}
	if _, err := rc.Algorithm(); err != nil {
		errs = append(errs, fmt.Sprintf("edu_alg must be one of random, balanced, enhanced, restricted (got %q)", rc.EDUAlg))
	}
	if rc.PoIs == "" {
		errs = append(errs, "pois is required")
	}
	if len(rc.PoIsTypes) == 0 && rc.WeightsFile == "" {
		errs = append(errs, "pois_types or weights_file is required")
	}
	if rc.Output == "" {
		errs = append(errs, "output is required")
	}

	if rc.HasBounds() {
		if rc.Left >= rc.Right {
			errs = append(errs, "left must be < right")
		}
		if rc.Bottom >= rc.Top {
			errs = append(errs, "bottom must be < top")
		}
		if rc.Left < -180 || rc.Right > 180 {
			errs = append(errs, "left and right must be within [-180, 180]")
		}
		if rc.Bottom < -90 || rc.Top > 90 {
			errs = append(errs, "bottom and top must be within [-90, 90]")
		}
	} else if rc.GeoJSON == "" {
		errs = append(errs, "geojson is required when the bbox is not set")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
