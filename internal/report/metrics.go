package report

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// Metrics summarizes one classification run. Times are in seconds.
type Metrics struct {
	RunID              string  `json:"run_id"`
	Zones              int     `json:"n_zones"`
	PoIs               int     `json:"n_pois"`
	Roads              int     `json:"n_roads"`
	EDUs               int     `json:"n_edus"`
	EDUsPerLevel       []int   `json:"edus_per_level"`
	TimeClassification float64 `json:"time_classification"`
	TimePositioning    float64 `json:"time_positioning"`
	SnapshotUsed       bool    `json:"snapshot_used"`
}

// WriteMetrics writes m as JSON to path.
func WriteMetrics(path string, m *Metrics) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "report: encode metrics")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "report: write %s", path)
}
