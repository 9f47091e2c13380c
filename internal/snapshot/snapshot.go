// Package snapshot persists classified zones so later runs over the same
// configuration can skip filtering and classification.
package snapshot

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Info describes a stored snapshot.
type Info struct {
	Key       string    `json:"key"`
	RunID     string    `json:"run_id,omitempty"`
	Zones     int       `json:"zones"`
	CreatedAt time.Time `json:"created_at"`
}

// Store loads and saves the zone snapshot of one run configuration.
// Load reports false without error when no snapshot exists.
type Store interface {
	Load(ctx context.Context) ([]grid.Zone, bool, error)
	Save(ctx context.Context, runID string, zones []grid.Zone) error
	Info(ctx context.Context) (*Info, bool, error)
	Delete(ctx context.Context) error
	Close() error
}

// Open returns the Store for driver, keyed by the run config path.
func Open(ctx context.Context, driver, sqlitePath, configPath string) (Store, error) {
	switch driver {
	case "", DriverFile:
		return NewFileStore(PathFor(configPath)), nil
	case DriverSQLite:
		st, err := NewSQLite(sqlitePath, configPath)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("snapshot: unknown driver %q", driver)
	}
}

// record is the persisted form of a zone.
type record struct {
	ID     int     `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Risk   float64 `json:"risk"`
	Level  int     `json:"RL"`
	Inside bool    `json:"inside"`
	HasEDU bool    `json:"has_edu"`
	IsRoad bool    `json:"is_road"`
}

func toRecord(z grid.Zone) record {
	return record{
		ID:     z.ID,
		Lat:    z.Lat,
		Lon:    z.Lon,
		Risk:   z.Risk,
		Level:  z.Level,
		Inside: z.Inside,
		HasEDU: z.HasEDU,
		IsRoad: z.IsRoad,
	}
}

func (r record) zone() grid.Zone {
	return grid.Zone{
		ID:     r.ID,
		Lat:    r.Lat,
		Lon:    r.Lon,
		Risk:   r.Risk,
		Level:  r.Level,
		Inside: r.Inside,
		HasEDU: r.HasEDU,
		IsRoad: r.IsRoad,
	}
}

func corrupted(format string, args ...any) error {
	return eris.Wrapf(grid.ErrSnapshotCorrupted, format, args...)
}
