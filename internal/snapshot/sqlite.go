package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/riskzones-cli/internal/grid"
)

// SQLiteStore keeps snapshots of many run configurations in one SQLite
// database, keyed by config path.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, key: key}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	zone_count INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshot_zones (
	key     TEXT NOT NULL REFERENCES snapshots(key),
	id      INTEGER NOT NULL,
	lat     REAL NOT NULL,
	lon     REAL NOT NULL,
	risk    REAL NOT NULL,
	level   INTEGER NOT NULL,
	inside  INTEGER NOT NULL,
	has_edu INTEGER NOT NULL,
	is_road INTEGER NOT NULL,
	PRIMARY KEY (key, id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Info(ctx context.Context) (*Info, bool, error) {
	var info Info
	err := s.db.QueryRowContext(ctx,
		`SELECT key, run_id, zone_count, created_at FROM snapshots WHERE key = ?`, s.key,
	).Scan(&info.Key, &info.RunID, &info.Zones, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: get snapshot %s", s.key)
	}
	return &info, true, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]grid.Zone, bool, error) {
	info, ok, err := s.Info(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lat, lon, risk, level, inside, has_edu, is_road
		 FROM snapshot_zones WHERE key = ? ORDER BY id`, s.key,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "sqlite: load snapshot %s", s.key)
	}
	defer rows.Close()

	zones := make([]grid.Zone, 0, info.Zones)
	for rows.Next() {
		var r record
		if err := rows.Scan(&r.ID, &r.Lat, &r.Lon, &r.Risk, &r.Level, &r.Inside, &r.HasEDU, &r.IsRoad); err != nil {
			return nil, false, corrupted("sqlite: scan zone: %v", err)
		}
		zones = append(zones, r.zone())
	}
	if err := rows.Err(); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: load snapshot iterate")
	}

	if len(zones) != info.Zones {
		return nil, false, corrupted("sqlite: snapshot %s has %d zones, want %d", s.key, len(zones), info.Zones)
	}
	return zones, true, nil
}

// Save replaces the snapshot for the store key in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, runID string, zones []grid.Zone) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteKey(ctx, tx, s.key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (key, run_id, zone_count, created_at) VALUES (?, ?, ?, ?)`,
		s.key, runID, len(zones), time.Now().UTC(),
	); err != nil {
		return eris.Wrapf(err, "sqlite: insert snapshot %s", s.key)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_zones (key, id, lat, lon, risk, level, inside, has_edu, is_road)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare zone insert")
	}
	defer stmt.Close()

	for _, z := range zones {
		if _, err := stmt.ExecContext(ctx, s.key, z.ID, z.Lat, z.Lon, z.Risk, z.Level, z.Inside, z.HasEDU, z.IsRoad); err != nil {
			return eris.Wrapf(err, "sqlite: insert zone %d", z.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Delete removes the snapshot for the store key. A missing snapshot is not
// an error.
func (s *SQLiteStore) Delete(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteKey(ctx, tx, s.key); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func deleteKey(ctx context.Context, tx *sql.Tx, key string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_zones WHERE key = ?`, key); err != nil {
		return eris.Wrapf(err, "sqlite: delete zones %s", key)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return eris.Wrapf(err, "sqlite: delete snapshot %s", key)
	}
	return nil
}
