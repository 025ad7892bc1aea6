// Package spotdb persists spot results to a SQLite database for downstream
// verification queries.
package spotdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/spot-extract/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS spot_values (
	site_id       TEXT NOT NULL,
	diagnostic    TEXT NOT NULL,
	validity_time TEXT NOT NULL,
	value         REAL NOT NULL,
	units         TEXT NOT NULL,
	cell          INTEGER NOT NULL,
	distance      REAL NOT NULL,
	altitude_diff REAL NOT NULL,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (site_id, diagnostic, validity_time)
);
CREATE TABLE IF NOT EXISTS spot_failures (
	site_id    TEXT NOT NULL,
	diagnostic TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (site_id, diagnostic)
);`

// Store writes spot results to SQLite. Keys are (site, diagnostic, validity
// time), and writes are upserts, so re-running an extraction over the same
// inputs leaves the database unchanged.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the spot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open spot database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init spot database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// SaveResult writes every site value and failure of one result in a single
// transaction.
func (s *Store) SaveResult(result *domain.SpotResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save spot result: %w", err)
	}
	defer tx.Rollback()

	created := result.CreatedAt.Format(time.RFC3339)

	insertValue, err := tx.Prepare(`INSERT OR REPLACE INTO spot_values
		(site_id, diagnostic, validity_time, value, units, cell, distance, altitude_diff, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save spot result: %w", err)
	}
	defer insertValue.Close()

	for _, sv := range result.Sites {
		for t, vt := range result.ValidityTimes {
			if _, err := insertValue.Exec(
				sv.Site.ID, result.Diagnostic, vt.UTC().Format(time.RFC3339),
				sv.Values[t], result.Units,
				sv.Match.Cell, sv.Match.Distance, sv.Match.AltitudeDiff,
				created,
			); err != nil {
				return fmt.Errorf("save value for site %s: %w", sv.Site.ID, err)
			}
		}
	}

	for _, f := range result.Failures {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO spot_failures
			(site_id, diagnostic, reason, created_at) VALUES (?, ?, ?, ?)`,
			f.SiteID, result.Diagnostic, f.Reason, created,
		); err != nil {
			return fmt.Errorf("save failure for site %s: %w", f.SiteID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save spot result: %w", err)
	}
	return nil
}

// ValueRow is one persisted spot value.
type ValueRow struct {
	SiteID       string
	ValidityTime time.Time
	Value        float64
	Cell         int
}

// ListValues returns the stored values for a diagnostic ordered by site and
// validity time.
func (s *Store) ListValues(diagnostic string) ([]ValueRow, error) {
	rows, err := s.db.Query(`SELECT site_id, validity_time, value, cell
		FROM spot_values WHERE diagnostic = ? ORDER BY site_id, validity_time`, diagnostic)
	if err != nil {
		return nil, fmt.Errorf("list spot values: %w", err)
	}
	defer rows.Close()

	var out []ValueRow
	for rows.Next() {
		var r ValueRow
		var vt string
		if err := rows.Scan(&r.SiteID, &vt, &r.Value, &r.Cell); err != nil {
			return nil, fmt.Errorf("list spot values: %w", err)
		}
		if r.ValidityTime, err = time.Parse(time.RFC3339, vt); err != nil {
			return nil, fmt.Errorf("list spot values: bad validity time %q: %w", vt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
