package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"rental-ingest/config"
	"rental-ingest/models"
	"rental-ingest/utils"
)

// maxBindParams is PostgreSQL's limit on placeholders in one statement.
const maxBindParams = 65535

var (
	unitColumns    = []string{"unit_id", "zip", "city", "bed", "sqft"}
	amenityColumns = []string{"unit_id", "amenity", "amenity_type"}
)

// PostgresWriter loads unit and amenity records into PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	mode   string
	logger *utils.Logger
}

// NewPostgresWriter opens a connection pool for dsn and verifies it with a
// ping. mode is one of the config.LoadMode* policies.
func NewPostgresWriter(ctx context.Context, dsn, mode string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return newPostgresWriter(db, mode, logger), nil
}

func newPostgresWriter(db *sql.DB, mode string, logger *utils.Logger) *PostgresWriter {
	return &PostgresWriter{db: db, mode: mode, logger: logger}
}

// EnsureSchema creates the units and amenities tables if they are missing.
func (pw *PostgresWriter) EnsureSchema(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS units (
			unit_id TEXT    PRIMARY KEY,
			zip     TEXT    NOT NULL DEFAULT '',
			city    TEXT    NOT NULL DEFAULT '',
			bed     INTEGER NOT NULL DEFAULT 0,
			sqft    INTEGER
		);

		CREATE TABLE IF NOT EXISTS amenities (
			unit_id      TEXT NOT NULL,
			amenity      TEXT NOT NULL,
			amenity_type TEXT NOT NULL CHECK (amenity_type IN ('property', 'unit')),
			PRIMARY KEY (unit_id, amenity, amenity_type)
		);

		CREATE INDEX IF NOT EXISTS idx_units_zip ON units(zip);
	`)
	if err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

// Load writes both record sets in one transaction: one multi-row insert per
// table, committed only when both succeed. Any failure rolls back and is
// returned as a *models.LoadError.
func (pw *PostgresWriter) Load(ctx context.Context, units []models.UnitRecord, amenities []models.AmenityRecord) error {
	if pw.mode != config.LoadModeInsert {
		units = dedupeUnits(units)
		amenities = dedupeAmenities(amenities)
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.LoadError{Table: "units", Err: fmt.Errorf("begin: %w", err)}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if pw.mode == config.LoadModeReplace {
		if _, err := tx.ExecContext(ctx, "TRUNCATE units, amenities"); err != nil {
			return pw.loadError("units", err)
		}
	}

	unitArgs := make([][]interface{}, 0, len(units))
	for _, u := range units {
		unitArgs = append(unitArgs, []interface{}{u.UnitID, u.Zip, u.City, u.Bed, u.Sqft})
	}
	if err := pw.insertRows(ctx, tx, "units", unitColumns, pw.unitConflict(), unitArgs); err != nil {
		return pw.loadError("units", err)
	}

	amenityArgs := make([][]interface{}, 0, len(amenities))
	for _, a := range amenities {
		amenityArgs = append(amenityArgs, []interface{}{a.UnitID, a.Amenity, string(a.AmenityType)})
	}
	if err := pw.insertRows(ctx, tx, "amenities", amenityColumns, pw.amenityConflict(), amenityArgs); err != nil {
		return pw.loadError("amenities", err)
	}

	if err := tx.Commit(); err != nil {
		return pw.loadError("amenities", fmt.Errorf("commit: %w", err))
	}
	committed = true

	pw.logger.Info("[postgres] Loaded %d units and %d amenity rows (mode: %s)", len(units), len(amenities), pw.mode)
	return nil
}

// insertRows writes rows with as few multi-row statements as the bind
// parameter limit allows; normally exactly one.
func (pw *PostgresWriter) insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, conflict string, rows [][]interface{}) error {
	perStmt := maxBindParams / len(columns)
	for i := 0; i < len(rows); i += perStmt {
		end := i + perStmt
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[i:end]

		args := make([]interface{}, 0, len(chunk)*len(columns))
		for _, r := range chunk {
			args = append(args, r...)
		}

		if _, err := tx.ExecContext(ctx, buildInsert(table, columns, len(chunk), conflict), args...); err != nil {
			return err
		}
		pw.logger.Debug("[postgres] %s: inserted rows %d–%d", table, i, end-1)
	}
	return nil
}

func (pw *PostgresWriter) unitConflict() string {
	if pw.mode != config.LoadModeUpsert {
		return ""
	}
	return "ON CONFLICT (unit_id) DO UPDATE SET zip = EXCLUDED.zip, city = EXCLUDED.city, bed = EXCLUDED.bed, sqft = EXCLUDED.sqft"
}

func (pw *PostgresWriter) amenityConflict() string {
	if pw.mode != config.LoadModeUpsert {
		return ""
	}
	return "ON CONFLICT (unit_id, amenity, amenity_type) DO NOTHING"
}

func (pw *PostgresWriter) loadError(table string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		pw.logger.Error("[postgres] %s: %s (code %s, constraint %q)", table, pqErr.Message, pqErr.Code, pqErr.Constraint)
	}
	return &models.LoadError{Table: table, Err: err}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// buildInsert returns INSERT INTO table (cols) VALUES ($1,..),(..) [conflict].
func buildInsert(table string, columns []string, rows int, conflict string) string {
	valueStrings := make([]string, 0, rows)
	placeholders := make([]string, len(columns))
	for r := 0; r < rows; r++ {
		base := r * len(columns)
		for c := range columns {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), strings.Join(valueStrings, ","))
	if conflict != "" {
		query += " " + conflict
	}
	return query
}

// dedupeUnits keeps the last record per unit id at the position of the first.
func dedupeUnits(units []models.UnitRecord) []models.UnitRecord {
	index := make(map[string]int, len(units))
	out := make([]models.UnitRecord, 0, len(units))
	for _, u := range units {
		if i, ok := index[u.UnitID]; ok {
			out[i] = u
			continue
		}
		index[u.UnitID] = len(out)
		out = append(out, u)
	}
	return out
}

func dedupeAmenities(amenities []models.AmenityRecord) []models.AmenityRecord {
	seen := make(map[models.AmenityRecord]struct{}, len(amenities))
	out := make([]models.AmenityRecord, 0, len(amenities))
	for _, a := range amenities {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
