package optics

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrSectionNotFound is returned by Open when the requested mirror section
// does not exist in the sample database.
var ErrSectionNotFound = errors.New("mirror section not found")

// Table is a Mirror backed by a SQLite database of precomputed reflectivity
// samples. Queries clamp to the tabulated range and bilinearly interpolate
// the four surrounding grid samples.
type Table struct {
	db      *sql.DB
	section string
	meta    Metadata
}

// Sample is one precomputed reflectivity grid point.
type Sample struct {
	Angle  float64
	Energy float64
	Value  float64
}

// Open opens a sample database and binds to one mirror section.
// The section's metadata row must exist; its grid is queried lazily.
func Open(path, section string) (*Table, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sample database: %w", err)
	}

	// SQLite only supports one writer at a time; the table is read-only
	// after creation, a single connection avoids SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	t := &Table{db: db, section: section}
	if err := t.loadMetadata(); err != nil {
		db.Close()
		return nil, err
	}

	return t, nil
}

// Close closes the underlying database connection.
func (t *Table) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}

// Metadata returns the metadata row for the bound section.
func (t *Table) Metadata() Metadata {
	return t.meta
}

// Describe implements Mirror.
func (t *Table) Describe() string {
	return describeMetadata(t.meta)
}

// Reflectivity implements Mirror.
//
// The queried coordinate is clamped to the tabulated range, then the grid
// neighbors below and above on each axis are located and the four corner
// samples combined with z = (1-dx)(1-dy)v00 + dx(1-dy)v10 + (1-dx)dy v01 + dxdy v11,
// where x is the energy axis and y the angle axis.
func (t *Table) Reflectivity(ctx context.Context, angle, energy float64) (float64, error) {
	ang := clampAngle(angle)
	en := clampEnergy(energy)

	a0, a1, err := t.neighbors(ctx, "angle", ang)
	if err != nil {
		return 0, fmt.Errorf("angle %g: %w", angle, err)
	}
	e0, e1, err := t.neighbors(ctx, "energy", en)
	if err != nil {
		return 0, fmt.Errorf("energy %g: %w", energy, err)
	}

	v00, err := t.sample(ctx, a0, e0)
	if err != nil {
		return 0, err
	}
	v01, err := t.sample(ctx, a1, e0)
	if err != nil {
		return 0, err
	}
	v10, err := t.sample(ctx, a0, e1)
	if err != nil {
		return 0, err
	}
	v11, err := t.sample(ctx, a1, e1)
	if err != nil {
		return 0, err
	}

	var deltaA float64
	if a1 != a0 {
		deltaA = (ang - a0) / (a1 - a0)
	}
	var deltaE float64
	if e1 != e0 {
		deltaE = (en - e0) / (e1 - e0)
	}

	return (1-deltaE)*(1-deltaA)*v00 +
		deltaE*(1-deltaA)*v10 +
		(1-deltaE)*deltaA*v01 +
		deltaE*deltaA*v11, nil
}

// loadMetadata reads the section's metadata row.
func (t *Table) loadMetadata() error {
	row := t.db.QueryRow(`
		SELECT section, mirror_type, layer, layer_thickness_nm, sigma_nm, substrate
		FROM mirrors WHERE section = ?
	`, t.section)

	var m Metadata
	err := row.Scan(&m.Section, &m.MirrorType, &m.Layer, &m.LayerThicknessNM, &m.SigmaNM, &m.Substrate)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", ErrSectionNotFound, t.section)
	}
	if err != nil {
		return fmt.Errorf("failed to read mirror metadata: %w", err)
	}

	t.meta = m
	return nil
}

// neighbors returns the grid values at or below and at or above v on the
// given axis. Both bounds must exist; a coordinate past the edge of the
// stored grid is an error rather than an extrapolation.
func (t *Table) neighbors(ctx context.Context, axis string, v float64) (lo, hi float64, err error) {
	// axis is one of the fixed column names above, never user input.
	queryLo := fmt.Sprintf(`SELECT MAX(%s) FROM reflectivity WHERE section = ? AND %s <= ?`, axis, axis)
	queryHi := fmt.Sprintf(`SELECT MIN(%s) FROM reflectivity WHERE section = ? AND %s >= ?`, axis, axis)

	var nlo, nhi sql.NullFloat64
	if err := t.db.QueryRowContext(ctx, queryLo, t.section, v).Scan(&nlo); err != nil {
		return 0, 0, fmt.Errorf("failed to query %s grid: %w", axis, err)
	}
	if err := t.db.QueryRowContext(ctx, queryHi, t.section, v).Scan(&nhi); err != nil {
		return 0, 0, fmt.Errorf("failed to query %s grid: %w", axis, err)
	}
	if !nlo.Valid || !nhi.Valid {
		return 0, 0, fmt.Errorf("outside the stored %s grid", axis)
	}
	return nlo.Float64, nhi.Float64, nil
}

// sample fetches a single grid sample.
func (t *Table) sample(ctx context.Context, angle, energy float64) (float64, error) {
	var v float64
	err := t.db.QueryRowContext(ctx, `
		SELECT value FROM reflectivity WHERE section = ? AND angle = ? AND energy = ?
	`, t.section, angle, energy).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("incomplete grid: missing sample at angle=%g energy=%g", angle, energy)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sample: %w", err)
	}
	return v, nil
}

// CreateTable writes a sample database containing one mirror section and its
// reflectivity grid. Used by data import tooling and by tests; Open reads
// the result. The file is created if it does not exist, and the section row
// is replaced if it does.
func CreateTable(path string, meta Metadata, samples []Sample) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open sample database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		return fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO mirrors (section, mirror_type, layer, layer_thickness_nm, sigma_nm, substrate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(section) DO UPDATE SET
			mirror_type = excluded.mirror_type,
			layer = excluded.layer,
			layer_thickness_nm = excluded.layer_thickness_nm,
			sigma_nm = excluded.sigma_nm,
			substrate = excluded.substrate
	`, meta.Section, meta.MirrorType, meta.Layer, meta.LayerThicknessNM, meta.SigmaNM, meta.Substrate)
	if err != nil {
		return fmt.Errorf("failed to write mirror metadata: %w", err)
	}

	for _, s := range samples {
		_, err := tx.Exec(`
			INSERT INTO reflectivity (section, angle, energy, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(section, angle, energy) DO UPDATE SET value = excluded.value
		`, meta.Section, s.Angle, s.Energy, s.Value)
		if err != nil {
			return fmt.Errorf("failed to write sample (%g, %g): %w", s.Angle, s.Energy, err)
		}
	}

	return tx.Commit()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
