package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// ModelRow is one successful model in the query layer, mirroring a row
// of the persisted model index.
type ModelRow struct {
	Sys1           string  `json:"sys1"`
	Sys2           string  `json:"sys2"`
	Compounds      int     `json:"compounds"`
	MedianCIWidth  float64 `json:"median_ci_width"`
	MedianAbsError float64 `json:"median_abs_error"`
	CILevel        float64 `json:"ci_level"`
	BuiltAt        string  `json:"built_at"` // RFC3339
	RunID          string  `json:"run_id"`
}

// FailureRow is one failed pair from the latest build.
type FailureRow struct {
	Sys1    string `json:"sys1"`
	Sys2    string `json:"sys2"`
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Chromatographic systems
		CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			system_type TEXT,
			doi TEXT,
			source_type TEXT NOT NULL,
			source_id TEXT,
			added_at TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			compound_count INTEGER NOT NULL
		);

		-- Per-system retention times
		CREATE TABLE IF NOT EXISTS measurements (
			dataset_id TEXT NOT NULL,
			compound TEXT NOT NULL,
			inchi TEXT,
			rt REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_measurements_dataset ON measurements(dataset_id);

		-- Successful pairwise models (mirrors models/index.json)
		CREATE TABLE IF NOT EXISTS models (
			sys1 TEXT NOT NULL,
			sys2 TEXT NOT NULL,
			compounds INTEGER NOT NULL,
			median_ci_width REAL NOT NULL,
			median_abs_error REAL NOT NULL,
			ci_level REAL NOT NULL,
			built_at TEXT NOT NULL,
			run_id TEXT NOT NULL,
			PRIMARY KEY (sys1, sys2)
		);

		-- Failed pairs from the latest build
		CREATE TABLE IF NOT EXISTS build_failures (
			sys1 TEXT NOT NULL,
			sys2 TEXT NOT NULL,
			message TEXT NOT NULL,
			run_id TEXT NOT NULL,
			PRIMARY KEY (sys1, sys2)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromSource clears the dataset tables and rebuilds them from
// datasets.jsonl and the per-dataset CSV files in dataDir. keyMode is the
// repository's compound join key, used for duplicate handling while
// reading the CSV tables. Returns the number of datasets and
// measurements loaded.
func (d *DB) RebuildFromSource(jsonlPath, dataDir, keyMode string) (int, int, error) {
	datasets, err := ReadAllDatasets(jsonlPath)
	if err != nil {
		return 0, 0, fmt.Errorf("reading JSONL: %w", err)
	}

	if _, err := d.db.Exec("DELETE FROM datasets"); err != nil {
		return 0, 0, fmt.Errorf("clearing datasets table: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM measurements"); err != nil {
		return 0, 0, fmt.Errorf("clearing measurements table: %w", err)
	}

	dsStmt, err := d.db.Prepare(`
		INSERT INTO datasets (
			id, name, system_type, doi,
			source_type, source_id,
			added_at, fingerprint, compound_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing datasets insert: %w", err)
	}
	defer dsStmt.Close()

	mStmt, err := d.db.Prepare(`
		INSERT INTO measurements (dataset_id, compound, inchi, rt)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("preparing measurements insert: %w", err)
	}
	defer mStmt.Close()

	measurementCount := 0
	for _, ds := range datasets {
		if _, err := dsStmt.Exec(
			ds.ID, ds.Name, ds.SystemType, ds.DOI,
			ds.Source.Type, ds.Source.ID,
			ds.AddedAt.Format(timeFormat), ds.Fingerprint, ds.CompoundCount,
		); err != nil {
			return 0, 0, fmt.Errorf("inserting dataset %s: %w", ds.ID, err)
		}

		csvPath := filepath.Join(dataDir, ds.ID+".csv")
		ms, err := dataset.ReadMeasurements(csvPath, keyMode)
		if err != nil {
			return 0, 0, fmt.Errorf("reading measurements for %s: %w", ds.ID, err)
		}
		for _, m := range ms {
			if _, err := mStmt.Exec(ds.ID, m.Compound, m.InChI, m.RT); err != nil {
				return 0, 0, fmt.Errorf("inserting measurement %s/%s: %w", ds.ID, m.Compound, err)
			}
			measurementCount++
		}
	}

	return len(datasets), measurementCount, nil
}

const timeFormat = time.RFC3339

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// ListDatasets returns all datasets, optionally limited.
// A limit of 0 means no limit.
func (d *DB) ListDatasets(limit int) ([]dataset.Dataset, error) {
	query := `
		SELECT id, name, system_type, doi, source_type, source_id,
		       added_at, fingerprint, compound_count
		FROM datasets ORDER BY id
	`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = d.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = d.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("querying datasets: %w", err)
	}
	defer rows.Close()

	var datasets []dataset.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}

	return datasets, rows.Err()
}

// GetDataset returns the dataset with the given ID, or nil if not found.
func (d *DB) GetDataset(id string) (*dataset.Dataset, error) {
	rows, err := d.db.Query(`
		SELECT id, name, system_type, doi, source_type, source_id,
		       added_at, fingerprint, compound_count
		FROM datasets WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanDataset(rows)
}

func scanDataset(rows *sql.Rows) (*dataset.Dataset, error) {
	var ds dataset.Dataset
	var addedAt string
	if err := rows.Scan(
		&ds.ID, &ds.Name, &ds.SystemType, &ds.DOI,
		&ds.Source.Type, &ds.Source.ID,
		&addedAt, &ds.Fingerprint, &ds.CompoundCount,
	); err != nil {
		return nil, fmt.Errorf("scanning dataset: %w", err)
	}

	t, err := parseTime(addedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing added_at for %s: %w", ds.ID, err)
	}
	ds.AddedAt = t

	return &ds, nil
}

// CountDatasets returns the total number of datasets.
func (d *DB) CountDatasets() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM datasets").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting datasets: %w", err)
	}
	return n, nil
}

// GetMeasurements returns all retention times for a dataset.
func (d *DB) GetMeasurements(datasetID string) ([]dataset.Measurement, error) {
	rows, err := d.db.Query(`
		SELECT compound, inchi, rt FROM measurements
		WHERE dataset_id = ? ORDER BY rt, compound
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var ms []dataset.Measurement
	for rows.Next() {
		var m dataset.Measurement
		if err := rows.Scan(&m.Compound, &m.InChI, &m.RT); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		ms = append(ms, m)
	}

	return ms, rows.Err()
}

// ReplaceModels replaces the models table with the given rows.
func (d *DB) ReplaceModels(models []ModelRow) error {
	if _, err := d.db.Exec("DELETE FROM models"); err != nil {
		return fmt.Errorf("clearing models table: %w", err)
	}

	stmt, err := d.db.Prepare(`
		INSERT INTO models (
			sys1, sys2, compounds, median_ci_width, median_abs_error,
			ci_level, built_at, run_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing models insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range models {
		if _, err := stmt.Exec(
			m.Sys1, m.Sys2, m.Compounds, m.MedianCIWidth, m.MedianAbsError,
			m.CILevel, m.BuiltAt, m.RunID,
		); err != nil {
			return fmt.Errorf("inserting model %s->%s: %w", m.Sys1, m.Sys2, err)
		}
	}

	return nil
}

// ListModels returns all successful models ordered by pair.
func (d *DB) ListModels() ([]ModelRow, error) {
	rows, err := d.db.Query(`
		SELECT sys1, sys2, compounds, median_ci_width, median_abs_error,
		       ci_level, built_at, run_id
		FROM models ORDER BY sys1, sys2
	`)
	if err != nil {
		return nil, fmt.Errorf("querying models: %w", err)
	}
	defer rows.Close()

	var models []ModelRow
	for rows.Next() {
		var m ModelRow
		if err := rows.Scan(
			&m.Sys1, &m.Sys2, &m.Compounds, &m.MedianCIWidth, &m.MedianAbsError,
			&m.CILevel, &m.BuiltAt, &m.RunID,
		); err != nil {
			return nil, fmt.Errorf("scanning model: %w", err)
		}
		models = append(models, m)
	}

	return models, rows.Err()
}

// CountModels returns the number of successful models.
func (d *DB) CountModels() (int, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM models").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting models: %w", err)
	}
	return n, nil
}

// ReplaceFailures replaces the build_failures table with the given rows.
func (d *DB) ReplaceFailures(failures []FailureRow) error {
	if _, err := d.db.Exec("DELETE FROM build_failures"); err != nil {
		return fmt.Errorf("clearing build_failures table: %w", err)
	}

	stmt, err := d.db.Prepare(`
		INSERT INTO build_failures (sys1, sys2, message, run_id)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing failures insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range failures {
		if _, err := stmt.Exec(f.Sys1, f.Sys2, f.Message, f.RunID); err != nil {
			return fmt.Errorf("inserting failure %s->%s: %w", f.Sys1, f.Sys2, err)
		}
	}

	return nil
}

// ListFailures returns the failed pairs from the latest build.
func (d *DB) ListFailures() ([]FailureRow, error) {
	rows, err := d.db.Query(`
		SELECT sys1, sys2, message, run_id FROM build_failures
		ORDER BY sys1, sys2
	`)
	if err != nil {
		return nil, fmt.Errorf("querying build failures: %w", err)
	}
	defer rows.Close()

	var failures []FailureRow
	for rows.Next() {
		var f FailureRow
		if err := rows.Scan(&f.Sys1, &f.Sys2, &f.Message, &f.RunID); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		failures = append(failures, f)
	}

	return failures, rows.Err()
}
