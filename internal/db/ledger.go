package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chriserin/xlfeat/internal/model"
)

// Conversion outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var ErrNotFound = errors.New("not found")

// Conversion is one workbook processed by a run.
type Conversion struct {
	ID           int64
	RunID        string
	Mode         string
	FilePath     string
	Status       string
	Scenarios    int
	Externalized bool
	Message      string
	ConvertedAt  time.Time
}

// ScenarioEntry is an indexed scenario of a generated feature.
type ScenarioEntry struct {
	Name string
	Line int
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// StartRun records a batch run and returns its id.
func StartRun(sqlDB *sql.DB, mode, selector string) (string, error) {
	runID := uuid.NewString()
	_, err := sqlDB.Exec(`INSERT INTO runs (run_id, mode, selector, started_at) VALUES (?, ?, ?, ?)`,
		runID, mode, selector, now())
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return runID, nil
}

// RecordConversion stores c with its scenario index and database tests.
func RecordConversion(sqlDB *sql.DB, c Conversion, scenarios []ScenarioEntry, tests []model.DatabaseTest) (int64, error) {
	tx, err := sqlDB.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning conversion: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO conversions (run_id, file_path, status, scenarios, externalized, message, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.RunID, c.FilePath, c.Status, c.Scenarios, c.Externalized, c.Message, now())
	if err != nil {
		return 0, fmt.Errorf("inserting conversion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading conversion id: %w", err)
	}

	for _, s := range scenarios {
		if _, err := tx.Exec(`INSERT INTO scenarios (conversion_id, name, line) VALUES (?, ?, ?)`, id, s.Name, s.Line); err != nil {
			return 0, fmt.Errorf("inserting scenario %s: %w", s.Name, err)
		}
	}
	for _, t := range tests {
		_, err := tx.Exec(`
			INSERT INTO database_tests (conversion_id, connection_string, location, query, validation)
			VALUES (?, ?, ?, ?, ?)
		`, id, t.ConnectionString, t.Location, t.Query, t.ResultJSON)
		if err != nil {
			return 0, fmt.Errorf("inserting database test: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing conversion: %w", err)
	}
	return id, nil
}

const conversionColumns = `
	SELECT c.id, c.run_id, r.mode, c.file_path, c.status, c.scenarios, c.externalized, c.message, c.converted_at
	FROM conversions c
	JOIN runs r ON r.run_id = c.run_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (Conversion, error) {
	var c Conversion
	var convertedAt string
	if err := row.Scan(&c.ID, &c.RunID, &c.Mode, &c.FilePath, &c.Status, &c.Scenarios, &c.Externalized, &c.Message, &convertedAt); err != nil {
		return Conversion{}, err
	}
	t, err := time.Parse(time.RFC3339, convertedAt)
	if err != nil {
		return Conversion{}, fmt.Errorf("parsing converted_at: %w", err)
	}
	c.ConvertedAt = t
	return c, nil
}

// Conversions lists recorded conversions, latest first. An empty status
// lists every outcome.
func Conversions(sqlDB *sql.DB, status string) ([]Conversion, error) {
	rows, err := sqlDB.Query(conversionColumns+`
		WHERE ? = '' OR c.status = ?
		ORDER BY c.id DESC
	`, status, status)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer rows.Close()

	var results []Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversions: %w", err)
	}
	return results, nil
}

// LatestConversion returns the most recent conversion of the workbook at
// path. A bare file name matches a recorded path in any directory.
func LatestConversion(sqlDB *sql.DB, path string) (Conversion, error) {
	row := sqlDB.QueryRow(conversionColumns+`
		WHERE c.file_path = ?1 OR substr(c.file_path, -length(?1) - 1) = '/' || ?1
		ORDER BY c.id DESC
		LIMIT 1
	`, path)
	c, err := scanConversion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversion{}, fmt.Errorf("conversion of %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Conversion{}, fmt.Errorf("querying conversion: %w", err)
	}
	return c, nil
}

// Scenarios returns the scenario index of a conversion in file order.
func Scenarios(sqlDB *sql.DB, conversionID int64) ([]ScenarioEntry, error) {
	rows, err := sqlDB.Query(`SELECT name, line FROM scenarios WHERE conversion_id = ? ORDER BY line, id`, conversionID)
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	var results []ScenarioEntry
	for rows.Next() {
		var s ScenarioEntry
		if err := rows.Scan(&s.Name, &s.Line); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

// DatabaseTests returns the database test definitions of a conversion.
func DatabaseTests(sqlDB *sql.DB, conversionID int64) ([]model.DatabaseTest, error) {
	rows, err := sqlDB.Query(`
		SELECT connection_string, location, query, validation
		FROM database_tests WHERE conversion_id = ? ORDER BY id
	`, conversionID)
	if err != nil {
		return nil, fmt.Errorf("querying database tests: %w", err)
	}
	defer rows.Close()

	var results []model.DatabaseTest
	for rows.Next() {
		var t model.DatabaseTest
		if err := rows.Scan(&t.ConnectionString, &t.Location, &t.Query, &t.ResultJSON); err != nil {
			return nil, fmt.Errorf("scanning database test: %w", err)
		}
		results = append(results, t)
	}
	return results, rows.Err()
}
