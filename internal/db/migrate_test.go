package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "ledger.db")+pragmas)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var version int
	require.NoError(t, db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	return version
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func mustScenarios(t *testing.T, db *sql.DB, id int64) []ScenarioEntry {
	t.Helper()
	entries, err := Scenarios(db, id)
	require.NoError(t, err)
	return entries
}

func insertConversion(t *testing.T, db *sql.DB, runID, path string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO conversions (run_id, file_path, status, converted_at) VALUES (?, ?, ?, ?)`,
		runID, path, StatusOK, now())
	require.NoError(t, err)
}

func TestMigrate_FreshLedger(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	assert.Equal(t, len(All), schemaVersion(t, db))
	for _, table := range []string{"runs", "conversions", "scenarios", "database_tests"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var index string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND tbl_name='conversions'`).Scan(&index)
	require.NoError(t, err)
	assert.Equal(t, "conversions_file_path", index)
}

func TestMigrate_UpgradeKeepsRecordedConversions(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()

	// A ledger written before the scenario and database test tables existed.
	All = origAll[:3]
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	runID, err := StartRun(db, "api", "")
	require.NoError(t, err)
	insertConversion(t, db, runID, "in/login.xlsx")

	All = origAll
	require.NoError(t, Migrate(db))

	assert.Equal(t, len(All), schemaVersion(t, db))
	c, err := LatestConversion(db, "login.xlsx")
	require.NoError(t, err)
	assert.Equal(t, runID, c.RunID)
	assert.Empty(t, mustScenarios(t, db, c.ID))
}

func TestMigrate_SkipsAlreadyAppliedMigrations(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))
	runID, err := StartRun(db, "ui", "login")
	require.NoError(t, err)
	insertConversion(t, db, runID, "in/login.xlsx")

	require.NoError(t, Migrate(db))

	assert.Equal(t, len(All), schemaVersion(t, db))
	assert.Equal(t, 1, countRows(t, db, "runs"))
	assert.Equal(t, 1, countRows(t, db, "conversions"))
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	origAll := All
	defer func() { All = origAll }()

	// The conversion references a run that was never started, so the
	// foreign key rejects it and the migration must leave nothing behind.
	All = append(append([]string{}, origAll...),
		`INSERT INTO conversions (run_id, file_path, status, converted_at) VALUES ('missing', 'a.xlsx', 'ok', '2026-01-01T00:00:00Z')`,
	)

	db := openTestDB(t)
	err := Migrate(db)
	require.Error(t, err)
	assert.ErrorContains(t, err, "migration 6 failed")

	assert.Equal(t, len(origAll), schemaVersion(t, db))
	assert.Equal(t, 0, countRows(t, db, "conversions"))
}
