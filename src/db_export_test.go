package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func exportedStore() *StatStore {
	store := NewStatStore()
	store.RegisterConn("1a2b", "10.0.0.1:5432")
	store.RegisterConn("beef", "999.1.2.3:8080")
	store.OnStart(1, "1a2b", "SELECT name")
	store.OnStart(2, "beef", "SELECT name")
	store.OnEnd(1, 40, 30, time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC))
	return store
}

func TestExportReport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.db")

	store := exportedStore()
	report := BuildReport(store)
	require.NoError(t, ExportReport(dbPath, "test.log", report, store))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var source, topRequest string
	var validCount, invalidCount, topFreq int
	row := db.QueryRow(`SELECT source, valid_addr_count, invalid_addr_count, top_request, top_request_freq FROM report`)
	require.NoError(t, row.Scan(&source, &validCount, &invalidCount, &topRequest, &topFreq))

	assert.Equal(t, "test.log", source)
	assert.Equal(t, 1, validCount)
	assert.Equal(t, 1, invalidCount)
	assert.Equal(t, "SELECT name", topRequest)
	assert.Equal(t, 2, topFreq)

	var requestRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM requests`).Scan(&requestRows))
	assert.Equal(t, 1, requestRows)

	var validAddrs, invalidAddrs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM addresses WHERE valid = 1`).Scan(&validAddrs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM addresses WHERE valid = 0`).Scan(&invalidAddrs))
	assert.Equal(t, 1, validAddrs)
	assert.Equal(t, 1, invalidAddrs)
}

func TestExportReportReplacesPrevious(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "report.db")

	store := exportedStore()
	report := BuildReport(store)
	require.NoError(t, ExportReport(dbPath, "first.log", report, store))
	require.NoError(t, ExportReport(dbPath, "second.log", report, store))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var reportRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM report`).Scan(&reportRows))
	assert.Equal(t, 1, reportRows)

	var source string
	require.NoError(t, db.QueryRow(`SELECT source FROM report`).Scan(&source))
	assert.Equal(t, "second.log", source)
}

func TestExportReportBadPath(t *testing.T) {
	store := exportedStore()
	report := BuildReport(store)

	missingDir := filepath.Join(t.TempDir(), "nope", "report.db")
	err := ExportReport(missingDir, "test.log", report, store)
	assert.Error(t, err)

	_, statErr := os.Stat(missingDir)
	assert.True(t, os.IsNotExist(statErr))
}
