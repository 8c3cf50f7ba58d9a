package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// ExportReport writes the report and its backing tables to a SQLite file.
// Each export replaces the file's previous content, the database is an
// output format and is never read back on later runs.
func ExportReport(dbPath, source string, report *Report, store *StatStore) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set pragma: %v\n", err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS report (
			generated_ts TEXT NOT NULL,
			source TEXT NOT NULL,
			valid_addr_count INTEGER NOT NULL,
			invalid_addr_count INTEGER NOT NULL,
			top_request TEXT NOT NULL,
			top_request_freq INTEGER NOT NULL,
			avg_words REAL NOT NULL,
			avg_working_ms REAL NOT NULL,
			avg_total_ms REAL NOT NULL,
			max_working_ms REAL NOT NULL,
			max_total_ms REAL NOT NULL,
			started_queries INTEGER NOT NULL,
			finished_queries INTEGER NOT NULL,
			requests_per_sec REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS requests (
			text TEXT NOT NULL,
			n INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS addresses (
			token TEXT NOT NULL,
			valid INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	// replace any previous export in this file
	for _, table := range []string{"report", "requests", "addresses"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			tx.Rollback()
			return err
		}
	}

	_, err = tx.Exec(`INSERT INTO report VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), source,
		report.ValidAddrCount, report.InvalidCount,
		report.TopRequest, report.TopRequestFreq, report.AvgWords,
		report.AvgWorkingMs, report.AvgTotalMs,
		report.MaxWorkingMs, report.MaxTotalMs,
		report.StartedQueries, report.FinishedQueries, report.RequestsPerSec)
	if err != nil {
		tx.Rollback()
		return err
	}

	reqStmt, err := tx.Prepare(`INSERT INTO requests (text, n) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer reqStmt.Close()

	for _, row := range requestTable(store) {
		if _, err := reqStmt.Exec(row.Text, row.N); err != nil {
			tx.Rollback()
			return err
		}
	}

	addrStmt, err := tx.Prepare(`INSERT INTO addresses (token, valid) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer addrStmt.Close()

	for _, addr := range store.ValidAddrs() {
		if _, err := addrStmt.Exec(addr, 1); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, token := range store.InvalidAddrs() {
		if _, err := addrStmt.Exec(token, 0); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
