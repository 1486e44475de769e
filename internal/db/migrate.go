package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS groups (
		id          INTEGER PRIMARY KEY,
		name        TEXT    NOT NULL UNIQUE,
		is_internal INTEGER NOT NULL DEFAULT 1
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id          INTEGER PRIMARY KEY,
		name        TEXT    NOT NULL UNIQUE,
		group_id    INTEGER NOT NULL REFERENCES groups(id),
		salary      REAL    NOT NULL DEFAULT 120000,
		start_year  INTEGER,
		start_month INTEGER CHECK(start_month BETWEEN 1 AND 12),
		end_year    INTEGER,
		end_month   INTEGER CHECK(end_month BETWEEN 1 AND 12)
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id             INTEGER PRIMARY KEY,
		name           TEXT    NOT NULL,
		local_pi_id    INTEGER REFERENCES employees(id),
		admin_group_id INTEGER REFERENCES groups(id),
		is_nonproject  INTEGER NOT NULL DEFAULT 0,
		start_year     INTEGER,
		start_month    INTEGER CHECK(start_month BETWEEN 1 AND 12),
		end_year       INTEGER,
		end_month      INTEGER CHECK(end_month BETWEEN 1 AND 12)
	)`,

	`CREATE TABLE IF NOT EXISTS budget_lines (
		id               INTEGER PRIMARY KEY,
		project_id       INTEGER NOT NULL REFERENCES projects(id),
		budget_line_code TEXT    NOT NULL UNIQUE,
		name             TEXT,
		start_year       INTEGER,
		start_month      INTEGER CHECK(start_month BETWEEN 1 AND 12),
		end_year         INTEGER,
		end_month        INTEGER CHECK(end_month BETWEEN 1 AND 12),
		personnel_budget REAL
	)`,

	`CREATE TABLE IF NOT EXISTS allocation_lines (
		id             INTEGER PRIMARY KEY,
		employee_id    INTEGER NOT NULL REFERENCES employees(id),
		budget_line_id INTEGER NOT NULL REFERENCES budget_lines(id),
		fund_code      TEXT,
		source         TEXT,
		account        TEXT,
		cost_code_1    TEXT,
		cost_code_2    TEXT,
		cost_code_3    TEXT,
		program_code   TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS efforts (
		id                 INTEGER PRIMARY KEY,
		allocation_line_id INTEGER NOT NULL REFERENCES allocation_lines(id),
		year               INTEGER NOT NULL,
		month              INTEGER NOT NULL CHECK(month BETWEEN 1 AND 12),
		percentage         REAL    NOT NULL CHECK(percentage > 0 AND percentage <= 100),
		UNIQUE(allocation_line_id, year, month)
	)`,

	`CREATE TABLE IF NOT EXISTS _meta (
		key   TEXT PRIMARY KEY,
		value TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id        INTEGER PRIMARY KEY,
		timestamp TEXT NOT NULL,
		action    TEXT NOT NULL,
		details   TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS change_sets (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'open'
		           CHECK(status IN ('open','merged','discarded')),
		created_at TEXT NOT NULL,
		closed_at  TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS mutation_journal (
		id            INTEGER PRIMARY KEY,
		change_set_id INTEGER NOT NULL REFERENCES change_sets(id),
		seq           INTEGER NOT NULL,
		table_name    TEXT    NOT NULL,
		operation     TEXT    NOT NULL CHECK(operation IN ('insert','update','delete')),
		row_id        INTEGER NOT NULL,
		before_image  TEXT,
		after_image   TEXT,
		UNIQUE(change_set_id, seq)
	)`,

	// Added after the first release; older datasets gain the column here.
	`ALTER TABLE budget_lines ADD COLUMN display_name TEXT`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_change_sets_single_open ON change_sets(status) WHERE status = 'open'`,
	`CREATE INDEX IF NOT EXISTS idx_efforts_year_month ON efforts(year, month)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_lines_employee ON allocation_lines(employee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_allocation_lines_budget_line ON allocation_lines(budget_line_id)`,
	`CREATE INDEX IF NOT EXISTS idx_budget_lines_project ON budget_lines(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_change_set ON mutation_journal(change_set_id, seq)`,

	`INSERT OR IGNORE INTO _meta (key, value) VALUES ('db_role', 'main')`,
}
