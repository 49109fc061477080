package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DefaultDepartments is the fixed seed list. Codes are derived from the
// first three characters plus a two-digit ordinal, the same rule the
// registrar's office already uses on paper forms.
var DefaultDepartments = []string{
	"B.A. Economics",
	"B.A. English",
	"B.A. Tamil",
	"B.Sc. Botany",
	"B.Sc. Chemistry",
	"B.Sc. Mathematics",
	"B.Sc. Physics",
	"B.Sc. Computer Science",
	"B.Sc. Marine Biology",
	"B.Com.",
	"B.Com. (CA)",
	"Other",
}

// UnknownDeptCode is the sentinel assigned when a submitted department
// name matches nothing. Unrecognized names are accepted, not rejected.
const UnknownDeptCode = "OTH99"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		dept_code TEXT PRIMARY KEY,
		dept_name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		dept_code TEXT NOT NULL,
		year INTEGER NOT NULL,
		semester INTEGER NOT NULL,
		email TEXT,
		program_type TEXT,
		duration_years INTEGER,
		course_name TEXT,
		created_date TEXT,
		FOREIGN KEY (dept_code) REFERENCES departments(dept_code)
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		subject_id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject_name TEXT NOT NULL,
		subject_code TEXT NOT NULL UNIQUE,
		year INTEGER NOT NULL,
		semester INTEGER NOT NULL,
		max_marks INTEGER DEFAULT 100
	)`,
	`CREATE TABLE IF NOT EXISTS marks (
		mark_id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		subject_code TEXT NOT NULL,
		marks REAL NOT NULL,
		FOREIGN KEY (student_id) REFERENCES students(student_id)
			ON DELETE CASCADE,
		FOREIGN KEY (subject_code) REFERENCES subjects(subject_code)
			ON DELETE CASCADE,
		UNIQUE(student_id, subject_code)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		att_id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		month TEXT NOT NULL,
		classes_held INTEGER NOT NULL,
		classes_attended INTEGER NOT NULL,
		FOREIGN KEY (student_id) REFERENCES students(student_id)
			ON DELETE CASCADE,
		UNIQUE(student_id, month)
	)`,
}

// InitSchema creates the tables idempotently and seeds the department
// list on first run. A failure here is fatal to the process.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema creation failed: %w", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM departments`).Scan(&count); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	if count == 0 {
		if err := seedDepartments(ctx, db); err != nil {
			return fmt.Errorf("department seed failed: %w", err)
		}
	}
	return nil
}

func seedDepartments(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, name := range DefaultDepartments {
		code := deptCode(name, i+1)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO departments (dept_code, dept_name) VALUES (?, ?)`,
			code, name); err != nil {
			return err
		}
	}

	// Sentinel row for unrecognized department names; with foreign keys on
	// the lenient fallback still needs a real parent row.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO departments (dept_code, dept_name) VALUES (?, ?)`,
		UnknownDeptCode, "Unknown"); err != nil {
		return err
	}

	return tx.Commit()
}

func deptCode(name string, ordinal int) string {
	prefix := name
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("%s%02d", strings.ToUpper(prefix), ordinal)
}
