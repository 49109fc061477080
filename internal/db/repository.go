package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"reportcard-backend/internal/model"
	apperrors "reportcard-backend/pkg/errors"
)

type Repository interface {
	UpsertStudent(ctx context.Context, req model.UpsertRequest) error
	GetStudentDetail(ctx context.Context, studentID string) (*model.StudentDetail, error)
	DeleteStudent(ctx context.Context, studentID string) error
	ListDepartments(ctx context.Context) ([]model.Department, error)
	AddSubject(ctx context.Context, req model.SubjectRequest) error
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	ListSummaries(ctx context.Context) ([]model.StudentSummary, error)
	Statistics(ctx context.Context) (*model.Statistics, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const createdDateLayout = "2006-01-02"

// UpsertStudent performs the whole replace-and-reinsert protocol in one
// transaction: write-or-replace the student row, drop the old detail rows,
// insert the new ones. Partial failure rolls everything back.
func (r *repository) UpsertStudent(ctx context.Context, req model.UpsertRequest) error {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	if req.StudentID == "" {
		return apperrors.ValidationError{Field: "student_id", Value: req.StudentID, Message: "must not be empty"}
	}
	if req.Name == "" {
		return apperrors.ValidationError{Field: "name", Value: req.Name, Message: "must not be empty"}
	}

	deptCode, err := r.resolveDeptCode(ctx, req.DeptName)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return mapStoreError(err, "begin upsert transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO students
		(student_id, name, dept_code, year, semester, email,
		 program_type, duration_years, course_name, created_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.StudentID, req.Name, deptCode, req.Year, req.Semester, req.Email,
		req.ProgramType, req.DurationYears, req.CourseName,
		time.Now().Format(createdDateLayout))
	if err != nil {
		return mapStoreError(err, "write student row")
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM marks WHERE student_id = ?`, req.StudentID); err != nil {
		return mapStoreError(err, "clear marks")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = ?`, req.StudentID); err != nil {
		return mapStoreError(err, "clear attendance")
	}

	for code, raw := range req.Marks {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		marks, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return apperrors.ValidationError{Field: "marks", Value: raw,
				Message: fmt.Sprintf("not a number for subject %s", code)}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO marks (student_id, subject_code, marks) VALUES (?, ?, ?)`,
			req.StudentID, code, marks)
		if err != nil {
			return mapStoreError(err, "insert mark")
		}
	}

	// Only the twelve canonical month keys are stored, in calendar order.
	// A month with zero held classes was not reported; store nothing.
	for _, month := range model.Months {
		entry, ok := req.Attendance[month]
		if !ok || entry.Held <= 0 {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance (student_id, month, classes_held, classes_attended)
			VALUES (?, ?, ?, ?)`,
			req.StudentID, month, entry.Held, entry.Attended)
		if err != nil {
			return mapStoreError(err, "insert attendance")
		}
	}

	if err := tx.Commit(); err != nil {
		return mapStoreError(err, "commit upsert")
	}
	return nil
}

// resolveDeptCode is deliberately lenient: an unrecognized department name
// falls back to the sentinel code instead of failing the submission.
func (r *repository) resolveDeptCode(ctx context.Context, deptName string) (string, error) {
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT dept_code FROM departments WHERE dept_name = ?`, deptName).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return UnknownDeptCode, nil
	}
	if err != nil {
		return "", mapStoreError(err, "resolve department")
	}
	return code, nil
}

func (r *repository) GetStudentDetail(ctx context.Context, studentID string) (*model.StudentDetail, error) {
	var detail model.StudentDetail
	var created string
	err := r.db.QueryRowContext(ctx, `
		SELECT s.student_id, s.name, s.dept_code, d.dept_name, s.year, s.semester,
		       s.email, s.program_type, s.duration_years, s.course_name, s.created_date
		FROM students s
		JOIN departments d ON s.dept_code = d.dept_code
		WHERE s.student_id = ?`, studentID).Scan(
		&detail.Student.StudentID, &detail.Student.Name, &detail.Student.DeptCode,
		&detail.Student.DeptName, &detail.Student.Year, &detail.Student.Semester,
		&detail.Student.Email, &detail.Student.ProgramType,
		&detail.Student.DurationYears, &detail.Student.CourseName, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrStudentNotFound
	}
	if err != nil {
		return nil, mapStoreError(err, "read student")
	}
	if t, perr := time.Parse(createdDateLayout, created); perr == nil {
		detail.Student.CreatedDate = t
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.subject_code, s.subject_name, s.max_marks, m.marks
		FROM marks m
		JOIN subjects s ON m.subject_code = s.subject_code
		WHERE m.student_id = ?
		ORDER BY s.subject_code`, studentID)
	if err != nil {
		return nil, mapStoreError(err, "read marks")
	}
	defer rows.Close()
	for rows.Next() {
		var m model.Mark
		if err := rows.Scan(&m.SubjectCode, &m.SubjectName, &m.MaxMarks, &m.Marks); err != nil {
			return nil, err
		}
		detail.Marks = append(detail.Marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attRows, err := r.db.QueryContext(ctx, `
		SELECT month, classes_held, classes_attended
		FROM attendance
		WHERE student_id = ?
		ORDER BY CASE month
			WHEN 'Jan' THEN 1 WHEN 'Feb' THEN 2 WHEN 'Mar' THEN 3
			WHEN 'Apr' THEN 4 WHEN 'May' THEN 5 WHEN 'Jun' THEN 6
			WHEN 'Jul' THEN 7 WHEN 'Aug' THEN 8 WHEN 'Sep' THEN 9
			WHEN 'Oct' THEN 10 WHEN 'Nov' THEN 11 WHEN 'Dec' THEN 12
		END`, studentID)
	if err != nil {
		return nil, mapStoreError(err, "read attendance")
	}
	defer attRows.Close()
	for attRows.Next() {
		var a model.Attendance
		if err := attRows.Scan(&a.Month, &a.ClassesHeld, &a.ClassesAttended); err != nil {
			return nil, err
		}
		detail.Attendance = append(detail.Attendance, a)
	}
	if err := attRows.Err(); err != nil {
		return nil, err
	}

	return &detail, nil
}

// DeleteStudent removes the student row; marks and attendance go with it
// via the cascade.
func (r *repository) DeleteStudent(ctx context.Context, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = ?`, studentID)
	if err != nil {
		return mapStoreError(err, "delete student")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

func (r *repository) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT dept_code, dept_name FROM departments ORDER BY dept_name`)
	if err != nil {
		return nil, mapStoreError(err, "list departments")
	}
	defer rows.Close()

	var depts []model.Department
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.Code, &d.Name); err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

func (r *repository) AddSubject(ctx context.Context, req model.SubjectRequest) error {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" {
		return apperrors.ValidationError{Field: "code", Value: req.Code, Message: "must not be empty"}
	}
	if req.Name == "" {
		return apperrors.ValidationError{Field: "name", Value: req.Name, Message: "must not be empty"}
	}
	if req.MaxMarks <= 0 {
		req.MaxMarks = 100
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subjects (subject_name, subject_code, year, semester, max_marks)
		VALUES (?, ?, ?, ?, ?)`,
		req.Name, req.Code, req.Year, req.Semester, req.MaxMarks)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateSubject, req.Code)
		}
		return mapStoreError(err, "insert subject")
	}
	return nil
}

func (r *repository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subject_code, subject_name, year, semester, max_marks
		FROM subjects
		ORDER BY year, semester, subject_name`)
	if err != nil {
		return nil, mapStoreError(err, "list subjects")
	}
	defer rows.Close()

	var subjects []model.Subject
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.Code, &s.Name, &s.Year, &s.Semester, &s.MaxMarks); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// mapStoreError classifies driver errors into the app taxonomy. Constraint
// violations mean an identifier collision or malformed reference data; lock
// errors are transient and retried by the caller's wrapper.
func mapStoreError(err error, op string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			return apperrors.NewIntegrityError(err, "identifier collision or malformed reference data")
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return apperrors.NewTransientError(err, "store is locked")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
