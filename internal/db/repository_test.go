package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"reportcard-backend/internal/model"
	apperrors "reportcard-backend/pkg/errors"
)

func openTestDB(t *testing.T) (*sql.DB, Repository) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)
	database, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	if err := InitSchema(context.Background(), database); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return database, NewRepository(database)
}

func seedSubjects(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	subjects := []model.SubjectRequest{
		{Name: "Mathematics", Code: "MTH01", Year: 1, Semester: 1, MaxMarks: 100},
		{Name: "Physics", Code: "PHY01", Year: 1, Semester: 1, MaxMarks: 100},
	}
	for _, s := range subjects {
		if err := repo.AddSubject(ctx, s); err != nil {
			t.Fatalf("seed subject %s: %v", s.Code, err)
		}
	}
}

func sampleRequest() model.UpsertRequest {
	return model.UpsertRequest{
		StudentID: "CS2024001",
		Name:      "Priya Raman",
		DeptName:  "B.Sc. Computer Science",
		Year:      1,
		Semester:  1,
		Email:     "priya@example.com",
		Marks: map[string]string{
			"MTH01": "80",
			"PHY01": "70",
		},
		Attendance: map[string]model.AttendanceEntry{
			"Jan": {Held: 20, Attended: 18},
			"Feb": {Held: 20, Attended: 10},
		},
	}
}

func TestUpsertStudentAndSummary(t *testing.T) {
	_, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	if err := repo.UpsertStudent(ctx, sampleRequest()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	summaries, err := repo.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	sm := summaries[0]
	if sm.ClassesHeld != 40 || sm.ClassesAttended != 28 {
		t.Errorf("attendance totals = %d/%d, want 28/40", sm.ClassesAttended, sm.ClassesHeld)
	}
	if sm.AttendancePercent != 70.00 {
		t.Errorf("attendance percent = %v, want 70.00", sm.AttendancePercent)
	}
	if sm.Status != model.StatusWarning {
		t.Errorf("status = %v, want Warning", sm.Status)
	}
	if sm.MarksPercent != 75.00 {
		t.Errorf("marks percent = %v, want 75.00", sm.MarksPercent)
	}
	if sm.Grade != "A" {
		t.Errorf("grade = %q, want A", sm.Grade)
	}
	if sm.Department != "B.Sc. Computer Science" {
		t.Errorf("department = %q", sm.Department)
	}
}

func TestUpsertReplacesDetailRows(t *testing.T) {
	database, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	if err := repo.UpsertStudent(ctx, sampleRequest()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Resubmit with one mark and one month; the old detail rows must be gone.
	req := sampleRequest()
	req.Marks = map[string]string{"MTH01": "90"}
	req.Attendance = map[string]model.AttendanceEntry{"Mar": {Held: 10, Attended: 10}}
	if err := repo.UpsertStudent(ctx, req); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var markCount, attCount int
	if err := database.QueryRow(`SELECT COUNT(*) FROM marks WHERE student_id = ?`, req.StudentID).Scan(&markCount); err != nil {
		t.Fatal(err)
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM attendance WHERE student_id = ?`, req.StudentID).Scan(&attCount); err != nil {
		t.Fatal(err)
	}
	if markCount != 1 || attCount != 1 {
		t.Errorf("detail rows after resubmit = %d marks, %d attendance, want 1 and 1", markCount, attCount)
	}

	summaries, err := repo.ListSummaries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != 1 {
		t.Fatalf("resubmit created a second student: %d rows", len(summaries))
	}
	if summaries[0].MarksPercent != 90.00 || summaries[0].AttendancePercent != 100.00 {
		t.Errorf("aggregates = %v%% marks, %v%% attendance, want 90 and 100",
			summaries[0].MarksPercent, summaries[0].AttendancePercent)
	}
}

func TestUpsertRollsBackOnUnknownSubject(t *testing.T) {
	database, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	req := sampleRequest()
	req.Marks["CHM01"] = "55" // not in the subjects table

	err := repo.UpsertStudent(ctx, req)
	if err == nil {
		t.Fatal("expected error for unknown subject code")
	}
	if !apperrors.IsIntegrity(err) {
		t.Errorf("expected integrity error, got %v", err)
	}

	// The whole submission rolls back; the student row must not exist.
	var count int
	if err := database.QueryRow(`SELECT COUNT(*) FROM students WHERE student_id = ?`, req.StudentID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("student row survived a failed upsert")
	}
}

func TestUpsertSkipsBlankMarksAndEmptyMonths(t *testing.T) {
	database, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	req := sampleRequest()
	req.Marks = map[string]string{
		"MTH01": "80",
		"PHY01": "   ", // blank, skipped rather than stored as zero
	}
	req.Attendance = map[string]model.AttendanceEntry{
		"Jan":    {Held: 20, Attended: 18},
		"Feb":    {Held: 0, Attended: 0},  // not reported
		"Smarch": {Held: 10, Attended: 9}, // not a canonical month key
	}
	if err := repo.UpsertStudent(ctx, req); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var markCount, attCount int
	database.QueryRow(`SELECT COUNT(*) FROM marks WHERE student_id = ?`, req.StudentID).Scan(&markCount)
	database.QueryRow(`SELECT COUNT(*) FROM attendance WHERE student_id = ?`, req.StudentID).Scan(&attCount)
	if markCount != 1 {
		t.Errorf("blank mark was stored: %d rows", markCount)
	}
	if attCount != 1 {
		t.Errorf("zero-held or unknown month was stored: %d rows", attCount)
	}
}

func TestUpsertRejectsNonNumericMarks(t *testing.T) {
	_, repo := openTestDB(t)
	seedSubjects(t, repo)

	req := sampleRequest()
	req.Marks["MTH01"] = "eighty"

	err := repo.UpsertStudent(context.Background(), req)
	var ve apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertValidation(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		alter func(*model.UpsertRequest)
	}{
		{"empty id", func(r *model.UpsertRequest) { r.StudentID = "" }},
		{"whitespace id", func(r *model.UpsertRequest) { r.StudentID = "   " }},
		{"empty name", func(r *model.UpsertRequest) { r.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleRequest()
			req.Marks = nil
			req.Attendance = nil
			tt.alter(&req)
			err := repo.UpsertStudent(ctx, req)
			var ve apperrors.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUnknownDepartmentFallsBackToSentinel(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	req := sampleRequest()
	req.Marks = nil
	req.Attendance = nil
	req.DeptName = "School of Wizardry"
	if err := repo.UpsertStudent(ctx, req); err != nil {
		t.Fatalf("upsert with unknown department: %v", err)
	}

	detail, err := repo.GetStudentDetail(ctx, req.StudentID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Student.DeptCode != UnknownDeptCode {
		t.Errorf("dept code = %q, want %q", detail.Student.DeptCode, UnknownDeptCode)
	}
}

func TestDeleteStudentCascades(t *testing.T) {
	database, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	req := sampleRequest()
	if err := repo.UpsertStudent(ctx, req); err != nil {
		t.Fatal(err)
	}

	if err := repo.DeleteStudent(ctx, req.StudentID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var markCount, attCount int
	database.QueryRow(`SELECT COUNT(*) FROM marks WHERE student_id = ?`, req.StudentID).Scan(&markCount)
	database.QueryRow(`SELECT COUNT(*) FROM attendance WHERE student_id = ?`, req.StudentID).Scan(&attCount)
	if markCount != 0 || attCount != 0 {
		t.Errorf("detail rows survived delete: %d marks, %d attendance", markCount, attCount)
	}

	if err := repo.DeleteStudent(ctx, req.StudentID); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("second delete = %v, want ErrStudentNotFound", err)
	}
}

func TestGetStudentDetail(t *testing.T) {
	_, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	if err := repo.UpsertStudent(ctx, sampleRequest()); err != nil {
		t.Fatal(err)
	}

	detail, err := repo.GetStudentDetail(ctx, "CS2024001")
	if err != nil {
		t.Fatal(err)
	}
	if detail.Student.Name != "Priya Raman" {
		t.Errorf("name = %q", detail.Student.Name)
	}
	if len(detail.Marks) != 2 {
		t.Errorf("marks rows = %d, want 2", len(detail.Marks))
	}
	if len(detail.Attendance) != 2 {
		t.Fatalf("attendance rows = %d, want 2", len(detail.Attendance))
	}
	// Months come back in calendar order regardless of insert order.
	if detail.Attendance[0].Month != "Jan" || detail.Attendance[1].Month != "Feb" {
		t.Errorf("attendance order = %s, %s", detail.Attendance[0].Month, detail.Attendance[1].Month)
	}

	if _, err := repo.GetStudentDetail(ctx, "NOPE"); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("missing student = %v, want ErrStudentNotFound", err)
	}
}

func TestAddSubjectDuplicate(t *testing.T) {
	_, repo := openTestDB(t)
	ctx := context.Background()

	req := model.SubjectRequest{Name: "Chemistry", Code: "chm01", Year: 1, Semester: 1}
	if err := repo.AddSubject(ctx, req); err != nil {
		t.Fatalf("first add: %v", err)
	}

	// Codes are upper-cased before storage, so this collides.
	err := repo.AddSubject(ctx, model.SubjectRequest{Name: "Chemistry II", Code: "CHM01", Year: 1, Semester: 2})
	if !errors.Is(err, apperrors.ErrDuplicateSubject) {
		t.Errorf("duplicate add = %v, want ErrDuplicateSubject", err)
	}

	subjects, err := repo.ListSubjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subjects) != 1 {
		t.Fatalf("subjects = %d, want 1", len(subjects))
	}
	if subjects[0].Code != "CHM01" {
		t.Errorf("stored code = %q, want CHM01", subjects[0].Code)
	}
	if subjects[0].MaxMarks != 100 {
		t.Errorf("default max marks = %d, want 100", subjects[0].MaxMarks)
	}
}

func TestListDepartmentsSeeded(t *testing.T) {
	_, repo := openTestDB(t)

	depts, err := repo.ListDepartments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// The fixed list plus the sentinel row.
	if len(depts) != len(DefaultDepartments)+1 {
		t.Errorf("departments = %d, want %d", len(depts), len(DefaultDepartments)+1)
	}
	found := false
	for _, d := range depts {
		if d.Code == UnknownDeptCode {
			found = true
		}
	}
	if !found {
		t.Error("sentinel department row missing")
	}
}

func TestStatistics(t *testing.T) {
	_, repo := openTestDB(t)
	seedSubjects(t, repo)
	ctx := context.Background()

	first := sampleRequest() // 70% attendance, Warning
	if err := repo.UpsertStudent(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := sampleRequest()
	second.StudentID = "CS2024002"
	second.Name = "Arun Kumar"
	second.Year = 2
	second.Attendance = map[string]model.AttendanceEntry{
		"Jan": {Held: 20, Attended: 18}, // 90%, Good
	}
	if err := repo.UpsertStudent(ctx, second); err != nil {
		t.Fatal(err)
	}

	stats, err := repo.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalStudents != 2 {
		t.Errorf("total = %d, want 2", stats.TotalStudents)
	}
	if stats.AveragePercentage != 80.00 {
		t.Errorf("average = %v, want 80.00", stats.AveragePercentage)
	}
	if stats.StatusDistribution[model.StatusWarning] != 1 || stats.StatusDistribution[model.StatusGood] != 1 {
		t.Errorf("status distribution = %v", stats.StatusDistribution)
	}
	if stats.YearDistribution[1] != 1 || stats.YearDistribution[2] != 1 {
		t.Errorf("year distribution = %v", stats.YearDistribution)
	}
	if len(stats.Departments) != 1 {
		t.Fatalf("departments = %d, want 1", len(stats.Departments))
	}
	if stats.Departments[0].Count != 2 || stats.Departments[0].AveragePercentage != 80.00 {
		t.Errorf("dept stat = %+v", stats.Departments[0])
	}
}

func TestStatisticsEmpty(t *testing.T) {
	_, repo := openTestDB(t)

	stats, err := repo.Statistics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalStudents != 0 || stats.AveragePercentage != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestFilterSummaries(t *testing.T) {
	summaries := []model.StudentSummary{
		{StudentID: "CS001", Name: "Priya Raman", Department: "B.Sc. Computer Science", Year: 1, Status: model.StatusGood},
		{StudentID: "CS002", Name: "Arun Kumar", Department: "B.Sc. Computer Science", Year: 2, Status: model.StatusWarning},
		{StudentID: "PH001", Name: "Meena Devi", Department: "B.Sc. Physics", Year: 1, Status: model.StatusCritical},
	}

	tests := []struct {
		name   string
		filter model.SummaryFilter
		want   []string
	}{
		{"no filter", model.SummaryFilter{}, []string{"CS001", "CS002", "PH001"}},
		{"by department", model.SummaryFilter{Department: "B.Sc. Physics"}, []string{"PH001"}},
		{"by year", model.SummaryFilter{Year: 1}, []string{"CS001", "PH001"}},
		{"by status", model.SummaryFilter{Status: model.StatusWarning}, []string{"CS002"}},
		{"by name substring", model.SummaryFilter{Query: "kumar"}, []string{"CS002"}},
		{"by id substring", model.SummaryFilter{Query: "ph0"}, []string{"PH001"}},
		{"combined", model.SummaryFilter{Department: "B.Sc. Computer Science", Year: 2}, []string{"CS002"}},
		{"no match", model.SummaryFilter{Department: "B.Com."}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSummaries(summaries, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].StudentID != id {
					t.Errorf("row %d = %s, want %s", i, got[i].StudentID, id)
				}
			}
		})
	}
}
