package db

import (
	"context"
	"strings"

	"reportcard-backend/internal/grading"
	"reportcard-backend/internal/model"
)

// ListSummaries projects every student into one row with both read-time
// aggregates. Detail rows are never materialized into the students table;
// the percentages live only in this projection.
func (r *repository) ListSummaries(ctx context.Context) ([]model.StudentSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.student_id, s.name, d.dept_name, s.year, s.semester,
		       COALESCE(s.email, ''), COALESCE(s.program_type, ''),
		       COALESCE(s.duration_years, 0), COALESCE(s.course_name, ''),
		       COALESCE(att.held, 0), COALESCE(att.attended, 0),
		       COALESCE(mk.total_marks, 0), COALESCE(mk.total_max, 0)
		FROM students s
		JOIN departments d ON s.dept_code = d.dept_code
		LEFT JOIN (
			SELECT student_id,
			       SUM(classes_held) AS held,
			       SUM(classes_attended) AS attended
			FROM attendance GROUP BY student_id
		) att ON att.student_id = s.student_id
		LEFT JOIN (
			SELECT m.student_id,
			       SUM(m.marks) AS total_marks,
			       SUM(sub.max_marks) AS total_max
			FROM marks m
			JOIN subjects sub ON m.subject_code = sub.subject_code
			GROUP BY m.student_id
		) mk ON mk.student_id = s.student_id
		ORDER BY s.dept_code, s.year, s.student_id`)
	if err != nil {
		return nil, mapStoreError(err, "list summaries")
	}
	defer rows.Close()

	var summaries []model.StudentSummary
	for rows.Next() {
		var sm model.StudentSummary
		var totalMarks, totalMax float64
		if err := rows.Scan(&sm.StudentID, &sm.Name, &sm.Department, &sm.Year,
			&sm.Semester, &sm.Email, &sm.ProgramType, &sm.DurationYears,
			&sm.CourseName, &sm.ClassesHeld, &sm.ClassesAttended,
			&totalMarks, &totalMax); err != nil {
			return nil, err
		}
		sm.AttendancePercent = grading.Percentage(float64(sm.ClassesAttended), float64(sm.ClassesHeld))
		sm.MarksPercent = grading.Percentage(totalMarks, totalMax)
		sm.Status = grading.Status(sm.AttendancePercent)
		sm.Grade = grading.LetterGrade(sm.MarksPercent)
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// Statistics aggregates the projection into fleet-wide numbers. No
// pagination; a single institution's roster fits in memory.
func (r *repository) Statistics(ctx context.Context) (*model.Statistics, error) {
	summaries, err := r.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.Statistics{
		TotalStudents:      len(summaries),
		StatusDistribution: map[model.Status]int{},
		YearDistribution:   map[int]int{},
	}

	type deptAcc struct {
		count int
		sum   float64
	}
	deptOrder := []string{}
	depts := map[string]*deptAcc{}

	var sum float64
	for _, sm := range summaries {
		sum += sm.AttendancePercent
		stats.StatusDistribution[sm.Status]++
		stats.YearDistribution[sm.Year]++
		acc, ok := depts[sm.Department]
		if !ok {
			acc = &deptAcc{}
			depts[sm.Department] = acc
			deptOrder = append(deptOrder, sm.Department)
		}
		acc.count++
		acc.sum += sm.AttendancePercent
	}

	if len(summaries) > 0 {
		stats.AveragePercentage = grading.Round2(sum / float64(len(summaries)))
	}
	for _, name := range deptOrder {
		acc := depts[name]
		stats.Departments = append(stats.Departments, model.DeptStat{
			Department:        name,
			Count:             acc.count,
			AveragePercentage: grading.Round2(acc.sum / float64(acc.count)),
		})
	}
	return stats, nil
}

// FilterSummaries is a pure post-hoc predicate over projected rows; it
// never goes back to the store.
func FilterSummaries(summaries []model.StudentSummary, f model.SummaryFilter) []model.StudentSummary {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var out []model.StudentSummary
	for _, sm := range summaries {
		if f.Department != "" && sm.Department != f.Department {
			continue
		}
		if f.Year != 0 && sm.Year != f.Year {
			continue
		}
		if f.Status != "" && sm.Status != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(sm.Name), query) &&
			!strings.Contains(strings.ToLower(sm.StudentID), query) {
			continue
		}
		out = append(out, sm)
	}
	return out
}
