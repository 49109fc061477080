package model

// UpsertRequest is the full student payload. Marks maps subject code to the
// raw submitted value (blank entries are skipped, not stored as zero).
// Attendance maps month name to counts; months with zero held classes are
// treated as not reported and dropped.
type UpsertRequest struct {
	StudentID     string                     `json:"student_id"`
	Name          string                     `json:"name"`
	DeptName      string                     `json:"dept_name"`
	Year          int                        `json:"year"`
	Semester      int                        `json:"semester"`
	Email         string                     `json:"email"`
	ProgramType   string                     `json:"program_type"`
	DurationYears int                        `json:"duration_years"`
	CourseName    string                     `json:"course_name"`
	Marks         map[string]string          `json:"marks_data"`
	Attendance    map[string]AttendanceEntry `json:"attendance_data"`
}

type AttendanceEntry struct {
	Held     int `json:"held"`
	Attended int `json:"attended"`
}

type SubjectRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Year     int    `json:"year"`
	Semester int    `json:"semester"`
	MaxMarks int    `json:"max_marks"`
}

// StudentSummary is one row of the fleet projection: identity fields plus
// the two read-time aggregates.
type StudentSummary struct {
	StudentID         string  `json:"student_id"`
	Name              string  `json:"name"`
	Department        string  `json:"department"`
	Year              int     `json:"year"`
	Semester          int     `json:"semester"`
	Email             string  `json:"email"`
	ProgramType       string  `json:"program_type"`
	DurationYears     int     `json:"duration_years"`
	CourseName        string  `json:"course_name"`
	ClassesHeld       int     `json:"classes_held"`
	ClassesAttended   int     `json:"classes_attended"`
	AttendancePercent float64 `json:"attendance_percent"`
	MarksPercent      float64 `json:"marks_percent"`
	Status            Status  `json:"status"`
	Grade             string  `json:"grade"`
}

// SummaryFilter is applied in memory after one store pass.
type SummaryFilter struct {
	Department string
	Year       int
	Status     Status
	Query      string
}

type DeptStat struct {
	Department        string  `json:"department"`
	Count             int     `json:"count"`
	AveragePercentage float64 `json:"average_percentage"`
}

type Statistics struct {
	TotalStudents      int            `json:"total_students"`
	AveragePercentage  float64        `json:"average_percentage"`
	StatusDistribution map[Status]int `json:"status_distribution"`
	YearDistribution   map[int]int    `json:"year_distribution"`
	Departments        []DeptStat     `json:"departments"`
}

type StudentDetail struct {
	Student    Student      `json:"student"`
	Marks      []Mark       `json:"marks"`
	Attendance []Attendance `json:"attendance"`
}
