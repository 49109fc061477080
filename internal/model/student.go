package model

import "time"

type Status string

const (
	StatusGood     Status = "Good"
	StatusWarning  Status = "Warning"
	StatusCritical Status = "Critical"
)

var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type Department struct {
	Code string `json:"dept_code" db:"dept_code"`
	Name string `json:"dept_name" db:"dept_name"`
}

type Student struct {
	StudentID     string    `json:"student_id" db:"student_id"`
	Name          string    `json:"name" db:"name"`
	DeptCode      string    `json:"dept_code" db:"dept_code"`
	DeptName      string    `json:"dept_name" db:"dept_name"`
	Year          int       `json:"year" db:"year"`
	Semester      int       `json:"semester" db:"semester"`
	Email         string    `json:"email,omitempty" db:"email"`
	ProgramType   string    `json:"program_type" db:"program_type"`
	DurationYears int       `json:"duration_years" db:"duration_years"`
	CourseName    string    `json:"course_name" db:"course_name"`
	CreatedDate   time.Time `json:"created_date" db:"created_date"`
}

type Subject struct {
	Code     string `json:"subject_code" db:"subject_code"`
	Name     string `json:"subject_name" db:"subject_name"`
	Year     int    `json:"year" db:"year"`
	Semester int    `json:"semester" db:"semester"`
	MaxMarks int    `json:"max_marks" db:"max_marks"`
}

// Mark joins the subject row so a report card needs no second lookup.
type Mark struct {
	SubjectCode string  `json:"subject_code" db:"subject_code"`
	SubjectName string  `json:"subject_name" db:"subject_name"`
	MaxMarks    int     `json:"max_marks" db:"max_marks"`
	Marks       float64 `json:"marks" db:"marks"`
}

type Attendance struct {
	Month           string `json:"month" db:"month"`
	ClassesHeld     int    `json:"classes_held" db:"classes_held"`
	ClassesAttended int    `json:"classes_attended" db:"classes_attended"`
}
