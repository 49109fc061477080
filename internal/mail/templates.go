package mail

import (
	"fmt"

	"reportcard-backend/internal/model"
)

// Body picks the plain-text wording by status tier. The three templates are
// the ones students actually receive; keep the registrar's phrasing intact.
func Body(s model.StudentSummary, college, city string) string {
	details := fmt.Sprintf(`Your Details:
- Student ID: %s
- Year: %d
- Department: %s
- Total Classes: %d
- Present: %d
- Absent: %d
- Attendance: %.2f%%`,
		s.StudentID, s.Year, s.Department,
		s.ClassesHeld, s.ClassesAttended, s.ClassesHeld-s.ClassesAttended,
		s.AttendancePercent)

	signature := fmt.Sprintf("Best Regards,\n%s\n%s", college, city)

	switch s.Status {
	case model.StatusCritical:
		return fmt.Sprintf(`Dear %s,

This is an URGENT notice regarding your attendance.

%s
- Status: CRITICAL (Below 60%%)

WARNING: Your attendance is critically low. Immediate action is required.

Please meet with your HOD to discuss this matter urgently.

%s
`, s.Name, details, signature)
	case model.StatusWarning:
		return fmt.Sprintf(`Dear %s,

This is a notice regarding your attendance status.

%s
- Status: WARNING (60-74%%)

Your attendance needs improvement to meet the 75%% requirement.

Please ensure regular attendance to avoid academic issues.

%s
`, s.Name, details, signature)
	default:
		return fmt.Sprintf(`Dear %s,

This is your attendance report.

%s
- Status: GOOD

Your attendance is satisfactory. Keep up the good work!

%s
`, s.Name, details, signature)
	}
}
