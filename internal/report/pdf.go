// Package report renders the student report card PDF: college header,
// profile block, subject marks with total and grade, monthly attendance
// with the overall percentage and a color-coded status line.
package report

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"reportcard-backend/internal/config"
	"reportcard-backend/internal/db"
	"reportcard-backend/internal/grading"
	"reportcard-backend/internal/logger"
	"reportcard-backend/internal/model"
	"reportcard-backend/internal/retry"
)

type Generator struct {
	repo    db.Repository
	retryer *retry.Retryer
	cfg     *config.Config
	assets  *assetFetcher
	log     zerolog.Logger
}

func NewGenerator(repo db.Repository, cfg *config.Config) *Generator {
	timeout := cfg.Reports.FetchTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Generator{
		repo:    repo,
		retryer: retry.New(cfg.Database.RetryAttempts, cfg.Database.RetryDelay),
		cfg:     cfg,
		assets: &assetFetcher{
			httpClient: &http.Client{Timeout: timeout},
			cacheDir:   cfg.Reports.LogoCacheDir,
			log:        logger.Get(),
		},
		log: logger.Get(),
	}
}

// Generate renders the report card for one student and returns the path of
// the written PDF.
func (g *Generator) Generate(ctx context.Context, studentID string) (string, error) {
	var detail *model.StudentDetail
	err := g.retryer.Do(ctx, func() error {
		var e error
		detail, e = g.repo.GetStudentDetail(ctx, studentID)
		return e
	})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.cfg.Reports.Dir, 0o755); err != nil {
		return "", fmt.Errorf("reports dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_Report.pdf",
		detail.Student.StudentID, strings.ReplaceAll(detail.Student.Name, " ", "_"))
	path := filepath.Join(g.cfg.Reports.Dir, filename)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	g.header(ctx, pdf)
	g.profile(pdf, detail.Student)
	g.marksSection(pdf, detail.Marks)
	g.attendanceSection(pdf, detail.Attendance)

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "This is a system-generated report card. Head of Department signature is required for official use.",
		"", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	g.log.Info().Str("student_id", studentID).Str("path", path).Msg("Report card generated")
	return path, nil
}

func (g *Generator) header(ctx context.Context, pdf *gofpdf.Fpdf) {
	govtLogo := g.assets.fetch(ctx, g.cfg.Reports.GovtLogoURL, "tn_logo.png")
	collegeLogo := g.assets.fetch(ctx, g.cfg.Reports.LogoURL, "logoclg.png")

	// Colored band behind the college name, logos left and right.
	pdf.SetFillColor(31, 97, 141)
	pdf.Rect(14, 14, 182, 24, "F")
	if govtLogo != "" {
		pdf.ImageOptions(govtLogo, 17, 16, 20, 20, false, gofpdf.ImageOptions{}, 0, "")
	}
	if collegeLogo != "" {
		pdf.ImageOptions(collegeLogo, 173, 16, 20, 20, false, gofpdf.ImageOptions{}, 0, "")
	}

	pdf.SetY(17)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 7, strings.ToUpper(g.cfg.App.College), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Affiliated to Alagappa University | Accredited with 'A' Grade by NAAC", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, g.cfg.App.CollegeCity, "", 1, "C", false, 0, "")

	pdf.SetY(42)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "Comprehensive Student Performance Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func (g *Generator) profile(pdf *gofpdf.Fpdf, s model.Student) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "1. Student Profile", "", 1, "L", false, 0, "")

	row := func(l1, v1, l2, v2 string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(34, 7, l1, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(57, 7, v1, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(34, 7, l2, "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(57, 7, v2, "1", 1, "L", false, 0, "")
	}

	row("Student ID:", s.StudentID, "Name:", s.Name)
	row("Department:", s.DeptName, "Year / Semester:", fmt.Sprintf("%d / %d", s.Year, s.Semester))
	row("Program / Duration:", fmt.Sprintf("%s / %d years", s.ProgramType, s.DurationYears), "Course:", s.CourseName)
	row("Email:", s.Email, "Date Generated:", time.Now().Format("2006-01-02"))
	pdf.Ln(5)
}

func (g *Generator) marksSection(pdf *gofpdf.Fpdf, marks []model.Mark) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "2. Subject Marks Summary", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(46, 134, 193)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(30, 7, "Subject Code", "1", 0, "C", true, 0, "")
	pdf.CellFormat(82, 7, "Subject Name", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Max Marks", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Marks Obtained", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	var totalMarks, totalMax float64
	pdf.SetFont("Arial", "", 9)
	for _, m := range marks {
		pdf.CellFormat(30, 6, m.SubjectCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(82, 6, m.SubjectName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", m.MaxMarks), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%g", m.Marks), "1", 1, "C", false, 0, "")
		totalMarks += m.Marks
		totalMax += float64(m.MaxMarks)
	}

	percentage := grading.Percentage(totalMarks, totalMax)
	grade := grading.LetterGrade(percentage)

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Overall Total: %g / %g", totalMarks, totalMax), "", 1, "L", false, 0, "")
	pdf.SetTextColor(31, 97, 141)
	pdf.CellFormat(0, 6, fmt.Sprintf("Percentage: %.2f%%", percentage), "", 1, "L", false, 0, "")
	pdf.SetTextColor(192, 57, 43)
	pdf.CellFormat(0, 6, fmt.Sprintf("Grade: %s", grade), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func (g *Generator) attendanceSection(pdf *gofpdf.Fpdf, attendance []model.Attendance) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, "3. Monthly Attendance Record", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(46, 134, 193)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(35, 7, "Month", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Classes Held", "1", 0, "C", true, 0, "")
	pdf.CellFormat(51, 7, "Classes Attended", "1", 0, "C", true, 0, "")
	pdf.CellFormat(51, 7, "Percentage", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	var totalHeld, totalAttended int
	pdf.SetFont("Arial", "", 9)
	for _, a := range attendance {
		pct := grading.Percentage(float64(a.ClassesAttended), float64(a.ClassesHeld))
		pdf.CellFormat(35, 6, a.Month, "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%d", a.ClassesHeld), "1", 0, "C", false, 0, "")
		pdf.CellFormat(51, 6, fmt.Sprintf("%d", a.ClassesAttended), "1", 0, "C", false, 0, "")
		pdf.CellFormat(51, 6, fmt.Sprintf("%.2f%%", pct), "1", 1, "C", false, 0, "")
		totalHeld += a.ClassesHeld
		totalAttended += a.ClassesAttended
	}

	overall := grading.Percentage(float64(totalAttended), float64(totalHeld))
	status := grading.Status(overall)

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Overall Attendance: %d / %d classes", totalAttended, totalHeld), "", 1, "L", false, 0, "")

	switch status {
	case model.StatusGood:
		pdf.SetTextColor(39, 174, 96)
	case model.StatusWarning:
		pdf.SetTextColor(255, 140, 0)
	default:
		pdf.SetTextColor(192, 57, 43)
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Final Percentage: %.2f%% (75%% is required) - Status: %s", overall, status), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.Ln(3)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 4, "Good (Green): 75% and above | Warning (Orange): 60% to 74% | Critical (Red): Below 60%", "", 1, "L", false, 0, "")
}
