package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"reportcard-backend/internal/config"
	"reportcard-backend/internal/db"
	"reportcard-backend/internal/export"
	"reportcard-backend/internal/logger"
	"reportcard-backend/internal/mail"
	"reportcard-backend/internal/model"
	"reportcard-backend/internal/report"
	"reportcard-backend/internal/retry"
	"reportcard-backend/internal/storage"
	apperrors "reportcard-backend/pkg/errors"
)

type Handler struct {
	repo      db.Repository
	retryer   *retry.Retryer
	generator *report.Generator
	mailer    *mail.Mailer
	archive   storage.Storage
	cfg       *config.Config
	log       zerolog.Logger
}

func NewHandler(
	repo db.Repository,
	generator *report.Generator,
	mailer *mail.Mailer,
	archive storage.Storage,
	cfg *config.Config,
) *Handler {
	return &Handler{
		repo:      repo,
		retryer:   retry.New(cfg.Database.RetryAttempts, cfg.Database.RetryDelay),
		generator: generator,
		mailer:    mailer,
		archive:   archive,
		cfg:       cfg,
		log:       logger.Get(),
	}
}

// respondError maps the error taxonomy onto HTTP statuses: validation and
// precondition failures 400, integrity 409, not-found 404, the rest 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve apperrors.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case apperrors.IsIntegrity(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicateSubject):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	case errors.Is(err, apperrors.ErrSMTPNotConfigured),
		errors.Is(err, apperrors.ErrStudentEmailEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) UpsertStudent(c *gin.Context) {
	var req model.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if err := h.retryer.Do(ctx, func() error {
		return h.repo.UpsertStudent(ctx, req)
	}); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().Str("student_id", req.StudentID).Msg("Student saved")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Student %s data saved/updated successfully.", req.StudentID),
	})
}

func (h *Handler) ListStudents(c *gin.Context) {
	filter := model.SummaryFilter{
		Department: c.Query("department"),
		Status:     model.Status(c.Query("status")),
		Query:      c.Query("q"),
	}
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}
		filter.Year = year
	}

	summaries, err := h.listSummaries(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, db.FilterSummaries(summaries, filter))
}

func (h *Handler) GetStudent(c *gin.Context) {
	studentID := c.Param("student_id")
	ctx := c.Request.Context()

	var detail *model.StudentDetail
	err := h.retryer.Do(ctx, func() error {
		var e error
		detail, e = h.repo.GetStudentDetail(ctx, studentID)
		return e
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	studentID := c.Param("student_id")
	ctx := c.Request.Context()

	if err := h.retryer.Do(ctx, func() error {
		return h.repo.DeleteStudent(ctx, studentID)
	}); err != nil {
		h.respondError(c, err)
		return
	}

	h.log.Info().Str("student_id", studentID).Msg("Student deleted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) AddSubject(c *gin.Context) {
	var req model.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if err := h.retryer.Do(ctx, func() error {
		return h.repo.AddSubject(ctx, req)
	}); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Subject '%s' added successfully.", req.Name),
	})
}

func (h *Handler) ListSubjects(c *gin.Context) {
	ctx := c.Request.Context()
	var subjects []model.Subject
	err := h.retryer.Do(ctx, func() error {
		var e error
		subjects, e = h.repo.ListSubjects(ctx)
		return e
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *Handler) ListDepartments(c *gin.Context) {
	ctx := c.Request.Context()
	var depts []model.Department
	err := h.retryer.Do(ctx, func() error {
		var e error
		depts, e = h.repo.ListDepartments(ctx)
		return e
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, depts)
}

func (h *Handler) GetStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	var stats *model.Statistics
	err := h.retryer.Do(ctx, func() error {
		var e error
		stats, e = h.repo.Statistics(ctx)
		return e
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) DownloadReport(c *gin.Context) {
	studentID := c.Param("student_id")
	ctx := c.Request.Context()

	path, err := h.generator.Generate(ctx, studentID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.archiveReport(c, path)
	c.FileAttachment(path, fmt.Sprintf("%s_Report.pdf", studentID))
}

func (h *Handler) EmailReport(c *gin.Context) {
	studentID := c.Param("student_id")
	ctx := c.Request.Context()

	summaries, err := h.listSummaries(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var summary *model.StudentSummary
	for i := range summaries {
		if summaries[i].StudentID == studentID {
			summary = &summaries[i]
			break
		}
	}
	if summary == nil {
		h.respondError(c, apperrors.ErrStudentNotFound)
		return
	}

	path, err := h.generator.Generate(ctx, studentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.archiveReport(c, path)

	if err := h.mailer.SendReport(*summary, path); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Report emailed successfully."})
}

func (h *Handler) ExportCSV(c *gin.Context) {
	summaries, err := h.listSummaries(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("students_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")
	if err := export.WriteCSV(c.Writer, summaries); err != nil {
		h.log.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	summaries, err := h.listSummaries(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("students_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteXLSX(c.Writer, summaries); err != nil {
		h.log.Error().Err(err).Msg("Spreadsheet export failed mid-stream")
	}
}

func (h *Handler) Backup(c *gin.Context) {
	key, err := storage.Backup(c.Request.Context(), h.archive, h.cfg.Database.Path, h.cfg.Storage.BackupDir)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "backup": key})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.cfg.App.Name,
		"version": h.cfg.App.Version,
	})
}

func (h *Handler) listSummaries(c *gin.Context) ([]model.StudentSummary, error) {
	ctx := c.Request.Context()
	var summaries []model.StudentSummary
	err := h.retryer.Do(ctx, func() error {
		var e error
		summaries, e = h.repo.ListSummaries(ctx)
		return e
	})
	return summaries, err
}

// archiveReport pushes a generated PDF into the archive. Failure is logged
// and swallowed; the download or email still proceeds.
func (h *Handler) archiveReport(c *gin.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		h.log.Warn().Err(err).Msg("Report archive skipped")
		return
	}
	defer f.Close()
	key := "reports/" + filepath.Base(path)
	if err := h.archive.Save(c.Request.Context(), key, f); err != nil {
		h.log.Warn().Err(err).Str("key", key).Msg("Report archive failed")
	}
}
