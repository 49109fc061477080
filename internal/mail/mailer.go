// Package mail submits report cards over SMTP with STARTTLS and an app
// password. Settings arrive as an explicit config value; nothing is read
// from the store at send time.
package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"reportcard-backend/internal/config"
	"reportcard-backend/internal/logger"
	"reportcard-backend/internal/model"
	apperrors "reportcard-backend/pkg/errors"
)

type Mailer struct {
	cfg     config.SMTPConfig
	addr    string
	college string
	city    string
	log     zerolog.Logger
}

func New(cfg *config.Config) *Mailer {
	return &Mailer{
		cfg:     cfg.SMTP,
		addr:    cfg.SMTPAddr(),
		college: cfg.App.College,
		city:    cfg.App.CollegeCity,
		log:     logger.Get(),
	}
}

// SendReport emails the generated PDF to the student. Missing credentials
// and a missing recipient address are precondition failures, not retried.
func (m *Mailer) SendReport(summary model.StudentSummary, pdfPath string) error {
	if !m.cfg.Configured() {
		return apperrors.ErrSMTPNotConfigured
	}
	if summary.Email == "" {
		return apperrors.ErrStudentEmailEmpty
	}

	subject := fmt.Sprintf("Attendance Report - %s", summary.Name)
	body := Body(summary, m.college, m.city)

	msg, err := buildMessage(m.cfg.SenderEmail, summary.Email, subject, body, pdfPath)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.SenderEmail, m.cfg.SenderAppPassword, m.cfg.Host)
	if err := smtp.SendMail(m.addr, auth, m.cfg.SenderEmail, []string{summary.Email}, msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	m.log.Info().
		Str("student_id", summary.StudentID).
		Str("to", summary.Email).
		Str("status", string(summary.Status)).
		Msg("Report card emailed")
	return nil
}

// buildMessage assembles a multipart/mixed message: plain-text body plus
// the PDF as a base64 attachment.
func buildMessage(from, to, subject, body, pdfPath string) ([]byte, error) {
	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	fmt.Fprintf(&buf, "\r\n")

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return nil, err
	}

	attachment, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/pdf"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition": {fmt.Sprintf("attachment; filename=%q",
			filepath.Base(pdfPath))},
	})
	if err != nil {
		return nil, err
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(pdfData)))
	base64.StdEncoding.Encode(encoded, pdfData)
	if _, err := attachment.Write(encoded); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
