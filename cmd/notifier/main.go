package main

import (
	"context"
	"flag"
	"fmt"

	"reportcard-backend/internal/config"
	"reportcard-backend/internal/db"
	"reportcard-backend/internal/logger"
	"reportcard-backend/internal/mail"
	"reportcard-backend/internal/model"
	"reportcard-backend/internal/report"
	"reportcard-backend/internal/retry"
)

// The notifier is a one-shot batch job: it loads the roster projection,
// applies the command-line filter, then generates and emails a report card
// for every matching student. Per-student failures are counted, not fatal.
func main() {
	department := flag.String("department", "", "only students in this department")
	year := flag.Int("year", 0, "only students in this academic year")
	status := flag.String("status", "", "only students with this status (Good, Warning, Critical)")
	dryRun := flag.Bool("dry-run", false, "list matching students without sending")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting notifier")

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	ctx := context.Background()
	if err := db.InitSchema(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	repo := db.NewRepository(database)
	retryer := retry.New(cfg.Database.RetryAttempts, cfg.Database.RetryDelay)
	generator := report.NewGenerator(repo, cfg)
	mailer := mail.New(cfg)

	var summaries []model.StudentSummary
	err = retryer.Do(ctx, func() error {
		var e error
		summaries, e = repo.ListSummaries(ctx)
		return e
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load student summaries")
	}

	filter := model.SummaryFilter{
		Department: *department,
		Year:       *year,
		Status:     model.Status(*status),
	}
	matched := db.FilterSummaries(summaries, filter)
	log.Info().Int("matched", len(matched)).Int("total", len(summaries)).Msg("Filter applied")

	if *dryRun {
		for _, s := range matched {
			fmt.Printf("%s\t%s\t%s\t%.2f%%\t%s\n",
				s.StudentID, s.Name, s.Email, s.AttendancePercent, s.Status)
		}
		return
	}

	var sent, skipped, failed int
	for _, s := range matched {
		if s.Email == "" {
			log.Warn().Str("student_id", s.StudentID).Msg("No email address, skipping")
			skipped++
			continue
		}

		path, err := generator.Generate(ctx, s.StudentID)
		if err != nil {
			log.Error().Err(err).Str("student_id", s.StudentID).Msg("Report generation failed")
			failed++
			continue
		}

		if err := mailer.SendReport(s, path); err != nil {
			log.Error().Err(err).Str("student_id", s.StudentID).Msg("Email failed")
			failed++
			continue
		}

		log.Info().Str("student_id", s.StudentID).Str("email", s.Email).Msg("Report emailed")
		sent++
	}

	log.Info().
		Int("sent", sent).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Notifier finished")
}
