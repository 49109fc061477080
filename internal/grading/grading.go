// Package grading turns raw counts into percentages and tiers. Every
// function is pure and defined for all non-negative inputs; a zero
// denominator yields 0.0 rather than an error.
package grading

import (
	"math"

	"reportcard-backend/internal/model"
)

// Percentage returns attended/held (or marks/max) as a percentage rounded
// to two decimal places. Zero held classes means 0.0, not NaN.
func Percentage(attended, held float64) float64 {
	if held <= 0 {
		return 0.0
	}
	return math.Round(attended/held*100*100) / 100
}

// Round2 rounds to two decimal places, the precision every percentage in
// the system is reported at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Status maps an attendance percentage onto the three fixed tiers:
// 75%+ Good, 60-74% Warning, below 60% Critical. The email threshold
// setting does not feed in here; the cutoffs are constants.
func Status(percentage float64) model.Status {
	switch {
	case percentage >= 75:
		return model.StatusGood
	case percentage >= 60:
		return model.StatusWarning
	default:
		return model.StatusCritical
	}
}

// LetterGrade maps a marks percentage onto the university grade ladder.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "O"
	case percentage >= 80:
		return "A+"
	case percentage >= 70:
		return "A"
	case percentage >= 60:
		return "B+"
	case percentage >= 50:
		return "B"
	case percentage >= 40:
		return "C"
	default:
		return "F"
	}
}
