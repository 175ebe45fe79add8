// Package gpa computes credit-weighted grade point averages.
package gpa

import (
	"math"

	"github.com/starford/semestra/internal/grade"
	"github.com/starford/semestra/internal/models"
)

// Semester returns Σ(point × credits) / Σ credits over subjects, or 0 when
// the list is empty or carries no credits.
func Semester(subjects []models.Subject) float64 {
	var weighted, credits float64
	for _, s := range subjects {
		weighted += grade.PointOf(s.Grade) * s.Credits
		credits += s.Credits
	}
	if credits == 0 {
		return 0
	}
	return weighted / credits
}

// TotalCredits sums subject credits.
func TotalCredits(subjects []models.Subject) float64 {
	var total float64
	for _, s := range subjects {
		total += s.Credits
	}
	return total
}

// Cumulative is the CGPA over a set of saved semesters. CGPA is nil when
// there are no semesters at all, so "no data" differs from a CGPA of 0.
type Cumulative struct {
	CGPA         *float64 `json:"cgpa"`
	TotalCredits float64  `json:"total_credits"`
	Semesters    int      `json:"semesters"`
}

// Value returns the CGPA and whether there was any data.
func (c Cumulative) Value() (float64, bool) {
	if c.CGPA == nil {
		return 0, false
	}
	return *c.CGPA, true
}

// CumulativeOf weights each record's GPA by its total credits.
func CumulativeOf(records []models.SemesterRecord) Cumulative {
	if len(records) == 0 {
		return Cumulative{}
	}
	var weighted, credits float64
	for _, r := range records {
		weighted += r.GPA * r.TotalCredits
		credits += r.TotalCredits
	}
	cgpa := 0.0
	if credits != 0 {
		cgpa = weighted / credits
	}
	return Cumulative{CGPA: &cgpa, TotalCredits: credits, Semesters: len(records)}
}

// Round2 rounds half away from zero to two decimals, the precision the
// record store persists.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
