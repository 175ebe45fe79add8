// Package recordservice is the authoritative side of the record API: it
// validates and canonicalizes semesters, computes their GPA and persists
// them.
package recordservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/checksum"
	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/grade"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
	"github.com/starford/semestra/internal/sse"
	"github.com/starford/semestra/internal/store"
)

// Publisher receives record change notifications.
type Publisher interface {
	PublishSemesterSaved(change sse.SemesterChange, summary func() sse.Summary)
	PublishSemesterDeleted(semester string, summary func() sse.Summary)
}

// Service coordinates validation, the record store and change events.
type Service struct {
	db      store.RecordIndex
	modules remote.ModuleLister
	events  Publisher
	logger  *slog.Logger
}

// NewService creates a record service. modules and events may be nil.
func NewService(db store.RecordIndex, modules remote.ModuleLister, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, modules: modules, events: events, logger: logger}
}

// ListModules returns the institution's module catalog.
func (s *Service) ListModules(ctx context.Context) ([]models.Module, error) {
	if s.modules == nil {
		return []models.Module{}, nil
	}
	mods, err := s.modules.FetchModules(ctx)
	if err != nil {
		return nil, err
	}
	if mods == nil {
		mods = []models.Module{}
	}
	return mods, nil
}

// ListRecords returns every stored semester ordered by semester.
func (s *Service) ListRecords(ctx context.Context) ([]models.SemesterRecord, error) {
	return s.db.ListRecords(ctx)
}

// GetRecord returns one stored semester.
func (s *Service) GetRecord(ctx context.Context, id models.SemesterID) (models.SemesterRecord, error) {
	return s.db.GetRecord(ctx, id)
}

// Summary returns the CGPA over every stored semester, rounded like a
// semester GPA.
func (s *Service) Summary(ctx context.Context) (gpa.Cumulative, error) {
	recs, err := s.db.ListRecords(ctx)
	if err != nil {
		return gpa.Cumulative{}, err
	}
	sum := gpa.CumulativeOf(recs)
	if v, ok := sum.Value(); ok {
		r := gpa.Round2(v)
		sum.CGPA = &r
	}
	return sum, nil
}

// UpsertRecord validates and stores the semester, replacing any earlier
// record for the same semester. A non-empty ifMatch must equal the stored
// checksum, otherwise the write is rejected with a conflict.
func (s *Service) UpsertRecord(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject, ifMatch string) (models.SemesterRecord, error) {
	if !id.Valid() {
		return models.SemesterRecord{}, apperr.Validation(fmt.Sprintf("unknown semester %d", int(id)))
	}
	subjects, err := Canonicalize(subjects)
	if err != nil {
		return models.SemesterRecord{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id.Name()
	}

	if ifMatch != "" {
		current, err := s.db.GetChecksum(ctx, id)
		if err != nil {
			return models.SemesterRecord{}, err
		}
		if current != strings.Trim(ifMatch, `"`) {
			return models.SemesterRecord{}, apperr.Conflict("the semester was changed elsewhere, refresh and retry")
		}
	}

	sum, err := checksum.Record(name, subjects)
	if err != nil {
		return models.SemesterRecord{}, err
	}
	rec, err := s.db.UpsertRecord(ctx, models.SemesterRecord{
		ID:           uuid.NewString(),
		SemesterID:   id,
		SemesterName: name,
		Subjects:     subjects,
		TotalCredits: gpa.TotalCredits(subjects),
		GPA:          gpa.Round2(gpa.Semester(subjects)),
		Checksum:     sum,
	})
	if err != nil {
		return models.SemesterRecord{}, err
	}

	s.logger.Info("recordservice: semester saved",
		slog.String("semester", id.String()),
		slog.Float64("gpa", rec.GPA),
		slog.Int("subjects", len(rec.Subjects)))
	if s.events != nil {
		s.events.PublishSemesterSaved(sse.SemesterChange{
			Semester: id.String(),
			GPA:      rec.GPA,
			Checksum: rec.Checksum,
		}, s.summaryFunc())
	}
	return rec, nil
}

// DeleteRecord removes a stored semester; absent semesters are NotFound.
func (s *Service) DeleteRecord(ctx context.Context, id models.SemesterID) error {
	if err := s.db.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info("recordservice: semester deleted", slog.String("semester", id.String()))
	if s.events != nil {
		s.events.PublishSemesterDeleted(id.String(), s.summaryFunc())
	}
	return nil
}

func (s *Service) summaryFunc() func() sse.Summary {
	return func() sse.Summary {
		sum, err := s.Summary(context.Background())
		if err != nil {
			s.logger.Warn("recordservice: summary failed", slog.String("error", err.Error()))
			return sse.Summary{}
		}
		return sse.Summary{CGPA: sum.CGPA, TotalCredits: sum.TotalCredits, Semesters: sum.Semesters}
	}
}

// Canonicalize trims names and codes, upper-cases grades and validates
// every subject. The list must not be empty. Problems are reported together,
// one per offending position.
func Canonicalize(in []models.Subject) ([]models.Subject, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("a semester needs at least one subject")
	}
	out := make([]models.Subject, len(in))
	var problems []string
	for i, s := range in {
		s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
		s.Name = strings.TrimSpace(s.Name)
		s.Grade = grade.Normalize(s.Grade)
		if err := s.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("subject %d: %v", i+1, err))
		}
		out[i] = s
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(strings.Join(problems, "; "))
	}
	return out, nil
}
