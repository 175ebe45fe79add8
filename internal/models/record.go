package models

import (
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/semestra/internal/grade"
)

// Credit bounds accepted for a single subject.
const (
	MinCredits = 1.0
	MaxCredits = 10.0
)

// Subject is one graded entry of a semester.
type Subject struct {
	Code    string  `json:"code,omitempty" yaml:"code,omitempty"`
	Name    string  `json:"name" yaml:"name"`
	Credits float64 `json:"credits" yaml:"credits"`
	Grade   string  `json:"grade" yaml:"grade"`
}

// Validate checks name, credit range and that the grade is unset or on the scale.
func (s Subject) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.By(notBlank)),
		validation.Field(&s.Credits, validation.By(finite), validation.Required, validation.Min(MinCredits), validation.Max(MaxCredits)),
		validation.Field(&s.Grade, validation.In(gradeCodes()...)),
	)
}

// Module is a catalog entry defined by the institution.
type Module struct {
	Code           string     `json:"code" yaml:"code"`
	Name           string     `json:"name" yaml:"name"`
	CreditWeight   int        `json:"credit_weight" yaml:"credit_weight"`
	FocusAreaTags  []string   `json:"focus_area_tags" yaml:"focus_area_tags"`
	TargetSemester SemesterID `json:"target_semester" yaml:"target_semester"`
}

// Validate checks the fields the engine relies on.
func (m Module) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Code, validation.By(notBlank)),
		validation.Field(&m.Name, validation.By(notBlank)),
		validation.Field(&m.CreditWeight, validation.Required, validation.Min(1)),
		validation.Field(&m.TargetSemester, validation.By(func(v any) error {
			if id, _ := v.(SemesterID); !id.Valid() {
				return validation.NewError("validation_semester", "must be a valid semester")
			}
			return nil
		})),
	)
}

// SemesterRecord is a saved semester as confirmed by the record store.
type SemesterRecord struct {
	ID           string     `json:"id"`
	SemesterID   SemesterID `json:"semester_id"`
	SemesterName string     `json:"semester_name"`
	Subjects     []Subject  `json:"subjects"`
	TotalCredits float64    `json:"total_credits"`
	GPA          float64    `json:"gpa"`
	Checksum     string     `json:"checksum,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot alias the subject list.
func (r SemesterRecord) Clone() SemesterRecord {
	r.Subjects = CloneSubjects(r.Subjects)
	return r
}

// CloneSubjects copies a subject list; nil stays nil.
func CloneSubjects(in []Subject) []Subject {
	if in == nil {
		return nil
	}
	out := make([]Subject, len(in))
	copy(out, in)
	return out
}

func finite(v any) error {
	f, _ := v.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return validation.NewError("validation_finite", "must be a finite number")
	}
	return nil
}

func notBlank(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

func gradeCodes() []any {
	cs := grade.Codes()
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}
