package session

import (
	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/models"
)

// State of the editing session.
type State int

// States. Closed → Hydrating → Ready ⇄ Dirty → Saving → Closed, with
// AwaitingFocusArea entered from Hydrating when the semester is gated.
const (
	Closed State = iota
	Hydrating
	AwaitingFocusArea
	Ready
	Dirty
	Saving
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Hydrating:
		return "hydrating"
	case AwaitingFocusArea:
		return "awaiting_focus_area"
	case Ready:
		return "ready"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// Source tells where the working list came from.
type Source string

// Hydration sources.
const (
	SourceNone    Source = ""
	SourceLedger  Source = "ledger"
	SourceCatalog Source = "catalog"
)

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	State          State             `json:"-"`
	StateName      string            `json:"state"`
	Semester       models.SemesterID `json:"semester,omitempty"`
	SemesterName   string            `json:"semester_name,omitempty"`
	Subjects       []models.Subject  `json:"subjects"`
	Source         Source            `json:"source,omitempty"`
	FocusArea      models.FocusArea  `json:"focus_area,omitempty"`
	PreviewGPA     float64           `json:"preview_gpa"`
	PreviewCredits float64           `json:"preview_credits"`
	Dirty          bool              `json:"dirty"`
	Saving         bool              `json:"saving"`
}

// Open reports whether a semester is being edited.
func (s Snapshot) Open() bool {
	return s.State != Closed
}

func newSnapshot(st State, id models.SemesterID, subjects []models.Subject, src Source, area models.FocusArea) Snapshot {
	snap := Snapshot{
		State:          st,
		StateName:      st.String(),
		Semester:       id,
		Subjects:       models.CloneSubjects(subjects),
		Source:         src,
		FocusArea:      area,
		PreviewGPA:     gpa.Semester(subjects),
		PreviewCredits: gpa.TotalCredits(subjects),
		Dirty:          st == Dirty,
		Saving:         st == Saving,
	}
	if snap.Subjects == nil {
		snap.Subjects = []models.Subject{}
	}
	if id.Valid() {
		snap.SemesterName = id.Name()
	}
	return snap
}
