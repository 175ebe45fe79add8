// Package session implements the single editing session over one semester:
// hydration from the ledger or the module catalog, focus-area gating,
// in-memory edits with a live GPA preview, and commit or discard.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/focus"
	"github.com/starford/semestra/internal/grade"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
)

// Catalog pre-populates a semester that was never saved.
type Catalog interface {
	PrePopulate(ctx context.Context, id models.SemesterID, area models.FocusArea) ([]models.Subject, error)
}

// Records looks up saved semesters.
type Records interface {
	Find(id models.SemesterID) (models.SemesterRecord, bool)
}

// Committer persists a finished edit.
type Committer interface {
	Commit(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject) (models.SemesterRecord, error)
}

// Editor holds at most one live editing session.
type Editor struct {
	catalog   Catalog
	records   Records
	committer Committer
	prefs     remote.FocusAreaStore
	logger    *slog.Logger

	areaMu     sync.Mutex
	area       models.FocusArea
	areaLoaded bool

	mu       sync.Mutex
	state    State
	semester models.SemesterID
	subjects []models.Subject
	source   Source
	// gen changes whenever the live session is replaced or closed, so a
	// late hydration or save result for an abandoned session is dropped.
	gen uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New creates an editor in the Closed state.
func New(catalog Catalog, records Records, committer Committer, prefs remote.FocusAreaStore, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		catalog:   catalog,
		records:   records,
		committer: committer,
		prefs:     prefs,
		logger:    logger,
		subs:      make(map[int]func(Snapshot)),
	}
}

// Open starts editing semester id. declared may be FocusNone; a declared
// area is remembered for the rest of the app session and persisted.
//
// Re-opening the semester that is already open keeps its edits. Opening a
// different semester drops the unsaved working list of the current one.
// When id needs a focus area and none is known, the editor stops in
// AwaitingFocusArea until DeclareFocusArea is called.
func (e *Editor) Open(ctx context.Context, id models.SemesterID, declared models.FocusArea) error {
	if !id.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown semester %d", int(id)))
	}
	if declared != models.FocusNone {
		if !declared.Declared() {
			return apperr.Validation(fmt.Sprintf("unknown focus area %q", declared))
		}
		e.rememberArea(declared)
	}
	area := e.knownArea()

	e.mu.Lock()
	if e.semester == id {
		switch e.state {
		case Ready, Dirty, Hydrating, Saving:
			e.mu.Unlock()
			return nil
		case AwaitingFocusArea:
			if !area.Declared() {
				e.mu.Unlock()
				return nil
			}
		}
	}
	if e.state == Ready || e.state == Dirty {
		e.logger.Debug("session: leaving semester",
			slog.String("semester", e.semester.String()),
			slog.Bool("dirty", e.state == Dirty))
	}
	gen := e.beginLocked(id)

	if focus.RequiresDeclaration(id) && !area.Declared() {
		e.state = AwaitingFocusArea
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.notify(snap)
		return nil
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return e.hydrate(ctx, gen, id, area)
}

// DeclareFocusArea records the student's focus area. If the editor is
// waiting for one, hydration resumes.
func (e *Editor) DeclareFocusArea(ctx context.Context, area models.FocusArea) error {
	if !area.Declared() {
		return apperr.Validation(fmt.Sprintf("unknown focus area %q", area))
	}
	e.rememberArea(area)

	e.mu.Lock()
	if e.state != AwaitingFocusArea {
		e.mu.Unlock()
		return nil
	}
	id := e.semester
	gen := e.beginLocked(id)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	return e.hydrate(ctx, gen, id, area)
}

// FocusArea returns the focus area known in this app session.
func (e *Editor) FocusArea() models.FocusArea {
	return e.knownArea()
}

func (e *Editor) hydrate(ctx context.Context, gen uint64, id models.SemesterID, area models.FocusArea) error {
	if rec, ok := e.records.Find(id); ok {
		e.mu.Lock()
		if e.gen != gen {
			e.mu.Unlock()
			return nil
		}
		e.subjects = models.CloneSubjects(rec.Subjects)
		e.source = SourceLedger
		e.state = Ready
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.notify(snap)
		return nil
	}

	subjects, err := e.catalog.PrePopulate(ctx, id, area)

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("session: dropped stale hydration", slog.String("semester", id.String()))
		return nil
	}
	if err != nil {
		e.closeLocked()
		snap := e.snapshotLocked()
		e.mu.Unlock()
		e.notify(snap)
		return fmt.Errorf("session: open %s: %w", id, err)
	}
	e.subjects = subjects
	e.source = SourceCatalog
	e.state = Ready
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

// AddSubject appends a custom subject.
func (e *Editor) AddSubject(s models.Subject) error {
	s.Grade = grade.Normalize(s.Grade)
	if err := s.Validate(); err != nil {
		return apperr.Validation(err.Error())
	}
	return e.mutate(func() error {
		e.subjects = append(e.subjects, s)
		return nil
	})
}

// UpdateGrade sets the grade of the subject at index i. An empty code
// clears the grade.
func (e *Editor) UpdateGrade(i int, code string) error {
	code = grade.Normalize(code)
	if code != grade.Unset && !grade.IsValid(code) {
		return apperr.Validation(fmt.Sprintf("unknown grade %q", code))
	}
	return e.mutate(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		e.subjects[i].Grade = code
		return nil
	})
}

// UpdateCredits sets the credit weight of the subject at index i.
func (e *Editor) UpdateCredits(i int, credits float64) error {
	if math.IsNaN(credits) || credits < models.MinCredits || credits > models.MaxCredits {
		return apperr.Validation(fmt.Sprintf("credits must be between %g and %g", models.MinCredits, models.MaxCredits))
	}
	return e.mutate(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		e.subjects[i].Credits = credits
		return nil
	})
}

// RemoveSubject deletes the subject at index i.
func (e *Editor) RemoveSubject(i int) error {
	return e.mutate(func() error {
		if err := e.checkIndexLocked(i); err != nil {
			return err
		}
		e.subjects = append(e.subjects[:i:i], e.subjects[i+1:]...)
		return nil
	})
}

func (e *Editor) mutate(fn func() error) error {
	e.mu.Lock()
	if e.state != Ready && e.state != Dirty {
		st := e.state
		e.mu.Unlock()
		return apperr.InvalidState(fmt.Sprintf("cannot edit while %s", st))
	}
	if err := fn(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = Dirty
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
	return nil
}

func (e *Editor) checkIndexLocked(i int) error {
	if i < 0 || i >= len(e.subjects) {
		return apperr.Validation(fmt.Sprintf("no subject at position %d", i))
	}
	return nil
}

// Save commits the working list. On success the session closes; on failure
// it returns to Dirty with the edits intact. If the session was left while
// the save was in flight, the result is returned but the editor is not
// touched.
func (e *Editor) Save(ctx context.Context) (models.SemesterRecord, error) {
	e.mu.Lock()
	switch e.state {
	case Saving:
		e.mu.Unlock()
		return models.SemesterRecord{}, apperr.InvalidState("a save is already in progress")
	case Ready, Dirty:
	default:
		st := e.state
		e.mu.Unlock()
		return models.SemesterRecord{}, apperr.InvalidState(fmt.Sprintf("nothing to save while %s", st))
	}
	if len(e.subjects) == 0 {
		e.mu.Unlock()
		return models.SemesterRecord{}, apperr.Validation("add at least one subject before saving")
	}

	e.state = Saving
	gen := e.gen
	id := e.semester
	subjects := models.CloneSubjects(e.subjects)
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	rec, err := e.committer.Commit(ctx, id, id.Name(), subjects)

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("session: save finished after session was left",
			slog.String("semester", id.String()),
			slog.Bool("ok", err == nil))
		return rec, err
	}
	if err != nil {
		e.state = Dirty
		snap = e.snapshotLocked()
		e.mu.Unlock()
		e.notify(snap)
		return models.SemesterRecord{}, err
	}
	e.closeLocked()
	snap = e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)

	e.logger.Info("session: semester saved",
		slog.String("semester", id.String()),
		slog.Float64("gpa", rec.GPA))
	return rec, nil
}

// Discard closes the session and drops the working list. Confirming the
// loss of unsaved edits is the caller's job.
func (e *Editor) Discard() {
	e.mu.Lock()
	if e.state == Closed {
		e.mu.Unlock()
		return
	}
	e.closeLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.notify(snap)
}

// Reset discards the session and forgets the focus area, as on logout.
func (e *Editor) Reset() {
	e.Discard()
	e.areaMu.Lock()
	e.area = models.FocusNone
	e.areaLoaded = false
	e.areaMu.Unlock()
}

// Snapshot returns the current session state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every transition or
// edit. The returned func unregisters it.
func (e *Editor) Subscribe(fn func(Snapshot)) func() {
	e.subMu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Editor) beginLocked(id models.SemesterID) uint64 {
	e.gen++
	e.state = Hydrating
	e.semester = id
	e.subjects = nil
	e.source = SourceNone
	return e.gen
}

func (e *Editor) closeLocked() {
	e.gen++
	e.state = Closed
	e.semester = 0
	e.subjects = nil
	e.source = SourceNone
}

func (e *Editor) snapshotLocked() Snapshot {
	return newSnapshot(e.state, e.semester, e.subjects, e.source, e.knownArea())
}

func (e *Editor) rememberArea(area models.FocusArea) {
	e.areaMu.Lock()
	e.area = area
	e.areaLoaded = true
	e.areaMu.Unlock()

	if e.prefs == nil {
		return
	}
	if err := e.prefs.PersistDeclaredFocusArea(area); err != nil {
		e.logger.Warn("session: persist focus area failed", slog.String("error", err.Error()))
	}
}

func (e *Editor) knownArea() models.FocusArea {
	e.areaMu.Lock()
	defer e.areaMu.Unlock()
	if e.areaLoaded || e.prefs == nil {
		return e.area
	}
	area, err := e.prefs.ReadDeclaredFocusArea()
	if err != nil {
		e.logger.Warn("session: read focus area failed", slog.String("error", err.Error()))
		return models.FocusNone
	}
	e.area = area
	e.areaLoaded = true
	return area
}

func (e *Editor) notify(snap Snapshot) {
	e.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
