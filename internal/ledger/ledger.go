// Package ledger holds the signed-in student's saved semester records and
// the CGPA derived from them.
package ledger

import (
	"sort"
	"sync"

	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/models"
)

// Snapshot is an immutable view of the ledger.
type Snapshot struct {
	Records []models.SemesterRecord
	Summary gpa.Cumulative
	// Version increases with every change.
	Version uint64
}

// TrendPoint is one semester on a GPA trend line.
type TrendPoint struct {
	Semester models.SemesterID `json:"semester"`
	GPA      float64           `json:"gpa"`
}

// Ledger keeps at most one record per semester, ordered chronologically.
type Ledger struct {
	mu      sync.RWMutex
	records []models.SemesterRecord
	summary gpa.Cumulative
	version uint64
	// epoch changes on Clear. Writers that fetched before a Clear compare
	// it and drop their result.
	epoch uint64

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{subs: make(map[int]func(Snapshot))}
}

// ReplaceAll swaps the whole record list, as after a full refresh. When the
// input repeats a semester the last occurrence wins.
func (l *Ledger) ReplaceAll(records []models.SemesterRecord) {
	l.ReplaceAllAt(l.Epoch(), records)
}

// ReplaceAllAt is ReplaceAll that only applies while the ledger is still at
// epoch. It reports whether the records were stored.
func (l *Ledger) ReplaceAllAt(epoch uint64, records []models.SemesterRecord) bool {
	byID := make(map[models.SemesterID]models.SemesterRecord, len(records))
	for _, r := range records {
		byID[r.SemesterID] = r.Clone()
	}
	next := make([]models.SemesterRecord, 0, len(byID))
	for _, r := range byID {
		next = append(next, r)
	}

	l.mu.Lock()
	if l.epoch != epoch {
		l.mu.Unlock()
		return false
	}
	l.records = next
	snap := l.commitLocked()
	l.mu.Unlock()
	l.notify(snap)
	return true
}

// Epoch identifies the current signed-in session of the ledger.
func (l *Ledger) Epoch() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.epoch
}

// Find returns a copy of the record of id.
func (l *Ledger) Find(id models.SemesterID) (models.SemesterRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexLocked(id); i >= 0 {
		return l.records[i].Clone(), true
	}
	return models.SemesterRecord{}, false
}

// UpsertLocal stores a record the server has confirmed, replacing any
// record of the same semester.
func (l *Ledger) UpsertLocal(rec models.SemesterRecord) {
	l.UpsertLocalAt(l.Epoch(), rec)
}

// UpsertLocalAt is UpsertLocal that only applies while the ledger is still
// at epoch.
func (l *Ledger) UpsertLocalAt(epoch uint64, rec models.SemesterRecord) bool {
	l.mu.Lock()
	if l.epoch != epoch {
		l.mu.Unlock()
		return false
	}
	if i := l.indexLocked(rec.SemesterID); i >= 0 {
		l.records[i] = rec.Clone()
	} else {
		l.records = append(l.records, rec.Clone())
	}
	snap := l.commitLocked()
	l.mu.Unlock()
	l.notify(snap)
	return true
}

// RemoveLocal drops the record of id after the server confirmed the delete.
// Removing an absent semester is a no-op.
func (l *Ledger) RemoveLocal(id models.SemesterID) {
	l.RemoveLocalAt(l.Epoch(), id)
}

// RemoveLocalAt is RemoveLocal that only applies while the ledger is still
// at epoch. It reports whether a record was removed.
func (l *Ledger) RemoveLocalAt(epoch uint64, id models.SemesterID) bool {
	l.mu.Lock()
	i := l.indexLocked(id)
	if l.epoch != epoch || i < 0 {
		l.mu.Unlock()
		return false
	}
	l.records = append(l.records[:i:i], l.records[i+1:]...)
	snap := l.commitLocked()
	l.mu.Unlock()
	l.notify(snap)
	return true
}

// Clear empties the ledger, as on logout, and starts a new epoch so results
// fetched before the call are not stored afterwards.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.epoch++
	l.records = nil
	snap := l.commitLocked()
	l.mu.Unlock()
	l.notify(snap)
}

// Records returns copies of all records in semester order.
func (l *Ledger) Records() []models.SemesterRecord {
	return l.Snapshot().Records
}

// Summary returns the cached CGPA.
func (l *Ledger) Summary() gpa.Cumulative {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.summary
}

// Trend returns (semester, GPA) points in chronological order.
func (l *Ledger) Trend() []TrendPoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]TrendPoint, len(l.records))
	for i, r := range l.records {
		out[i] = TrendPoint{Semester: r.SemesterID, GPA: r.GPA}
	}
	return out
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned func unregisters it.
func (l *Ledger) Subscribe(fn func(Snapshot)) func() {
	l.subMu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.subMu.Unlock()

	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

func (l *Ledger) indexLocked(id models.SemesterID) int {
	for i, r := range l.records {
		if r.SemesterID == id {
			return i
		}
	}
	return -1
}

// commitLocked re-sorts, recomputes the CGPA and bumps the version.
func (l *Ledger) commitLocked() Snapshot {
	sort.Slice(l.records, func(i, j int) bool { return l.records[i].SemesterID < l.records[j].SemesterID })
	l.summary = gpa.CumulativeOf(l.records)
	l.version++
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	recs := make([]models.SemesterRecord, len(l.records))
	for i, r := range l.records {
		recs[i] = r.Clone()
	}
	summary := l.summary
	if summary.CGPA != nil {
		v := *summary.CGPA
		summary.CGPA = &v
	}
	return Snapshot{Records: recs, Summary: summary, Version: l.version}
}

func (l *Ledger) notify(snap Snapshot) {
	l.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
