package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/gpa"
	"github.com/starford/semestra/internal/models"
)

// FakeModules is an in-memory module listing that counts fetches.
type FakeModules struct {
	mu      sync.Mutex
	Modules []models.Module
	Err     error
	// Gate, when non-nil, blocks every fetch until it is closed.
	Gate  chan struct{}
	calls int
}

// FetchModules implements remote.ModuleLister.
func (f *FakeModules) FetchModules(ctx context.Context) ([]models.Module, error) {
	f.mu.Lock()
	f.calls++
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]models.Module(nil), f.Modules...), nil
}

// Calls returns how many fetches were issued.
func (f *FakeModules) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// SetErr changes the error returned by later fetches.
func (f *FakeModules) SetErr(err error) {
	f.mu.Lock()
	f.Err = err
	f.mu.Unlock()
}

// FakeRecords behaves like the record API: upserts replace by semester,
// GPA is rounded to two decimals, deleting an absent record is NotFound.
type FakeRecords struct {
	mu      sync.Mutex
	records map[models.SemesterID]models.SemesterRecord

	// UpsertErr, FetchErr and DeleteErr are returned instead of succeeding.
	UpsertErr error
	FetchErr  error
	DeleteErr error
	// UpsertGate, when non-nil, blocks upserts until closed.
	UpsertGate chan struct{}

	fetches int
	upserts int
	deletes int
	waiting int
}

// NewFakeRecords returns an empty store.
func NewFakeRecords() *FakeRecords {
	return &FakeRecords{records: make(map[models.SemesterID]models.SemesterRecord)}
}

// FetchAllSemesterRecords implements remote.RecordStore.
func (f *FakeRecords) FetchAllSemesterRecords(_ context.Context) ([]models.SemesterRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	out := make([]models.SemesterRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SemesterID < out[j].SemesterID })
	return out, nil
}

// UpsertSemesterRecord implements remote.RecordStore.
func (f *FakeRecords) UpsertSemesterRecord(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject) (models.SemesterRecord, error) {
	f.mu.Lock()
	gate := f.UpsertGate
	if gate != nil {
		f.waiting++
	}
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.SemesterRecord{}, apperr.Network(ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.UpsertErr != nil {
		return models.SemesterRecord{}, f.UpsertErr
	}
	now := time.Now().UTC()
	rec, ok := f.records[id]
	if !ok {
		rec = models.SemesterRecord{ID: uuid.NewString(), SemesterID: id, CreatedAt: now}
	}
	rec.SemesterName = name
	rec.Subjects = models.CloneSubjects(subjects)
	rec.TotalCredits = gpa.TotalCredits(subjects)
	rec.GPA = gpa.Round2(gpa.Semester(subjects))
	rec.UpdatedAt = now
	f.records[id] = rec
	return rec.Clone(), nil
}

// DeleteSemesterRecord implements remote.RecordStore.
func (f *FakeRecords) DeleteSemesterRecord(_ context.Context, id models.SemesterID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.records[id]; !ok {
		return apperr.NotFound("semester " + id.String())
	}
	delete(f.records, id)
	return nil
}

// Seed stores records directly, as if saved in an earlier app session.
func (f *FakeRecords) Seed(recs ...models.SemesterRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range recs {
		f.records[r.SemesterID] = r.Clone()
	}
}

// Len returns how many records the store holds.
func (f *FakeRecords) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Counts returns fetch, upsert and delete call counts.
func (f *FakeRecords) Counts() (fetches, upserts, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches, f.upserts, f.deletes
}

// Waiting returns how many upserts have reached UpsertGate.
func (f *FakeRecords) Waiting() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

// SetUpsertErr changes the error returned by later upserts.
func (f *FakeRecords) SetUpsertErr(err error) {
	f.mu.Lock()
	f.UpsertErr = err
	f.mu.Unlock()
}

// FakeFocusStore keeps the declared focus area in memory.
type FakeFocusStore struct {
	mu   sync.Mutex
	Area models.FocusArea
}

// ReadDeclaredFocusArea implements remote.FocusAreaStore.
func (f *FakeFocusStore) ReadDeclaredFocusArea() (models.FocusArea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Area, nil
}

// PersistDeclaredFocusArea implements remote.FocusAreaStore.
func (f *FakeFocusStore) PersistDeclaredFocusArea(area models.FocusArea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Area = area
	return nil
}

// ClearDeclaredFocusArea implements remote.FocusAreaStore.
func (f *FakeFocusStore) ClearDeclaredFocusArea() error {
	return f.PersistDeclaredFocusArea(models.FocusNone)
}

// SampleCatalog returns a small catalog spanning gated and ungated semesters.
func SampleCatalog() []models.Module {
	common := []string{models.TagCommon}
	return []models.Module{
		{Code: "IT1020", Name: "Introduction to Programming", CreditWeight: 4, FocusAreaTags: common, TargetSemester: models.Y1S1},
		{Code: "IT1010", Name: "Mathematics for Computing", CreditWeight: 3, FocusAreaTags: common, TargetSemester: models.Y1S1},
		{Code: "IT1030", Name: "Communication Skills", CreditWeight: 2, FocusAreaTags: common, TargetSemester: models.Y1S1},
		{Code: "IT1099", Name: "Elective Networking Lab", CreditWeight: 1, FocusAreaTags: []string{models.TagNetworking}, TargetSemester: models.Y1S1},
		{Code: "IT3010", Name: "Software Architecture", CreditWeight: 4, FocusAreaTags: []string{models.TagSoftware}, TargetSemester: models.Y3S1},
		{Code: "IT3020", Name: "Network Design", CreditWeight: 4, FocusAreaTags: []string{models.TagNetworking}, TargetSemester: models.Y3S1},
		{Code: "IT3005", Name: "Research Methods", CreditWeight: 2, FocusAreaTags: common, TargetSemester: models.Y3S1},
		{Code: "IT3030", Name: "Computer Graphics", CreditWeight: 3, FocusAreaTags: []string{models.TagMultimedia}, TargetSemester: models.Y3S1},
		{Code: "IT3040", Name: "Secure Software", CreditWeight: 3, FocusAreaTags: []string{models.TagSoftware, models.TagNetworking}, TargetSemester: models.Y3S1},
	}
}
