package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/session"
	"github.com/starford/semestra/internal/testutil"
)

func seeded() *testutil.FakeRecords {
	recs := testutil.NewFakeRecords()
	recs.Seed(
		models.SemesterRecord{ID: "a", SemesterID: models.Y1S2, SemesterName: "Year 1 Semester 2",
			Subjects: []models.Subject{{Name: "B", Credits: 6, Grade: "B"}}, GPA: 3, TotalCredits: 6},
		models.SemesterRecord{ID: "b", SemesterID: models.Y1S1, SemesterName: "Year 1 Semester 1",
			Subjects: []models.Subject{{Name: "A", Credits: 3, Grade: "A"}}, GPA: 4, TotalCredits: 3},
	)
	return recs
}

func TestStart_LoadsLedger(t *testing.T) {
	mods := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	e := New(mods, seeded(), &testutil.FakeFocusStore{}, testutil.Logger())

	require.NoError(t, e.Start(context.Background()))
	recs := e.Ledger().Records()
	require.Len(t, recs, 2)
	assert.Equal(t, models.Y1S1, recs[0].SemesterID)

	v, ok := e.Ledger().Summary().Value()
	require.True(t, ok)
	assert.InDelta(t, 30.0/9.0, v, 1e-9)
	assert.Zero(t, mods.Calls(), "start must not load the catalog")
}

func TestStart_FailureLeavesEngineUsable(t *testing.T) {
	recs := seeded()
	recs.FetchErr = apperr.Network(errors.New("offline"))
	e := New(&testutil.FakeModules{Modules: testutil.SampleCatalog()}, recs, nil, testutil.Logger())

	err := e.Start(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Empty(t, e.Ledger().Records())

	require.NoError(t, e.Editor().Open(context.Background(), models.Y1S1, models.FocusNone))
	assert.Equal(t, session.SourceCatalog, e.Editor().Snapshot().Source)
}

func TestEditSaveFlow(t *testing.T) {
	recs := testutil.NewFakeRecords()
	e := New(&testutil.FakeModules{Modules: testutil.SampleCatalog()}, recs, &testutil.FakeFocusStore{}, testutil.Logger())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	ed := e.Editor()
	require.NoError(t, ed.Open(ctx, models.Y3S1, models.FocusNone))
	require.Equal(t, session.AwaitingFocusArea, ed.Snapshot().State)
	require.NoError(t, ed.DeclareFocusArea(ctx, models.FocusSoftware))
	for i := range ed.Snapshot().Subjects {
		require.NoError(t, ed.UpdateGrade(i, "A"))
	}
	rec, err := ed.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, rec.GPA)

	assert.Equal(t, 1, recs.Len())
	found, ok := e.Ledger().Find(models.Y3S1)
	require.True(t, ok)
	assert.Len(t, found.Subjects, 3)
}

func TestDeleteSemester_DiscardsOpenSession(t *testing.T) {
	e := New(&testutil.FakeModules{Modules: testutil.SampleCatalog()}, seeded(), nil, testutil.Logger())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	require.NoError(t, e.Editor().Open(ctx, models.Y1S1, models.FocusNone))
	require.NoError(t, e.Editor().UpdateGrade(0, "C"))

	require.NoError(t, e.DeleteSemester(ctx, models.Y1S1))
	assert.Equal(t, session.Closed, e.Editor().Snapshot().State)
	_, ok := e.Ledger().Find(models.Y1S1)
	assert.False(t, ok)

	// Deleting an absent semester is not an error.
	require.NoError(t, e.DeleteSemester(ctx, models.Y4S2))
}

func TestDeleteSemester_KeepsOtherSession(t *testing.T) {
	e := New(&testutil.FakeModules{Modules: testutil.SampleCatalog()}, seeded(), nil, testutil.Logger())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))
	require.NoError(t, e.Editor().Open(ctx, models.Y1S2, models.FocusNone))

	require.NoError(t, e.DeleteSemester(ctx, models.Y1S1))
	assert.Equal(t, session.Ready, e.Editor().Snapshot().State)
}

func TestLogout_ClearsEverything(t *testing.T) {
	mods := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	prefs := &testutil.FakeFocusStore{}
	e := New(mods, seeded(), prefs, testutil.Logger())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	require.NoError(t, e.Editor().Open(ctx, models.Y2S1, models.FocusNetworking))
	require.True(t, e.Catalog().Loaded())
	require.Equal(t, models.FocusNetworking, prefs.Area)

	require.NoError(t, e.Logout())
	assert.Empty(t, e.Ledger().Records())
	assert.Nil(t, e.Ledger().Summary().CGPA)
	assert.False(t, e.Catalog().Loaded())
	assert.Equal(t, session.Closed, e.Editor().Snapshot().State)
	assert.Equal(t, models.FocusNone, prefs.Area)
	assert.Equal(t, models.FocusNone, e.Editor().FocusArea())

	require.NoError(t, e.Editor().Open(ctx, models.Y3S1, models.FocusNone))
	assert.Equal(t, session.AwaitingFocusArea, e.Editor().Snapshot().State)
}

func TestLogout_DuringSaveDoesNotRepopulateLedger(t *testing.T) {
	recs := testutil.NewFakeRecords()
	gate := make(chan struct{})
	recs.UpsertGate = gate
	e := New(&testutil.FakeModules{Modules: testutil.SampleCatalog()}, recs, &testutil.FakeFocusStore{}, testutil.Logger())
	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	require.NoError(t, e.Editor().Open(ctx, models.Y1S1, models.FocusNone))
	require.NoError(t, e.Editor().UpdateGrade(0, "A"))

	done := make(chan error, 1)
	go func() {
		_, err := e.Editor().Save(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return recs.Waiting() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, session.Saving, e.Editor().Snapshot().State)

	require.NoError(t, e.Logout())
	close(gate)
	require.NoError(t, <-done)

	assert.Empty(t, e.Ledger().Records())
	assert.Nil(t, e.Ledger().Summary().CGPA)
	assert.Equal(t, session.Closed, e.Editor().Snapshot().State)
	assert.Equal(t, 1, recs.Len(), "the store still received the save")

	// The next sign-in loads from the store as usual.
	require.NoError(t, e.Start(ctx))
	assert.Len(t, e.Ledger().Records(), 1)
}
