package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/testutil"
)

func TestLoad_FetchesOnce(t *testing.T) {
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	c := New(src, testutil.Logger())

	for i := 0; i < 3; i++ {
		mods, err := c.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, mods, len(testutil.SampleCatalog()))
	}
	assert.Equal(t, 1, src.Calls())
	assert.True(t, c.Loaded())
}

func TestLoad_ConcurrentCallersShareOneFetch(t *testing.T) {
	gate := make(chan struct{})
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog(), Gate: gate}
	c := New(src, testutil.Logger())

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mods, err := c.Load(context.Background())
			results[i], errs[i] = len(mods), err
		}(i)
	}

	// Let every caller reach the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, len(testutil.SampleCatalog()), results[i])
	}
	assert.Equal(t, 1, src.Calls())
}

func TestLoad_FailureIsNotCached(t *testing.T) {
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog(), Err: apperr.Network(errors.New("offline"))}
	c := New(src, testutil.Logger())

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNetwork))
	assert.False(t, c.Loaded())

	src.SetErr(nil)
	mods, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, mods)
	assert.Equal(t, 2, src.Calls())
}

func TestLoad_CallerCancellation(t *testing.T) {
	gate := make(chan struct{})
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog(), Gate: gate}
	c := New(src, testutil.Logger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(gate)
	mods, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, mods)
}

func TestInvalidate_Refetches(t *testing.T) {
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	c := New(src, testutil.Logger())

	_, err := c.Load(context.Background())
	require.NoError(t, err)
	c.Invalidate()
	assert.False(t, c.Loaded())
	_, err = c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls())
}

func TestLoad_ReturnsCopies(t *testing.T) {
	src := &testutil.FakeModules{Modules: testutil.SampleCatalog()}
	c := New(src, testutil.Logger())

	mods, _ := c.Load(context.Background())
	mods[0].Name = "mutated"
	mods[0].FocusAreaTags[0] = "mutated"

	again, _ := c.Load(context.Background())
	assert.NotEqual(t, "mutated", again[0].Name)
	assert.NotEqual(t, "mutated", again[0].FocusAreaTags[0])
}

func TestSubjectsFor_SortedVisibleWithPlaceholder(t *testing.T) {
	subs := SubjectsFor(testutil.SampleCatalog(), models.Y3S1, models.FocusSoftware)

	codes := make([]string, len(subs))
	for i, s := range subs {
		codes[i] = s.Code
		assert.Equal(t, "", s.Grade)
	}
	assert.Equal(t, []string{"IT3005", "IT3010", "IT3040"}, codes)
	assert.Equal(t, 2.0, subs[0].Credits)
}

func TestSubjectsFor_NoAreaShowsCommonOnly(t *testing.T) {
	subs := SubjectsFor(testutil.SampleCatalog(), models.Y1S1, models.FocusNone)
	require.Len(t, subs, 3)
	assert.Equal(t, "IT1010", subs[0].Code)
}
