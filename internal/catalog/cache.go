// Package catalog caches the institution's module catalog for the lifetime
// of an app session.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/semestra/internal/focus"
	"github.com/starford/semestra/internal/grade"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
)

const loadKey = "catalog"

// Cache loads the catalog once and serves it from memory afterwards.
// Concurrent first callers share one fetch. A failed fetch is not
// remembered, so a later call retries.
type Cache struct {
	source remote.ModuleLister
	logger *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	modules []models.Module
	loaded  bool
	epoch   uint64
}

// New creates an empty cache over source.
func New(source remote.ModuleLister, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{source: source, logger: logger}
}

// Load returns the catalog, fetching it on first use.
func (c *Cache) Load(ctx context.Context) ([]models.Module, error) {
	if mods, ok := c.cached(); ok {
		return mods, nil
	}

	ch := c.group.DoChan(loadKey, func() (any, error) {
		// A waiter may have been queued behind a completed load.
		if mods, ok := c.cached(); ok {
			return mods, nil
		}
		c.mu.RLock()
		epoch := c.epoch
		c.mu.RUnlock()

		// Detached from the first caller's ctx: its cancellation must not
		// fail the other callers sharing this fetch.
		mods, err := c.source.FetchModules(context.WithoutCancel(ctx))
		if err != nil {
			c.logger.Warn("catalog: fetch failed", slog.String("error", err.Error()))
			return nil, err
		}

		c.mu.Lock()
		if c.epoch == epoch {
			c.modules = mods
			c.loaded = true
		}
		c.mu.Unlock()
		c.logger.Debug("catalog: loaded", slog.Int("modules", len(mods)))
		return mods, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("catalog: load: %w", res.Err)
		}
		return cloneModules(res.Val.([]models.Module)), nil
	}
}

// Loaded reports whether the catalog is in memory.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Invalidate drops the cached catalog; the next Load fetches again. A fetch
// in flight when Invalidate is called does not repopulate the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.modules = nil
	c.loaded = false
	c.epoch++
	c.mu.Unlock()
	c.group.Forget(loadKey)
}

// PrePopulate returns the default subject list of semester id: the visible
// modules of that semester sorted by code, each with the placeholder grade
// and the module's credit weight.
func (c *Cache) PrePopulate(ctx context.Context, id models.SemesterID, area models.FocusArea) ([]models.Subject, error) {
	mods, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return SubjectsFor(mods, id, area), nil
}

// SubjectsFor builds the pre-populated subject list from a module list.
func SubjectsFor(mods []models.Module, id models.SemesterID, area models.FocusArea) []models.Subject {
	visible := focus.Filter(mods, id, area)
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].Code < visible[j].Code })

	out := make([]models.Subject, 0, len(visible))
	for _, m := range visible {
		out = append(out, models.Subject{
			Code:    m.Code,
			Name:    m.Name,
			Credits: float64(m.CreditWeight),
			Grade:   grade.Unset,
		})
	}
	return out
}

func (c *Cache) cached() ([]models.Module, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	return cloneModules(c.modules), true
}

func cloneModules(in []models.Module) []models.Module {
	out := make([]models.Module, len(in))
	for i, m := range in {
		m.FocusAreaTags = append([]string(nil), m.FocusAreaTags...)
		out[i] = m
	}
	return out
}
