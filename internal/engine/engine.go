// Package engine assembles one signed-in app session: the module catalog
// cache, the semester ledger, the sync coordinator and the editor.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/semestra/internal/catalog"
	"github.com/starford/semestra/internal/ledger"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
	"github.com/starford/semestra/internal/session"
	"github.com/starford/semestra/internal/syncer"
)

// Engine owns the app-session state. Everything it holds is dropped on
// Logout.
type Engine struct {
	catalog *catalog.Cache
	ledger  *ledger.Ledger
	coord   *syncer.Coordinator
	editor  *session.Editor
	prefs   remote.FocusAreaStore
	logger  *slog.Logger
}

// New wires the components over the given collaborators. prefs may be nil,
// in which case the focus area lives only in memory.
func New(modules remote.ModuleLister, records remote.RecordStore, prefs remote.FocusAreaStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	cat := catalog.New(modules, logger)
	l := ledger.New()
	coord := syncer.New(records, l, logger)
	return &Engine{
		catalog: cat,
		ledger:  l,
		coord:   coord,
		editor:  session.New(cat, l, coord, prefs, logger),
		prefs:   prefs,
		logger:  logger,
	}
}

// Start loads the saved semesters. A failure leaves the ledger empty and
// is returned; the engine stays usable and Refresh may be retried.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.coord.Refresh(ctx); err != nil {
		return fmt.Errorf("engine: start: %w", err)
	}
	e.logger.Info("engine: started", slog.Int("semesters", len(e.ledger.Records())))
	return nil
}

// Refresh reloads the saved semesters from the record store.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.coord.Refresh(ctx)
}

// Editor returns the single editing session.
func (e *Engine) Editor() *session.Editor {
	return e.editor
}

// Ledger returns the saved-semester cache.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Catalog returns the module catalog cache.
func (e *Engine) Catalog() *catalog.Cache {
	return e.catalog
}

// DeleteSemester removes a saved semester. An editing session open on the
// same semester is discarded first, so it cannot resurrect the record.
func (e *Engine) DeleteSemester(ctx context.Context, id models.SemesterID) error {
	if snap := e.editor.Snapshot(); snap.Open() && snap.Semester == id {
		e.editor.Discard()
	}
	return e.coord.Delete(ctx, id)
}

// Logout forgets everything tied to the signed-in student: both caches,
// the editing session and the declared focus area.
func (e *Engine) Logout() error {
	var err error
	if e.prefs != nil {
		if cerr := e.prefs.ClearDeclaredFocusArea(); cerr != nil {
			err = fmt.Errorf("engine: clear focus area: %w", cerr)
		}
	}
	e.editor.Reset()
	e.catalog.Invalidate()
	e.ledger.Clear()
	e.logger.Info("engine: logged out")
	return err
}
