// Package syncer commits semester edits to the record store and keeps the
// local ledger consistent with what the store confirmed.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/ledger"
	"github.com/starford/semestra/internal/models"
	"github.com/starford/semestra/internal/remote"
)

// Coordinator owns every write to the ledger. The ledger is only changed
// after the store confirmed the mutation, and only if it was not cleared
// while the store was being called.
type Coordinator struct {
	store  remote.RecordStore
	ledger *ledger.Ledger
	logger *slog.Logger

	// refreshMu keeps a slow refresh from overwriting a newer one.
	refreshMu sync.Mutex
}

// New creates a coordinator.
func New(store remote.RecordStore, l *ledger.Ledger, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, ledger: l, logger: logger}
}

// Commit upserts the semester and, once confirmed, stores the returned
// record locally and refreshes the whole ledger so the CGPA reflects the
// server's canonical values. A failed refresh is logged; the commit itself
// already succeeded.
func (c *Coordinator) Commit(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject) (models.SemesterRecord, error) {
	if len(subjects) == 0 {
		return models.SemesterRecord{}, apperr.Validation("add at least one subject before saving")
	}

	epoch := c.ledger.Epoch()
	rec, err := c.store.UpsertSemesterRecord(ctx, id, name, models.CloneSubjects(subjects))
	if err != nil {
		c.logger.Warn("syncer: commit failed",
			slog.String("semester", id.String()),
			slog.String("error", err.Error()))
		return models.SemesterRecord{}, fmt.Errorf("syncer: commit %s: %w", id, err)
	}

	if !c.ledger.UpsertLocalAt(epoch, rec) {
		c.logger.Debug("syncer: ledger cleared during commit", slog.String("semester", id.String()))
		return rec, nil
	}
	if err := c.refreshAt(ctx, epoch); err != nil {
		c.logger.Warn("syncer: refresh after commit failed",
			slog.String("semester", id.String()),
			slog.String("error", err.Error()))
	}
	return rec, nil
}

// Delete removes the semester from the store and the ledger. A NotFound
// answer means it is already gone and still removes it locally.
func (c *Coordinator) Delete(ctx context.Context, id models.SemesterID) error {
	epoch := c.ledger.Epoch()
	err := c.store.DeleteSemesterRecord(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		c.logger.Debug("syncer: delete of absent semester", slog.String("semester", id.String()))
	default:
		c.logger.Warn("syncer: delete failed",
			slog.String("semester", id.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("syncer: delete %s: %w", id, err)
	}

	c.ledger.RemoveLocalAt(epoch, id)
	if err := c.refreshAt(ctx, epoch); err != nil {
		c.logger.Warn("syncer: refresh after delete failed",
			slog.String("semester", id.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// Refresh re-fetches every record and replaces the ledger. On failure the
// ledger keeps its current content.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.refreshAt(ctx, c.ledger.Epoch())
}

// refreshAt drops the fetched records when the ledger was cleared after
// epoch was read.
func (c *Coordinator) refreshAt(ctx context.Context, epoch uint64) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.ledger.Epoch() != epoch {
		return nil
	}
	recs, err := c.store.FetchAllSemesterRecords(ctx)
	if err != nil {
		return fmt.Errorf("syncer: refresh: %w", err)
	}
	if !c.ledger.ReplaceAllAt(epoch, recs) {
		c.logger.Debug("syncer: ledger cleared during refresh")
		return nil
	}
	c.logger.Debug("syncer: ledger refreshed", slog.Int("records", len(recs)))
	return nil
}
