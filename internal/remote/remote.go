// Package remote declares the collaborators the engine consumes: the module
// listing, the semester record store and the local profile store.
package remote

import (
	"context"

	"github.com/starford/semestra/internal/models"
)

// ModuleLister returns the institution's full module catalog.
type ModuleLister interface {
	FetchModules(ctx context.Context) ([]models.Module, error)
}

// RecordStore is the authoritative store of the signed-in student's
// semester records.
type RecordStore interface {
	FetchAllSemesterRecords(ctx context.Context) ([]models.SemesterRecord, error)
	// UpsertSemesterRecord replaces the record of id, creating it on first save.
	UpsertSemesterRecord(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject) (models.SemesterRecord, error)
	DeleteSemesterRecord(ctx context.Context, id models.SemesterID) error
}

// FocusAreaStore persists the declared focus area between app sessions.
type FocusAreaStore interface {
	// ReadDeclaredFocusArea returns models.FocusNone when nothing is stored.
	ReadDeclaredFocusArea() (models.FocusArea, error)
	PersistDeclaredFocusArea(area models.FocusArea) error
	ClearDeclaredFocusArea() error
}
