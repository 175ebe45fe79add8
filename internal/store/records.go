package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/models"
)

const selectColumns = `id, semester_id, semester_name, subjects, total_credits, gpa, checksum, created_at, updated_at`

// UpsertRecord inserts rec or replaces the record of the same semester.
// On replace the stored id and created_at are kept. The stored row is
// returned.
func (db *DB) UpsertRecord(ctx context.Context, rec models.SemesterRecord) (models.SemesterRecord, error) {
	if !rec.SemesterID.Valid() {
		return models.SemesterRecord{}, fmt.Errorf("store: upsert: invalid semester %d", int(rec.SemesterID))
	}
	subjects := rec.Subjects
	if subjects == nil {
		subjects = []models.Subject{}
	}
	subjectsJSON, err := json.Marshal(subjects)
	if err != nil {
		return models.SemesterRecord{}, fmt.Errorf("store: encode subjects: %w", err)
	}

	now := time.Now().UTC()
	created, updated := rec.CreatedAt, rec.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO semester_records (semester_id, id, semester_name, subjects, total_credits, gpa, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(semester_id) DO UPDATE SET
			semester_name = excluded.semester_name,
			subjects      = excluded.subjects,
			total_credits = excluded.total_credits,
			gpa           = excluded.gpa,
			checksum      = excluded.checksum,
			updated_at    = excluded.updated_at
	`, int(rec.SemesterID), rec.ID, rec.SemesterName, string(subjectsJSON),
		rec.TotalCredits, rec.GPA, rec.Checksum, created.UTC(), updated.UTC())
	if err != nil {
		return models.SemesterRecord{}, fmt.Errorf("store: upsert record: %w", err)
	}
	return db.GetRecord(ctx, rec.SemesterID)
}

// GetRecord returns the record of one semester, or an apperr.ErrNotFound error.
func (db *DB) GetRecord(ctx context.Context, id models.SemesterID) (models.SemesterRecord, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM semester_records WHERE semester_id = ?`, int(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SemesterRecord{}, apperr.NotFound("semester " + id.String())
	}
	if err != nil {
		return models.SemesterRecord{}, fmt.Errorf("store: get record: %w", err)
	}
	return rec, nil
}

// GetChecksum returns the stored checksum for a semester, or empty string if
// nothing is stored.
func (db *DB) GetChecksum(ctx context.Context, id models.SemesterID) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM semester_records WHERE semester_id = ?`, int(id)).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get checksum: %w", err)
	}
	return cs, nil
}

// ListRecords returns every stored record ordered by semester.
func (db *DB) ListRecords(ctx context.Context) ([]models.SemesterRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+selectColumns+` FROM semester_records ORDER BY semester_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	out := []models.SemesterRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRecord removes the record of one semester. Deleting an absent
// record returns an apperr.ErrNotFound error.
func (db *DB) DeleteRecord(ctx context.Context, id models.SemesterID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM semester_records WHERE semester_id = ?`, int(id))
	if err != nil {
		return fmt.Errorf("store: delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete record: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("semester " + id.String())
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.SemesterRecord, error) {
	var (
		rec          models.SemesterRecord
		semesterID   int
		subjectsJSON string
	)
	err := s.Scan(&rec.ID, &semesterID, &rec.SemesterName, &subjectsJSON,
		&rec.TotalCredits, &rec.GPA, &rec.Checksum, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return models.SemesterRecord{}, err
	}
	rec.SemesterID = models.SemesterID(semesterID)
	if err := json.Unmarshal([]byte(subjectsJSON), &rec.Subjects); err != nil {
		return models.SemesterRecord{}, fmt.Errorf("decode subjects: %w", err)
	}
	if rec.Subjects == nil {
		rec.Subjects = []models.Subject{}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
