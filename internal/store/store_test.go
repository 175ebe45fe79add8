package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "semestra-store-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(id models.SemesterID, uid string) models.SemesterRecord {
	return models.SemesterRecord{
		ID:           uid,
		SemesterID:   id,
		SemesterName: id.Name(),
		Subjects: []models.Subject{
			{Code: "IT1010", Name: "Mathematics", Credits: 3, Grade: "A"},
			{Name: "Elective", Credits: 2, Grade: ""},
		},
		TotalCredits: 5,
		GPA:          2.4,
		Checksum:     "c1",
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM semester_records`).Scan(&count); err != nil {
		t.Fatalf("semester_records table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	got, err := db.UpsertRecord(ctx, sample(models.Y1S1, "uuid-1"))
	if err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if got.ID != "uuid-1" || got.SemesterID != models.Y1S1 {
		t.Errorf("stored = %+v", got)
	}
	if len(got.Subjects) != 2 || got.Subjects[0].Code != "IT1010" || got.Subjects[1].Grade != "" {
		t.Errorf("subjects = %+v", got.Subjects)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	again, err := db.GetRecord(ctx, models.Y1S1)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if again.GPA != 2.4 || again.TotalCredits != 5 || again.Checksum != "c1" {
		t.Errorf("GetRecord = %+v", again)
	}
}

func TestUpsert_ReplaceKeepsIdentity(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first, err := db.UpsertRecord(ctx, sample(models.Y2S1, "uuid-1"))
	if err != nil {
		t.Fatal(err)
	}

	next := sample(models.Y2S1, "uuid-2")
	next.Subjects = next.Subjects[:1]
	next.GPA = 4
	next.UpdatedAt = first.UpdatedAt.Add(time.Minute)
	second, err := db.UpsertRecord(ctx, next)
	if err != nil {
		t.Fatal(err)
	}

	if second.ID != "uuid-1" {
		t.Errorf("id = %q, want the original uuid-1", second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if len(second.Subjects) != 1 || second.GPA != 4 {
		t.Errorf("record not replaced: %+v", second)
	}

	all, err := db.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("len = %d, want 1", len(all))
	}
}

func TestListRecords_OrderedBySemester(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	for i, id := range []models.SemesterID{models.Y3S1, models.Y1S1, models.Y2S2} {
		if _, err := db.UpsertRecord(ctx, sample(id, string(rune('a'+i)))); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListRecords(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.SemesterID{models.Y1S1, models.Y2S2, models.Y3S1}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].SemesterID != id {
			t.Errorf("all[%d] = %s, want %s", i, all[i].SemesterID, id)
		}
	}
}

func TestListRecords_EmptyIsNotNil(t *testing.T) {
	db := testDB(t)
	all, err := db.ListRecords(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("ListRecords = %#v, want empty slice", all)
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetRecord(context.Background(), models.Y4S2)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetChecksum(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	cs, err := db.GetChecksum(ctx, models.Y1S1)
	if err != nil || cs != "" {
		t.Errorf("GetChecksum(absent) = %q, %v", cs, err)
	}
	if _, err := db.UpsertRecord(ctx, sample(models.Y1S1, "u")); err != nil {
		t.Fatal(err)
	}
	cs, err = db.GetChecksum(ctx, models.Y1S1)
	if err != nil || cs != "c1" {
		t.Errorf("GetChecksum = %q, %v", cs, err)
	}
}

func TestDeleteRecord(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if _, err := db.UpsertRecord(ctx, sample(models.Y1S2, "u")); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteRecord(ctx, models.Y1S2); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := db.DeleteRecord(ctx, models.Y1S2); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestUpsert_RejectsInvalidSemester(t *testing.T) {
	db := testDB(t)
	if _, err := db.UpsertRecord(context.Background(), sample(models.SemesterID(9), "u")); err == nil {
		t.Error("expected error for semester 9")
	}
}
