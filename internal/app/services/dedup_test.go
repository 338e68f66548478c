package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/yigit/internhub/internal/app/models"
)

func TestDedupKeepsMostCompleteRow(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	a := h.mem.SeedStudent(models.Student{Code: "SV100", FullName: "A", Email: "a@example.com", UpdatedAt: base.Add(time.Hour)})
	b := h.mem.SeedStudent(models.Student{Code: "SV100", FullName: "A", Phone: "+84900000000", ClassName: "K1", UpdatedAt: base})
	c := h.mem.SeedStudent(models.Student{Code: "SV100", FullName: "A", Note: "late", UpdatedAt: base.Add(2 * time.Hour)})
	h.mem.SeedStudent(models.Student{Code: "SV200", FullName: "Single"})

	results, err := h.dedup.DedupAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want one collapsed code", results)
	}
	r := results[0]
	if r.KeptID != b.ID {
		t.Errorf("kept = %d, want %d", r.KeptID, b.ID)
	}
	if want := []int64{c.ID, a.ID}; !reflect.DeepEqual(r.RemovedIDs, want) {
		t.Errorf("removed = %v, want %v", r.RemovedIDs, want)
	}

	rows := h.mem.StudentsByCode("SV100")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	got := rows[0]
	if got.Email != "a@example.com" || got.Note != "late" || got.Phone != "+84900000000" {
		t.Errorf("kept row was not filled from duplicates: %+v", got)
	}
}

func TestDedupTieBreaks(t *testing.T) {
	h := newHarness(t, nil)
	same := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	h.mem.SeedStudent(models.Student{Code: "SV300", FullName: "Old", UpdatedAt: same})
	newer := h.mem.SeedStudent(models.Student{Code: "SV300", FullName: "New", UpdatedAt: same})

	r, err := h.dedup.DedupCode(context.Background(), "SV300")
	if err != nil {
		t.Fatal(err)
	}
	if r.KeptID != newer.ID {
		t.Errorf("kept = %d, want highest id %d", r.KeptID, newer.ID)
	}
}

func TestDedupIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for _, code := range []string{"SV1", "SV1", "SV2", "SV2", "SV2", "SV3"} {
		h.mem.SeedStudent(models.Student{Code: code, FullName: code})
	}

	if _, err := h.dedup.DedupAll(ctx); err != nil {
		t.Fatal(err)
	}
	once := h.mem.Students()

	again, err := h.dedup.DedupAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second run collapsed %+v", again)
	}
	if twice := h.mem.Students(); !reflect.DeepEqual(once, twice) {
		t.Errorf("second run changed state")
	}
	if len(once) != 3 {
		t.Errorf("students = %d, want 3", len(once))
	}
}
