package services

import (
	"context"
	"testing"

	"github.com/yigit/internhub/internal/app/models"
)

func TestRecomputeCountsFromStudents(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mem.SeedTeacher(models.Teacher{Code: "GV001", Name: "Trần Văn An", GuidedCount: 5})
	h.mem.SeedTeacher(models.Teacher{Code: "GV002", Name: "Lê Thị Bình"})
	h.mem.SeedCompany(models.Company{Code: "C1", Name: "Alpha", Capacity: 3})
	h.mem.SeedStudent(models.Student{Code: "S1", SupervisingTeacher: "Trần Văn An", HostCompany: "Alpha"})
	h.mem.SeedStudent(models.Student{Code: "S2", SupervisingTeacher: "Trần Văn An"})
	h.mem.SeedStudent(models.Student{Code: "S3", HostCompany: "Alpha"})

	changed, err := h.counts.RecomputeTeacherCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 {
		t.Errorf("teacher counters changed = %d, want 1", changed)
	}
	if got := h.mem.Teacher("GV001").GuidedCount; got != 2 {
		t.Errorf("GV001 guided = %d, want 2", got)
	}
	if got := h.mem.Teacher("GV002").GuidedCount; got != 0 {
		t.Errorf("GV002 guided = %d, want 0", got)
	}

	changed, err = h.counts.RecomputeCompanyCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 1 || h.mem.Company("C1").AssignedCount != 2 {
		t.Errorf("company changed = %d, assigned = %d, want 1 and 2", changed, h.mem.Company("C1").AssignedCount)
	}

	changed, err = h.counts.RecomputeTeacherCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if changed != 0 {
		t.Errorf("second recompute changed = %d, want 0", changed)
	}
}

func TestRefreshReadinessCollapsesDuplicatesFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.mem.SeedStudent(models.Student{
		Code: "SV500", FullName: "Phạm Minh", DesiredPosition: "Backend", HostCompany: "Alpha",
		SupervisingTeacher: "Trần Văn An", Preference: "HCM",
	})
	h.mem.SeedStudent(models.Student{Code: "SV500", DocumentURL: "https://example.com/cv.pdf"})

	if _, err := h.counts.RefreshReadiness(context.Background()); err != nil {
		t.Fatal(err)
	}
	rows := h.mem.StudentsByCode("SV500")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !rows[0].IsReady {
		t.Errorf("merged student should be ready: %+v", rows[0])
	}
}
