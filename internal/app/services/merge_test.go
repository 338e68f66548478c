package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/pkg/apperrors"
)

func TestPlanMerge(t *testing.T) {
	current := models.Columns{
		models.ColFullName:  "Nguyen Van A",
		models.ColEmail:     "",
		models.ColClassName: "K65",
	}
	tests := []struct {
		name string
		req  MergeRequest
		want models.Columns
	}{
		{
			name: "fill empty keeps stored values",
			req: MergeRequest{Mode: ModeFillEmpty, Values: models.Columns{
				models.ColFullName: "Other Name",
				models.ColEmail:    "a@example.com",
			}},
			want: models.Columns{models.ColEmail: "a@example.com"},
		},
		{
			name: "overwrite replaces stored values",
			req: MergeRequest{Mode: ModeOverwrite, Values: models.Columns{
				models.ColFullName:  "Other Name",
				models.ColClassName: "K65",
			}},
			want: models.Columns{models.ColFullName: "Other Name"},
		},
		{
			name: "blank incoming values are dropped",
			req:  MergeRequest{Mode: ModeOverwrite, Values: models.Columns{models.ColFullName: "  "}},
			want: models.Columns{},
		},
		{
			name: "columns outside the table are dropped",
			req:  MergeRequest{Mode: ModeOverwrite, Values: models.Columns{"is_ready": "true", "code": "X"}},
			want: models.Columns{},
		},
		{
			name: "per-column overwrite",
			req: MergeRequest{Mode: ModeFillEmpty, Overwrite: []string{models.ColClassName}, Values: models.Columns{
				models.ColFullName:  "Other Name",
				models.ColClassName: "K66",
			}},
			want: models.Columns{models.ColClassName: "K66"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanMerge(models.StudentTable, current, tt.req)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanMerge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanMergeZeroCapacity(t *testing.T) {
	c := &models.Company{Name: "Alpha"}
	plan := PlanMerge(models.CompanyTable, c.Columns(), MergeRequest{Mode: ModeFillEmpty, Values: models.Columns{models.ColCapacity: "0"}})
	if len(plan) != 0 {
		t.Errorf("plan = %v, want empty", plan)
	}
	plan = PlanMerge(models.CompanyTable, c.Columns(), MergeRequest{Mode: ModeFillEmpty, Values: models.Columns{models.ColCapacity: "4"}})
	if plan[models.ColCapacity] != "4" {
		t.Errorf("plan = %v, want capacity 4", plan)
	}
}

func TestMergeStudentFillEmptyIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.mem.SeedStudent(models.Student{Code: "SV001", FullName: "Hand Edited"})

	req := MergeRequest{Code: "SV001", Mode: ModeFillEmpty, Values: models.Columns{
		models.ColFullName:    "From Sheet",
		models.ColEmail:       "sv001@example.com",
		models.ColDateOfBirth: "2002-01-01",
		models.ColDocumentURL: "https://cv.example.com/sv001",
	}}

	res, err := h.merger.MergeStudent(ctx, h.mem.Catalog(), req)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if res.Outcome != MergeUpdated {
		t.Fatalf("outcome = %v, want updated", res.Outcome)
	}
	once := h.mem.Students()

	res, err = h.merger.MergeStudent(ctx, h.mem.Catalog(), req)
	if !errors.Is(err, apperrors.ErrNoFieldsToUpdate) {
		t.Fatalf("second merge err = %v, want ErrNoFieldsToUpdate", err)
	}
	if res.Outcome != MergeUnchanged {
		t.Errorf("outcome = %v, want unchanged", res.Outcome)
	}
	twice := h.mem.Students()
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("state changed on second fill-empty merge:\n%+v\n%+v", once, twice)
	}
	if twice[0].FullName != "Hand Edited" {
		t.Errorf("full name = %q, want hand edit kept", twice[0].FullName)
	}
	if twice[0].Email != "sv001@example.com" {
		t.Errorf("email = %q", twice[0].Email)
	}
}

func TestMergeStudentCreatesAndOverwrites(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	cat := h.mem.Catalog()

	res, err := h.merger.MergeStudent(ctx, cat, MergeRequest{Code: "SV002", Mode: ModeOverwrite, Values: models.Columns{models.ColFullName: "First"}})
	if err != nil || res.Outcome != MergeCreated {
		t.Fatalf("create: %v, %v", res.Outcome, err)
	}
	res, err = h.merger.MergeStudent(ctx, cat, MergeRequest{Code: "SV002", Mode: ModeOverwrite, Values: models.Columns{models.ColFullName: "Second"}})
	if err != nil || res.Outcome != MergeUpdated {
		t.Fatalf("overwrite: %v, %v", res.Outcome, err)
	}
	if got := h.mem.StudentsByCode("SV002"); len(got) != 1 || got[0].FullName != "Second" {
		t.Errorf("students = %+v", got)
	}
}

func TestMergeStudentCollapsesDuplicates(t *testing.T) {
	h := newHarness(t, nil)
	h.mem.SeedStudent(models.Student{Code: "SV003", FullName: "A"})
	h.mem.SeedStudent(models.Student{Code: "SV003", FullName: "A", Phone: "+84912345678"})

	_, err := h.merger.MergeStudent(context.Background(), h.mem.Catalog(), MergeRequest{
		Code: "SV003", Mode: ModeFillEmpty, Values: models.Columns{models.ColNote: "n"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := h.mem.StudentsByCode("SV003")
	if len(got) != 1 {
		t.Fatalf("rows = %d, want 1", len(got))
	}
	if got[0].Phone != "+84912345678" || got[0].Note != "n" {
		t.Errorf("student = %+v", got[0])
	}
}

func TestMergeTeacher(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	cat := h.mem.Catalog()
	h.mem.SeedTeacher(models.Teacher{Code: "GV001", Name: "Tran Van D"})

	res, err := h.merger.MergeTeacher(ctx, cat, MergeRequest{Code: "GV001", Mode: ModeFillEmpty, Values: models.Columns{
		models.ColTeacherName: "Renamed",
		models.ColRole:        "Trưởng khoa",
	}})
	if err != nil || res.Outcome != MergeUpdated {
		t.Fatalf("merge: %v, %v", res.Outcome, err)
	}
	got := h.mem.Teacher("GV001")
	if got.Name != "Tran Van D" || got.Role != "Trưởng khoa" {
		t.Errorf("teacher = %+v", got)
	}
}

func TestParseMergeMode(t *testing.T) {
	for in, want := range map[string]MergeMode{"overwrite": ModeOverwrite, "fill-empty": ModeFillEmpty, " FILL_EMPTY ": ModeFillEmpty} {
		got, err := ParseMergeMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMergeMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMergeMode("merge"); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}
