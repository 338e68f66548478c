package services

import (
	"context"
	"math/rand"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/models"
)

func TestQuotaPolicy(t *testing.T) {
	p := DefaultQuotaPolicy()
	tests := []struct {
		role string
		want int
	}{
		{"Phó Trưởng Khoa", 5},
		{"PHO TRUONG KHOA CNTT", 5},
		{"Trưởng khoa", 3},
		{"trưởng khoa kinh tế", 3},
		{"Giảng viên", 10},
		{"Trưởng bộ môn", 10},
		{"", 10},
	}
	for _, tt := range tests {
		if got := p.Capacity(tt.role); got != tt.want {
			t.Errorf("Capacity(%q) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestQuotaPolicyPrefersLongestKeyword(t *testing.T) {
	p := NewQuotaPolicy([]QuotaRule{{Keyword: "khoa", Quota: 1}, {Keyword: "trưởng khoa", Quota: 2}}, 4)
	if got := p.Capacity("Trưởng Khoa"); got != 2 {
		t.Errorf("Capacity = %d, want 2", got)
	}
	if got := p.Capacity("Khoa học"); got != 1 {
		t.Errorf("Capacity = %d, want 1", got)
	}
}

// seedShortfall builds 3 open teacher slots and 5 students without a teacher.
func seedShortfall(h *harness) {
	h.mem.SeedTeacher(models.Teacher{Code: "GV001", Name: "Nguyen Van X", Role: "Trưởng khoa"})
	h.mem.SeedTeacher(models.Teacher{Code: "GV002", Name: "Pham Thi Y", Role: "Giảng viên"})
	h.mem.SeedStudent(models.Student{Code: "OLD1", SupervisingTeacher: "Nguyen Van X"})
	h.mem.SeedStudent(models.Student{Code: "OLD2", SupervisingTeacher: "Nguyen Van X"})
	for _, code := range []string{"S1", "S2", "S3", "S4", "S5"} {
		h.mem.SeedStudent(models.Student{Code: code})
	}
}

func TestAssignTeachersShortfall(t *testing.T) {
	h := newHarness(t, NewQuotaPolicy(DefaultQuotaRules(), 2))
	seedShortfall(h)

	sum, err := h.assign.AssignTeachers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalCapacity != 5 || sum.AlreadyAssigned != 2 || sum.AvailableSlots != 3 {
		t.Errorf("capacity %d, assigned %d, slots %d", sum.TotalCapacity, sum.AlreadyAssigned, sum.AvailableSlots)
	}
	if sum.NeedingAssignment != 5 || sum.AssignedThisRun != 3 || sum.LeftOver != 2 {
		t.Errorf("needing %d, assigned %d, left over %d", sum.NeedingAssignment, sum.AssignedThisRun, sum.LeftOver)
	}
	if want := []string{"S4", "S5"}; !reflect.DeepEqual(sum.LeftOverStudents, want) {
		t.Errorf("left over = %v, want %v", sum.LeftOverStudents, want)
	}

	byCode := map[string]string{}
	for _, s := range h.mem.Students() {
		byCode[s.Code] = s.SupervisingTeacher
	}
	want := map[string]string{
		"OLD1": "Nguyen Van X", "OLD2": "Nguyen Van X",
		"S1": "Nguyen Van X", "S2": "Pham Thi Y", "S3": "Pham Thi Y",
		"S4": "", "S5": "",
	}
	if !reflect.DeepEqual(byCode, want) {
		t.Errorf("assignments = %v, want %v", byCode, want)
	}
}

func TestAssignTeachersConservesQuota(t *testing.T) {
	mem := newHarness(t, nil).mem
	log := zerolog.Nop()
	cat := mem.Catalog()
	dedup := NewDeduplicator(mem, cat, log)
	counts := NewCountService(cat, dedup, log)
	svc := NewAssignmentService(cat, dedup, counts, DefaultQuotaPolicy(), rand.New(rand.NewSource(42)), 0, log)

	mem.SeedTeacher(models.Teacher{Code: "GV001", Name: "A", Role: "Phó trưởng khoa", GuidedCount: 99})
	mem.SeedTeacher(models.Teacher{Code: "GV002", Name: "B", Role: "Trưởng khoa"})
	mem.SeedTeacher(models.Teacher{Code: "GV003", Name: "C", Role: "Giảng viên"})
	for i := 0; i < 3; i++ {
		mem.SeedStudent(models.Student{Code: "PRE" + string(rune('A'+i)), SupervisingTeacher: "B"})
	}
	for i := 0; i < 30; i++ {
		mem.SeedStudent(models.Student{Code: "N" + string(rune('A'+i))})
	}

	sum, err := svc.AssignTeachers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.AvailableSlots != 15 || sum.AssignedThisRun != 15 || sum.LeftOver != 15 {
		t.Errorf("slots %d, assigned %d, left over %d", sum.AvailableSlots, sum.AssignedThisRun, sum.LeftOver)
	}
	for _, b := range sum.Teachers {
		if b.Before+b.AssignedThisRun > b.Capacity {
			t.Errorf("%s: %d + %d exceeds %d", b.Code, b.Before, b.AssignedThisRun, b.Capacity)
		}
	}

	students := mem.Students()
	for _, teacher := range mem.Teachers() {
		n := 0
		for _, s := range students {
			if s.SupervisingTeacher == teacher.Name {
				n++
			}
		}
		if teacher.GuidedCount != n {
			t.Errorf("%s guided count = %d, truth %d", teacher.Code, teacher.GuidedCount, n)
		}
	}
}

func TestAssignCompaniesPrefersPositionMatch(t *testing.T) {
	h := newHarness(t, nil)
	h.mem.SeedCompany(models.Company{Code: "DN01", Name: "Alpha", AcceptedPosition: "Backend Developer, Tester", Capacity: 1})
	h.mem.SeedCompany(models.Company{Code: "DN02", Name: "Beta", AcceptedPosition: "Kế toán", Capacity: 2})
	h.mem.SeedStudent(models.Student{Code: "S1", DesiredPosition: "ke toan"})
	h.mem.SeedStudent(models.Student{Code: "S2", DesiredPosition: "Backend developer"})
	h.mem.SeedStudent(models.Student{Code: "S3"})
	h.mem.SeedStudent(models.Student{Code: "S4", DesiredPosition: "Marketing"})

	sum, err := h.assign.AssignCompanies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.AssignedThisRun != 3 || sum.LeftOver != 1 {
		t.Errorf("assigned %d, left over %d", sum.AssignedThisRun, sum.LeftOver)
	}
	got := map[string]string{}
	for _, s := range h.mem.Students() {
		got[s.Code] = s.HostCompany
	}
	want := map[string]string{"S1": "Beta", "S2": "Alpha", "S3": "Beta", "S4": ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("companies = %v, want %v", got, want)
	}
	if sum.Companies[0].PositionMatched != 1 || sum.Companies[1].PositionMatched != 1 {
		t.Errorf("breakdown = %+v", sum.Companies)
	}
	if a, b := h.mem.Company("DN01").AssignedCount, h.mem.Company("DN02").AssignedCount; a != 1 || b != 2 {
		t.Errorf("assigned counts = %d, %d", a, b)
	}
}

func TestPositionMatches(t *testing.T) {
	tests := []struct {
		desired, accepted string
		want              bool
	}{
		{"Kế toán", "kế toán tổng hợp; kiểm toán", true},
		{"Lập trình viên Java", "Java / Python", true},
		{"Backend Develper", "Backend Developer", true},
		{"Marketing", "Backend Developer, Tester", false},
		{"", "Anything", false},
	}
	for _, tt := range tests {
		if got := PositionMatches(tt.desired, tt.accepted, DefaultCompanyMatchThreshold); got != tt.want {
			t.Errorf("PositionMatches(%q, %q) = %v, want %v", tt.desired, tt.accepted, got, tt.want)
		}
	}
}

func TestRunReportsDuplicates(t *testing.T) {
	h := newHarness(t, nil)
	h.mem.SeedTeacher(models.Teacher{Code: "GV001", Name: "A"})
	h.mem.SeedStudent(models.Student{Code: "S1", FullName: "x"})
	h.mem.SeedStudent(models.Student{Code: "S1", FullName: "x", Note: "more"})

	sum, err := h.assign.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.DuplicatesRemoved != 1 {
		t.Errorf("duplicates removed = %d", sum.DuplicatesRemoved)
	}
	if sum.Teachers.AssignedThisRun != 1 || sum.Companies == nil {
		t.Errorf("summary = %+v", sum)
	}
}
