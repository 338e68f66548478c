package sheet

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/internhub/internal/pkg/apperrors"
)

func guidanceExtractor(t *testing.T) (*Extractor, HeaderMap) {
	t.Helper()
	m, err := NewHeaderResolver(0).Resolve(KindGuidanceMapping,
		[]string{"STT", "Mã SV", "Họ tên", "Giảng viên hướng dẫn", "Ngày sinh"})
	if err != nil {
		t.Fatal(err)
	}
	return NewExtractor(KindGuidanceMapping, m, ""), m
}

func TestExtractRow(t *testing.T) {
	e, _ := guidanceExtractor(t)
	row := Row{
		{Value: float64(1)},
		{Value: " sv 001 "},
		{Value: "Nguyễn  Văn A"},
		{Value: "Tran Thi B (GV007)"},
		{Value: float64(37257)},
	}
	rec, err := e.Extract(2, row)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Row != 2 {
		t.Errorf("row = %d", rec.Row)
	}
	if got := rec.Get(FieldStudentCode); got != "SV001" {
		t.Errorf("code = %q", got)
	}
	if got := rec.Get(FieldFullName); got != "Nguyễn Văn A" {
		t.Errorf("name = %q", got)
	}
	if got := rec.Get(FieldDateOfBirth); got != "2002-01-01" {
		t.Errorf("dob = %q", got)
	}
}

func TestExtractBlankRow(t *testing.T) {
	e, _ := guidanceExtractor(t)
	for _, row := range []Row{nil, {}, {{Value: float64(7)}}, {{}, {Value: "  "}}} {
		rec, err := e.Extract(3, row)
		if err != nil || rec != nil {
			t.Errorf("Extract(%v) = %v, %v; want nil, nil", row, rec, err)
		}
	}
}

func TestExtractMissingRequired(t *testing.T) {
	e, _ := guidanceExtractor(t)
	_, err := e.Extract(4, Row{{}, {Value: "SV002"}, {Value: "Le C"}})
	if !errors.Is(err, apperrors.ErrRowInvalid) {
		t.Fatalf("err = %v", err)
	}
	var re *RowError
	if !errors.As(err, &re) || re.Row != 4 {
		t.Errorf("row error = %v", err)
	}
}

func TestExtractUnparseableDateIsAbsent(t *testing.T) {
	e, _ := guidanceExtractor(t)
	rec, err := e.Extract(5, Row{{}, {Value: "SV003"}, {Value: "Le C"}, {Value: "GV1"}, {Value: "not a date"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Values[FieldDateOfBirth]; ok {
		t.Errorf("dob should be absent, got %q", rec.Get(FieldDateOfBirth))
	}
}

func TestExtractAll(t *testing.T) {
	s := FromStrings("S", [][]string{
		{"STT", "Mã SV", "Họ tên", "Giảng viên hướng dẫn"},
		{"1", "SV001", "Nguyen Van A", "Tran Thi B (GV007)"},
		{},
		{"2", "SV002", "Le Van C", ""},
		{"3", "SV004", "Pham D", "GV New 42"},
	})
	idx, m, err := NewHeaderResolver(0).Locate(KindGuidanceMapping, s)
	if err != nil {
		t.Fatal(err)
	}
	recs, errs := NewExtractor(KindGuidanceMapping, m, "VN").ExtractAll(s, idx)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if len(errs) != 1 || errs[0].Row != 4 {
		t.Fatalf("errors = %v", errs)
	}
	if recs[1].Row != 5 || recs[1].Get(FieldSupervisingTeacherName) != "GV New 42" {
		t.Errorf("second record = %+v", recs[1])
	}
}

func TestCapacity(t *testing.T) {
	m := HeaderMap{FieldCompanyCode: 0, FieldCompanyName: 1, FieldCapacity: 2}
	e := NewExtractor(KindCompanyRoster, m, "")

	rec, err := e.Extract(2, Row{{Value: "dn01"}, {Value: "FPT"}, {Value: float64(4)}})
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := rec.Int(FieldCapacity); !ok || n != 4 {
		t.Errorf("capacity = %d, %v", n, ok)
	}

	_, err = e.Extract(3, Row{{Value: "dn02"}, {Value: "VNG"}, {Value: "nhiều"}})
	var re *RowError
	if !errors.As(err, &re) || re.Field != FieldCapacity {
		t.Errorf("err = %v, want capacity row error", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	tests := []struct {
		in   any
		want time.Time
		ok   bool
	}{
		{float64(45000), day(2023, time.March, 15), true},
		{"15/03/2023", day(2023, time.March, 15), true},
		{"5/3/2023", day(2023, time.March, 5), true},
		{"05-03-2023", day(2023, time.March, 5), true},
		{"05.03.2023", day(2023, time.March, 5), true},
		{"2023-03-15", day(2023, time.March, 15), true},
		{"2023-03-15 08:30:00", day(2023, time.March, 15), true},
		{time.Date(2023, 3, 15, 17, 0, 0, 0, time.UTC), day(2023, time.March, 15), true},
		{"tháng 3", time.Time{}, false},
		{"", time.Time{}, false},
		{true, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("NormalizeDate(%v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("0912 345 678", "VN"); got != "+84912345678" {
		t.Errorf("got %q", got)
	}
	if got := NormalizePhone("ext 12", "VN"); got != "ext 12" {
		t.Errorf("got %q", got)
	}
}

func TestCellString(t *testing.T) {
	if got := (Cell{Value: float64(2021001)}).String(); got != "2021001" {
		t.Errorf("got %q", got)
	}
	if got := (Cell{Value: 3.5}).String(); got != "3.5" {
		t.Errorf("got %q", got)
	}
}
