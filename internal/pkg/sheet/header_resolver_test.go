package sheet

import (
	"errors"
	"testing"

	"github.com/yigit/internhub/internal/pkg/apperrors"
)

func TestClassify(t *testing.T) {
	r := NewHeaderResolver(0)
	tests := []struct {
		kind ImportKind
		raw  string
		want Field
	}{
		{KindGuidanceMapping, "Mã SV", FieldStudentCode},
		{KindGuidanceMapping, "MSSV", FieldStudentCode},
		{KindGuidanceMapping, "Mã số sinh viên", FieldStudentCode},
		{KindGuidanceMapping, "Họ tên", FieldFullName},
		{KindGuidanceMapping, "Họ và tên", FieldFullName},
		{KindGuidanceMapping, "Giảng viên hướng dẫn", FieldSupervisingTeacherName},
		{KindGuidanceMapping, "GVHD", FieldSupervisingTeacherName},
		{KindGuidanceMapping, "Mã GVHD", FieldTeacherCode},
		{KindGuidanceMapping, "Tên đề tài", FieldTopic},
		{KindStudentRoster, "Email cá nhân", FieldPersonalEmail},
		{KindStudentRoster, "Email", FieldEmail},
		{KindStudentRoster, "Số điện thoại", FieldPhone},
		{KindStudentRoster, "Ngày sinh", FieldDateOfBirth},
		{KindStudentRoster, "Lớp", FieldClassName},
		{KindRegistrationForm, "Vị trí thực tập mong muốn", FieldDesiredPosition},
		{KindRegistrationForm, "Công ty thực tập", FieldHostCompanyName},
		{KindRegistrationForm, "Nguyện vọng", FieldPreference},
		{KindRegistrationForm, "Link CV", FieldDocumentURL},
		{KindTeacherRoster, "Mã GV", FieldTeacherCode},
		{KindTeacherRoster, "Họ tên giảng viên", FieldFullName},
		{KindTeacherRoster, "Chức vụ", FieldRole},
		{KindTeacherRoster, "Bộ môn", FieldDepartment},
		{KindCompanyRoster, "Mã doanh nghiệp", FieldCompanyCode},
		{KindCompanyRoster, "Tên doanh nghiệp", FieldCompanyName},
		{KindCompanyRoster, "Vị trí tuyển dụng", FieldAcceptedPosition},
		{KindCompanyRoster, "Số lượng", FieldCapacity},
		{KindCompanyRoster, "Địa chỉ", FieldAddress},
		{KindCompanyRoster, "  DIA CHI  ", FieldAddress},
		{KindCompanyRoster, "Địa chỉ công ty", FieldAddress},
		{KindCompanyRoster, "Email công ty", FieldEmail},
		{KindRegistrationForm, "Địa chỉ công ty", FieldAddress},
		{KindGuidanceMapping, "Ghi chú của GVHD", FieldNote},
		{KindTeacherRoster, "Email giảng viên", FieldEmail},
		{KindTeacherRoster, "SĐT giảng viên", FieldPhone},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.raw, func(t *testing.T) {
			got, ok := r.Classify(tt.kind, tt.raw)
			if !ok {
				t.Fatalf("Classify(%q) did not match", tt.raw)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyUnmatched(t *testing.T) {
	r := NewHeaderResolver(0)
	for _, raw := range []string{"", "STT", "Dấu thời gian", "???"} {
		if f, ok := r.Classify(KindGuidanceMapping, raw); ok {
			t.Errorf("Classify(%q) = %s, want no match", raw, f)
		}
	}
}

func TestClassifyIgnoresSupervisorContact(t *testing.T) {
	r := NewHeaderResolver(0)
	for _, kind := range []ImportKind{KindGuidanceMapping, KindStudentRoster, KindRegistrationForm} {
		for _, raw := range []string{"Email GVHD", "SĐT giảng viên", "Điện thoại người hướng dẫn", "Địa chỉ GV"} {
			if f, ok := r.Classify(kind, raw); ok {
				t.Errorf("%s: Classify(%q) = %s, want no match", kind, raw, f)
			}
		}
	}
}

func TestResolveSkipsSupervisorEmailColumn(t *testing.T) {
	r := NewHeaderResolver(0)
	m, err := r.Resolve(KindGuidanceMapping, []string{"STT", "Mã SV", "Họ tên", "Email GVHD", "Giảng viên hướng dẫn"})
	if err != nil {
		t.Fatal(err)
	}
	if m[FieldSupervisingTeacherName] != 4 {
		t.Errorf("teacher column = %d, want 4", m[FieldSupervisingTeacherName])
	}
	if m.Has(FieldEmail) {
		t.Errorf("email resolved to column %d, want unmapped", m[FieldEmail])
	}

	m = r.classifyRow(KindStudentRoster, []string{"Mã SV", "Họ tên", "Email GVHD"})
	if m.Has(FieldSupervisingTeacherName) || m.Has(FieldEmail) {
		t.Errorf("student roster mapping = %v, want only code and name", m)
	}
}

func TestHeaderMapFieldsInColumnOrder(t *testing.T) {
	m := HeaderMap{FieldCapacity: 4, FieldCompanyCode: 0, FieldAddress: 2, FieldCompanyName: 1}
	want := []Field{FieldCompanyCode, FieldCompanyName, FieldAddress, FieldCapacity}
	for i := 0; i < 20; i++ {
		got := m.Fields()
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("Fields() = %v, want %v", got, want)
			}
		}
	}
}

func TestResolveGuidanceHeader(t *testing.T) {
	r := NewHeaderResolver(0)
	m, err := r.Resolve(KindGuidanceMapping, []string{"STT", "Mã SV", "Họ tên", "Giảng viên hướng dẫn"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := HeaderMap{
		FieldStudentCode:            1,
		FieldFullName:               2,
		FieldSupervisingTeacherName: 3,
	}
	if len(m) != len(want) {
		t.Fatalf("got %v, want %v", m, want)
	}
	for f, col := range want {
		if m[f] != col {
			t.Errorf("%s at %d, want %d", f, m[f], col)
		}
	}
}

func TestResolveColumnOrderIndependent(t *testing.T) {
	r := NewHeaderResolver(0)
	a, err := r.Resolve(KindGuidanceMapping, []string{"Mã SV", "Họ tên", "Giảng viên hướng dẫn"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Resolve(KindGuidanceMapping, []string{"Giảng viên hướng dẫn", "Họ tên", "Mã SV"})
	if err != nil {
		t.Fatal(err)
	}
	if a[FieldStudentCode] != 0 || b[FieldStudentCode] != 2 {
		t.Errorf("student code columns = %d, %d", a[FieldStudentCode], b[FieldStudentCode])
	}
	if a[FieldSupervisingTeacherName] != 2 || b[FieldSupervisingTeacherName] != 0 {
		t.Errorf("teacher columns = %d, %d", a[FieldSupervisingTeacherName], b[FieldSupervisingTeacherName])
	}
}

func TestResolveFirstColumnWins(t *testing.T) {
	r := NewHeaderResolver(0)
	m, err := r.Resolve(KindStudentRoster, []string{"Mã SV", "Họ tên", "Email", "Email trường"})
	if err != nil {
		t.Fatal(err)
	}
	if m[FieldEmail] != 2 {
		t.Errorf("email column = %d, want 2", m[FieldEmail])
	}
}

func TestResolveMissingRequired(t *testing.T) {
	r := NewHeaderResolver(0)
	_, err := r.Resolve(KindGuidanceMapping, []string{"STT", "Họ tên", "Giảng viên hướng dẫn"})
	if !errors.Is(err, apperrors.ErrMissingHeaders) {
		t.Fatalf("err = %v, want ErrMissingHeaders", err)
	}
	var mh *apperrors.MissingHeadersError
	if !errors.As(err, &mh) {
		t.Fatalf("err is %T", err)
	}
	if len(mh.Missing) != 1 || mh.Missing[0] != FieldStudentCode.Label() {
		t.Errorf("missing = %v", mh.Missing)
	}
}

func TestLocateSkipsTitleRows(t *testing.T) {
	s := FromStrings("DS", [][]string{
		{"DANH SÁCH SINH VIÊN THỰC TẬP"},
		{},
		{"STT", "Mã SV", "Họ tên", "Giảng viên hướng dẫn"},
		{"1", "SV001", "Nguyen Van A", "Tran Thi B"},
	})
	idx, m, err := NewHeaderResolver(5).Locate(KindGuidanceMapping, s)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Errorf("header row = %d, want 2", idx)
	}
	if m[FieldSupervisingTeacherName] != 3 {
		t.Errorf("teacher column = %d", m[FieldSupervisingTeacherName])
	}
}

func TestLocateReportsBestCandidate(t *testing.T) {
	s := FromStrings("DS", [][]string{
		{"Báo cáo"},
		{"Mã SV", "Ngày sinh"},
	})
	_, _, err := NewHeaderResolver(5).Locate(KindStudentRoster, s)
	var mh *apperrors.MissingHeadersError
	if !errors.As(err, &mh) {
		t.Fatalf("err = %v", err)
	}
	if mh.HeaderRow != 2 {
		t.Errorf("header row = %d, want 2", mh.HeaderRow)
	}
	if len(mh.Missing) != 1 || mh.Missing[0] != FieldFullName.Label() {
		t.Errorf("missing = %v", mh.Missing)
	}
}
