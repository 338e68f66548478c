package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Giảng viên hướng dẫn", "giang vien huong dan"},
		{"  GIẢNG   VIÊN\tHƯỚNG DẪN ", "giang vien huong dan"},
		{"Đề tài", "de tai"},
		{"Mã SV", "ma sv"},
		{"Email cá nhân", "email ca nhan"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFoldDecomposedInput(t *testing.T) {
	// "Họ" written with combining marks instead of a precomposed rune.
	decomposed := "Ho\u0323 te\u0302n"
	if got := Fold(decomposed); got != "ho ten" {
		t.Fatalf("Fold(decomposed) = %q", got)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Nguyen Van   A ", "Nguyen Van A"},
		{"SV\u0000001", "SV001"},
		{"\ufeffHọ tên", "Họ tên"},
		{"line\r\nbreak", "line break"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Họ tên GVHD", "gvhd") {
		t.Error("expected gvhd to be found")
	}
	if ContainsFold("Họ tên", "") {
		t.Error("empty needle must not match")
	}
	if !EqualFold("Trần Thị B", "tran thi b") {
		t.Error("expected folded equality")
	}
}
