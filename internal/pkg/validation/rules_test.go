package validation

import (
	"strings"
	"testing"
)

type sampleRow struct {
	Code  string `label:"student code" validate:"required,entitycode"`
	Email string `label:"email" validate:"omitempty,email"`
	Name  string `label:"full name" validate:"required,max=10"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		row     sampleRow
		wantErr []string
	}{
		{name: "valid", row: sampleRow{Code: "SV001", Name: "An"}},
		{name: "missing code", row: sampleRow{Name: "An"}, wantErr: []string{"student code is required"}},
		{name: "bad code", row: sampleRow{Code: "SV 001!", Name: "An"}, wantErr: []string{"student code must be a short code"}},
		{
			name:    "several failures",
			row:     sampleRow{Code: "SV1", Email: "nope", Name: "Nguyen Van Teo Em"},
			wantErr: []string{"email must be a valid email address", "full name must be at most 10"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.row)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err.Error(), want)
				}
			}
		})
	}
}
