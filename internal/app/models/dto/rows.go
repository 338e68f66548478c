package dto

import (
	"github.com/yigit/internhub/internal/pkg/sheet"
	"github.com/yigit/internhub/internal/pkg/validation"
)

// StudentRow is the validated shape of a student roster or registration form row.
type StudentRow struct {
	Code          string `label:"Mã SV" validate:"required,entitycode"`
	FullName      string `label:"Họ tên" validate:"required,max=200"`
	Email         string `label:"Email" validate:"omitempty,email"`
	PersonalEmail string `label:"Email cá nhân" validate:"omitempty,email"`
	Phone         string `label:"Số điện thoại" validate:"omitempty,max=32"`
	ClassName     string `label:"Lớp" validate:"omitempty,max=64"`
}

// TeacherRow is the validated shape of a teacher roster row.
type TeacherRow struct {
	Code     string `label:"Mã GV" validate:"required,entitycode"`
	FullName string `label:"Họ tên" validate:"required,max=200"`
	Email    string `label:"Email" validate:"omitempty,email"`
	Phone    string `label:"Số điện thoại" validate:"omitempty,max=32"`
}

// CompanyRow is the validated shape of a company roster row.
type CompanyRow struct {
	Code         string `label:"Mã doanh nghiệp" validate:"required,entitycode"`
	Name         string `label:"Tên doanh nghiệp" validate:"required,max=255"`
	ContactEmail string `label:"Email" validate:"omitempty,email"`
}

// GuidanceRow is the validated shape of a guidance mapping row.
type GuidanceRow struct {
	StudentCode string `label:"Mã SV" validate:"required,entitycode"`
	StudentName string `label:"Họ tên" validate:"omitempty,max=200"`
	TeacherName string `label:"Giảng viên hướng dẫn" validate:"required,max=200"`
	TeacherCode string `label:"Mã GV" validate:"omitempty,entitycode"`
}

// ValidateRecord checks the record against the row shape of kind.
func ValidateRecord(kind sheet.ImportKind, rec sheet.Record) error {
	switch kind {
	case sheet.KindStudentRoster, sheet.KindRegistrationForm:
		return validation.Struct(StudentRow{
			Code:          rec.Get(sheet.FieldStudentCode),
			FullName:      rec.Get(sheet.FieldFullName),
			Email:         rec.Get(sheet.FieldEmail),
			PersonalEmail: rec.Get(sheet.FieldPersonalEmail),
			Phone:         rec.Get(sheet.FieldPhone),
			ClassName:     rec.Get(sheet.FieldClassName),
		})
	case sheet.KindTeacherRoster:
		return validation.Struct(TeacherRow{
			Code:     rec.Get(sheet.FieldTeacherCode),
			FullName: rec.Get(sheet.FieldFullName),
			Email:    rec.Get(sheet.FieldEmail),
			Phone:    rec.Get(sheet.FieldPhone),
		})
	case sheet.KindCompanyRoster:
		return validation.Struct(CompanyRow{
			Code:         rec.Get(sheet.FieldCompanyCode),
			Name:         rec.Get(sheet.FieldCompanyName),
			ContactEmail: rec.Get(sheet.FieldEmail),
		})
	case sheet.KindGuidanceMapping:
		return validation.Struct(GuidanceRow{
			StudentCode: rec.Get(sheet.FieldStudentCode),
			StudentName: rec.Get(sheet.FieldFullName),
			TeacherName: rec.Get(sheet.FieldSupervisingTeacherName),
			TeacherCode: rec.Get(sheet.FieldTeacherCode),
		})
	}
	return nil
}
