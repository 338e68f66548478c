// Package sheet turns decoded spreadsheet rows into canonical records. It knows
// nothing about storage: header rules, cell coercion and blank-row handling live here.
package sheet

import (
	"fmt"
	"strings"

	"github.com/yigit/internhub/internal/pkg/apperrors"
)

// Field is a canonical attribute that header variants resolve to.
type Field string

const (
	FieldStudentCode            Field = "student_code"
	FieldFullName               Field = "full_name"
	FieldDateOfBirth            Field = "date_of_birth"
	FieldClassName              Field = "class_name"
	FieldEmail                  Field = "email"
	FieldPersonalEmail          Field = "personal_email"
	FieldPhone                  Field = "phone"
	FieldDesiredPosition        Field = "desired_position"
	FieldHostCompanyName        Field = "host_company"
	FieldSupervisingTeacherName Field = "supervising_teacher"
	FieldPreference             Field = "preference"
	FieldDocumentURL            Field = "document_url"
	FieldInternshipStart        Field = "internship_start"
	FieldInternshipEnd          Field = "internship_end"
	FieldNote                   Field = "note"
	FieldTopic                  Field = "topic"
	FieldTeacherCode            Field = "teacher_code"
	FieldRole                   Field = "role"
	FieldDepartment             Field = "department"
	FieldCompanyCode            Field = "company_code"
	FieldCompanyName            Field = "company_name"
	FieldAddress                Field = "address"
	FieldAcceptedPosition       Field = "accepted_position"
	FieldCapacity               Field = "capacity"
)

var fieldLabels = map[Field]string{
	FieldStudentCode:            "Mã SV",
	FieldFullName:               "Họ tên",
	FieldDateOfBirth:            "Ngày sinh",
	FieldClassName:              "Lớp",
	FieldEmail:                  "Email",
	FieldPersonalEmail:          "Email cá nhân",
	FieldPhone:                  "Số điện thoại",
	FieldDesiredPosition:        "Vị trí mong muốn",
	FieldHostCompanyName:        "Công ty thực tập",
	FieldSupervisingTeacherName: "Giảng viên hướng dẫn",
	FieldPreference:             "Nguyện vọng",
	FieldDocumentURL:            "CV",
	FieldInternshipStart:        "Ngày bắt đầu",
	FieldInternshipEnd:          "Ngày kết thúc",
	FieldNote:                   "Ghi chú",
	FieldTopic:                  "Đề tài",
	FieldTeacherCode:            "Mã GV",
	FieldRole:                   "Chức vụ",
	FieldDepartment:             "Bộ môn",
	FieldCompanyCode:            "Mã doanh nghiệp",
	FieldCompanyName:            "Tên doanh nghiệp",
	FieldAddress:                "Địa chỉ",
	FieldAcceptedPosition:       "Vị trí tiếp nhận",
	FieldCapacity:               "Số lượng tiếp nhận",
}

// Label is the column title an operator would expect to see for the field.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// IsDate reports whether the field holds a calendar date.
func (f Field) IsDate() bool {
	switch f {
	case FieldDateOfBirth, FieldInternshipStart, FieldInternshipEnd:
		return true
	}
	return false
}

// IsCode reports whether the field is a natural key.
func (f Field) IsCode() bool {
	switch f {
	case FieldStudentCode, FieldTeacherCode, FieldCompanyCode:
		return true
	}
	return false
}

// ImportKind tags what a spreadsheet is expected to contain.
type ImportKind string

const (
	KindStudentRoster    ImportKind = "student_roster"
	KindTeacherRoster    ImportKind = "teacher_roster"
	KindCompanyRoster    ImportKind = "company_roster"
	KindGuidanceMapping  ImportKind = "guidance_mapping"
	KindRegistrationForm ImportKind = "registration_form"
)

// AllKinds lists every supported import kind.
var AllKinds = []ImportKind{
	KindStudentRoster,
	KindTeacherRoster,
	KindCompanyRoster,
	KindGuidanceMapping,
	KindRegistrationForm,
}

// ParseKind accepts the kind name with dashes or underscores.
func ParseKind(s string) (ImportKind, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, s)
}

// RequiredFields returns the fields that must resolve from the header row, and
// must be non-empty on every data row, for the kind.
func (k ImportKind) RequiredFields() []Field {
	switch k {
	case KindStudentRoster, KindRegistrationForm:
		return []Field{FieldStudentCode, FieldFullName}
	case KindTeacherRoster:
		return []Field{FieldTeacherCode, FieldFullName}
	case KindCompanyRoster:
		return []Field{FieldCompanyCode, FieldCompanyName}
	case KindGuidanceMapping:
		return []Field{FieldStudentCode, FieldSupervisingTeacherName}
	}
	return nil
}
