package models

import "time"

// Teacher column names
const (
	ColTeacherCode  = "code"
	ColTeacherName  = "name"
	ColRole         = "role"
	ColDepartment   = "department"
	ColTeacherEmail = "email"
	ColTeacherPhone = "phone"
)

// TeacherTable describes the teachers table.
var TeacherTable = Table{
	Name:     "teachers",
	Writable: []string{ColTeacherName, ColRole, ColDepartment, ColTeacherEmail, ColTeacherPhone},
}

// Teacher defines the teacher model based on the 'teachers' table
type Teacher struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"` // display name students reference
	Role        string    `json:"role" db:"role"` // drives the guidance quota
	Department  string    `json:"department" db:"department"`
	Email       string    `json:"email" db:"email"`
	Phone       string    `json:"phone" db:"phone"`
	GuidedCount int       `json:"guidedCount" db:"guided_count"` // cache of students naming this teacher
	IsGenerated bool      `json:"isGenerated" db:"is_generated"` // created from an unresolved import reference
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Columns renders the writable columns.
func (t *Teacher) Columns() Columns {
	return Columns{
		ColTeacherName:  t.Name,
		ColRole:         t.Role,
		ColDepartment:   t.Department,
		ColTeacherEmail: t.Email,
		ColTeacherPhone: t.Phone,
	}
}

// Apply writes column values onto the struct. Unknown columns are ignored.
func (t *Teacher) Apply(cols Columns) error {
	for col, v := range cols {
		switch col {
		case ColTeacherName:
			t.Name = v
		case ColRole:
			t.Role = v
		case ColDepartment:
			t.Department = v
		case ColTeacherEmail:
			t.Email = v
		case ColTeacherPhone:
			t.Phone = v
		}
	}
	return nil
}
