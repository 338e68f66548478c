package models

import (
	"strings"
	"time"
)

// Student column names
const (
	ColStudentCode        = "code"
	ColFullName           = "full_name"
	ColDateOfBirth        = "date_of_birth"
	ColClassName          = "class_name"
	ColEmail              = "email"
	ColPersonalEmail      = "personal_email"
	ColPhone              = "phone"
	ColDesiredPosition    = "desired_position"
	ColHostCompany        = "host_company"
	ColSupervisingTeacher = "supervising_teacher"
	ColPreference         = "preference"
	ColDocumentURL        = "document_url"
	ColInternshipStart    = "internship_start"
	ColInternshipEnd      = "internship_end"
	ColNote               = "note"
)

// StudentTable describes the students table.
var StudentTable = Table{
	Name: "students",
	Writable: []string{
		ColFullName, ColDateOfBirth, ColClassName, ColEmail, ColPersonalEmail, ColPhone,
		ColDesiredPosition, ColHostCompany, ColSupervisingTeacher, ColPreference, ColDocumentURL,
		ColInternshipStart, ColInternshipEnd, ColNote,
	},
	Dates: map[string]bool{ColDateOfBirth: true, ColInternshipStart: true, ColInternshipEnd: true},
}

// Student defines the student model based on the 'students' table
type Student struct {
	ID                 int64      `json:"id" db:"id"`
	Code               string     `json:"code" db:"code"` // natural key, unique once deduplicated
	FullName           string     `json:"fullName" db:"full_name"`
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	ClassName          string     `json:"className" db:"class_name"`
	Email              string     `json:"email" db:"email"`
	PersonalEmail      string     `json:"personalEmail" db:"personal_email"`
	Phone              string     `json:"phone" db:"phone"`
	DesiredPosition    string     `json:"desiredPosition" db:"desired_position"`
	HostCompany        string     `json:"hostCompany" db:"host_company"`
	SupervisingTeacher string     `json:"supervisingTeacher" db:"supervising_teacher"` // display name of the teacher
	Preference         string     `json:"preference" db:"preference"`
	DocumentURL        string     `json:"documentUrl" db:"document_url"`
	InternshipStart    *time.Time `json:"internshipStart,omitempty" db:"internship_start"`
	InternshipEnd      *time.Time `json:"internshipEnd,omitempty" db:"internship_end"`
	Note               string     `json:"note" db:"note"`
	IsReady            bool       `json:"isReady" db:"is_ready"` // materialized, see Ready
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// Ready reports whether the student has everything needed for placement:
// position, company, teacher, stated preference and an attached document.
func (s *Student) Ready() bool {
	for _, v := range []string{s.DesiredPosition, s.HostCompany, s.SupervisingTeacher, s.Preference, s.DocumentURL} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Columns renders the writable columns.
func (s *Student) Columns() Columns {
	return Columns{
		ColFullName:           s.FullName,
		ColDateOfBirth:        formatDate(s.DateOfBirth),
		ColClassName:          s.ClassName,
		ColEmail:              s.Email,
		ColPersonalEmail:      s.PersonalEmail,
		ColPhone:              s.Phone,
		ColDesiredPosition:    s.DesiredPosition,
		ColHostCompany:        s.HostCompany,
		ColSupervisingTeacher: s.SupervisingTeacher,
		ColPreference:         s.Preference,
		ColDocumentURL:        s.DocumentURL,
		ColInternshipStart:    formatDate(s.InternshipStart),
		ColInternshipEnd:      formatDate(s.InternshipEnd),
		ColNote:               s.Note,
	}
}

// Apply writes column values onto the struct. Unknown columns are ignored.
func (s *Student) Apply(cols Columns) error {
	for col, v := range cols {
		switch col {
		case ColFullName:
			s.FullName = v
		case ColClassName:
			s.ClassName = v
		case ColEmail:
			s.Email = v
		case ColPersonalEmail:
			s.PersonalEmail = v
		case ColPhone:
			s.Phone = v
		case ColDesiredPosition:
			s.DesiredPosition = v
		case ColHostCompany:
			s.HostCompany = v
		case ColSupervisingTeacher:
			s.SupervisingTeacher = v
		case ColPreference:
			s.Preference = v
		case ColDocumentURL:
			s.DocumentURL = v
		case ColNote:
			s.Note = v
		case ColDateOfBirth, ColInternshipStart, ColInternshipEnd:
			t, err := ParseDate(v)
			if err != nil {
				return err
			}
			switch col {
			case ColDateOfBirth:
				s.DateOfBirth = t
			case ColInternshipStart:
				s.InternshipStart = t
			default:
				s.InternshipEnd = t
			}
		}
	}
	s.IsReady = s.Ready()
	return nil
}
