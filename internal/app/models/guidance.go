package models

import (
	"time"

	"github.com/google/uuid"
)

// GuidanceAssignment is one row of a teacher's guided-student list as last uploaded.
type GuidanceAssignment struct {
	ID            int64     `json:"id" db:"id"`
	TeacherCode   string    `json:"teacherCode" db:"teacher_code"`
	StudentCode   string    `json:"studentCode" db:"student_code"`
	StudentName   string    `json:"studentName" db:"student_name"`
	ClassName     string    `json:"className" db:"class_name"`
	Topic         string    `json:"topic" db:"topic"`
	Note          string    `json:"note" db:"note"`
	TeacherText   string    `json:"teacherText" db:"teacher_text"` // teacher cell as written in the sheet
	SourceRow     int       `json:"sourceRow" db:"source_row"`
	ImportBatchID uuid.UUID `json:"importBatchId" db:"import_batch_id"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
