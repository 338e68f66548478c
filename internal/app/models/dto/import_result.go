package dto

import "github.com/google/uuid"

// EntityCounts tallies what an import did to one entity kind.
type EntityCounts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
}

// Add accumulates o into c.
func (c *EntityCounts) Add(o EntityCounts) {
	c.Created += o.Created
	c.Updated += o.Updated
	c.Unchanged += o.Unchanged
	c.Skipped += o.Skipped
}

// RowIssue is one problem an operator must fix in the source sheet. Row is the
// 1-based sheet row, 0 for issues that concern a whole teacher group.
type RowIssue struct {
	Row       int    `json:"row,omitempty"`
	Reference string `json:"reference,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ImportResult is the structured outcome of one spreadsheet import.
type ImportResult struct {
	BatchID   uuid.UUID `json:"batchId"`
	Kind      string    `json:"kind"`
	Sheet     string    `json:"sheet"`
	HeaderRow int       `json:"headerRow"`
	DataRows  int       `json:"dataRows"`

	Students  EntityCounts `json:"students"`
	Teachers  EntityCounts `json:"teachers"`
	Companies EntityCounts `json:"companies"`

	// AcceptedByTeacher maps teacher code to rows accepted, guidance imports only
	AcceptedByTeacher map[string]int `json:"acceptedByTeacher,omitempty"`
	FailedGroups      []string       `json:"failedGroups,omitempty"`
	CreatedTeachers   []string       `json:"createdTeachers,omitempty"`

	Errors     []RowIssue         `json:"errors"`
	Assignment *AssignmentSummary `json:"assignment,omitempty"`
}

// AddIssue appends an issue.
func (r *ImportResult) AddIssue(row int, reference, code, message string) {
	r.Errors = append(r.Errors, RowIssue{Row: row, Reference: reference, Code: code, Message: message})
}
