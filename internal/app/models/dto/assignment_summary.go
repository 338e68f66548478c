package dto

// TeacherBreakdown is one teacher's line in an assignment summary.
type TeacherBreakdown struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Role            string `json:"role"`
	Capacity        int    `json:"capacity"`
	Before          int    `json:"before"`
	AssignedThisRun int    `json:"assignedThisRun"`
}

// CompanyBreakdown is one company's line in an assignment summary.
type CompanyBreakdown struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	Before          int    `json:"before"`
	AssignedThisRun int    `json:"assignedThisRun"`
	PositionMatched int    `json:"positionMatched"`
}

// PassSummary holds the totals shared by the teacher and company passes.
type PassSummary struct {
	TotalCapacity     int `json:"totalCapacity"`
	AlreadyAssigned   int `json:"alreadyAssigned"`
	AvailableSlots    int `json:"availableSlots"`
	NeedingAssignment int `json:"needingAssignment"`
	AssignedThisRun   int `json:"assignedThisRun"`
	LeftOver          int `json:"leftOver"`
	// Contended counts students filled by someone else between listing and assignment
	Contended int `json:"contended,omitempty"`
}

// TeacherAssignmentSummary is the outcome of the teacher pass.
type TeacherAssignmentSummary struct {
	PassSummary
	Teachers []TeacherBreakdown `json:"teachers"`
	// LeftOverStudents lists the codes that found no slot
	LeftOverStudents []string `json:"leftOverStudents,omitempty"`
}

// CompanyAssignmentSummary is the outcome of the company pass.
type CompanyAssignmentSummary struct {
	PassSummary
	Companies        []CompanyBreakdown `json:"companies"`
	LeftOverStudents []string           `json:"leftOverStudents,omitempty"`
}

// AssignmentSummary is the outcome of a full assignment run.
type AssignmentSummary struct {
	DuplicatesRemoved int                       `json:"duplicatesRemoved"`
	Teachers          *TeacherAssignmentSummary `json:"teachers,omitempty"`
	Companies         *CompanyAssignmentSummary `json:"companies,omitempty"`
}
