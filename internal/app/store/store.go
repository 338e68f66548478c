// Package store declares the catalog operations the placement services need.
// Postgres repositories implement them for production and memstore for tests.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/yigit/internhub/internal/app/models"
)

// StudentStore reads and writes student rows. Rows are addressed by id because
// the natural key may repeat until deduplicated.
type StudentStore interface {
	FindByCode(ctx context.Context, code string) ([]*models.Student, error)
	Insert(ctx context.Context, s *models.Student) error
	UpdateColumns(ctx context.Context, id int64, cols models.Columns) error
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	DuplicateCodes(ctx context.Context) ([]string, error)
	// ListWithoutTeacher and ListWithoutCompany return rows ordered by ascending id
	ListWithoutTeacher(ctx context.Context) ([]*models.Student, error)
	ListWithoutCompany(ctx context.Context) ([]*models.Student, error)
	// AssignTeacherIfBlank sets the supervising teacher only when it is still blank.
	AssignTeacherIfBlank(ctx context.Context, id int64, teacherName string) (bool, error)
	AssignCompanyIfBlank(ctx context.Context, id int64, companyName string) (bool, error)
	// ReleaseTeacher blanks the supervising teacher of the given students where it
	// still holds one of names.
	ReleaseTeacher(ctx context.Context, codes []string, names []string) (int64, error)
	RefreshReadiness(ctx context.Context) (int64, error)
}

// TeacherStore reads and writes teachers keyed by code.
type TeacherStore interface {
	FindByCode(ctx context.Context, code string) (*models.Teacher, error)
	ListAll(ctx context.Context) ([]*models.Teacher, error)
	Insert(ctx context.Context, t *models.Teacher) error
	UpdateColumns(ctx context.Context, code string, cols models.Columns) error
	SetGuidedCount(ctx context.Context, code string, n int) error
	// RecomputeGuidedCounts sets every guided count to the number of students whose
	// supervising teacher equals the teacher's name, returning the rows changed.
	RecomputeGuidedCounts(ctx context.Context) (int64, error)
}

// CompanyStore reads and writes companies keyed by code.
type CompanyStore interface {
	FindByCode(ctx context.Context, code string) (*models.Company, error)
	ListAll(ctx context.Context) ([]*models.Company, error)
	Insert(ctx context.Context, c *models.Company) error
	UpdateColumns(ctx context.Context, code string, cols models.Columns) error
	RecomputeAssignedCounts(ctx context.Context) (int64, error)
}

// GuidanceStore holds each teacher's uploaded guidance list.
type GuidanceStore interface {
	ListByTeacher(ctx context.Context, teacherCode string) ([]*models.GuidanceAssignment, error)
	// ReplaceForTeacher stages rows under batchID and swaps them in for the
	// teacher's previous list.
	ReplaceForTeacher(ctx context.Context, batchID uuid.UUID, teacherCode string, rows []*models.GuidanceAssignment) error
}

// Catalog bundles the stores bound to one connection or transaction.
type Catalog struct {
	Students  StudentStore
	Teachers  TeacherStore
	Companies CompanyStore
	Guidance  GuidanceStore
}

// TxFunc runs against a catalog bound to an open transaction.
type TxFunc func(ctx context.Context, cat *Catalog) error

// TxManager runs units of work atomically.
type TxManager interface {
	// InParentTx runs fn in one transaction serialized with every other
	// transaction sharing any of keys. Keys are taken in the order given, so
	// callers holding several list them in a fixed order. An error from fn rolls
	// everything back.
	InParentTx(ctx context.Context, keys []string, fn TxFunc) error
}
