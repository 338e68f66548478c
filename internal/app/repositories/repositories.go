package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/helpers"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx, so one
// repository works both on the pool and inside a parent transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository  *StudentRepository
	TeacherRepository  *TeacherRepository
	CompanyRepository  *CompanyRepository
	GuidanceRepository *GuidanceRepository
}

// NewRepositories initializes all repositories on db
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		StudentRepository:  NewStudentRepository(db),
		TeacherRepository:  NewTeacherRepository(db),
		CompanyRepository:  NewCompanyRepository(db),
		GuidanceRepository: NewGuidanceRepository(db),
	}
}

// Catalog exposes the repositories through the store interfaces.
func (r *Repositories) Catalog() *store.Catalog {
	return &store.Catalog{
		Students:  r.StudentRepository,
		Teachers:  r.TeacherRepository,
		Companies: r.CompanyRepository,
		Guidance:  r.GuidanceRepository,
	}
}

func statementBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// columnValues converts a column map into typed SQL values, rejecting columns
// the table does not allow imports to write.
func columnValues(table models.Table, cols models.Columns) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(cols))
	for col, v := range cols {
		if !table.Allows(col) {
			return nil, fmt.Errorf("column %q is not writable on %s", col, table.Name)
		}
		switch {
		case table.Dates[col]:
			d, err := helpers.GetNullDate(v)
			if err != nil {
				return nil, err
			}
			out[col] = d
		case table.Ints[col]:
			n, err := models.ParseInt(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			out[col] = n
		default:
			out[col] = v
		}
	}
	return out, nil
}
