package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/dberrors"
)

var companySelectColumns = []string{
	"id", "code", "name", "address", "accepted_position", "capacity", "assigned_count",
	"contact_email", "phone", "created_at", "updated_at",
}

const recomputeAssignedCountsSQL = `
	UPDATE companies c
	SET assigned_count = x.n, updated_at = NOW()
	FROM (
		SELECT c2.code, COUNT(s.id)::int AS n
		FROM companies c2
		LEFT JOIN students s ON s.host_company = c2.name
		GROUP BY c2.code
	) x
	WHERE x.code = c.code AND c.assigned_count <> x.n`

// CompanyRepository handles host company database operations
type CompanyRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db DBTX) *CompanyRepository {
	return &CompanyRepository{db: db, sb: statementBuilder()}
}

func scanCompany(row pgx.Row) (*models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.Address, &c.AcceptedPosition, &c.Capacity, &c.AssignedCount,
		&c.ContactEmail, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByCode retrieves a company by code
func (r *CompanyRepository) FindByCode(ctx context.Context, code string) (*models.Company, error) {
	sql, args, err := r.sb.Select(companySelectColumns...).
		From("companies").
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get company query: %w", err)
	}
	c, err := scanCompany(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("error getting company %s: %w", code, err)
	}
	return c, nil
}

// ListAll returns every company ordered by code.
func (r *CompanyRepository) ListAll(ctx context.Context) ([]*models.Company, error) {
	sql, args, err := r.sb.Select(companySelectColumns...).From("companies").OrderBy("code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list companies query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing companies: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Insert creates a company; a taken code yields apperrors.ErrCodeExists.
func (r *CompanyRepository) Insert(ctx context.Context, c *models.Company) error {
	sql, args, err := r.sb.Insert("companies").
		Columns("code", "name", "address", "accepted_position", "capacity", "contact_email", "phone").
		Values(c.Code, c.Name, c.Address, c.AcceptedPosition, c.Capacity, c.ContactEmail, c.Phone).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create company query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "companies_code_key") {
			return apperrors.ErrCodeExists
		}
		return fmt.Errorf("error creating company: %w", err)
	}
	return nil
}

// UpdateColumns writes cols onto the company with code.
func (r *CompanyRepository) UpdateColumns(ctx context.Context, code string, cols models.Columns) error {
	if len(cols) == 0 {
		return apperrors.ErrNoFieldsToUpdate
	}
	values, err := columnValues(models.CompanyTable, cols)
	if err != nil {
		return err
	}
	values["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.sb.Update("companies").SetMap(values).Where(squirrel.Eq{"code": code}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update company query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating company %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCompanyNotFound
	}
	return nil
}

// RecomputeAssignedCounts rebuilds every company's assigned count from students.
func (r *CompanyRepository) RecomputeAssignedCounts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, recomputeAssignedCountsSQL)
	if err != nil {
		return 0, fmt.Errorf("error recomputing assigned counts: %w", err)
	}
	return tag.RowsAffected(), nil
}
