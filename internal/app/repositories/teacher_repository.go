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
	"github.com/yigit/internhub/internal/pkg/logger"
)

var teacherSelectColumns = []string{
	"id", "code", "name", "role", "department", "email", "phone", "guided_count", "is_generated", "created_at", "updated_at",
}

// guided_count is a cache of exact-name matches on students.supervising_teacher.
const recomputeGuidedCountsSQL = `
	UPDATE teachers t
	SET guided_count = c.n, updated_at = NOW()
	FROM (
		SELECT t2.code, COUNT(s.id)::int AS n
		FROM teachers t2
		LEFT JOIN students s ON s.supervising_teacher = t2.name
		GROUP BY t2.code
	) c
	WHERE c.code = t.code AND t.guided_count <> c.n`

// TeacherRepository handles teacher database operations
type TeacherRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewTeacherRepository creates a new TeacherRepository
func NewTeacherRepository(db DBTX) *TeacherRepository {
	return &TeacherRepository{db: db, sb: statementBuilder()}
}

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	var t models.Teacher
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Role, &t.Department, &t.Email, &t.Phone,
		&t.GuidedCount, &t.IsGenerated, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByCode retrieves a teacher by code
func (r *TeacherRepository) FindByCode(ctx context.Context, code string) (*models.Teacher, error) {
	sql, args, err := r.sb.Select(teacherSelectColumns...).
		From("teachers").
		Where(squirrel.Eq{"code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}

	t, err := scanTeacher(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, fmt.Errorf("error getting teacher %s: %w", code, err)
	}
	return t, nil
}

// ListAll returns every teacher ordered by code.
func (r *TeacherRepository) ListAll(ctx context.Context) ([]*models.Teacher, error) {
	sql, args, err := r.sb.Select(teacherSelectColumns...).From("teachers").OrderBy("code").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teachers query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()

	var out []*models.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Insert creates a teacher; a taken code yields apperrors.ErrCodeExists.
func (r *TeacherRepository) Insert(ctx context.Context, t *models.Teacher) error {
	sql, args, err := r.sb.Insert("teachers").
		Columns("code", "name", "role", "department", "email", "phone", "guided_count", "is_generated").
		Values(t.Code, t.Name, t.Role, t.Department, t.Email, t.Phone, t.GuidedCount, t.IsGenerated).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create teacher query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "teachers_code_key") {
			logger.Warn().Str("code", t.Code).Msg("Attempted to create teacher with duplicate code")
			return apperrors.ErrCodeExists
		}
		return fmt.Errorf("error creating teacher: %w", err)
	}
	return nil
}

// UpdateColumns writes cols onto the teacher with code.
func (r *TeacherRepository) UpdateColumns(ctx context.Context, code string, cols models.Columns) error {
	if len(cols) == 0 {
		return apperrors.ErrNoFieldsToUpdate
	}
	values, err := columnValues(models.TeacherTable, cols)
	if err != nil {
		return err
	}
	values["updated_at"] = squirrel.Expr("NOW()")

	sql, args, err := r.sb.Update("teachers").SetMap(values).Where(squirrel.Eq{"code": code}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update teacher query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating teacher %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// SetGuidedCount stores n as the teacher's guided count.
func (r *TeacherRepository) SetGuidedCount(ctx context.Context, code string, n int) error {
	sql, args, err := r.sb.Update("teachers").
		Set("guided_count", n).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build guided count query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error setting guided count for %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// RecomputeGuidedCounts rebuilds every guided count from students.
func (r *TeacherRepository) RecomputeGuidedCounts(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, recomputeGuidedCountsSQL)
	if err != nil {
		return 0, fmt.Errorf("error recomputing guided counts: %w", err)
	}
	return tag.RowsAffected(), nil
}
