package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/helpers"
	"github.com/yigit/internhub/internal/pkg/logger"
)

var studentSelectColumns = []string{
	"id", "code", "full_name", "date_of_birth", "class_name", "email", "personal_email", "phone",
	"desired_position", "host_company", "supervising_teacher", "preference", "document_url",
	"internship_start", "internship_end", "note", "is_ready", "created_at", "updated_at",
}

const recomputeReadinessSQL = `
	UPDATE students s
	SET is_ready = student_readiness(s)
	WHERE s.is_ready IS DISTINCT FROM student_readiness(s)`

// StudentRepository handles student database operations
type StudentRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db, sb: statementBuilder()}
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var (
		s                 models.Student
		dob, start, endAt pgtype.Date
	)
	err := row.Scan(
		&s.ID, &s.Code, &s.FullName, &dob, &s.ClassName, &s.Email, &s.PersonalEmail, &s.Phone,
		&s.DesiredPosition, &s.HostCompany, &s.SupervisingTeacher, &s.Preference, &s.DocumentURL,
		&start, &endAt, &s.Note, &s.IsReady, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.DateOfBirth = helpers.DatePtr(dob)
	s.InternshipStart = helpers.DatePtr(start)
	s.InternshipEnd = helpers.DatePtr(endAt)
	return &s, nil
}

func (r *StudentRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Student, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student list query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var out []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindByCode returns every row carrying code, oldest first.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) ([]*models.Student, error) {
	return r.list(ctx, r.sb.Select(studentSelectColumns...).
		From("students").
		Where(squirrel.Eq{"code": code}).
		OrderBy("id"))
}

// Insert creates a student and fills in its generated fields.
func (r *StudentRepository) Insert(ctx context.Context, s *models.Student) error {
	values, err := columnValues(models.StudentTable, s.Columns())
	if err != nil {
		return err
	}
	values["code"] = s.Code

	sql, args, err := r.sb.Insert("students").
		SetMap(values).
		Suffix("RETURNING id, is_ready, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.IsReady, &s.CreatedAt, &s.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("code", s.Code).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// UpdateColumns writes cols onto the row with id. Readiness is recomputed by
// the table trigger in the same statement.
func (r *StudentRepository) UpdateColumns(ctx context.Context, id int64, cols models.Columns) error {
	if len(cols) == 0 {
		return apperrors.ErrNoFieldsToUpdate
	}
	values, err := columnValues(models.StudentTable, cols)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Update("students").SetMap(values).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating student %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// DeleteByIDs removes the given rows.
func (r *StudentRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete students query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting students: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DuplicateCodes lists codes held by more than one row.
func (r *StudentRepository) DuplicateCodes(ctx context.Context) ([]string, error) {
	sql, args, err := r.sb.Select("code").
		From("students").
		GroupBy("code").
		Having("COUNT(*) > 1").
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build duplicate codes query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing duplicate codes: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ListWithoutTeacher returns students with a blank supervising teacher by ascending id.
func (r *StudentRepository) ListWithoutTeacher(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx, r.sb.Select(studentSelectColumns...).
		From("students").
		Where("btrim(supervising_teacher) = ''").
		OrderBy("id"))
}

// ListWithoutCompany returns students with a blank host company by ascending id.
func (r *StudentRepository) ListWithoutCompany(ctx context.Context) ([]*models.Student, error) {
	return r.list(ctx, r.sb.Select(studentSelectColumns...).
		From("students").
		Where("btrim(host_company) = ''").
		OrderBy("id"))
}

func (r *StudentRepository) assignIfBlank(ctx context.Context, id int64, col, value string) (bool, error) {
	sql, args, err := r.sb.Update("students").
		Set(col, value).
		Where(squirrel.Eq{"id": id}).
		Where(fmt.Sprintf("btrim(%s) = ''", col)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build assign query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error assigning %s for student %d: %w", col, id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// AssignTeacherIfBlank sets the supervising teacher unless someone filled it meanwhile.
func (r *StudentRepository) AssignTeacherIfBlank(ctx context.Context, id int64, teacherName string) (bool, error) {
	return r.assignIfBlank(ctx, id, models.ColSupervisingTeacher, teacherName)
}

// AssignCompanyIfBlank sets the host company unless someone filled it meanwhile.
func (r *StudentRepository) AssignCompanyIfBlank(ctx context.Context, id int64, companyName string) (bool, error) {
	return r.assignIfBlank(ctx, id, models.ColHostCompany, companyName)
}

// ReleaseTeacher blanks the supervising teacher for codes where it still names the teacher.
func (r *StudentRepository) ReleaseTeacher(ctx context.Context, codes []string, names []string) (int64, error) {
	if len(codes) == 0 || len(names) == 0 {
		return 0, nil
	}
	sql, args, err := r.sb.Update("students").
		Set(models.ColSupervisingTeacher, "").
		Where(squirrel.Eq{"code": codes, models.ColSupervisingTeacher: names}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build release query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error releasing students: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RefreshReadiness recomputes is_ready for rows that drifted.
func (r *StudentRepository) RefreshReadiness(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, recomputeReadinessSQL)
	if err != nil {
		return 0, fmt.Errorf("error refreshing readiness: %w", err)
	}
	return tag.RowsAffected(), nil
}
