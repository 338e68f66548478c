package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yigit/internhub/internal/app/models"
)

var guidanceCopyColumns = []string{
	"batch_id", "teacher_code", "student_code", "student_name", "class_name", "topic", "note", "teacher_text", "source_row",
}

// GuidanceRepository stores teachers' guided-student lists.
type GuidanceRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewGuidanceRepository creates a new GuidanceRepository
func NewGuidanceRepository(db DBTX) *GuidanceRepository {
	return &GuidanceRepository{db: db, sb: statementBuilder()}
}

// ListByTeacher returns the teacher's current list.
func (r *GuidanceRepository) ListByTeacher(ctx context.Context, teacherCode string) ([]*models.GuidanceAssignment, error) {
	sql, args, err := r.sb.Select("id", "teacher_code", "student_code", "student_name", "class_name", "topic", "note",
		"teacher_text", "source_row", "import_batch_id", "created_at").
		From("guidance_assignments").
		Where(squirrel.Eq{"teacher_code": teacherCode}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list guidance query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing guidance for %s: %w", teacherCode, err)
	}
	defer rows.Close()

	var out []*models.GuidanceAssignment
	for rows.Next() {
		var g models.GuidanceAssignment
		if err := rows.Scan(&g.ID, &g.TeacherCode, &g.StudentCode, &g.StudentName, &g.ClassName, &g.Topic, &g.Note,
			&g.TeacherText, &g.SourceRow, &g.ImportBatchID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning guidance row: %w", err)
		}
		out = append(out, &g)
	}
	return out, rows.Err()
}

// ReplaceForTeacher copies rows into guidance_staging, then swaps them in for
// the teacher's previous list and clears the staged copy. It must run inside the
// teacher's parent transaction.
func (r *GuidanceRepository) ReplaceForTeacher(ctx context.Context, batchID uuid.UUID, teacherCode string, rows []*models.GuidanceAssignment) error {
	staged, err := r.db.CopyFrom(ctx, pgx.Identifier{"guidance_staging"}, guidanceCopyColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			g := rows[i]
			return []any{batchID, teacherCode, g.StudentCode, g.StudentName, g.ClassName, g.Topic, g.Note, g.TeacherText, g.SourceRow}, nil
		}))
	if err != nil {
		return fmt.Errorf("error staging guidance rows for %s: %w", teacherCode, err)
	}
	if staged != int64(len(rows)) {
		return fmt.Errorf("staged %d of %d guidance rows for %s", staged, len(rows), teacherCode)
	}

	// uuid.UUID is an array type, which squirrel.Eq would expand into an IN list
	stagedRows := squirrel.Eq{"batch_id": batchID.String(), "teacher_code": teacherCode}

	del, delArgs, err := r.sb.Delete("guidance_assignments").Where(squirrel.Eq{"teacher_code": teacherCode}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build guidance delete: %w", err)
	}
	if _, err := r.db.Exec(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("error removing previous guidance for %s: %w", teacherCode, err)
	}

	ins, insArgs, err := r.sb.Insert("guidance_assignments").
		Columns("teacher_code", "student_code", "student_name", "class_name", "topic", "note", "teacher_text", "source_row", "import_batch_id").
		Select(r.sb.Select("teacher_code", "student_code", "student_name", "class_name", "topic", "note", "teacher_text", "source_row", "batch_id").
			From("guidance_staging").
			Where(stagedRows).
			OrderBy("source_row")).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build guidance swap: %w", err)
	}
	if _, err := r.db.Exec(ctx, ins, insArgs...); err != nil {
		return fmt.Errorf("error swapping guidance for %s: %w", teacherCode, err)
	}

	clr, clrArgs, err := r.sb.Delete("guidance_staging").Where(stagedRows).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build staging cleanup: %w", err)
	}
	if _, err := r.db.Exec(ctx, clr, clrArgs...); err != nil {
		return fmt.Errorf("error clearing staged guidance for %s: %w", teacherCode, err)
	}
	return nil
}
