package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/models/dto"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/apperrors"
)

// GuidanceEntry is one accepted row of a guidance sheet.
type GuidanceEntry struct {
	Row         int
	StudentCode string
	StudentName string
	ClassName   string
	Topic       string
	Note        string
	// TeacherText is the teacher cell as written
	TeacherText string
}

// GuidanceGroup is the complete new guided-student list of one teacher.
type GuidanceGroup struct {
	Teacher *models.Teacher
	Entries []GuidanceEntry
}

// GroupOutcome reports one committed or rolled back group.
type GroupOutcome struct {
	TeacherCode string
	Accepted    int
	Released    int64
	Students    dto.EntityCounts
	Err         error
}

// ReconcileOutcome collects every group outcome in input order.
type ReconcileOutcome struct {
	Groups []GroupOutcome
}

// Failed returns the teacher codes whose group rolled back.
func (o ReconcileOutcome) Failed() []string {
	var out []string
	for _, g := range o.Groups {
		if g.Err != nil {
			out = append(out, g.TeacherCode)
		}
	}
	return out
}

// GuidanceReconciler replaces each teacher's guided-student list in its own
// parent transaction. A failing group never affects another.
type GuidanceReconciler struct {
	tx     store.TxManager
	merger *MergeUpdater
	log    zerolog.Logger
}

// NewGuidanceReconciler creates a GuidanceReconciler.
func NewGuidanceReconciler(tx store.TxManager, merger *MergeUpdater, log zerolog.Logger) *GuidanceReconciler {
	return &GuidanceReconciler{tx: tx, merger: merger, log: log.With().Str("component", "guidance_reconciler").Logger()}
}

// Reconcile applies every group. The teachers referenced by groups must already
// be committed to the catalog.
func (r *GuidanceReconciler) Reconcile(ctx context.Context, batchID uuid.UUID, groups []GuidanceGroup) ReconcileOutcome {
	out := ReconcileOutcome{Groups: make([]GroupOutcome, 0, len(groups))}
	for _, g := range groups {
		out.Groups = append(out.Groups, r.reconcileGroup(ctx, batchID, g))
	}
	return out
}

func guidanceLockKey(teacherCode string) string { return "guidance:" + teacherCode }

// groupLockKeys locks the teacher's list, then every listed student in code
// order. Roster imports and dedup take the same student keys, so a group never
// races them into inserting a second row for a student.
func groupLockKeys(g GuidanceGroup) []string {
	codes := make([]string, 0, len(g.Entries))
	seen := make(map[string]bool, len(g.Entries))
	for _, e := range g.Entries {
		if !seen[e.StudentCode] {
			seen[e.StudentCode] = true
			codes = append(codes, e.StudentCode)
		}
	}
	sort.Strings(codes)

	keys := make([]string, 0, len(codes)+1)
	keys = append(keys, guidanceLockKey(g.Teacher.Code))
	for _, c := range codes {
		keys = append(keys, studentLockKey(c))
	}
	return keys
}

func (r *GuidanceReconciler) reconcileGroup(ctx context.Context, batchID uuid.UUID, g GuidanceGroup) (out GroupOutcome) {
	code := g.Teacher.Code
	out.TeacherCode = code
	ctx, span := startSpan(ctx, "guidance.reconcile_group",
		attribute.String("teacher.code", code),
		attribute.Int("rows", len(g.Entries)),
	)
	defer func() { endSpan(span, out.Err) }()

	var (
		counts   dto.EntityCounts
		released int64
	)
	err := r.tx.InParentTx(ctx, groupLockKeys(g), func(ctx context.Context, cat *store.Catalog) error {
		counts, released = dto.EntityCounts{}, 0

		old, err := cat.Guidance.ListByTeacher(ctx, code)
		if err != nil {
			return fmt.Errorf("list previous rows: %w", err)
		}

		rows := make([]*models.GuidanceAssignment, len(g.Entries))
		kept := make(map[string]bool, len(g.Entries))
		for i, e := range g.Entries {
			rows[i] = &models.GuidanceAssignment{
				TeacherCode: code,
				StudentCode: e.StudentCode,
				StudentName: e.StudentName,
				ClassName:   e.ClassName,
				Topic:       e.Topic,
				Note:        e.Note,
				TeacherText: e.TeacherText,
				SourceRow:   e.Row,
			}
			kept[e.StudentCode] = true
		}
		if err := cat.Guidance.ReplaceForTeacher(ctx, batchID, code, rows); err != nil {
			return fmt.Errorf("swap guidance rows: %w", err)
		}

		var dropped []string
		names := []string{g.Teacher.Name}
		for _, o := range old {
			if !kept[o.StudentCode] {
				dropped = append(dropped, o.StudentCode)
			}
			if o.TeacherText != "" && o.TeacherText != g.Teacher.Name {
				names = append(names, o.TeacherText)
			}
		}
		if len(dropped) > 0 {
			if released, err = cat.Students.ReleaseTeacher(ctx, dropped, names); err != nil {
				return fmt.Errorf("release dropped students: %w", err)
			}
		}

		for _, e := range g.Entries {
			res, err := r.merger.MergeStudent(ctx, cat, MergeRequest{
				Code: e.StudentCode,
				Values: models.Columns{
					models.ColFullName:           e.StudentName,
					models.ColClassName:          e.ClassName,
					models.ColSupervisingTeacher: g.Teacher.Name,
				},
				Mode:      ModeFillEmpty,
				Overwrite: []string{models.ColSupervisingTeacher},
			})
			switch {
			case errors.Is(err, apperrors.ErrNoFieldsToUpdate):
				counts.Unchanged++
			case err != nil:
				return fmt.Errorf("row %d student %s: %w", e.Row, e.StudentCode, err)
			case res.Outcome == MergeCreated:
				counts.Created++
			default:
				counts.Updated++
			}
		}

		return cat.Teachers.SetGuidedCount(ctx, code, len(g.Entries))
	})
	if err != nil {
		r.log.Error().Err(err).Str("teacher", code).Msg("Guidance group rolled back")
		out.Err = apperrors.NewCustomError(
			fmt.Errorf("%w: %w", apperrors.ErrGroupFailed, err),
			fmt.Sprintf("teacher %s: %v", code, err),
		).WithCode(apperrors.CodeGroupFailed)
		return out
	}

	out.Accepted = len(g.Entries)
	out.Released = released
	out.Students = counts
	r.log.Info().Str("teacher", code).Int("rows", out.Accepted).Int64("released", released).Msg("Guidance group committed")
	return out
}
