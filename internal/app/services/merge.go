package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/apperrors"
)

// MergeMode selects how incoming values meet stored ones.
type MergeMode string

const (
	// ModeOverwrite replaces stored values with every non-empty incoming value.
	ModeOverwrite MergeMode = "overwrite"
	// ModeFillEmpty writes an incoming value only where the stored one is blank.
	ModeFillEmpty MergeMode = "fill_empty"
)

// ParseMergeMode accepts "overwrite" or "fill_empty" (dashes allowed).
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")) {
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeFillEmpty:
		return ModeFillEmpty, nil
	}
	return "", fmt.Errorf("%w: unknown merge mode %q", apperrors.ErrBadRequest, s)
}

// MergeRequest is one incoming row for an entity addressed by natural key.
type MergeRequest struct {
	Code   string
	Values models.Columns
	Mode   MergeMode
	// Overwrite lists columns that use ModeOverwrite whatever Mode says
	Overwrite []string
}

func (r MergeRequest) modeFor(col string) MergeMode {
	for _, c := range r.Overwrite {
		if c == col {
			return ModeOverwrite
		}
	}
	return r.Mode
}

// MergeOutcome says what a merge did.
type MergeOutcome int

const (
	MergeUnchanged MergeOutcome = iota
	MergeCreated
	MergeUpdated
)

// MergeResult reports the outcome and the columns written.
type MergeResult struct {
	Outcome MergeOutcome
	ID      int64
	Columns []string
}

// PlanMerge returns the columns of incoming that should be written onto current
// under req's modes. Blank incoming values and columns the table does not allow
// are dropped.
func PlanMerge(table models.Table, current models.Columns, req MergeRequest) models.Columns {
	plan := make(models.Columns)
	for col, v := range req.Values {
		v = strings.TrimSpace(v)
		if v == "" || !table.Allows(col) {
			continue
		}
		cur := current[col]
		if table.Ints[col] && strings.TrimSpace(cur) == "" {
			cur = "0"
		}
		switch req.modeFor(col) {
		case ModeOverwrite:
			if cur != v {
				plan[col] = v
			}
		default:
			empty := strings.TrimSpace(cur) == "" || (table.Ints[col] && cur == "0")
			if empty && cur != v {
				plan[col] = v
			}
		}
	}
	return plan
}

// MergeUpdater applies merge requests to stored entities. It only ever touches
// the target's own columns.
type MergeUpdater struct {
	log zerolog.Logger
}

// NewMergeUpdater creates a MergeUpdater.
func NewMergeUpdater(log zerolog.Logger) *MergeUpdater {
	return &MergeUpdater{log: log.With().Str("component", "merge").Logger()}
}

// MergeStudent merges req into the student with req.Code, creating the student
// when none exists. Duplicate rows for the code are collapsed first. An update
// that changes nothing returns apperrors.ErrNoFieldsToUpdate.
func (u *MergeUpdater) MergeStudent(ctx context.Context, cat *store.Catalog, req MergeRequest) (MergeResult, error) {
	rows, err := cat.Students.FindByCode(ctx, req.Code)
	if err != nil {
		return MergeResult{}, err
	}

	if len(rows) == 0 {
		s := &models.Student{Code: req.Code}
		if err := s.Apply(PlanMerge(models.StudentTable, nil, req)); err != nil {
			return MergeResult{}, err
		}
		if err := cat.Students.Insert(ctx, s); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{Outcome: MergeCreated, ID: s.ID}, nil
	}

	target := rows[0]
	if len(rows) > 1 {
		dr, err := collapseStudents(ctx, cat, rows)
		if err != nil {
			return MergeResult{}, err
		}
		u.log.Info().Str("code", req.Code).Int64("kept", dr.KeptID).Ints64("removed", dr.RemovedIDs).Msg("Collapsed duplicate student rows before merge")
		target = dr.kept
	}

	plan := PlanMerge(models.StudentTable, target.Columns(), req)
	if len(plan) == 0 {
		return MergeResult{Outcome: MergeUnchanged, ID: target.ID}, apperrors.ErrNoFieldsToUpdate
	}
	if err := cat.Students.UpdateColumns(ctx, target.ID, plan); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Outcome: MergeUpdated, ID: target.ID, Columns: sortedKeys(plan)}, nil
}

// MergeTeacher merges req into the teacher with req.Code, creating it when absent.
func (u *MergeUpdater) MergeTeacher(ctx context.Context, cat *store.Catalog, req MergeRequest) (MergeResult, error) {
	current, err := cat.Teachers.FindByCode(ctx, req.Code)
	if errors.Is(err, apperrors.ErrTeacherNotFound) {
		t := &models.Teacher{Code: req.Code}
		if err := t.Apply(PlanMerge(models.TeacherTable, nil, req)); err != nil {
			return MergeResult{}, err
		}
		if err := cat.Teachers.Insert(ctx, t); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{Outcome: MergeCreated, ID: t.ID}, nil
	}
	if err != nil {
		return MergeResult{}, err
	}

	plan := PlanMerge(models.TeacherTable, current.Columns(), req)
	if len(plan) == 0 {
		return MergeResult{Outcome: MergeUnchanged, ID: current.ID}, apperrors.ErrNoFieldsToUpdate
	}
	if err := cat.Teachers.UpdateColumns(ctx, req.Code, plan); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Outcome: MergeUpdated, ID: current.ID, Columns: sortedKeys(plan)}, nil
}

// MergeCompany merges req into the company with req.Code, creating it when absent.
func (u *MergeUpdater) MergeCompany(ctx context.Context, cat *store.Catalog, req MergeRequest) (MergeResult, error) {
	current, err := cat.Companies.FindByCode(ctx, req.Code)
	if errors.Is(err, apperrors.ErrCompanyNotFound) {
		c := &models.Company{Code: req.Code}
		if err := c.Apply(PlanMerge(models.CompanyTable, nil, req)); err != nil {
			return MergeResult{}, err
		}
		if err := cat.Companies.Insert(ctx, c); err != nil {
			return MergeResult{}, err
		}
		return MergeResult{Outcome: MergeCreated, ID: c.ID}, nil
	}
	if err != nil {
		return MergeResult{}, err
	}

	plan := PlanMerge(models.CompanyTable, current.Columns(), req)
	if len(plan) == 0 {
		return MergeResult{Outcome: MergeUnchanged, ID: current.ID}, apperrors.ErrNoFieldsToUpdate
	}
	if err := cat.Companies.UpdateColumns(ctx, req.Code, plan); err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Outcome: MergeUpdated, ID: current.ID, Columns: sortedKeys(plan)}, nil
}
