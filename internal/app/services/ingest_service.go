package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/models/dto"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/sheet"
)

// ImportOptions selects what an import reads and how it writes.
type ImportOptions struct {
	Kind sheet.ImportKind
	// SheetName picks a sheet; empty means the first sheet whose header resolves
	SheetName string
	// MergeMode overrides the configured default; guidance imports always
	// overwrite the teacher and fill the rest
	MergeMode  MergeMode
	BatchID    uuid.UUID
	AutoAssign bool
}

// IngestConfig holds the import settings from configuration.
type IngestConfig struct {
	HeaderScanRows   int
	PhoneRegion      string
	DefaultMergeMode MergeMode
	Resolver         ResolverConfig
}

// IngestService defines the interface for spreadsheet imports
type IngestService interface {
	// Import reads one sheet of wb and applies it to the catalog. Only an
	// unreadable workbook, unresolvable headers or an unavailable store return
	// an error; row, reference and group problems are listed in the result.
	Import(ctx context.Context, wb *sheet.Workbook, opts ImportOptions) (*dto.ImportResult, error)
}

type ingestService struct {
	cat        *store.Catalog
	tx         store.TxManager
	headers    *sheet.HeaderResolver
	merger     *MergeUpdater
	reconciler *GuidanceReconciler
	counts     *CountService
	assigner   *AssignmentService
	cfg        IngestConfig
	log        zerolog.Logger
}

// NewIngestService creates a new ingest service. assigner may be nil when
// auto-assignment is never requested.
func NewIngestService(cat *store.Catalog, tx store.TxManager, merger *MergeUpdater, reconciler *GuidanceReconciler, counts *CountService, assigner *AssignmentService, cfg IngestConfig, log zerolog.Logger) IngestService {
	if cfg.PhoneRegion == "" {
		cfg.PhoneRegion = sheet.DefaultPhoneRegion
	}
	if cfg.DefaultMergeMode == "" {
		cfg.DefaultMergeMode = ModeFillEmpty
	}
	return &ingestService{
		cat:        cat,
		tx:         tx,
		headers:    sheet.NewHeaderResolver(cfg.HeaderScanRows),
		merger:     merger,
		reconciler: reconciler,
		counts:     counts,
		assigner:   assigner,
		cfg:        cfg,
		log:        log.With().Str("component", "ingest").Logger(),
	}
}

func (s *ingestService) Import(ctx context.Context, wb *sheet.Workbook, opts ImportOptions) (result *dto.ImportResult, err error) {
	if opts.BatchID == uuid.Nil {
		opts.BatchID = uuid.New()
	}
	if opts.MergeMode == "" {
		opts.MergeMode = s.cfg.DefaultMergeMode
	}
	ctx, span := startSpan(ctx, "ingest.import",
		attribute.String("import.kind", string(opts.Kind)),
		attribute.String("import.batch", opts.BatchID.String()),
	)
	defer func() { endSpan(span, err) }()

	if opts.Kind.RequiredFields() == nil {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, opts.Kind)
	}
	sh, headerIdx, header, err := s.locate(wb, opts)
	if err != nil {
		return nil, err
	}

	result = &dto.ImportResult{
		BatchID:   opts.BatchID,
		Kind:      string(opts.Kind),
		Sheet:     sh.Name,
		HeaderRow: headerIdx + 1,
		Errors:    []dto.RowIssue{},
	}
	log := s.log.With().Str("batch", opts.BatchID.String()).Str("kind", string(opts.Kind)).Logger()
	log.Info().Str("sheet", sh.Name).Int("header_row", result.HeaderRow).Msg("Import started")

	records, rowErrs := sheet.NewExtractor(opts.Kind, header, s.cfg.PhoneRegion).ExtractAll(sh, headerIdx)
	result.DataRows = len(records) + len(rowErrs)
	skipped := counterFor(result, opts.Kind)
	for _, re := range rowErrs {
		result.AddIssue(re.Row, "", apperrors.CodeRowInvalid, re.Error())
		skipped.Skipped++
	}

	valid := records[:0]
	for _, rec := range records {
		if err := dto.ValidateRecord(opts.Kind, rec); err != nil {
			result.AddIssue(rec.Row, "", apperrors.CodeRowInvalid, fmt.Sprintf("row %d: %v", rec.Row, err))
			skipped.Skipped++
			continue
		}
		valid = append(valid, rec)
	}

	switch opts.Kind {
	case sheet.KindStudentRoster, sheet.KindRegistrationForm:
		err = s.importStudents(ctx, valid, opts, result)
	case sheet.KindTeacherRoster:
		err = s.importTeachers(ctx, valid, opts, result)
	case sheet.KindCompanyRoster:
		err = s.importCompanies(ctx, valid, opts, result)
	case sheet.KindGuidanceMapping:
		err = s.importGuidance(ctx, valid, opts, result)
	}
	if err != nil {
		return result, err
	}

	if _, err = s.counts.RecomputeTeacherCounts(ctx); err != nil {
		return result, err
	}
	if _, err = s.counts.RecomputeCompanyCounts(ctx); err != nil {
		return result, err
	}

	if opts.AutoAssign && s.assigner != nil {
		if result.Assignment, err = s.assigner.Run(ctx); err != nil {
			return result, err
		}
	}

	log.Info().
		Int("rows", result.DataRows).
		Interface("students", result.Students).
		Interface("teachers", result.Teachers).
		Interface("companies", result.Companies).
		Int("errors", len(result.Errors)).
		Msg("Import finished")
	return result, nil
}

// locate finds the sheet and its header row.
func (s *ingestService) locate(wb *sheet.Workbook, opts ImportOptions) (*sheet.Sheet, int, sheet.HeaderMap, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, 0, nil, apperrors.ErrEmptyWorkbook
	}
	if opts.SheetName != "" {
		sh, err := wb.Sheet(opts.SheetName)
		if err != nil {
			return nil, 0, nil, err
		}
		idx, header, err := s.headers.Locate(opts.Kind, sh)
		return sh, idx, header, err
	}
	var firstErr error
	for _, sh := range wb.Sheets {
		idx, header, err := s.headers.Locate(opts.Kind, sh)
		if err == nil {
			return sh, idx, header, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, 0, nil, firstErr
}

func counterFor(r *dto.ImportResult, kind sheet.ImportKind) *dto.EntityCounts {
	switch kind {
	case sheet.KindTeacherRoster:
		return &r.Teachers
	case sheet.KindCompanyRoster:
		return &r.Companies
	}
	return &r.Students
}

var studentColumns = map[sheet.Field]string{
	sheet.FieldFullName:               models.ColFullName,
	sheet.FieldDateOfBirth:            models.ColDateOfBirth,
	sheet.FieldClassName:              models.ColClassName,
	sheet.FieldEmail:                  models.ColEmail,
	sheet.FieldPersonalEmail:          models.ColPersonalEmail,
	sheet.FieldPhone:                  models.ColPhone,
	sheet.FieldDesiredPosition:        models.ColDesiredPosition,
	sheet.FieldHostCompanyName:        models.ColHostCompany,
	sheet.FieldSupervisingTeacherName: models.ColSupervisingTeacher,
	sheet.FieldPreference:             models.ColPreference,
	sheet.FieldDocumentURL:            models.ColDocumentURL,
	sheet.FieldInternshipStart:        models.ColInternshipStart,
	sheet.FieldInternshipEnd:          models.ColInternshipEnd,
	sheet.FieldNote:                   models.ColNote,
}

var teacherColumns = map[sheet.Field]string{
	sheet.FieldFullName:   models.ColTeacherName,
	sheet.FieldRole:       models.ColRole,
	sheet.FieldDepartment: models.ColDepartment,
	sheet.FieldEmail:      models.ColTeacherEmail,
	sheet.FieldPhone:      models.ColTeacherPhone,
}

var companyColumns = map[sheet.Field]string{
	sheet.FieldCompanyName:      models.ColCompanyName,
	sheet.FieldAddress:          models.ColAddress,
	sheet.FieldAcceptedPosition: models.ColAcceptedPosition,
	sheet.FieldCapacity:         models.ColCapacity,
	sheet.FieldEmail:            models.ColContactEmail,
	sheet.FieldPhone:            models.ColCompanyPhone,
}

func recordColumns(rec sheet.Record, mapping map[sheet.Field]string) models.Columns {
	cols := make(models.Columns, len(rec.Values))
	for f, v := range rec.Values {
		if col, ok := mapping[f]; ok && v != "" {
			cols[col] = v
		}
	}
	return cols
}

// tally records a merge outcome. A failed row is reported and skipped.
func tally(counts *dto.EntityCounts, result *dto.ImportResult, rec sheet.Record, ref string, res MergeResult, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNoFieldsToUpdate):
		counts.Unchanged++
	case err != nil:
		counts.Skipped++
		code := apperrors.CodeOf(err)
		if code == "" {
			code = apperrors.CodeRowInvalid
		}
		result.AddIssue(rec.Row, ref, code, fmt.Sprintf("row %d: %v", rec.Row, err))
	case res.Outcome == MergeCreated:
		counts.Created++
	default:
		counts.Updated++
	}
}

func (s *ingestService) importStudents(ctx context.Context, records []sheet.Record, opts ImportOptions, result *dto.ImportResult) error {
	for _, rec := range records {
		code := rec.Get(sheet.FieldStudentCode)
		req := MergeRequest{Code: code, Values: recordColumns(rec, studentColumns), Mode: opts.MergeMode}
		var res MergeResult
		err := s.tx.InParentTx(ctx, []string{studentLockKey(code)}, func(ctx context.Context, cat *store.Catalog) error {
			var err error
			res, err = s.merger.MergeStudent(ctx, cat, req)
			if errors.Is(err, apperrors.ErrNoFieldsToUpdate) {
				// keep any duplicate collapse done before the no-op merge
				return nil
			}
			return err
		})
		if err == nil && res.Outcome == MergeUnchanged {
			err = apperrors.ErrNoFieldsToUpdate
		}
		tally(&result.Students, result, rec, code, res, err)
	}
	return nil
}

func (s *ingestService) importTeachers(ctx context.Context, records []sheet.Record, opts ImportOptions, result *dto.ImportResult) error {
	for _, rec := range records {
		code := rec.Get(sheet.FieldTeacherCode)
		req := MergeRequest{Code: code, Values: recordColumns(rec, teacherColumns), Mode: opts.MergeMode}
		var res MergeResult
		err := s.tx.InParentTx(ctx, []string{"teacher:" + code}, func(ctx context.Context, cat *store.Catalog) error {
			var err error
			res, err = s.merger.MergeTeacher(ctx, cat, req)
			return err
		})
		tally(&result.Teachers, result, rec, code, res, err)
	}
	return nil
}

func (s *ingestService) importCompanies(ctx context.Context, records []sheet.Record, opts ImportOptions, result *dto.ImportResult) error {
	for _, rec := range records {
		code := rec.Get(sheet.FieldCompanyCode)
		req := MergeRequest{Code: code, Values: recordColumns(rec, companyColumns), Mode: opts.MergeMode}
		var res MergeResult
		err := s.tx.InParentTx(ctx, []string{"company:" + code}, func(ctx context.Context, cat *store.Catalog) error {
			var err error
			res, err = s.merger.MergeCompany(ctx, cat, req)
			return err
		})
		tally(&result.Companies, result, rec, code, res, err)
	}
	return nil
}

// importGuidance resolves every teacher reference, groups rows by teacher and
// hands the groups to the reconciler.
func (s *ingestService) importGuidance(ctx context.Context, records []sheet.Record, opts ImportOptions, result *dto.ImportResult) error {
	resolver := NewTeacherResolver(s.cat, s.cfg.Resolver, s.log)

	var (
		order  []string
		groups = make(map[string]*GuidanceGroup)
		pos    = make(map[string]map[string]int) // teacher -> student -> entry index
		owner  = make(map[string]string)         // student -> teacher
	)
	for _, rec := range records {
		teacherText := rec.Get(sheet.FieldSupervisingTeacherName)
		res, err := resolver.ResolveRef(ctx, teacherText, rec.Get(sheet.FieldTeacherCode))
		if err != nil {
			if !isReferenceError(err) {
				return err
			}
			result.AddIssue(rec.Row, teacherText, apperrors.CodeOf(err), fmt.Sprintf("row %d: %v", rec.Row, err))
			result.Students.Skipped++
			continue
		}
		t := res.Teacher
		if res.Created {
			result.Teachers.Created++
			result.CreatedTeachers = append(result.CreatedTeachers, t.Code)
		}

		studentCode := rec.Get(sheet.FieldStudentCode)
		if prev, ok := owner[studentCode]; ok && prev != t.Code {
			result.AddIssue(rec.Row, studentCode, apperrors.CodeDuplicateRow,
				fmt.Sprintf("row %d: student %s is already listed under teacher %s", rec.Row, studentCode, prev))
			result.Students.Skipped++
			continue
		}
		owner[studentCode] = t.Code

		g, ok := groups[t.Code]
		if !ok {
			g = &GuidanceGroup{Teacher: t}
			groups[t.Code] = g
			pos[t.Code] = make(map[string]int)
			order = append(order, t.Code)
		}
		entry := GuidanceEntry{
			Row:         rec.Row,
			StudentCode: studentCode,
			StudentName: rec.Get(sheet.FieldFullName),
			ClassName:   rec.Get(sheet.FieldClassName),
			Topic:       rec.Get(sheet.FieldTopic),
			Note:        rec.Get(sheet.FieldNote),
			TeacherText: teacherText,
		}
		if i, dup := pos[t.Code][studentCode]; dup {
			result.AddIssue(g.Entries[i].Row, studentCode, apperrors.CodeDuplicateRow,
				fmt.Sprintf("row %d: superseded by row %d for student %s", g.Entries[i].Row, rec.Row, studentCode))
			result.Students.Skipped++
			g.Entries[i] = entry
			continue
		}
		pos[t.Code][studentCode] = len(g.Entries)
		g.Entries = append(g.Entries, entry)
	}

	ordered := make([]GuidanceGroup, 0, len(order))
	for _, code := range order {
		ordered = append(ordered, *groups[code])
	}
	outcome := s.reconciler.Reconcile(ctx, opts.BatchID, ordered)

	result.AcceptedByTeacher = make(map[string]int, len(outcome.Groups))
	for i, g := range outcome.Groups {
		if g.Err != nil {
			result.FailedGroups = append(result.FailedGroups, g.TeacherCode)
			result.AddIssue(0, g.TeacherCode, apperrors.CodeGroupFailed, g.Err.Error())
			result.Students.Skipped += len(ordered[i].Entries)
			continue
		}
		result.AcceptedByTeacher[g.TeacherCode] = g.Accepted
		result.Students.Add(g.Students)
	}
	return nil
}
