package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/models/dto"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/textnorm"
)

// DefaultCompanyMatchThreshold is the minimum normalized similarity for a
// desired position to soft-match an accepted position.
const DefaultCompanyMatchThreshold = 0.5

// AssignmentService fills blank supervising teachers and host companies from
// the spare capacity of teachers and companies. Callers must ensure that only
// one run executes at a time.
type AssignmentService struct {
	cat       *store.Catalog
	dedup     *Deduplicator
	counts    *CountService
	quota     *QuotaPolicy
	shuffler  Shuffler
	threshold float64
	log       zerolog.Logger
}

// NewAssignmentService creates an AssignmentService. A nil shuffler uses a
// time-seeded source.
func NewAssignmentService(cat *store.Catalog, dedup *Deduplicator, counts *CountService, quota *QuotaPolicy, shuffler Shuffler, threshold float64, log zerolog.Logger) *AssignmentService {
	if shuffler == nil {
		shuffler = NewRandomShuffler()
	}
	if quota == nil {
		quota = DefaultQuotaPolicy()
	}
	if threshold <= 0 {
		threshold = DefaultCompanyMatchThreshold
	}
	return &AssignmentService{
		cat:       cat,
		dedup:     dedup,
		counts:    counts,
		quota:     quota,
		shuffler:  shuffler,
		threshold: threshold,
		log:       log.With().Str("component", "assignment").Logger(),
	}
}

// Run deduplicates students and then runs the teacher and company passes.
func (s *AssignmentService) Run(ctx context.Context) (summary *dto.AssignmentSummary, err error) {
	ctx, span := startSpan(ctx, "assignment.run")
	defer func() { endSpan(span, err) }()

	summary = &dto.AssignmentSummary{}
	collapsed, err := s.dedup.DedupAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range collapsed {
		summary.DuplicatesRemoved += len(c.RemovedIDs)
	}

	if summary.Teachers, err = s.AssignTeachers(ctx); err != nil {
		return nil, err
	}
	if summary.Companies, err = s.AssignCompanies(ctx); err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("teachers.assigned", summary.Teachers.AssignedThisRun),
		attribute.Int("companies.assigned", summary.Companies.AssignedThisRun),
	)
	return summary, nil
}

// AssignTeachers gives students without a supervising teacher one shuffled
// teacher slot each, in ascending student id order. Every assignment is
// persisted as it is made.
func (s *AssignmentService) AssignTeachers(ctx context.Context) (out *dto.TeacherAssignmentSummary, err error) {
	ctx, span := startSpan(ctx, "assignment.teachers")
	defer func() { endSpan(span, err) }()

	if _, err := s.counts.RecomputeTeacherCounts(ctx); err != nil {
		return nil, err
	}
	teachers, err := s.cat.Teachers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].Code < teachers[j].Code })

	out = &dto.TeacherAssignmentSummary{Teachers: make([]dto.TeacherBreakdown, len(teachers))}
	var tokens []int
	for i, t := range teachers {
		capacity := s.quota.Capacity(t.Role)
		out.Teachers[i] = dto.TeacherBreakdown{Code: t.Code, Name: t.Name, Role: t.Role, Capacity: capacity, Before: t.GuidedCount}
		out.TotalCapacity += capacity
		out.AlreadyAssigned += t.GuidedCount
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		for n := capacity - t.GuidedCount; n > 0; n-- {
			tokens = append(tokens, i)
		}
	}
	out.AvailableSlots = len(tokens)
	s.shuffler.Shuffle(len(tokens), func(i, j int) { tokens[i], tokens[j] = tokens[j], tokens[i] })

	students, err := s.cat.Students.ListWithoutTeacher(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students without teacher: %w", err)
	}
	out.NeedingAssignment = len(students)

	next := 0
	for _, st := range students {
		if next >= len(tokens) {
			out.LeftOverStudents = append(out.LeftOverStudents, st.Code)
			continue
		}
		idx := tokens[next]
		ok, err := s.cat.Students.AssignTeacherIfBlank(ctx, st.ID, teachers[idx].Name)
		if err != nil {
			return nil, fmt.Errorf("assign %s to %s: %w", st.Code, teachers[idx].Code, err)
		}
		if !ok {
			out.Contended++
			continue
		}
		next++
		out.AssignedThisRun++
		out.Teachers[idx].AssignedThisRun++
	}
	out.LeftOver = len(out.LeftOverStudents)

	if _, err := s.counts.RecomputeTeacherCounts(ctx); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("capacity", out.TotalCapacity).
		Int("slots", out.AvailableSlots).
		Int("needing", out.NeedingAssignment).
		Int("assigned", out.AssignedThisRun).
		Int("left_over", out.LeftOver).
		Msg("Teacher assignment finished")
	return out, nil
}

// AssignCompanies gives students without a host company one shuffled company
// slot each. A slot whose company's accepted position soft-matches the student's
// desired position is preferred over the first free slot.
func (s *AssignmentService) AssignCompanies(ctx context.Context) (out *dto.CompanyAssignmentSummary, err error) {
	ctx, span := startSpan(ctx, "assignment.companies")
	defer func() { endSpan(span, err) }()

	if _, err := s.counts.RecomputeCompanyCounts(ctx); err != nil {
		return nil, err
	}
	companies, err := s.cat.Companies.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Code < companies[j].Code })

	out = &dto.CompanyAssignmentSummary{Companies: make([]dto.CompanyBreakdown, len(companies))}
	var slots []int
	for i, c := range companies {
		out.Companies[i] = dto.CompanyBreakdown{Code: c.Code, Name: c.Name, Capacity: c.Capacity, Before: c.AssignedCount}
		out.TotalCapacity += c.Capacity
		out.AlreadyAssigned += c.AssignedCount
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		for n := c.Capacity - c.AssignedCount; n > 0; n-- {
			slots = append(slots, i)
		}
	}
	out.AvailableSlots = len(slots)
	s.shuffler.Shuffle(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	used := make([]bool, len(slots))

	students, err := s.cat.Students.ListWithoutCompany(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students without company: %w", err)
	}
	out.NeedingAssignment = len(students)

	for _, st := range students {
		slot, matched := s.pickCompanySlot(st, companies, slots, used)
		if slot < 0 {
			out.LeftOverStudents = append(out.LeftOverStudents, st.Code)
			continue
		}
		idx := slots[slot]
		ok, err := s.cat.Students.AssignCompanyIfBlank(ctx, st.ID, companies[idx].Name)
		if err != nil {
			return nil, fmt.Errorf("assign %s to %s: %w", st.Code, companies[idx].Code, err)
		}
		if !ok {
			out.Contended++
			continue
		}
		used[slot] = true
		out.AssignedThisRun++
		out.Companies[idx].AssignedThisRun++
		if matched {
			out.Companies[idx].PositionMatched++
		}
	}
	out.LeftOver = len(out.LeftOverStudents)

	if _, err := s.counts.RecomputeCompanyCounts(ctx); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("capacity", out.TotalCapacity).
		Int("slots", out.AvailableSlots).
		Int("needing", out.NeedingAssignment).
		Int("assigned", out.AssignedThisRun).
		Int("left_over", out.LeftOver).
		Msg("Company assignment finished")
	return out, nil
}

// pickCompanySlot returns the first unused slot matching the student's desired
// position, else the first unused slot, else -1.
func (s *AssignmentService) pickCompanySlot(st *models.Student, companies []*models.Company, slots []int, used []bool) (int, bool) {
	fallback := -1
	desired := textnorm.Fold(st.DesiredPosition)
	matches := make(map[int]bool)
	for i, idx := range slots {
		if used[i] {
			continue
		}
		if fallback < 0 {
			fallback = i
		}
		if desired == "" {
			break
		}
		m, seen := matches[idx]
		if !seen {
			m = PositionMatches(desired, companies[idx].AcceptedPosition, s.threshold)
			matches[idx] = m
		}
		if m {
			return i, true
		}
	}
	return fallback, false
}

// PositionMatches reports whether desired soft-matches one of the positions
// listed in accepted (separated by , ; / or newlines): either contains the
// other after folding, or their normalized Levenshtein similarity reaches threshold.
func PositionMatches(desired, accepted string, threshold float64) bool {
	d := textnorm.Fold(desired)
	if d == "" {
		return false
	}
	items := strings.FieldsFunc(accepted, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '\n'
	})
	for _, item := range items {
		a := textnorm.Fold(item)
		if a == "" {
			continue
		}
		if strings.Contains(a, d) || strings.Contains(d, a) {
			return true
		}
		if similarity(a, d) >= threshold {
			return true
		}
	}
	return false
}

func similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
