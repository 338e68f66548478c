// Package memstore is an in-memory catalog with transactional rollback, used by
// service tests in place of Postgres.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yigit/internhub/internal/app/models"
	"github.com/yigit/internhub/internal/app/store"
	"github.com/yigit/internhub/internal/pkg/apperrors"
)

type state struct {
	students  map[int64]*models.Student
	teachers  map[string]*models.Teacher
	companies map[string]*models.Company
	guidance  map[string][]*models.GuidanceAssignment
	nextID    int64
}

func newState() *state {
	return &state{
		students:  make(map[int64]*models.Student),
		teachers:  make(map[string]*models.Teacher),
		companies: make(map[string]*models.Company),
		guidance:  make(map[string][]*models.GuidanceAssignment),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for id, v := range s.students {
		cp := *v
		c.students[id] = &cp
	}
	for code, v := range s.teachers {
		cp := *v
		c.teachers[code] = &cp
	}
	for code, v := range s.companies {
		cp := *v
		c.companies[code] = &cp
	}
	for code, rows := range s.guidance {
		out := make([]*models.GuidanceAssignment, len(rows))
		for i, r := range rows {
			cp := *r
			out[i] = &cp
		}
		c.guidance[code] = out
	}
	return c
}

// Store is a process-local catalog. Transactions are serialized globally.
type Store struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	st          *state
	tick        int64
	failReplace map[string]error
	txKeys      [][]string
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), failReplace: make(map[string]error)}
}

// Catalog returns stores bound to this in-memory catalog.
func (m *Store) Catalog() *store.Catalog {
	return &store.Catalog{
		Students:  studentStore{m},
		Teachers:  teacherStore{m},
		Companies: companyStore{m},
		Guidance:  guidanceStore{m},
	}
}

// FailReplace makes the next guidance swaps for teacherCode fail with err.
func (m *Store) FailReplace(teacherCode string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failReplace[teacherCode] = err
}

// TxKeys lists the lock keys of every parent transaction started so far.
func (m *Store) TxKeys() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.txKeys))
	for i, keys := range m.txKeys {
		out[i] = append([]string(nil), keys...)
	}
	return out
}

// InParentTx implements store.TxManager. On error the catalog is restored to
// its state before fn ran.
func (m *Store) InParentTx(ctx context.Context, keys []string, fn store.TxFunc) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.txKeys = append(m.txKeys, append([]string(nil), keys...))
	m.mu.Unlock()

	if err := fn(ctx, m.Catalog()); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Store) now() time.Time {
	m.tick++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.tick) * time.Second)
}

// SeedStudent inserts a student as-is, keeping its UpdatedAt when set.
func (m *Store) SeedStudent(s models.Student) *models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.nextID++
	s.ID = m.st.nextID
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = m.now()
	}
	s.IsReady = s.Ready()
	m.st.students[s.ID] = &s
	cp := s
	return &cp
}

// SeedTeacher inserts a teacher.
func (m *Store) SeedTeacher(t models.Teacher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.teachers[t.Code] = &t
}

// SeedCompany inserts a company.
func (m *Store) SeedCompany(c models.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.companies[c.Code] = &c
}

// Students returns copies of every student ordered by id.
func (m *Store) Students() []models.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Student, 0, len(m.st.students))
	for _, s := range m.st.students {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StudentsByCode returns copies of the students sharing code.
func (m *Store) StudentsByCode(code string) []models.Student {
	var out []models.Student
	for _, s := range m.Students() {
		if s.Code == code {
			out = append(out, s)
		}
	}
	return out
}

// Teacher returns a copy of the teacher or nil.
func (m *Store) Teacher(code string) *models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.teachers[code]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// Teachers returns copies of every teacher ordered by code.
func (m *Store) Teachers() []models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Teacher, 0, len(m.st.teachers))
	for _, t := range m.st.teachers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Company returns a copy of the company or nil.
func (m *Store) Company(code string) *models.Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.st.companies[code]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// GuidanceCodes returns the student codes in teacherCode's guidance list, sorted.
func (m *Store) GuidanceCodes(teacherCode string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.st.guidance[teacherCode] {
		out = append(out, r.StudentCode)
	}
	sort.Strings(out)
	return out
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

type studentStore struct{ m *Store }

func (s studentStore) FindByCode(_ context.Context, code string) ([]*models.Student, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*models.Student
	for _, st := range s.m.st.students {
		if st.Code == code {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s studentStore) Insert(_ context.Context, st *models.Student) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.st.nextID++
	st.ID = s.m.st.nextID
	st.CreatedAt = s.m.now()
	st.UpdatedAt = st.CreatedAt
	st.IsReady = st.Ready()
	cp := *st
	s.m.st.students[st.ID] = &cp
	return nil
}

func (s studentStore) UpdateColumns(_ context.Context, id int64, cols models.Columns) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st, ok := s.m.st.students[id]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	for col := range cols {
		if !models.StudentTable.Allows(col) {
			return fmt.Errorf("column %q is not writable", col)
		}
	}
	if err := st.Apply(cols); err != nil {
		return err
	}
	st.UpdatedAt = s.m.now()
	return nil
}

func (s studentStore) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := s.m.st.students[id]; ok {
			delete(s.m.st.students, id)
			n++
		}
	}
	return n, nil
}

func (s studentStore) DuplicateCodes(_ context.Context) ([]string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	counts := make(map[string]int)
	for _, st := range s.m.st.students {
		counts[st.Code]++
	}
	var out []string
	for code, n := range counts {
		if n > 1 {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s studentStore) listWhere(pred func(*models.Student) bool) []*models.Student {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []*models.Student
	for _, st := range s.m.st.students {
		if pred(st) {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s studentStore) ListWithoutTeacher(_ context.Context) ([]*models.Student, error) {
	return s.listWhere(func(st *models.Student) bool { return blank(st.SupervisingTeacher) }), nil
}

func (s studentStore) ListWithoutCompany(_ context.Context) ([]*models.Student, error) {
	return s.listWhere(func(st *models.Student) bool { return blank(st.HostCompany) }), nil
}

func (s studentStore) assignIfBlank(id int64, col, value string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	st, ok := s.m.st.students[id]
	if !ok {
		return false, apperrors.ErrStudentNotFound
	}
	if !blank(st.Columns()[col]) {
		return false, nil
	}
	if err := st.Apply(models.Columns{col: value}); err != nil {
		return false, err
	}
	st.UpdatedAt = s.m.now()
	return true, nil
}

func (s studentStore) AssignTeacherIfBlank(_ context.Context, id int64, teacherName string) (bool, error) {
	return s.assignIfBlank(id, models.ColSupervisingTeacher, teacherName)
}

func (s studentStore) AssignCompanyIfBlank(_ context.Context, id int64, companyName string) (bool, error) {
	return s.assignIfBlank(id, models.ColHostCompany, companyName)
}

func (s studentStore) ReleaseTeacher(_ context.Context, codes []string, names []string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	inCodes := make(map[string]bool, len(codes))
	for _, c := range codes {
		inCodes[c] = true
	}
	inNames := make(map[string]bool, len(names))
	for _, n := range names {
		inNames[n] = true
	}
	var n int64
	for _, st := range s.m.st.students {
		if inCodes[st.Code] && inNames[st.SupervisingTeacher] {
			st.SupervisingTeacher = ""
			st.IsReady = st.Ready()
			st.UpdatedAt = s.m.now()
			n++
		}
	}
	return n, nil
}

func (s studentStore) RefreshReadiness(_ context.Context) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var n int64
	for _, st := range s.m.st.students {
		if ready := st.Ready(); ready != st.IsReady {
			st.IsReady = ready
			n++
		}
	}
	return n, nil
}

type teacherStore struct{ m *Store }

func (s teacherStore) FindByCode(_ context.Context, code string) (*models.Teacher, error) {
	if t := s.m.Teacher(code); t != nil {
		return t, nil
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (s teacherStore) ListAll(_ context.Context) ([]*models.Teacher, error) {
	all := s.m.Teachers()
	out := make([]*models.Teacher, len(all))
	for i := range all {
		out[i] = &all[i]
	}
	return out, nil
}

func (s teacherStore) Insert(_ context.Context, t *models.Teacher) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.st.teachers[t.Code]; ok {
		return apperrors.ErrCodeExists
	}
	s.m.st.nextID++
	t.ID = s.m.st.nextID
	t.CreatedAt = s.m.now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.m.st.teachers[t.Code] = &cp
	return nil
}

func (s teacherStore) UpdateColumns(_ context.Context, code string, cols models.Columns) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.st.teachers[code]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	for col := range cols {
		if !models.TeacherTable.Allows(col) {
			return fmt.Errorf("column %q is not writable", col)
		}
	}
	t.UpdatedAt = s.m.now()
	return t.Apply(cols)
}

func (s teacherStore) SetGuidedCount(_ context.Context, code string, n int) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	t, ok := s.m.st.teachers[code]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	t.GuidedCount = n
	return nil
}

func (s teacherStore) RecomputeGuidedCounts(_ context.Context) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var changed int64
	for _, t := range s.m.st.teachers {
		n := 0
		for _, st := range s.m.st.students {
			if st.SupervisingTeacher == t.Name {
				n++
			}
		}
		if t.GuidedCount != n {
			t.GuidedCount = n
			changed++
		}
	}
	return changed, nil
}

type companyStore struct{ m *Store }

func (s companyStore) FindByCode(_ context.Context, code string) (*models.Company, error) {
	if c := s.m.Company(code); c != nil {
		return c, nil
	}
	return nil, apperrors.ErrCompanyNotFound
}

func (s companyStore) ListAll(_ context.Context) ([]*models.Company, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	out := make([]*models.Company, 0, len(s.m.st.companies))
	for _, c := range s.m.st.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s companyStore) Insert(_ context.Context, c *models.Company) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.st.companies[c.Code]; ok {
		return apperrors.ErrCodeExists
	}
	s.m.st.nextID++
	c.ID = s.m.st.nextID
	c.CreatedAt = s.m.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.m.st.companies[c.Code] = &cp
	return nil
}

func (s companyStore) UpdateColumns(_ context.Context, code string, cols models.Columns) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	c, ok := s.m.st.companies[code]
	if !ok {
		return apperrors.ErrCompanyNotFound
	}
	for col := range cols {
		if !models.CompanyTable.Allows(col) {
			return fmt.Errorf("column %q is not writable", col)
		}
	}
	c.UpdatedAt = s.m.now()
	return c.Apply(cols)
}

func (s companyStore) RecomputeAssignedCounts(_ context.Context) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var changed int64
	for _, c := range s.m.st.companies {
		n := 0
		for _, st := range s.m.st.students {
			if st.HostCompany == c.Name {
				n++
			}
		}
		if c.AssignedCount != n {
			c.AssignedCount = n
			changed++
		}
	}
	return changed, nil
}

type guidanceStore struct{ m *Store }

func (s guidanceStore) ListByTeacher(_ context.Context, teacherCode string) ([]*models.GuidanceAssignment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	rows := s.m.st.guidance[teacherCode]
	out := make([]*models.GuidanceAssignment, len(rows))
	for i, r := range rows {
		cp := *r
		out[i] = &cp
	}
	return out, nil
}

func (s guidanceStore) ReplaceForTeacher(_ context.Context, batchID uuid.UUID, teacherCode string, rows []*models.GuidanceAssignment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err, ok := s.m.failReplace[teacherCode]; ok {
		return err
	}
	if _, ok := s.m.st.teachers[teacherCode]; !ok {
		return apperrors.ErrTeacherNotFound
	}
	out := make([]*models.GuidanceAssignment, len(rows))
	for i, r := range rows {
		cp := *r
		s.m.st.nextID++
		cp.ID = s.m.st.nextID
		cp.TeacherCode = teacherCode
		cp.ImportBatchID = batchID
		cp.CreatedAt = s.m.now()
		out[i] = &cp
	}
	s.m.st.guidance[teacherCode] = out
	return nil
}
