package sheet

import (
	"sort"

	"github.com/yigit/internhub/internal/pkg/apperrors"
)

// DefaultHeaderScanRows is how many leading rows are inspected for the header.
const DefaultHeaderScanRows = 10

// HeaderMap maps canonical fields to 0-based column positions.
type HeaderMap map[Field]int

// Has reports whether the field resolved.
func (m HeaderMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Fields returns the resolved fields ordered by column.
func (m HeaderMap) Fields() []Field {
	fields := make([]Field, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return m[fields[i]] < m[fields[j]] })
	return fields
}

// Missing returns the fields from want that did not resolve, in want's order.
func (m HeaderMap) Missing(want []Field) []Field {
	var missing []Field
	for _, f := range want {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// HeaderResolver classifies free-text header cells into canonical fields.
type HeaderResolver struct {
	rules    []headerRule
	scanRows int
}

// NewHeaderResolver creates a resolver scanning up to scanRows rows for the header.
func NewHeaderResolver(scanRows int) *HeaderResolver {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	return &HeaderResolver{
		rules:    defaultRules(),
		scanRows: scanRows,
	}
}

// Classify returns the field a single header cell maps to for the kind.
func (r *HeaderResolver) Classify(kind ImportKind, raw string) (Field, bool) {
	h := newHeaderText(raw)
	if h == "" {
		return "", false
	}
	for _, rule := range r.rules {
		if rule.appliesTo(kind) && rule.Match(h) {
			if rule.Ignore {
				return "", false
			}
			return rule.Field, true
		}
	}
	return "", false
}

// Resolve maps one header row. When a field matches several columns the
// leftmost column wins. Every required field of kind must resolve, otherwise a
// *apperrors.MissingHeadersError is returned and no mapping is usable.
func (r *HeaderResolver) Resolve(kind ImportKind, header []string) (HeaderMap, error) {
	m := r.classifyRow(kind, header)
	if missing := m.Missing(kind.RequiredFields()); len(missing) > 0 {
		return nil, missingHeaders(kind, missing, 1)
	}
	return m, nil
}

// Locate finds the header row within the first scanRows rows of the sheet and
// returns its 0-based index together with the resolved mapping.
func (r *HeaderResolver) Locate(kind ImportKind, s *Sheet) (int, HeaderMap, error) {
	required := kind.RequiredFields()

	bestIdx := -1
	var bestMissing []Field
	for i := 0; i < len(s.Rows) && i < r.scanRows; i++ {
		m := r.classifyRow(kind, s.Rows[i].Strings())
		missing := m.Missing(required)
		if len(missing) == 0 {
			return i, m, nil
		}
		if len(m) == 0 {
			continue
		}
		if bestIdx < 0 || len(missing) < len(bestMissing) {
			bestIdx = i
			bestMissing = missing
		}
	}

	if bestIdx < 0 {
		return -1, nil, missingHeaders(kind, required, 0)
	}
	return -1, nil, missingHeaders(kind, bestMissing, bestIdx+1)
}

func (r *HeaderResolver) classifyRow(kind ImportKind, header []string) HeaderMap {
	m := make(HeaderMap)
	for col, raw := range header {
		f, ok := r.Classify(kind, raw)
		if !ok || m.Has(f) {
			continue
		}
		m[f] = col
	}
	return m
}

func missingHeaders(kind ImportKind, missing []Field, row int) error {
	names := make([]string, 0, len(missing))
	for _, f := range missing {
		names = append(names, f.Label())
	}
	return &apperrors.MissingHeadersError{
		Kind:      string(kind),
		Missing:   names,
		HeaderRow: row,
	}
}
