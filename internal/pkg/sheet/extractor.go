package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"github.com/yigit/internhub/internal/pkg/apperrors"
	"github.com/yigit/internhub/internal/pkg/textnorm"
)

// DefaultPhoneRegion is used when no region is configured.
const DefaultPhoneRegion = "VN"

// Record is one extracted data row. Absent fields have no key in Values.
type Record struct {
	// Row is the 1-based row number in the sheet
	Row    int
	Values map[Field]string
}

// Get returns the value of f or "".
func (r Record) Get(f Field) string {
	return r.Values[f]
}

// Date returns a date field parsed back from its canonical form.
func (r Record) Date(f Field) (time.Time, bool) {
	v, ok := r.Values[f]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, v)
	return t, err == nil
}

// Int returns an integer field.
func (r Record) Int(f Field) (int, bool) {
	v, ok := r.Values[f]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// RowError reports a data row that could not be used. It never aborts an import.
type RowError struct {
	Row     int
	Field   Field
	Message string
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field.Label(), e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

func (e *RowError) Unwrap() error {
	return apperrors.ErrRowInvalid
}

// Extractor coerces rows below a resolved header into records.
type Extractor struct {
	kind   ImportKind
	header HeaderMap
	// fields in column order, so the first failing cell of a row is reported
	fields []Field
	region string
}

// NewExtractor creates an extractor for rows laid out by header.
func NewExtractor(kind ImportKind, header HeaderMap, phoneRegion string) *Extractor {
	if phoneRegion == "" {
		phoneRegion = DefaultPhoneRegion
	}
	return &Extractor{kind: kind, header: header, fields: header.Fields(), region: strings.ToUpper(phoneRegion)}
}

// Extract converts one row. A row where no mapped column carries a value is
// blank and yields (nil, nil).
func (e *Extractor) Extract(rowNum int, row Row) (*Record, error) {
	rec := &Record{Row: rowNum, Values: make(map[Field]string, len(e.header))}

	for _, field := range e.fields {
		cell := row.At(e.header[field])
		if cell.IsBlank() {
			continue
		}
		v, err := e.coerce(field, cell)
		if err != nil {
			return nil, &RowError{Row: rowNum, Field: field, Message: err.Error()}
		}
		if v != "" {
			rec.Values[field] = v
		}
	}

	if len(rec.Values) == 0 && !e.hasInvalidOnly(row) {
		return nil, nil
	}

	var missing []string
	for _, f := range e.kind.RequiredFields() {
		if rec.Values[f] == "" {
			missing = append(missing, f.Label())
		}
	}
	if len(missing) > 0 {
		return nil, &RowError{Row: rowNum, Message: "missing " + strings.Join(missing, ", ")}
	}
	return rec, nil
}

// hasInvalidOnly reports a row whose mapped cells are non-blank yet produced no
// values, such as dates that could not be parsed.
func (e *Extractor) hasInvalidOnly(row Row) bool {
	for _, col := range e.header {
		if !row.At(col).IsBlank() {
			return true
		}
	}
	return false
}

// ExtractAll extracts every row below headerIdx.
func (e *Extractor) ExtractAll(s *Sheet, headerIdx int) ([]Record, []*RowError) {
	var (
		records []Record
		errs    []*RowError
	)
	for i := headerIdx + 1; i < len(s.Rows); i++ {
		rec, err := e.Extract(i+1, s.Rows[i])
		if err != nil {
			if rowErr, ok := err.(*RowError); ok {
				errs = append(errs, rowErr)
			}
			continue
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, errs
}

func (e *Extractor) coerce(field Field, cell Cell) (string, error) {
	switch {
	case field.IsDate():
		t, ok := NormalizeDate(cell.Value)
		if !ok {
			return "", nil
		}
		return FormatDate(t), nil
	case field.IsCode():
		return NormalizeCode(cell.String()), nil
	case field == FieldCapacity:
		return parseCapacity(cell)
	case field == FieldPhone:
		return NormalizePhone(cell.String(), e.region), nil
	case field == FieldEmail || field == FieldPersonalEmail:
		return strings.ToLower(textnorm.Clean(cell.String())), nil
	}
	return textnorm.Clean(cell.String()), nil
}

// NormalizeCode uppercases a natural key and strips every space.
func NormalizeCode(s string) string {
	s = textnorm.Clean(s)
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// NormalizePhone returns the E.164 form of s when it parses as a valid number
// for region, and the cleaned text otherwise.
func NormalizePhone(s, region string) string {
	s = textnorm.Clean(s)
	if s == "" {
		return ""
	}
	num, err := libphonenumber.Parse(s, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return s
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func parseCapacity(cell Cell) (string, error) {
	switch v := cell.Value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return "", fmt.Errorf("capacity %v is not a whole number", v)
		}
		return strconv.Itoa(int(v)), nil
	}
	s := textnorm.Clean(cell.String())
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", fmt.Errorf("capacity %q is not a whole number", s)
	}
	return strconv.Itoa(n), nil
}
