package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yigit/internhub/internal/pkg/apperrors"
)

// Cell holds one decoded value: nil, string, float64, bool or time.Time.
type Cell struct {
	Value any
}

// IsBlank reports whether the cell carries no visible content.
func (c Cell) IsBlank() bool {
	switch v := c.Value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// String renders the cell the way a spreadsheet would display it unformatted.
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return v.Format(dateLayout)
	}
	return fmt.Sprint(c.Value)
}

// Row is a sequence of cells; trailing empty cells may be absent.
type Row []Cell

// Strings renders every cell of the row.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// At returns the cell at col or an empty cell when the row is shorter.
func (r Row) At(col int) Cell {
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// Sheet is a named table of rows.
type Sheet struct {
	Name string
	Rows []Row
}

// Workbook is the decoded form of an uploaded spreadsheet.
type Workbook struct {
	Sheets []*Sheet
}

// Sheet returns the sheet with the given name, matched case-insensitively.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	for _, s := range w.Sheets {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrSheetNotFound, name)
}

// FromStrings builds a sheet of string cells, mostly for callers that already
// hold tabular text.
func FromStrings(name string, rows [][]string) *Sheet {
	s := &Sheet{Name: name, Rows: make([]Row, len(rows))}
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, v := range raw {
			if v != "" {
				row[j] = Cell{Value: v}
			}
		}
		s.Rows[i] = row
	}
	return s
}

// DecodeWorkbook reads an xlsx stream into typed cells. Formula cells resolve to
// their cached value, or are calculated when the file carries none.
func DecodeWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		s, err := decodeSheet(f, name)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	if len(wb.Sheets) == 0 {
		return nil, apperrors.ErrEmptyWorkbook
	}
	return wb, nil
}

func decodeSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	s := &Sheet{Name: name, Rows: make([]Row, len(raw))}
	for i, values := range raw {
		row := make(Row, len(values))
		for j, v := range values {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			row[j] = decodeCell(f, name, axis, v)
		}
		s.Rows[i] = row
	}
	return s, nil
}

func decodeCell(f *excelize.File, sheet, axis, raw string) Cell {
	if raw == "" {
		if formula, _ := f.GetCellFormula(sheet, axis); formula != "" {
			if calc, err := f.CalcCellValue(sheet, axis, excelize.Options{RawCellValue: true}); err == nil {
				raw = calc
			}
		}
		if raw == "" {
			return Cell{}
		}
	}

	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return Cell{Value: raw}
	}

	switch typ {
	case excelize.CellTypeBool:
		return Cell{Value: raw == "1" || strings.EqualFold(raw, "true")}
	case excelize.CellTypeError:
		return Cell{}
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Cell{Value: t}
		}
		return Cell{Value: raw}
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Cell{Value: n}
		}
	}
	return Cell{Value: raw}
}
