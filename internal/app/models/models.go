package models

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical text form of DATE columns inside column maps.
const DateLayout = "2006-01-02"

// MaxCodeLength is the width of every code column.
const MaxCodeLength = 32

// Columns is an entity rendered as column name -> text value. Dates use
// DateLayout and absent values are "".
type Columns map[string]string

// Filled counts the non-blank values.
func (c Columns) Filled() int {
	n := 0
	for _, v := range c {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Table describes the writable columns of one entity table.
type Table struct {
	Name string
	// Writable lists every column an import may set; keys and counters are excluded
	Writable []string
	Dates    map[string]bool
	Ints     map[string]bool
}

// Allows reports whether col may be written by an import.
func (t Table) Allows(col string) bool {
	for _, c := range t.Writable {
		if c == col {
			return true
		}
	}
	return false
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate reads a DateLayout value; "" yields nil.
func ParseDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseInt reads an integer column value; "" yields 0.
func ParseInt(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}
