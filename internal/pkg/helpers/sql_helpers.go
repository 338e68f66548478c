package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateLayout is the text form DATE values travel in between sheet and store.
const DateLayout = "2006-01-02"

// GetNullDate converts a YYYY-MM-DD string to pgtype.Date.
// An empty string yields an invalid (NULL) date.
func GetNullDate(s string) (pgtype.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// DatePtr converts a scanned pgtype.Date to *time.Time, nil when NULL.
func DatePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time // copy, the caller may reuse d
	return &t
}
