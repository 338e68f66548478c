package sheet

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

var textDateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// NormalizeDate converts a cell value into a calendar date. Day-first text is
// assumed for slash, dash and dot separated dates. The second result is false
// when the value is not a date.
func NormalizeDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return truncateDay(t), true
	case float64:
		return serialToDate(t)
	case string:
		return parseDateText(t)
	}
	return time.Time{}, false
}

// FormatDate renders a date in the canonical YYYY-MM-DD form.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func serialToDate(f float64) (time.Time, bool) {
	if f < 1 || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return truncateDay(t), true
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	// serial numbers stored as text
	if n, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "eE") {
		return serialToDate(n)
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
