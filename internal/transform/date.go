package transform

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/campaign-etl/internal/table"
)

// DefaultYear is the survey year assumed for every contact date.
const DefaultYear = 2022

// DateLayout is the ISO calendar date written to last_contact_date.
const DateLayout = "2006-01-02"

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// MonthSource tells how a month field was understood.
type MonthSource int

const (
	MonthInvalid MonthSource = iota
	MonthAbbrev
	MonthNumeric
)

func (s MonthSource) String() string {
	switch s {
	case MonthAbbrev:
		return "abbrev"
	case MonthNumeric:
		return "numeric"
	default:
		return "invalid"
	}
}

// Month is a parsed month field. Value is only meaningful when Source is not
// MonthInvalid.
type Month struct {
	Source MonthSource
	Value  time.Month
}

// Valid reports whether the month resolved to 1..12.
func (m Month) Valid() bool { return m.Source != MonthInvalid }

// ParseMonth accepts a three-letter abbreviation (any case) or a numeric
// string such as "5" or "5.0". Anything else, including numbers outside 1..12,
// is invalid.
func ParseMonth(v table.Field) Month {
	if !v.Valid {
		return Month{}
	}
	s := strings.TrimSpace(v.Value)
	if m, ok := monthAbbrev[strings.ToLower(s)]; ok {
		return Month{Source: MonthAbbrev, Value: m}
	}
	n, ok := parseWhole(s)
	if !ok || n < 1 || n > 12 {
		return Month{}
	}
	return Month{Source: MonthNumeric, Value: time.Month(n)}
}

// parseWhole parses integers and integral floats ("31", "31.0").
func parseWhole(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// ContactDate combines day and month with year into "YYYY-MM-DD". It returns
// missing when either part does not parse or the date does not exist
// (day=31, month="feb").
func ContactDate(day, month table.Field, year int) table.Field {
	m := ParseMonth(month)
	if !m.Valid() || !day.Valid {
		return table.Missing()
	}
	d, ok := parseWhole(strings.TrimSpace(day.Value))
	if !ok || d < 1 || d > 31 {
		return table.Missing()
	}
	t := time.Date(year, m.Value, d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 -> Mar 3); reject those
	if t.Day() != d || t.Month() != m.Value || t.Year() != year {
		return table.Missing()
	}
	return table.Text(t.Format(DateLayout))
}
