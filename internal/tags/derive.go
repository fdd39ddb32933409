package tags

import (
	"strconv"
	"strings"
	"time"
)

// Derived column names.
const (
	ColumnDayOfWeek = "day_of_week"
	ColumnYear      = "year"
	ColumnHour      = "hour_of_the_day"
)

// MaxAgeYears caps reported ages; older ages are identifying on their own.
const MaxAgeYears = 90

// Apply turns the raw attribute value into table cells. Cells that cannot be
// derived are left out.
func (e Entry) Apply(raw string) map[string]string {
	out := map[string]string{}
	switch e.Action {
	case Age:
		if v, ok := CapAge(raw); ok {
			out[e.Keyword] = v
		}
	case Date:
		if d, err := time.Parse("20060102", strings.TrimSpace(raw)); err == nil {
			out[ColumnDayOfWeek] = strconv.Itoa(weekday(d))
			out[ColumnYear] = strconv.Itoa(d.Year())
		}
	case Time:
		if h, ok := hourOfDay(raw); ok {
			out[ColumnHour] = strconv.Itoa(h)
		}
	default:
		if raw != "" {
			out[e.Keyword] = raw
		}
	}
	return out
}

// CapAge normalizes an age string such as "049Y" to "49Y" and caps year ages
// at MaxAgeYears. A value without a unit is read as years.
func CapAge(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	unit := ""
	if last := s[len(s)-1]; last < '0' || last > '9' {
		unit = strings.ToUpper(string(last))
		s = s[:len(s)-1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", false
	}
	switch unit {
	case "", "Y":
		if n > MaxAgeYears {
			n = MaxAgeYears
		}
	case "D", "W", "M":
	default:
		return "", false
	}
	return strconv.Itoa(n) + unit, true
}

// weekday numbers Monday as 0 and Sunday as 6.
func weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func hourOfDay(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
