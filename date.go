package csv2iif

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrUnparseableDate = errors.New("unparseable date")

// DateLayout is the canonical zero-padded MM/DD/YYYY form embedded in every
// emitted record, regardless of the institution's input convention.
const DateLayout = "01/02/2006"

// Institutions vary between ISO-like and US-local dates. Year-first is tried
// before month-first so "2023-03-07" can never bind as month 2023.
var (
	yearFirstRE  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	monthFirstRE = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)
)

// parseDate resolves a raw date cell under the two recognized patterns.
// Surrounding whitespace is ignored. Calendar validity is enforced here and
// nowhere else; month 13 or day 32 fail instead of wrapping.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if m := yearFirstRE.FindStringSubmatch(s); m != nil {
		return calendarDate(m[1], m[2], m[3])
	}
	if m := monthFirstRE.FindStringSubmatch(s); m != nil {
		return calendarDate(m[3], m[1], m[2])
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
}

func calendarDate(ys, ms, ds string) (time.Time, error) {
	year, _ := strconv.Atoi(ys)
	month, _ := strconv.Atoi(ms)
	day, _ := strconv.Atoi(ds)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %02d/%02d/%04d is not a calendar date", ErrUnparseableDate, month, day, year)
	}
	return t, nil
}
