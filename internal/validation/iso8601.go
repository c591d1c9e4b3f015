package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTimestamp is returned for values outside the ISO-8601 grammar
// or naming a date that does not exist
var ErrInvalidTimestamp = errors.New("invalid ISO-8601 timestamp")

var (
	yearRe        = regexp.MustCompile(`^([+-]?\d{4})$`)
	yearMonthRe   = regexp.MustCompile(`^([+-]?\d{4})-(\d{2})$`)
	calendarExtRe = regexp.MustCompile(`^([+-]?\d{4})-(\d{2})-(\d{2})$`)
	calendarBasRe = regexp.MustCompile(`^([+-]?\d{4})(\d{2})(\d{2})$`)
	ordinalRe     = regexp.MustCompile(`^([+-]?\d{4})-?(\d{3})$`)
	weekRe        = regexp.MustCompile(`^([+-]?\d{4})-?W(\d{2})(?:-?([1-7]))?$`)

	clockExtRe = regexp.MustCompile(`^(\d{2})(?::(\d{2})(?::(\d{2}))?)?(?:[.,](\d+))?$`)
	clockBasRe = regexp.MustCompile(`^(\d{2})(?:(\d{2})(\d{2})?)?(?:[.,](\d+))?$`)
	offsetRe   = regexp.MustCompile(`^([+-])(\d{2})(?::?(\d{2}))?$`)
)

// ParseTimestamp parses an ISO-8601 date or date-time and returns it in UTC.
//
// Dates may be calendar (2024-03-14, 20240314), ordinal (2024-074), week
// (2024-W11-4) or reduced to a year or a month (2024, 2024-03); those start at
// midnight. A time may follow a complete date after T, t or a space, in
// extended or basic form, with a decimal fraction on its last component and a
// Z, ±hh, ±hhmm or ±hh:mm offset. Values without an offset are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	datePart, timePart, hasTime := cutDateTime(s)

	date, complete, err := parseDate(datePart)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	if !hasTime {
		return date, nil
	}
	if !complete {
		return time.Time{}, fmt.Errorf("%w: %q: time needs a full date", ErrInvalidTimestamp, s)
	}

	clock, zone := cutZone(timePart)
	offset, err := parseOffset(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	elapsed, err := parseClock(clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	return date.Add(elapsed - offset), nil
}

func cutDateTime(s string) (string, string, bool) {
	if i := strings.IndexAny(s, "Tt "); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

func cutZone(s string) (string, string) {
	if i := strings.IndexAny(s, "Zz+-"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// parseDate reports whether the date names a single day, which is required
// before a time of day
func parseDate(s string) (time.Time, bool, error) {
	if m := calendarExtRe.FindStringSubmatch(s); m != nil {
		t, err := calendarDate(m[1], m[2], m[3])
		return t, true, err
	}
	if m := calendarBasRe.FindStringSubmatch(s); m != nil {
		t, err := calendarDate(m[1], m[2], m[3])
		return t, true, err
	}
	if m := ordinalRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		t := time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
		if day < 1 || t.Year() != year {
			return time.Time{}, false, ErrInvalidTimestamp
		}
		return t, true, nil
	}
	if m := weekRe.FindStringSubmatch(s); m != nil {
		t, err := weekDate(m[1], m[2], m[3])
		return t, true, err
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		t, err := calendarDate(m[1], m[2], "01")
		return t, false, err
	}
	if m := yearRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), false, nil
	}
	return time.Time{}, false, ErrInvalidTimestamp
}

func calendarDate(y, m, d string) (time.Time, error) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 2024-02-30 into March
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, ErrInvalidTimestamp
	}
	return t, nil
}

func weekDate(y, w, d string) (time.Time, error) {
	year, _ := strconv.Atoi(y)
	week, _ := strconv.Atoi(w)
	weekday := 1
	if d != "" {
		weekday, _ = strconv.Atoi(d)
	}

	// week 1 is the week holding January 4th
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	t := monday.AddDate(0, 0, (week-1)*7+weekday-1)

	if isoYear, isoWeek := t.ISOWeek(); week < 1 || isoYear != year || isoWeek != week {
		return time.Time{}, ErrInvalidTimestamp
	}
	return t, nil
}

func parseClock(s string) (time.Duration, error) {
	m := clockExtRe.FindStringSubmatch(s)
	if m == nil {
		m = clockBasRe.FindStringSubmatch(s)
	}
	if m == nil {
		return 0, ErrInvalidTimestamp
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(orZero(m[2]))
	second, _ := strconv.Atoi(orZero(m[3]))
	fraction := m[4]

	// 24:00 closes the day
	if hour == 24 {
		if minute != 0 || second != 0 || strings.Trim(fraction, "0") != "" {
			return 0, ErrInvalidTimestamp
		}
		return 24 * time.Hour, nil
	}
	if hour > 23 || minute > 59 || second > 59 {
		return 0, ErrInvalidTimestamp
	}

	elapsed := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
	if fraction != "" {
		unit := time.Hour
		switch {
		case m[3] != "":
			unit = time.Second
		case m[2] != "":
			unit = time.Minute
		}
		frac, err := decimal.NewFromString("0." + fraction)
		if err != nil {
			return 0, ErrInvalidTimestamp
		}
		elapsed += time.Duration(frac.Mul(decimal.NewFromInt(int64(unit))).IntPart())
	}
	return elapsed, nil
}

func parseOffset(s string) (time.Duration, error) {
	if s == "" || s == "Z" || s == "z" {
		return 0, nil
	}
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidTimestamp
	}
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(orZero(m[3]))
	if hours > 23 || minutes > 59 {
		return 0, ErrInvalidTimestamp
	}
	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if m[1] == "-" {
		offset = -offset
	}
	return offset, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
