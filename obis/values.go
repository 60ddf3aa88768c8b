package obis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

var (
	reMagnitude   = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\*([A-Za-z]+))?$`)
	reSingleStamp = regexp.MustCompile(`^(\d{2}-\d{2}-\d{2}),(\d{2}:\d{2})$`)
	reClock       = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	reCalendar    = regexp.MustCompile(`^\d{2}-\d{2}-\d{2}$`)
	reHex16       = regexp.MustCompile(`^[0-9A-Fa-f]{16}$`)
	reDigits32    = regexp.MustCompile(`^\d{32}$`)
	reDigits8     = regexp.MustCompile(`^[0-4]{8}$`)
)

// parseMagnitude recognizes "d+.d+*UNIT", "d+*UNIT", or a bare number.
// A missing unit tag is treated as dimensionless: a robust parser must
// accept code*unit and code alike.
func parseMagnitude(s string) (Decimal, bool) {
	m := reMagnitude.FindStringSubmatch(s)
	if m == nil {
		return Decimal{}, false
	}
	return Decimal{Raw: m[1], Unit: normalizeUnit(m[2])}, true
}

// normalizeUnit canonicalizes a handful of unit spellings the meters are
// known to emit; anything else passes through unchanged.
func normalizeUnit(u string) string {
	switch strings.ToLower(u) {
	case "":
		return ""
	case "kwh":
		return "kWh"
	case "kvarh":
		return "kVArh"
	case "kw":
		return "kW"
	case "kvar":
		return "kVAr"
	case "v":
		return "V"
	case "a":
		return "A"
	case "hz":
		return "Hz"
	case "min":
		return "min"
	case "sec", "s":
		return "sec"
	default:
		return u
	}
}

const sentinelDate = "00-00-00"

// parseSingleTimestamp recognizes "yy-mm-dd,hh:mm".
func parseSingleTimestamp(s string) (CalendarDate, TimeOfDay, bool) {
	m := reSingleStamp.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return CalendarDate(m[1]), TimeOfDay(m[2]), true
}

// parseTimestampPair recognizes "yy-mm-dd,hh:mm;yy-mm-dd,hh:mm". It
// returns ok=false (not an error) when the shape doesn't match at all,
// and drop=true when it matched but is the sentinel record
// "00-00-00,00:00;00-00-00,00:00".
func parseTimestampPair(s string) (pair TimestampPair, ok bool, drop bool) {
	parts := strings.SplitN(s, ";", 2)
	if len(parts) != 2 {
		return TimestampPair{}, false, false
	}
	sd, st, sok := parseSingleTimestamp(parts[0])
	ed, et, eok := parseSingleTimestamp(parts[1])
	if !sok || !eok {
		return TimestampPair{}, false, false
	}
	if string(sd) == sentinelDate {
		return TimestampPair{}, true, true
	}
	return TimestampPair{Start: sd, StartTime: st, End: ed, EndTime: et}, true, false
}

// isClock recognizes "HH:MM:SS".
func isClock(s string) bool { return reClock.MatchString(s) }

// isCalendar recognizes "YY-MM-DD".
func isCalendar(s string) bool { return reCalendar.MatchString(s) }

// isHex16 recognizes a 16-hex-character FF/GF word.
func isHex16(s string) bool { return reHex16.MatchString(s) }

// isTariffTimesRun recognizes the 32-digit run of HHMM slots.
func isTariffTimesRun(s string) bool { return reDigits32.MatchString(s) }

// isTariffAssignRun recognizes the 8-digit run of tariff indices 0..4.
func isTariffAssignRun(s string) bool { return reDigits8.MatchString(s) }

// fullYear normalizes a two-digit year to a four-digit one by adding
// 2000; these meters never report dates before 2000.
func fullYear(cd CalendarDate) (year, month, day int, ok bool) {
	s := string(cd)
	if len(s) != 8 || s[2] != '-' || s[5] != '-' {
		return 0, 0, 0, false
	}
	yy, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[3:5])
	dd, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return 2000 + yy, mm, dd, true
}

// asTime turns a meter calendar/time pair into a time.Time, for feeding
// into strftime.
func asTime(cd CalendarDate, tod TimeOfDay) (time.Time, bool) {
	year, month, day, ok := fullYear(cd)
	if !ok {
		return time.Time{}, false
	}
	var hh, mm int
	if _, err := fmt.Sscanf(string(tod), "%02d:%02d", &hh, &mm); err != nil {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hh, mm, 0, 0, time.UTC), true
}

// FormatTimestamp renders a meter calendar/time pair using a strftime
// layout.
func FormatTimestamp(cd CalendarDate, tod TimeOfDay, layout string) (string, error) {
	t, ok := asTime(cd, tod)
	if !ok {
		return "", fmt.Errorf("obis: %q %q is not a valid meter timestamp", cd, tod)
	}
	return strftime.Format(layout, t)
}
