package divination

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/liurenlab/liuren/internal/apperror"
)

// MomentAt converts a wall-clock time into a CalendarMoment.
func MomentAt(t time.Time) CalendarMoment {
	return CalendarMoment{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// String formats the moment as "YYYY-MM-DD HH:MM". Parsing this output
// yields the same moment back.
func (m CalendarMoment) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", m.Year, m.Month, m.Day, m.Hour, m.Minute)
}

// Time converts the moment back to a time.Time in the given location.
func (m CalendarMoment) Time(loc *time.Location) time.Time {
	return time.Date(m.Year, time.Month(m.Month), m.Day, m.Hour, m.Minute, 0, 0, loc)
}

// ParseMoment parses free-form date/time text into a CalendarMoment.
// Accepted shapes, tried in order:
//
//	""                  -> now
//	"YYYY-MM-DD HH:MM"  -> full form
//	"MM-DD HH:MM"       -> year defaults to the current year
//	"YYYY-MM-DD-HH:MM"  -> hyphen-joined; the time segment is optional
//	"YYYY-MM-DD"        -> time defaults to 00:00
//	"HH:MM"             -> date defaults to the current date
//
// Full-width colons are normalized to ASCII and surrounding whitespace is
// trimmed. Unparseable components or out-of-range fields return an
// invalid_datetime error; the fallback-to-now policy is applied by the
// caller, not here.
func ParseMoment(input string, now time.Time) (CalendarMoment, error) {
	s := strings.TrimSpace(strings.ReplaceAll(input, "：", ":"))
	if s == "" {
		return MomentAt(now), nil
	}

	var datePart, timePart string
	switch {
	case strings.ContainsRune(s, ' '):
		fields := strings.Fields(s)
		if len(fields) != 2 {
			return CalendarMoment{}, apperror.NewInvalidDateTime("unrecognized date/time format: " + input)
		}
		datePart, timePart = fields[0], fields[1]
	case strings.ContainsRune(s, ':') && strings.ContainsRune(s, '-'):
		// Hyphen-joined form: the segment after the last hyphen is the time.
		i := strings.LastIndex(s, "-")
		datePart, timePart = s[:i], s[i+1:]
	case strings.ContainsRune(s, ':'):
		timePart = s
	default:
		datePart = s
	}

	m := MomentAt(now)
	m.Hour, m.Minute = 0, 0

	if datePart != "" {
		nums, err := splitInts(datePart, "-")
		if err != nil {
			return CalendarMoment{}, err
		}
		switch len(nums) {
		case 3:
			m.Year, m.Month, m.Day = nums[0], nums[1], nums[2]
		case 2:
			// Short form: year defaults to the current year.
			m.Year, m.Month, m.Day = now.Year(), nums[0], nums[1]
		default:
			return CalendarMoment{}, apperror.NewInvalidDateTime("unrecognized date format: " + datePart)
		}
	}

	if timePart != "" {
		nums, err := splitInts(timePart, ":")
		if err != nil {
			return CalendarMoment{}, err
		}
		if len(nums) != 2 {
			return CalendarMoment{}, apperror.NewInvalidDateTime("unrecognized time format: " + timePart)
		}
		m.Hour, m.Minute = nums[0], nums[1]
	}

	if err := m.validate(); err != nil {
		return CalendarMoment{}, err
	}
	return m, nil
}

// validate checks every field against its stated range.
func (m CalendarMoment) validate() error {
	switch {
	case m.Month < 1 || m.Month > 12:
		return apperror.NewInvalidDateTime(fmt.Sprintf("month %d out of range [1,12]", m.Month))
	case m.Day < 1 || m.Day > 31:
		return apperror.NewInvalidDateTime(fmt.Sprintf("day %d out of range [1,31]", m.Day))
	case m.Hour < 0 || m.Hour > 23:
		return apperror.NewInvalidDateTime(fmt.Sprintf("hour %d out of range [0,23]", m.Hour))
	case m.Minute < 0 || m.Minute > 59:
		return apperror.NewInvalidDateTime(fmt.Sprintf("minute %d out of range [0,59]", m.Minute))
	}
	return nil
}

// splitInts splits s on sep and parses every component as an integer.
func splitInts(s, sep string) ([]int, error) {
	parts := strings.Split(s, sep)
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, apperror.NewInvalidDateTime("not a number: " + p)
		}
		nums = append(nums, n)
	}
	return nums, nil
}

// DoubleHour maps an hour of day to the traditional double-hour (shichen)
// index 1..12. The first window wraps midnight: [23,24) and [0,1) are both
// 子时 (1); every following two-hour window increments the index, ending
// with 亥时 (12) at [21,23). Total over [0,23], no error path.
func DoubleHour(hour int) int {
	if hour >= 23 || hour < 1 {
		return 1
	}
	return (hour+1)/2 + 1
}

// ParseNumber validates a divination number: an integer in [1,100].
// Rejected values return invalid_divination_number before any network call
// is attempted.
func ParseNumber(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, apperror.NewInvalidDivinationNumber("divination number must be an integer between 1 and 100")
	}
	if n < 1 || n > 100 {
		return 0, apperror.NewInvalidDivinationNumber(fmt.Sprintf("divination number %d out of range [1,100]", n))
	}
	return n, nil
}
