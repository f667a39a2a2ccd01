// Package timeinput turns the free-text date and time fields of the item
// form into an epoch-millisecond timestamp, or a typed validation failure.
package timeinput

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags the outcome of Validate.
type Kind int

const (
	// None means both fields were blank; the caller should default to "now".
	None Kind = iota
	// Timestamp means parsing succeeded and Result.Millis is valid.
	Timestamp
	// InvalidFormat means either field failed its pattern, including the
	// case where only one of the two fields was filled in.
	InvalidFormat
	// InvalidCalendarDate means both patterns matched but the fields do not
	// name a real calendar date/time (e.g. 2025-02-30, month 13, hour 24).
	InvalidCalendarDate
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Timestamp:
		return "timestamp"
	case InvalidFormat:
		return "invalid_format"
	case InvalidCalendarDate:
		return "invalid_calendar_date"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Validate. Millis is meaningful only when
// Kind is Timestamp.
type Result struct {
	Kind   Kind
	Millis int64
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Validate parses a "YYYY-MM-DD" date field and an "HH:mm" time field.
//
// Both fields blank yields None. Once either field is non-blank, both must
// match their patterns or the result is InvalidFormat. A syntactically valid
// pair that does not name a real local-time instant (the constructed time
// does not round-trip to the same fields) yields InvalidCalendarDate; month
// 13 is rejected here rather than wrapping into the next year. Seconds and
// milliseconds are zeroed. Validate never fails in any other way.
func Validate(dateText, timeText string) Result {
	return validateIn(dateText, timeText, time.Local)
}

// validateIn is Validate with an explicit location, for deterministic tests.
func validateIn(dateText, timeText string, loc *time.Location) Result {
	d := strings.TrimSpace(dateText)
	t := strings.TrimSpace(timeText)
	if d == "" && t == "" {
		return Result{Kind: None}
	}

	if !datePattern.MatchString(d) || !timePattern.MatchString(t) {
		return Result{Kind: InvalidFormat}
	}

	year, _ := strconv.Atoi(d[0:4])
	month, _ := strconv.Atoi(d[5:7])
	day, _ := strconv.Atoi(d[8:10])
	hour, _ := strconv.Atoi(t[0:2])
	minute, _ := strconv.Atoi(t[3:5])

	// time.Date normalizes out-of-range fields (month 13 becomes January of
	// the following year), so a round-trip comparison is the calendar check.
	constructed := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if constructed.Year() != year ||
		constructed.Month() != time.Month(month) ||
		constructed.Day() != day ||
		constructed.Hour() != hour ||
		constructed.Minute() != minute {
		return Result{Kind: InvalidCalendarDate}
	}

	return Result{Kind: Timestamp, Millis: constructed.UnixMilli()}
}
