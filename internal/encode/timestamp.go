package encode

import (
	"strconv"
	"strings"
	"time"

	"github.com/logpress/logpress/internal/errors"
)

// Timestamp columns are stored as epoch milliseconds plus the layout the
// source text used, so decode can render the original bytes back. A value
// only rides the numeric path when formatting the parsed result reproduces
// the input exactly; anything else lands in the column's exception list.

// Pseudo layouts for bare epoch values.
const (
	layoutUnixSeconds = "unix_s"
	layoutUnixMillis  = "unix_ms"
	// Layouts whose fractional part Go's reference format cannot express;
	// parsed and formatted by hand.
	layoutCompactMS = "20060102-15:04:05:000"
	layoutCommaMS   = "2006-01-02 15:04:05,000"
)

var layoutCandidates = []string{
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	layoutCommaMS,
	"2006-01-02 15:04:05",
	layoutCompactMS,
	"Mon Jan 02 15:04:05 2006",
	"Jan _2 15:04:05",
	"15:04:05.000",
	"15:04:05",
}

// DetectLayout finds a layout that round-trips v exactly, or "" when none
// does. Bracket wrapping in the text is carried into the layout literally.
func DetectLayout(v string) string {
	if isAllDigits(v) {
		switch len(v) {
		case 13:
			return layoutUnixMillis
		case 10:
			return layoutUnixSeconds
		}
	}
	for _, layout := range layoutCandidates {
		if roundTrips(layout, v) {
			return layout
		}
		if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
			wrapped := "[" + layout + "]"
			if roundTrips(wrapped, v) {
				return wrapped
			}
		}
	}
	return ""
}

func roundTrips(layout, v string) bool {
	ms, err := ParseTimestamp(layout, v)
	if err != nil {
		return false
	}
	return FormatTimestamp(layout, ms) == v
}

// ParseTimestamp parses v under layout into epoch milliseconds.
func ParseTimestamp(layout, v string) (int64, error) {
	switch baseLayout(layout) {
	case layoutUnixSeconds:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "bad unix timestamp", err)
		}
		return n * 1000, nil
	case layoutUnixMillis:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "bad unix timestamp", err)
		}
		return n, nil
	case layoutCompactMS:
		return parseSplitMillis(layout, v, ":", "20060102-15:04:05")
	case layoutCommaMS:
		return parseSplitMillis(layout, v, ",", "2006-01-02 15:04:05")
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp does not match layout", err)
	}
	return t.UnixMilli(), nil
}

// FormatTimestamp renders epoch milliseconds under layout.
func FormatTimestamp(layout string, ms int64) string {
	switch baseLayout(layout) {
	case layoutUnixSeconds:
		return strconv.FormatInt(ms/1000, 10)
	case layoutUnixMillis:
		return strconv.FormatInt(ms, 10)
	case layoutCompactMS:
		return formatSplitMillis(layout, ms, ":", "20060102-15:04:05")
	case layoutCommaMS:
		return formatSplitMillis(layout, ms, ",", "2006-01-02 15:04:05")
	}
	return time.UnixMilli(ms).UTC().Format(layout)
}

// baseLayout strips a literal bracket wrap so the custom layouts are
// recognizable whether or not the source text carried brackets.
func baseLayout(layout string) string {
	return strings.TrimSuffix(strings.TrimPrefix(layout, "["), "]")
}

func parseSplitMillis(layout, v, sep, secondsLayout string) (int64, error) {
	wrapped := strings.HasPrefix(layout, "[")
	body := v
	if wrapped {
		if !strings.HasPrefix(v, "[") || !strings.HasSuffix(v, "]") {
			return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp does not match layout", nil)
		}
		body = v[1 : len(v)-1]
	}
	cut := strings.LastIndex(body, sep)
	if cut < 0 || len(body)-cut-1 != 3 {
		return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp does not match layout", nil)
	}
	msPart, err := strconv.Atoi(body[cut+1:])
	if err != nil || msPart < 0 || msPart > 999 {
		return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp does not match layout", err)
	}
	t, err := time.Parse(secondsLayout, body[:cut])
	if err != nil {
		return 0, errors.NewEncodingError(errors.CodeDecodeFailed, "timestamp does not match layout", err)
	}
	return t.UnixMilli() + int64(msPart), nil
}

func formatSplitMillis(layout string, ms int64, sep, secondsLayout string) string {
	t := time.UnixMilli(ms).UTC()
	s := t.Format(secondsLayout) + sep + paddedMillis(ms)
	if strings.HasPrefix(layout, "[") {
		return "[" + s + "]"
	}
	return s
}

func paddedMillis(ms int64) string {
	frac := ms % 1000
	if frac < 0 {
		frac += 1000
	}
	s := strconv.FormatInt(frac, 10)
	return strings.Repeat("0", 3-len(s)) + s
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
