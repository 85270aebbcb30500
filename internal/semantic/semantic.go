// Package semantic assigns semantic types to slot values using an ordered
// table of pattern matchers. The table is explicit and immutable: matchers
// run most specific first and the first match wins. No pattern matching
// means (UNKNOWN, 0.0), which is a valid terminal classification, not an
// error.
package semantic

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/logpress/logpress/pkg/types"
)

// Value is a candidate for classification: the slot value plus the
// immediately adjacent literal text, which some matchers consult (for
// example a numeric token after "host:" is a PORT).
type Value struct {
	Text string
	Prev string
	Next string
}

// Matcher pairs a predicate with the semantic type and fixed confidence it
// assigns. Matchers are pure functions of the value and its neighbors.
type Matcher struct {
	Name       string
	Type       types.SemanticType
	Confidence float64
	Match      func(v Value) bool
}

// Classifier evaluates a fixed ordered matcher table.
type Classifier struct {
	matchers []Matcher
	priority map[types.SemanticType]int
}

// NewClassifier returns a classifier with the default matcher table.
func NewClassifier() *Classifier {
	return NewClassifierWith(DefaultMatchers())
}

// NewClassifierWith builds a classifier over an explicit matcher table.
// The table order defines both match priority and vote tie-breaking.
func NewClassifierWith(matchers []Matcher) *Classifier {
	priority := make(map[types.SemanticType]int, len(matchers))
	for i, m := range matchers {
		if _, ok := priority[m.Type]; !ok {
			priority[m.Type] = i
		}
	}
	return &Classifier{matchers: matchers, priority: priority}
}

// Classify returns the semantic type and confidence of the first matcher
// that accepts v.
func (c *Classifier) Classify(v Value) (types.SemanticType, float64) {
	for _, m := range c.matchers {
		if m.Match(v) {
			return m.Type, m.Confidence
		}
	}
	return types.TypeUnknown, 0.0
}

// Priority returns the matcher-table rank of t (lower is more specific).
// Types absent from the table rank last.
func (c *Classifier) Priority(t types.SemanticType) int {
	if p, ok := c.priority[t]; ok {
		return p
	}
	return len(c.matchers)
}

// Inner strips one layer of wrapping brackets or quotes so that values
// like "[notice]" classify on their content.
func Inner(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		switch {
		case first == '[' && last == ']',
			first == '(' && last == ')',
			first == '{' && last == '}',
			first == '"' && last == '"',
			first == '\'' && last == '\'':
			return s[1 : len(s)-1]
		}
	}
	return s
}

var (
	reISO8601   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d{1,6})?(?:Z|[+-]\d{2}:?\d{2})?$`)
	reCompactTS = regexp.MustCompile(`^\d{8}-\d{2}:\d{2}:\d{2}:\d{3}$`)
	reSyslogTS  = regexp.MustCompile(`^(?:(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun) )?(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) {1,2}\d{1,2} \d{2}:\d{2}:\d{2}(?: \d{4})?$`)
	reTimeMS    = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[.,]\d{3,6}$`)
	reTime      = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
	reIPv4      = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)
	reIPv6      = regexp.MustCompile(`^[0-9a-fA-F:]{3,39}$`)
	reEmail     = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reURL       = regexp.MustCompile(`^[a-z][a-z0-9+.-]*://\S+$`)
	reSeverity  = regexp.MustCompile(`(?i)^(?:DEBUG|INFO|WARN|WARNING|ERROR|FATAL|CRITICAL|TRACE|NOTICE|EMERG|ALERT|CRIT|ERR)$`)
	reStatus    = regexp.MustCompile(`(?i)^(?:success|successful|fail|failed|failure|timeout|denied|accepted|rejected|ok|error)$`)
	reErrorCode = regexp.MustCompile(`^[A-Z]{2,}[-_]?\d{2,}$`)
	reDigits    = regexp.MustCompile(`^\d+$`)
	reFQDN      = regexp.MustCompile(`^[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)+\.[a-zA-Z]{2,}$`)
	rePath      = regexp.MustCompile(`^(?:/[A-Za-z0-9._-]+)+/?$|^[A-Za-z0-9._/-]+\.(?:log|py|java|c|cpp|go|js|conf|cfg|txt|xml|json|yaml|yml)$`)
	reFloat     = regexp.MustCompile(`^\d+\.\d+$`)
	reMetric    = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*(?:ms|milliseconds?|seconds?|sec|s|minutes?|min|hours?|hrs?|bytes?|b|kb|mb|gb|tb|%)$`)
	reUserKey   = regexp.MustCompile(`(?i)(?:user(?:name)?|uid)[:=\s]*$`)
	rePidKey    = regexp.MustCompile(`(?i)(?:pid|process|proc)[:=\s#]*$`)
	reErrKey    = regexp.MustCompile(`(?i)(?:error|errno|err)[\s_-]?(?:code)?[:=\s]*$`)
)

func ipv4Octets(s string) bool {
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// DefaultMatchers returns the standard matcher table, most specific first.
// Patterns and confidences follow common log corpora: ISO and syslog
// timestamps, dotted quads, RFC-ish hosts and emails, syslog severities.
func DefaultMatchers() []Matcher {
	inner := func(f func(s string) bool) func(Value) bool {
		return func(v Value) bool { return f(Inner(v.Text)) }
	}

	return []Matcher{
		{Name: "ts_iso8601", Type: types.TypeTimestamp, Confidence: 0.95,
			Match: inner(func(s string) bool { return reISO8601.MatchString(s) })},
		{Name: "ts_compact", Type: types.TypeTimestamp, Confidence: 0.95,
			Match: inner(func(s string) bool { return reCompactTS.MatchString(s) })},
		{Name: "ts_syslog", Type: types.TypeTimestamp, Confidence: 0.90,
			Match: inner(func(s string) bool { return reSyslogTS.MatchString(s) })},
		{Name: "ts_unix_ms", Type: types.TypeTimestamp, Confidence: 0.90,
			Match: inner(func(s string) bool { return len(s) == 13 && reDigits.MatchString(s) })},
		{Name: "ts_time_ms", Type: types.TypeTimestamp, Confidence: 0.85,
			Match: inner(func(s string) bool { return reTimeMS.MatchString(s) })},
		{Name: "ip_v4", Type: types.TypeIPAddress, Confidence: 0.95,
			Match: inner(func(s string) bool { return reIPv4.MatchString(s) && ipv4Octets(s) })},
		{Name: "ip_v6", Type: types.TypeIPAddress, Confidence: 0.90,
			Match: inner(func(s string) bool {
				// Plain HH:MM:SS times are hex-shaped; require a letter
				// or the :: shorthand to call it an address.
				return strings.Count(s, ":") >= 2 && reIPv6.MatchString(s) &&
					(strings.Contains(s, "::") || strings.ContainsAny(s, "abcdefABCDEF"))
			})},
		{Name: "email", Type: types.TypeEmail, Confidence: 0.95,
			Match: inner(func(s string) bool { return reEmail.MatchString(s) })},
		{Name: "url", Type: types.TypeURL, Confidence: 0.95,
			Match: inner(func(s string) bool { return reURL.MatchString(s) })},
		{Name: "severity", Type: types.TypeSeverity, Confidence: 0.95,
			Match: inner(func(s string) bool { return reSeverity.MatchString(s) })},
		{Name: "port_after_colon", Type: types.TypePort, Confidence: 0.85,
			Match: func(v Value) bool {
				s := Inner(v.Text)
				if !reDigits.MatchString(s) || len(s) > 5 {
					return false
				}
				n, _ := strconv.Atoi(s)
				return n <= 65535 && strings.HasSuffix(v.Prev, ":")
			}},
		{Name: "pid_keyword", Type: types.TypeProcessID, Confidence: 0.90,
			Match: func(v Value) bool {
				return reDigits.MatchString(Inner(v.Text)) && rePidKey.MatchString(v.Prev)
			}},
		{Name: "pid_bracketed", Type: types.TypeProcessID, Confidence: 0.75,
			Match: func(v Value) bool {
				s := Inner(v.Text)
				return s != v.Text && len(s) >= 4 && len(s) <= 6 && reDigits.MatchString(s)
			}},
		{Name: "user_keyword", Type: types.TypeUserID, Confidence: 0.90,
			Match: func(v Value) bool {
				s := Inner(v.Text)
				return s != "" && !strings.ContainsAny(s, " \t") && reUserKey.MatchString(v.Prev)
			}},
		{Name: "error_keyword", Type: types.TypeErrorCode, Confidence: 0.95,
			Match: func(v Value) bool {
				return Inner(v.Text) != "" && reErrKey.MatchString(v.Prev)
			}},
		{Name: "error_code", Type: types.TypeErrorCode, Confidence: 0.80,
			Match: inner(func(s string) bool { return reErrorCode.MatchString(s) })},
		{Name: "status_word", Type: types.TypeStatus, Confidence: 0.85,
			Match: inner(func(s string) bool { return reStatus.MatchString(s) })},
		{Name: "host_fqdn", Type: types.TypeHost, Confidence: 0.90,
			Match: inner(func(s string) bool { return reFQDN.MatchString(s) })},
		{Name: "path", Type: types.TypePath, Confidence: 0.85,
			Match: inner(func(s string) bool { return rePath.MatchString(s) })},
		{Name: "metric_unit", Type: types.TypeMetric, Confidence: 0.90,
			Match: inner(func(s string) bool { return reMetric.MatchString(s) })},
		{Name: "metric_float", Type: types.TypeMetric, Confidence: 0.70,
			Match: inner(func(s string) bool { return reFloat.MatchString(s) })},
		// Low-confidence fallbacks, tried last.
		{Name: "ts_time", Type: types.TypeTimestamp, Confidence: 0.70,
			Match: inner(func(s string) bool { return reTime.MatchString(s) })},
		{Name: "free_text", Type: types.TypeMessage, Confidence: 0.50,
			Match: inner(containsLetter)},
	}
}
