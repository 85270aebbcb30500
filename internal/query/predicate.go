// Package query evaluates predicates against a loaded container,
// decoding only the columns a query touches.
package query

import (
	"strings"
	"time"

	"github.com/logpress/logpress/internal/encode"
)

// Op is a predicate comparison operator.
type Op string

const (
	OpEquals   Op = "="
	OpContains Op = "contains"
	OpPrefix   Op = "prefix"
	OpRange    Op = "range"
)

// Predicate selects rows of one slot by value.
type Predicate struct {
	Slot  string
	Op    Op
	Value string

	startMS int64
	endMS   int64
}

// Equals matches rows whose slot value is exactly value.
func Equals(slot, value string) Predicate {
	return Predicate{Slot: slot, Op: OpEquals, Value: value}
}

// Contains matches rows whose slot value contains value.
func Contains(slot, value string) Predicate {
	return Predicate{Slot: slot, Op: OpContains, Value: value}
}

// Prefix matches rows whose slot value starts with value.
func Prefix(slot, value string) Predicate {
	return Predicate{Slot: slot, Op: OpPrefix, Value: value}
}

// TimeRange matches rows whose slot value is a timestamp inside
// [start, end], bounds inclusive. Values that do not parse as timestamps
// (exception rows like "N/A") never match.
func TimeRange(slot string, start, end time.Time) Predicate {
	return Predicate{
		Slot:    slot,
		Op:      OpRange,
		startMS: start.UnixMilli(),
		endMS:   end.UnixMilli(),
	}
}

// Matches evaluates the predicate against one decoded value.
func (p Predicate) Matches(v string) bool {
	switch p.Op {
	case OpEquals:
		return v == p.Value
	case OpContains:
		return strings.Contains(v, p.Value)
	case OpPrefix:
		return strings.HasPrefix(v, p.Value)
	case OpRange:
		layout := encode.DetectLayout(v)
		if layout == "" {
			return false
		}
		ms, err := encode.ParseTimestamp(layout, v)
		return err == nil && p.startMS <= ms && ms <= p.endMS
	}
	return false
}

// bloomPrunable reports whether a bloom miss proves the predicate matches
// nothing. Only exact equality has that property.
func (p Predicate) bloomPrunable() bool {
	return p.Op == OpEquals
}
