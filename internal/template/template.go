// Package template infers structural templates from log lines. Lines are
// grouped by token shape, aligned position by position into literals and
// slots, and every input line is assigned to exactly one template or to
// the UNMATCHED fallback, which stores lines verbatim.
package template

import (
	"strings"

	"github.com/logpress/logpress/internal/errors"
	"github.com/logpress/logpress/pkg/types"
)

// UnmatchedID is the reserved id of the verbatim fallback template.
const UnmatchedID = "UNMATCHED"

// SlotSpec describes one variable position of a template.
type SlotSpec struct {
	Name       string             `json:"name"`
	Type       types.SemanticType `json:"type"`
	Confidence float64            `json:"confidence"`
}

// Segment is one piece of a template's reconstruction sequence: either a
// literal string or a reference to a slot. Slot is -1 for literals.
type Segment struct {
	Literal string `json:"literal,omitempty"`
	Slot    int    `json:"slot"`
}

// Template is the inferred structure shared by a group of lines. Segments
// and Slots carry everything needed to rebuild an original line from its
// slot values.
type Template struct {
	ID         string     `json:"id"`
	Pattern    string     `json:"pattern"`
	Segments   []Segment  `json:"segments"`
	Slots      []SlotSpec `json:"slots"`
	MatchCount int        `json:"match_count"`
	Examples   []string   `json:"examples,omitempty"`
}

// Unmatched returns the fallback template: a single MESSAGE slot holding
// the whole line.
func Unmatched() Template {
	return Template{
		ID:       UnmatchedID,
		Pattern:  string(types.TypeMessage),
		Segments: []Segment{{Slot: 0}},
		Slots:    []SlotSpec{{Name: "message", Type: types.TypeMessage, Confidence: 0}},
	}
}

// SlotIndex returns the index of the named slot, or -1.
func (t *Template) SlotIndex(name string) int {
	for i, s := range t.Slots {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Reconstruct rebuilds an original line from one row of slot values.
func (t *Template) Reconstruct(values []string) (string, error) {
	if len(values) != len(t.Slots) {
		return "", errors.NewEncodingError(errors.CodeUnknownSlot,
			"slot value count does not match template "+t.ID, nil)
	}
	var b strings.Builder
	for _, seg := range t.Segments {
		if seg.Slot >= 0 {
			b.WriteString(values[seg.Slot])
			continue
		}
		b.WriteString(seg.Literal)
	}
	return b.String(), nil
}

// Assignment binds one input line to a template and its slot values, in
// input order.
type Assignment struct {
	TemplateID string   `json:"template_id"`
	Values     []string `json:"values"`
}
