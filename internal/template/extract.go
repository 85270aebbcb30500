package template

import (
	"strconv"
	"strings"

	"github.com/logpress/logpress/internal/semantic"
	"github.com/logpress/logpress/internal/token"
	"github.com/logpress/logpress/pkg/types"
)

// Extractor infers templates from a batch of lines.
type Extractor struct {
	classifier  *semantic.Classifier
	minSupport  int
	threshold   float64
	maxExamples int
}

// NewExtractor returns an extractor. minSupport is the smallest group
// that may become a template, threshold the fraction of a group that must
// agree on a token value for the position to stay literal, and
// maxExamples bounds the sample lines kept per template.
func NewExtractor(minSupport int, threshold float64, maxExamples int) *Extractor {
	return &Extractor{
		classifier:  semantic.NewClassifier(),
		minSupport:  minSupport,
		threshold:   threshold,
		maxExamples: maxExamples,
	}
}

// posSpec is the position-level match data for one template candidate.
// It exists only during extraction; reconstruction uses Segments.
type posSpec struct {
	literal   bool
	value     string
	slot      int
	wrapOpen  byte
	wrapClose byte
}

type candidate struct {
	tpl Template
	pos []posSpec
}

var wrapClosers = map[byte]byte{'[': ']', '(': ')', '{': '}', '"': '"', '\'': '\''}

// Extract groups lines by token shape, aligns each large-enough group
// into a template, then re-scans every line against the finalized
// template set. The re-scan is the authoritative assignment: a line
// matches the first template whose literal positions it reproduces
// exactly, and anything left over falls to UNMATCHED. Templates that end
// the re-scan with zero matches are dropped.
func (x *Extractor) Extract(lines []string) ([]Template, []Assignment) {
	toks := make([][]token.Token, len(lines))
	var order []string
	groups := make(map[string][]int)
	for i, line := range lines {
		toks[i] = token.Tokenize(line)
		key := token.ShapeKey(toks[i])
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	var cands []candidate
	for _, key := range order {
		idx := groups[key]
		// A single line offers nothing to align against.
		if len(idx) < x.minSupport || len(idx) < 2 {
			continue
		}
		cands = append(cands, x.align(toks, idx))
	}

	assigned := make([]int, len(lines)) // candidate index, -1 for UNMATCHED
	rowValues := make([][]string, len(lines))
	matchCounts := make([]int, len(cands))
	for i := range lines {
		assigned[i] = -1
		for ci := range cands {
			values, ok := matchLine(toks[i], cands[ci].pos, len(cands[ci].tpl.Slots))
			if !ok {
				continue
			}
			assigned[i] = ci
			rowValues[i] = values
			matchCounts[ci]++
			break
		}
	}

	ids := make([]string, len(cands))
	var templates []Template
	for ci := range cands {
		if matchCounts[ci] == 0 {
			continue
		}
		tpl := cands[ci].tpl
		tpl.ID = "T" + pad3(len(templates))
		tpl.MatchCount = matchCounts[ci]
		ids[ci] = tpl.ID
		templates = append(templates, tpl)
	}

	assignments := make([]Assignment, len(lines))
	exampleCounts := make(map[string]int, len(templates))
	for i, line := range lines {
		ci := assigned[i]
		if ci < 0 {
			assignments[i] = Assignment{TemplateID: UnmatchedID, Values: []string{line}}
			continue
		}
		id := ids[ci]
		assignments[i] = Assignment{TemplateID: id, Values: rowValues[i]}
		if exampleCounts[id] < x.maxExamples {
			exampleCounts[id]++
			for ti := range templates {
				if templates[ti].ID == id {
					templates[ti].Examples = append(templates[ti].Examples, line)
					break
				}
			}
		}
	}
	return templates, assignments
}

// align builds a template candidate from one shape group. Positions where
// at least threshold of the group agree on a value stay literal; the rest
// become slots, with adjacent slot positions coalesced into one slot.
func (x *Extractor) align(toks [][]token.Token, idx []int) candidate {
	n := len(idx)
	P := len(toks[idx[0]])
	pos := make([]posSpec, P)
	for p := 0; p < P; p++ {
		counts := make(map[string]int, n)
		for _, i := range idx {
			counts[toks[i][p].Value]++
		}
		best, bestN := "", 0
		for v, c := range counts {
			if c > bestN || (c == bestN && v < best) {
				best, bestN = v, c
			}
		}
		if float64(bestN) >= x.threshold*float64(n) {
			pos[p] = posSpec{literal: true, value: best, slot: -1}
		} else {
			pos[p] = posSpec{slot: -1}
		}
	}

	var tpl Template
	var lit strings.Builder
	var pat strings.Builder
	nameCounts := make(map[string]int)
	p := 0
	for p < P {
		if pos[p].literal {
			lit.WriteString(pos[p].value)
			pat.WriteString(pos[p].value)
			p++
			continue
		}
		start := p
		for p < P && !pos[p].literal {
			p++
		}
		slotIdx := len(tpl.Slots)
		open, closed := x.wrapChars(toks, idx, start, p)
		spec := x.classifySlot(toks, idx, start, p, open != 0)
		spec.Name = slotName(nameCounts, spec.Type)
		if open != 0 {
			lit.WriteByte(open)
			pat.WriteByte(open)
		}
		if lit.Len() > 0 {
			tpl.Segments = append(tpl.Segments, Segment{Literal: lit.String(), Slot: -1})
			lit.Reset()
		}
		tpl.Segments = append(tpl.Segments, Segment{Slot: slotIdx})
		tpl.Slots = append(tpl.Slots, spec)
		pat.WriteString(string(spec.Type))
		if closed != 0 {
			lit.WriteByte(closed)
			pat.WriteByte(closed)
		}
		for q := start; q < p; q++ {
			pos[q].slot = slotIdx
			pos[q].wrapOpen = open
			pos[q].wrapClose = closed
		}
	}
	if lit.Len() > 0 {
		tpl.Segments = append(tpl.Segments, Segment{Literal: lit.String(), Slot: -1})
	}
	tpl.Pattern = pat.String()
	return candidate{tpl: tpl, pos: pos}
}

// wrapChars reports the opener/closer pair when a single-token slot run
// is bracket- or quote-wrapped identically across the whole group, so the
// wrap can move into the surrounding literals and the slot keep only the
// inner text.
func (x *Extractor) wrapChars(toks [][]token.Token, idx []int, start, end int) (byte, byte) {
	if end-start != 1 {
		return 0, 0
	}
	k := toks[idx[0]][start].Kind
	if k != token.Bracket && k != token.Quoted {
		return 0, 0
	}
	first := toks[idx[0]][start].Value
	if len(first) < 2 {
		return 0, 0
	}
	open := first[0]
	closed, ok := wrapClosers[open]
	if !ok {
		return 0, 0
	}
	for _, i := range idx {
		v := toks[i][start].Value
		if len(v) < 2 || v[0] != open || v[len(v)-1] != closed {
			return 0, 0
		}
	}
	return open, closed
}

// classifySlot majority-votes the semantic type of a slot run across the
// group. Ties break toward the more specific matcher; confidence is the
// mean of the winning type's votes.
func (x *Extractor) classifySlot(toks [][]token.Token, idx []int, start, end int, wrapped bool) SlotSpec {
	type tally struct {
		count int
		sum   float64
	}
	votes := make(map[types.SemanticType]*tally)
	for _, i := range idx {
		v := semantic.Value{Text: runValue(toks[i], start, end, wrapped)}
		if start > 0 {
			v.Prev = toks[i][start-1].Value
			if start > 1 {
				v.Prev = toks[i][start-2].Value + v.Prev
			}
		}
		if end < len(toks[i]) {
			v.Next = toks[i][end].Value
		}
		typ, conf := x.classifier.Classify(v)
		t := votes[typ]
		if t == nil {
			t = &tally{}
			votes[typ] = t
		}
		t.count++
		t.sum += conf
	}
	var winner types.SemanticType
	var winTally *tally
	for typ, t := range votes {
		if t == nil || t.count == 0 {
			continue
		}
		if winTally == nil || t.count > winTally.count ||
			(t.count == winTally.count && x.classifier.Priority(typ) < x.classifier.Priority(winner)) {
			winner, winTally = typ, t
		}
	}
	if winTally == nil {
		return SlotSpec{Type: types.TypeUnknown}
	}
	return SlotSpec{Type: winner, Confidence: winTally.sum / float64(winTally.count)}
}

func runValue(toks []token.Token, start, end int, wrapped bool) string {
	if wrapped {
		v := toks[start].Value
		return v[1 : len(v)-1]
	}
	var b strings.Builder
	for p := start; p < end; p++ {
		b.WriteString(toks[p].Value)
	}
	return b.String()
}

func slotName(counts map[string]int, typ types.SemanticType) string {
	base := strings.ToLower(string(typ))
	counts[base]++
	if counts[base] == 1 {
		return base
	}
	return base + "_" + strconv.Itoa(counts[base])
}

// matchLine checks a tokenized line against a candidate's positions and
// returns its slot values. Literal positions must match byte for byte;
// slot positions accept any value, modulo a required wrap pair.
func matchLine(toks []token.Token, pos []posSpec, nSlots int) ([]string, bool) {
	if len(toks) != len(pos) {
		return nil, false
	}
	values := make([]string, nSlots)
	for p, ps := range pos {
		v := toks[p].Value
		if ps.literal {
			if v != ps.value {
				return nil, false
			}
			continue
		}
		if ps.wrapOpen != 0 {
			if len(v) < 2 || v[0] != ps.wrapOpen || v[len(v)-1] != ps.wrapClose {
				return nil, false
			}
			v = v[1 : len(v)-1]
		}
		values[ps.slot] += v
	}
	return values, true
}

func pad3(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
