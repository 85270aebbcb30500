package query

import (
	"sort"
	"time"

	"github.com/logpress/logpress/internal/container"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/observability"
	"github.com/logpress/logpress/internal/template"
	"github.com/logpress/logpress/pkg/types"
)

// Engine answers queries over one loaded container. Columns are decoded
// on first touch and cached, so a filter over one slot never pays for the
// others unless it has to reconstruct matching lines.
type Engine struct {
	c             *container.Container
	enc           *encode.Encoder
	stats         *observability.SlotStats
	maxResultLogs int

	columns map[container.ColumnKey][]string
	rows    map[string][]int64
}

// New creates an engine over a deserialized container.
func New(c *container.Container) *Engine {
	return &Engine{
		c:       c,
		enc:     encode.NewEncoder(c.Pool),
		stats:   observability.NewSlotStats(),
		columns: make(map[container.ColumnKey][]string),
		rows:    make(map[string][]int64),
	}
}

// SetMaxResultLogs caps the number of reconstructed lines a query
// returns. Zero means unlimited; MatchedCount is never capped.
func (e *Engine) SetMaxResultLogs(n int) {
	e.maxResultLogs = n
}

// SlotStats exposes the per-slot query counters.
func (e *Engine) SlotStats() *observability.SlotStats {
	return e.stats
}

// CountAll returns the total line count from template metadata alone; no
// column payload is touched.
func (e *Engine) CountAll() types.QueryResult {
	start := time.Now()
	total := 0
	for i := range e.c.Templates {
		total += e.c.Templates[i].MatchCount
	}
	return types.QueryResult{
		MatchedCount:  total,
		ExecutionTime: time.Since(start),
	}
}

// FilterBy returns the lines whose named slot equals value.
func (e *Engine) FilterBy(slot, value string) (types.QueryResult, error) {
	return e.Filter(Equals(slot, value))
}

type hit struct {
	lineIdx int64
	line    string
}

// Filter evaluates a predicate. For each template declaring the slot it
// decodes that slot's column, tests every row, and reconstructs matching
// lines by decoding the template's other columns lazily. Bloom filters
// skip templates that provably hold no equal value.
func (e *Engine) Filter(p Predicate) (types.QueryResult, error) {
	return e.FilterAll([]Predicate{p})
}

// FilterAll evaluates predicates as a conjunction: a row matches when
// every predicate accepts its slot value. Templates missing any of the
// predicate slots contribute nothing; an empty conjunction matches every
// line.
func (e *Engine) FilterAll(preds []Predicate) (types.QueryResult, error) {
	start := time.Now()
	var hits []hit
	scanned := 0
	matched := 0

	for i := range e.c.Templates {
		tpl := &e.c.Templates[i]
		cols, rows, ok, err := e.predicateColumns(tpl, preds)
		if err != nil {
			return types.QueryResult{}, err
		}
		if !ok {
			continue
		}
		scanned += rows

		var matchRows []int
		for r := 0; r < rows; r++ {
			all := true
			for pi := range preds {
				if !preds[pi].Matches(cols[pi][r]) {
					all = false
					break
				}
			}
			if all {
				matchRows = append(matchRows, r)
			}
		}
		matched += len(matchRows)
		if len(matchRows) == 0 {
			continue
		}

		rowLines, err := e.reconstruct(tpl, matchRows)
		if err != nil {
			return types.QueryResult{}, err
		}
		hits = append(hits, rowLines...)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].lineIdx < hits[j].lineIdx })
	if e.maxResultLogs > 0 && len(hits) > e.maxResultLogs {
		hits = hits[:e.maxResultLogs]
	}
	logs := make([]string, len(hits))
	for i, h := range hits {
		logs[i] = h.line
	}

	for _, p := range preds {
		e.stats.Record(p.Slot, string(p.Op), matched)
	}
	return types.QueryResult{
		MatchedCount:  matched,
		ScannedCount:  scanned,
		ExecutionTime: time.Since(start),
		Logs:          logs,
	}, nil
}

// predicateColumns resolves and decodes the columns a conjunction needs
// from one template. ok is false when the template lacks a predicate's
// slot or a bloom filter proves an equality can never match.
func (e *Engine) predicateColumns(tpl *template.Template, preds []Predicate) ([][]string, int, bool, error) {
	for _, p := range preds {
		if tpl.SlotIndex(p.Slot) < 0 {
			return nil, 0, false, nil
		}
		if p.bloomPrunable() {
			key := container.ColumnKey{TemplateID: tpl.ID, Slot: p.Slot}
			if f, ok := e.c.Blooms[key]; ok && !f.ContainsString(p.Value) {
				return nil, 0, false, nil
			}
		}
	}
	cols := make([][]string, len(preds))
	rows := -1
	for pi, p := range preds {
		values, err := e.column(container.ColumnKey{TemplateID: tpl.ID, Slot: p.Slot})
		if err != nil {
			return nil, 0, false, err
		}
		cols[pi] = values
		if rows < 0 || len(values) < rows {
			rows = len(values)
		}
	}
	if rows < 0 {
		// No predicates: every row of the template is in play.
		order, err := e.rowOrder(tpl.ID)
		if err != nil {
			return nil, 0, false, err
		}
		rows = len(order)
	}
	return cols, rows, true, nil
}

// reconstruct rebuilds the original lines for the given rows of one
// template. The remaining columns are decoded here, not during the scan.
func (e *Engine) reconstruct(tpl *template.Template, matchRows []int) ([]hit, error) {
	order, err := e.rowOrder(tpl.ID)
	if err != nil {
		return nil, err
	}
	columns := make([][]string, len(tpl.Slots))
	for si, slot := range tpl.Slots {
		columns[si], err = e.column(container.ColumnKey{TemplateID: tpl.ID, Slot: slot.Name})
		if err != nil {
			return nil, err
		}
	}
	hits := make([]hit, 0, len(matchRows))
	values := make([]string, len(tpl.Slots))
	for _, r := range matchRows {
		for si := range columns {
			values[si] = columns[si][r]
		}
		line, err := tpl.Reconstruct(values)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit{lineIdx: order[r], line: line})
	}
	return hits, nil
}

func (e *Engine) column(key container.ColumnKey) ([]string, error) {
	if values, ok := e.columns[key]; ok {
		return values, nil
	}
	values, err := e.enc.Decode(e.c.Columns[key])
	if err != nil {
		return nil, err
	}
	e.columns[key] = values
	return values, nil
}

func (e *Engine) rowOrder(templateID string) ([]int64, error) {
	if order, ok := e.rows[templateID]; ok {
		return order, nil
	}
	key := container.ColumnKey{TemplateID: templateID, Slot: container.RowOrderSlot}
	order, err := encode.DecodeIntColumn(e.c.Columns[key])
	if err != nil {
		return nil, err
	}
	e.rows[templateID] = order
	return order, nil
}
