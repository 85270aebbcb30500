package query

import (
	"time"

	"github.com/logpress/logpress/internal/container"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/template"
	"github.com/logpress/logpress/pkg/types"
)

// TemplateStat summarizes one template for reporting.
type TemplateStat struct {
	ID         string `json:"id"`
	Pattern    string `json:"pattern"`
	MatchCount int    `json:"match_count"`
}

// TimeSpan is the observed timestamp span across all numeric timestamp
// rows. Rows stored in exception lists are not represented numerically
// and do not contribute.
type TimeSpan struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Statistics is the aggregate view of a container.
type Statistics struct {
	LineCount      int            `json:"line_count"`
	TemplateCount  int            `json:"template_count"`
	UnmatchedCount int            `json:"unmatched_count"`
	Severities     map[string]int `json:"severities,omitempty"`
	Statuses       map[string]int `json:"statuses,omitempty"`
	TimeRange      *TimeSpan      `json:"time_range,omitempty"`
	Templates      []TemplateStat `json:"templates"`
	ElapsedTime    time.Duration  `json:"-"`
}

// Statistics aggregates dictionary columns' value counts and timestamp
// bounds without materializing rows wherever the codec allows it.
func (e *Engine) Statistics() (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{
		LineCount:     e.c.LineCount,
		TemplateCount: e.c.TemplateCount(),
	}
	var haveRange bool
	var minMS, maxMS int64

	for i := range e.c.Templates {
		tpl := &e.c.Templates[i]
		if tpl.ID == template.UnmatchedID {
			stats.UnmatchedCount = tpl.MatchCount
		} else {
			stats.Templates = append(stats.Templates, TemplateStat{
				ID:         tpl.ID,
				Pattern:    tpl.Pattern,
				MatchCount: tpl.MatchCount,
			})
		}
		for _, slot := range tpl.Slots {
			key := container.ColumnKey{TemplateID: tpl.ID, Slot: slot.Name}
			col, ok := e.c.Columns[key]
			if !ok {
				continue
			}
			switch {
			case col.Codec == encode.CodecDict && slot.Type == types.TypeSeverity:
				if err := mergeCounts(&stats.Severities, col); err != nil {
					return nil, err
				}
			case col.Codec == encode.CodecDict && slot.Type == types.TypeStatus:
				if err := mergeCounts(&stats.Statuses, col); err != nil {
					return nil, err
				}
			case col.Codec == encode.CodecTimestampDelta || col.Codec == encode.CodecTimestampGorilla:
				lo, hi, ok, err := encode.TimestampRange(col)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				if !haveRange || lo < minMS {
					minMS = lo
				}
				if !haveRange || hi > maxMS {
					maxMS = hi
				}
				haveRange = true
			}
		}
	}
	if haveRange {
		stats.TimeRange = &TimeSpan{
			Start: time.UnixMilli(minMS).UTC(),
			End:   time.UnixMilli(maxMS).UTC(),
		}
	}
	stats.ElapsedTime = time.Since(start)
	return stats, nil
}

func mergeCounts(dst *map[string]int, col encode.EncodedColumn) error {
	counts, err := encode.DictCounts(col)
	if err != nil {
		return err
	}
	if *dst == nil {
		*dst = make(map[string]int, len(counts))
	}
	for v, n := range counts {
		(*dst)[v] += n
	}
	return nil
}
