// Package compress wires the pipeline together: template extraction,
// columnar encoding, bloom construction, and container assembly, plus the
// inverse that restores the original lines in input order.
package compress

import (
	"log"
	"time"

	"github.com/logpress/logpress/internal/bloom"
	"github.com/logpress/logpress/internal/container"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/errors"
	"github.com/logpress/logpress/internal/template"
	"github.com/logpress/logpress/pkg/types"
)

// Options tune template extraction and bloom sizing.
type Options struct {
	MinSupport          int
	SimilarityThreshold float64
	MaxExampleLines     int
	BloomBitsPerValue   int
}

// DefaultOptions returns the tuning used when the caller has no opinion.
func DefaultOptions() Options {
	return Options{
		MinSupport:          3,
		SimilarityThreshold: 0.8,
		MaxExampleLines:     5,
		BloomBitsPerValue:   10,
	}
}

// Compress infers templates over lines and encodes them into a container,
// returning the container, its serialized bytes, and the run statistics.
// Every line lands in exactly one template or the UNMATCHED fallback;
// nothing is dropped.
func Compress(lines []string, opts Options) (*container.Container, []byte, types.Stats, error) {
	start := time.Now()
	if opts.MinSupport < 1 {
		opts.MinSupport = 1
	}
	if opts.SimilarityThreshold <= 0 || opts.SimilarityThreshold > 1 {
		opts.SimilarityThreshold = 0.8
	}
	if opts.BloomBitsPerValue < 1 {
		opts.BloomBitsPerValue = 10
	}

	c := container.New()
	c.LineCount = len(lines)
	for _, line := range lines {
		c.OriginalSize += int64(len(line)) + 1
	}

	x := template.NewExtractor(opts.MinSupport, opts.SimilarityThreshold, opts.MaxExampleLines)
	templates, assignments := x.Extract(lines)
	c.Templates = templates

	rowsByID := make(map[string][]int)
	for i, a := range assignments {
		rowsByID[a.TemplateID] = append(rowsByID[a.TemplateID], i)
	}
	if rows, ok := rowsByID[template.UnmatchedID]; ok {
		u := template.Unmatched()
		u.MatchCount = len(rows)
		c.Templates = append(c.Templates, u)
	}

	enc := encode.NewEncoder(c.Pool)
	for ti := range c.Templates {
		tpl := &c.Templates[ti]
		rows := rowsByID[tpl.ID]
		for si, slot := range tpl.Slots {
			values := make([]string, len(rows))
			for r, lineIdx := range rows {
				values[r] = assignments[lineIdx].Values[si]
			}
			col, err := enc.Encode(slot.Type, values)
			if err != nil {
				return nil, nil, types.Stats{}, err
			}
			key := container.ColumnKey{TemplateID: tpl.ID, Slot: slot.Name}
			c.Columns[key] = col
			c.Blooms[key] = buildBloom(values, opts.BloomBitsPerValue)
		}
		order := make([]int64, len(rows))
		for r, lineIdx := range rows {
			order[r] = int64(lineIdx)
		}
		c.Columns[container.ColumnKey{TemplateID: tpl.ID, Slot: container.RowOrderSlot}] =
			encode.EncodeIntColumn(order)
	}

	data, err := c.Serialize()
	if err != nil {
		return nil, nil, types.Stats{}, err
	}
	stats := types.Stats{
		LogCount:       len(lines),
		TemplateCount:  c.TemplateCount(),
		OriginalSize:   c.OriginalSize,
		CompressedSize: int64(len(data)),
		Elapsed:        time.Since(start),
	}
	if stats.CompressedSize > 0 {
		stats.CompressionRatio = float64(stats.OriginalSize) / float64(stats.CompressedSize)
	}
	log.Printf("compress: %d lines -> %d templates, %d -> %d bytes in %s",
		stats.LogCount, stats.TemplateCount, stats.OriginalSize, stats.CompressedSize, stats.Elapsed)
	return c, data, stats, nil
}

// Decompress restores the original lines in input order.
func Decompress(c *container.Container) ([]string, error) {
	out := make([]string, c.LineCount)
	seen := 0
	enc := encode.NewEncoder(c.Pool)
	for i := range c.Templates {
		tpl := &c.Templates[i]
		orderCol, ok := c.Columns[container.ColumnKey{TemplateID: tpl.ID, Slot: container.RowOrderSlot}]
		if !ok {
			return nil, errors.NewFormatError(errors.CodeCorruptContainer,
				"container template "+tpl.ID+" missing row order column", nil)
		}
		order, err := encode.DecodeIntColumn(orderCol)
		if err != nil {
			return nil, err
		}
		columns := make([][]string, len(tpl.Slots))
		for si, slot := range tpl.Slots {
			col, ok := c.Columns[container.ColumnKey{TemplateID: tpl.ID, Slot: slot.Name}]
			if !ok {
				return nil, errors.NewFormatError(errors.CodeCorruptContainer,
					"container template "+tpl.ID+" missing column "+slot.Name, nil)
			}
			columns[si], err = enc.Decode(col)
			if err != nil {
				return nil, err
			}
		}
		values := make([]string, len(tpl.Slots))
		for r, lineIdx := range order {
			if lineIdx < 0 || lineIdx >= int64(len(out)) {
				return nil, errors.NewFormatError(errors.CodeCorruptContainer,
					"row index out of range in template "+tpl.ID, nil)
			}
			for si := range columns {
				values[si] = columns[si][r]
			}
			out[lineIdx], err = tpl.Reconstruct(values)
			if err != nil {
				return nil, err
			}
			seen++
		}
	}
	if seen != c.LineCount {
		return nil, errors.NewFormatError(errors.CodeCorruptContainer,
			"container row count does not cover every line", nil)
	}
	return out, nil
}

func buildBloom(values []string, bitsPerValue int) *bloom.Filter {
	distinct := make(map[string]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	f := bloom.New(len(distinct)*bitsPerValue, 7)
	for v := range distinct {
		f.AddString(v)
	}
	return f
}
