// Package container defines the LSC on-disk format: inferred templates,
// their encoded slot columns, per-slot bloom filters, and the shared
// token pool, addressable by a byte-offset footer.
package container

import (
	"time"

	"github.com/google/uuid"

	"github.com/logpress/logpress/internal/bloom"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/template"
)

// RowOrderSlot is the hidden per-template column holding each row's
// original input line number, so decompression can restore global order.
const RowOrderSlot = "__line__"

// ColumnKey addresses one encoded column.
type ColumnKey struct {
	TemplateID string
	Slot       string
}

// Container is one compressed batch of log lines. It is built once by a
// compression run and read-only afterwards.
type Container struct {
	ID           string
	CreatedAt    time.Time
	LineCount    int
	OriginalSize int64
	Templates    []template.Template
	Columns      map[ColumnKey]encode.EncodedColumn
	Blooms       map[ColumnKey]*bloom.Filter
	Pool         *encode.Pool
}

// New returns an empty container with a fresh id.
func New() *Container {
	return &Container{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Columns:   make(map[ColumnKey]encode.EncodedColumn),
		Blooms:    make(map[ColumnKey]*bloom.Filter),
		Pool:      encode.NewPool(),
	}
}

// Template returns the template with the given id, or nil. The UNMATCHED
// fallback resolves whether or not it was stored explicitly.
func (c *Container) Template(id string) *template.Template {
	for i := range c.Templates {
		if c.Templates[i].ID == id {
			return &c.Templates[i]
		}
	}
	if id == template.UnmatchedID {
		t := template.Unmatched()
		return &t
	}
	return nil
}

// TemplateCount returns the number of inferred templates, excluding the
// UNMATCHED fallback.
func (c *Container) TemplateCount() int {
	n := 0
	for i := range c.Templates {
		if c.Templates[i].ID != template.UnmatchedID {
			n++
		}
	}
	return n
}
