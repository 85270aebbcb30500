package container

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"github.com/golang/snappy"

	"github.com/logpress/logpress/internal/bloom"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/errors"
	"github.com/logpress/logpress/internal/template"
)

// On-disk layout, little-endian:
//
//	4 bytes   magic "LSC\0"
//	1 byte    format version
//	sections  metadata, columns, blooms, pool - each snappy-framed,
//	          located via the footer, column sections in
//	          template-then-slot order
//	footer    JSON map of section name to {offset, length}
//	trailer   4 bytes footer offset + 4 bytes footer length
//
// Section offsets address the final byte stream, so a reader can seek
// straight to one column without touching the others.

const (
	magic       = "LSC\x00"
	version     = 1
	trailerSize = 8

	// Section offsets and the trailer are 32-bit; a container larger
	// than this cannot be addressed.
	maxContainerSize = math.MaxUint32
)

type section struct {
	Offset uint32 `json:"offset"`
	Length uint32 `json:"length"`
}

type columnMeta struct {
	TemplateID string       `json:"template_id"`
	Slot       string       `json:"slot"`
	Codec      encode.Codec `json:"codec"`
	ValueCount int          `json:"value_count"`
}

type metadata struct {
	ID           string              `json:"id"`
	CreatedAt    time.Time           `json:"created_at"`
	LineCount    int                 `json:"line_count"`
	OriginalSize int64               `json:"original_size"`
	Templates    []template.Template `json:"templates"`
	Columns      []columnMeta        `json:"columns"`
}

// Serialize renders the container to its byte form.
func (c *Container) Serialize() ([]byte, error) {
	keys := c.columnOrder()
	meta := metadata{
		ID:           c.ID,
		CreatedAt:    c.CreatedAt,
		LineCount:    c.LineCount,
		OriginalSize: c.OriginalSize,
		Templates:    c.Templates,
		Columns:      make([]columnMeta, 0, len(keys)),
	}
	for _, k := range keys {
		col := c.Columns[k]
		meta.Columns = append(meta.Columns, columnMeta{
			TemplateID: k.TemplateID,
			Slot:       k.Slot,
			Codec:      col.Codec,
			ValueCount: col.ValueCount,
		})
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.NewInternalError("marshal container metadata", err)
	}

	buf := append([]byte(magic), version)
	footer := make(map[string]section)
	addSection := func(name string, data []byte) {
		footer[name] = section{Offset: uint32(len(buf)), Length: uint32(len(data))}
		buf = append(buf, data...)
	}

	addSection("metadata", snappy.Encode(nil, metaJSON))
	for _, k := range keys {
		addSection(columnSection(k), snappy.Encode(nil, c.Columns[k].Payload))
	}
	for _, k := range keys {
		if f, ok := c.Blooms[k]; ok {
			addSection(bloomSection(k), f.Serialize())
		}
	}
	addSection("pool", snappy.Encode(nil, c.Pool.Serialize()))

	footerJSON, err := json.Marshal(footer)
	if err != nil {
		return nil, errors.NewInternalError("marshal container footer", err)
	}
	if oversized(len(buf) + len(footerJSON) + trailerSize) {
		return nil, errors.NewFormatError(errors.CodeTooLarge,
			"container exceeds the 32-bit offset limit", nil)
	}
	footerOffset := uint32(len(buf))
	buf = append(buf, footerJSON...)
	buf = binary.LittleEndian.AppendUint32(buf, footerOffset)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(footerJSON)))
	return buf, nil
}

// Deserialize parses a container byte stream produced by Serialize.
func Deserialize(data []byte) (*Container, error) {
	if len(data) < len(magic)+1+trailerSize {
		return nil, errors.NewFormatError(errors.CodeTruncated, "container shorter than fixed framing", nil)
	}
	if string(data[:len(magic)]) != magic {
		return nil, errors.NewFormatError(errors.CodeBadMagic, "not an LSC container", nil)
	}
	if data[len(magic)] != version {
		return nil, errors.NewFormatError(errors.CodeBadVersion, "unsupported container version", nil)
	}

	trailer := data[len(data)-trailerSize:]
	footerOffset := binary.LittleEndian.Uint32(trailer[0:4])
	footerLength := binary.LittleEndian.Uint32(trailer[4:8])
	if int(footerOffset)+int(footerLength) > len(data)-trailerSize {
		return nil, errors.NewFormatError(errors.CodeTruncated, "container footer out of bounds", nil)
	}
	var footer map[string]section
	if err := json.Unmarshal(data[footerOffset:footerOffset+footerLength], &footer); err != nil {
		return nil, errors.NewFormatError(errors.CodeCorruptContainer, "container footer unreadable", err)
	}

	readSection := func(name string) ([]byte, error) {
		s, ok := footer[name]
		if !ok {
			return nil, errors.NewFormatError(errors.CodeCorruptContainer, "container missing section "+name, nil)
		}
		if int(s.Offset)+int(s.Length) > len(data) {
			return nil, errors.NewFormatError(errors.CodeTruncated, "container section "+name+" out of bounds", nil)
		}
		return data[s.Offset : s.Offset+s.Length], nil
	}
	readSnappy := func(name string) ([]byte, error) {
		raw, err := readSection(name)
		if err != nil {
			return nil, err
		}
		decoded, err := snappy.Decode(nil, raw)
		if err != nil {
			return nil, errors.NewFormatError(errors.CodeCorruptContainer, "container section "+name+" corrupt", err)
		}
		return decoded, nil
	}

	metaJSON, err := readSnappy("metadata")
	if err != nil {
		return nil, err
	}
	var meta metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, errors.NewFormatError(errors.CodeCorruptContainer, "container metadata unreadable", err)
	}

	c := &Container{
		ID:           meta.ID,
		CreatedAt:    meta.CreatedAt,
		LineCount:    meta.LineCount,
		OriginalSize: meta.OriginalSize,
		Templates:    meta.Templates,
		Columns:      make(map[ColumnKey]encode.EncodedColumn, len(meta.Columns)),
		Blooms:       make(map[ColumnKey]*bloom.Filter),
	}
	for _, cm := range meta.Columns {
		k := ColumnKey{TemplateID: cm.TemplateID, Slot: cm.Slot}
		payload, err := readSnappy(columnSection(k))
		if err != nil {
			return nil, err
		}
		c.Columns[k] = encode.EncodedColumn{
			Codec:      cm.Codec,
			ValueCount: cm.ValueCount,
			Payload:    payload,
		}
		if raw, err := readSection(bloomSection(k)); err == nil {
			f, err := bloom.Deserialize(raw)
			if err != nil {
				return nil, errors.NewFormatError(errors.CodeCorruptContainer, "bloom filter for "+cm.Slot+" corrupt", err)
			}
			c.Blooms[k] = f
		}
	}

	poolData, err := readSnappy("pool")
	if err != nil {
		return nil, err
	}
	c.Pool, err = encode.DeserializePool(poolData)
	if err != nil {
		return nil, errors.NewFormatError(errors.CodeCorruptContainer, "container token pool corrupt", err)
	}
	return c, nil
}

// columnOrder lists column keys template-then-slot, with the hidden row
// order column last per template. Map iteration never leaks into the
// layout.
func (c *Container) columnOrder() []ColumnKey {
	var keys []ColumnKey
	for i := range c.Templates {
		t := &c.Templates[i]
		for _, s := range t.Slots {
			k := ColumnKey{TemplateID: t.ID, Slot: s.Name}
			if _, ok := c.Columns[k]; ok {
				keys = append(keys, k)
			}
		}
		k := ColumnKey{TemplateID: t.ID, Slot: RowOrderSlot}
		if _, ok := c.Columns[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func oversized(n int) bool {
	return n > maxContainerSize
}

func columnSection(k ColumnKey) string {
	return "col:" + k.TemplateID + ":" + k.Slot
}

func bloomSection(k ColumnKey) string {
	return "bloom:" + k.TemplateID + ":" + k.Slot
}
