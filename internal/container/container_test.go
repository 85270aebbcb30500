package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logpress/logpress/internal/bloom"
	"github.com/logpress/logpress/internal/encode"
	"github.com/logpress/logpress/internal/errors"
	"github.com/logpress/logpress/internal/template"
	"github.com/logpress/logpress/pkg/types"
)

func buildTestContainer(t *testing.T) *Container {
	t.Helper()
	c := New()
	c.LineCount = 3
	c.OriginalSize = 120

	enc := encode.NewEncoder(c.Pool)
	sevCol, err := enc.Encode(types.TypeSeverity, []string{"INFO", "ERROR", "INFO"})
	require.NoError(t, err)
	msgCol, err := enc.Encode(types.TypeMessage, []string{"start", "fail", "start"})
	require.NoError(t, err)

	tpl := template.Template{
		ID:      "T000",
		Pattern: "SEVERITY MESSAGE",
		Segments: []template.Segment{
			{Slot: 0},
			{Literal: " ", Slot: -1},
			{Slot: 1},
		},
		Slots: []template.SlotSpec{
			{Name: "severity", Type: types.TypeSeverity, Confidence: 0.95},
			{Name: "message", Type: types.TypeMessage, Confidence: 0.5},
		},
		MatchCount: 3,
	}
	c.Templates = append(c.Templates, tpl)
	sevKey := ColumnKey{TemplateID: "T000", Slot: "severity"}
	c.Columns[sevKey] = sevCol
	c.Columns[ColumnKey{TemplateID: "T000", Slot: "message"}] = msgCol
	c.Columns[ColumnKey{TemplateID: "T000", Slot: RowOrderSlot}] = encode.EncodeIntColumn([]int64{0, 1, 2})

	f := bloom.NewWithEstimates(3, 0.01)
	f.AddString("INFO")
	f.AddString("ERROR")
	c.Blooms[sevKey] = f
	return c
}

func TestSerializeRoundTrip(t *testing.T) {
	c := buildTestContainer(t)
	data, err := c.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, c.LineCount, got.LineCount)
	assert.Equal(t, c.OriginalSize, got.OriginalSize)
	require.Len(t, got.Templates, 1)
	assert.Equal(t, c.Templates[0].Pattern, got.Templates[0].Pattern)
	assert.Equal(t, c.Templates[0].Slots, got.Templates[0].Slots)

	sevKey := ColumnKey{TemplateID: "T000", Slot: "severity"}
	enc := encode.NewEncoder(got.Pool)
	values, err := enc.Decode(got.Columns[sevKey])
	require.NoError(t, err)
	assert.Equal(t, []string{"INFO", "ERROR", "INFO"}, values)

	msgValues, err := enc.Decode(got.Columns[ColumnKey{TemplateID: "T000", Slot: "message"}])
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "fail", "start"}, msgValues)

	rows, err := encode.DecodeIntColumn(got.Columns[ColumnKey{TemplateID: "T000", Slot: RowOrderSlot}])
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, rows)

	require.Contains(t, got.Blooms, sevKey)
	assert.True(t, got.Blooms[sevKey].ContainsString("ERROR"))
	assert.False(t, got.Blooms[sevKey].ContainsString("FATAL"))
}

func TestDeserializeBadMagic(t *testing.T) {
	c := buildTestContainer(t)
	data, err := c.Serialize()
	require.NoError(t, err)
	data[0] = 'X'

	_, err = Deserialize(data)
	require.Error(t, err)
	assert.True(t, errors.IsFormatError(err))
	assert.Equal(t, errors.CodeBadMagic, errors.GetCode(err))
}

func TestDeserializeBadVersion(t *testing.T) {
	c := buildTestContainer(t)
	data, err := c.Serialize()
	require.NoError(t, err)
	data[4] = 0xFF

	_, err = Deserialize(data)
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadVersion, errors.GetCode(err))
}

func TestDeserializeTruncated(t *testing.T) {
	c := buildTestContainer(t)
	data, err := c.Serialize()
	require.NoError(t, err)

	_, err = Deserialize(data[:len(data)/2])
	require.Error(t, err)
	assert.True(t, errors.IsCorruptContainer(err) || errors.IsFormatError(err))
}

func TestDeserializeTooShort(t *testing.T) {
	_, err := Deserialize([]byte("LSC"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeTruncated, errors.GetCode(err))
}

// Section offsets are 32-bit; the serializer must refuse a layout it
// cannot address rather than emit truncated offsets.
func TestOversizedLayoutRejected(t *testing.T) {
	assert.False(t, oversized(1<<20))
	assert.False(t, oversized(maxContainerSize))
	assert.True(t, oversized(maxContainerSize+1))
}

func TestTemplateLookup(t *testing.T) {
	c := buildTestContainer(t)
	assert.NotNil(t, c.Template("T000"))
	assert.Nil(t, c.Template("T999"))
	// The fallback resolves even when not stored.
	u := c.Template(template.UnmatchedID)
	require.NotNil(t, u)
	assert.Len(t, u.Slots, 1)
	assert.Equal(t, 1, c.TemplateCount())
}
