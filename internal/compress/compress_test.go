package compress

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logpress/logpress/internal/container"
	"github.com/logpress/logpress/internal/template"
)

var apacheStyleLines = []string{
	"[2005-06-09 06:07:04] [INFO] start",
	"[2005-06-09 06:07:05] [ERROR] fail",
	"[2005-06-09 06:07:06] [INFO] start",
}

func roundTrip(t *testing.T, lines []string, opts Options) *container.Container {
	t.Helper()
	_, data, _, err := Compress(lines, opts)
	require.NoError(t, err)

	loaded, err := container.Deserialize(data)
	require.NoError(t, err)

	restored, err := Decompress(loaded)
	require.NoError(t, err)
	require.Equal(t, len(lines), len(restored))
	for i := range lines {
		assert.Equal(t, lines[i], restored[i], "line %d", i)
	}
	return loaded
}

func TestRoundTripTemplatedLines(t *testing.T) {
	opts := DefaultOptions()
	opts.MinSupport = 2
	c := roundTrip(t, apacheStyleLines, opts)
	assert.Equal(t, 1, c.TemplateCount())
}

func TestRoundTripSingleUnmatchedLine(t *testing.T) {
	c := roundTrip(t, []string{"one of a kind"}, DefaultOptions())
	assert.Equal(t, 0, c.TemplateCount())
	require.Len(t, c.Templates, 1)
	assert.Equal(t, template.UnmatchedID, c.Templates[0].ID)
	assert.Equal(t, 1, c.Templates[0].MatchCount)
}

func TestRoundTripEmptyInput(t *testing.T) {
	c, data, stats, err := Compress(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, stats.LogCount)
	assert.Zero(t, stats.TemplateCount)
	assert.NotEmpty(t, data)

	restored, err := Decompress(c)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestRoundTripTimestampException(t *testing.T) {
	lines := []string{
		"[2023-11-14 09:15:23] db ping",
		"[N/A] db ping",
		"[2023-11-14 09:15:25] db ping",
	}
	opts := DefaultOptions()
	opts.MinSupport = 2
	roundTrip(t, lines, opts)
}

func TestRoundTripMixedShapes(t *testing.T) {
	lines := append(append([]string{}, apacheStyleLines...),
		"GET /api/users 200 84ms",
		"GET /api/orders 404 7ms",
		"GET /api/users 200 91ms",
		"totally unique line here",
		"",
	)
	opts := DefaultOptions()
	opts.MinSupport = 2
	roundTrip(t, lines, opts)
}

func TestStats(t *testing.T) {
	opts := DefaultOptions()
	opts.MinSupport = 2
	_, data, stats, err := Compress(apacheStyleLines, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.LogCount)
	assert.Equal(t, 1, stats.TemplateCount)
	assert.Equal(t, int64(len(apacheStyleLines[0])+len(apacheStyleLines[1])+len(apacheStyleLines[2])+3), stats.OriginalSize)
	assert.Equal(t, int64(len(data)), stats.CompressedSize)
	assert.Greater(t, stats.CompressionRatio, 0.0)

	// The returned bytes are the publishable container.
	loaded, err := container.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.LineCount)
}

func TestRepetitiveInputCompresses(t *testing.T) {
	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, apacheStyleLines[i%3])
	}
	_, _, stats, err := Compress(lines, DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, stats.CompressionRatio, 1.0)
}

func TestBloomFiltersCoverSlotValues(t *testing.T) {
	opts := DefaultOptions()
	opts.MinSupport = 2
	c, _, _, err := Compress(apacheStyleLines, opts)
	require.NoError(t, err)

	key := container.ColumnKey{TemplateID: "T000", Slot: "severity"}
	require.Contains(t, c.Blooms, key)
	assert.True(t, c.Blooms[key].ContainsString("INFO"))
	assert.True(t, c.Blooms[key].ContainsString("ERROR"))
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decompress inverts compress", prop.ForAll(
		func(lines []string) bool {
			_, data, _, err := Compress(lines, DefaultOptions())
			if err != nil {
				return false
			}
			loaded, err := container.Deserialize(data)
			if err != nil {
				return false
			}
			restored, err := Decompress(loaded)
			if err != nil {
				return false
			}
			if len(restored) != len(lines) {
				return false
			}
			for i := range lines {
				if restored[i] != lines[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
	))
	properties.TestingRun(t)
}
