package query

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logpress/logpress/internal/compress"
	"github.com/logpress/logpress/internal/container"
)

var apacheStyleLines = []string{
	"[2005-06-09 06:07:04] [INFO] start",
	"[2005-06-09 06:07:05] [ERROR] fail",
	"[2005-06-09 06:07:06] [INFO] start",
}

func loadEngine(t *testing.T, lines []string, minSupport int) *Engine {
	t.Helper()
	opts := compress.DefaultOptions()
	opts.MinSupport = minSupport
	_, data, _, err := compress.Compress(lines, opts)
	require.NoError(t, err)
	loaded, err := container.Deserialize(data)
	require.NoError(t, err)
	return New(loaded)
}

func TestCountAll(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result := e.CountAll()
	assert.Equal(t, 3, result.MatchedCount)
	assert.Zero(t, result.ScannedCount)
	assert.Empty(t, result.Logs)
}

func TestFilterBySeverity(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.FilterBy("severity", "ERROR")
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, 3, result.ScannedCount)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, apacheStyleLines[1], result.Logs[0])
}

func TestFilterByReturnsInputOrder(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.FilterBy("severity", "INFO")
	require.NoError(t, err)
	assert.Equal(t, []string{apacheStyleLines[0], apacheStyleLines[2]}, result.Logs)
}

func TestFilterByAbsentValue(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.FilterBy("severity", "FATAL")
	require.NoError(t, err)
	assert.Zero(t, result.MatchedCount)
	assert.Empty(t, result.Logs)
}

func TestFilterByUnknownSlot(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.FilterBy("no_such_slot", "x")
	require.NoError(t, err)
	assert.Zero(t, result.MatchedCount)
	assert.Zero(t, result.ScannedCount)
}

func TestFilterContains(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.Filter(Contains("message", "tar"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
}

func TestFilterPrefix(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.Filter(Prefix("message", "fa"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedCount)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, apacheStyleLines[1], result.Logs[0])
}

func TestMaxResultLogsCapsLogsNotCount(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	e.SetMaxResultLogs(1)
	result, err := e.FilterBy("severity", "INFO")
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, apacheStyleLines[0], result.Logs[0])
}

// Filtering through the engine must agree with filtering the fully
// decompressed line set.
func TestSelectiveDecodeEquivalence(t *testing.T) {
	lines := append(append([]string{}, apacheStyleLines...),
		"GET /api/users 200 84ms",
		"GET /api/orders 404 7ms",
		"GET /api/users 200 91ms",
		"odd one out",
	)
	opts := compress.DefaultOptions()
	opts.MinSupport = 2
	c, _, _, err := compress.Compress(lines, opts)
	require.NoError(t, err)
	e := New(c)

	result, err := e.FilterBy("severity", "INFO")
	require.NoError(t, err)

	var want []string
	for _, line := range lines {
		if strings.Contains(line, "[INFO]") {
			want = append(want, line)
		}
	}
	assert.Equal(t, want, result.Logs)
	assert.Equal(t, len(want), result.MatchedCount)
}

func TestFilterTimeRange(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	start := time.Date(2005, 6, 9, 6, 7, 5, 0, time.UTC)
	end := time.Date(2005, 6, 9, 6, 7, 6, 0, time.UTC)
	result, err := e.Filter(TimeRange("timestamp", start, end))
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, []string{apacheStyleLines[1], apacheStyleLines[2]}, result.Logs)
}

func TestFilterTimeRangeBoundsInclusive(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	at := time.Date(2005, 6, 9, 6, 7, 5, 0, time.UTC)
	result, err := e.Filter(TimeRange("timestamp", at, at))
	require.NoError(t, err)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, apacheStyleLines[1], result.Logs[0])
}

// A value in the exception list is not a timestamp and must never fall
// inside any range.
func TestFilterTimeRangeSkipsExceptionRows(t *testing.T) {
	lines := []string{
		"[2023-11-14 09:15:23] db ping",
		"[N/A] db ping",
		"[2023-11-14 09:15:25] db ping",
	}
	e := loadEngine(t, lines, 2)
	result, err := e.Filter(TimeRange("timestamp",
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, []string{lines[0], lines[2]}, result.Logs)
}

func TestFilterAllCompound(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	result, err := e.FilterAll([]Predicate{
		Equals("severity", "INFO"),
		TimeRange("timestamp",
			time.Date(2005, 6, 9, 6, 7, 5, 0, time.UTC),
			time.Date(2005, 6, 9, 6, 7, 6, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchedCount)
	assert.Equal(t, 3, result.ScannedCount)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, apacheStyleLines[2], result.Logs[0])
}

// A conjunction only touches templates declaring every predicate slot, so
// a severity+timestamp query cannot drag in the unmatched fallback.
func TestFilterAllSkipsTemplatesMissingASlot(t *testing.T) {
	lines := append(append([]string{}, apacheStyleLines...), "odd one out")
	e := loadEngine(t, lines, 2)
	result, err := e.FilterAll([]Predicate{
		Equals("severity", "INFO"),
		Equals("message", "start"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchedCount)
	assert.Equal(t, 3, result.ScannedCount)
}

func TestFilterAllEmptyConjunctionMatchesEverything(t *testing.T) {
	lines := append(append([]string{}, apacheStyleLines...), "odd one out")
	e := loadEngine(t, lines, 2)
	result, err := e.FilterAll(nil)
	require.NoError(t, err)
	assert.Equal(t, len(lines), result.MatchedCount)
	assert.Equal(t, lines, result.Logs)
}

func TestStatisticsAggregates(t *testing.T) {
	lines := append(append([]string{}, apacheStyleLines...), "straggler line")
	e := loadEngine(t, lines, 2)
	stats, err := e.Statistics()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.LineCount)
	assert.Equal(t, 1, stats.TemplateCount)
	assert.Equal(t, 1, stats.UnmatchedCount)
	assert.Equal(t, map[string]int{"INFO": 2, "ERROR": 1}, stats.Severities)
	require.NotNil(t, stats.TimeRange)
	assert.Equal(t, "2005-06-09 06:07:04", stats.TimeRange.Start.Format("2006-01-02 15:04:05"))
	assert.Equal(t, "2005-06-09 06:07:06", stats.TimeRange.End.Format("2006-01-02 15:04:05"))
	require.Len(t, stats.Templates, 1)
	assert.Equal(t, 3, stats.Templates[0].MatchCount)
}

// A timestamp in the exception list must not stretch the reported range.
func TestStatisticsSkipExceptionRows(t *testing.T) {
	lines := []string{
		"[2023-11-14 09:15:23] db ping",
		"[N/A] db ping",
		"[2023-11-14 09:15:25] db ping",
	}
	e := loadEngine(t, lines, 2)
	stats, err := e.Statistics()
	require.NoError(t, err)
	require.NotNil(t, stats.TimeRange)
	assert.Equal(t, "2023-11-14 09:15:23", stats.TimeRange.Start.Format("2006-01-02 15:04:05"))
	assert.Equal(t, "2023-11-14 09:15:25", stats.TimeRange.End.Format("2006-01-02 15:04:05"))
}

func TestSlotStatsRecorded(t *testing.T) {
	e := loadEngine(t, apacheStyleLines, 2)
	_, err := e.FilterBy("severity", "ERROR")
	require.NoError(t, err)
	_, err = e.FilterBy("severity", "INFO")
	require.NoError(t, err)

	top := e.SlotStats().TopSlots(1)
	require.Len(t, top, 1)
	assert.Equal(t, "severity", top[0].Slot)
	assert.Equal(t, int64(2), top[0].Queries)
	assert.Equal(t, int64(3), top[0].Matches)
}
