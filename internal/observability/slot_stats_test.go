package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAndTopSlots(t *testing.T) {
	s := NewSlotStats()
	s.Record("severity", "=", 3)
	s.Record("severity", "=", 1)
	s.Record("message", "contains", 0)

	assert.Equal(t, int64(3), s.TotalQueries())

	top := s.TopSlots(2)
	assert.Len(t, top, 2)
	assert.Equal(t, "severity", top[0].Slot)
	assert.Equal(t, int64(2), top[0].Queries)
	assert.Equal(t, int64(4), top[0].Matches)
	assert.Equal(t, 2, top[0].Operators["="])
	assert.Equal(t, "message", top[1].Slot)
}

func TestTopSlotsEmpty(t *testing.T) {
	s := NewSlotStats()
	assert.Empty(t, s.TopSlots(5))
	assert.Empty(t, s.TopSlots(0))
}

func TestTopSlotsBoundedByAvailable(t *testing.T) {
	s := NewSlotStats()
	s.Record("host", "=", 1)
	assert.Len(t, s.TopSlots(10), 1)
}
