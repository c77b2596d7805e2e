package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikeTracker(t *testing.T) {
	tracker := NewLikeTracker()
	tracker.SetCount("a", 3)

	like := tracker.Begin("a", 1)
	assert.Equal(t, 4, tracker.Count("a"))
	assert.True(t, tracker.Pending("a"))

	tracker.Resolve("a", like, 7)
	assert.Equal(t, 7, tracker.Count("a"))
	assert.False(t, tracker.Pending("a"))

	unlike := tracker.Begin("a", -1)
	assert.Equal(t, 6, tracker.Count("a"))
	tracker.Rollback("a", unlike)
	assert.Equal(t, 7, tracker.Count("a"))
}

func TestLikeTracker_NeverNegative(t *testing.T) {
	tracker := NewLikeTracker()
	tracker.Begin("b", -1)
	assert.Equal(t, 0, tracker.Count("b"))
}

func TestLikeTracker_RefreshKeepsPendingChange(t *testing.T) {
	tracker := NewLikeTracker()
	tracker.Begin("c", 1)
	tracker.SetCount("c", 5)
	assert.Equal(t, 6, tracker.Count("c"))
}

func TestLikeTracker_OverlappingChangesSettleIndependently(t *testing.T) {
	tracker := NewLikeTracker()
	tracker.SetCount("d", 10)

	first := tracker.Begin("d", 1)
	second := tracker.Begin("d", 1)
	assert.Equal(t, 12, tracker.Count("d"))

	// the first response only reflects its own toggle
	tracker.Resolve("d", first, 11)
	assert.Equal(t, 12, tracker.Count("d"))
	assert.True(t, tracker.Pending("d"))

	tracker.Rollback("d", second)
	assert.Equal(t, 11, tracker.Count("d"))
	assert.False(t, tracker.Pending("d"))
}
