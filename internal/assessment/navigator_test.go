package assessment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigator_BoundedRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := NewNavigator(5)
	for i := 0; i < 2000; i++ {
		before := n.Current()
		if rng.Intn(2) == 0 {
			n.Next()
		} else {
			n.Previous()
		}
		after := n.Current()
		require.GreaterOrEqual(t, after, 1)
		require.LessOrEqual(t, after, 5)
		diff := after - before
		require.True(t, diff >= -1 && diff <= 1, "moved %d in one step", diff)
	}
}

func TestNavigator_EndsAreNoOps(t *testing.T) {
	n := NewNavigator(3)
	assert.False(t, n.Previous())
	assert.Equal(t, 1, n.Current())

	assert.True(t, n.Next())
	assert.True(t, n.Next())
	assert.True(t, n.IsLastQuestion())
	assert.False(t, n.Next())
	assert.Equal(t, 3, n.Current())
}

func TestNavigator_JumpTo(t *testing.T) {
	n := NewNavigator(5)
	require.NoError(t, n.JumpTo(4))
	assert.Equal(t, 4, n.Current())

	assert.ErrorIs(t, n.JumpTo(0), ErrQuestionOutOfRange)
	assert.ErrorIs(t, n.JumpTo(6), ErrQuestionOutOfRange)
	assert.Equal(t, 4, n.Current())
}

func TestNavigator_ToggleReviewRoundTrip(t *testing.T) {
	n := NewNavigator(5)
	require.NoError(t, n.JumpTo(3))

	n.ToggleReview()
	assert.True(t, n.ReviewMode())
	assert.Equal(t, 3, n.Current())

	n.ToggleReview()
	assert.False(t, n.ReviewMode())
	assert.Equal(t, 3, n.Current())
}

func TestNavigator_EditFromReview(t *testing.T) {
	n := NewNavigator(5)
	n.ToggleReview()
	require.NoError(t, n.EditFromReview(2))
	assert.Equal(t, 2, n.Current())
	assert.False(t, n.ReviewMode())

	n.ToggleReview()
	assert.Error(t, n.EditFromReview(9))
	assert.True(t, n.ReviewMode())
}

func TestNavigator_ProgressPercent(t *testing.T) {
	n := NewNavigator(5)
	assert.InDelta(t, 20.0, n.ProgressPercent(), 0.001)
	n.Next()
	assert.InDelta(t, 40.0, n.ProgressPercent(), 0.001)
	n.ToggleReview()
	assert.InDelta(t, 100.0, n.ProgressPercent(), 0.001)
}
