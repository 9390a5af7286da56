package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusforum/backend/internal/models"
)

func TestComputeTransition(t *testing.T) {
	tests := []struct {
		name       string
		existing   string
		submitted  string
		action     string
		countDelta int
		repDelta   int
	}{
		{"new upvote", "", models.Upvote, ActionCreated, 1, 10},
		{"new downvote", "", models.Downvote, ActionCreated, -1, -2},
		{"upvote toggle-off", models.Upvote, models.Upvote, ActionRemoved, -1, -10},
		{"downvote toggle-off", models.Downvote, models.Downvote, ActionRemoved, 1, 2},
		{"switch up to down", models.Upvote, models.Downvote, ActionSwitched, -2, -12},
		{"switch down to up", models.Downvote, models.Upvote, ActionSwitched, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := computeTransition(tt.existing, tt.submitted)
			assert.Equal(t, tt.action, tr.action)
			assert.Equal(t, tt.countDelta, tr.countDelta)
			assert.Equal(t, tt.repDelta, tr.repDelta)
		})
	}
}

func TestComputeTransitionToggleCancelsOut(t *testing.T) {
	// A vote followed by its toggle-off must leave count and reputation
	// exactly where they started.
	for _, voteType := range []string{models.Upvote, models.Downvote} {
		cast := computeTransition("", voteType)
		undo := computeTransition(voteType, voteType)
		assert.Zero(t, cast.countDelta+undo.countDelta, voteType)
		assert.Zero(t, cast.repDelta+undo.repDelta, voteType)
	}
}

func TestParseTargetKind(t *testing.T) {
	kind, err := ParseTargetKind("posts")
	assert.NoError(t, err)
	assert.Equal(t, KindPost, kind)

	kind, err = ParseTargetKind("comments")
	assert.NoError(t, err)
	assert.Equal(t, KindComment, kind)

	_, err = ParseTargetKind("users")
	assert.ErrorIs(t, err, ErrInvalidTargetKind)
}
