package service

import (
	"context"
	"testing"

	"socialapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commentID uint = 20

func newCommentReactionService(notifier *notifierSpy) (*CommentReactionService, *memCommentReactions) {
	reactions := newMemCommentReactions()
	comments := &commentRepoStub{comments: map[uint]*models.Comment{
		commentID: {ID: commentID, PostID: postID, UserID: authorID, Content: "first"},
	}}
	friends := NewFriendService(friendsWith([2]uint{authorID, friendID}), noopUserRepo())
	svc := NewCommentReactionService(&txStub{}, comments, noopUserRepo(), friends, reactions, notifier)
	return svc, reactions
}

func TestCommentReactionService_NotifiesOnlyForLike(t *testing.T) {
	tests := []struct {
		name     string
		sequence []string
		actions  []ReactionAction
		notified int
	}{
		{
			name:     "like notifies",
			sequence: []string{"LIKE"},
			actions:  []ReactionAction{ReactionAdded},
			notified: 1,
		},
		{
			name:     "dislike is silent",
			sequence: []string{"DISLIKE"},
			actions:  []ReactionAction{ReactionAdded},
			notified: 0,
		},
		{
			name:     "switch to like notifies",
			sequence: []string{"DISLIKE", "LIKE"},
			actions:  []ReactionAction{ReactionAdded, ReactionUpdated},
			notified: 1,
		},
		{
			name:     "toggle off never notifies",
			sequence: []string{"LIKE", "LIKE"},
			actions:  []ReactionAction{ReactionAdded, ReactionRemoved},
			notified: 1,
		},
		{
			name:     "switch away from like is silent",
			sequence: []string{"LIKE", "DISLIKE"},
			actions:  []ReactionAction{ReactionAdded, ReactionUpdated},
			notified: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &notifierSpy{}
			svc, _ := newCommentReactionService(spy)

			for i, rt := range tt.sequence {
				res, err := svc.AddOrUpdateReaction(context.Background(), commentID, friendID, rt)
				require.NoError(t, err)
				assert.Equal(t, tt.actions[i], res.Action)
				assert.Equal(t, commentID, res.CommentID)
			}
			assert.Len(t, spy.sent, tt.notified)
			for _, s := range spy.sent {
				assert.Equal(t, sentLike{recipient: authorID, actor: friendID, postID: postID, commentID: commentID, kind: models.ReactionLike}, s)
			}
		})
	}
}

func TestCommentReactionService_ToggleOffClearsRow(t *testing.T) {
	svc, _ := newCommentReactionService(&notifierSpy{})
	ctx := context.Background()

	added, err := svc.AddOrUpdateReaction(ctx, commentID, friendID, "LIKE")
	require.NoError(t, err)
	assert.NotZero(t, added.ID)

	removed, err := svc.AddOrUpdateReaction(ctx, commentID, friendID, "LIKE")
	require.NoError(t, err)
	assert.Equal(t, ReactionRemoved, removed.Action)
	assert.Zero(t, removed.ID)
	assert.Empty(t, removed.ReactionType)
	assert.Empty(t, removed.CreatedAt)
	assert.Empty(t, removed.UpdatedAt)
	assert.Equal(t, commentID, removed.CommentID)
}

func TestCommentReactionService_Authorization(t *testing.T) {
	svc, reactions := newCommentReactionService(&notifierSpy{})

	_, err := svc.AddOrUpdateReaction(context.Background(), commentID, strangerID, "LIKE")
	assert.Equal(t, models.CodeForbidden, models.ErrorCode(err))
	assert.EqualError(t, err, "You can only react to comments from your friends")
	assert.Empty(t, reactions.rows)

	_, err = svc.AddOrUpdateReaction(context.Background(), commentID, authorID, "DISLIKE")
	assert.NoError(t, err)

	_, err = svc.AddOrUpdateReaction(context.Background(), 999, friendID, "LIKE")
	assert.EqualError(t, err, "Comment not found")

	_, err = svc.AddOrUpdateReaction(context.Background(), commentID, friendID, "LOVE")
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestCommentReactionService_Counts(t *testing.T) {
	svc, _ := newCommentReactionService(&notifierSpy{})
	ctx := context.Background()

	_, err := svc.AddOrUpdateReaction(ctx, commentID, friendID, "like")
	require.NoError(t, err)
	_, err = svc.AddOrUpdateReaction(ctx, commentID, authorID, "dislike")
	require.NoError(t, err)

	counts, err := svc.GetReactionCounts(ctx, commentID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.LikeCount)
	assert.Equal(t, int64(1), counts.DislikeCount)
	assert.Equal(t, map[string]int64{"LIKE": 1, "DISLIKE": 1}, counts.Counts)

	require.NoError(t, svc.RemoveReaction(ctx, commentID, friendID))
	counts, err = svc.GetReactionCounts(ctx, commentID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"LIKE": 0, "DISLIKE": 1}, counts.Counts)

	assert.EqualError(t, svc.RemoveReaction(ctx, commentID, friendID), "Reaction not found")

	mine, err := svc.GetUserReaction(ctx, commentID, authorID)
	require.NoError(t, err)
	assert.Equal(t, "DISLIKE", mine)
}
