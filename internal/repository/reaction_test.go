package repository

import (
	"context"
	"errors"
	"testing"

	"socialapp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostReactionRepository_Lifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostReactionRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	fan := createUser(t, db, "fan")
	other := createUser(t, db, "other")
	post := &models.Post{Content: "hi", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	missing, err := repo.FindByPostAndUser(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	reaction := &models.PostReaction{PostID: post.ID, UserID: fan.ID, ReactionType: models.ReactionLike}
	require.NoError(t, repo.Create(ctx, reaction))
	require.NoError(t, repo.Create(ctx, &models.PostReaction{PostID: post.ID, UserID: other.ID, ReactionType: models.ReactionLike}))

	dup := &models.PostReaction{PostID: post.ID, UserID: fan.ID, ReactionType: models.ReactionWow}
	err = repo.Create(ctx, dup)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))

	found, err := repo.FindByPostAndUser(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "fan", found.User.Username)

	require.NoError(t, repo.UpdateType(ctx, found, models.ReactionLove))
	assert.Equal(t, models.ReactionLove, found.ReactionType)

	counts, err := repo.CountByType(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, map[models.ReactionType]int64{
		models.ReactionLike: 1,
		models.ReactionLove: 1,
	}, counts)

	require.NoError(t, repo.Delete(ctx, found.ID))
	gone, err := repo.FindByPostAndUser(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCommentReactionRepository_CountByType(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewCommentReactionRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	post := &models.Post{Content: "hi", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)
	comment := &models.Comment{Content: "c", PostID: post.ID, UserID: author.ID}
	require.NoError(t, db.Create(comment).Error)

	for i, name := range []string{"a1", "a2", "a3"} {
		u := createUser(t, db, name)
		rt := models.ReactionLike
		if i == 2 {
			rt = models.ReactionDislike
		}
		require.NoError(t, repo.Create(ctx, &models.CommentReaction{CommentID: comment.ID, UserID: u.ID, ReactionType: rt}))
	}

	counts, err := repo.CountByType(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.ReactionLike])
	assert.Equal(t, int64(1), counts[models.ReactionDislike])

	empty, err := repo.CountByType(ctx, comment.ID+1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostReactionRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	post := &models.Post{Content: "hi", UserID: author.ID}
	require.NoError(t, db.Create(post).Error)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.Create(ctx, &models.PostReaction{PostID: post.ID, UserID: author.ID, ReactionType: models.ReactionHaha}); err != nil {
			return err
		}
		found, err := repo.FindByPostAndUser(ctx, post.ID, author.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := repo.FindByPostAndUser(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
