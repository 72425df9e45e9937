package repository

import (
	"context"
	"errors"

	"socialapp/internal/models"

	"gorm.io/gorm"
)

// PostReactionRepository persists reactions left on posts.
type PostReactionRepository interface {
	// FindByPostAndUser returns nil, nil when the user has not reacted.
	FindByPostAndUser(ctx context.Context, postID, userID uint) (*models.PostReaction, error)
	Create(ctx context.Context, reaction *models.PostReaction) error
	UpdateType(ctx context.Context, reaction *models.PostReaction, reactionType models.ReactionType) error
	Delete(ctx context.Context, id uint) error
	CountByType(ctx context.Context, postID uint) (map[models.ReactionType]int64, error)
}

// CommentReactionRepository persists reactions left on comments.
type CommentReactionRepository interface {
	FindByCommentAndUser(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error)
	Create(ctx context.Context, reaction *models.CommentReaction) error
	UpdateType(ctx context.Context, reaction *models.CommentReaction, reactionType models.ReactionType) error
	Delete(ctx context.Context, id uint) error
	CountByType(ctx context.Context, commentID uint) (map[models.ReactionType]int64, error)
}

type postReactionRepository struct {
	db *gorm.DB
}

// NewPostReactionRepository creates a new PostReactionRepository
func NewPostReactionRepository(db *gorm.DB) PostReactionRepository {
	return &postReactionRepository{db: db}
}

func (r *postReactionRepository) FindByPostAndUser(ctx context.Context, postID, userID uint) (*models.PostReaction, error) {
	var reaction models.PostReaction
	if err := conn(ctx, r.db).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Preload("User").
		First(&reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *postReactionRepository) Create(ctx context.Context, reaction *models.PostReaction) error {
	return createReaction(conn(ctx, r.db), reaction)
}

func (r *postReactionRepository) UpdateType(ctx context.Context, reaction *models.PostReaction, reactionType models.ReactionType) error {
	if err := conn(ctx, r.db).Model(reaction).Update("reaction_type", reactionType).Error; err != nil {
		return models.NewInternalError(err)
	}
	reaction.ReactionType = reactionType
	return nil
}

func (r *postReactionRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&models.PostReaction{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postReactionRepository) CountByType(ctx context.Context, postID uint) (map[models.ReactionType]int64, error) {
	return countByType(readDB(ctx, r.db).Model(&models.PostReaction{}).Where("post_id = ?", postID))
}

type commentReactionRepository struct {
	db *gorm.DB
}

// NewCommentReactionRepository creates a new CommentReactionRepository
func NewCommentReactionRepository(db *gorm.DB) CommentReactionRepository {
	return &commentReactionRepository{db: db}
}

func (r *commentReactionRepository) FindByCommentAndUser(ctx context.Context, commentID, userID uint) (*models.CommentReaction, error) {
	var reaction models.CommentReaction
	if err := conn(ctx, r.db).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Preload("User").
		First(&reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &reaction, nil
}

func (r *commentReactionRepository) Create(ctx context.Context, reaction *models.CommentReaction) error {
	return createReaction(conn(ctx, r.db), reaction)
}

func (r *commentReactionRepository) UpdateType(ctx context.Context, reaction *models.CommentReaction, reactionType models.ReactionType) error {
	if err := conn(ctx, r.db).Model(reaction).Update("reaction_type", reactionType).Error; err != nil {
		return models.NewInternalError(err)
	}
	reaction.ReactionType = reactionType
	return nil
}

func (r *commentReactionRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&models.CommentReaction{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentReactionRepository) CountByType(ctx context.Context, commentID uint) (map[models.ReactionType]int64, error) {
	return countByType(readDB(ctx, r.db).Model(&models.CommentReaction{}).Where("comment_id = ?", commentID))
}

// createReaction inserts a reaction row. A concurrent insert for the same
// (target, user) pair surfaces as a conflict.
func createReaction(db *gorm.DB, reaction interface{}) error {
	if err := db.Omit("User").Create(reaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return models.NewConflictError("Reaction already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

type reactionCountRow struct {
	ReactionType models.ReactionType
	Count        int64
}

func countByType(scoped *gorm.DB) (map[models.ReactionType]int64, error) {
	var rows []reactionCountRow
	if err := scoped.
		Select("reaction_type, COUNT(*) AS count").
		Group("reaction_type").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	counts := make(map[models.ReactionType]int64, len(rows))
	for _, row := range rows {
		counts[row.ReactionType] = row.Count
	}
	return counts, nil
}
