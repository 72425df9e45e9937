package service

import (
	"context"

	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/observability"
	"socialapp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// CommentReactionCounts is the like/dislike tally of a comment.
type CommentReactionCounts struct {
	CommentID    uint             `json:"comment_id"`
	LikeCount    int64            `json:"like_count"`
	DislikeCount int64            `json:"dislike_count"`
	Counts       map[string]int64 `json:"counts"`
}

// CommentLikeNotifier is notified when someone likes another user's comment.
type CommentLikeNotifier interface {
	SendCommentLikeNotification(ctx context.Context, recipientID uint, actor *models.User, postID, commentID uint) error
}

// CommentReactionService toggles LIKE/DISLIKE reactions on comments.
type CommentReactionService struct {
	tx        repository.Transactor
	comments  repository.CommentRepository
	users     repository.UserRepository
	friends   FriendshipChecker
	reactions repository.CommentReactionRepository
	notifier  CommentLikeNotifier
}

// NewCommentReactionService returns a new CommentReactionService.
func NewCommentReactionService(
	tx repository.Transactor,
	comments repository.CommentRepository,
	users repository.UserRepository,
	friends FriendshipChecker,
	reactions repository.CommentReactionRepository,
	notifier CommentLikeNotifier,
) *CommentReactionService {
	return &CommentReactionService{
		tx:        tx,
		comments:  comments,
		users:     users,
		friends:   friends,
		reactions: reactions,
		notifier:  notifier,
	}
}

// AddOrUpdateReaction toggles the user's reaction on a comment. The author is
// notified whenever the resulting reaction is a LIKE.
func (s *CommentReactionService) AddOrUpdateReaction(ctx context.Context, commentID, userID uint, rawType string) (result *ReactionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "reactions", "comment.toggle",
		attribute.Int("comment.id", int(commentID)), attribute.Int("user.id", int(userID)))
	defer func() { span.End(err) }()

	reactionType, err := models.ParseCommentReactionType(rawType)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeReaction(ctx, s.friends, comment.UserID, userID, "You can only react to comments from your friends"); err != nil {
		return nil, err
	}

	var (
		reaction *models.CommentReaction
		action   ReactionAction
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.reactions.FindByCommentAndUser(ctx, commentID, userID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			reaction = &models.CommentReaction{CommentID: commentID, UserID: userID, ReactionType: reactionType}
			action = ReactionAdded
			return s.reactions.Create(ctx, reaction)
		case existing.ReactionType == reactionType:
			reaction = existing
			action = ReactionRemoved
			return s.reactions.Delete(ctx, existing.ID)
		default:
			reaction = existing
			action = ReactionUpdated
			return s.reactions.UpdateType(ctx, existing, reactionType)
		}
	})
	if err != nil {
		return nil, err
	}

	observability.ReactionToggles.WithLabelValues("comment", string(action)).Inc()
	span.AddAttributes(attribute.String("reaction.action", string(action)))

	if action != ReactionRemoved && reactionType == models.ReactionLike && s.notifier != nil {
		if nerr := s.notifier.SendCommentLikeNotification(ctx, comment.UserID, user, comment.PostID, commentID); nerr != nil {
			middleware.Logger.WarnContext(ctx, "comment like notification failed",
				"comment_id", commentID, "actor", userID, "error", nerr)
		}
	}

	result = &ReactionResult{
		ID:           reaction.ID,
		CommentID:    commentID,
		UserID:       userID,
		ReactionType: string(reaction.ReactionType),
		UserEmail:    user.Email,
		UserFullName: user.FullName,
		CreatedAt:    formatTimestamp(reaction.CreatedAt),
		UpdatedAt:    formatTimestamp(reaction.UpdatedAt),
		Action:       action,
	}
	if action == ReactionRemoved {
		result.clearRow()
	}
	return result, nil
}

// RemoveReaction deletes the user's reaction on a comment.
func (s *CommentReactionService) RemoveReaction(ctx context.Context, commentID, userID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.reactions.FindByCommentAndUser(ctx, commentID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return models.NewNotFoundMessage("Reaction not found")
		}
		if err := s.reactions.Delete(ctx, existing.ID); err != nil {
			return err
		}
		observability.ReactionToggles.WithLabelValues("comment", string(ReactionRemoved)).Inc()
		return nil
	})
}

// GetReactionCounts returns the like and dislike totals of a comment.
func (s *CommentReactionService) GetReactionCounts(ctx context.Context, commentID uint) (*CommentReactionCounts, error) {
	exists, err := s.comments.Exists(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundMessage("Comment not found")
	}

	grouped, err := s.reactions.CountByType(ctx, commentID)
	if err != nil {
		return nil, err
	}
	counts, _ := fillCounts(models.AllCommentReactionTypes(), grouped)
	return &CommentReactionCounts{
		CommentID:    commentID,
		LikeCount:    counts[string(models.ReactionLike)],
		DislikeCount: counts[string(models.ReactionDislike)],
		Counts:       counts,
	}, nil
}

// GetUserReaction returns the user's reaction type on a comment, or "" if none.
func (s *CommentReactionService) GetUserReaction(ctx context.Context, commentID, userID uint) (string, error) {
	existing, err := s.reactions.FindByCommentAndUser(ctx, commentID, userID)
	if err != nil || existing == nil {
		return "", err
	}
	return string(existing.ReactionType), nil
}
