package service

import (
	"context"
	"time"

	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/observability"
	"socialapp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// TimestampLayout is the wire format of reaction timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// ReactionAction describes what a toggle did.
type ReactionAction string

const (
	ReactionAdded   ReactionAction = "added"
	ReactionUpdated ReactionAction = "updated"
	ReactionRemoved ReactionAction = "removed"
)

// ReactionResult is returned by reaction toggles. ID, ReactionType and the
// timestamps are empty when the toggle removed the reaction.
type ReactionResult struct {
	ID           uint           `json:"id"`
	PostID       uint           `json:"post_id,omitempty"`
	CommentID    uint           `json:"comment_id,omitempty"`
	UserID       uint           `json:"user_id"`
	ReactionType string         `json:"reaction_type"`
	UserEmail    string         `json:"user_email"`
	UserFullName string         `json:"user_full_name"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	Action       ReactionAction `json:"action"`
}

// clearRow drops the fields of a reaction row that no longer exists.
func (r *ReactionResult) clearRow() {
	r.ID = 0
	r.ReactionType = ""
	r.CreatedAt = ""
	r.UpdatedAt = ""
}

// ReactionCounts holds every post reaction type with a count, zero included.
type ReactionCounts struct {
	PostID uint             `json:"post_id"`
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// PostLikeNotifier is notified when a reaction is added to someone else's post.
type PostLikeNotifier interface {
	SendLikeNotification(ctx context.Context, recipientID uint, actor *models.User, postID uint, reactionType models.ReactionType) error
}

// FriendshipChecker answers whether two users have an accepted friendship.
// FriendService implements it.
type FriendshipChecker interface {
	AreFriends(ctx context.Context, userID, otherUserID uint) (bool, error)
}

// ReactionService toggles reactions on posts.
type ReactionService struct {
	tx        repository.Transactor
	posts     repository.PostRepository
	users     repository.UserRepository
	friends   FriendshipChecker
	reactions repository.PostReactionRepository
	notifier  PostLikeNotifier
}

// NewReactionService returns a new ReactionService.
func NewReactionService(
	tx repository.Transactor,
	posts repository.PostRepository,
	users repository.UserRepository,
	friends FriendshipChecker,
	reactions repository.PostReactionRepository,
	notifier PostLikeNotifier,
) *ReactionService {
	return &ReactionService{
		tx:        tx,
		posts:     posts,
		users:     users,
		friends:   friends,
		reactions: reactions,
		notifier:  notifier,
	}
}

// AddOrUpdateReaction adds the reaction, switches its type, or removes it when
// the user repeats the reaction they already have.
func (s *ReactionService) AddOrUpdateReaction(ctx context.Context, postID, userID uint, rawType string) (result *ReactionResult, err error) {
	ctx, span := observability.StartSpan(ctx, "reactions", "post.toggle",
		attribute.Int("post.id", int(postID)), attribute.Int("user.id", int(userID)))
	defer func() { span.End(err) }()

	reactionType, err := models.ParsePostReactionType(rawType)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := authorizeReaction(ctx, s.friends, post.UserID, userID, "You can only react to posts from your friends"); err != nil {
		return nil, err
	}

	var (
		reaction *models.PostReaction
		action   ReactionAction
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.reactions.FindByPostAndUser(ctx, postID, userID)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			reaction = &models.PostReaction{PostID: postID, UserID: userID, ReactionType: reactionType}
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

	observability.ReactionToggles.WithLabelValues("post", string(action)).Inc()
	span.AddAttributes(attribute.String("reaction.action", string(action)))

	if action == ReactionAdded && s.notifier != nil {
		if nerr := s.notifier.SendLikeNotification(ctx, post.UserID, user, postID, reactionType); nerr != nil {
			middleware.Logger.WarnContext(ctx, "post reaction notification failed",
				"post_id", postID, "actor", userID, "error", nerr)
		}
	}

	result = &ReactionResult{
		ID:           reaction.ID,
		PostID:       postID,
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

// RemoveReaction deletes the user's reaction on a post.
func (s *ReactionService) RemoveReaction(ctx context.Context, postID, userID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.reactions.FindByPostAndUser(ctx, postID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return models.NewNotFoundMessage("Reaction not found")
		}
		if err := s.reactions.Delete(ctx, existing.ID); err != nil {
			return err
		}
		observability.ReactionToggles.WithLabelValues("post", string(ReactionRemoved)).Inc()
		return nil
	})
}

// GetReactionCounts returns a count for every post reaction type.
func (s *ReactionService) GetReactionCounts(ctx context.Context, postID uint) (*ReactionCounts, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundMessage("Post not found")
	}

	grouped, err := s.reactions.CountByType(ctx, postID)
	if err != nil {
		return nil, err
	}
	counts, total := fillCounts(models.AllPostReactionTypes(), grouped)
	return &ReactionCounts{PostID: postID, Counts: counts, Total: total}, nil
}

// GetUserReaction returns the user's reaction type on a post, or "" if none.
func (s *ReactionService) GetUserReaction(ctx context.Context, postID, userID uint) (string, error) {
	existing, err := s.reactions.FindByPostAndUser(ctx, postID, userID)
	if err != nil || existing == nil {
		return "", err
	}
	return string(existing.ReactionType), nil
}

// authorizeReaction lets authors react to their own content and otherwise
// requires an accepted friendship with the author.
func authorizeReaction(ctx context.Context, friends FriendshipChecker, authorID, actorID uint, denied string) error {
	if authorID == actorID {
		return nil
	}
	ok, err := friends.AreFriends(ctx, actorID, authorID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError(denied)
	}
	return nil
}

func fillCounts(types []models.ReactionType, grouped map[models.ReactionType]int64) (map[string]int64, int64) {
	counts := make(map[string]int64, len(types))
	var total int64
	for _, t := range types {
		counts[string(t)] = grouped[t]
		total += grouped[t]
	}
	return counts, total
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
