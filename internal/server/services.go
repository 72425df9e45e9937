package server

import (
	"context"
	"io"

	"socialapp/internal/models"
	"socialapp/internal/repository"
	"socialapp/internal/service"
)

// Handlers depend on these narrow interfaces so tests can swap in mocks.

type postReactionService interface {
	AddOrUpdateReaction(ctx context.Context, postID, userID uint, rawType string) (*service.ReactionResult, error)
	RemoveReaction(ctx context.Context, postID, userID uint) error
	GetReactionCounts(ctx context.Context, postID uint) (*service.ReactionCounts, error)
	GetUserReaction(ctx context.Context, postID, userID uint) (string, error)
}

type commentReactionService interface {
	AddOrUpdateReaction(ctx context.Context, commentID, userID uint, rawType string) (*service.ReactionResult, error)
	RemoveReaction(ctx context.Context, commentID, userID uint) error
	GetReactionCounts(ctx context.Context, commentID uint) (*service.CommentReactionCounts, error)
	GetUserReaction(ctx context.Context, commentID, userID uint) (string, error)
}

type friendService interface {
	SendFriendRequest(ctx context.Context, userID, targetUserID uint) (*models.Friendship, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	AcceptFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error)
	RejectFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error)
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetFriendshipStatus(ctx context.Context, userID, targetUserID uint) (string, uint, *models.Friendship, error)
	RemoveFriend(ctx context.Context, userID, targetUserID uint) (*models.Friendship, error)
}

type notificationService interface {
	List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type orderAdminService interface {
	ListOrders(ctx context.Context, filter repository.OrderFilter, page service.Pagination) (*service.OrderPage, error)
	GetOrder(ctx context.Context, id uint) (*service.OrderDetail, error)
	UpdateStatus(ctx context.Context, actorID, id uint, rawStatus, note string) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, actorID, id uint, rawStatus string) (*models.Order, error)
	BulkUpdate(ctx context.Context, actorID uint, req service.BulkOrderUpdate) (*service.BulkResult, error)
	Summary(ctx context.Context) (map[models.OrderStatus]int64, error)
	ExportCSV(ctx context.Context, filter repository.OrderFilter, w io.Writer) (int, error)
}
