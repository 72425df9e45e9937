package server

import (
	"context"
	"io"

	"socialapp/internal/models"
	"socialapp/internal/repository"
	"socialapp/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
)

type MockPostReactionService struct {
	mock.Mock
}

func (m *MockPostReactionService) AddOrUpdateReaction(ctx context.Context, postID, userID uint, rawType string) (*service.ReactionResult, error) {
	args := m.Called(ctx, postID, userID, rawType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReactionResult), args.Error(1)
}

func (m *MockPostReactionService) RemoveReaction(ctx context.Context, postID, userID uint) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *MockPostReactionService) GetReactionCounts(ctx context.Context, postID uint) (*service.ReactionCounts, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReactionCounts), args.Error(1)
}

func (m *MockPostReactionService) GetUserReaction(ctx context.Context, postID, userID uint) (string, error) {
	args := m.Called(ctx, postID, userID)
	return args.String(0), args.Error(1)
}

type MockCommentReactionService struct {
	mock.Mock
}

func (m *MockCommentReactionService) AddOrUpdateReaction(ctx context.Context, commentID, userID uint, rawType string) (*service.ReactionResult, error) {
	args := m.Called(ctx, commentID, userID, rawType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReactionResult), args.Error(1)
}

func (m *MockCommentReactionService) RemoveReaction(ctx context.Context, commentID, userID uint) error {
	return m.Called(ctx, commentID, userID).Error(0)
}

func (m *MockCommentReactionService) GetReactionCounts(ctx context.Context, commentID uint) (*service.CommentReactionCounts, error) {
	args := m.Called(ctx, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CommentReactionCounts), args.Error(1)
}

func (m *MockCommentReactionService) GetUserReaction(ctx context.Context, commentID, userID uint) (string, error) {
	args := m.Called(ctx, commentID, userID)
	return args.String(0), args.Error(1)
}

type MockFriendService struct {
	mock.Mock
}

func (m *MockFriendService) friendship(args mock.Arguments) (*models.Friendship, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Friendship), args.Error(1)
}

func (m *MockFriendService) SendFriendRequest(ctx context.Context, userID, targetUserID uint) (*models.Friendship, error) {
	return m.friendship(m.Called(ctx, userID, targetUserID))
}

func (m *MockFriendService) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Friendship), args.Error(1)
}

func (m *MockFriendService) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Friendship), args.Error(1)
}

func (m *MockFriendService) AcceptFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	return m.friendship(m.Called(ctx, userID, requestID))
}

func (m *MockFriendService) RejectFriendRequest(ctx context.Context, userID, requestID uint) (*models.Friendship, error) {
	return m.friendship(m.Called(ctx, userID, requestID))
}

func (m *MockFriendService) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockFriendService) GetFriendshipStatus(ctx context.Context, userID, targetUserID uint) (string, uint, *models.Friendship, error) {
	args := m.Called(ctx, userID, targetUserID)
	var f *models.Friendship
	if args.Get(2) != nil {
		f = args.Get(2).(*models.Friendship)
	}
	return args.String(0), args.Get(1).(uint), f, args.Error(3)
}

func (m *MockFriendService) RemoveFriend(ctx context.Context, userID, targetUserID uint) (*models.Friendship, error) {
	return m.friendship(m.Called(ctx, userID, targetUserID))
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockOrderAdminService struct {
	mock.Mock
}

func (m *MockOrderAdminService) ListOrders(ctx context.Context, filter repository.OrderFilter, page service.Pagination) (*service.OrderPage, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderPage), args.Error(1)
}

func (m *MockOrderAdminService) GetOrder(ctx context.Context, id uint) (*service.OrderDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OrderDetail), args.Error(1)
}

func (m *MockOrderAdminService) order(args mock.Arguments) (*models.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderAdminService) UpdateStatus(ctx context.Context, actorID, id uint, rawStatus, note string) (*models.Order, error) {
	return m.order(m.Called(ctx, actorID, id, rawStatus, note))
}

func (m *MockOrderAdminService) UpdatePaymentStatus(ctx context.Context, actorID, id uint, rawStatus string) (*models.Order, error) {
	return m.order(m.Called(ctx, actorID, id, rawStatus))
}

func (m *MockOrderAdminService) BulkUpdate(ctx context.Context, actorID uint, req service.BulkOrderUpdate) (*service.BulkResult, error) {
	args := m.Called(ctx, actorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

func (m *MockOrderAdminService) Summary(ctx context.Context) (map[models.OrderStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.OrderStatus]int64), args.Error(1)
}

func (m *MockOrderAdminService) ExportCSV(ctx context.Context, filter repository.OrderFilter, w io.Writer) (int, error) {
	args := m.Called(ctx, filter, w)
	if body, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Int(1), args.Error(2)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return m.Called(ctx, id, isAdmin).Error(0)
}

func (m *MockUserRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

// asUser injects an authenticated user the way AuthRequired does.
func asUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", id)
		return c.Next()
	}
}
