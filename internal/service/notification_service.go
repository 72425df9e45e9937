package service

import (
	"context"
	"fmt"
	"strings"

	"socialapp/internal/featureflags"
	"socialapp/internal/middleware"
	"socialapp/internal/models"
	"socialapp/internal/notifications"
	"socialapp/internal/observability"
	"socialapp/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher pushes realtime events to a user. Enabled is false when
// there is no transport behind it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, userID uint, ev notifications.Event) error
	Enabled() bool
}

// NotificationService persists notifications and pushes them to connected clients.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
	flags     *featureflags.Manager
}

// NewNotificationService returns a new NotificationService. publisher and flags may be nil.
func NewNotificationService(repo repository.NotificationRepository, publisher EventPublisher, flags *featureflags.Manager) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher, flags: flags}
}

// SendLikeNotification tells a post's author that actor reacted to it.
func (s *NotificationService) SendLikeNotification(ctx context.Context, recipientID uint, actor *models.User, postID uint, reactionType models.ReactionType) error {
	n := &models.Notification{
		UserID:  recipientID,
		ActorID: actor.ID,
		Type:    models.NotificationPostReaction,
		PostID:  &postID,
		Message: fmt.Sprintf("%s reacted %s to your post", displayName(actor), strings.ToLower(string(reactionType))),
	}
	return s.send(ctx, n, actor)
}

// SendCommentLikeNotification tells a comment's author that actor liked it.
func (s *NotificationService) SendCommentLikeNotification(ctx context.Context, recipientID uint, actor *models.User, postID, commentID uint) error {
	n := &models.Notification{
		UserID:    recipientID,
		ActorID:   actor.ID,
		Type:      models.NotificationCommentLike,
		PostID:    &postID,
		CommentID: &commentID,
		Message:   fmt.Sprintf("%s liked your comment", displayName(actor)),
	}
	return s.send(ctx, n, actor)
}

func (s *NotificationService) send(ctx context.Context, n *models.Notification, actor *models.User) error {
	kind := string(n.Type)
	if n.UserID == n.ActorID {
		observability.NotificationsSent.WithLabelValues(kind, "self").Inc()
		return nil
	}
	if s.flags != nil && !s.flags.Enabled(featureflags.ReactionNotifications, n.UserID) {
		observability.NotificationsSent.WithLabelValues(kind, "disabled").Inc()
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "notifications", "send",
		attribute.String("notification.type", kind),
		attribute.Int("notification.recipient", int(n.UserID)))

	if err := s.repo.Create(ctx, n); err != nil {
		observability.NotificationsSent.WithLabelValues(kind, "error").Inc()
		span.End(err)
		return err
	}
	n.Actor = *actor

	if s.publisher == nil || !s.publisher.Enabled() {
		observability.NotificationsSent.WithLabelValues(kind, "stored").Inc()
		span.End(nil)
		return nil
	}
	ev := notifications.Event{Type: kind, Payload: n}
	if err := s.publisher.PublishEvent(ctx, n.UserID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			"notification_id", n.ID, "recipient", n.UserID, "error", err)
		observability.NotificationsSent.WithLabelValues(kind, "stored").Inc()
		span.End(nil)
		return nil
	}
	observability.NotificationsSent.WithLabelValues(kind, "delivered").Inc()
	span.End(nil)
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

// UnreadCount returns how many notifications the user has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func displayName(u *models.User) string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Username
}
