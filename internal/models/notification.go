package models

import "time"

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationPostReaction NotificationType = "post_reaction"
	NotificationCommentLike  NotificationType = "comment_like"
)

// Notification is a persisted, per-recipient notice. It is also pushed in
// realtime when the recipient is connected.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	ActorID   uint             `gorm:"not null" json:"actor_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	PostID    *uint            `json:"post_id,omitempty"`
	CommentID *uint            `json:"comment_id,omitempty"`
	Message   string           `gorm:"size:255" json:"message"`
	Read      bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"read"`
	Actor     User             `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
