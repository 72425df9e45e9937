package models

import (
	"strings"
	"time"
)

// ReactionType is the kind of reaction a user leaves on a post or comment.
type ReactionType string

const (
	ReactionLike    ReactionType = "LIKE"
	ReactionLove    ReactionType = "LOVE"
	ReactionHaha    ReactionType = "HAHA"
	ReactionWow     ReactionType = "WOW"
	ReactionSad     ReactionType = "SAD"
	ReactionAngry   ReactionType = "ANGRY"
	ReactionDislike ReactionType = "DISLIKE"
)

var postReactionTypes = []ReactionType{
	ReactionLike, ReactionLove, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry,
}

var commentReactionTypes = []ReactionType{ReactionLike, ReactionDislike}

// AllPostReactionTypes returns the reaction types accepted on posts, in display order.
func AllPostReactionTypes() []ReactionType {
	out := make([]ReactionType, len(postReactionTypes))
	copy(out, postReactionTypes)
	return out
}

// AllCommentReactionTypes returns the reaction types accepted on comments.
func AllCommentReactionTypes() []ReactionType {
	out := make([]ReactionType, len(commentReactionTypes))
	copy(out, commentReactionTypes)
	return out
}

// ParsePostReactionType normalizes raw input into a post reaction type.
func ParsePostReactionType(raw string) (ReactionType, error) {
	return parseReactionType(raw, postReactionTypes)
}

// ParseCommentReactionType normalizes raw input into a comment reaction type.
func ParseCommentReactionType(raw string) (ReactionType, error) {
	return parseReactionType(raw, commentReactionTypes)
}

func parseReactionType(raw string, allowed []ReactionType) (ReactionType, error) {
	value := ReactionType(strings.ToUpper(strings.TrimSpace(raw)))
	if value == "" {
		return "", NewValidationError("reaction_type is required")
	}
	for _, t := range allowed {
		if t == value {
			return t, nil
		}
	}
	names := make([]string, 0, len(allowed))
	for _, t := range allowed {
		names = append(names, string(t))
	}
	return "", NewValidationError("invalid reaction_type, expected one of " + strings.Join(names, ", "))
}

// PostReaction is a single user's reaction on a post. One per (post, user).
type PostReaction struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	PostID       uint         `gorm:"not null;uniqueIndex:idx_post_reactions_post_user" json:"post_id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_post_reactions_post_user;index" json:"user_id"`
	ReactionType ReactionType `gorm:"type:varchar(16);not null" json:"reaction_type"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PostReaction) TableName() string {
	return "post_reactions"
}

// CommentReaction is a single user's reaction on a comment. One per (comment, user).
type CommentReaction struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CommentID    uint         `gorm:"not null;uniqueIndex:idx_comment_reactions_comment_user" json:"comment_id"`
	UserID       uint         `gorm:"not null;uniqueIndex:idx_comment_reactions_comment_user;index" json:"user_id"`
	ReactionType ReactionType `gorm:"type:varchar(16);not null" json:"reaction_type"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (CommentReaction) TableName() string {
	return "comment_reactions"
}
