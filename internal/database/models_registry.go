package database

import "socialapp/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Friendship{},
		&models.PostReaction{},
		&models.CommentReaction{},
		&models.Notification{},
		&models.Order{},
		&models.OrderStatusHistory{},
	}
}
