package database

import "vidnest/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscription{},
		&models.Video{},
		&models.Tweet{},
		&models.Comment{},
		&models.Like{},
	}
}
