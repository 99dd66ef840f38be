package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/anonto42/nano-blog/backend/internal/models"
)

// Migrate creates or updates every table the site uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
