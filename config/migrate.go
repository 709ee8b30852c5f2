package config

import (
	"github.com/cyberbrief/newsroom/global"
	"github.com/cyberbrief/newsroom/models"
	"go.uber.org/zap"
)

// MigrateDB runs database migrations
func MigrateDB() {
	err := global.DB.AutoMigrate(
		&models.User{},
		&models.UserRole{},
		&models.Article{},
		&models.NewsletterSubscription{},
		&models.SourceFeed{},
	)
	if err != nil {
		global.Logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	global.Logger.Info("Database migration completed successfully")
}
