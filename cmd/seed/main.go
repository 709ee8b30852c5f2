// Command seed loads the bundled sample articles and, when configured, the first admin account.
package main

import (
	"context"
	"errors"
	"flag"

	"github.com/cyberbrief/newsroom/config"
	"github.com/cyberbrief/newsroom/global"
	"github.com/cyberbrief/newsroom/mockdata"
	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/repository"
	"github.com/cyberbrief/newsroom/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	skipArticles := flag.Bool("skip-articles", false, "only bootstrap the admin account")
	flag.Parse()

	_ = godotenv.Load()
	config.InitConfig()
	defer global.Logger.Sync()
	config.MigrateDB()

	ctx := context.Background()
	logger := global.Logger.Named("seed")

	if !*skipArticles {
		articles, err := mockdata.Articles()
		if err != nil {
			logger.Fatal("Failed to load fixtures", zap.Error(err))
		}
		repo := repository.NewArticleRepository(global.DB)
		for i := range articles {
			if err := repo.UpsertBySlug(ctx, &articles[i]); err != nil {
				logger.Fatal("Failed to seed article", zap.String("slug", articles[i].Slug), zap.Error(err))
			}
		}
		logger.Info("Seeded articles", zap.Int("count", len(articles)))
	}

	admin := config.AppConfig.Admin
	if admin.Email == "" || admin.Password == "" {
		logger.Info("No admin credentials configured, skipping admin bootstrap")
		return
	}
	if err := ensureAdmin(ctx, admin.Email, admin.Password); err != nil {
		logger.Fatal("Failed to bootstrap admin", zap.Error(err))
	}
	logger.Info("Admin account ready", zap.String("email", admin.Email))
}

// ensureAdmin creates the user if needed and grants the admin role once.
func ensureAdmin(ctx context.Context, email, password string) error {
	return global.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashed, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			user = models.User{Email: email, Password: hashed, FullName: "Administrator"}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		role := models.UserRole{UserID: user.ID, Role: models.RoleAdmin}
		return tx.Where("user_id = ? AND role = ?", user.ID, models.RoleAdmin).FirstOrCreate(&role).Error
	})
}
