package router

import (
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/controllers"
	"github.com/cyberbrief/newsroom/metrics"
	"github.com/cyberbrief/newsroom/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries the struct controllers and cross-cutting pieces the routes need.
type Deps struct {
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Manager
	RoleChecker    middlewares.RoleChecker
	Articles       *controllers.ArticleController
	News           *controllers.NewsController
	Images         *controllers.ImageController
	Admin          *controllers.AdminController
	Newsletter     *controllers.NewsletterController
}

func corsConfig(allowedOrigins []string) cors.Config {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowCreds := !(len(allowedOrigins) == 1 && allowedOrigins[0] == "*")

	return cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Client-Info", "Apikey"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCreds,
		MaxAge:           12 * time.Hour,
	}
}

// functionCORS answers the function endpoints from any origin, preflight included.
func functionCORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	})
}

// corsByPath applies the open policy under /functions and the configured origins elsewhere.
// It runs globally so unrouted preflight requests are answered too.
func corsByPath(allowedOrigins []string) gin.HandlerFunc {
	apiCORS := cors.New(corsConfig(allowedOrigins))
	fnCORS := functionCORS()
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/functions/") {
			fnCORS(c)
			return
		}
		apiCORS(c)
	}
}

func InitRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(corsByPath(deps.AllowedOrigins))

	// Public health endpoint for liveness/readiness checks
	r.GET("/api/health", controllers.Health)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	functions := r.Group("/functions")
	{
		functions.POST("/fetch-news", deps.News.FetchNews)
		functions.POST("/generate-article-images", deps.Images.GenerateArticleImages)
	}

	api := r.Group("/api")
	auth := api.Group("/auth")
	{
		auth.POST("/login", controllers.Login)
		auth.POST("/register", controllers.Register)
		auth.GET("/me", middlewares.AuthMiddleware(), controllers.Me)
		auth.PUT("/profile", middlewares.AuthMiddleware(), controllers.UpdateProfile)
		auth.PUT("/password", middlewares.AuthMiddleware(), controllers.ChangePassword)
	}

	articles := api.Group("/articles")
	{
		articles.GET("", deps.Articles.GetArticles)
		articles.GET("/:id", deps.Articles.GetArticle)
		articles.GET("/:id/related", deps.Articles.GetRelatedArticles)
		articles.GET("/:id/like", deps.Articles.GetArticleLikes)
		articles.POST("/:id/like", middlewares.AuthMiddleware(), deps.Articles.LikeArticle)
	}

	api.GET("/news/:category", deps.News.CategoryFeed)

	newsletter := api.Group("/newsletter")
	{
		newsletter.POST("/subscribe", middlewares.OptionalAuth(), deps.Newsletter.Subscribe)
		newsletter.GET("/status", middlewares.AuthMiddleware(), deps.Newsletter.Status)
		newsletter.POST("/unsubscribe", middlewares.AuthMiddleware(), deps.Newsletter.Unsubscribe)
	}

	admin := api.Group("/admin", middlewares.AuthMiddleware(), middlewares.AdminMiddleware(deps.RoleChecker))
	{
		admin.GET("/articles", deps.Admin.ListArticles)
		admin.GET("/articles/missing-images", deps.Admin.MissingImages)
		admin.POST("/articles", deps.Admin.CreateArticle)
		admin.PUT("/articles/:id", deps.Admin.UpdateArticle)
		admin.DELETE("/articles/:id", deps.Admin.DeleteArticle)
		admin.POST("/uploads", deps.Admin.UploadImage)

		admin.GET("/feeds", deps.Admin.ListFeeds)
		admin.POST("/feeds", deps.Admin.CreateFeed)
		admin.POST("/feeds/refresh", deps.Admin.RefreshFeeds)
	}

	return r
}
