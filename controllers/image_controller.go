package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cyberbrief/newsroom/services/images"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ImageUpdater interface {
	UpdateAll(ctx context.Context) ([]images.Result, error)
	UpdateOne(ctx context.Context, id uint) (string, error)
}

type ImageController struct {
	updater ImageUpdater
	logger  *zap.Logger
}

func NewImageController(updater ImageUpdater, logger *zap.Logger) *ImageController {
	return &ImageController{updater: updater, logger: logger}
}

type generateImagesInput struct {
	Action    string `json:"action"`
	ArticleID uint   `json:"articleId"`
}

func (ic *ImageController) unexpected(c *gin.Context, err error) {
	ic.logger.Error("Image generation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred", "details": err.Error()})
}

// GenerateArticleImages is the generate-article-images function.
func (ic *ImageController) GenerateArticleImages(c *gin.Context) {
	var input generateImagesInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		ic.unexpected(c, err)
		return
	}
	ctx := c.Request.Context()

	switch {
	case input.Action == images.ActionUpdateAll:
		results, err := ic.updater.UpdateAll(ctx)
		if err != nil {
			ic.unexpected(c, err)
			return
		}
		if len(results) == 0 {
			c.JSON(http.StatusOK, gin.H{"message": "No articles found that need images"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Processed %d articles", len(results)),
			"results": results,
		})

	case input.Action == images.ActionUpdateSingle && input.ArticleID != 0:
		imageURL, err := ic.updater.UpdateOne(ctx, input.ArticleID)
		if err != nil {
			ic.unexpected(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Article updated successfully",
			"articleId": input.ArticleID,
			"imageUrl":  imageURL,
		})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": images.ErrInvalidAction.Error()})
	}
}
