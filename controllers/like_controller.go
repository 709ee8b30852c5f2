package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func likeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return 0, false
	}
	return uint(id), true
}

func likeError(c *gin.Context, err error) {
	if errors.Is(err, ErrCountersUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (ac *ArticleController) LikeArticle(c *gin.Context) {
	id, ok := likeID(c)
	if !ok {
		return
	}

	likes, err := ac.cache.Like(c.Request.Context(), id)
	if err != nil {
		likeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article liked successfully", "likes": likes})
}

func (ac *ArticleController) GetArticleLikes(c *gin.Context) {
	id, ok := likeID(c)
	if !ok {
		return
	}

	likes, err := ac.cache.Likes(c.Request.Context(), id)
	if err != nil {
		likeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}
