package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cyberbrief/newsroom/metrics"
	"github.com/cyberbrief/newsroom/middlewares"
	"github.com/cyberbrief/newsroom/models"
	"github.com/cyberbrief/newsroom/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscriptionStore interface {
	FindByEmail(ctx context.Context, email string) (*models.NewsletterSubscription, error)
	Create(ctx context.Context, sub *models.NewsletterSubscription) error
	Save(ctx context.Context, sub *models.NewsletterSubscription) error
}

type WelcomeSender interface {
	SendWelcome(toEmail string) error
}

// NewsletterController manages newsletter_subscriptions. mailer may be nil.
type NewsletterController struct {
	store   SubscriptionStore
	mailer  WelcomeSender
	metrics *metrics.Manager
	logger  *zap.Logger
	now     func() time.Time
}

func NewNewsletterController(store SubscriptionStore, mailer WelcomeSender, m *metrics.Manager, logger *zap.Logger) *NewsletterController {
	return &NewsletterController{store: store, mailer: mailer, metrics: m, logger: logger, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (nc *NewsletterController) Subscribe(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := normalizeEmail(input.Email)
	ctx := c.Request.Context()

	sub, err := nc.store.FindByEmail(ctx, email)
	switch {
	case err == nil && sub.Active:
		c.JSON(http.StatusOK, gin.H{"message": "You are already subscribed", "subscription": sub})
		return
	case err == nil:
		sub.Active = true
		sub.SubscribedAt = nc.now()
		err = nc.store.Save(ctx, sub)
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		sub = &models.NewsletterSubscription{Email: email, Active: true, SubscribedAt: nc.now()}
		if id := c.GetUint(middlewares.ContextUserID); id != 0 {
			sub.UserID = &id
		}
		err = nc.store.Create(ctx, sub)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	nc.metrics.NewsletterSubscribed()

	if nc.mailer != nil {
		if err := nc.mailer.SendWelcome(email); err != nil {
			nc.logger.Warn("Failed to send welcome email", zap.String("email", email), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Successfully subscribed to newsletter", "subscription": sub})
}

// Status reports whether the caller's email has an active subscription.
func (nc *NewsletterController) Status(c *gin.Context) {
	email := normalizeEmail(c.GetString(middlewares.ContextEmail))
	sub, err := nc.store.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			c.JSON(http.StatusOK, gin.H{"subscribed": false})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	if !sub.Active {
		c.JSON(http.StatusOK, gin.H{"subscribed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": true, "subscription": sub})
}

func (nc *NewsletterController) Unsubscribe(c *gin.Context) {
	email := normalizeEmail(c.GetString(middlewares.ContextEmail))
	ctx := c.Request.Context()

	sub, err := nc.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	sub.Active = false
	if err := nc.store.Save(ctx, sub); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully unsubscribed from newsletter"})
}
