// Package events announces editorial changes on NATS.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/cyberbrief/newsroom/config"
	"github.com/cyberbrief/newsroom/models"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	ArticleCreatedSubject   = "article.created"
	ArticleUpdatedSubject   = "article.updated"
	ArticlePublishedSubject = "article.published"
	ArticleDeletedSubject   = "article.deleted"
)

type DeletedEventPayload struct {
	ID uint `json:"id"`
}

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewPublisher(cfg config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	logger = logger.Named("events")
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) publish(subject string, id uint, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message", zap.String("subject", subject), zap.Uint("article_id", id), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Debug("Published NATS message", zap.String("subject", subject), zap.Uint("article_id", id))
	return nil
}

func (p *Publisher) ArticleCreated(a *models.Article) error {
	return p.publish(ArticleCreatedSubject, a.ID, a)
}

func (p *Publisher) ArticleUpdated(a *models.Article) error {
	return p.publish(ArticleUpdatedSubject, a.ID, a)
}

func (p *Publisher) ArticlePublished(a *models.Article) error {
	return p.publish(ArticlePublishedSubject, a.ID, a)
}

func (p *Publisher) ArticleDeleted(id uint) error {
	return p.publish(ArticleDeletedSubject, id, DeletedEventPayload{ID: id})
}

// Close flushes buffered messages before closing the connection.
func (p *Publisher) Close() {
	if p.nc == nil || p.nc.IsClosed() {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Error("Error draining NATS connection", zap.Error(err))
	}
	p.nc.Close()
}
