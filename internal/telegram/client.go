// Package telegram hosts the Telegram client, routing, and handlers.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"valley_bot/internal/config"
	"valley_bot/internal/logging"
)

type botRunner interface {
	Start(ctx context.Context)
}

var (
	defaultAllowedUpdates = bot.AllowedUpdates{
		"message",
		"callback_query",
		"my_chat_member",
	}

	createBot = func(token string, options ...bot.Option) (botRunner, error) {
		return bot.New(token, options...)
	}
)

// Client wraps the Telegram bot instance and logging dependencies.
type Client struct {
	bot    botRunner
	router *Router
	logger *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithRouter dispatches every update through r.
func WithRouter(r *Router) Option {
	return func(c *Client) {
		c.router = r
	}
}

// NewClient initializes the Telegram bot with long polling and default handlers.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	c := &Client{logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	tgBot, err := createBot(cfg.TelegramToken,
		bot.WithAllowedUpdates(defaultAllowedUpdates),
		bot.WithDefaultHandler(defaultHandler(logger, c.router)),
		bot.WithErrorsHandler(errorHandler(logger)),
	)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot client: %w", err)
	}
	c.bot = tgBot

	return c, nil
}

// Start begins receiving updates via long polling until the context is canceled.
func (c *Client) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger.WithFields(logging.Fields{
		"event":           "telegram_listen",
		"allowed_updates": defaultAllowedUpdates,
	}).Info("starting telegram long polling")

	c.bot.Start(ctx)

	c.logger.WithField("event", "telegram_stopped").Info("telegram polling stopped")
}

func defaultHandler(logger *logrus.Entry, router *Router) bot.HandlerFunc {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update == nil {
			return
		}

		ev := extractEvent(update)

		entry := logging.ForChat(logger, logging.Chat{
			Event:  "telegram_update",
			ChatID: ev.ChatID,
			UserID: ev.UserID,
		}).WithField("update_type", ev.UpdateType)
		if ev.ChatID != 0 {
			entry = entry.WithField("owner", ev.Owner().String())
		}
		if ev.Text != "" {
			entry = entry.WithField("text", ev.Text)
		}
		entry.Debug("telegram update received")

		if router == nil || b == nil {
			return
		}
		router.Dispatch(ctx, b, ev)
	}
}

func errorHandler(logger *logrus.Entry) bot.ErrorsHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return func(err error) {
		if err == nil {
			return
		}

		logger.WithField("event", "telegram_error").WithError(err).Error("telegram polling error")
	}
}
