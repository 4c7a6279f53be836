// Package bot is the Telegram-facing transport layer. It turns updates into
// calls on the resolution/caching core and renders each typed outcome as a
// user-visible message.
package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/clipfetch/clipfetch"
	"github.com/clipfetch/clipfetch/internal/session"
	"github.com/clipfetch/clipfetch/internal/stats"
)

// Config collects the collaborators the transport needs.
type Config struct {
	Token    string
	Resolver *clipfetch.Resolver
	Fetcher  *clipfetch.Fetcher
	Sessions *session.Store
	Stats    stats.Recorder
}

type Bot struct {
	api      *tgbot.Bot
	resolver *clipfetch.Resolver
	fetcher  *clipfetch.Fetcher
	sessions *session.Store
	stats    stats.Recorder
	log      *zap.SugaredLogger
}

func New(cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	b := &Bot{
		resolver: cfg.Resolver,
		fetcher:  cfg.Fetcher,
		sessions: cfg.Sessions,
		stats:    cfg.Stats,
		log:      zap.S().Named("bot"),
	}
	if b.stats == nil {
		b.stats = stats.Nop{}
	}
	api, err := tgbot.New(cfg.Token, tgbot.WithDefaultHandler(b.handleMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, b.handleStart)
	api.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackPrefix, tgbot.MatchTypePrefix, b.handleQuality)
	b.api = api
	return b, nil
}

// Run starts long polling and blocks until ctx is cancelled. Each update is
// dispatched on its own goroutine by the bot library; requests do not
// serialize against each other.
func (b *Bot) Run(ctx context.Context) {
	b.log.Info("starting telegram bot")
	b.api.Start(ctx)
	b.log.Info("telegram bot stopped")
}
