package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipfetch/clipfetch"
	"github.com/clipfetch/clipfetch/async"
	"github.com/clipfetch/clipfetch/internal/bot"
	"github.com/clipfetch/clipfetch/internal/session"
	"github.com/clipfetch/clipfetch/internal/stats"
	"github.com/clipfetch/clipfetch/internal/ytdlp"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if level, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		config.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "clipfetch",
		Usage: "telegram bot that serves social-media videos at a chosen quality",
		Action: func(c *cli.Context) error {
			return run(c.Context)
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.RunContext(ctx, os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

func run(ctx context.Context) error {
	logger := zap.S()

	cfg, err := clipfetch.LoadConfig()
	if err != nil {
		return err
	}

	engine := ytdlp.New(cfg.YTDLPPath,
		ytdlp.WithTimeout(cfg.EngineTimeout),
		ytdlp.WithRetries(cfg.EngineRetries),
	)
	resolver := clipfetch.NewResolver(engine)
	fetcher := clipfetch.NewFetcher(engine, cfg.CacheDir)

	sessions := session.NewStore(cfg.SessionTTL)
	defer sessions.Close()

	var recorder stats.Recorder = stats.Nop{}
	if store, err := stats.NewStore(cfg.StatsDBPath, zap.L()); err != nil {
		logger.Warnf("stats recording disabled: %v", err)
	} else {
		defer store.Close()
		recorder = store
	}

	b, err := bot.New(bot.Config{
		Token:    cfg.BotToken,
		Resolver: resolver,
		Fetcher:  fetcher,
		Sessions: sessions,
		Stats:    recorder,
	})
	if err != nil {
		return err
	}

	logger.Infof("serving downloads from cache at %s", cfg.CacheDir)
	b.Run(ctx)
	return nil
}
