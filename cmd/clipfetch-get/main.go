package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clipfetch/clipfetch"
	"github.com/clipfetch/clipfetch/async"
	"github.com/clipfetch/clipfetch/internal/ytdlp"
)

// clipfetch-get resolves a post URL and downloads one variant through the same
// cache the bot serves from, for use from the terminal.
func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "clipfetch-get",
		Usage: "download a single post's video at a chosen quality",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "target",
				Value: ".",
				Usage: "cache downloaded videos under `DIR`",
			},
			&cli.StringFlag{
				Name:  "quality",
				Usage: "quality label to download (e.g. 720p); defaults to the best available",
			},
			&cli.StringFlag{
				Name:  "ytdlp",
				Value: "yt-dlp",
				Usage: "path to the yt-dlp binary",
			},
		},
		Action: func(c *cli.Context) error {
			for _, url := range c.Args().Slice() {
				if err := get(c.Context, c.String("ytdlp"), url, c.String("quality"), c.String("target")); err != nil {
					return err
				}
			}
			return nil
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

func get(ctx context.Context, ytdlpPath, rawURL, quality, target string) error {
	url, ok := clipfetch.ExtractURL(rawURL)
	if !ok {
		return fmt.Errorf("%w: %s", clipfetch.ErrInvalidURL, rawURL)
	}

	engine := ytdlp.New(ytdlpPath)
	resolver := clipfetch.NewResolver(engine)
	fetcher := clipfetch.NewFetcher(engine, target)

	result, err := resolver.Resolve(ctx, url)
	if err != nil {
		return err
	}
	if len(result.Variants) == 0 {
		return fmt.Errorf("no downloadable video (media type %q)", result.MediaType)
	}

	variant := result.Variants[0]
	if quality != "" {
		found := false
		for _, v := range result.Variants {
			if v.QualityLabel == quality {
				variant, found = v, true
				break
			}
		}
		if !found {
			return fmt.Errorf("no %s variant; available: %v", quality, labels(result.Variants))
		}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("%s [%s]", result.ContentID, variant.QualityLabel)),
		progressbar.OptionSpinnerType(14),
	)
	obtained := async.RunResult(func() (string, error) {
		return fetcher.Obtain(ctx, clipfetch.FetchRequest{
			URL:          url,
			ContentID:    result.ContentID,
			QualityLabel: variant.QualityLabel,
			FormatID:     variant.FormatID,
		})
	})
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case res := <-obtained:
			_ = bar.Finish()
			fmt.Println()
			path, err := res.Parts()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}

func labels(variants []clipfetch.VideoVariant) []string {
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, v.QualityLabel)
	}
	return out
}
