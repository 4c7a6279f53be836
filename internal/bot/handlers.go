package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clipfetch/clipfetch"
	"github.com/clipfetch/clipfetch/internal/stats"
)

const startMessage = "Send me a Twitter/X post URL (https://x.com/... or https://twitter.com/...)\n" +
	"I will fetch available video qualities."

func (b *Bot) handleStart(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.send(ctx, update.Message.Chat.ID, startMessage)
}

// handleMessage handles free text: find a post URL, resolve it, and show the
// quality options.
func (b *Bot) handleMessage(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	log := b.log.With("request_id", uuid.NewString(), "chat_id", chatID)

	raw, ok := clipfetch.ExtractURL(update.Message.Text)
	if !ok {
		log.Debugw("no post URL in message")
		b.send(ctx, chatID, "Invalid or unsupported link.")
		return
	}
	url := clipfetch.Normalize(raw)

	status, err := api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   "Checking the post...",
	})
	if err != nil {
		log.Errorw("failed to send status message", "error", err)
		return
	}

	result, err := b.resolver.Resolve(ctx, url)
	if err != nil {
		log.Warnw("extraction failed", "url", url, "error", err)
		b.edit(ctx, chatID, status.ID, "An error occurred while fetching video info.")
		return
	}
	if len(result.Variants) == 0 {
		log.Infow("post has no downloadable video", "url", url, "media_type", result.MediaType)
		b.edit(ctx, chatID, status.ID, noVideoMessage(result.MediaType))
		return
	}

	b.sessions.Put(chatID, result.ContentID, url)
	_, err = api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   status.ID,
		Text:        optionsCaption(result),
		ReplyMarkup: qualityKeyboard(result),
	})
	if err != nil {
		log.Errorw("failed to show quality options", "error", err)
	}
}

// handleQuality handles a pressed quality button: recover the session context,
// obtain the file (from cache or by downloading) and deliver it.
func (b *Bot) handleQuality(ctx context.Context, api *tgbot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	chatID := cq.From.ID
	if cq.Message.Message != nil {
		chatID = cq.Message.Message.Chat.ID
	}
	log := b.log.With("request_id", uuid.NewString(), "chat_id", chatID)

	sel, err := parseSelection(cq.Data)
	if err != nil {
		log.Warnw("malformed callback data", "data", cq.Data)
		b.answer(ctx, cq.ID, "Invalid selection.", true)
		return
	}

	url, ok := b.sessions.Take(chatID, sel.ContentID)
	if !ok {
		log.Infow("session expired", "content_id", sel.ContentID)
		b.answer(ctx, cq.ID, "Session expired. Send the URL again.", true)
		return
	}
	b.answer(ctx, cq.ID, "Downloading...", false)

	path, err := b.fetcher.Obtain(ctx, clipfetch.FetchRequest{
		URL:          url,
		ContentID:    sel.ContentID,
		QualityLabel: sel.QualityLabel,
		FormatID:     sel.FormatID,
	})
	if err != nil {
		logObtainFailure(log, err)
		b.send(ctx, chatID, "An error occurred while downloading.")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Errorw("failed to open cached file", "path", path, "error", err)
		b.send(ctx, chatID, "An error occurred while downloading.")
		return
	}
	defer f.Close()

	_, err = api.SendVideo(ctx, &tgbot.SendVideoParams{
		ChatID:    chatID,
		Video:     &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:   "Quality: " + sel.QualityLabel,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.Errorw("failed to send video", "path", path, "error", err)
		return
	}

	b.stats.RecordAsync(stats.Stat{
		UserID:    strconv.FormatInt(cq.From.ID, 10),
		URL:       url,
		ContentID: sel.ContentID,
		Quality:   sel.QualityLabel,
	})
}

func logObtainFailure(log *zap.SugaredLogger, err error) {
	if errors.Is(err, clipfetch.ErrDownloadFailed) {
		log.Warnw("download failed", "error", err)
	} else {
		log.Errorw("obtain failed", "error", err)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) {
	_, err := b.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		b.log.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) edit(ctx context.Context, chatID int64, messageID int, text string) {
	_, err := b.api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	})
	if err != nil {
		b.log.Errorw("failed to edit message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string, alert bool) {
	_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		b.log.Errorw("failed to answer callback query", "error", err)
	}
}
