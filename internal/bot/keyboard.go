package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/clipfetch/clipfetch"
)

const (
	callbackPrefix = "q:"
	buttonsPerRow  = 3
)

type selection struct {
	ContentID    string
	FormatID     string
	QualityLabel string
}

func encodeSelection(contentID, formatID, label string) string {
	return callbackPrefix + contentID + ":" + formatID + ":" + label
}

func parseSelection(data string) (selection, error) {
	parts := strings.SplitN(data, ":", 4)
	if len(parts) != 4 || parts[0]+":" != callbackPrefix {
		return selection{}, fmt.Errorf("malformed callback data %q", data)
	}
	return selection{
		ContentID:    parts[1],
		FormatID:     parts[2],
		QualityLabel: parts[3],
	}, nil
}

// qualityKeyboard lays the resolved variants out as inline buttons, preserving
// the resolver's ranking.
func qualityKeyboard(result *clipfetch.ExtractResult) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	var row []models.InlineKeyboardButton
	for _, v := range result.Variants {
		row = append(row, models.InlineKeyboardButton{
			Text:         buttonText(v),
			CallbackData: encodeSelection(result.ContentID, v.FormatID, v.QualityLabel),
		})
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func buttonText(v clipfetch.VideoVariant) string {
	if v.Filesize.IsSome() {
		return v.QualityLabel + " · " + humanSize(v.Filesize.Unwrap())
	}
	return v.QualityLabel
}

func optionsCaption(result *clipfetch.ExtractResult) string {
	var lines []string
	if result.Uploader != "" {
		lines = append(lines, "Author: "+result.Uploader)
	}
	if result.Title != "" {
		lines = append(lines, "Title: "+result.Title)
	}
	if result.UploadDate != "" {
		lines = append(lines, "Date: "+result.UploadDate)
	}
	lines = append(lines, "Choose video quality:")
	return strings.Join(lines, "\n")
}

func noVideoMessage(mediaType clipfetch.MediaType) string {
	switch mediaType {
	case clipfetch.MediaTypeGIF:
		return "This post contains an animated GIF, which is not supported."
	case clipfetch.MediaTypePhoto:
		return "This post only contains photos, there is no video to download."
	default:
		return "This post does not contain a video."
	}
}

func humanSize(numBytes int64) string {
	const step = 1024.0
	size := float64(numBytes)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if size < step {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= step
	}
	return fmt.Sprintf("%.1f PB", size)
}
