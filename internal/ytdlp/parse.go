package ytdlp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clipfetch/clipfetch"
	"github.com/clipfetch/clipfetch/generic"
)

var errNoMetadata = errors.New("engine returned no usable metadata")

type infoJSON struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Uploader      string          `json:"uploader"`
	UploaderID    string          `json:"uploader_id"`
	Channel       string          `json:"channel"`
	UploadDate    string          `json:"upload_date"`
	Description   string          `json:"description"`
	Formats       []formatJSON    `json:"formats"`
	Thumbnails    []thumbnailJSON `json:"thumbnails"`
	MediaURLs     []string        `json:"media_urls"`
	Entries       []*infoJSON     `json:"entries"`
	IsAnimatedGIF bool            `json:"is_animated_gif"`
	AnimatedGIF   bool            `json:"animated_gif"`
}

type formatJSON struct {
	FormatID       string `json:"format_id"`
	Ext            string `json:"ext"`
	VCodec         string `json:"vcodec"`
	Height         int    `json:"height"`
	Filesize       *int64 `json:"filesize"`
	FilesizeApprox *int64 `json:"filesize_approx"`
}

type thumbnailJSON struct {
	URL string `json:"url"`
}

func parseInfo(data []byte) (*clipfetch.RawInfo, error) {
	var info infoJSON
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoMetadata, err)
	}

	root := &info
	// A thread/playlist-like container resolves to its first item only.
	for _, e := range info.Entries {
		if e != nil {
			root = e
			break
		}
	}

	if root.ID == "" && len(root.Formats) == 0 && len(root.Thumbnails) == 0 && len(root.MediaURLs) == 0 {
		return nil, errNoMetadata
	}

	raw := &clipfetch.RawInfo{
		ID:          root.ID,
		Title:       root.Title,
		Uploader:    firstNonEmpty(root.Uploader, root.Channel, root.UploaderID),
		UploadDate:  root.UploadDate,
		Description: root.Description,
		AnimatedGIF: root.IsAnimatedGIF || root.AnimatedGIF,
		HasImages:   len(root.Thumbnails) > 0 || len(root.MediaURLs) > 0,
	}
	raw.Formats = make([]clipfetch.RawFormat, 0, len(root.Formats))
	for _, f := range root.Formats {
		rf := clipfetch.RawFormat{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			VideoCodec: f.VCodec,
			Height:     f.Height,
		}
		switch {
		case f.Filesize != nil:
			rf.Filesize = generic.Some(*f.Filesize)
		case f.FilesizeApprox != nil:
			rf.Filesize = generic.Some(*f.FilesizeApprox)
		default:
			rf.Filesize = generic.None[int64]()
		}
		raw.Formats = append(raw.Formats, rf)
	}
	return raw, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
