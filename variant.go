package clipfetch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clipfetch/clipfetch/generic"
)

// MediaType classifies what a post's primary media item turned out to be.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeGIF   MediaType = "gif"
	MediaTypePhoto MediaType = "photo"
	MediaTypeNone  MediaType = "none"
)

// VideoVariant is one downloadable encoding of a post's video. FormatID is
// opaque, understood only by the extraction engine.
type VideoVariant struct {
	FormatID     string
	QualityLabel string
	Ext          string
	Filesize     generic.Option[int64]
}

// ExtractResult is the immutable result of resolving one post. An empty
// Variants list is a valid result meaning "no video present", distinct from an
// extraction failure.
type ExtractResult struct {
	ContentID   string
	Title       string
	Uploader    string
	UploadDate  string
	Description string
	MediaType   MediaType
	Variants    []VideoVariant
}

// RawFormat is one candidate encoding as reported by the extraction engine,
// before labelling and deduplication.
type RawFormat struct {
	FormatID   string
	Ext        string
	VideoCodec string
	Height     int
	Filesize   generic.Option[int64]
}

// RawInfo is the engine's report for a post. Multi-item posts are collapsed to
// their first item before this is built.
type RawInfo struct {
	ID          string
	Title       string
	Uploader    string
	UploadDate  string
	Description string
	AnimatedGIF bool
	HasImages   bool
	Formats     []RawFormat
}

// Extractor is the metadata-discovery half of the external engine boundary.
type Extractor interface {
	Probe(ctx context.Context, url string) (*RawInfo, error)
}

// Containers the engine can hand us that we are willing to serve.
var acceptedContainers = generic.NewSet("mp4", "webm")

// Preference order for quality labels; labels outside this table rank after
// all recognized ones.
var qualityOrder = []int{1080, 720, 480, 360, 240}

// Resolver turns raw extractor output into an ordered, deduplicated list of
// downloadable variants plus post metadata.
type Resolver struct {
	extractor Extractor
	log       *zap.SugaredLogger
}

func NewResolver(extractor Extractor) *Resolver {
	return &Resolver{
		extractor: extractor,
		log:       zap.S().Named("resolver"),
	}
}

// Resolve probes the normalized URL and builds an ExtractResult. The engine
// yielding nothing usable is an ExtractionError; a post with no video is not.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*ExtractResult, error) {
	url := Normalize(rawURL)
	info, err := r.extractor.Probe(ctx, url)
	if err != nil {
		return nil, &ExtractionError{MediaType: MediaTypeNone, Reason: err}
	}

	videoFormats := make([]RawFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f.VideoCodec != "" && f.VideoCodec != "none" && acceptedContainers.Contains(f.Ext) {
			videoFormats = append(videoFormats, f)
		}
	}

	mediaType := MediaTypeNone
	switch {
	case len(videoFormats) > 0:
		mediaType = MediaTypeVideo
	case info.AnimatedGIF:
		mediaType = MediaTypeGIF
	case info.HasImages:
		mediaType = MediaTypePhoto
	}

	variants := make([]VideoVariant, 0, len(videoFormats))
	for _, f := range videoFormats {
		if f.Height <= 0 {
			// No height means no reliable quality label.
			continue
		}
		variants = append(variants, VideoVariant{
			FormatID:     f.FormatID,
			QualityLabel: fmt.Sprintf("%dp", f.Height),
			Ext:          f.Ext,
			Filesize:     f.Filesize,
		})
	}
	variants = dedupeVariants(variants)
	sortVariants(variants)

	contentID := info.ID
	if contentID == "" {
		contentID = "video"
	}

	result := &ExtractResult{
		ContentID:   contentID,
		Title:       info.Title,
		Uploader:    info.Uploader,
		UploadDate:  info.UploadDate,
		Description: info.Description,
		MediaType:   mediaType,
		Variants:    variants,
	}
	r.log.Debugw("resolved post",
		"content_id", result.ContentID,
		"media_type", result.MediaType,
		"variants", len(result.Variants),
	)
	return result, nil
}

// dedupeVariants keeps at most one variant per quality label: the one with the
// strictly larger known filesize. When both filesizes are unknown the first
// encountered wins.
func dedupeVariants(variants []VideoVariant) []VideoVariant {
	best := make(map[string]VideoVariant, len(variants))
	labels := make([]string, 0, len(variants))
	for _, v := range variants {
		existing, ok := best[v.QualityLabel]
		if !ok {
			best[v.QualityLabel] = v
			labels = append(labels, v.QualityLabel)
			continue
		}
		if v.Filesize.UnwrapOr(0) > existing.Filesize.UnwrapOr(0) {
			best[v.QualityLabel] = v
		}
	}
	result := make([]VideoVariant, 0, len(best))
	for _, label := range labels {
		result = append(result, best[label])
	}
	return result
}

// sortVariants orders by the fixed quality preference table, ties broken by
// descending filesize.
func sortVariants(variants []VideoVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		ri, rj := qualityRank(variants[i].QualityLabel), qualityRank(variants[j].QualityLabel)
		if ri != rj {
			return ri < rj
		}
		return variants[i].Filesize.UnwrapOr(0) > variants[j].Filesize.UnwrapOr(0)
	})
}

func qualityRank(label string) int {
	height, err := strconv.Atoi(strings.TrimSuffix(label, "p"))
	if err != nil {
		return len(qualityOrder)
	}
	for i, h := range qualityOrder {
		if h == height {
			return i
		}
	}
	return len(qualityOrder)
}
