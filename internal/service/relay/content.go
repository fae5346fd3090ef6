package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/daialabs/daia/internal/model/convo"
	"github.com/daialabs/daia/internal/model/platform"
)

const emptyMessageText = "(empty message)"

const (
	brokenImageWarning      = "⚠️ One of the images appears to be corrupted and has been replaced with a placeholder."
	attachmentFailWarning   = "⚠️ Failed to process an image attachment."
)

// buildContentItems extracts the ordered content of an inbound
// message: its text, then each validated image attachment as an
// inline data URI. A primary trigger gets high-detail images at
// ingest; passive context gets low. Unreadable images become the
// placeholder payload plus a user-visible warning.
func (s *Service) buildContentItems(ctx context.Context, msg platform.Message, primary bool) []convo.ContentItem {
	var items []convo.ContentItem
	if msg.Content != "" {
		items = append(items, convo.TextItem(msg.Content))
	}

	var sources []string
	for _, att := range msg.Attachments {
		if !strings.HasPrefix(att.ContentType, "image/") {
			continue
		}

		data, err := s.downloader.Download(ctx, att)
		if err != nil {
			s.log.Error().Err(err).Str("channel", msg.ChannelID).Msg("attachment download failed")
			if s.brokenImage != "" {
				sources = append(sources, s.brokenImage)
			}
			s.notify(ctx, msg.ChannelID, attachmentFailWarning)
			continue
		}

		if err := validateImage(data); err != nil {
			s.log.Warn().Err(err).Str("channel", msg.ChannelID).Msg("invalid image attachment")
			if s.brokenImage != "" {
				sources = append(sources, s.brokenImage)
			}
			s.notify(ctx, msg.ChannelID, brokenImageWarning)
			continue
		}

		sources = append(sources, dataURI(att.ContentType, data))
	}

	detail := convo.DetailLow
	if primary {
		detail = convo.DetailHigh
	}
	for _, src := range sources {
		items = append(items, convo.ImageItem(src, detail))
	}

	if len(items) == 0 {
		items = append(items, convo.TextItem(emptyMessageText))
	}
	return items
}

// validateImage checks that the bytes decode as a known image format.
func validateImage(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode image config: %w", err)
	}
	return nil
}

func dataURI(contentType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
