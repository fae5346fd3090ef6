package convo

import "time"

// Role identifies the speaker of a message. Once set on an entry it is
// never re-derived.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Detail is the image fidelity hint forwarded to the completion API.
type Detail string

const (
	DetailLow  Detail = "low"
	DetailHigh Detail = "high"
)

// Content item kinds. Items with an unrecognized kind survive decoding
// but carry no payload and cost no tokens.
const (
	TypeText  = "text"
	TypeImage = "image_url"
)

// ImageRef points at an image by URL or inline data URI.
type ImageRef struct {
	URL    string `json:"url"`
	Detail Detail `json:"detail,omitempty"`
}

// ContentItem is one ordered slot of a message. Exactly one payload
// kind is populated; ordering within a message is meaningful.
type ContentItem struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// TextItem wraps plain text as a content item.
func TextItem(text string) ContentItem {
	return ContentItem{Type: TypeText, Text: text}
}

// ImageItem wraps an image source and detail hint as a content item.
func ImageItem(url string, detail Detail) ContentItem {
	return ContentItem{Type: TypeImage, ImageURL: &ImageRef{URL: url, Detail: detail}}
}

// Message is the canonical schema every history entry converges to.
type Message struct {
	ID        string        `json:"id,omitempty"`
	Role      Role          `json:"role"`
	Content   []ContentItem `json:"content"`
	Timestamp string        `json:"timestamp"`
}

// Now returns the canonical timestamp for new entries.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
