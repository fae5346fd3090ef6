package window

import (
	"github.com/cloudwego/eino/schema"

	"github.com/daialabs/daia/internal/model/convo"
)

// The two transmission shapes below are alternate serializations of
// the same canonical sequence; which one travels depends on the
// completion API generation.

// ChatMessages renders the window in the chat-model shape: the system
// prompt first, then each turn as a role-tagged message. A turn that
// is a single text item travels as plain content; anything else
// travels as multimodal parts.
func ChatMessages(systemPrompt string, msgs []convo.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(msgs)+1)
	out = append(out, schema.SystemMessage(systemPrompt))

	for _, msg := range msgs {
		if len(msg.Content) == 1 && msg.Content[0].Type == convo.TypeText {
			out = append(out, &schema.Message{Role: chatRole(msg.Role), Content: msg.Content[0].Text})
			continue
		}

		parts := make([]schema.ChatMessagePart, 0, len(msg.Content))
		for _, item := range msg.Content {
			switch item.Type {
			case convo.TypeText:
				parts = append(parts, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeText,
					Text: item.Text,
				})
			case convo.TypeImage:
				if item.ImageURL == nil {
					continue
				}
				parts = append(parts, schema.ChatMessagePart{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:    item.ImageURL.URL,
						Detail: schema.ImageURLDetail(item.ImageURL.Detail),
					},
				})
			}
		}
		out = append(out, &schema.Message{Role: chatRole(msg.Role), MultiContent: parts})
	}
	return out
}

func chatRole(role convo.Role) schema.RoleType {
	switch role {
	case convo.RoleAssistant:
		return schema.Assistant
	case convo.RoleSystem:
		return schema.System
	default:
		return schema.User
	}
}

// InputItem is the responses-style transmission shape: a role-tagged
// message whose content blocks distinguish input text, output text,
// and input images.
type InputItem struct {
	Type    string         `json:"type"`
	Role    string         `json:"role"`
	Content []InputContent `json:"content"`
}

// InputContent is one block of an InputItem.
type InputContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ImagePayload `json:"image_url,omitempty"`
}

// ImagePayload carries an image source and its detail hint.
type ImagePayload struct {
	URL    string       `json:"url,omitempty"`
	Detail convo.Detail `json:"detail,omitempty"`
}

// InputItems renders the window in the responses shape. Assistant
// text becomes output_text, everything else input_text; images become
// input_image. Turns left with no renderable blocks are skipped.
func InputItems(msgs []convo.Message) []InputItem {
	items := make([]InputItem, 0, len(msgs))
	for _, msg := range msgs {
		content := make([]InputContent, 0, len(msg.Content))
		for _, item := range msg.Content {
			switch item.Type {
			case convo.TypeText:
				kind := "input_text"
				if msg.Role == convo.RoleAssistant {
					kind = "output_text"
				}
				content = append(content, InputContent{Type: kind, Text: item.Text})
			case convo.TypeImage:
				if item.ImageURL == nil {
					continue
				}
				content = append(content, InputContent{
					Type:     "input_image",
					ImageURL: &ImagePayload{URL: item.ImageURL.URL, Detail: item.ImageURL.Detail},
				})
			}
		}
		if len(content) == 0 {
			continue
		}
		items = append(items, InputItem{Type: "message", Role: string(msg.Role), Content: content})
	}
	return items
}
