package platform

import "context"

// User identifies a chat-platform account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Identity is the relay's own account as reported by the gateway.
type Identity struct {
	UserID   string
	Username string
}

// Attachment is a file attached to an inbound message.
type Attachment struct {
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// Reference links a message to the one it replies to. Resolved may be
// populated by the gateway; otherwise it is fetched on demand.
type Reference struct {
	ChannelID string   `json:"channel_id,omitempty"`
	MessageID string   `json:"message_id"`
	Resolved  *Message `json:"resolved,omitempty"`
}

// Message is an inbound chat-platform message as the relay consumes it.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	GuildID     string       `json:"guild_id,omitempty"`
	Author      User         `json:"author"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Mentions    []string     `json:"mentions,omitempty"`
	Reference   *Reference   `json:"reference,omitempty"`
	Thread      bool         `json:"thread,omitempty"`
}

// MentionsUser reports whether the given user id appears in the
// message's mention list.
func (m Message) MentionsUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range m.Mentions {
		if id == userID {
			return true
		}
	}
	return false
}

// Messenger sends text and typing indicators into a channel.
type Messenger interface {
	Send(ctx context.Context, channelID, text string) error
	Typing(ctx context.Context, channelID string) error
}

// MessageFetcher resolves a message by id, used for reply references.
type MessageFetcher interface {
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
}

// AttachmentDownloader retrieves attachment bytes.
type AttachmentDownloader interface {
	Download(ctx context.Context, att Attachment) ([]byte, error)
}
