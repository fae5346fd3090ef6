package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/config"
	"github.com/daialabs/daia/internal/model/convo"
	"github.com/daialabs/daia/internal/window"
)

// noResponse is returned when a reply carries no text block at all.
const noResponse = "(no response)"

// Completer sends assembled context windows to the chat model. Every
// call is a single attempt: no retries, no timeout.
type Completer struct {
	chatModel model.ChatModel
	modelName string
	log       zerolog.Logger
}

// NewCompleter builds the completion client for the configured model.
func NewCompleter(ctx context.Context, cfg config.AIConfig, modelName string, log zerolog.Logger) (*Completer, error) {
	chatModel, err := cfg.NewChatModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &Completer{
		chatModel: chatModel,
		modelName: modelName,
		log:       log.With().Str("component", "ai").Logger(),
	}, nil
}

// Complete renders the window in the model's message shape and
// returns the reply text.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, msgs []convo.Message, maxOutputTokens int) (string, error) {
	input := window.ChatMessages(systemPrompt, msgs)

	reply, err := c.chatModel.Generate(ctx, input, model.WithMaxTokens(maxOutputTokens))
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}

	text := ReplyText(reply)
	c.log.Debug().Str("model", c.modelName).Int("chars", len(text)).Msg("completion generated")
	return text, nil
}

// ReplyText extracts the reply text, tolerating both a flat content
// reply and a structured multi-part reply. A reply with no text block
// yields the fixed no-response sentinel rather than an error.
func ReplyText(reply *schema.Message) string {
	if reply == nil {
		return noResponse
	}
	if reply.Content != "" {
		return reply.Content
	}
	for _, part := range reply.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText && part.Text != "" {
			return part.Text
		}
	}
	return noResponse
}
