package window

import (
	"fmt"

	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/model/convo"
	"github.com/daialabs/daia/internal/settings"
)

// TokenCounter is the counting dependency as the builder needs it.
type TokenCounter interface {
	Count(v any) int
}

// Builder assembles the eviction-trimmed, detail-annotated message
// sequence sent to the completion API.
type Builder struct {
	settings *settings.Store
	history  *history.Store
	counter  TokenCounter
}

func New(st *settings.Store, hist *history.Store, counter TokenCounter) *Builder {
	return &Builder{settings: st, history: hist, counter: counter}
}

// Build resolves the system prompt, evicts oldest entries until the
// running token total fits max_history_tokens, annotates image detail,
// persists the trimmed history, and returns the surviving sequence.
//
// Eviction is strictly FIFO with no partial-entry trimming: the
// newest entry is never removed while an older one remains, and a
// single oversized entry may legitimately leave the history empty.
// Token costs are recomputed on every call, never cached.
func (b *Builder) Build(channelID string) (string, []convo.Message, error) {
	systemPrompt := b.settings.SystemPrompt()
	budget := b.settings.Int(settings.KeyMaxHistoryTokens)

	msgs := b.history.Channel(channelID)
	total := b.counter.Count(systemPrompt)
	for _, msg := range msgs {
		total += b.counter.Count(msg.Content)
	}

	for len(msgs) > 0 && total > budget {
		total -= b.counter.Count(msgs[0].Content)
		msgs = msgs[1:]
	}

	msgs = annotateDetail(msgs,
		convo.Detail(b.settings.String(settings.KeyImageDetailLatest)),
		convo.Detail(b.settings.String(settings.KeyImageDetailHist)),
	)

	if err := b.history.Replace(channelID, msgs); err != nil {
		return "", nil, fmt.Errorf("persist trimmed history: %w", err)
	}
	return systemPrompt, msgs, nil
}

// annotateDetail gives the last surviving entry's images the latest
// detail level and every earlier entry's images the history level.
// Only the most recent turn's images deserve full fidelity; older
// images are context, not focus. Item slices are copied so stored
// state and returned state do not alias.
func annotateDetail(msgs []convo.Message, latest, historical convo.Detail) []convo.Message {
	out := make([]convo.Message, len(msgs))
	last := len(msgs) - 1
	for i, msg := range msgs {
		items := make([]convo.ContentItem, len(msg.Content))
		copy(items, msg.Content)
		for j, item := range items {
			if item.Type != convo.TypeImage {
				continue
			}
			ref := convo.ImageRef{}
			if item.ImageURL != nil {
				ref = *item.ImageURL
			}
			if i == last {
				ref.Detail = latest
			} else {
				ref.Detail = historical
			}
			items[j].ImageURL = &ref
		}
		msg.Content = items
		out[i] = msg
	}
	return out
}
