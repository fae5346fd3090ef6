package history

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/daialabs/daia/internal/model/convo"
)

// botAliases are author display names treated as the assistant when a
// legacy entry carries no role.
var botAliases = map[string]struct{}{
	"laala": {},
	"daia":  {},
}

// defaultChannel receives entries from the oldest on-disk shape, a
// flat list with no channel keys.
const defaultChannel = "default"

// Normalize coerces any of the legacy on-disk history shapes into the
// canonical channel map: a flat entry list maps to the default
// channel, a channel map is normalized per channel, and anything else
// yields an empty map. It never fails.
func Normalize(raw []byte) map[string][]convo.Message {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return map[string][]convo.Message{}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err == nil {
		msgs := make([]convo.Message, 0, len(entries))
		for _, entry := range entries {
			msgs = append(msgs, NormalizeEntry(entry))
		}
		return map[string][]convo.Message{defaultChannel: msgs}
	}

	var channels map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &channels); err != nil {
		return map[string][]convo.Message{}
	}

	normalized := make(map[string][]convo.Message, len(channels))
	for channelID, rawEntries := range channels {
		var list []json.RawMessage
		if err := json.Unmarshal(rawEntries, &list); err != nil {
			normalized[channelID] = []convo.Message{}
			continue
		}
		msgs := make([]convo.Message, 0, len(list))
		for _, entry := range list {
			msgs = append(msgs, NormalizeEntry(entry))
		}
		normalized[channelID] = msgs
	}
	return normalized
}

// NormalizeEntry coerces a single stored entry to the canonical
// schema. Already-canonical entries pass through unchanged apart from
// default-filling absent optional fields.
func NormalizeEntry(raw json.RawMessage) convo.Message {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return convo.Message{
			Role:      convo.RoleUser,
			Content:   []convo.ContentItem{convo.TextItem(scalarText(raw))},
			Timestamp: convo.Now(),
		}
	}

	entry := convo.Message{
		Role:      decodeRole(fields),
		Content:   decodeContent(fields),
		Timestamp: convo.Now(),
	}
	if idRaw, ok := fields["id"]; ok {
		var id string
		if json.Unmarshal(idRaw, &id) == nil {
			entry.ID = id
		}
	}
	if tsRaw, ok := fields["timestamp"]; ok {
		var ts string
		if json.Unmarshal(tsRaw, &ts) == nil && ts != "" {
			entry.Timestamp = ts
		}
	}
	return entry
}

// scalarText renders a non-object entry as text.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// decodeRole keeps an explicit role; absent one, the author-alias
// heuristic decides.
func decodeRole(fields map[string]json.RawMessage) convo.Role {
	if raw, ok := fields["role"]; ok {
		var role string
		if json.Unmarshal(raw, &role) == nil && role != "" {
			return convo.Role(role)
		}
	}

	var username string
	if raw, ok := fields["username"]; ok {
		_ = json.Unmarshal(raw, &username)
	}
	if _, ok := botAliases[strings.ToLower(username)]; ok {
		return convo.RoleAssistant
	}
	return convo.RoleUser
}

func decodeContent(fields map[string]json.RawMessage) []convo.ContentItem {
	raw, ok := fields["content"]
	if !ok || isNull(raw) {
		return legacyContent(fields)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []convo.ContentItem{convo.TextItem(text)}
	}

	var items []convo.ContentItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}
	return []convo.ContentItem{}
}

// legacyContent synthesizes content from the flat pre-canonical
// fields: text, image_url (singular), image_urls (plural).
func legacyContent(fields map[string]json.RawMessage) []convo.ContentItem {
	items := []convo.ContentItem{}
	if raw, ok := fields["text"]; ok {
		var text string
		_ = json.Unmarshal(raw, &text)
		items = append(items, convo.TextItem(text))
	}
	if raw, ok := fields["image_url"]; ok {
		var url string
		if json.Unmarshal(raw, &url) == nil && url != "" {
			items = append(items, convo.ImageItem(url, convo.DetailLow))
		}
	}
	if raw, ok := fields["image_urls"]; ok {
		var urls []string
		if json.Unmarshal(raw, &urls) == nil {
			for _, url := range urls {
				items = append(items, convo.ImageItem(url, convo.DetailLow))
			}
		}
	}
	return items
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
