package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/daialabs/daia/internal/model/convo"
)

// Store is the file-backed channel history. All channels share one
// JSON file; every mutation rewrites the whole file. The mutex
// serializes concurrent completions on the same store so a racing
// append cannot be lost (a deliberate tightening of the source
// behavior, see DESIGN.md).
type Store struct {
	mu       sync.Mutex
	path     string
	channels map[string][]convo.Message
}

// Open loads the history file at path, coercing any legacy shape. A
// missing file starts an empty store; malformed content is never
// fatal.
func Open(path string) (*Store, error) {
	s := &Store{path: path, channels: map[string][]convo.Message{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	s.channels = Normalize(raw)
	return s, nil
}

// Append records a turn for the channel and persists the whole file.
// A new channel id starts an empty sequence implicitly.
func (s *Store) Append(channelID string, msg convo.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = convo.Now()
	}
	s.channels[channelID] = append(s.channels[channelID], msg)
	return s.save()
}

// Channel returns a copy of the stored sequence for the channel, in
// insertion (chronological) order.
func (s *Store) Channel(channelID string) []convo.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.channels[channelID]
	copied := make([]convo.Message, len(msgs))
	copy(copied, msgs)
	return copied
}

// Replace swaps a channel's sequence and persists it. Eviction uses
// this: the trimmed history becomes the new truth on disk.
func (s *Store) Replace(channelID string, msgs []convo.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channels[channelID] = msgs
	return s.save()
}

// Channels lists known channel ids, sorted.
func (s *Store) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.channels, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
