package trigger

import (
	"context"
	"regexp"
	"sync"

	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/model/platform"
	"github.com/daialabs/daia/internal/settings"
)

// Decision reports whether the relay should answer a message and
// whether it was explicitly called (mention, pattern, or reply).
// Primary drives the ingest-time image detail choice; the build-time
// latest/history split is an independent policy.
type Decision struct {
	Respond bool
	Primary bool
}

// Detector decides which inbound messages the relay answers.
type Detector struct {
	settings *settings.Store
	log      zerolog.Logger

	mu      sync.Mutex
	pattern string
	re      *regexp.Regexp
}

func New(st *settings.Store, log zerolog.Logger) *Detector {
	return &Detector{settings: st, log: log.With().Str("component", "trigger").Logger()}
}

// ShouldRespond applies the channel gate, then the trigger checks:
// explicit mention, pattern match, or reply to one of the relay's own
// messages. Reply-reference lookups that fail count as absence of
// that signal, never as an error.
func (d *Detector) ShouldRespond(ctx context.Context, msg platform.Message, self platform.Identity, fetcher platform.MessageFetcher) Decision {
	if !d.channelAllowed(msg) {
		return Decision{}
	}

	called := msg.MentionsUser(self.UserID) || d.patternMatches(msg.Content)
	replyToBot := d.isReplyToBot(ctx, msg, self, fetcher)
	if !called && !replyToBot {
		return Decision{}
	}
	return Decision{Respond: true, Primary: true}
}

// channelAllowed passes all channels when configured so, allow-listed
// channels, and any thread regardless of the allow-list.
func (d *Detector) channelAllowed(msg platform.Message) bool {
	if d.settings.Bool(settings.KeyAllChannels) {
		return true
	}
	for _, id := range d.settings.StringList(settings.KeyChannelIDs) {
		if id == msg.ChannelID {
			return true
		}
	}
	return msg.Thread
}

func (d *Detector) patternMatches(text string) bool {
	pattern := d.settings.String(settings.KeyPattern)
	if pattern == "" || text == "" {
		return false
	}

	d.mu.Lock()
	if pattern != d.pattern {
		re, err := regexp.Compile(pattern)
		if err != nil {
			d.log.Warn().Str("pattern", pattern).Err(err).Msg("trigger pattern does not compile, treating as never matching")
		}
		d.pattern = pattern
		d.re = re
	}
	re := d.re
	d.mu.Unlock()

	return re != nil && re.MatchString(text)
}

func (d *Detector) isReplyToBot(ctx context.Context, msg platform.Message, self platform.Identity, fetcher platform.MessageFetcher) bool {
	ref := msg.Reference
	if ref == nil {
		return false
	}

	resolved := ref.Resolved
	if resolved == nil && ref.MessageID != "" && fetcher != nil {
		channelID := ref.ChannelID
		if channelID == "" {
			channelID = msg.ChannelID
		}
		fetched, err := fetcher.FetchMessage(ctx, channelID, ref.MessageID)
		if err != nil {
			d.log.Debug().Err(err).Str("message", ref.MessageID).Msg("could not resolve reply reference")
			return false
		}
		resolved = fetched
	}
	return resolved != nil && resolved.Author.ID == self.UserID
}
