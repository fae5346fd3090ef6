package relay

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/model/convo"
	"github.com/daialabs/daia/internal/model/platform"
	"github.com/daialabs/daia/internal/settings"
	"github.com/daialabs/daia/internal/trigger"
	"github.com/daialabs/daia/internal/window"
	"github.com/daialabs/daia/pkg/textrepair"
)

// apologyText is what the user sees when the completion API fails.
// It is also recorded as the assistant turn so later context stays
// consistent with what was actually said.
const apologyText = "Sorry, I had trouble generating a response."

// messageChunkLimit is the channel's message-size limit.
const messageChunkLimit = 1800

const readyAnnouncement = "LAALA online"

// Completer is the completion API as the relay consumes it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, msgs []convo.Message, maxOutputTokens int) (string, error)
}

// Deps carries the relay's collaborators.
type Deps struct {
	Settings    *settings.Store
	History     *history.Store
	Window      *window.Builder
	Detector    *trigger.Detector
	Completer   Completer
	Messenger   platform.Messenger
	Fetcher     platform.MessageFetcher
	Downloader  platform.AttachmentDownloader
	BrokenImage string
	Logger      zerolog.Logger
}

// Service orchestrates one relay turn: gate, ingest, window, complete,
// persist, send.
type Service struct {
	settings    *settings.Store
	history     *history.Store
	window      *window.Builder
	detector    *trigger.Detector
	completer   Completer
	messenger   platform.Messenger
	fetcher     platform.MessageFetcher
	downloader  platform.AttachmentDownloader
	brokenImage string
	self        platform.Identity
	log         zerolog.Logger
}

func New(deps Deps) *Service {
	return &Service{
		settings:    deps.Settings,
		history:     deps.History,
		window:      deps.Window,
		detector:    deps.Detector,
		completer:   deps.Completer,
		messenger:   deps.Messenger,
		fetcher:     deps.Fetcher,
		downloader:  deps.Downloader,
		brokenImage: deps.BrokenImage,
		log:         deps.Logger.With().Str("component", "relay").Logger(),
	}
}

// Ready records the relay's own identity and greets the admin channel.
func (s *Service) Ready(ctx context.Context, self platform.Identity) {
	s.self = self
	s.log.Info().Str("username", self.Username).Msg("logged in")
	s.AnnounceReady(ctx)
}

// Message handles one inbound platform message.
func (s *Service) Message(ctx context.Context, msg platform.Message) {
	s.HandleMessage(ctx, msg)
}

// HandleMessage processes one qualifying inbound message end to end.
// Every recoverable failure stays inside: the user only ever sees a
// chat message, never an error.
func (s *Service) HandleMessage(ctx context.Context, msg platform.Message) {
	if msg.Author.Bot {
		return
	}

	decision := s.detector.ShouldRespond(ctx, msg, s.self, s.fetcher)
	if !decision.Respond {
		return
	}

	items := s.buildContentItems(ctx, msg, decision.Primary)
	if err := s.history.Append(msg.ChannelID, convo.Message{Role: convo.RoleUser, Content: items}); err != nil {
		s.log.Error().Err(err).Str("channel", msg.ChannelID).Msg("append user turn failed")
	}

	if err := s.messenger.Typing(ctx, msg.ChannelID); err != nil {
		s.log.Debug().Err(err).Str("channel", msg.ChannelID).Msg("typing indicator failed")
	}

	reply := s.generate(ctx, msg.ChannelID)

	assistantTurn := convo.Message{Role: convo.RoleAssistant, Content: []convo.ContentItem{convo.TextItem(reply)}}
	if err := s.history.Append(msg.ChannelID, assistantTurn); err != nil {
		s.log.Error().Err(err).Str("channel", msg.ChannelID).Msg("append assistant turn failed")
	}

	s.sendLong(ctx, msg.ChannelID, reply)
}

// generate builds the context window and requests one completion.
// Any failure resolves to the fixed apology.
func (s *Service) generate(ctx context.Context, channelID string) string {
	systemPrompt, msgs, err := s.window.Build(channelID)
	if err != nil {
		s.log.Error().Err(err).Str("channel", channelID).Msg("context window build failed")
		return apologyText
	}

	reply, err := s.completer.Complete(ctx, systemPrompt, msgs, s.settings.Int(settings.KeyMaxResponseTokens))
	if err != nil {
		s.log.Error().Err(err).Str("channel", channelID).Msg("completion request failed")
		return apologyText
	}
	return reply
}

// AnnounceReady greets the admin channel and records the greeting as
// an assistant turn.
func (s *Service) AnnounceReady(ctx context.Context) {
	adminChannel := s.settings.String(settings.KeyAdminChannelID)
	if adminChannel == "" || adminChannel == "0" {
		return
	}
	if err := s.messenger.Send(ctx, adminChannel, readyAnnouncement); err != nil {
		s.log.Warn().Err(err).Msg("admin announcement failed")
		return
	}
	turn := convo.Message{Role: convo.RoleAssistant, Content: []convo.ContentItem{convo.TextItem(readyAnnouncement)}}
	if err := s.history.Append(adminChannel, turn); err != nil {
		s.log.Error().Err(err).Msg("append announcement turn failed")
	}
}

// sendLong delivers text in channel-sized chunks, repairing encoding
// artifacts per chunk. Sending stops at the first failure.
func (s *Service) sendLong(ctx context.Context, channelID, text string) {
	for _, chunk := range splitMessage(text, messageChunkLimit) {
		if err := s.messenger.Send(ctx, channelID, textrepair.Fix(chunk)); err != nil {
			s.log.Error().Err(err).Str("channel", channelID).Msg("send failed")
			return
		}
	}
}

// notify best-effort sends a user-visible warning.
func (s *Service) notify(ctx context.Context, channelID, text string) {
	if err := s.messenger.Send(ctx, channelID, text); err != nil {
		s.log.Debug().Err(err).Str("channel", channelID).Msg("warning delivery failed")
	}
}

// splitMessage slices text into chunks of at most limit bytes without
// cutting a rune in half.
func splitMessage(text string, limit int) []string {
	var chunks []string
	for len(text) > 0 {
		if len(text) <= limit {
			chunks = append(chunks, text)
			break
		}
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}
