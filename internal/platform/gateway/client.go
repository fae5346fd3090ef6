// Package gateway is the concrete chat-platform adapter: a websocket
// event stream for inbound traffic and an HTTP API for everything the
// relay sends back.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/config"
	"github.com/daialabs/daia/internal/model/platform"
)

// Handler receives decoded gateway events.
type Handler interface {
	Ready(ctx context.Context, self platform.Identity)
	Message(ctx context.Context, msg platform.Message)
}

// Client maintains the gateway connection and the platform HTTP API.
type Client struct {
	cfg  config.PlatformConfig
	http *http.Client
	log  zerolog.Logger
}

var (
	_ platform.Messenger            = (*Client)(nil)
	_ platform.MessageFetcher       = (*Client)(nil)
	_ platform.AttachmentDownloader = (*Client)(nil)
)

func New(cfg config.PlatformConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  log.With().Str("component", "gateway").Logger(),
	}
}

const (
	eventReady         = "ready"
	eventMessageCreate = "message_create"
)

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type readyPayload struct {
	User platform.User `json:"user"`
}

// Run dials the gateway and dispatches events until the connection
// drops or ctx is cancelled. Each inbound message is handled as its
// own task. There is no reconnect policy: a dropped connection ends
// the process.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	header := http.Header{}
	header.Set("Authorization", "Bot "+c.cfg.BotToken)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.GatewayURL, header)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblock the read loop when the context ends.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	c.log.Info().Str("url", c.cfg.GatewayURL).Msg("gateway connected")

	for {
		var ev event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read gateway event: %w", err)
		}

		switch ev.Type {
		case eventReady:
			var payload readyPayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				c.log.Warn().Err(err).Msg("malformed ready event")
				continue
			}
			handler.Ready(ctx, platform.Identity{UserID: payload.User.ID, Username: payload.User.Username})
		case eventMessageCreate:
			var msg platform.Message
			if err := json.Unmarshal(ev.Data, &msg); err != nil {
				c.log.Warn().Err(err).Msg("malformed message event")
				continue
			}
			go handler.Message(ctx, msg)
		default:
			c.log.Debug().Str("type", ev.Type).Msg("ignoring gateway event")
		}
	}
}
