package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/settings"
	"github.com/daialabs/daia/internal/window"
	"github.com/daialabs/daia/pkg/utils"
)

// Handler exposes relay internals read-only for operators.
type Handler struct {
	settings *settings.Store
	history  *history.Store
	window   *window.Builder
	log      zerolog.Logger
}

func New(st *settings.Store, hist *history.Store, win *window.Builder, log zerolog.Logger) *Handler {
	return &Handler{settings: st, history: hist, window: win, log: log.With().Str("component", "admin").Logger()}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleSettings)
	r.Get("/channels", h.handleChannels)
	r.Get("/history/{channelID}", h.handleHistory)
	r.Get("/context/{channelID}", h.handleContext)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.settings.All())
}

func (h *Handler) handleChannels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"channels": h.history.Channels()})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"channel":  channelID,
		"messages": h.history.Channel(channelID),
	})
}

// handleContext previews what the completion API would receive for a
// channel, in the responses transmission shape. Building the window
// trims and persists the channel's history, exactly as a real turn
// would.
func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	systemPrompt, msgs, err := h.window.Build(channelID)
	if err != nil {
		h.log.Error().Err(err).Str("channel", channelID).Msg("context build failed")
		utils.RespondError(w, http.StatusInternalServerError, "context build failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"channel":       channelID,
		"system_prompt": systemPrompt,
		"input":         window.InputItems(msgs),
	})
}
