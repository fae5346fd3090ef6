package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/daialabs/daia/internal/config"
	"github.com/daialabs/daia/internal/handler"
	"github.com/daialabs/daia/internal/history"
	"github.com/daialabs/daia/internal/platform/gateway"
	"github.com/daialabs/daia/internal/service/ai"
	"github.com/daialabs/daia/internal/service/relay"
	"github.com/daialabs/daia/internal/settings"
	"github.com/daialabs/daia/internal/tokens"
	"github.com/daialabs/daia/internal/trigger"
	"github.com/daialabs/daia/internal/window"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("no .env file, using system environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Platform.BotToken == "" {
		logger.Fatal().Msg("BOT_TOKEN is not set")
	}
	if !cfg.AI.Enabled() {
		logger.Fatal().Msg("completion credentials are not set (ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY)")
	}

	st, err := settings.Load(cfg.DataDir, cfg.ConfigDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load settings")
	}

	hist, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open history")
	}

	modelName := st.String(settings.KeyModelName)
	counter := tokens.NewCounter(modelName)
	win := window.New(st, hist, counter)

	completer, err := ai.NewCompleter(ctx, cfg.AI, modelName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create completion client")
	}

	client := gateway.New(cfg.Platform, logger)
	svc := relay.New(relay.Deps{
		Settings:    st,
		History:     hist,
		Window:      win,
		Detector:    trigger.New(st, logger),
		Completer:   completer,
		Messenger:   client,
		Fetcher:     client,
		Downloader:  client,
		BrokenImage: loadBrokenImage(cfg.BrokenImagePath()),
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           handler.NewRouter(st, hist, win, logger),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Admin.Addr).Msg("admin API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	runErr := client.Run(ctx, svc)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Fatal().Err(runErr).Msg("gateway connection ended")
	}
}

// loadBrokenImage reads the optional placeholder payload substituted
// for unreadable image attachments.
func loadBrokenImage(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

var _ gateway.Handler = (*relay.Service)(nil)
