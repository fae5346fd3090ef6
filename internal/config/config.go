package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates process-level configuration read from the
// environment. Runtime behavior settings live in the settings store.
type Config struct {
	DataDir   string
	ConfigDir string
	Platform  PlatformConfig
	AI        AIConfig
	Admin     AdminConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	admin, err := loadAdminConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:   getEnvOrDefault("DATA_DIR", "data"),
		ConfigDir: getEnvOrDefault("CONFIG_DIR", "config"),
		Platform:  loadPlatformConfig(),
		AI:        ai,
		Admin:     admin,
	}, nil
}

// HistoryPath is the channel-history file shared by the whole process.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "daia_history.json")
}

// BrokenImagePath holds the reusable placeholder payload substituted
// for unreadable image attachments.
func (c *Config) BrokenImagePath() string {
	return filepath.Join(c.ConfigDir, "brokenimage.txt")
}

// PlatformConfig describes the chat-platform connection.
type PlatformConfig struct {
	BotToken   string
	GatewayURL string
	APIBaseURL string
}

func loadPlatformConfig() PlatformConfig {
	return PlatformConfig{
		BotToken:   strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		GatewayURL: getEnvOrDefault("PLATFORM_GATEWAY_URL", "wss://gateway.daiachat.dev/v1"),
		APIBaseURL: getEnvOrDefault("PLATFORM_API_URL", "https://api.daiachat.dev/v1"),
	}
}

// AdminConfig describes the read-only admin HTTP surface.
type AdminConfig struct {
	Addr string
}

func loadAdminConfig() (AdminConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return AdminConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return AdminConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return AdminConfig{Addr: ":" + port}, nil
}

// AIConfig describes the completion-API connection.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
}

// Enabled reports whether a usable credential is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// NewChatModel creates a chat model instance for the given model name.
func (c AIConfig) NewChatModel(ctx context.Context, modelName string) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("completion credentials missing: provide ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       modelName,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
