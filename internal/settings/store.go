package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. The key set is fixed; every key has a default, so
// typed lookups cannot miss.
const (
	KeySystemPrompt      = "system_prompt"
	KeyModelName         = "model_name"
	KeyChannelIDs        = "channel_ids"
	KeyGuildIDs          = "guild_ids"
	KeyAdminRoleIDs      = "admin_role_ids"
	KeyAdminUserIDs      = "admin_user_ids"
	KeyAdminChannelID    = "admin_channel_id"
	KeyAllChannels       = "all_channels"
	KeyPattern           = "pattern"
	KeyMaxHistoryTokens  = "max_history_tokens"
	KeyMaxResponseTokens = "max_response_tokens"
	KeyImageDetailLatest = "image_detail_latest"
	KeyImageDetailHist   = "image_detail_history"
)

// promptFileSentinel in system_prompt means "load the prompt file".
const promptFileSentinel = "-1"

const fallbackPrompt = "You are a helpful assistant."

// Store holds the effective runtime settings. Immutable after Load.
type Store struct {
	v          *viper.Viper
	promptPath string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySystemPrompt, promptFileSentinel)
	v.SetDefault(KeyModelName, "gpt-5.2")
	v.SetDefault(KeyChannelIDs, []string{})
	v.SetDefault(KeyGuildIDs, []string{})
	v.SetDefault(KeyAdminRoleIDs, []string{})
	v.SetDefault(KeyAdminUserIDs, []string{})
	v.SetDefault(KeyAdminChannelID, "")
	v.SetDefault(KeyAllChannels, false)
	v.SetDefault(KeyPattern, "[Dd][Aa][Ii][Aa]")
	v.SetDefault(KeyMaxHistoryTokens, 4096)
	v.SetDefault(KeyMaxResponseTokens, 512)
	v.SetDefault(KeyImageDetailLatest, "high")
	v.SetDefault(KeyImageDetailHist, "low")
}

// Load merges built-in defaults, an optional defaults file under
// configDir, and an optional override file under dataDir, then writes
// the effective settings back to the override file so every key is
// materialized on disk.
func Load(dataDir, configDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)

	defaultsPath := filepath.Join(configDir, "settings.json")
	if _, err := os.Stat(defaultsPath); err == nil {
		v.SetConfigFile(defaultsPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read default settings: %w", err)
		}
	}

	overridePath := filepath.Join(dataDir, "settings.json")
	if _, err := os.Stat(overridePath); err == nil {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge saved settings: %w", err)
		}
	}

	if err := v.WriteConfigAs(overridePath); err != nil {
		return nil, fmt.Errorf("write effective settings: %w", err)
	}

	return &Store{
		v:          v,
		promptPath: filepath.Join(configDir, "daia_prompt.txt"),
	}, nil
}

func (s *Store) String(key string) string { return s.v.GetString(key) }

func (s *Store) Int(key string) int { return s.v.GetInt(key) }

func (s *Store) Bool(key string) bool { return s.v.GetBool(key) }

func (s *Store) StringList(key string) []string { return s.v.GetStringSlice(key) }

// All returns the effective settings map (admin API).
func (s *Store) All() map[string]any { return s.v.AllSettings() }

// SystemPrompt resolves the effective system prompt: the sentinel
// loads the external prompt file, any other value is used literally,
// and an empty or unresolvable prompt falls back to a generic one.
func (s *Store) SystemPrompt() string {
	prompt := s.v.GetString(KeySystemPrompt)
	if prompt == promptFileSentinel {
		raw, err := os.ReadFile(s.promptPath)
		if err == nil {
			if text := strings.TrimSpace(string(raw)); text != "" {
				return text
			}
		}
		return fallbackPrompt
	}
	if prompt == "" {
		return fallbackPrompt
	}
	return prompt
}
