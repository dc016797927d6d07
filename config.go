package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	koanftoml "github.com/knadh/koanf/parsers/toml/v2"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

// Config represents the application configuration structure
type Config struct {
	LLM     LLMConfig     `koanf:"llm"`
	Logging LoggingConfig `koanf:"logging"`
	History HistoryConfig `koanf:"history"`
}

// LLMConfig holds endpoint and model selection
type LLMConfig struct {
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// HistoryConfig holds session and prompt history configuration
type HistoryConfig struct {
	ListLimit  int `koanf:"list_limit"`
	MaxPrompts int `koanf:"max_prompts"`
}

// defaultConfig returns the configuration populated with sensible defaults.
func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		History: HistoryConfig{
			ListLimit:  10,
			MaxPrompts: 1000,
		},
	}
}

func userConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tern", "conf.toml"), nil
}

// LoadConfig loads configuration from the user config file, then environment
// variables with the TERN_ prefix, then the keyring and standard API key
// variables. A missing config file is not an error; IsComplete tells the
// caller whether setup still has to run.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	cfgPath, err := userConfigPath()
	if err != nil {
		slog.Warn("failed to resolve config path", "error", err)
	} else if _, statErr := os.Stat(cfgPath); statErr == nil {
		if err := k.Load(file.Provider(cfgPath), koanftoml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", cfgPath, err)
		}
	}

	// Environment variables with prefix TERN_ override file values,
	// e.g. TERN_LLM_MODEL=llama3 overrides llm.model.
	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix: "TERN_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, "TERN_")), "_", ".")
			return key, value
		},
	}), nil); err != nil {
		slog.Warn("failed to load environment variables", "error", err)
	}

	config := defaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.LLM.APIKey == "" && config.LLM.Provider != "" {
		if key, err := GetAPIKeyFromKeyring(config.LLM.Provider); err == nil && key != "" {
			config.LLM.APIKey = key
		}
	}
	if config.LLM.APIKey == "" && config.LLM.Provider == "openai" {
		config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &config, nil
}

// IsComplete reports whether the config carries everything needed to talk
// to an endpoint without running setup first.
func (c *Config) IsComplete() bool {
	return c.LLM.Provider != "" && c.LLM.Model != ""
}

// SaveConfig persists the llm section to the user config file. The API key
// goes to the keyring when possible and is written to the file only as a
// fallback.
func SaveConfig(config *Config) error {
	cfgPath, err := userConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	k := koanf.New(".")
	if _, err := os.Stat(cfgPath); err == nil {
		if err := k.Load(file.Provider(cfgPath), koanftoml.Parser()); err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
	}

	keyInKeyring := false
	if config.LLM.APIKey != "" {
		if err := SaveAPIKeyToKeyring(config.LLM.Provider, config.LLM.APIKey); err != nil {
			slog.Warn("keyring unavailable, storing api key in config file", "error", err)
		} else {
			keyInKeyring = true
		}
	}

	settings := map[string]any{
		"llm.provider": config.LLM.Provider,
		"llm.base_url": config.LLM.BaseURL,
		"llm.model":    config.LLM.Model,
	}
	if config.LLM.APIKey != "" && !keyInKeyring {
		settings["llm.api_key"] = config.LLM.APIKey
	}
	for key, value := range settings {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("failed to update %s in config: %w", key, err)
		}
	}

	data, err := k.Marshal(koanftoml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
