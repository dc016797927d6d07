package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, config.History.ListLimit)
	assert.Equal(t, 1000, config.History.MaxPrompts)
	assert.Equal(t, "info", config.Logging.Level)
	assert.False(t, config.IsComplete())
}

func TestLoadConfig_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfgDir := filepath.Join(home, ".config", "tern")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	content := `[llm]
provider = "ollama"
base_url = "http://localhost:11434"
model = "llama3.2"

[history]
list_limit = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "conf.toml"), []byte(content), 0o600))

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "llama3.2", config.LLM.Model)
	assert.Equal(t, 5, config.History.ListLimit)
	assert.True(t, config.IsComplete())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfgDir := filepath.Join(home, ".config", "tern")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	content := "[llm]\nprovider = \"ollama\"\nmodel = \"llama3.2\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "conf.toml"), []byte(content), 0o600))

	t.Setenv("TERN_LLM_MODEL", "qwen3")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "qwen3", config.LLM.Model)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	keyring.MockInit()

	config := &Config{}
	config.LLM = LLMConfig{
		Provider: "openai",
		BaseURL:  "http://localhost:8080/v1",
		Model:    "qwen3",
		APIKey:   "sk-test",
	}
	require.NoError(t, SaveConfig(config))

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", loaded.LLM.Provider)
	assert.Equal(t, "http://localhost:8080/v1", loaded.LLM.BaseURL)
	assert.Equal(t, "qwen3", loaded.LLM.Model)
	assert.Equal(t, "sk-test", loaded.LLM.APIKey, "key comes back from the keyring")
}

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, SaveAPIKeyToKeyring("openai", "sk-abc"))

	key, err := GetAPIKeyFromKeyring("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", key)

	require.NoError(t, DeleteAPIKeyFromKeyring("openai"))
	key, err = GetAPIKeyFromKeyring("openai")
	require.NoError(t, err)
	assert.Empty(t, key, "a deleted key reads back empty, not as an error")
}
