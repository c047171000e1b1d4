package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8790", cfg.Server.Addr())
	assert.Equal(t, 10, cfg.Conversation.HistoryWindow)
	assert.Equal(t, 30*time.Second, cfg.Agents.StepTimeoutDuration())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "codedesk", cfg.Name)
	assert.Equal(t, dir, cfg.Workspace.Root)
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".codedesk"), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(dir), []byte(`{"server":{"host":"0.0.0.0","port":9999}}`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr())
	// Untouched sections keep defaults.
	assert.NotEmpty(t, cfg.Agents.CodeIndicators)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CODEDESK_PORT", "7777")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Models.OpenAI.APIKey)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = -1
	require.Error(t, cfg.Validate())
}

func TestPreambleRoleFallback(t *testing.T) {
	a := DefaultAgentsConfig()

	assert.Equal(t, a.Preambles["chat:interpreter"], a.Preamble("chat", "interpreter"))
	assert.Equal(t, a.Preambles["chat"], a.Preamble("chat", "no-such-role"))
	assert.Equal(t, a.Preambles["reasoning:synthesizer"], a.Preamble("reasoning", "synthesizer"))
}

func TestAgentsValidateThreshold(t *testing.T) {
	a := DefaultAgentsConfig()
	a.ClassifyThreshold = 1.5
	require.Error(t, a.Validate())

	a.ClassifyThreshold = 0
	require.NoError(t, a.Validate())
	assert.Equal(t, 0.3, a.ClassifyThreshold)
}

func TestPersonaFileOverlay(t *testing.T) {
	dir := t.TempDir()
	persona := filepath.Join(dir, "persona.yaml")
	require.NoError(t, os.WriteFile(persona, []byte(
		"step_timeout: 45s\npreambles:\n  chat: \"You are a pirate.\"\n"), 0o644))

	a := DefaultAgentsConfig()
	require.NoError(t, a.LoadPersonaFile(persona))

	assert.Equal(t, 45*time.Second, a.StepTimeoutDuration())
	assert.Equal(t, "You are a pirate.", a.Preamble("chat", ""))
	// Untouched preambles survive the overlay.
	assert.NotEmpty(t, a.Preamble("code", ""))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Server.Port = 8123
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8123, loaded.Server.Port)
}
