package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBridgeFlags_Defaults(t *testing.T) {
	cfg, err := ParseBridgeFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8085", cfg.ListenAddr)
	assert.Equal(t, "ws://localhost:9090/stream", cfg.AIProviderURL)
}

func TestParseBridgeFlags_OverridesFromArgs(t *testing.T) {
	cfg, err := ParseBridgeFlags([]string{"--listen", ":9999", "--ai-provider-url", "wss://example.test/stream"})
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "wss://example.test/stream", cfg.AIProviderURL)
}

func TestParseBridgeFlags_EnvOverridesDefault(t *testing.T) {
	t.Setenv("NOVA_BRIDGE_LISTEN", ":7070")
	cfg, err := ParseBridgeFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
}

func TestParseBridgeFlags_ArgOverridesEnv(t *testing.T) {
	t.Setenv("NOVA_BRIDGE_LISTEN", ":7070")
	cfg, err := ParseBridgeFlags([]string{"--listen", ":6060"})
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.ListenAddr)
}

func TestParseEdgeSimFlags_Defaults(t *testing.T) {
	cfg, err := ParseEdgeSimFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8085", cfg.BridgeAddr)
	assert.Equal(t, 8000, cfg.SampleRate)
}

func TestParseEdgeSimFlags_SampleRateFromEnv(t *testing.T) {
	t.Setenv("NOVA_EDGESIM_SAMPLE_RATE", "16000")
	cfg, err := ParseEdgeSimFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 16000, cfg.SampleRate)
}

func TestParseEdgeSimFlags_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("NOVA_EDGESIM_SAMPLE_RATE", "not-a-number")
	cfg, err := ParseEdgeSimFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.SampleRate)
}
