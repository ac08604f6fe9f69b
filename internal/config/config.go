// Package config loads the bridge and edge simulator's command-line and
// environment configuration. Flags take precedence over environment
// variables, which take precedence over the defaults below.
package config

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// Bridge holds cmd/bridge's configuration.
type Bridge struct {
	ListenAddr    string
	AIProviderURL string
	DatabaseURL   string
}

// ParseBridgeFlags builds Bridge config from argv and the environment.
// It does not call pflag.Parse() on the global CommandLine set, so it is
// safe to call from tests.
func ParseBridgeFlags(args []string) (Bridge, error) {
	fs := pflag.NewFlagSet("bridge", pflag.ContinueOnError)

	listenAddr := fs.StringP("listen", "l", envOr("NOVA_BRIDGE_LISTEN", ":8085"), "TCP address the bridge listens on")
	aiURL := fs.String("ai-provider-url", envOr("NOVA_BRIDGE_AI_URL", "ws://localhost:9090/stream"), "AI provider event-stream websocket URL")
	dbURL := fs.String("database-url", envOr("NOVA_BRIDGE_DATABASE_URL", ""), "Postgres connection string for CDR persistence (optional)")

	if err := fs.Parse(args); err != nil {
		return Bridge{}, err
	}

	return Bridge{
		ListenAddr:    *listenAddr,
		AIProviderURL: *aiURL,
		DatabaseURL:   *dbURL,
	}, nil
}

// EdgeSim holds cmd/edgesim's configuration.
type EdgeSim struct {
	BridgeAddr string
	CallUUID   string
	Caller     string
	SampleRate int
}

// ParseEdgeSimFlags builds EdgeSim config from argv and the environment.
func ParseEdgeSimFlags(args []string) (EdgeSim, error) {
	fs := pflag.NewFlagSet("edgesim", pflag.ContinueOnError)

	bridgeAddr := fs.StringP("bridge", "b", envOr("NOVA_EDGESIM_BRIDGE", "localhost:8085"), "host:port of the bridge to connect to")
	callUUID := fs.String("call-uuid", envOr("NOVA_EDGESIM_CALL_UUID", ""), "call UUID to present in the handshake (default: generated)")
	caller := fs.String("caller", envOr("NOVA_EDGESIM_CALLER", "+15550000000"), "caller identity to present in the handshake")
	sampleRate := fs.Int("sample-rate", envOrInt("NOVA_EDGESIM_SAMPLE_RATE", 8000), "negotiated sample rate (8000 or 16000)")

	if err := fs.Parse(args); err != nil {
		return EdgeSim{}, err
	}

	return EdgeSim{
		BridgeAddr: *bridgeAddr,
		CallUUID:   *callUUID,
		Caller:     *caller,
		SampleRate: *sampleRate,
	}, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
