// Command bridge runs the bridge-side session service: it listens for
// edge connections and, for each one, drives a full AI session against
// the configured provider.
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/birddigital/nova-bridge/internal/config"
	"github.com/birddigital/nova-bridge/pkg/bridge"
	"github.com/birddigital/nova-bridge/pkg/cdr"
	"github.com/birddigital/nova-bridge/pkg/wire"
)

func main() {
	cfg, err := config.ParseBridgeFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("[Bridge] flag parse error: %v", err)
	}

	sessionCfg := bridge.SessionConfig{
		Opener: dialAIProvider(cfg.AIProviderURL),
	}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[Bridge] database connect error: %v", err)
		}
		defer pool.Close()
		store := cdr.NewStore(pool)
		sessionCfg.OnCallEnd = func(r cdr.Record) {
			if err := store.Insert(context.Background(), r); err != nil {
				log.Printf("[Bridge] CDR insert failed for %s: %v", r.CallUUID, err)
			}
		}
		log.Printf("[Bridge] CDR persistence enabled")
	}

	srv, err := bridge.Listen(cfg.ListenAddr, sessionCfg)
	if err != nil {
		log.Fatalf("[Bridge] listen error: %v", err)
	}
	log.Printf("[Bridge] listening on %s", srv.Addr())

	if err := srv.Serve(); err != nil {
		log.Fatalf("[Bridge] serve error: %v", err)
	}
}

// dialAIProvider returns an AIOpener that dials the same fixed URL for
// every call; a fuller deployment would vary headers/auth by handshake.
func dialAIProvider(url string) bridge.AIOpener {
	dialer := websocket.DefaultDialer
	return func(ctx context.Context, h wire.Handshake) (*websocket.Conn, error) {
		header := http.Header{}
		header.Set("X-Call-UUID", h.CallUUID)
		conn, _, err := dialer.DialContext(ctx, url, header)
		return conn, err
	}
}
