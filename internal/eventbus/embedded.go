// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package eventbus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// embeddedServer wraps an in-process NATS server so single-instance
// deployments don't need an external broker. Enabled via NATSConfig.EmbeddedServer.
type embeddedServer struct {
	server    *server.Server
	clientURL string
}

// startEmbeddedServer starts an in-process NATS JetStream server bound to
// a loopback port and waits for it to accept connections.
func startEmbeddedServer(cfg NATSConfig) (*embeddedServer, error) {
	opts := &server.Options{
		ServerName: "vigilnet-embedded",
		Host:       "127.0.0.1",
		Port:       -1, // pick a free port
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		DontListen: false,
		MaxPayload: 8 * 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded nats server: %w", err)
	}

	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded nats server not ready within timeout")
	}

	return &embeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

func (e *embeddedServer) Shutdown() {
	e.server.Shutdown()
	e.server.WaitForShutdown()
}
