// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package services

import (
	"context"
	"fmt"
)

// WebSocketListener interface matches the Jellyfin WebSocket client
// lifecycle. Connect spawns the listener goroutines; Close tears them down.
type WebSocketListener interface {
	Connect(ctx context.Context) error
	Close() error
}

// WebSocketListenerService wraps the Jellyfin WebSocket client as a
// supervised service.
//
// It adapts the Connect/Close lifecycle pattern to suture's Serve pattern:
//  1. Calls Connect(ctx) to establish the connection and start listening
//  2. Blocks until the context is canceled
//  3. Calls Close() for graceful shutdown
//
// The client handles reconnection internally; the supervisor only restarts
// this service if the initial connection cannot be established.
type WebSocketListenerService struct {
	listener WebSocketListener
	name     string
}

// NewWebSocketListenerService creates a new WebSocket listener service wrapper.
//
// Example usage:
//
//	wsClient := sync.NewJellyfinWebSocketClient(wsURL, cfg.Jellyfin.APIKey)
//	svc := services.NewWebSocketListenerService(wsClient)
//	tree.AddSyncService(svc)
func NewWebSocketListenerService(listener WebSocketListener) *WebSocketListenerService {
	return &WebSocketListenerService{
		listener: listener,
		name:     "jellyfin-websocket",
	}
}

// Serve implements suture.Service.
//
// If Connect() fails, the error is returned immediately, causing suture to
// restart the service according to its backoff policy.
func (s *WebSocketListenerService) Serve(ctx context.Context) error {
	// Establish the connection and start the listener goroutines
	if err := s.listener.Connect(ctx); err != nil {
		return fmt.Errorf("websocket connect failed: %w", err)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	// Close the connection and wait for the goroutines to finish
	if err := s.listener.Close(); err != nil {
		return fmt.Errorf("websocket close failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *WebSocketListenerService) String() string {
	return s.name
}
