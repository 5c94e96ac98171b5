// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

/*
Package services provides suture.Service wrappers for Collectag components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (Start/Stop, Connect/Close,
ListenAndServe) into suture's context-aware Serve pattern.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Available services:

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Configurable shutdown timeout for draining connections

Sync Scheduler (SchedulerService):
  - Wraps scheduler.Scheduler's Start/Stop lifecycle
  - Drives interval and triggered reconciliation runs

WebSocket Listener (WebSocketListenerService):
  - Wraps the Jellyfin WebSocket client
  - Feeds library scan completions to the scheduler
  - Reconnects on connection loss

Return values determine supervisor behavior: nil means a clean stop without
restart, a non-ctx error means a crash the supervisor restarts with backoff,
and ctx.Err() signals normal shutdown.
*/
package services
