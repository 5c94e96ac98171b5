// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/collectag/collectag/internal/scheduler"
)

// SchedulerControl is the scheduler surface the handlers need.
type SchedulerControl interface {
	Status() scheduler.RunStatus
	TriggerRun() error
}

// Pinger checks connectivity to the media server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the sync control endpoints.
type Handler struct {
	scheduler SchedulerControl
	pinger    Pinger
	version   string
}

// NewHandler creates a Handler. pinger may be nil, in which case health
// reports only process liveness.
func NewHandler(sched SchedulerControl, pinger Pinger, version string) *Handler {
	return &Handler{scheduler: sched, pinger: pinger, version: version}
}

// healthStatus is the health endpoint payload.
type healthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Jellyfin string `json:"jellyfin,omitempty"`
}

// Health reports process liveness and, when a pinger is wired, media
// server reachability. An unreachable media server degrades the payload
// but still returns 200: the service itself is healthy and will retry.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok", Version: h.version}

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Jellyfin = "unreachable"
		} else {
			status.Jellyfin = "ok"
		}
	}

	writeJSON(w, http.StatusOK, status)
}

// SyncStatus returns a snapshot of the most recent sync run.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scheduler.Status())
}

// triggerAccepted is the POST /sync/run success payload.
type triggerAccepted struct {
	Message string `json:"message"`
}

// SyncRun requests an immediate sync run. Returns 202 when the run is
// queued and 409 when a run is already executing.
func (h *Handler) SyncRun(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.TriggerRun(); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			writeError(w, http.StatusConflict, "RUN_IN_PROGRESS", "a sync run is already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "TRIGGER_FAILED", "failed to trigger sync run")
		return
	}

	writeJSON(w, http.StatusAccepted, triggerAccepted{Message: "sync run queued"})
}
