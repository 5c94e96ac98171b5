// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

// Package scheduler drives reconciliation runs.
//
// scheduler.go - Tag Sync Scheduler Service
//
// This file implements the scheduler service that:
//   - Runs a reconciliation pass on a configurable interval (default: 6 hours)
//   - Optionally runs once at startup
//   - Accepts external triggers (manual API requests, library scan
//     completions) and coalesces them while a run is in flight
//   - Tracks per-run status and progress for the HTTP API
//
// The scheduler integrates with the supervisor tree for lifecycle management.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collectag/collectag/internal/config"
	"github.com/collectag/collectag/internal/metrics"
	"github.com/collectag/collectag/internal/tagsync"
)

// ErrRunInProgress is returned by TriggerRun while a run is executing.
var ErrRunInProgress = errors.New("sync run already in progress")

// Trigger reasons recorded on each run.
const (
	TriggerInterval = "interval"
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
	TriggerScan     = "library-scan"
)

// RunState describes where a run (or the scheduler, between runs) stands.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// RunStatus is a snapshot of the most recent run, served by the HTTP API.
type RunStatus struct {
	RunID              string     `json:"run_id,omitempty"`
	State              RunState   `json:"state"`
	Trigger            string     `json:"trigger,omitempty"`
	Progress           float64    `json:"progress"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CollectionsInScope int        `json:"collections_in_scope"`
	ItemsChecked       int        `json:"items_checked"`
	ItemsUpdated       int        `json:"items_updated"`
	UpdateFailures     int        `json:"update_failures"`
	Error              string     `json:"error,omitempty"`
}

// SyncRunner executes one reconciliation pass.
type SyncRunner interface {
	Run(ctx context.Context, opts tagsync.Options) (tagsync.Summary, error)
}

// RunnerFactory builds a runner wired to the given progress sink. A fresh
// runner is created per run so progress reports carry the right run.
type RunnerFactory func(progress tagsync.ProgressFunc) SyncRunner

// Scheduler owns the run loop and run state.
type Scheduler struct {
	cfg       config.SyncConfig
	newRunner RunnerFactory
	logger    zerolog.Logger

	// Runtime state
	mu      sync.Mutex
	running bool
	status  RunStatus
	stopCh  chan struct{}
	doneCh  chan struct{}

	// triggerCh carries external run requests. Capacity 1: a trigger that
	// arrives while one is already queued coalesces into it.
	triggerCh chan string
}

// NewScheduler creates a scheduler. The interval must be validated by config
// before it gets here; a non-positive value falls back to 6 hours.
func NewScheduler(cfg config.SyncConfig, newRunner RunnerFactory, logger *zerolog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}

	return &Scheduler{
		cfg:       cfg,
		newRunner: newRunner,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		status:    RunStatus{State: StateIdle},
		triggerCh: make(chan string, 1),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Bool("run_on_start", s.cfg.RunOnStart).
		Bool("update_on_scan", s.cfg.UpdateOnScan).
		Msg("Starting sync scheduler")

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info().Msg("Stopping sync scheduler...")
	close(s.stopCh)
	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info().Msg("Sync scheduler stopped")
	return nil
}

// TriggerRun queues a manual run. It fails while a run is executing; a
// trigger that lands between runs replaces any already-queued one.
func (s *Scheduler) TriggerRun() error {
	if s.Status().State == StateRunning {
		return ErrRunInProgress
	}

	select {
	case s.triggerCh <- TriggerManual:
	default:
		// A trigger is already queued; this one coalesces into it.
	}
	return nil
}

// OnLibraryScanCompleted requests a run after a platform library scan. It is
// a no-op unless update-on-scan is enabled, and it never blocks: a scan that
// finishes mid-run coalesces into the queued trigger.
func (s *Scheduler) OnLibraryScanCompleted() {
	if !s.cfg.UpdateOnScan {
		return
	}

	s.logger.Info().Msg("Library scan completed, queueing sync run")
	select {
	case s.triggerCh <- TriggerScan:
	default:
	}
}

// Status returns a copy of the current run status.
func (s *Scheduler) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	if s.cfg.RunOnStart {
		s.execute(ctx, TriggerStartup)
	}

	for {
		select {
		case <-ticker.C:
			s.execute(ctx, TriggerInterval)
		case reason := <-s.triggerCh:
			s.execute(ctx, reason)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// execute performs a single reconciliation run and records its outcome.
func (s *Scheduler) execute(ctx context.Context, trigger string) {
	runID := uuid.New().String()
	startedAt := time.Now()

	logger := s.logger.With().
		Str("run_id", runID).
		Str("trigger", trigger).
		Logger()

	s.setStatus(RunStatus{
		RunID:     runID,
		State:     StateRunning,
		Trigger:   trigger,
		StartedAt: &startedAt,
	})

	logger.Info().Msg("Starting sync run")

	runner := s.newRunner(func(percent float64) {
		metrics.SyncProgress.Set(percent)
		s.setProgress(percent)
	})

	summary, err := runner.Run(ctx, tagsync.Options{
		TagPrefix:         s.cfg.TagPrefix,
		TagAllCollections: s.cfg.TagAllCollections,
		CollectionNames:   s.cfg.CollectionNames(),
	})

	completedAt := time.Now()
	duration := completedAt.Sub(startedAt)

	status := RunStatus{
		RunID:              runID,
		Trigger:            trigger,
		StartedAt:          &startedAt,
		CompletedAt:        &completedAt,
		CollectionsInScope: summary.CollectionsInScope,
		ItemsChecked:       summary.ItemsChecked,
		ItemsUpdated:       summary.ItemsUpdated,
		UpdateFailures:     summary.UpdateFailures,
	}

	metrics.SyncCollectionsInScope.Set(float64(summary.CollectionsInScope))

	if err != nil {
		status.State = StateFailed
		status.Error = err.Error()
		status.Progress = s.Status().Progress
		s.setStatus(status)

		result := "error"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result = "canceled"
		}
		metrics.RecordRunCompleted(result, duration, summary.ItemsChecked, summary.ItemsUpdated, summary.UpdateFailures)
		logger.Error().Err(err).Dur("duration", duration).Msg("Sync run failed")
		return
	}

	status.State = StateCompleted
	status.Progress = 100
	s.setStatus(status)

	metrics.RecordRunCompleted("completed", duration, summary.ItemsChecked, summary.ItemsUpdated, summary.UpdateFailures)

	logger.Info().
		Int("collections_in_scope", summary.CollectionsInScope).
		Int("items_checked", summary.ItemsChecked).
		Int("items_updated", summary.ItemsUpdated).
		Int("update_failures", summary.UpdateFailures).
		Dur("duration", duration).
		Msg("Sync run completed")
}

func (s *Scheduler) setStatus(status RunStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Scheduler) setProgress(percent float64) {
	s.mu.Lock()
	s.status.Progress = percent
	s.mu.Unlock()
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
