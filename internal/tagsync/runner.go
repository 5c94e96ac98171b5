// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Options control a single reconciliation run. They mirror the user-facing
// sync configuration and are passed per run so a reload takes effect on the
// next invocation.
type Options struct {
	// TagPrefix marks tags as managed. Used verbatim when forming tags;
	// an empty or whitespace-only prefix disables the run entirely.
	TagPrefix string

	// TagAllCollections puts every collection in scope.
	TagAllCollections bool

	// CollectionNames is the explicit in-scope name list (trimmed entries),
	// ignored when TagAllCollections is set.
	CollectionNames []string
}

// Progress checkpoints. The fetch/resolve/compute stages report fixed
// values; the per-item loop fills the remainder linearly up to 100.
const (
	progressItemsFetched       = 10.0
	progressMembershipResolved = 20.0
	progressDesiredComputed    = 25.0
)

// Runner drives one full reconciliation pass: select collections, resolve
// membership, compute desired tags, then stream over the item corpus and
// rewrite only the items whose managed tags differ.
type Runner struct {
	lib      Library
	updater  Updater
	logger   zerolog.Logger
	progress ProgressFunc
}

// NewRunner creates a Runner. progress may be nil when no sink is interested.
func NewRunner(lib Library, updater Updater, logger zerolog.Logger, progress ProgressFunc) *Runner {
	return &Runner{
		lib:      lib,
		updater:  updater,
		logger:   logger.With().Str("component", "tagsync").Logger(),
		progress: progress,
	}
}

// Run executes one reconciliation pass.
//
// The run is a single sequential sweep with no internal parallelism; each
// item's update is awaited before the next item is examined. Cancellation is
// observed at least once per item: on ctx cancellation the partial Summary
// and ctx's error are returned, with no partial mutation for the item in
// flight (updates already applied to earlier items stand). Per-item
// persistence failures are logged and counted but never abort the run.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	report := r.monotonicProgress()

	// Tagging requires a non-empty prefix to tell managed tags from
	// unmanaged ones; without it the run completes without touching anything.
	if strings.TrimSpace(opts.TagPrefix) == "" {
		r.logger.Warn().Msg("Tag prefix is empty; skipping reconciliation run")
		report(100)
		return summary, nil
	}

	items, err := r.lib.ListItems(ctx)
	if err != nil {
		return summary, fmt.Errorf("list items: %w", err)
	}
	report(progressItemsFetched)

	collections, err := r.lib.ListCollections(ctx)
	if err != nil {
		return summary, fmt.Errorf("list collections: %w", err)
	}

	inScope := SelectCollections(collections, opts.TagAllCollections, opts.CollectionNames)
	summary.CollectionsInScope = len(inScope)

	memberships, err := ResolveMemberships(ctx, r.lib, inScope)
	if err != nil {
		return summary, err
	}
	report(progressMembershipResolved)

	desired := DesiredTags(memberships, opts.TagPrefix, r.logger)
	report(progressDesiredComputed)

	r.logger.Info().
		Int("items", len(items)).
		Int("collections_in_scope", len(inScope)).
		Int("items_with_desired_tags", len(desired)).
		Msg("Reconciling managed tags")

	for i := range items {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item := &items[i]
		summary.ItemsChecked++

		newTags, changed := reconcileTags(item.Tags, desired[item.ID], opts.TagPrefix)
		if !changed {
			r.reportItemProgress(report, i+1, len(items))
			continue
		}

		if err := r.updater.UpdateItemTags(ctx, item.ID, newTags); err != nil {
			// One item failing to persist must not stop the sweep.
			summary.UpdateFailures++
			r.logger.Error().
				Err(err).
				Str("item_id", item.ID).
				Str("item_name", item.Name).
				Msg("Failed to update item tags")
		} else {
			summary.ItemsUpdated++
			r.logger.Debug().
				Str("item_id", item.ID).
				Str("item_name", item.Name).
				Strs("tags", newTags).
				Msg("Item tags updated")
		}

		r.reportItemProgress(report, i+1, len(items))
	}

	report(100)
	r.logger.Info().
		Int("items_checked", summary.ItemsChecked).
		Int("items_updated", summary.ItemsUpdated).
		Int("update_failures", summary.UpdateFailures).
		Msg("Reconciliation run complete")

	return summary, nil
}

// reportItemProgress maps loop position onto the remaining progress range.
func (r *Runner) reportItemProgress(report ProgressFunc, done, total int) {
	if total == 0 {
		return
	}
	span := 100 - progressDesiredComputed
	report(progressDesiredComputed + span*float64(done)/float64(total))
}

// monotonicProgress wraps the configured sink so reported values never
// decrease and stay within [0,100], whatever the stage arithmetic does.
func (r *Runner) monotonicProgress() ProgressFunc {
	last := 0.0
	return func(percent float64) {
		if percent < last {
			percent = last
		}
		if percent > 100 {
			percent = 100
		}
		last = percent
		if r.progress != nil {
			r.progress(percent)
		}
	}
}
