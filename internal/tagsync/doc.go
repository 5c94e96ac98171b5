// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

// Package tagsync implements the tag reconciliation core.
//
// Given a snapshot of the library's items, its collections and a tag-prefix
// convention, a run computes for every item the set of managed tags it should
// carry (one per in-scope collection it belongs to, named prefix+collection)
// and rewrites the item's tag list only when it differs. Tags that do not
// start with the prefix are never touched, so the run is idempotent and safe
// to repeat on a schedule or after a library rescan.
//
// The package is a pure library: all platform access goes through the Library
// and Updater interfaces, progress and logging are injected observers, and no
// state survives a run. Desired state is recomputed from scratch every time -
// there is no delta tracking.
package tagsync
