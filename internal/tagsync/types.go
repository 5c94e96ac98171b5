// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import "context"

// Item is a snapshot of a library item. ID is the stable identity used as
// the mapping key throughout a run; Tags is the item's current tag list in
// storage order.
type Item struct {
	ID   string
	Name string
	Tags []string
}

// Collection is a named grouping of items exposed by the platform. Membership
// is not stored here; it is resolved per run through Library.CollectionChildren.
type Collection struct {
	ID   string
	Name string
}

// Library is the read-only query surface of the external media platform.
//
// CollectionChildren returns the direct contents of a collection, split into
// plain items and nested collections; the membership resolver flattens the
// nesting. Implementations must not require any particular enumeration order,
// but the order they do return is observable: when two collections produce
// the same managed tag with different casing, the first one enumerated wins.
type Library interface {
	// ListItems returns every item of the media kinds subject to tagging,
	// with current tags populated.
	ListItems(ctx context.Context) ([]Item, error)

	// ListCollections returns all collections in the library.
	ListCollections(ctx context.Context) ([]Collection, error)

	// CollectionChildren returns the direct members of a collection.
	CollectionChildren(ctx context.Context, collectionID string) (items []Item, nested []Collection, err error)
}

// Updater persists a new tag list for an item. A failed update affects only
// that item; the run continues.
type Updater interface {
	UpdateItemTags(ctx context.Context, itemID string, tags []string) error
}

// ProgressFunc receives run progress in percent. The runner guarantees the
// reported values are monotonically non-decreasing within [0,100] and that
// 100 is reported on completion.
type ProgressFunc func(percent float64)

// Summary is the outcome of a single reconciliation run.
//
// ItemsChecked counts every corpus item examined; ItemsUpdated counts items
// whose tag list was successfully rewritten. UpdateFailures counts items for
// which the persistence call failed (checked but not updated).
type Summary struct {
	CollectionsInScope int
	ItemsChecked       int
	ItemsUpdated       int
	UpdateFailures     int
}

// Membership pairs an in-scope collection with its flattened member items, in
// the collection enumeration order of the platform.
type Membership struct {
	Collection Collection
	Items      []Item
}
