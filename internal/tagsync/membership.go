// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"context"
	"fmt"
)

// ResolveMemberships expands each collection into its flattened set of member
// items, descending through nested collections. The result preserves the
// input collection order; member items are deduplicated by ID in first-seen
// order. Collections that turn out to be empty are retained with an empty
// item list.
//
// Nested collections already visited within the same expansion are skipped,
// so membership cycles the platform may expose terminate cleanly.
func ResolveMemberships(ctx context.Context, lib Library, collections []Collection) ([]Membership, error) {
	memberships := make([]Membership, 0, len(collections))

	for _, col := range collections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		visited := map[string]struct{}{col.ID: {}}
		seen := make(map[string]struct{})
		items, err := collectMembers(ctx, lib, col.ID, visited, seen, nil)
		if err != nil {
			return nil, fmt.Errorf("resolve members of collection %q: %w", col.Name, err)
		}

		memberships = append(memberships, Membership{Collection: col, Items: items})
	}

	return memberships, nil
}

// collectMembers performs the recursive descent for a single collection.
func collectMembers(ctx context.Context, lib Library, collectionID string, visited, seen map[string]struct{}, acc []Item) ([]Item, error) {
	items, nested, err := lib.CollectionChildren(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		acc = append(acc, item)
	}

	for _, sub := range nested {
		if _, ok := visited[sub.ID]; ok {
			continue
		}
		visited[sub.ID] = struct{}{}
		acc, err = collectMembers(ctx, lib, sub.ID, visited, seen, acc)
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}
