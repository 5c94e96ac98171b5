// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import "strings"

// hasManagedPrefix reports whether tag begins with prefix, compared
// case-insensitively. Managed tags are owned by this system; everything else
// is opaque.
func hasManagedPrefix(tag, prefix string) bool {
	return len(tag) >= len(prefix) && strings.EqualFold(tag[:len(prefix)], prefix)
}

// partitionTags splits an item's current tags into unmanaged and managed,
// preserving the original relative order within each partition.
func partitionTags(tags []string, prefix string) (unmanaged, managed []string) {
	for _, tag := range tags {
		if hasManagedPrefix(tag, prefix) {
			managed = append(managed, tag)
		} else {
			unmanaged = append(unmanaged, tag)
		}
	}
	return unmanaged, managed
}

// reconcileTags computes the minimal tag-list replacement for one item.
//
// The current managed tags are compared to the desired set under
// case-insensitive set equality; when they already match, changed is false
// and the item must not be written. Otherwise the replacement list keeps the
// unmanaged tags in their original relative order and appends the desired
// managed tags. Desired tags are case-insensitively unique by construction
// and, carrying the prefix, can never collide with an unmanaged tag, so the
// concatenation needs no further deduplication; an item's pre-existing
// case-insensitive managed duplicates are collapsed by the rewrite.
func reconcileTags(current []string, desired *TagSet, prefix string) (newTags []string, changed bool) {
	unmanaged, managed := partitionTags(current, prefix)

	if desired.EqualsSlice(managed) {
		return nil, false
	}

	newTags = make([]string, 0, len(unmanaged)+desired.Len())
	newTags = append(newTags, unmanaged...)
	newTags = append(newTags, desired.Values()...)
	return newTags, true
}
