// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import "strings"

// SelectCollections returns the subset of collections that are in scope for
// tagging, preserving the platform's enumeration order.
//
// With tagAll set, every collection is in scope regardless of names. Otherwise
// a collection is in scope iff its trimmed name matches one of the configured
// names exactly, compared case-insensitively. A collection whose name trims to
// empty can never be matched by name and is only in scope under tagAll.
func SelectCollections(collections []Collection, tagAll bool, names []string) []Collection {
	if tagAll {
		return collections
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		wanted[strings.ToLower(name)] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil
	}

	selected := make([]Collection, 0, len(names))
	for _, col := range collections {
		trimmed := strings.TrimSpace(col.Name)
		if trimmed == "" {
			continue
		}
		if _, ok := wanted[strings.ToLower(trimmed)]; ok {
			selected = append(selected, col)
		}
	}
	return selected
}
