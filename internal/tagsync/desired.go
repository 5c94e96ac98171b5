// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"strings"

	"github.com/rs/zerolog"
)

// DesiredTags maps every member item to the set of managed tags it should
// carry: one prefix+trimmedName tag per membership. The map is keyed by item
// ID and covers only items that belong to at least one in-scope collection
// with a non-empty trimmed name; absence from the map means "desires no
// managed tags".
//
// Tag identity is case-insensitive with first-inserted casing retained, so if
// two collections whose trimmed names differ only by case both contain an
// item, the item gets exactly one managed tag, cased after whichever
// collection appears first in memberships. That order comes from the
// platform's collection enumeration and is deliberately not re-sorted here.
//
// Collections whose name trims to empty cannot produce a usable tag; they are
// logged and skipped, never escalated.
func DesiredTags(memberships []Membership, prefix string, logger zerolog.Logger) map[string]*TagSet {
	desired := make(map[string]*TagSet)

	for _, m := range memberships {
		name := strings.TrimSpace(m.Collection.Name)
		if name == "" {
			logger.Warn().
				Str("collection_id", m.Collection.ID).
				Msg("Skipping collection with empty name")
			continue
		}

		tag := prefix + name
		for _, item := range m.Items {
			set, ok := desired[item.ID]
			if !ok {
				set = NewTagSet()
				desired[item.ID] = set
			}
			set.Add(tag)
		}
	}

	return desired
}
