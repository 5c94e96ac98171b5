// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"io"
	"testing"

	"github.com/collectag/collectag/internal/logging"
)

func TestDesiredTags(t *testing.T) {
	memberships := []Membership{
		{
			Collection: Collection{ID: "c1", Name: "Marvel"},
			Items:      []Item{{ID: "i1"}, {ID: "i2"}},
		},
		{
			Collection: Collection{ID: "c2", Name: " DC "},
			Items:      []Item{{ID: "i2"}},
		},
	}

	desired := DesiredTags(memberships, "#CT_", logging.NewTestLogger(io.Discard))

	checkIntEqual(t, "items with desired tags", len(desired), 2)
	checkTagsEqual(t, "desired tags", desired["i1"].Values(), []string{"#CT_Marvel"})
	checkTagsEqual(t, "desired tags", desired["i2"].Values(), []string{"#CT_Marvel", "#CT_DC"})
}

func TestDesiredTagsSkipsUnnamedCollections(t *testing.T) {
	memberships := []Membership{
		{
			Collection: Collection{ID: "c1", Name: "   "},
			Items:      []Item{{ID: "i1"}},
		},
	}

	desired := DesiredTags(memberships, "#CT_", logging.NewTestLogger(io.Discard))

	checkIntEqual(t, "items with desired tags", len(desired), 0)
}

func TestDesiredTagsCaseCollision(t *testing.T) {
	// Two collections whose names differ only by case yield a single
	// managed tag, cased after the first one processed.
	memberships := []Membership{
		{
			Collection: Collection{ID: "c1", Name: "Anime"},
			Items:      []Item{{ID: "i1"}},
		},
		{
			Collection: Collection{ID: "c2", Name: "ANIME"},
			Items:      []Item{{ID: "i1"}},
		},
	}

	desired := DesiredTags(memberships, "#CT_", logging.NewTestLogger(io.Discard))

	checkTagsEqual(t, "desired tags", desired["i1"].Values(), []string{"#CT_Anime"})
}

func TestDesiredTagsEmptyMemberships(t *testing.T) {
	desired := DesiredTags(nil, "#CT_", logging.NewTestLogger(io.Discard))
	checkIntEqual(t, "items with desired tags", len(desired), 0)
}
