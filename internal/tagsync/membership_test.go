// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"context"
	"errors"
	"testing"
)

func TestResolveMembershipsFlat(t *testing.T) {
	lib := &fakeLibrary{
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "i1", Name: "One"}, {ID: "i2", Name: "Two"}}},
			"c2": {items: []Item{{ID: "i3", Name: "Three"}}},
		},
	}
	collections := []Collection{
		{ID: "c1", Name: "Marvel"},
		{ID: "c2", Name: "DC"},
	}

	got, err := ResolveMemberships(context.Background(), lib, collections)
	checkNoError(t, err)

	checkIntEqual(t, "membership count", len(got), 2)
	checkIntEqual(t, "Marvel members", len(got[0].Items), 2)
	checkIntEqual(t, "DC members", len(got[1].Items), 1)
	if got[0].Collection.ID != "c1" || got[1].Collection.ID != "c2" {
		t.Errorf("membership order not preserved: %q, %q", got[0].Collection.ID, got[1].Collection.ID)
	}
}

func TestResolveMembershipsNested(t *testing.T) {
	// c1 contains i1 directly plus nested collection c2, which holds i2.
	lib := &fakeLibrary{
		children: map[string]fakeChildren{
			"c1": {
				items:  []Item{{ID: "i1", Name: "One"}},
				nested: []Collection{{ID: "c2", Name: "Inner"}},
			},
			"c2": {items: []Item{{ID: "i2", Name: "Two"}}},
		},
	}

	got, err := ResolveMemberships(context.Background(), lib, []Collection{{ID: "c1", Name: "Outer"}})
	checkNoError(t, err)

	checkIntEqual(t, "membership count", len(got), 1)
	checkIntEqual(t, "flattened members", len(got[0].Items), 2)
	if got[0].Items[0].ID != "i1" || got[0].Items[1].ID != "i2" {
		t.Errorf("member order = %q, %q; want i1, i2", got[0].Items[0].ID, got[0].Items[1].ID)
	}
}

func TestResolveMembershipsDeduplicatesItems(t *testing.T) {
	// The same item reached through two nested paths counts once.
	lib := &fakeLibrary{
		children: map[string]fakeChildren{
			"c1": {
				items:  []Item{{ID: "i1", Name: "One"}},
				nested: []Collection{{ID: "c2", Name: "A"}, {ID: "c3", Name: "B"}},
			},
			"c2": {items: []Item{{ID: "i1", Name: "One"}, {ID: "i2", Name: "Two"}}},
			"c3": {items: []Item{{ID: "i2", Name: "Two"}}},
		},
	}

	got, err := ResolveMemberships(context.Background(), lib, []Collection{{ID: "c1", Name: "Outer"}})
	checkNoError(t, err)

	checkIntEqual(t, "flattened members", len(got[0].Items), 2)
}

func TestResolveMembershipsCycleSafe(t *testing.T) {
	// c1 and c2 nest each other; resolution must terminate.
	lib := &fakeLibrary{
		children: map[string]fakeChildren{
			"c1": {
				items:  []Item{{ID: "i1", Name: "One"}},
				nested: []Collection{{ID: "c2", Name: "B"}},
			},
			"c2": {
				items:  []Item{{ID: "i2", Name: "Two"}},
				nested: []Collection{{ID: "c1", Name: "A"}},
			},
		},
	}

	got, err := ResolveMemberships(context.Background(), lib, []Collection{{ID: "c1", Name: "A"}})
	checkNoError(t, err)
	checkIntEqual(t, "flattened members", len(got[0].Items), 2)
}

func TestResolveMembershipsChildrenError(t *testing.T) {
	wantErr := errors.New("platform unavailable")
	lib := &fakeLibrary{
		children:    map[string]fakeChildren{"c1": {}},
		childrenErr: map[string]error{"c2": wantErr},
	}
	collections := []Collection{
		{ID: "c1", Name: "OK"},
		{ID: "c2", Name: "Broken"},
	}

	_, err := ResolveMemberships(context.Background(), lib, collections)
	checkErrorContains(t, err, "Broken")
	if !errors.Is(err, wantErr) {
		t.Errorf("error chain does not include the cause: %v", err)
	}
}

func TestResolveMembershipsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lib := &fakeLibrary{
		children: map[string]fakeChildren{"c1": {}},
	}

	_, err := ResolveMemberships(ctx, lib, []Collection{{ID: "c1", Name: "A"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
