// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"context"
	"fmt"
)

// fakeLibrary is an in-memory Library for tests. Collection membership
// is described by the children map, keyed by collection ID.
type fakeLibrary struct {
	items       []Item
	collections []Collection
	children    map[string]fakeChildren

	listItemsErr       error
	listCollectionsErr error
	childrenErr        map[string]error
}

type fakeChildren struct {
	items  []Item
	nested []Collection
}

func (f *fakeLibrary) ListItems(ctx context.Context) ([]Item, error) {
	if f.listItemsErr != nil {
		return nil, f.listItemsErr
	}
	return f.items, nil
}

func (f *fakeLibrary) ListCollections(ctx context.Context) ([]Collection, error) {
	if f.listCollectionsErr != nil {
		return nil, f.listCollectionsErr
	}
	return f.collections, nil
}

func (f *fakeLibrary) CollectionChildren(ctx context.Context, collectionID string) ([]Item, []Collection, error) {
	if err := f.childrenErr[collectionID]; err != nil {
		return nil, nil, err
	}
	c, ok := f.children[collectionID]
	if !ok {
		return nil, nil, fmt.Errorf("unknown collection %q", collectionID)
	}
	return c.items, c.nested, nil
}

// applyUpdates writes the updater's recorded tag updates back into the
// library's items, simulating a persisted run before a second pass.
func (f *fakeLibrary) applyUpdates(u *fakeUpdater) {
	for i := range f.items {
		if tags, ok := u.updates[f.items[i].ID]; ok {
			f.items[i].Tags = tags
		}
	}
}

// fakeUpdater records UpdateItemTags calls and can fail selected items.
type fakeUpdater struct {
	updates map[string][]string
	order   []string
	failIDs map[string]error
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{
		updates: make(map[string][]string),
		failIDs: make(map[string]error),
	}
}

func (u *fakeUpdater) reset() {
	u.updates = make(map[string][]string)
	u.order = nil
}

func (u *fakeUpdater) UpdateItemTags(ctx context.Context, itemID string, tags []string) error {
	u.order = append(u.order, itemID)
	if err := u.failIDs[itemID]; err != nil {
		return err
	}
	u.updates[itemID] = tags
	return nil
}
