// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package sync

import (
	"context"

	"github.com/collectag/collectag/internal/models"
	"github.com/collectag/collectag/internal/tagsync"
)

// JellyfinLibrary adapts a Jellyfin client to the reconciler's Library and
// Updater interfaces.
type JellyfinLibrary struct {
	client JellyfinClientInterface
}

var (
	_ tagsync.Library = (*JellyfinLibrary)(nil)
	_ tagsync.Updater = (*JellyfinLibrary)(nil)
)

// NewJellyfinLibrary wraps client for use by the reconciler.
func NewJellyfinLibrary(client JellyfinClientInterface) *JellyfinLibrary {
	return &JellyfinLibrary{client: client}
}

// ListItems returns every taggable item with its current tags.
func (l *JellyfinLibrary) ListItems(ctx context.Context) ([]tagsync.Item, error) {
	items, err := l.client.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return toItems(items), nil
}

// ListCollections returns all collections on the server.
func (l *JellyfinLibrary) ListCollections(ctx context.Context) ([]tagsync.Collection, error) {
	collections, err := l.client.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]tagsync.Collection, 0, len(collections))
	for i := range collections {
		out = append(out, tagsync.Collection{
			ID:   collections[i].ID,
			Name: collections[i].Name,
		})
	}
	return out, nil
}

// CollectionChildren returns a collection's direct members, splitting nested
// collections from plain items.
func (l *JellyfinLibrary) CollectionChildren(ctx context.Context, collectionID string) ([]tagsync.Item, []tagsync.Collection, error) {
	children, err := l.client.CollectionChildren(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}

	var items []tagsync.Item
	var nested []tagsync.Collection
	for i := range children {
		child := &children[i]
		if child.IsCollection() {
			nested = append(nested, tagsync.Collection{ID: child.ID, Name: child.Name})
			continue
		}
		items = append(items, tagsync.Item{
			ID:   child.ID,
			Name: child.Name,
			Tags: child.Tags,
		})
	}
	return items, nested, nil
}

// UpdateItemTags persists a rewritten tag list.
func (l *JellyfinLibrary) UpdateItemTags(ctx context.Context, itemID string, tags []string) error {
	return l.client.UpdateItemTags(ctx, itemID, tags)
}

func toItems(items []models.JellyfinItem) []tagsync.Item {
	out := make([]tagsync.Item, 0, len(items))
	for i := range items {
		out = append(out, tagsync.Item{
			ID:   items[i].ID,
			Name: items[i].Name,
			Tags: items[i].Tags,
		})
	}
	return out
}
