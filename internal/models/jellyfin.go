// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package models

import "github.com/goccy/go-json"

// ============================================================================
// Jellyfin REST API Models
// ============================================================================
// Structures for the Jellyfin item endpoints used by tag synchronization.
// Documentation: https://api.jellyfin.org/

// JellyfinItemsResponse is the envelope returned by /Items queries.
type JellyfinItemsResponse struct {
	Items            []JellyfinItem `json:"Items"`
	TotalRecordCount int            `json:"TotalRecordCount"`
	StartIndex       int            `json:"StartIndex"`
}

// JellyfinItem is the subset of a library item that tag synchronization
// reads. Item writes never round-trip through this struct; updates fetch the
// full item document so unknown fields survive (see UpdateItemTags).
type JellyfinItem struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`

	// Type is the Jellyfin item kind: "Movie", "Series", "Episode",
	// "BoxSet", etc.
	Type string `json:"Type"`

	// CollectionType is set on folders ("boxsets", "movies", ...).
	CollectionType string `json:"CollectionType,omitempty"`

	Tags []string `json:"Tags,omitempty"`
}

// IsCollection reports whether the item is a Jellyfin collection (BoxSet).
func (i *JellyfinItem) IsCollection() bool {
	return i.Type == "BoxSet"
}

// ============================================================================
// Jellyfin WebSocket Notification Models
// ============================================================================
// Real-time notifications from Jellyfin's WebSocket endpoint, used to react
// to library scans.
// Endpoint: ws://{jellyfin_url}/socket?api_key={api_key}

// JellyfinWebSocketMessage represents a WebSocket message from Jellyfin.
// Data is kept raw; it is decoded per MessageType.
type JellyfinWebSocketMessage struct {
	MessageType string          `json:"MessageType"`
	MessageID   string          `json:"MessageId,omitempty"`
	Data        json.RawMessage `json:"Data,omitempty"`
}

// JellyfinLibraryChanged is the payload of "LibraryChanged" messages, sent
// when items are added, removed, or updated.
type JellyfinLibraryChanged struct {
	ItemsAdded         []string `json:"ItemsAdded,omitempty"`
	ItemsRemoved       []string `json:"ItemsRemoved,omitempty"`
	ItemsUpdated       []string `json:"ItemsUpdated,omitempty"`
	FoldersAddedTo     []string `json:"FoldersAddedTo,omitempty"`
	FoldersRemovedFrom []string `json:"FoldersRemovedFrom,omitempty"`
	IsEmpty            bool     `json:"IsEmpty"`
}

// JellyfinTaskResult is the payload of "ScheduledTaskEnded" messages.
type JellyfinTaskResult struct {
	Name   string `json:"Name"`
	Key    string `json:"Key"`
	ID     string `json:"Id"`
	Status string `json:"Status"` // "Completed", "Failed", "Cancelled", "Aborted"
}

// LibraryScanTaskKey identifies Jellyfin's library scan scheduled task.
const LibraryScanTaskKey = "RefreshLibrary"

// IsCompletedLibraryScan reports whether the task result is a successfully
// finished library scan.
func (r *JellyfinTaskResult) IsCompletedLibraryScan() bool {
	return r.Key == LibraryScanTaskKey && r.Status == "Completed"
}
