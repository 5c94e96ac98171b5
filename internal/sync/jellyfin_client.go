// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

/*
jellyfin_client.go - Jellyfin REST API Client

This file implements a REST API client for Jellyfin media server.
It provides methods to enumerate library items and collections and to
rewrite item tags.

API Reference: https://api.jellyfin.org/
*/

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/collectag/collectag/internal/models"
)

// itemPageSize bounds one /Items page. Jellyfin handles larger pages fine but
// 500 keeps response bodies small on big libraries.
const itemPageSize = 500

// taggableItemTypes lists the item kinds whose tags are managed.
const taggableItemTypes = "Movie,Series,Season,Episode,Video,Audio,Book"

// JellyfinClientInterface defines the interface for Jellyfin API operations.
// Both JellyfinClient and JellyfinCircuitBreakerClient implement this
// interface.
type JellyfinClientInterface interface {
	Ping(ctx context.Context) error
	GetSystemInfo(ctx context.Context) (*JellyfinSystemInfo, error)
	ListItems(ctx context.Context) ([]models.JellyfinItem, error)
	ListCollections(ctx context.Context) ([]models.JellyfinItem, error)
	CollectionChildren(ctx context.Context, collectionID string) ([]models.JellyfinItem, error)
	UpdateItemTags(ctx context.Context, itemID string, tags []string) error
	GetWebSocketURL() (string, error)
}

// Ensure JellyfinClient implements JellyfinClientInterface
var _ JellyfinClientInterface = (*JellyfinClient)(nil)

// JellyfinClient provides access to Jellyfin REST API
type JellyfinClient struct {
	baseURL    string
	apiKey     string
	userID     string // Optional: for user-scoped API operations
	httpClient *http.Client
	limiter    *rate.Limiter
}

// JellyfinSystemInfo represents Jellyfin server system information
type JellyfinSystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// NewJellyfinClient creates a new Jellyfin API client
//
// Parameters:
//   - baseURL: Jellyfin server URL (e.g., http://localhost:8096)
//   - apiKey: Jellyfin API key from Admin Dashboard > API Keys
//   - userID: Optional user ID for user-scoped operations
//   - requestsPerSecond: outbound request rate cap; 0 disables limiting
func NewJellyfinClient(baseURL, apiKey, userID string, requestsPerSecond float64) *JellyfinClient {
	// Normalize URL (remove trailing slash)
	baseURL = strings.TrimSuffix(baseURL, "/")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &JellyfinClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// Ping tests connectivity to the Jellyfin server
func (c *JellyfinClient) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/System/Ping", nil, nil)
	if err != nil {
		return fmt.Errorf("jellyfin ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin ping returned status %d", resp.StatusCode)
	}

	return nil
}

// GetSystemInfo retrieves Jellyfin server system information
func (c *JellyfinClient) GetSystemInfo(ctx context.Context) (*JellyfinSystemInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/System/Info", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("jellyfin system info request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatusOK(resp, "jellyfin system info"); err != nil {
		return nil, err
	}

	var info JellyfinSystemInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode jellyfin system info: %w", err)
	}

	return &info, nil
}

// ListItems retrieves every taggable library item with its current tags.
// Results are paged; the page order is whatever the server returns, which is
// stable enough for a single sweep.
func (c *JellyfinClient) ListItems(ctx context.Context) ([]models.JellyfinItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", taggableItemTypes)
	query.Set("Fields", "Tags")

	return c.pagedItems(ctx, query, "jellyfin items")
}

// ListCollections retrieves all collections (BoxSets) on the server.
func (c *JellyfinClient) ListCollections(ctx context.Context) ([]models.JellyfinItem, error) {
	query := url.Values{}
	query.Set("Recursive", "true")
	query.Set("IncludeItemTypes", "BoxSet")

	return c.pagedItems(ctx, query, "jellyfin collections")
}

// CollectionChildren retrieves the direct children of a collection. Nested
// collections come back as items of type BoxSet; callers split them out.
func (c *JellyfinClient) CollectionChildren(ctx context.Context, collectionID string) ([]models.JellyfinItem, error) {
	query := url.Values{}
	query.Set("ParentId", collectionID)
	query.Set("Fields", "Tags")

	return c.pagedItems(ctx, query, "jellyfin collection children")
}

// pagedItems walks an /Items query page by page until TotalRecordCount is
// reached.
func (c *JellyfinClient) pagedItems(ctx context.Context, query url.Values, what string) ([]models.JellyfinItem, error) {
	var all []models.JellyfinItem

	for start := 0; ; start += itemPageSize {
		query.Set("StartIndex", strconv.Itoa(start))
		query.Set("Limit", strconv.Itoa(itemPageSize))

		resp, err := c.doRequest(ctx, http.MethodGet, "/Items", query, nil)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", what, err)
		}

		page, err := decodeItemsPage(resp, what)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
		if len(page.Items) == 0 || len(all) >= page.TotalRecordCount {
			return all, nil
		}
	}
}

func decodeItemsPage(resp *http.Response, what string) (*models.JellyfinItemsResponse, error) {
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatusOK(resp, what); err != nil {
		return nil, err
	}

	var page models.JellyfinItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", what, err)
	}
	return &page, nil
}

// UpdateItemTags replaces an item's tag list.
//
// Jellyfin's item update endpoint replaces the whole item document, so the
// current document is fetched first and only Tags is rewritten. The document
// is kept as a raw map; round-tripping through a typed struct would silently
// drop fields this client does not model.
func (c *JellyfinClient) UpdateItemTags(ctx context.Context, itemID string, tags []string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/Items/"+itemID, nil, nil)
	if err != nil {
		return fmt.Errorf("jellyfin item fetch failed: %w", err)
	}

	doc, err := decodeItemDocument(resp)
	if err != nil {
		return err
	}

	if tags == nil {
		tags = []string{}
	}
	doc["Tags"] = tags

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode jellyfin item update: %w", err)
	}

	resp, err = c.doRequest(ctx, http.MethodPost, "/Items/"+itemID, nil, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("jellyfin item update request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Jellyfin returns 204 No Content on success
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("jellyfin item update returned status %d (failed to read body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("jellyfin item update returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func decodeItemDocument(resp *http.Response) (map[string]any, error) {
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatusOK(resp, "jellyfin item fetch"); err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode jellyfin item: %w", err)
	}
	return doc, nil
}

// GetWebSocketURL returns the WebSocket URL for real-time notifications
func (c *JellyfinClient) GetWebSocketURL() (string, error) {
	parsedURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	// Convert http(s) to ws(s)
	switch parsedURL.Scheme {
	case "http":
		parsedURL.Scheme = "ws"
	case "https":
		parsedURL.Scheme = "wss"
	default:
		parsedURL.Scheme = "ws"
	}

	// Build WebSocket URL with API key
	parsedURL.Path = "/socket"
	query := parsedURL.Query()
	query.Set("api_key", c.apiKey)
	if c.userID != "" {
		query.Set("deviceId", "collectag-"+c.userID)
	} else {
		query.Set("deviceId", "collectag")
	}
	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

// doRequest performs a rate-limited HTTP request to the Jellyfin API
func (c *JellyfinClient) doRequest(ctx context.Context, method, endpoint string, query url.Values, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := c.baseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set authorization header using API key
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("X-Emby-Client", "Collectag")
	req.Header.Set("X-Emby-Device-Name", "Collectag")
	req.Header.Set("X-Emby-Device-Id", "collectag")
	req.Header.Set("X-Emby-Client-Version", "1.0.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

// checkStatusOK turns a non-200 response into an error carrying the body.
func checkStatusOK(resp *http.Response, what string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body)", what, resp.StatusCode)
	}
	return fmt.Errorf("%s returned status %d: %s", what, resp.StatusCode, string(body))
}
