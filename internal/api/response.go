// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

// Package api provides the HTTP control surface: health, metrics, and sync
// status/trigger endpoints, served through Chi with standardized responses.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/collectag/collectag/internal/logging"
)

// APIResponse is the standardized response wrapper for all API endpoints.
type APIResponse struct {
	// Success indicates whether the request was successful
	Success bool `json:"success"`

	// Data contains the response payload (null on error)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success)
	Error *APIError `json:"error,omitempty"`

	// Timestamp is when the response was generated
	Timestamp time.Time `json:"timestamp"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`
}

// writeJSON writes a success response with the given payload.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success:   status < http.StatusBadRequest,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}

// writeError writes an error response with the given code and message.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API error response")
	}
}
