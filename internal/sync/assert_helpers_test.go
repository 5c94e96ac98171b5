// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package sync

import "testing"

// Test assertion helpers with "check" prefix to avoid conflicts with existing helpers.
// Each helper encapsulates common nil-check + value comparison patterns.
// Using t.Helper() ensures error messages point to the calling line.

// checkStringEqual checks that got equals want, failing if not
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkError fails the test if err is nil
func checkError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// checkErrorContains fails the test unless err contains substr
func checkErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if got := err.Error(); !containsString(got, substr) {
		t.Errorf("expected error containing %q, got %q", substr, got)
	}
}

// containsString checks if s contains substr (simple implementation to avoid import)
func containsString(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// checkSliceLen checks that a slice has the expected length
func checkSliceLen(t *testing.T, name string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected length %d, got %d", name, want, got)
	}
}

// checkTrue checks that condition is true
func checkTrue(t *testing.T, description string, condition bool) {
	t.Helper()
	if !condition {
		t.Errorf("expected %s to be true", description)
	}
}
