// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import "strings"

// TagSet is an insertion-ordered set of tags with case-insensitive identity.
// The first-inserted casing of a tag is the one retained; adding a
// case-insensitive duplicate is a no-op.
type TagSet struct {
	order []string
	index map[string]struct{}
}

// NewTagSet returns an empty TagSet.
func NewTagSet() *TagSet {
	return &TagSet{index: make(map[string]struct{})}
}

// Add inserts tag into the set. It returns false if a case-insensitive
// duplicate was already present, in which case the existing casing is kept.
func (s *TagSet) Add(tag string) bool {
	key := strings.ToLower(tag)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, tag)
	return true
}

// Contains reports whether the set holds tag, compared case-insensitively.
func (s *TagSet) Contains(tag string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[strings.ToLower(tag)]
	return ok
}

// Len returns the number of distinct tags. A nil set is empty.
func (s *TagSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Values returns the tags in insertion order. The returned slice is owned by
// the set and must not be mutated.
func (s *TagSet) Values() []string {
	if s == nil {
		return nil
	}
	return s.order
}

// EqualsSlice reports whether the set and the given tag slice contain the
// same tags under case-insensitive set semantics. Duplicates and order in
// the slice are ignored.
func (s *TagSet) EqualsSlice(tags []string) bool {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(tag)
		if !s.Contains(key) {
			return false
		}
		seen[key] = struct{}{}
	}
	return len(seen) == s.Len()
}
