// Collectag - Collection Tag Synchronization for Media Servers
// Copyright 2026 Collectag contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/collectag/collectag

package tagsync

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/collectag/collectag/internal/logging"
)

func newTestRunner(lib Library, updater Updater, progress ProgressFunc) *Runner {
	return NewRunner(lib, updater, logging.NewTestLogger(io.Discard), progress)
}

func TestRunAddsMissingTags(t *testing.T) {
	// One collection, two members; only the item missing its managed tag
	// gets written.
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X", Tags: []string{"foo"}},
			{ID: "y", Name: "Y", Tags: []string{"#CT_Marvel"}},
		},
		collections: []Collection{{ID: "c1", Name: "Marvel"}},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}}},
		},
	}
	updater := newFakeUpdater()

	summary, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:       "#CT_",
		CollectionNames: []string{"Marvel"},
	})
	checkNoError(t, err)

	checkIntEqual(t, "collections in scope", summary.CollectionsInScope, 1)
	checkIntEqual(t, "items checked", summary.ItemsChecked, 2)
	checkIntEqual(t, "items updated", summary.ItemsUpdated, 1)
	checkIntEqual(t, "update failures", summary.UpdateFailures, 0)
	checkTagsEqual(t, "written tags", updater.updates["x"], []string{"foo", "#CT_Marvel"})
	if _, ok := updater.updates["y"]; ok {
		t.Error("already-converged item y was written")
	}
}

func TestRunRemovesStaleTags(t *testing.T) {
	// Item left a collection but still carries its managed tag.
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X", Tags: []string{"foo", "#CT_DC"}},
		},
		collections: []Collection{{ID: "c1", Name: "DC"}},
		children: map[string]fakeChildren{
			"c1": {},
		},
	}
	updater := newFakeUpdater()

	summary, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:       "#CT_",
		CollectionNames: []string{"DC"},
	})
	checkNoError(t, err)

	checkIntEqual(t, "items updated", summary.ItemsUpdated, 1)
	checkTagsEqual(t, "written tags", updater.updates["x"], []string{"foo"})
}

func TestRunTagAllCollections(t *testing.T) {
	// TagAllCollections covers every collection even with an empty name list.
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X"},
			{ID: "y", Name: "Y"},
		},
		collections: []Collection{
			{ID: "c1", Name: "Marvel"},
			{ID: "c2", Name: "DC"},
		},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}}},
			"c2": {items: []Item{{ID: "y", Name: "Y"}}},
		},
	}
	updater := newFakeUpdater()

	summary, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkNoError(t, err)

	checkIntEqual(t, "collections in scope", summary.CollectionsInScope, 2)
	checkTagsEqual(t, "written tags", updater.updates["x"], []string{"#CT_Marvel"})
	checkTagsEqual(t, "written tags", updater.updates["y"], []string{"#CT_DC"})
}

func TestRunCaseCollidingCollections(t *testing.T) {
	// "Anime" and "ANIME" produce one managed tag, cased after whichever
	// collection the platform enumerates first.
	lib := &fakeLibrary{
		items: []Item{{ID: "x", Name: "X"}},
		collections: []Collection{
			{ID: "c1", Name: "Anime"},
			{ID: "c2", Name: "ANIME"},
		},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}}},
			"c2": {items: []Item{{ID: "x", Name: "X"}}},
		},
	}
	updater := newFakeUpdater()

	_, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkNoError(t, err)

	checkTagsEqual(t, "written tags", updater.updates["x"], []string{"#CT_Anime"})
}

func TestRunIdempotent(t *testing.T) {
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X", Tags: []string{"foo"}},
			{ID: "y", Name: "Y", Tags: []string{"#CT_Stale", "bar"}},
			{ID: "z", Name: "Z"},
		},
		collections: []Collection{
			{ID: "c1", Name: "Marvel"},
			{ID: "c2", Name: "DC"},
		},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}, {ID: "z", Name: "Z"}}},
			"c2": {items: []Item{{ID: "z", Name: "Z"}}},
		},
	}
	updater := newFakeUpdater()
	runner := newTestRunner(lib, updater, nil)
	opts := Options{TagPrefix: "#CT_", TagAllCollections: true}

	first, err := runner.Run(context.Background(), opts)
	checkNoError(t, err)
	checkIntEqual(t, "first run updates", first.ItemsUpdated, 3)

	// Persist the first run's writes, then run again: nothing changes.
	lib.applyUpdates(updater)
	updater.reset()
	second, err := runner.Run(context.Background(), opts)
	checkNoError(t, err)

	checkIntEqual(t, "second run checked", second.ItemsChecked, 3)
	checkIntEqual(t, "second run updates", second.ItemsUpdated, 0)
	checkIntEqual(t, "second run writes", len(updater.updates), 0)
}

func TestRunPreservesUnmanagedTags(t *testing.T) {
	// Unmanaged tags survive verbatim, duplicates and casing included.
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X", Tags: []string{"Keep", "keep", "other"}},
		},
		collections: []Collection{{ID: "c1", Name: "Marvel"}},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}}},
		},
	}
	updater := newFakeUpdater()

	_, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkNoError(t, err)

	checkTagsEqual(t, "written tags", updater.updates["x"], []string{"Keep", "keep", "other", "#CT_Marvel"})
}

func TestRunEmptyPrefixSkips(t *testing.T) {
	lib := &fakeLibrary{
		listItemsErr: errors.New("must not be called"),
	}
	updater := newFakeUpdater()

	var reports []float64
	summary, err := newTestRunner(lib, updater, func(p float64) {
		reports = append(reports, p)
	}).Run(context.Background(), Options{TagPrefix: "   "})
	checkNoError(t, err)

	checkIntEqual(t, "items checked", summary.ItemsChecked, 0)
	checkIntEqual(t, "writes", len(updater.updates), 0)
	checkTrue(t, "progress reaches 100", len(reports) > 0 && reports[len(reports)-1] == 100)
}

func TestRunPersistFailureContinues(t *testing.T) {
	lib := &fakeLibrary{
		items: []Item{
			{ID: "x", Name: "X"},
			{ID: "y", Name: "Y"},
		},
		collections: []Collection{{ID: "c1", Name: "Marvel"}},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}}},
		},
	}
	updater := newFakeUpdater()
	updater.failIDs["x"] = errors.New("write rejected")

	summary, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkNoError(t, err)

	checkIntEqual(t, "items checked", summary.ItemsChecked, 2)
	checkIntEqual(t, "items updated", summary.ItemsUpdated, 1)
	checkIntEqual(t, "update failures", summary.UpdateFailures, 1)
	checkTagsEqual(t, "written tags", updater.updates["y"], []string{"#CT_Marvel"})
}

func TestRunCancellation(t *testing.T) {
	lib := &fakeLibrary{
		items: []Item{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
			{ID: "c", Name: "C"},
		},
		collections: []Collection{{ID: "c1", Name: "Marvel"}},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	updater := newFakeUpdater()
	// Cancel after the first item's write; the loop must stop before
	// touching the remaining items.
	cancelAfterFirst := updaterFunc(func(c context.Context, itemID string, tags []string) error {
		err := updater.UpdateItemTags(c, itemID, tags)
		cancel()
		return err
	})

	summary, err := newTestRunner(lib, cancelAfterFirst, nil).Run(ctx, Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	checkIntEqual(t, "items checked", summary.ItemsChecked, 1)
	checkIntEqual(t, "items updated", summary.ItemsUpdated, 1)
	checkIntEqual(t, "writes", len(updater.updates), 1)
}

func TestRunStageFailure(t *testing.T) {
	lib := &fakeLibrary{
		listCollectionsErr: errors.New("platform down"),
	}
	updater := newFakeUpdater()

	_, err := newTestRunner(lib, updater, nil).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkErrorContains(t, err, "list collections")
	checkIntEqual(t, "writes", len(updater.updates), 0)
}

func TestRunProgressMonotonic(t *testing.T) {
	lib := &fakeLibrary{
		items: []Item{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
			{ID: "c", Name: "C"},
		},
		collections: []Collection{{ID: "c1", Name: "Marvel"}},
		children: map[string]fakeChildren{
			"c1": {items: []Item{{ID: "a"}}},
		},
	}

	var reports []float64
	_, err := newTestRunner(lib, newFakeUpdater(), func(p float64) {
		reports = append(reports, p)
	}).Run(context.Background(), Options{
		TagPrefix:         "#CT_",
		TagAllCollections: true,
	})
	checkNoError(t, err)

	checkTrue(t, "progress reported", len(reports) > 0)
	last := 0.0
	for i, p := range reports {
		if p < last || p < 0 || p > 100 {
			t.Fatalf("reports[%d] = %v after %v; progress must be non-decreasing in [0,100]", i, p, last)
		}
		last = p
	}
	checkTrue(t, "progress ends at 100", reports[len(reports)-1] == 100)
}

// updaterFunc adapts a function to the Updater interface.
type updaterFunc func(ctx context.Context, itemID string, tags []string) error

func (f updaterFunc) UpdateItemTags(ctx context.Context, itemID string, tags []string) error {
	return f(ctx, itemID, tags)
}
