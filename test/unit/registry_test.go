// Package unit contains unit tests for individual components of the Roomcast server.
//
// These tests focus on testing specific functions and methods in isolation,
// using mocks and stubs where necessary to avoid dependencies on external systems.
// Unit tests ensure that each component behaves correctly under various conditions.
package unit

import (
	"sync"
	"testing"

	"github.com/mpetrow/roomcast/internal/server"
)

// TestRegistryUpsertAndGet tests basic insertion and lookup.
// It verifies that Upsert stores the entry and Get returns a copy of it.
func TestRegistryUpsertAndGet(t *testing.T) {
	registry := server.NewRegistry()

	stored := registry.Upsert("conn-1", "Alice", "lobby")
	if stored.ID != "conn-1" || stored.Name != "Alice" || stored.Room != "lobby" {
		t.Errorf("Upsert returned unexpected record: %+v", stored)
	}

	got, ok := registry.Get("conn-1")
	if !ok {
		t.Fatal("Get did not find the upserted entry")
	}
	if got != stored {
		t.Errorf("Get returned %+v, want %+v", got, stored)
	}
}

// TestRegistryLastJoinWins tests that repeated joins by the same connection id
// leave exactly one entry carrying the most recently joined room.
func TestRegistryLastJoinWins(t *testing.T) {
	registry := server.NewRegistry()

	rooms := []string{"lobby", "den", "lobby", "attic"}
	for _, room := range rooms {
		registry.Upsert("conn-1", "Alice", room)
	}

	if registry.Len() != 1 {
		t.Errorf("Expected exactly one entry, got %d", registry.Len())
	}

	got, ok := registry.Get("conn-1")
	if !ok {
		t.Fatal("Entry missing after repeated upserts")
	}
	if got.Room != "attic" {
		t.Errorf("Expected most recent room %q, got %q", "attic", got.Room)
	}
}

// TestRegistryGetUnknown tests that looking up an unknown id reports absence
// without faulting.
func TestRegistryGetUnknown(t *testing.T) {
	registry := server.NewRegistry()

	if _, ok := registry.Get("ghost"); ok {
		t.Error("Get reported presence for an unknown id")
	}
}

// TestRegistryRemove tests that Remove deletes and returns the prior entry,
// and that a second remove for the same id observes absence and no-ops.
func TestRegistryRemove(t *testing.T) {
	registry := server.NewRegistry()
	registry.Upsert("conn-1", "Alice", "lobby")

	removed, ok := registry.Remove("conn-1")
	if !ok {
		t.Fatal("Remove did not find the entry")
	}
	if removed.Name != "Alice" || removed.Room != "lobby" {
		t.Errorf("Remove returned unexpected record: %+v", removed)
	}

	if _, ok := registry.Remove("conn-1"); ok {
		t.Error("Second remove for the same id reported presence")
	}

	if registry.Len() != 0 {
		t.Errorf("Expected empty registry, got %d entries", registry.Len())
	}
}

// TestRegistrySnapshotIsCopy tests that mutating the registry after taking a
// snapshot does not alter the snapshot.
func TestRegistrySnapshotIsCopy(t *testing.T) {
	registry := server.NewRegistry()
	registry.Upsert("conn-1", "Alice", "lobby")
	registry.Upsert("conn-2", "Bob", "lobby")

	snapshot := registry.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected snapshot of 2 entries, got %d", len(snapshot))
	}

	registry.Remove("conn-1")
	registry.Upsert("conn-2", "Bob", "den")

	if len(snapshot) != 2 {
		t.Errorf("Snapshot changed size after mutation: %d", len(snapshot))
	}
	for _, conn := range snapshot {
		if conn.Room != "lobby" {
			t.Errorf("Snapshot entry mutated: %+v", conn)
		}
	}
}

// TestRegistryConcurrentOperations tests that concurrent upserts and removals
// for overlapping ids neither race nor lose updates.
func TestRegistryConcurrentOperations(t *testing.T) {
	registry := server.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Upsert("conn-1", "Alice", "lobby")
		}()
		go func() {
			defer wg.Done()
			registry.Remove("conn-1")
		}()
	}
	wg.Wait()

	// Whichever operation ordered last, the registry must be coherent: either
	// zero entries or a single complete one.
	switch registry.Len() {
	case 0:
	case 1:
		got, ok := registry.Get("conn-1")
		if !ok || got.Name != "Alice" || got.Room != "lobby" {
			t.Errorf("Surviving entry is torn: %+v (ok=%v)", got, ok)
		}
	default:
		t.Errorf("Expected at most one entry, got %d", registry.Len())
	}
}
