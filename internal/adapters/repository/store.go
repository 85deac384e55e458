// Package repository owns the persistent member registry and its backing
// snapshot store.
package repository

import (
	"context"

	"github.com/okian/raidline/internal/domain/model"
)

// Store persists whole registry snapshots. No partial updates: the registry
// is small and single-writer, so load-all/save-all keeps the contract simple
// and restart-safe.
type Store interface {
	// Load returns the full persisted registry, empty when nothing was saved.
	Load(ctx context.Context) (map[model.MemberID]model.RegistryEntry, error)

	// Save replaces the persisted registry with the given snapshot.
	Save(ctx context.Context, entries map[model.MemberID]model.RegistryEntry) error
}

// Resolver turns a handle into a stable numeric id. Implemented by the xapi
// client; declared here so the registry does not depend on the adapter.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (model.NumericID, error)
}
