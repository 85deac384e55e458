package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/pkg/logger"
	"github.com/okian/raidline/pkg/metrics"
)

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger for the registry.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Registry is the in-memory registry of members, persisted as whole
// snapshots through a Store. Missing numeric ids are resolved lazily.
type Registry struct {
	mu       sync.Mutex
	entries  map[model.MemberID]model.RegistryEntry
	store    Store
	resolver Resolver
	logger   logger.Logger
}

// NewRegistry creates a Registry over the given store and resolver.
// Call Load before use to pick up persisted entries.
func NewRegistry(store Store, resolver Resolver, opts ...Option) *Registry {
	r := &Registry{
		entries:  make(map[model.MemberID]model.RegistryEntry),
		store:    store,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get()
	}
	return r
}

// Load replaces the in-memory registry with the persisted snapshot.
func (r *Registry) Load(ctx context.Context) error {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries = entries
	size := len(entries)
	r.mu.Unlock()
	metrics.UpdateRegistryMembers(size)
	r.logger.Info(ctx, "registry loaded", logger.Int("members", size))
	return nil
}

// Register links a member to a handle, overwriting any prior entry.
// The numeric id is reset to unresolved and the snapshot is persisted
// before returning.
func (r *Registry) Register(ctx context.Context, member model.MemberID, handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.entries[member]
	r.entries[member] = model.RegistryEntry{Handle: handle}
	if err := r.persistLocked(ctx); err != nil {
		if existed {
			r.entries[member] = prev
		} else {
			delete(r.entries, member)
		}
		return err
	}
	metrics.UpdateRegistryMembers(len(r.entries))
	r.logger.Info(ctx, "member registered",
		logger.String("member", string(member)),
		logger.String("handle", handle),
	)
	return nil
}

// Get returns the entry for member, if any.
func (r *Registry) Get(ctx context.Context, member model.MemberID) (model.RegistryEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[member]
	return e, ok
}

// ResolveNumericID returns the member's numeric id, resolving and persisting
// it on first use. A failed resolution leaves the entry unresolved and
// returns ErrResolutionFailed wrapping the lookup error; it is never fatal.
func (r *Registry) ResolveNumericID(ctx context.Context, member model.MemberID) (model.NumericID, error) {
	r.mu.Lock()
	entry, ok := r.entries[member]
	r.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, member)
	}
	if entry.Resolved() {
		return entry.NumericID, nil
	}

	// Network call happens outside the lock.
	id, err := r.resolver.ResolveHandle(ctx, entry.Handle)
	if err != nil {
		return "", fmt.Errorf("%w: @%s: %w", ErrResolutionFailed, entry.Handle, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.entries[member]
	if !ok || current.Handle != entry.Handle {
		// Entry was re-registered while we were resolving; keep the new one.
		return id, nil
	}
	current.NumericID = id
	r.entries[member] = current
	if err := r.persistLocked(ctx); err != nil {
		// The id is still usable this session; persistence retries next time.
		r.logger.Warn(ctx, "failed to persist resolved id", logger.Error(err))
	}
	return id, nil
}

// Size returns the number of registered members.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) persistLocked(ctx context.Context) error {
	snapshot := make(map[model.MemberID]model.RegistryEntry, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	return r.store.Save(ctx, snapshot)
}
