package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/raidline/internal/adapters/repository"
	"github.com/okian/raidline/internal/adapters/xapi"
	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// memStore is an in-memory Store for registry tests.
type memStore struct {
	mu       sync.Mutex
	snapshot map[model.MemberID]model.RegistryEntry
	saves    int
	failSave bool
}

func (s *memStore) Load(_ context.Context) (map[model.MemberID]model.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[model.MemberID]model.RegistryEntry, len(s.snapshot))
	for k, v := range s.snapshot {
		out[k] = v
	}
	return out, nil
}

func (s *memStore) Save(_ context.Context, entries map[model.MemberID]model.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("disk full")
	}
	s.saves++
	s.snapshot = make(map[model.MemberID]model.RegistryEntry, len(entries))
	for k, v := range entries {
		s.snapshot[k] = v
	}
	return nil
}

// stubResolver resolves from a fixed table.
type stubResolver struct {
	ids   map[string]model.NumericID
	calls int
}

func (r *stubResolver) ResolveHandle(_ context.Context, handle string) (model.NumericID, error) {
	r.calls++
	id, ok := r.ids[handle]
	if !ok {
		return "", xapi.ErrLookupFailed
	}
	return id, nil
}

func TestRegister(t *testing.T) {
	Convey("Given a registry over an empty store", t, func() {
		store := &memStore{}
		resolver := &stubResolver{ids: map[string]model.NumericID{"alice_x": "42"}}
		reg := repository.NewRegistry(store, resolver)
		ctx := context.Background()

		Convey("When a member registers a handle", func() {
			err := reg.Register(ctx, "m1", "alice_x")

			Convey("Then the entry is persisted immediately, unresolved", func() {
				So(err, ShouldBeNil)
				So(store.saves, ShouldEqual, 1)
				entry, ok := reg.Get(ctx, "m1")
				So(ok, ShouldBeTrue)
				So(entry.Handle, ShouldEqual, "alice_x")
				So(entry.Resolved(), ShouldBeFalse)
			})
		})

		Convey("When a member re-registers with a new handle", func() {
			So(reg.Register(ctx, "m1", "alice_x"), ShouldBeNil)
			_, err := reg.ResolveNumericID(ctx, "m1")
			So(err, ShouldBeNil)
			So(reg.Register(ctx, "m1", "alice_renamed"), ShouldBeNil)

			Convey("Then the numeric id is reset to unresolved", func() {
				entry, ok := reg.Get(ctx, "m1")
				So(ok, ShouldBeTrue)
				So(entry.Handle, ShouldEqual, "alice_renamed")
				So(entry.Resolved(), ShouldBeFalse)
			})
		})

		Convey("When persistence fails", func() {
			store.failSave = true
			err := reg.Register(ctx, "m1", "alice_x")

			Convey("Then the in-memory registry is rolled back", func() {
				So(err, ShouldNotBeNil)
				_, ok := reg.Get(ctx, "m1")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestResolveNumericID(t *testing.T) {
	Convey("Given a registered member without a numeric id", t, func() {
		store := &memStore{}
		resolver := &stubResolver{ids: map[string]model.NumericID{"alice_x": "42"}}
		reg := repository.NewRegistry(store, resolver)
		ctx := context.Background()
		So(reg.Register(ctx, "m1", "alice_x"), ShouldBeNil)

		Convey("When the id resolves", func() {
			id, err := reg.ResolveNumericID(ctx, "m1")

			Convey("Then it is returned and persisted", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, model.NumericID("42"))
				So(store.snapshot["m1"].NumericID, ShouldEqual, model.NumericID("42"))
			})

			Convey("And a second resolve uses the cache", func() {
				_, err := reg.ResolveNumericID(ctx, "m1")
				So(err, ShouldBeNil)
				So(resolver.calls, ShouldEqual, 1)
			})
		})

		Convey("When the lookup fails", func() {
			So(reg.Register(ctx, "m2", "ghost"), ShouldBeNil)
			_, err := reg.ResolveNumericID(ctx, "m2")

			Convey("Then the failure wraps both sentinel kinds", func() {
				So(errors.Is(err, repository.ErrResolutionFailed), ShouldBeTrue)
				So(errors.Is(err, xapi.ErrLookupFailed), ShouldBeTrue)
			})

			Convey("And the entry stays unresolved", func() {
				entry, ok := reg.Get(ctx, "m2")
				So(ok, ShouldBeTrue)
				So(entry.Resolved(), ShouldBeFalse)
			})
		})

		Convey("When the member is unknown", func() {
			_, err := reg.ResolveNumericID(ctx, "nobody")

			Convey("Then it reports not registered", func() {
				So(errors.Is(err, repository.ErrNotRegistered), ShouldBeTrue)
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given a store with persisted entries", t, func() {
		store := &memStore{snapshot: map[model.MemberID]model.RegistryEntry{
			"m1": {Handle: "alice_x", NumericID: "42"},
			"m2": {Handle: "bob_x"},
		}}
		reg := repository.NewRegistry(store, &stubResolver{})

		Convey("When the registry loads", func() {
			err := reg.Load(context.Background())

			Convey("Then entries survive a restart", func() {
				So(err, ShouldBeNil)
				So(reg.Size(), ShouldEqual, 2)
				entry, ok := reg.Get(context.Background(), "m1")
				So(ok, ShouldBeTrue)
				So(entry.NumericID, ShouldEqual, model.NumericID("42"))
			})
		})
	})
}
