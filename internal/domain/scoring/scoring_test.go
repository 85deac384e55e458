package scoring_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/raidline/internal/adapters/repository"
	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/scoring"
	"github.com/okian/raidline/internal/domain/session"
	"github.com/okian/raidline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// fakeRegistry serves entries from fixed maps.
type fakeRegistry struct {
	entries map[model.MemberID]model.RegistryEntry
	ids     map[model.MemberID]model.NumericID
}

func (r *fakeRegistry) Get(_ context.Context, m model.MemberID) (model.RegistryEntry, bool) {
	e, ok := r.entries[m]
	return e, ok
}

func (r *fakeRegistry) ResolveNumericID(_ context.Context, m model.MemberID) (model.NumericID, error) {
	id, ok := r.ids[m]
	if !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrResolutionFailed, m)
	}
	return id, nil
}

// fakeFetcher returns canned reply sets per numeric id and counts calls.
type fakeFetcher struct {
	replies map[model.NumericID][]model.TargetID
	fail    map[model.NumericID]bool
	calls   int
}

func (f *fakeFetcher) ReplyTargets(_ context.Context, id model.NumericID, _ int) (map[model.TargetID]struct{}, error) {
	f.calls++
	if f.fail[id] {
		return nil, fmt.Errorf("reply fetch failed: user %s", id)
	}
	out := make(map[model.TargetID]struct{})
	for _, t := range f.replies[id] {
		out[t] = struct{}{}
	}
	return out, nil
}

func snapshotOf(subs map[model.MemberID]string) session.Snapshot {
	st := session.New()
	st.Open(time.Now())
	for _, pair := range []model.MemberID{"A", "B", "C", "D"} {
		if text, ok := subs[pair]; ok {
			st.Submit(pair, text)
		}
	}
	return st.CloseAndDrain()
}

func TestScoreSession(t *testing.T) {
	Convey("Given a session where three members submitted three targets", t, func() {
		reg := &fakeRegistry{
			entries: map[model.MemberID]model.RegistryEntry{
				"A": {Handle: "alice_x"},
				"B": {Handle: "bob_x"},
				"C": {Handle: "carol_x"},
			},
			ids: map[model.MemberID]model.NumericID{"A": "1", "B": "2", "C": "3"},
		}
		fetcher := &fakeFetcher{replies: map[model.NumericID][]model.TargetID{
			"1": {"200", "300"},
			"2": {},
			"3": {"100"},
		}}
		engine := scoring.New(reg, fetcher)
		snap := snapshotOf(map[model.MemberID]string{
			"A": "status/100",
			"B": "status/200",
			"C": "status/300",
		})

		Convey("When the session is scored", func() {
			records := engine.ScoreSession(context.Background(), snap)

			Convey("Then the ranking is A(2), C(1), B(0)", func() {
				So(records, ShouldHaveLength, 3)
				So(records[0], ShouldResemble, model.ScoreRecord{Member: "A", Handle: "alice_x", Score: 2})
				So(records[1], ShouldResemble, model.ScoreRecord{Member: "C", Handle: "carol_x", Score: 1})
				So(records[2], ShouldResemble, model.ScoreRecord{Member: "B", Handle: "bob_x", Score: 0})
			})
		})
	})

	Convey("Given an empty session", t, func() {
		fetcher := &fakeFetcher{}
		engine := scoring.New(&fakeRegistry{}, fetcher)

		Convey("When it is scored", func() {
			records := engine.ScoreSession(context.Background(), session.New().CloseAndDrain())

			Convey("Then the report is empty and no lookup is made", func() {
				So(records, ShouldBeEmpty)
				So(fetcher.calls, ShouldEqual, 0)
			})
		})
	})

	Convey("Given participants in degraded states", t, func() {
		reg := &fakeRegistry{
			entries: map[model.MemberID]model.RegistryEntry{
				"A": {Handle: "alice_x"},
				"B": {Handle: "bob_x"},
				"C": {Handle: "carol_x"},
			},
			ids: map[model.MemberID]model.NumericID{"A": "1", "C": "3"},
		}
		fetcher := &fakeFetcher{
			replies: map[model.NumericID][]model.TargetID{
				// C's fetch succeeds with duplicates and out-of-session ids.
				"3": {"100", "100", "999", "200"},
			},
			fail: map[model.NumericID]bool{"1": true},
		}
		engine := scoring.New(reg, fetcher)
		snap := snapshotOf(map[model.MemberID]string{
			"A": "status/100",
			"B": "status/200",
			"C": "status/300",
			"D": "status/400",
		})

		Convey("When the session is scored", func() {
			records := engine.ScoreSession(context.Background(), snap)

			Convey("Then every participant appears exactly once", func() {
				So(records, ShouldHaveLength, 4)
			})

			Convey("Then the unregistered member scores zero as Unknown", func() {
				var d model.ScoreRecord
				for _, r := range records {
					if r.Member == "D" {
						d = r
					}
				}
				So(d.Handle, ShouldEqual, "Unknown")
				So(d.Score, ShouldEqual, 0)
			})

			Convey("Then the fetch failure and unresolved id degrade to zero with known handles", func() {
				for _, r := range records {
					switch r.Member {
					case "A":
						So(r.Handle, ShouldEqual, "alice_x")
						So(r.Score, ShouldEqual, 0)
					case "B":
						So(r.Handle, ShouldEqual, "bob_x")
						So(r.Score, ShouldEqual, 0)
					}
				}
			})

			Convey("Then duplicates and foreign ids never push a score past the target count", func() {
				So(records[0].Member, ShouldEqual, model.MemberID("C"))
				So(records[0].Score, ShouldEqual, 2)
				for _, r := range records {
					So(r.Score, ShouldBeLessThanOrEqualTo, len(snap.Targets))
					So(r.Score, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})
		})
	})

	Convey("Given an all-zero session", t, func() {
		reg := &fakeRegistry{
			entries: map[model.MemberID]model.RegistryEntry{
				"A": {Handle: "alice_x"},
				"B": {Handle: "bob_x"},
			},
			ids: map[model.MemberID]model.NumericID{"A": "1", "B": "2"},
		}
		fetcher := &fakeFetcher{replies: map[model.NumericID][]model.TargetID{}}
		engine := scoring.New(reg, fetcher)
		snap := snapshotOf(map[model.MemberID]string{
			"A": "status/100",
			"B": "status/200",
		})

		Convey("When scores tie", func() {
			records := engine.ScoreSession(context.Background(), snap)

			Convey("Then first-submission order breaks the tie", func() {
				So(records[0].Member, ShouldEqual, model.MemberID("A"))
				So(records[1].Member, ShouldEqual, model.MemberID("B"))
			})
		})
	})
}
