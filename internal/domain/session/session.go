// Package session implements the link collector for an engagement window.
//
// A State is owned by the scheduler: it is reset when a window opens, mutated
// by submissions while the window is open, and drained exactly once when the
// window closes. All access is serialized by the State's own lock so a
// submission can never land after the close has begun.
package session

import (
	"regexp"
	"sync"
	"time"

	"github.com/okian/raidline/internal/domain/model"
)

// targetPattern locates the well-known embedded post id in free-form text.
// The digit run after the marker is the target id.
var targetPattern = regexp.MustCompile(`status/(\d+)`)

// ExtractTarget pulls the first target id out of raw message text.
func ExtractTarget(text string) (model.TargetID, bool) {
	m := targetPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return model.TargetID(m[1]), true
}

// Option applies a configuration option to State.
type Option func(*State)

// WithSingleSubmission limits each member to one recorded target per window.
// Further links from the same member are ignored.
func WithSingleSubmission() Option {
	return func(s *State) {
		s.single = true
	}
}

// State records the targets submitted during the currently open window.
type State struct {
	mu       sync.Mutex
	open     bool
	openedAt time.Time
	targets  map[model.TargetID]model.MemberID
	order    []model.MemberID
	single   bool
}

// Snapshot is the read-once view taken when a window closes.
type Snapshot struct {
	// Targets maps each submitted target to its submitter.
	Targets map[model.TargetID]model.MemberID
	// Participants lists distinct submitters in first-submission order.
	// This order is the ranking tie-break.
	Participants []model.MemberID
	OpenedAt     time.Time
}

// New creates an empty, closed State.
func New(opts ...Option) *State {
	s := &State{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open discards any previous contents and starts accepting submissions.
func (s *State) Open(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.openedAt = now
	s.targets = make(map[model.TargetID]model.MemberID)
	s.order = nil
}

// Submit extracts a target id from text and records it for member.
// It reports the extracted id and whether it was recorded. Nothing is
// recorded when no id is present, when the window is not open, when the
// target was already submitted (the first submitter keeps ownership), or
// when single-submission mode is on and the member already has a target.
func (s *State) Submit(member model.MemberID, text string) (model.TargetID, bool) {
	id, ok := ExtractTarget(text)
	if !ok {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return id, false
	}
	if _, taken := s.targets[id]; taken {
		return id, false
	}
	seen := false
	for _, m := range s.order {
		if m == member {
			seen = true
			break
		}
	}
	if s.single && seen {
		return id, false
	}
	s.targets[id] = member
	if !seen {
		s.order = append(s.order, member)
	}
	return id, true
}

// CloseAndDrain bars further submissions and returns the final snapshot.
// The State keeps nothing afterwards; a later drain returns an empty view.
func (s *State) CloseAndDrain() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Targets:      s.targets,
		Participants: s.order,
		OpenedAt:     s.openedAt,
	}
	if snap.Targets == nil {
		snap.Targets = make(map[model.TargetID]model.MemberID)
	}
	s.open = false
	s.targets = nil
	s.order = nil
	return snap
}

// IsOpen reports whether submissions are currently accepted.
func (s *State) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Counts returns the current number of targets and distinct submitters.
func (s *State) Counts() (targets, participants int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets), len(s.order)
}
