// Package scoring computes the reply-match report for a closed window.
package scoring

import (
	"context"
	"sort"
	"time"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/session"
	"github.com/okian/raidline/pkg/logger"
	"github.com/okian/raidline/pkg/metrics"
)

// unknownHandle labels participants who never registered.
const unknownHandle = "Unknown"

// Registry is what the engine needs from the member registry.
type Registry interface {
	Get(ctx context.Context, member model.MemberID) (model.RegistryEntry, bool)
	ResolveNumericID(ctx context.Context, member model.MemberID) (model.NumericID, error)
}

// Fetcher retrieves the set of targets an account recently replied to.
type Fetcher interface {
	ReplyTargets(ctx context.Context, id model.NumericID, targetHint int) (map[model.TargetID]struct{}, error)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine scores one session snapshot at a time. It holds no session state
// itself; the snapshot is taken before any network call is made.
type Engine struct {
	registry Registry
	fetcher  Fetcher
	logger   logger.Logger
}

// New creates an Engine over the given registry and fetcher.
func New(registry Registry, fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		fetcher:  fetcher,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get()
	}
	return e
}

// ScoreSession ranks every submitter of the snapshot by how many of the
// session's targets they replied to.
//
// Per-participant failures (unregistered, unresolvable handle, fetch error)
// degrade that participant to score 0 and never abort the report. An empty
// target set produces an empty report without any external call. Records are
// ordered by score descending; ties keep first-submission order.
func (e *Engine) ScoreSession(ctx context.Context, snap session.Snapshot) []model.ScoreRecord {
	if len(snap.Targets) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordScoringDuration(time.Since(start).Seconds())
	}()

	records := make([]model.ScoreRecord, 0, len(snap.Participants))
	for _, member := range snap.Participants {
		records = append(records, e.scoreParticipant(ctx, member, snap.Targets))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})

	metrics.RecordParticipantsScored(len(records))
	return records
}

func (e *Engine) scoreParticipant(ctx context.Context, member model.MemberID, targets map[model.TargetID]model.MemberID) model.ScoreRecord {
	record := model.ScoreRecord{Member: member, Handle: unknownHandle}

	entry, ok := e.registry.Get(ctx, member)
	if !ok {
		return record
	}
	record.Handle = entry.Handle

	numericID, err := e.registry.ResolveNumericID(ctx, member)
	if err != nil {
		e.logger.Warn(ctx, "participant id unresolved, scoring zero",
			logger.String("member", string(member)),
			logger.Error(err),
		)
		return record
	}

	replies, err := e.fetcher.ReplyTargets(ctx, numericID, len(targets))
	if err != nil {
		// "Could not determine" scores the same as zero, but is logged so it
		// stays distinguishable from a genuine zero.
		e.logger.Warn(ctx, "reply fetch failed, scoring zero",
			logger.String("member", string(member)),
			logger.Error(err),
		)
		return record
	}

	score := 0
	for target := range targets {
		if _, hit := replies[target]; hit {
			score++
		}
	}
	// Clamp guards future extraction bugs; the intersection itself cannot
	// exceed the target count.
	if score > len(targets) {
		score = len(targets)
	}
	record.Score = score
	return record
}
