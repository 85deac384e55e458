// Package report renders a scored session as plain text and splits it to fit
// the chat platform's message size limit.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/raidline/internal/domain/model"
)

// DefaultChunkLimit is the platform message size limit the report is split
// against. Anything longer goes out as two consecutive messages.
const DefaultChunkLimit = 1900

// RequiredReplies is the percentage denominator for a session with the given
// target count. A participant cannot reply to their own link, so the
// achievable maximum is one less than the total when more than one exists.
func RequiredReplies(targetCount int) int {
	if targetCount > 1 {
		return targetCount - 1
	}
	return 1
}

// Percent returns score/required as a whole percentage, clamped to 100.
func Percent(score, required int) int {
	pct := score * 100 / required
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Build renders the final report for a closed session.
func Build(closedAt time.Time, targetCount int, records []model.ScoreRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ENGAGEMENT REPORT - %s\n", closedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Targets: %d | Participants: %d\n", targetCount, len(records))

	required := RequiredReplies(targetCount)
	for _, r := range records {
		fmt.Fprintf(&b, "<@%s> (@%s) - %d/%d (%d%%)\n",
			r.Member, r.Handle, r.Score, required, Percent(r.Score, required))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Chunk splits text into at most two messages: the first limit bytes, then
// the remainder. Reports short enough come back as a single chunk.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	if len(text) <= limit {
		return []string{text}
	}
	return []string{text[:limit], text[limit:]}
}
