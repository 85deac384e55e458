package simulate

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// statusIDCeiling bounds fabricated post ids to a realistic magnitude.
const statusIDCeiling = 1_000_000_000_000

// generateMembers fabricates synthetic members, each with a handle derived
// from its id and a unique post link for the session.
func generateMembers(count int) []Member {
	members := make([]Member, count)
	for i := range members {
		id := uuid.NewString()
		handle := "sim_" + strings.ReplaceAll(id[:8], "-", "")
		members[i] = Member{
			ID:     id,
			Handle: handle,
			Link:   "https://x.com/" + handle + "/status/" + randomStatusID(),
		}
	}
	return members
}

// randomStatusID returns a random numeric post id.
func randomStatusID() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(statusIDCeiling))
	return n.String()
}
