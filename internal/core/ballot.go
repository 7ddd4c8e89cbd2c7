package core

import (
	"slices"
	"time"
)

// Ballot is the in-progress set of unique voters for a restart vote.
type Ballot struct {
	Voters    []string
	CreatedAt time.Time
}

// Empty reports whether no votes have been cast.
func (b Ballot) Empty() bool {
	return len(b.Voters) == 0
}

// Tally returns the number of unique voters.
func (b Ballot) Tally() int {
	return len(b.Voters)
}

// Expired reports whether the ballot is older than expiry at now.
// An empty ballot never expires.
func (b Ballot) Expired(now time.Time, expiry time.Duration) bool {
	if b.Empty() {
		return false
	}
	return now.Sub(b.CreatedAt) > expiry
}

// Merge adds voters not already on the ballot and returns the ones added.
// CreatedAt is set to now when the first voter arrives.
func (b *Ballot) Merge(voters []string, now time.Time) []string {
	var added []string
	for _, v := range voters {
		if v == "" || slices.Contains(b.Voters, v) {
			continue
		}
		if b.Empty() {
			b.CreatedAt = now
		}
		b.Voters = append(b.Voters, v)
		added = append(added, v)
	}
	return added
}

// Unacknowledged returns the voters not present in acked, in ballot order.
func (b Ballot) Unacknowledged(acked []string) []string {
	var out []string
	for _, v := range b.Voters {
		if !slices.Contains(acked, v) {
			out = append(out, v)
		}
	}
	return out
}
