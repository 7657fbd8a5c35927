package embedding

import (
	"fmt"
	"sort"
	"strconv"
)

// MathData is the subset of a Polis math export consumed here.
type MathData struct {
	GroupClusters     []GroupCluster `json:"group-clusters"`
	BaseClusters      BaseClusters   `json:"base-clusters"`
	InConv            []int          `json:"in-conv,omitempty"`
	UserVoteCounts    map[string]int `json:"user-vote-counts,omitempty"`
	LastVoteTimestamp int64          `json:"lastVoteTimestamp,omitempty"`
}

// VoteCounts converts the string-keyed user-vote-counts into participant ids.
func (d MathData) VoteCounts() (map[int]int, error) {
	out := make(map[int]int, len(d.UserVoteCounts))
	for k, c := range d.UserVoteCounts {
		pid, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("user-vote-counts key %q: %w", k, err)
		}
		out[pid] = c
	}
	return out, nil
}

// InConversation returns the in-conv participant ids, ascending.
func (d MathData) InConversation() []int {
	out := append([]int(nil), d.InConv...)
	sort.Ints(out)
	return out
}
