package vote

import "sort"

// CountMismatch is a participant whose vote count differs between two sources.
type CountMismatch struct {
	ParticipantID int `json:"pid"`
	Expected      int `json:"expected"`
	Actual        int `json:"actual"`
}

// DiffCounts compares two per-participant count maps. A participant missing
// on one side counts as zero there. The result is ordered by participant id.
func DiffCounts(expected, actual map[int]int) []CountMismatch {
	seen := make(map[int]struct{}, len(expected)+len(actual))
	for pid := range expected {
		seen[pid] = struct{}{}
	}
	for pid := range actual {
		seen[pid] = struct{}{}
	}
	out := []CountMismatch{}
	for pid := range seen {
		if expected[pid] != actual[pid] {
			out = append(out, CountMismatch{ParticipantID: pid, Expected: expected[pid], Actual: actual[pid]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}
