package vote

import "sync"

// Store is the append-only vote log of one conversation.
//
// Every write appends the record, bumps the participant's running count and
// the latest timestamp under a single lock, then invalidates all attached
// derived caches after the lock is released (caches read the store while
// rebuilding). Counts are per record: a changed vote on the same statement
// counts again.
type Store struct {
	mu            sync.RWMutex
	votes         []Vote
	counts        map[int]int
	lastTimestamp int64
	maxPID        int
	maxTID        int
	dependents    []Invalidator
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{counts: make(map[int]int), maxPID: -1, maxTID: -1}
}

// Attach registers derived state that is invalidated on every write.
func (s *Store) Attach(deps ...Invalidator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dependents = append(s.dependents, deps...)
}

// Record appends a single vote.
func (s *Store) Record(v Vote) error {
	if err := v.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.append(v)
	deps := s.dependents
	s.mu.Unlock()
	invalidate(deps)
	return nil
}

// BulkRecord applies Record to each vote in order and stops at the first
// invalid one. Votes before the failing record remain applied.
func (s *Store) BulkRecord(votes []Vote) error {
	s.mu.Lock()
	var err error
	applied := 0
	for _, v := range votes {
		if err = v.Validate(); err != nil {
			break
		}
		s.append(v)
		applied++
	}
	deps := s.dependents
	s.mu.Unlock()
	if applied > 0 {
		invalidate(deps)
	}
	return err
}

func (s *Store) append(v Vote) {
	s.counts[v.ParticipantID]++
	s.maxPID = max(s.maxPID, v.ParticipantID)
	s.maxTID = max(s.maxTID, v.StatementID)
	if v.Modified > s.lastTimestamp {
		s.lastTimestamp = v.Modified
	}
	s.votes = append(s.votes, v)
}

func invalidate(deps []Invalidator) {
	for _, d := range deps {
		d.Invalidate()
	}
}

// VoteCount returns the number of records seen for a participant, zero if none.
func (s *Store) VoteCount(participantID int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[participantID]
}

// VoteCounts returns a copy of the per-participant running counts.
func (s *Store) VoteCounts() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]int, len(s.counts))
	for pid, c := range s.counts {
		out[pid] = c
	}
	return out
}

// LastTimestamp returns the newest Modified value seen, zero for an empty store.
func (s *Store) LastTimestamp() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTimestamp
}

// MaxIDs returns the largest participant and statement ids in the log, -1
// for an empty store.
func (s *Store) MaxIDs() (participantID, statementID int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxPID, s.maxTID
}

// Votes returns a copy of the log in arrival order.
func (s *Store) Votes() []Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Vote, len(s.votes))
	copy(out, s.votes)
	return out
}

// Len returns the number of records in the log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.votes)
}
